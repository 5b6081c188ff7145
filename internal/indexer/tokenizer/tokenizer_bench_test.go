package tokenizer

import (
	"strings"
	"testing"
)

var benchTexts = map[string]string{
	"short":  "funny pet and nasty rat",
	"medium": strings.Repeat("funny pet with curly hair and a nasty rat in the cage ", 10),
	"long":   strings.Repeat("the quick brown fox jumps over the lazy dog with a collar ", 200),
}

func BenchmarkFilter(b *testing.B) {
	sw, err := ParseStopWords("a and in on the with")
	if err != nil {
		b.Fatal(err)
	}
	for name, text := range benchTexts {
		b.Run(name, func(b *testing.B) {
			b.ReportAllocs()
			b.SetBytes(int64(len(text)))
			for b.Loop() {
				if _, err := sw.Filter(text); err != nil {
					b.Fatal(err)
				}
			}
		})
	}
}

func BenchmarkFilterParallel(b *testing.B) {
	sw, err := ParseStopWords("a and in on the with")
	if err != nil {
		b.Fatal(err)
	}
	text := benchTexts["medium"]
	b.ReportAllocs()
	b.SetBytes(int64(len(text)))
	b.RunParallel(func(pb *testing.PB) {
		for pb.Next() {
			if _, err := sw.Filter(text); err != nil {
				b.Error(err)
				return
			}
		}
	})
}
