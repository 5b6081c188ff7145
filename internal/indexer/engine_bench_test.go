package indexer

import (
	"fmt"
	"math/rand/v2"
	"strings"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
)

var benchVocabulary = strings.Fields(`cat dog rat pet bird fish funny nasty curly
	hair collar tail paw fur whiskers bark meow squeak cage bowl leash groomed
	fluffy spotted striped sleepy hungry playful loud quiet`)

func benchText(r *rand.Rand, words int) string {
	var sb strings.Builder
	for i := range words {
		if i > 0 {
			sb.WriteByte(' ')
		}
		sb.WriteString(benchVocabulary[r.IntN(len(benchVocabulary))])
	}
	return sb.String()
}

func newBenchEngine(b *testing.B, docs int) *Engine {
	b.Helper()
	e, err := NewEngine("and with the")
	if err != nil {
		b.Fatal(err)
	}
	r := rand.New(rand.NewPCG(1, 2))
	for id := range docs {
		if err := e.AddDocument(id, benchText(r, 20), index.StatusActual, []int{r.IntN(10), r.IntN(10)}); err != nil {
			b.Fatal(err)
		}
	}
	return e
}

func BenchmarkAddDocument(b *testing.B) {
	r := rand.New(rand.NewPCG(3, 4))
	texts := make([]string, 1000)
	for i := range texts {
		texts[i] = benchText(r, 20)
	}
	e, err := NewEngine("and with the")
	if err != nil {
		b.Fatal(err)
	}
	b.ReportAllocs()
	for i := 0; b.Loop(); i++ {
		if err := e.AddDocument(i, texts[i%len(texts)], index.StatusActual, nil); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkFindTopDocuments(b *testing.B) {
	queries := map[string]string{
		"single": "rat",
		"multi":  "funny pet curly hair",
		"minus":  "pet fur -nasty -loud",
	}
	for _, docs := range []int{100, 1000, 10000} {
		e := newBenchEngine(b, docs)
		for name, q := range queries {
			b.Run(fmt.Sprintf("docs_%d/%s", docs, name), func(b *testing.B) {
				b.ReportAllocs()
				for b.Loop() {
					if _, err := e.FindTopDocuments(q); err != nil {
						b.Fatal(err)
					}
				}
			})
		}
	}
}

func BenchmarkMatchDocument(b *testing.B) {
	e := newBenchEngine(b, 1000)
	b.ReportAllocs()
	for i := 0; b.Loop(); i++ {
		if _, _, err := e.MatchDocument("funny pet -nasty", i%1000); err != nil {
			b.Fatal(err)
		}
	}
}

func BenchmarkRemoveDuplicates(b *testing.B) {
	for range b.N {
		b.StopTimer()
		e := newBenchEngine(b, 2000)
		b.StartTimer()
		if _, err := e.RemoveDuplicates(); err != nil {
			b.Fatal(err)
		}
	}
}
