package parser

import (
	"slices"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

func TestParse(t *testing.T) {
	stop, _ := tokenizer.ParseStopWords("in the and")
	tests := []struct {
		name      string
		raw       string
		wantPlus  []string
		wantMinus []string
	}{
		{"plain", "fluffy cat", []string{"cat", "fluffy"}, []string{}},
		{"minus", "cat -dog", []string{"cat"}, []string{"dog"}},
		{"duplicates collapse", "cat cat -dog -dog", []string{"cat"}, []string{"dog"}},
		{"stop words dropped", "the cat in -the hat", []string{"cat", "hat"}, []string{}},
		{"empty", "   ", []string{}, []string{}},
		{"inner hyphen", "well-groomed -x-ray", []string{"well-groomed"}, []string{"x-ray"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			q, err := Parse(tt.raw, stop)
			if err != nil {
				t.Fatalf("Parse(%q): %v", tt.raw, err)
			}
			if !slices.Equal(q.PlusTerms, tt.wantPlus) {
				t.Errorf("PlusTerms = %v, want %v", q.PlusTerms, tt.wantPlus)
			}
			if !slices.Equal(q.MinusTerms, tt.wantMinus) {
				t.Errorf("MinusTerms = %v, want %v", q.MinusTerms, tt.wantMinus)
			}
			if q.RawQuery != tt.raw {
				t.Errorf("RawQuery = %q", q.RawQuery)
			}
		})
	}
}

func TestParseRejectsMalformedQueries(t *testing.T) {
	for _, raw := range []string{
		"cat -",
		"- dog",
		"cat --dog",
		"--",
		"cat\x1bdog",
	} {
		if _, err := Parse(raw, nil); !apperrors.IsInvalidArgument(err) {
			t.Errorf("Parse(%q) = %v, want InvalidArgument", raw, err)
		}
	}
}

func TestParseNilStopWords(t *testing.T) {
	q, err := Parse("the cat", nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(q.PlusTerms) != 2 {
		t.Fatalf("expected both terms without a stop-word set, got %v", q.PlusTerms)
	}
	if q.Empty() {
		t.Fatalf("query with plus terms reported empty")
	}
}
