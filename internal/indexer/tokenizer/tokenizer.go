// Package tokenizer splits raw text into space-delimited terms and holds
// the stop-word set. Terms are taken verbatim: no casing, stemming or
// Unicode folding is applied.
package tokenizer

import (
	"iter"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// Validate rejects text containing any character below 0x20.
func Validate(text string) error {
	for i, r := range text {
		if r < 0x20 {
			return apperrors.InvalidArgument("control character in text at byte %d", i)
		}
	}
	return nil
}

// Words returns the terms of text in order. Only the ASCII space separates
// terms; other whitespace such as U+00A0 is part of a term. The sequence is
// lazy and may be ranged over any number of times.
func Words(text string) iter.Seq[string] {
	return func(yield func(string) bool) {
		for w := range strings.SplitSeq(text, " ") {
			if w == "" {
				continue
			}
			if !yield(w) {
				return
			}
		}
	}
}

// StopWords is an immutable-by-convention set of terms excluded from both
// indexing and querying.
type StopWords map[string]struct{}

// NewStopWords builds a set from individual words. Empty strings are
// skipped; a word with a control character fails with InvalidArgument.
func NewStopWords(words []string) (StopWords, error) {
	set := make(StopWords, len(words))
	for _, w := range words {
		if err := Validate(w); err != nil {
			return nil, err
		}
		if w == "" {
			continue
		}
		set[w] = struct{}{}
	}
	return set, nil
}

// ParseStopWords builds a set from whitespace-separated text.
func ParseStopWords(text string) (StopWords, error) {
	if err := Validate(text); err != nil {
		return nil, err
	}
	set := make(StopWords)
	for w := range Words(text) {
		set[w] = struct{}{}
	}
	return set, nil
}

func (s StopWords) IsStopWord(word string) bool {
	_, ok := s[word]
	return ok
}

// Merge returns a new set holding the words of both sets.
func (s StopWords) Merge(other StopWords) StopWords {
	merged := make(StopWords, len(s)+len(other))
	for w := range s {
		merged[w] = struct{}{}
	}
	for w := range other {
		merged[w] = struct{}{}
	}
	return merged
}

// Filter validates text and returns its terms with stop words removed.
func (s StopWords) Filter(text string) ([]string, error) {
	if err := Validate(text); err != nil {
		return nil, err
	}
	words := make([]string, 0, strings.Count(text, " ")+1)
	for w := range Words(text) {
		if s.IsStopWord(w) {
			continue
		}
		words = append(words, w)
	}
	return words, nil
}
