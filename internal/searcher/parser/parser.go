package parser

import (
	"slices"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// StopWordChecker reports whether a term is excluded from querying.
type StopWordChecker interface {
	IsStopWord(word string) bool
}

// Query is a parsed free-text query. PlusTerms must be present for a
// document to score; any MinusTerm excludes the document outright. Both are
// sorted and deduplicated, and they never contain stop words.
type Query struct {
	PlusTerms  []string
	MinusTerms []string
	RawQuery   string
}

// Parse turns raw into a Query. A lone "-" or a term starting with "--" is
// rejected, as is any control character anywhere in raw.
func Parse(raw string, stopWords StopWordChecker) (*Query, error) {
	if err := tokenizer.Validate(raw); err != nil {
		return nil, err
	}
	plus := make(map[string]struct{})
	minus := make(map[string]struct{})
	for word := range tokenizer.Words(raw) {
		term, excluded, err := parseTerm(word)
		if err != nil {
			return nil, err
		}
		if stopWords != nil && stopWords.IsStopWord(term) {
			continue
		}
		if excluded {
			minus[term] = struct{}{}
		} else {
			plus[term] = struct{}{}
		}
	}
	return &Query{
		PlusTerms:  sortedKeys(plus),
		MinusTerms: sortedKeys(minus),
		RawQuery:   raw,
	}, nil
}

func parseTerm(word string) (string, bool, error) {
	switch {
	case word == "-":
		return "", false, apperrors.InvalidArgument("dangling minus in query")
	case strings.HasPrefix(word, "--"):
		return "", false, apperrors.InvalidArgument("double minus in query term %q", word)
	case strings.HasPrefix(word, "-"):
		return word[1:], true, nil
	default:
		return word, false, nil
	}
}

// Empty reports whether the query has no plus terms and can never match.
func (q *Query) Empty() bool {
	return len(q.PlusTerms) == 0
}

func sortedKeys(set map[string]struct{}) []string {
	keys := make([]string, 0, len(set))
	for k := range set {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}
