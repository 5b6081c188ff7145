// Package matcher reports which query terms a single document contains.
package matcher

import (
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/parser"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// Source is the read side of the index needed for matching.
type Source interface {
	Document(id int) (index.DocumentData, bool)
	Contains(term string, id int) bool
}

// Match returns the plus terms of query present in document id, sorted,
// together with the document's status. If the document holds any minus term
// the term list is empty.
func Match(src Source, query *parser.Query, id int) ([]string, index.Status, error) {
	data, ok := src.Document(id)
	if !ok {
		return nil, 0, apperrors.NotFound("document %d", id)
	}
	for _, term := range query.MinusTerms {
		if src.Contains(term, id) {
			return []string{}, data.Status, nil
		}
	}
	matched := make([]string, 0, len(query.PlusTerms))
	for _, term := range query.PlusTerms {
		if src.Contains(term, id) {
			matched = append(matched, term)
		}
	}
	return matched, data.Status, nil
}
