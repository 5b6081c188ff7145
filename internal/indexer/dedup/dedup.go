// Package dedup finds documents whose distinct term sets are identical and
// removes all but the lowest id of each group.
package dedup

import (
	"fmt"
	"iter"
	"log/slog"
	"maps"
	"slices"
	"strings"

	farmhash "github.com/leemcloughlin/gofarmhash"
)

// Store is the part of the index duplicate detection reads and mutates.
type Store interface {
	DocumentIDs() iter.Seq[int]
	WordFrequencies(id int) (map[string]float64, error)
	RemoveDocument(id int) error
}

type vocabulary struct {
	terms []string
	docID int
}

// FindDuplicates scans documents in ascending id order and returns, in the
// same order, every id whose vocabulary was already seen on a lower id.
// Term frequencies and repetition counts are ignored.
func FindDuplicates(store Store) ([]int, error) {
	seen := make(map[uint64][]vocabulary)
	var duplicates []int
	for id := range store.DocumentIDs() {
		freqs, err := store.WordFrequencies(id)
		if err != nil {
			return nil, fmt.Errorf("reading vocabulary of document %d: %w", id, err)
		}
		terms := slices.Sorted(maps.Keys(freqs))
		// Terms never contain whitespace, so a space-joined key is unambiguous.
		key := farmhash.Hash64([]byte(strings.Join(terms, " ")))

		duplicate := false
		for _, v := range seen[key] {
			if slices.Equal(v.terms, terms) {
				duplicate = true
				break
			}
		}
		if duplicate {
			duplicates = append(duplicates, id)
			continue
		}
		seen[key] = append(seen[key], vocabulary{terms: terms, docID: id})
	}
	return duplicates, nil
}

// RemoveDuplicates removes every id reported by FindDuplicates and returns
// them. The scan completes before any removal begins.
func RemoveDuplicates(store Store) ([]int, error) {
	logger := slog.Default().With("component", "dedup")
	duplicates, err := FindDuplicates(store)
	if err != nil {
		return nil, err
	}
	for _, id := range duplicates {
		logger.Info("found duplicate document", "doc_id", id)
		if err := store.RemoveDocument(id); err != nil {
			return nil, fmt.Errorf("removing duplicate document %d: %w", id, err)
		}
	}
	return duplicates, nil
}
