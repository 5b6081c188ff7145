// Package requestlog keeps a bounded sliding window of recent search
// requests and their result counts, used to monitor queries that found
// nothing.
package requestlog

import (
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
)

// Capacity is the number of requests retained: one per minute of a day.
const Capacity = 1440

// Searcher runs a ranked search with an arbitrary predicate.
type Searcher interface {
	FindTopDocumentsFunc(rawQuery string, pred ranker.Predicate) ([]ranker.ScoredDoc, error)
}

type entry struct {
	query string
	found int
}

// Queue wraps a Searcher and records every successful request. It is not
// safe for concurrent use.
type Queue struct {
	searcher  Searcher
	entries   [Capacity]entry
	head      int
	size      int
	noResults int
}

func New(searcher Searcher) *Queue {
	return &Queue{searcher: searcher}
}

// AddFindRequest searches for documents with status Actual.
func (q *Queue) AddFindRequest(rawQuery string) ([]ranker.ScoredDoc, error) {
	return q.AddFindRequestFunc(rawQuery, ranker.Actual)
}

func (q *Queue) AddFindRequestByStatus(rawQuery string, status index.Status) ([]ranker.ScoredDoc, error) {
	return q.AddFindRequestFunc(rawQuery, ranker.StatusIs(status))
}

// AddFindRequestFunc runs the search and records (query, result count).
// Requests that fail to parse are not recorded.
func (q *Queue) AddFindRequestFunc(rawQuery string, pred ranker.Predicate) ([]ranker.ScoredDoc, error) {
	docs, err := q.searcher.FindTopDocumentsFunc(rawQuery, pred)
	if err != nil {
		return nil, err
	}
	q.Record(rawQuery, len(docs))
	return docs, nil
}

// Record appends a request, evicting the oldest one once the window is full.
func (q *Queue) Record(rawQuery string, found int) {
	if q.size == Capacity {
		oldest := q.entries[q.head]
		if oldest.found == 0 {
			q.noResults--
		}
		q.head = (q.head + 1) % Capacity
		q.size--
	}
	q.entries[(q.head+q.size)%Capacity] = entry{query: rawQuery, found: found}
	q.size++
	if found == 0 {
		q.noResults++
	}
}

// NoResultRequests is the number of retained requests that found nothing.
func (q *Queue) NoResultRequests() int {
	return q.noResults
}

// Len is the number of retained requests.
func (q *Queue) Len() int {
	return q.size
}

// Queries returns the retained queries, oldest first.
func (q *Queue) Queries() []string {
	out := make([]string, 0, q.size)
	for i := 0; i < q.size; i++ {
		out = append(out, q.entries[(q.head+i)%Capacity].query)
	}
	return out
}
