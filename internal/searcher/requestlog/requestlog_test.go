package requestlog

import (
	"fmt"
	"testing"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
)

// stubSearcher answers "empty ..." queries with no documents, "bad" with an
// error, and everything else with one document.
type stubSearcher struct {
	calls    int
	lastPred ranker.Predicate
}

func (s *stubSearcher) FindTopDocumentsFunc(raw string, pred ranker.Predicate) ([]ranker.ScoredDoc, error) {
	s.calls++
	s.lastPred = pred
	switch {
	case raw == "bad":
		return nil, apperrors.InvalidArgument("dangling minus in query")
	case len(raw) >= 5 && raw[:5] == "empty":
		return []ranker.ScoredDoc{}, nil
	default:
		return []ranker.ScoredDoc{{DocID: 1, Relevance: 0.5, Rating: 3}}, nil
	}
}

func TestQueueCountsNoResultRequests(t *testing.T) {
	s := &stubSearcher{}
	q := New(s)
	for i := 0; i < Capacity-1; i++ {
		if _, err := q.AddFindRequest(fmt.Sprintf("empty %d", i)); err != nil {
			t.Fatal(err)
		}
	}
	if got := q.NoResultRequests(); got != Capacity-1 {
		t.Fatalf("NoResultRequests = %d, want %d", got, Capacity-1)
	}

	// Each hit past capacity evicts one empty request.
	for _, raw := range []string{"curly dog", "big collar", "sparrow"} {
		docs, err := q.AddFindRequest(raw)
		if err != nil {
			t.Fatal(err)
		}
		if len(docs) != 1 {
			t.Fatalf("results must pass through unchanged, got %v", docs)
		}
	}
	if got := q.NoResultRequests(); got != Capacity-3 {
		t.Fatalf("NoResultRequests = %d, want %d", got, Capacity-3)
	}
	if q.Len() != Capacity {
		t.Fatalf("Len = %d, want %d", q.Len(), Capacity)
	}
}

func TestQueueNeverExceedsCapacity(t *testing.T) {
	q := New(&stubSearcher{})
	for i := 0; i < Capacity+1; i++ {
		q.Record(fmt.Sprintf("q%d", i), i%2)
	}
	if q.Len() != Capacity {
		t.Fatalf("Len = %d, want %d", q.Len(), Capacity)
	}
	queries := q.Queries()
	if queries[0] != "q1" || queries[len(queries)-1] != fmt.Sprintf("q%d", Capacity) {
		t.Fatalf("oldest entry not evicted: first=%s last=%s", queries[0], queries[len(queries)-1])
	}
	// q0 (found 0) was evicted; of q1..q1440 the odd-found ones are q2,q4,...
	if got, want := q.NoResultRequests(), Capacity/2; got != want {
		t.Fatalf("NoResultRequests = %d, want %d", got, want)
	}
}

func TestQueueSkipsFailedRequests(t *testing.T) {
	q := New(&stubSearcher{})
	if _, err := q.AddFindRequest("bad"); !apperrors.IsInvalidArgument(err) {
		t.Fatalf("got %v, want InvalidArgument", err)
	}
	if q.Len() != 0 {
		t.Fatalf("failed request was recorded")
	}
}

func TestQueueStatusVariant(t *testing.T) {
	s := &stubSearcher{}
	q := New(s)
	if _, err := q.AddFindRequestByStatus("cat", index.StatusBanned); err != nil {
		t.Fatal(err)
	}
	if !s.lastPred(1, index.StatusBanned, 0) || s.lastPred(1, index.StatusActual, 0) {
		t.Fatalf("status predicate not forwarded")
	}
	if _, err := q.AddFindRequest("cat"); err != nil {
		t.Fatal(err)
	}
	if !s.lastPred(1, index.StatusActual, 0) {
		t.Fatalf("default predicate must select Actual")
	}
	if s.calls != 2 || q.Len() != 2 || q.NoResultRequests() != 0 {
		t.Fatalf("calls=%d len=%d noResults=%d", s.calls, q.Len(), q.NoResultRequests())
	}
}
