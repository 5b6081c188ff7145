package service

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
)

type mapCache struct {
	mu          sync.Mutex
	entries     map[string][]ranker.ScoredDoc
	invalidated int
}

func (c *mapCache) GetOrCompute(_ context.Context, query, status string, fn func() ([]ranker.ScoredDoc, error)) ([]ranker.ScoredDoc, bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := query + "|" + status
	if docs, ok := c.entries[key]; ok {
		return docs, true, nil
	}
	docs, err := fn()
	if err != nil {
		return nil, false, err
	}
	c.entries[key] = docs
	return docs, false, nil
}

func (c *mapCache) Invalidate(context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string][]ranker.ScoredDoc)
	c.invalidated++
	return nil
}

type recordingTracker struct {
	mu       sync.Mutex
	searches []analytics.SearchEvent
	docs     []analytics.DocumentEvent
}

func (r *recordingTracker) TrackSearch(e analytics.SearchEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.searches = append(r.searches, e)
}

func (r *recordingTracker) TrackDocument(e analytics.DocumentEvent) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.docs = append(r.docs, e)
}

func newTestService(t *testing.T, opts Options) (*Service, *metrics.Metrics) {
	t.Helper()
	engine, err := indexer.NewEngine("and with")
	if err != nil {
		t.Fatal(err)
	}
	m := metrics.New(prometheus.NewRegistry())
	s := New(engine, m, opts)
	ctx := context.Background()
	docs := []struct {
		id      int
		text    string
		ratings []int
	}{
		{1, "funny pet and nasty rat", []int{7, 2, 7}},
		{2, "funny pet with curly hair", []int{1, 2, 3}},
	}
	for _, d := range docs {
		if err := s.AddDocument(ctx, d.id, d.text, index.StatusActual, d.ratings); err != nil {
			t.Fatal(err)
		}
	}
	return s, m
}

func TestSearchUsesCacheAndInvalidatesOnMutation(t *testing.T) {
	c := &mapCache{entries: make(map[string][]ranker.ScoredDoc)}
	s, m := newTestService(t, Options{Cache: c})
	ctx := context.Background()

	for range 2 {
		docs, err := s.Search(ctx, "rat", index.StatusActual)
		if err != nil {
			t.Fatal(err)
		}
		if len(docs) != 1 || docs[0].DocID != 1 {
			t.Fatalf("docs = %v", docs)
		}
	}
	if testutil.ToFloat64(m.CacheHitsTotal) != 1 || testutil.ToFloat64(m.CacheMissesTotal) != 1 {
		t.Fatalf("hits=%v misses=%v", testutil.ToFloat64(m.CacheHitsTotal), testutil.ToFloat64(m.CacheMissesTotal))
	}

	if err := s.AddDocument(ctx, 3, "rat rat", index.StatusActual, nil); err != nil {
		t.Fatal(err)
	}
	docs, err := s.Search(ctx, "rat", index.StatusActual)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 2 || docs[0].DocID != 3 {
		t.Fatalf("stale results after mutation: %v", docs)
	}
	if c.invalidated != 3 {
		t.Fatalf("invalidated %d times, want 3", c.invalidated)
	}
}

func TestSearchRecordsRequests(t *testing.T) {
	tr := &recordingTracker{}
	s, m := newTestService(t, Options{Tracker: tr})
	ctx := context.Background()

	for _, q := range []string{"rat", "sparrow", "curly -hair", "pet"} {
		if _, err := s.Search(ctx, q, index.StatusActual); err != nil {
			t.Fatal(err)
		}
	}
	if _, err := s.Search(ctx, "pet -", index.StatusActual); !apperrors.IsInvalidArgument(err) {
		t.Fatalf("got %v, want InvalidArgument", err)
	}
	noResults, retained := s.NoResultRequests()
	if noResults != 2 || retained != 4 {
		t.Fatalf("noResults=%d retained=%d, want 2/4", noResults, retained)
	}
	if testutil.ToFloat64(m.NoResultRequests) != 2 {
		t.Fatalf("gauge = %v", testutil.ToFloat64(m.NoResultRequests))
	}
	if testutil.ToFloat64(m.SearchQueriesTotal.WithLabelValues("error")) != 1 {
		t.Fatal("error search not counted")
	}
	if len(tr.searches) != 4 || tr.searches[1].Type != analytics.EventZeroResult {
		t.Fatalf("search events = %+v", tr.searches)
	}
	if len(tr.docs) != 2 || tr.docs[0].Type != analytics.EventIndexDoc || tr.docs[0].Status != "ACTUAL" {
		t.Fatalf("document events = %+v", tr.docs)
	}
}

func TestSearchFuncRecordsRequests(t *testing.T) {
	tr := &recordingTracker{}
	s, m := newTestService(t, Options{Tracker: tr})
	ctx := context.Background()
	even := func(id int, _ index.Status, _ int) bool { return id%2 == 0 }

	docs, err := s.SearchFunc(ctx, "pet", even)
	if err != nil {
		t.Fatal(err)
	}
	if len(docs) != 1 || docs[0].DocID != 2 {
		t.Fatalf("docs = %v", docs)
	}
	if _, err := s.SearchFunc(ctx, "rat", even); err != nil {
		t.Fatal(err)
	}
	if _, err := s.SearchFunc(ctx, "--rat", even); !apperrors.IsInvalidArgument(err) {
		t.Fatalf("got %v, want InvalidArgument", err)
	}
	noResults, retained := s.NoResultRequests()
	if noResults != 1 || retained != 2 {
		t.Fatalf("noResults=%d retained=%d, want 1/2", noResults, retained)
	}
	if testutil.ToFloat64(m.NoResultRequests) != 1 {
		t.Fatalf("gauge = %v", testutil.ToFloat64(m.NoResultRequests))
	}
	if len(tr.searches) != 2 || tr.searches[1].Status != "custom" {
		t.Fatalf("search events = %+v", tr.searches)
	}
}

func TestSearchRejectsUnknownStatus(t *testing.T) {
	s, _ := newTestService(t, Options{})
	if _, err := s.Search(context.Background(), "rat", index.Status(42)); !apperrors.IsInvalidArgument(err) {
		t.Fatalf("got %v, want InvalidArgument", err)
	}
}

func TestMutations(t *testing.T) {
	tr := &recordingTracker{}
	s, m := newTestService(t, Options{Tracker: tr})
	ctx := context.Background()

	if err := s.AddDocument(ctx, 3, "nasty rat funny pet", index.StatusBanned, nil); err != nil {
		t.Fatal(err)
	}
	removed, err := s.RemoveDuplicates(ctx)
	if err != nil || !slices.Equal(removed, []int{3}) {
		t.Fatalf("removed=%v err=%v", removed, err)
	}
	if err := s.RemoveDocument(ctx, 2); err != nil {
		t.Fatal(err)
	}
	if err := s.RemoveDocument(ctx, 2); !apperrors.IsNotFound(err) {
		t.Fatalf("got %v, want NotFound", err)
	}
	if got := s.DocumentIDs(); !slices.Equal(got, []int{1}) {
		t.Fatalf("ids = %v", got)
	}
	if testutil.ToFloat64(m.DocumentsLive) != 1 {
		t.Fatalf("documents_live = %v", testutil.ToFloat64(m.DocumentsLive))
	}
	if testutil.ToFloat64(m.DocsRemovedTotal.WithLabelValues("duplicate")) != 1 ||
		testutil.ToFloat64(m.DocsRemovedTotal.WithLabelValues("request")) != 1 {
		t.Fatal("removal counters wrong")
	}

	doc, err := s.Document(1)
	if err != nil {
		t.Fatal(err)
	}
	if doc.Rating != 5 || doc.Status != index.StatusActual || len(doc.Words) != 4 {
		t.Fatalf("doc = %+v", doc)
	}
	if _, err := s.Document(2); !apperrors.IsNotFound(err) {
		t.Fatalf("got %v, want NotFound", err)
	}

	if err := s.SetStopWords(ctx, "funny"); err != nil {
		t.Fatal(err)
	}
	words, status, err := s.MatchDocument("funny rat", 1)
	if err != nil || !slices.Equal(words, []string{"rat"}) || status != index.StatusActual {
		t.Fatalf("words=%v status=%v err=%v", words, status, err)
	}
}

func TestConcurrentAccess(t *testing.T) {
	s, _ := newTestService(t, Options{Cache: &mapCache{entries: make(map[string][]ranker.ScoredDoc)}})
	ctx := context.Background()
	var wg sync.WaitGroup
	for w := range 4 {
		wg.Go(func() {
			for i := range 50 {
				id := 100 + w*1000 + i
				if err := s.AddDocument(ctx, id, fmt.Sprintf("pet number%d", i), index.StatusActual, []int{i}); err != nil {
					t.Error(err)
					return
				}
			}
		})
		wg.Go(func() {
			for range 50 {
				if _, err := s.Search(ctx, "pet -rat", index.StatusActual); err != nil {
					t.Error(err)
					return
				}
				_, _ = s.WordFrequencies(1)
			}
		})
	}
	wg.Wait()
	if s.DocumentCount() != 2+4*50 {
		t.Fatalf("DocumentCount = %d", s.DocumentCount())
	}
	if _, retained := s.NoResultRequests(); retained != 4*50 {
		t.Fatalf("retained = %d", retained)
	}
}
