// Package service makes the search engine safe for concurrent callers. One
// read-write lock serializes index mutations against everything else, and
// a separate lock guards the request log. Around the engine it maintains
// the result cache, metrics and analytics events.
package service

import (
	"context"
	"log/slog"
	"slices"
	"sync"
	"time"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/analytics"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/index"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/requestlog"
	apperrors "github.com/Adithya-Monish-Kumar-K/search-server/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/metrics"
)

// ResultCache caches ranked results per (query, status). *cache.QueryCache
// implements it.
type ResultCache interface {
	GetOrCompute(ctx context.Context, query, status string, computeFn func() ([]ranker.ScoredDoc, error)) ([]ranker.ScoredDoc, bool, error)
	Invalidate(ctx context.Context) error
}

// Tracker receives analytics events. *analytics.Collector implements it.
type Tracker interface {
	TrackSearch(analytics.SearchEvent)
	TrackDocument(analytics.DocumentEvent)
}

// Options holds the optional collaborators; nil members are skipped.
type Options struct {
	Cache   ResultCache
	Tracker Tracker
}

// Document is a snapshot of one indexed document.
type Document struct {
	ID     int                `json:"id"`
	Status index.Status       `json:"status"`
	Rating int                `json:"rating"`
	Words  map[string]float64 `json:"words"`
}

type Service struct {
	mu     sync.RWMutex
	engine *indexer.Engine

	// logMu is acquired before mu when both are held.
	logMu    sync.Mutex
	requests *requestlog.Queue

	cache   ResultCache
	tracker Tracker
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// New wraps engine. The engine must not be used directly afterwards.
func New(engine *indexer.Engine, m *metrics.Metrics, opts Options) *Service {
	m.DocumentsLive.Set(float64(engine.DocumentCount()))
	return &Service{
		engine:   engine,
		requests: requestlog.New(engine),
		cache:    opts.Cache,
		tracker:  opts.Tracker,
		metrics:  m,
		logger:   slog.Default().With("component", "search-service"),
	}
}

// Search returns the top documents with the given status. Every successful
// search is recorded in the request log, served from cache or not.
func (s *Service) Search(ctx context.Context, rawQuery string, status index.Status) ([]ranker.ScoredDoc, error) {
	if !status.Valid() {
		return nil, apperrors.InvalidArgument("unknown document status %d", int(status))
	}
	start := time.Now()
	compute := func() ([]ranker.ScoredDoc, error) {
		s.mu.RLock()
		defer s.mu.RUnlock()
		return s.engine.FindTopDocumentsByStatus(rawQuery, status)
	}

	var (
		docs     []ranker.ScoredDoc
		cacheHit bool
		err      error
	)
	cacheStatus := "disabled"
	if s.cache != nil {
		docs, cacheHit, err = s.cache.GetOrCompute(ctx, rawQuery, status.String(), compute)
		switch {
		case cacheHit:
			cacheStatus = "hit"
			s.metrics.CacheHitsTotal.Inc()
		case err == nil:
			cacheStatus = "miss"
			s.metrics.CacheMissesTotal.Inc()
		}
	} else {
		docs, err = compute()
	}
	if err != nil {
		s.metrics.SearchQueriesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	s.record(ctx, rawQuery, status.String(), docs, cacheHit, cacheStatus, time.Since(start))
	return docs, nil
}

// SearchFunc ranks with an arbitrary predicate. Its results are not cached,
// so the request log runs the search itself.
func (s *Service) SearchFunc(ctx context.Context, rawQuery string, pred ranker.Predicate) ([]ranker.ScoredDoc, error) {
	start := time.Now()
	s.logMu.Lock()
	s.mu.RLock()
	docs, err := s.requests.AddFindRequestFunc(rawQuery, pred)
	s.mu.RUnlock()
	noResults := s.requests.NoResultRequests()
	s.logMu.Unlock()
	if err != nil {
		s.metrics.SearchQueriesTotal.WithLabelValues("error").Inc()
		return nil, err
	}
	s.observe(ctx, rawQuery, "custom", docs, noResults, false, "disabled", time.Since(start))
	return docs, nil
}

// record adds a search answered outside the request log, such as one served
// from the cache, to the log.
func (s *Service) record(ctx context.Context, rawQuery, status string, docs []ranker.ScoredDoc, cacheHit bool, cacheStatus string, elapsed time.Duration) {
	s.logMu.Lock()
	s.requests.Record(rawQuery, len(docs))
	noResults := s.requests.NoResultRequests()
	s.logMu.Unlock()
	s.observe(ctx, rawQuery, status, docs, noResults, cacheHit, cacheStatus, elapsed)
}

func (s *Service) observe(ctx context.Context, rawQuery, status string, docs []ranker.ScoredDoc, noResults int, cacheHit bool, cacheStatus string, elapsed time.Duration) {
	resultType := "hit"
	eventType := analytics.EventSearch
	if len(docs) == 0 {
		resultType = "zero_result"
		eventType = analytics.EventZeroResult
		logger.FromContext(ctx).Info("search returned no results", "query", rawQuery, "status", status)
	}
	s.metrics.SearchQueriesTotal.WithLabelValues(resultType).Inc()
	s.metrics.SearchLatency.WithLabelValues(cacheStatus).Observe(elapsed.Seconds())
	s.metrics.SearchResultsCount.Observe(float64(len(docs)))
	s.metrics.NoResultRequests.Set(float64(noResults))

	if s.tracker != nil {
		s.tracker.TrackSearch(analytics.SearchEvent{
			Type:      eventType,
			Query:     rawQuery,
			Status:    status,
			Returned:  len(docs),
			CacheHit:  cacheHit,
			LatencyMs: elapsed.Milliseconds(),
			RequestID: logger.RequestID(ctx),
			Timestamp: time.Now().UTC(),
		})
	}
}

func (s *Service) AddDocument(ctx context.Context, id int, text string, status index.Status, ratings []int) error {
	s.mu.Lock()
	err := s.engine.AddDocument(id, text, status, ratings)
	count := s.engine.DocumentCount()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.metrics.DocsIndexedTotal.Inc()
	s.afterMutation(ctx, count)
	s.trackDocument(analytics.EventIndexDoc, id, status.String())
	return nil
}

func (s *Service) RemoveDocument(ctx context.Context, id int) error {
	s.mu.Lock()
	data, _ := s.engine.Document(id)
	err := s.engine.RemoveDocument(id)
	count := s.engine.DocumentCount()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.metrics.DocsRemovedTotal.WithLabelValues("request").Inc()
	s.afterMutation(ctx, count)
	s.trackDocument(analytics.EventRemoveDoc, id, data.Status.String())
	return nil
}

// RemoveDuplicates removes vocabulary-equal documents, keeping the lowest
// id of each group, and returns the removed ids in ascending order.
func (s *Service) RemoveDuplicates(ctx context.Context) ([]int, error) {
	s.mu.Lock()
	removed, err := s.engine.RemoveDuplicates()
	count := s.engine.DocumentCount()
	s.mu.Unlock()
	if len(removed) > 0 {
		s.metrics.DocsRemovedTotal.WithLabelValues("duplicate").Add(float64(len(removed)))
		s.afterMutation(ctx, count)
		for _, id := range removed {
			s.trackDocument(analytics.EventDuplicateRemoved, id, "")
		}
	}
	return removed, err
}

// SetStopWords extends the stop-word set. Cached results are dropped since
// queries may now parse differently.
func (s *Service) SetStopWords(ctx context.Context, text string) error {
	s.mu.Lock()
	err := s.engine.SetStopWords(text)
	count := s.engine.DocumentCount()
	s.mu.Unlock()
	if err != nil {
		return err
	}
	s.afterMutation(ctx, count)
	return nil
}

func (s *Service) MatchDocument(rawQuery string, id int) ([]string, index.Status, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.MatchDocument(rawQuery, id)
}

// Document returns the metadata and word frequencies of document id.
func (s *Service) Document(id int) (Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	data, ok := s.engine.Document(id)
	if !ok {
		return Document{}, apperrors.NotFound("document %d", id)
	}
	words, err := s.engine.WordFrequencies(id)
	if err != nil {
		return Document{}, err
	}
	return Document{ID: id, Status: data.Status, Rating: data.Rating, Words: words}, nil
}

func (s *Service) WordFrequencies(id int) (map[string]float64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.WordFrequencies(id)
}

// DocumentIDs returns the live ids in ascending order.
func (s *Service) DocumentIDs() []int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Collect(s.engine.DocumentIDs())
}

func (s *Service) DocumentCount() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.engine.DocumentCount()
}

// NoResultRequests reports how many of the retained requests found nothing,
// and how many requests are retained.
func (s *Service) NoResultRequests() (noResults, retained int) {
	s.logMu.Lock()
	defer s.logMu.Unlock()
	return s.requests.NoResultRequests(), s.requests.Len()
}

func (s *Service) afterMutation(ctx context.Context, count int) {
	s.metrics.DocumentsLive.Set(float64(count))
	if s.cache == nil {
		return
	}
	if err := s.cache.Invalidate(ctx); err != nil {
		logger.FromContext(ctx).Error("cache invalidation failed", "error", err)
	}
}

func (s *Service) trackDocument(t analytics.EventType, id int, status string) {
	if s.tracker == nil {
		return
	}
	s.tracker.TrackDocument(analytics.DocumentEvent{
		Type:       t,
		DocumentID: id,
		Status:     status,
		Timestamp:  time.Now().UTC(),
	})
}
