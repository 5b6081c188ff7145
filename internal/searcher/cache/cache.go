// Package cache stores ranked search results in Redis. Keys carry a
// generation number that every index mutation bumps, so results computed
// against an older index are never served.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/Adithya-Monish-Kumar-K/search-server/internal/indexer/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/search-server/internal/searcher/ranker"
	pkgredis "github.com/Adithya-Monish-Kumar-K/search-server/pkg/redis"
)

const keyPrefix = "search:"

// Store is the subset of the Redis client the cache uses.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	FlushByPattern(ctx context.Context, pattern string) (int64, error)
}

type QueryCache struct {
	store      Store
	ttl        time.Duration
	group      singleflight.Group
	generation atomic.Uint64
	logger     *slog.Logger
	hits       atomic.Int64
	misses     atomic.Int64
}

func New(store Store, ttl time.Duration) *QueryCache {
	return &QueryCache{
		store:  store,
		ttl:    ttl,
		logger: slog.Default().With("component", "query-cache"),
	}
}

// Get looks up the results of query restricted to status. Store failures
// count as misses.
func (c *QueryCache) Get(ctx context.Context, query, status string) ([]ranker.ScoredDoc, bool) {
	return c.get(ctx, c.buildKey(query, status))
}

func (c *QueryCache) get(ctx context.Context, key string) ([]ranker.ScoredDoc, bool) {
	data, err := c.store.Get(ctx, key)
	if err != nil {
		if !pkgredis.IsNilError(err) {
			c.logger.Error("cache get failed", "key", key, "error", err)
		}
		c.misses.Add(1)
		return nil, false
	}
	var docs []ranker.ScoredDoc
	if err := json.Unmarshal(data, &docs); err != nil {
		c.logger.Error("cache unmarshal failed", "key", key, "error", err)
		c.misses.Add(1)
		return nil, false
	}
	c.hits.Add(1)
	c.logger.Debug("cache hit", "key", key)
	return docs, true
}

func (c *QueryCache) Set(ctx context.Context, query, status string, docs []ranker.ScoredDoc) {
	c.set(ctx, c.buildKey(query, status), docs)
}

func (c *QueryCache) set(ctx context.Context, key string, docs []ranker.ScoredDoc) {
	data, err := json.Marshal(docs)
	if err != nil {
		c.logger.Error("cache marshal failed", "key", key, "error", err)
		return
	}
	if err := c.store.Set(ctx, key, data, c.ttl); err != nil {
		c.logger.Error("cache set failed", "key", key, "error", err)
	}
}

// GetOrCompute returns cached results or runs computeFn once per key among
// concurrent callers and caches its result. The bool reports a cache hit.
// Errors from computeFn are returned unchanged and not cached.
func (c *QueryCache) GetOrCompute(
	ctx context.Context,
	query, status string,
	computeFn func() ([]ranker.ScoredDoc, error),
) ([]ranker.ScoredDoc, bool, error) {
	key := c.buildKey(query, status)
	if docs, ok := c.get(ctx, key); ok {
		return docs, true, nil
	}
	val, err, _ := c.group.Do(key, func() (any, error) {
		docs, err := computeFn()
		if err != nil {
			return nil, err
		}
		c.set(ctx, key, docs)
		return docs, nil
	})
	if err != nil {
		return nil, false, err
	}
	return val.([]ranker.ScoredDoc), false, nil
}

// Invalidate makes every cached result unreachable and deletes the stored
// keys.
func (c *QueryCache) Invalidate(ctx context.Context) error {
	c.generation.Add(1)
	deleted, err := c.store.FlushByPattern(ctx, keyPrefix+"*")
	if err != nil {
		return fmt.Errorf("invalidating cache: %w", err)
	}
	c.logger.Debug("cache invalidated", "keys_deleted", deleted, "generation", c.generation.Load())
	return nil
}

func (c *QueryCache) Stats() (hits, misses int64) {
	return c.hits.Load(), c.misses.Load()
}

func (c *QueryCache) buildKey(query, status string) string {
	raw := fmt.Sprintf("%s|status=%s", normalizeQuery(query), status)
	hash := sha256.Sum256([]byte(raw))
	return fmt.Sprintf("%s%d:%x", keyPrefix, c.generation.Load(), hash[:16])
}

// normalizeQuery maps queries that parse identically to the same string:
// term order and repetition do not change a query.
func normalizeQuery(query string) string {
	words := slices.Sorted(tokenizer.Words(query))
	return strings.Join(slices.Compact(words), " ")
}
