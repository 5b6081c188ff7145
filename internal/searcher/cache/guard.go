package cache

import (
	"context"
	"time"

	pkgredis "github.com/Adithya-Monish-Kumar-K/search-server/pkg/redis"
	"github.com/Adithya-Monish-Kumar-K/search-server/pkg/resilience"
)

type guardedStore struct {
	store   Store
	breaker *resilience.Breaker
}

// Guard routes every store call through a circuit breaker so that searches
// stop waiting on an unreachable Redis. A missing key is not a failure.
func Guard(store Store, cfg resilience.BreakerConfig) Store {
	if cfg.IsFailure == nil {
		cfg.IsFailure = func(err error) bool {
			return err != nil && !pkgredis.IsNilError(err)
		}
	}
	return &guardedStore{store: store, breaker: resilience.NewBreaker("search-cache", cfg)}
}

func (g *guardedStore) Get(ctx context.Context, key string) ([]byte, error) {
	return resilience.Call(g.breaker, func() ([]byte, error) {
		return g.store.Get(ctx, key)
	})
}

func (g *guardedStore) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	return g.breaker.Do(func() error {
		return g.store.Set(ctx, key, value, ttl)
	})
}

// FlushByPattern bypasses the breaker: invalidation must be attempted even
// while reads are being skipped.
func (g *guardedStore) FlushByPattern(ctx context.Context, pattern string) (int64, error) {
	return g.store.FlushByPattern(ctx, pattern)
}
