package resilience

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"time"
)

// Backoff describes how Retry spaces its attempts. Zero fields take the
// defaults of DefaultBackoff.
type Backoff struct {
	Attempts   int
	Initial    time.Duration
	Max        time.Duration
	Multiplier float64
	Jitter     float64
}

var DefaultBackoff = Backoff{
	Attempts:   5,
	Initial:    200 * time.Millisecond,
	Max:        5 * time.Second,
	Multiplier: 2,
	Jitter:     0.1,
}

type permanentError struct{ err error }

func (p permanentError) Error() string { return p.err.Error() }
func (p permanentError) Unwrap() error { return p.err }

// Permanent marks err as not worth retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return permanentError{err: err}
}

// Retry calls fn until it succeeds, returns a Permanent error, the attempts
// run out or ctx is done.
func Retry[T any](ctx context.Context, name string, policy Backoff, fn func(context.Context) (T, error)) (T, error) {
	policy = policy.withDefaults()
	logger := slog.Default().With("component", "retry", "operation", name)

	var zero T
	var lastErr error
	for attempt := 1; attempt <= policy.Attempts; attempt++ {
		result, err := fn(ctx)
		if err == nil {
			if attempt > 1 {
				logger.Info("succeeded after retry", "attempt", attempt)
			}
			return result, nil
		}
		var perm permanentError
		if errors.As(err, &perm) {
			return zero, perm.err
		}
		lastErr = err
		if attempt == policy.Attempts {
			break
		}
		delay := policy.delay(attempt)
		logger.Warn("attempt failed, retrying",
			"attempt", attempt,
			"max_attempts", policy.Attempts,
			"next_delay", delay,
			"error", err,
		)
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("%s: retry aborted: %w", name, ctx.Err())
		}
	}
	return zero, fmt.Errorf("%s: all %d attempts failed: %w", name, policy.Attempts, lastErr)
}

func (p Backoff) withDefaults() Backoff {
	if p.Attempts <= 0 {
		p.Attempts = DefaultBackoff.Attempts
	}
	if p.Initial <= 0 {
		p.Initial = DefaultBackoff.Initial
	}
	if p.Max <= 0 {
		p.Max = DefaultBackoff.Max
	}
	if p.Multiplier < 1 {
		p.Multiplier = DefaultBackoff.Multiplier
	}
	if p.Jitter < 0 || p.Jitter >= 1 {
		p.Jitter = DefaultBackoff.Jitter
	}
	return p
}

// delay returns the wait after the given failed attempt, never more than Max.
func (p Backoff) delay(attempt int) time.Duration {
	d := float64(p.Initial)
	for range attempt - 1 {
		d *= p.Multiplier
		if d >= float64(p.Max) {
			d = float64(p.Max)
			break
		}
	}
	d += d * p.Jitter * (2*rand.Float64() - 1)
	return time.Duration(min(d, float64(p.Max)))
}
