// Package retrier retries short-lived upstream calls with exponential backoff
// and jitter. Defaults are tuned for candle fetches, where the tick cadence
// bounds how long one instrument may stall a refresh batch.
package retrier

import (
	"context"
	"math/rand"
	"time"
)

const (
	defaultInitialInterval = 250 * time.Millisecond
	maxInterval            = 5 * time.Second
	multiplier             = 2.0
	jitterFactor           = 0.1

	// DefaultMaxRetries retries after the first attempt. Two keep the worst
	// case well under the evaluation tick at default backoff.
	DefaultMaxRetries = 2
)

// Retrier retries a call with growing intervals between attempts.
type Retrier struct {
	initialInterval time.Duration
	maxRetries      int
}

// Option configures a Retrier.
type Option func(*Retrier)

// WithMaxRetries overrides how many retries follow the first attempt.
func WithMaxRetries(n int) Option {
	return func(r *Retrier) { r.maxRetries = n }
}

// WithInitialInterval overrides the first backoff interval.
func WithInitialInterval(d time.Duration) Option {
	return func(r *Retrier) { r.initialInterval = d }
}

// New creates a Retrier with fetch-path defaults and optional overrides.
func New(opts ...Option) *Retrier {
	r := &Retrier{
		initialInterval: defaultInitialInterval,
		maxRetries:      DefaultMaxRetries,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do runs fn until it succeeds, the retry budget is spent or the context is
// cancelled. The last call error is returned once the budget runs out.
func (r *Retrier) Do(ctx context.Context, fn func(ctx context.Context) error) error {
	interval := r.initialInterval

	var err error
	for attempt := 0; ; attempt++ {
		if err = fn(ctx); err == nil {
			return nil
		}
		if attempt >= r.maxRetries {
			return err
		}
		if waitErr := wait(ctx, jittered(interval)); waitErr != nil {
			return waitErr
		}
		if interval = time.Duration(float64(interval) * multiplier); interval > maxInterval {
			interval = maxInterval
		}
	}
}

// DoWithData runs fn under the same retry policy and returns its value.
func DoWithData[T any](r *Retrier, ctx context.Context, fn func(ctx context.Context) (T, error)) (T, error) {
	var out T
	err := r.Do(ctx, func(ctx context.Context) error {
		var callErr error
		out, callErr = fn(ctx)
		return callErr
	})
	return out, err
}

func jittered(interval time.Duration) time.Duration {
	offset := (rand.Float64()*2 - 1) * jitterFactor * float64(interval)
	if d := time.Duration(float64(interval) + offset); d > 0 {
		return d
	}
	return 0
}

func wait(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}
