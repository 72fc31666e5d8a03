// Package candlecache maintains bounded rolling buffers of recent 1-minute
// candles per instrument, refreshed from an upstream provider with TTL caching.
package candlecache

import (
	"context"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
	"github.com/BenignMalice/SynergisBot-sub021/internal/services/market/feed"
	"github.com/BenignMalice/SynergisBot-sub021/pkg/retrier"
)

const (
	// DefaultMaxCandles bound of each instrument buffer.
	DefaultMaxCandles = 200
	// DefaultTTL how long a buffer is served without an upstream refresh.
	DefaultTTL = 5 * time.Minute
)

// RefreshObserver receives the result of every upstream refresh attempt.
type RefreshObserver interface {
	RecordRefresh(instrument string, latency time.Duration, appended int, err error)
}

type buffer struct {
	candles     []domain.Candle
	refreshedAt time.Time
}

// Fetcher owns all writes to the per-instrument candle buffers. Readers get
// copies and can never mutate cached state.
type Fetcher struct {
	provider feed.CandleProvider
	observer RefreshObserver
	logger   *zap.Logger
	retry    *retrier.Retrier

	ttl        time.Duration
	maxCandles int

	mu      sync.RWMutex
	buffers map[string]*buffer
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTTL overrides the cache time-to-live.
func WithTTL(ttl time.Duration) Option {
	return func(f *Fetcher) { f.ttl = ttl }
}

// WithMaxCandles overrides the buffer bound.
func WithMaxCandles(n int) Option {
	return func(f *Fetcher) { f.maxCandles = n }
}

// WithObserver attaches a refresh observer.
func WithObserver(o RefreshObserver) Option {
	return func(f *Fetcher) { f.observer = o }
}

// WithRetrier overrides the upstream retry policy.
func WithRetrier(r *retrier.Retrier) Option {
	return func(f *Fetcher) { f.retry = r }
}

// NewFetcher creates a candle fetcher over the given provider.
func NewFetcher(provider feed.CandleProvider, logger *zap.Logger, opts ...Option) *Fetcher {
	f := &Fetcher{
		provider:   provider,
		logger:     logger,
		retry:      retrier.New(retrier.WithMaxRetries(2)),
		ttl:        DefaultTTL,
		maxCandles: DefaultMaxCandles,
		buffers:    make(map[string]*buffer),
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch returns the current buffer for the instrument, refreshing from the
// upstream source first if the TTL has elapsed or force is set. An upstream
// failure never discards cached data: callers receive the last-known buffer
// tagged with its age, and the error surfaces only when nothing is cached.
func (f *Fetcher) Fetch(ctx context.Context, instrument string, force bool) ([]domain.Candle, time.Duration, error) {
	id := domain.NormalizeInstrument(instrument)
	now := time.Now()

	f.mu.RLock()
	buf, ok := f.buffers[id]
	fresh := ok && !force && now.Sub(buf.refreshedAt) < f.ttl
	f.mu.RUnlock()

	if fresh {
		return f.copyBuffer(id)
	}

	if err := f.refresh(ctx, id); err != nil {
		f.logger.Warn("candle refresh failed, serving cached buffer",
			zap.String("instrument", id), zap.Error(err))
		candles, age, cacheErr := f.copyBuffer(id)
		if cacheErr != nil {
			return nil, 0, errors.Wrap(domain.ErrDataUnavailable, err.Error())
		}
		return candles, age, nil
	}

	return f.copyBuffer(id)
}

// Cached returns a copy of the buffer without touching the upstream source.
func (f *Fetcher) Cached(instrument string) ([]domain.Candle, time.Time, bool) {
	id := domain.NormalizeInstrument(instrument)

	f.mu.RLock()
	defer f.mu.RUnlock()

	buf, ok := f.buffers[id]
	if !ok || len(buf.candles) == 0 {
		return nil, time.Time{}, false
	}
	return append([]domain.Candle(nil), buf.candles...), buf.refreshedAt, true
}

// Latest returns the newest cached candle for the instrument.
func (f *Fetcher) Latest(instrument string) (domain.Candle, bool) {
	id := domain.NormalizeInstrument(instrument)

	f.mu.RLock()
	defer f.mu.RUnlock()

	buf, ok := f.buffers[id]
	if !ok || len(buf.candles) == 0 {
		return domain.Candle{}, false
	}
	return buf.candles[len(buf.candles)-1], true
}

// Age returns how long ago the instrument's buffer was last refreshed.
func (f *Fetcher) Age(instrument string) (time.Duration, bool) {
	id := domain.NormalizeInstrument(instrument)

	f.mu.RLock()
	defer f.mu.RUnlock()

	buf, ok := f.buffers[id]
	if !ok {
		return 0, false
	}
	return time.Since(buf.refreshedAt), true
}

// Clear drops the buffer for one instrument.
func (f *Fetcher) Clear(instrument string) {
	id := domain.NormalizeInstrument(instrument)

	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.buffers, id)
}

// ClearAll drops every buffer.
func (f *Fetcher) ClearAll() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.buffers = make(map[string]*buffer)
}

// Seed installs a recovered candle buffer, marking it already stale so the
// next scheduled refresh tops it up. Recovered data never overwrites a buffer
// refreshed after the snapshot was taken (last writer wins by timestamp).
func (f *Fetcher) Seed(instrument string, candles []domain.Candle, refreshedAt time.Time) {
	id := domain.NormalizeInstrument(instrument)
	if len(candles) > f.maxCandles {
		candles = candles[len(candles)-f.maxCandles:]
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if existing, ok := f.buffers[id]; ok && existing.refreshedAt.After(refreshedAt) {
		return
	}
	f.buffers[id] = &buffer{candles: append([]domain.Candle(nil), candles...), refreshedAt: refreshedAt}
}

// refresh pulls candles newer than the last known timestamp, appends them and
// evicts the oldest entries beyond the bound.
func (f *Fetcher) refresh(ctx context.Context, id string) error {
	var since time.Time
	f.mu.RLock()
	if buf, ok := f.buffers[id]; ok && len(buf.candles) > 0 {
		since = buf.candles[len(buf.candles)-1].OpenTime
	}
	f.mu.RUnlock()

	started := time.Now()
	fetched, err := retrier.DoWithData(f.retry, ctx, func(ctx context.Context) ([]domain.Candle, error) {
		return f.provider.Candles(ctx, id, feed.Interval1m, since, f.maxCandles)
	})
	latency := time.Since(started)

	appended := 0
	if err == nil {
		appended = f.append(id, fetched)
	}
	if f.observer != nil {
		f.observer.RecordRefresh(id, latency, appended, err)
	}
	if err != nil {
		return errors.Wrapf(err, "refresh %s", id)
	}

	return nil
}

func (f *Fetcher) append(id string, fetched []domain.Candle) int {
	f.mu.Lock()
	defer f.mu.Unlock()

	buf, ok := f.buffers[id]
	if !ok {
		buf = &buffer{}
		f.buffers[id] = buf
	}

	appended := 0
	for _, c := range fetched {
		if len(buf.candles) > 0 && !c.OpenTime.After(buf.candles[len(buf.candles)-1].OpenTime) {
			continue
		}
		buf.candles = append(buf.candles, c)
		appended++
	}
	if len(buf.candles) > f.maxCandles {
		buf.candles = append([]domain.Candle(nil), buf.candles[len(buf.candles)-f.maxCandles:]...)
	}
	buf.refreshedAt = time.Now()

	return appended
}

func (f *Fetcher) copyBuffer(id string) ([]domain.Candle, time.Duration, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	buf, ok := f.buffers[id]
	if !ok || len(buf.candles) == 0 {
		return nil, 0, domain.ErrDataUnavailable
	}
	out := append([]domain.Candle(nil), buf.candles...)
	return out, time.Since(buf.refreshedAt), nil
}

// Instruments returns the ids currently cached.
func (f *Fetcher) Instruments() []string {
	f.mu.RLock()
	defer f.mu.RUnlock()

	out := make([]string, 0, len(f.buffers))
	for id := range f.buffers {
		out = append(out, id)
	}
	return out
}
