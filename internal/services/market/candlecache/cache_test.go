package candlecache

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
	"github.com/BenignMalice/SynergisBot-sub021/pkg/retrier"
)

// noRetry keeps failure-path tests from sleeping through backoff.
var noRetry = retrier.New(retrier.WithMaxRetries(0))

type stubProvider struct {
	candles []domain.Candle
	err     error
	calls   int
}

func (s *stubProvider) Candles(_ context.Context, _, _ string, since time.Time, _ int) ([]domain.Candle, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	var out []domain.Candle
	for _, c := range s.candles {
		if since.IsZero() || c.OpenTime.After(since) {
			out = append(out, c)
		}
	}
	return out, nil
}

func makeCandles(start time.Time, n int, basePrice float64) []domain.Candle {
	out := make([]domain.Candle, n)
	for i := range out {
		price := decimal.NewFromFloat(basePrice + float64(i))
		out[i] = domain.Candle{
			OpenTime:  start.Add(time.Duration(i) * time.Minute),
			Open:      price,
			High:      price.Add(decimal.NewFromInt(1)),
			Low:       price.Sub(decimal.NewFromInt(1)),
			Close:     price.Add(decimal.NewFromFloat(0.5)),
			Volume:    decimal.NewFromInt(100),
			CloseTime: start.Add(time.Duration(i+1) * time.Minute),
		}
	}
	return out
}

func TestFetch_PopulatesAndServesFromCache(t *testing.T) {
	start := time.Now().Add(-time.Hour)
	provider := &stubProvider{candles: makeCandles(start, 10, 100)}
	fetcher := NewFetcher(provider, zap.NewNop())

	candles, age, err := fetcher.Fetch(context.Background(), "btcusdt", false)
	require.NoError(t, err)
	require.Len(t, candles, 10)
	require.Less(t, age, time.Second)
	require.Equal(t, 1, provider.calls)

	// second call inside the TTL never hits upstream
	candles, _, err = fetcher.Fetch(context.Background(), "BTC/USDT", false)
	require.NoError(t, err)
	require.Len(t, candles, 10)
	require.Equal(t, 1, provider.calls)
}

func TestFetch_EvictsOldestBeyondBound(t *testing.T) {
	start := time.Now().Add(-10 * time.Hour)
	provider := &stubProvider{candles: makeCandles(start, 50, 100)}
	fetcher := NewFetcher(provider, zap.NewNop(), WithMaxCandles(20))

	candles, _, err := fetcher.Fetch(context.Background(), "BTCUSDT", true)
	require.NoError(t, err)
	require.Len(t, candles, 20)

	// oldest entries are gone, newest survive in order
	require.Equal(t, provider.candles[30].OpenTime, candles[0].OpenTime)
	require.Equal(t, provider.candles[49].OpenTime, candles[19].OpenTime)
	for i := 1; i < len(candles); i++ {
		require.True(t, candles[i].OpenTime.After(candles[i-1].OpenTime))
	}
}

func TestFetch_ServesCachedOnUpstreamFailure(t *testing.T) {
	start := time.Now().Add(-time.Hour)
	provider := &stubProvider{candles: makeCandles(start, 5, 100)}
	fetcher := NewFetcher(provider, zap.NewNop(), WithRetrier(noRetry))

	_, _, err := fetcher.Fetch(context.Background(), "BTCUSDT", false)
	require.NoError(t, err)

	provider.err = errors.New("exchange down")
	candles, age, err := fetcher.Fetch(context.Background(), "BTCUSDT", true)
	require.NoError(t, err)
	require.Len(t, candles, 5)
	require.GreaterOrEqual(t, age, time.Duration(0))
}

func TestFetch_ErrorWhenNothingCached(t *testing.T) {
	provider := &stubProvider{err: errors.New("exchange down")}
	fetcher := NewFetcher(provider, zap.NewNop(), WithRetrier(noRetry))

	_, _, err := fetcher.Fetch(context.Background(), "BTCUSDT", false)
	require.Error(t, err)
	require.ErrorIs(t, err, domain.ErrDataUnavailable)
}

func TestSeed_LastWriterWins(t *testing.T) {
	provider := &stubProvider{}
	fetcher := NewFetcher(provider, zap.NewNop())

	start := time.Now().Add(-time.Hour)
	newer := makeCandles(start, 5, 200)
	older := makeCandles(start, 5, 100)

	fetcher.Seed("BTCUSDT", newer, time.Now())
	fetcher.Seed("BTCUSDT", older, time.Now().Add(-time.Minute))

	latest, ok := fetcher.Latest("BTCUSDT")
	require.True(t, ok)
	require.True(t, latest.Close.Equal(newer[4].Close))
}

type countingObserver struct {
	refreshes int
	failures  int
}

func (o *countingObserver) RecordRefresh(_ string, _ time.Duration, _ int, err error) {
	o.refreshes++
	if err != nil {
		o.failures++
	}
}

func TestFetch_NotifiesObserver(t *testing.T) {
	start := time.Now().Add(-time.Hour)
	provider := &stubProvider{candles: makeCandles(start, 5, 100)}
	observer := &countingObserver{}
	fetcher := NewFetcher(provider, zap.NewNop(), WithObserver(observer))

	_, _, err := fetcher.Fetch(context.Background(), "BTCUSDT", false)
	require.NoError(t, err)
	require.Equal(t, 1, observer.refreshes)
	require.Zero(t, observer.failures)
}
