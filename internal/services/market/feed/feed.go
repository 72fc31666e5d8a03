// Package feed provides upstream candle providers for supported exchanges.
// All providers return chronologically ordered, closed 1-minute OHLCV candles.
package feed

import (
	"context"
	"time"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
)

// Interval1m the only granularity the engine consumes upstream.
const Interval1m = "1m"

// CandleProvider fetches historical candles for an instrument.
type CandleProvider interface {
	// Candles returns up to limit candles for the instrument at the given
	// interval, chronologically ordered. A zero since means "most recent".
	Candles(ctx context.Context, instrument, interval string, since time.Time, limit int) ([]domain.Candle, error)
}
