package microstructure

import (
	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/trend"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
)

const (
	emaPeriod = 20
	// sustainedSqueezeBars squeeze duration after which a breakout setup is
	// preferred over range rotation.
	sustainedSqueezeBars = 6
)

// deriveHint picks a strategy family from volatility state, structure quality
// and price deviation from the short-term mean.
func deriveHint(snap *domain.MicrostructureSnapshot, candles []domain.Candle, meanTolerance float64) domain.StrategyHint {
	switch {
	case snap.Volatility.State == domain.VolatilityContracting && snap.Volatility.SqueezeBars >= sustainedSqueezeBars:
		return domain.HintBreakout
	case snap.Volatility.State == domain.VolatilityContracting &&
		(snap.Structure.Type == domain.StructureChoppy || snap.Structure.Type == domain.StructureRanging):
		return domain.HintRange
	case snap.Alignment.Aligned && snap.Momentum.Quality == domain.MomentumExcellent:
		return domain.HintContinuation
	}

	if _, ok := snap.Event(domain.EventReversal); ok {
		return domain.HintReversal
	}

	// a stretched move away from the short-term mean argues for reversion
	if deviation := meanDeviation(candles); meanTolerance > 0 && deviation > meanTolerance {
		return domain.HintReversal
	}

	if snap.Structure.Type == domain.StructureRanging {
		return domain.HintRange
	}
	return domain.HintNone
}

// meanDeviation returns |close - EMA20| / EMA20 for the latest candle.
func meanDeviation(candles []domain.Candle) float64 {
	if len(candles) < emaPeriod {
		return 0
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i], _ = c.Close.Float64()
	}

	ema := trend.NewEmaWithPeriod[float64](emaPeriod)
	out := helper.ChanToSlice(ema.Compute(helper.SliceToChan(closes)))
	if len(out) == 0 {
		return 0
	}

	mean := out[len(out)-1]
	if mean == 0 {
		return 0
	}
	last := closes[len(closes)-1]
	dev := (last - mean) / mean
	if dev < 0 {
		dev = -dev
	}
	return dev
}
