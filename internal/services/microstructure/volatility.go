package microstructure

import (
	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/volatility"
	"github.com/shopspring/decimal"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
)

const (
	atrShortPeriod = 10
	atrLongPeriod  = 25
)

// classBands per-class expansion/contraction cutoffs for the short/long ATR
// ratio. Crypto tolerates wider swings before being called expanding.
type classBands struct {
	contract float64
	expand   float64
}

var volatilityBands = map[domain.AssetClass]classBands{
	domain.AssetClassCrypto:  {contract: 0.80, expand: 1.50},
	domain.AssetClassMetal:   {contract: 0.85, expand: 1.25},
	domain.AssetClassIndex:   {contract: 0.85, expand: 1.30},
	domain.AssetClassFX:      {contract: 0.85, expand: 1.30},
	domain.AssetClassGeneric: {contract: 0.85, expand: 1.30},
}

// analyzeVolatility compares the short-window ATR against the longer-window
// baseline of the same series and classifies the state with class-specific
// thresholds, tracking squeeze duration while contracting.
func analyzeVolatility(candles []domain.Candle, class domain.AssetClass) domain.VolatilityInfo {
	info := domain.VolatilityInfo{State: domain.VolatilityStable, Regime: domain.RegimeStable, ATRRatio: 1}

	atrShort := lastATR(candles, atrShortPeriod)
	atrLong := lastATR(candles, atrLongPeriod)
	if atrShort <= 0 || atrLong <= 0 {
		return info
	}

	ratio := atrShort / atrLong
	info.ATRRatio = ratio

	bands, ok := volatilityBands[class]
	if !ok {
		bands = volatilityBands[domain.AssetClassGeneric]
	}

	switch {
	case ratio <= bands.contract:
		info.State = domain.VolatilityContracting
		info.SqueezeBars = squeezeDuration(candles)
	case ratio >= bands.expand:
		info.State = domain.VolatilityExpanding
	default:
		info.State = domain.VolatilityStable
	}

	info.Regime = classifyRegime(ratio, bands)
	return info
}

// classifyRegime buckets the ratio into the coarse regime used by
// crypto-class confluence scoring.
func classifyRegime(ratio float64, bands classBands) domain.VolatilityRegime {
	switch {
	case ratio >= bands.expand:
		return domain.RegimeVolatile
	case ratio <= bands.contract || ratio >= 1.15:
		return domain.RegimeTransitional
	default:
		return domain.RegimeStable
	}
}

// squeezeDuration counts trailing candles whose true range stays below the
// long-window average true range.
func squeezeDuration(candles []domain.Candle) int {
	if len(candles) < atrLongPeriod+1 {
		return 0
	}

	baselineWindow := candles[len(candles)-atrLongPeriod-1:]
	sum := decimal.Zero
	for i := 1; i < len(baselineWindow); i++ {
		sum = sum.Add(baselineWindow[i].TrueRange(baselineWindow[i-1].Close))
	}
	baseline := sum.Div(decimal.NewFromInt(int64(len(baselineWindow) - 1)))

	bars := 0
	for i := len(candles) - 1; i > 0; i-- {
		if candles[i].TrueRange(candles[i-1].Close).LessThan(baseline) {
			bars++
		} else {
			break
		}
	}
	return bars
}

// lastATR computes the most recent ATR value for the period via the
// cinar/indicator library, teacher-style slice/channel plumbing included.
func lastATR(candles []domain.Candle, period int) float64 {
	if len(candles) < period+1 {
		return 0
	}

	highs := make([]float64, len(candles))
	lows := make([]float64, len(candles))
	closes := make([]float64, len(candles))
	for i, c := range candles {
		highs[i], _ = c.High.Float64()
		lows[i], _ = c.Low.Float64()
		closes[i], _ = c.Close.Float64()
	}

	atr := volatility.NewAtrWithPeriod[float64](period)
	out := helper.ChanToSlice(atr.Compute(
		helper.SliceToChan(highs),
		helper.SliceToChan(lows),
		helper.SliceToChan(closes),
	))
	if len(out) == 0 {
		return 0
	}
	return out[len(out)-1]
}
