package microstructure

import (
	"github.com/cinar/indicator/v2/helper"
	"github.com/cinar/indicator/v2/momentum"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
)

const (
	momentumWindow = 10
	rsiPeriod      = 14
)

// analyzeMomentum measures the consistency of consecutive same-direction
// moves and cross-checks it against RSI before bucketing quality.
func analyzeMomentum(candles []domain.Candle) domain.MomentumInfo {
	info := domain.MomentumInfo{Quality: domain.MomentumChoppy, Direction: domain.TrendDirectionNeutral, RSI: 50}
	if len(candles) < momentumWindow {
		return info
	}

	window := candles[len(candles)-momentumWindow:]
	up := 0
	for _, c := range window {
		if c.Bullish() {
			up++
		}
	}
	down := len(window) - up

	if up >= down {
		info.Direction = domain.TrendDirectionBullish
		info.Consistency = float64(up) / float64(len(window))
	} else {
		info.Direction = domain.TrendDirectionBearish
		info.Consistency = float64(down) / float64(len(window))
	}

	info.RSI = lastRSI(candles, rsiPeriod)

	confirmed := (info.Direction == domain.TrendDirectionBullish && info.RSI > 55) ||
		(info.Direction == domain.TrendDirectionBearish && info.RSI < 45)

	switch {
	case info.Consistency >= 0.8 && confirmed:
		info.Quality = domain.MomentumExcellent
	case info.Consistency >= 0.7 && confirmed, info.Consistency >= 0.8:
		info.Quality = domain.MomentumGood
	case info.Consistency >= 0.6:
		info.Quality = domain.MomentumFair
	default:
		info.Quality = domain.MomentumChoppy
	}

	return info
}

// lastRSI computes the most recent RSI value via cinar/indicator.
func lastRSI(candles []domain.Candle, period int) float64 {
	if len(candles) < period+1 {
		return 50
	}

	closes := make([]float64, len(candles))
	for i, c := range candles {
		closes[i], _ = c.Close.Float64()
	}

	rsi := momentum.NewRsiWithPeriod[float64](period)
	out := helper.ChanToSlice(rsi.Compute(helper.SliceToChan(closes)))
	if len(out) == 0 {
		return 50
	}
	return out[len(out)-1]
}
