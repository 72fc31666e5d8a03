package microstructure

import (
	"time"

	"github.com/shopspring/decimal"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
)

const (
	// zoneTolerance relative distance under which touches cluster into one zone.
	zoneTolerance  = 0.0008
	minZoneTouches = 2
)

// findLiquidityZones returns the prior-period high/low plus clusters of equal
// highs and equal lows, each annotated with its touch count.
func findLiquidityZones(candles []domain.Candle) []domain.LiquidityZone {
	var zones []domain.LiquidityZone

	if hi, lo, ok := priorPeriodRange(candles); ok {
		zones = append(zones,
			domain.LiquidityZone{Kind: domain.ZonePriorHigh, Price: hi, Touches: countTouches(candles, hi, true)},
			domain.LiquidityZone{Kind: domain.ZonePriorLow, Price: lo, Touches: countTouches(candles, lo, false)},
		)
	}

	swings := findSwings(candles)
	var highs, lows []decimal.Decimal
	for _, s := range swings {
		if s.high {
			highs = append(highs, s.price)
		} else {
			lows = append(lows, s.price)
		}
	}

	for _, cluster := range clusterLevels(highs) {
		zones = append(zones, domain.LiquidityZone{Kind: domain.ZoneEqualHighs, Price: cluster.price, Touches: cluster.touches})
	}
	for _, cluster := range clusterLevels(lows) {
		zones = append(zones, domain.LiquidityZone{Kind: domain.ZoneEqualLows, Price: cluster.price, Touches: cluster.touches})
	}

	return zones
}

// priorPeriodRange returns the high/low of the previous UTC day when the
// buffer spans a day boundary, otherwise of the older half of the buffer.
func priorPeriodRange(candles []domain.Candle) (decimal.Decimal, decimal.Decimal, bool) {
	if len(candles) < 4 {
		return decimal.Zero, decimal.Zero, false
	}

	lastDay := candles[len(candles)-1].OpenTime.UTC().Truncate(24 * time.Hour)
	var prior []domain.Candle
	for _, c := range candles {
		if c.OpenTime.UTC().Truncate(24 * time.Hour).Before(lastDay) {
			prior = append(prior, c)
		}
	}
	if len(prior) == 0 {
		prior = candles[:len(candles)/2]
	}

	hi, lo := prior[0].High, prior[0].Low
	for _, c := range prior[1:] {
		if c.High.GreaterThan(hi) {
			hi = c.High
		}
		if c.Low.LessThan(lo) {
			lo = c.Low
		}
	}
	return hi, lo, true
}

func countTouches(candles []domain.Candle, level decimal.Decimal, fromBelow bool) int {
	if level.IsZero() {
		return 0
	}
	tol := level.Mul(decimal.NewFromFloat(zoneTolerance))
	touches := 0
	for _, c := range candles {
		extreme := c.Low
		if fromBelow {
			extreme = c.High
		}
		if extreme.Sub(level).Abs().LessThanOrEqual(tol) {
			touches++
		}
	}
	return touches
}

type levelCluster struct {
	price   decimal.Decimal
	touches int
}

// clusterLevels groups prices lying within tolerance of each other and keeps
// clusters touched at least twice.
func clusterLevels(levels []decimal.Decimal) []levelCluster {
	var clusters []levelCluster
	used := make([]bool, len(levels))

	for i, level := range levels {
		if used[i] {
			continue
		}
		sum := level
		count := 1
		used[i] = true
		tol := level.Mul(decimal.NewFromFloat(zoneTolerance))
		for j := i + 1; j < len(levels); j++ {
			if used[j] {
				continue
			}
			if levels[j].Sub(level).Abs().LessThanOrEqual(tol) {
				sum = sum.Add(levels[j])
				count++
				used[j] = true
			}
		}
		if count >= minZoneTouches {
			clusters = append(clusters, levelCluster{
				price:   sum.Div(decimal.NewFromInt(int64(count))),
				touches: count,
			})
		}
	}
	return clusters
}
