package microstructure

import (
	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
)

const (
	mediumAggregation = 5  // 5-minute structure
	longAggregation   = 15 // 15-minute structure
)

// analyzeAlignment measures how well the 1-minute structure agrees with
// independently computed medium and longer granularity structure built by
// aggregating the same candle history.
func analyzeAlignment(candles []domain.Candle, oneMinute domain.StructureState) domain.TrendAlignment {
	medium := classifyStructure(aggregate(candles, mediumAggregation))
	long := classifyStructure(aggregate(candles, longAggregation))

	alignment := domain.TrendAlignment{Medium: medium.Type, Long: long.Type}

	dir := oneMinute.Type.Direction()
	if dir == domain.TrendDirectionNeutral {
		return alignment
	}

	mediumAgrees := medium.Type.Direction() == dir
	longAgrees := long.Type.Direction() == dir

	switch {
	case mediumAgrees && longAgrees:
		alignment.Aligned = true
		alignment.Strength = 1.0
	case mediumAgrees:
		alignment.Aligned = true
		alignment.Strength = 0.6
	case longAgrees:
		alignment.Strength = 0.35
	}

	alignment.Confidence = alignment.Strength * (0.7 + 0.1*float64(min(oneMinute.Streak, 3)))
	return alignment
}

// aggregate folds 1-minute candles into n-minute candles. A trailing partial
// group is dropped so only closed aggregated candles are classified.
func aggregate(candles []domain.Candle, n int) []domain.Candle {
	if n <= 1 || len(candles) < n {
		return candles
	}

	full := len(candles) / n
	out := make([]domain.Candle, 0, full)
	start := len(candles) - full*n

	for g := 0; g < full; g++ {
		group := candles[start+g*n : start+(g+1)*n]
		agg := domain.Candle{
			OpenTime:  group[0].OpenTime,
			Open:      group[0].Open,
			High:      group[0].High,
			Low:       group[0].Low,
			Close:     group[len(group)-1].Close,
			Volume:    group[0].Volume,
			CloseTime: group[len(group)-1].CloseTime,
		}
		for _, c := range group[1:] {
			if c.High.GreaterThan(agg.High) {
				agg.High = c.High
			}
			if c.Low.LessThan(agg.Low) {
				agg.Low = c.Low
			}
			agg.Volume = agg.Volume.Add(c.Volume)
		}
		out = append(out, agg)
	}
	return out
}
