package microstructure

import (
	"github.com/shopspring/decimal"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
)

const (
	swingLookback = 2
	// equalTolerance relative distance under which two swing prices count as equal.
	equalTolerance = 0.0005
	// structureSwings how many recent swing pairs feed classification.
	structureSwings = 4
)

type swingPoint struct {
	index int
	price decimal.Decimal
	high  bool
}

// findSwings returns fractal swing highs/lows: a swing high is a candle whose
// high exceeds the highs of the surrounding lookback candles on both sides.
func findSwings(candles []domain.Candle) []swingPoint {
	var swings []swingPoint
	for i := swingLookback; i < len(candles)-swingLookback; i++ {
		isHigh, isLow := true, true
		for j := 1; j <= swingLookback; j++ {
			if candles[i].High.LessThanOrEqual(candles[i-j].High) || candles[i].High.LessThanOrEqual(candles[i+j].High) {
				isHigh = false
			}
			if candles[i].Low.GreaterThanOrEqual(candles[i-j].Low) || candles[i].Low.GreaterThanOrEqual(candles[i+j].Low) {
				isLow = false
			}
		}
		if isHigh {
			swings = append(swings, swingPoint{index: i, price: candles[i].High, high: true})
		}
		if isLow {
			swings = append(swings, swingPoint{index: i, price: candles[i].Low, high: false})
		}
	}
	return swings
}

// classifyStructure labels the last few swing points as higher-high/higher-low
// (bullish), lower-high/lower-low (bearish), equal or choppy, with the count
// of consecutive swings confirming the label.
func classifyStructure(candles []domain.Candle) domain.StructureState {
	swings := findSwings(candles)

	var highs, lows []swingPoint
	for _, s := range swings {
		if s.high {
			highs = append(highs, s)
		} else {
			lows = append(lows, s)
		}
	}

	state := domain.StructureState{Type: domain.StructureChoppy}
	if len(highs) > 0 {
		state.LastSwingHigh = highs[len(highs)-1].price
	}
	if len(lows) > 0 {
		state.LastSwingLow = lows[len(lows)-1].price
	}
	if len(highs) < 2 || len(lows) < 2 {
		return state
	}

	if n := len(highs); n > structureSwings {
		highs = highs[n-structureSwings:]
	}
	if n := len(lows); n > structureSwings {
		lows = lows[n-structureSwings:]
	}

	higherStreak := min(streak(highs, cmpHigher), streak(lows, cmpHigher))
	lowerStreak := min(streak(highs, cmpLower), streak(lows, cmpLower))
	equalStreak := min(streak(highs, cmpEqual), streak(lows, cmpEqual))

	switch {
	case higherStreak > 0 && higherStreak >= lowerStreak && higherStreak >= equalStreak:
		state.Type = domain.StructureBullish
		state.Streak = higherStreak
	case lowerStreak > 0 && lowerStreak >= equalStreak:
		state.Type = domain.StructureBearish
		state.Streak = lowerStreak
	case equalStreak > 0:
		state.Type = domain.StructureRanging
		state.Streak = equalStreak
	}

	return state
}

type swingCmp func(prev, cur decimal.Decimal) bool

func cmpHigher(prev, cur decimal.Decimal) bool {
	return cur.GreaterThan(prev) && !withinTolerance(prev, cur)
}

func cmpLower(prev, cur decimal.Decimal) bool {
	return cur.LessThan(prev) && !withinTolerance(prev, cur)
}

func cmpEqual(prev, cur decimal.Decimal) bool {
	return withinTolerance(prev, cur)
}

// streak counts consecutive most-recent swing pairs satisfying cmp.
func streak(points []swingPoint, cmp swingCmp) int {
	count := 0
	for i := len(points) - 1; i > 0; i-- {
		if cmp(points[i-1].price, points[i].price) {
			count++
		} else {
			break
		}
	}
	return count
}

func withinTolerance(a, b decimal.Decimal) bool {
	if a.IsZero() {
		return b.IsZero()
	}
	return b.Sub(a).Abs().Div(a.Abs()).LessThanOrEqual(decimal.NewFromFloat(equalTolerance))
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}
