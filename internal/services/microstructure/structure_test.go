package microstructure

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
)

var candleStart = time.Date(2026, 8, 3, 9, 0, 0, 0, time.UTC)

// candleAt builds one 1-minute candle from float prices.
func candleAt(i int, open, high, low, close float64) domain.Candle {
	return domain.Candle{
		OpenTime:  candleStart.Add(time.Duration(i) * time.Minute),
		Open:      decimal.NewFromFloat(open),
		High:      decimal.NewFromFloat(high),
		Low:       decimal.NewFromFloat(low),
		Close:     decimal.NewFromFloat(close),
		Volume:    decimal.NewFromInt(100),
		CloseTime: candleStart.Add(time.Duration(i+1) * time.Minute),
	}
}

// zigzag builds an ascending (step > 0) or descending (step < 0) sequence of
// six-candle swing cycles. Each cycle rises three candles to a peak and falls
// three to a trough, with the whole cycle shifted by step each time. Peaks and
// troughs land exactly on fractal swing points for a lookback of 2.
func zigzag(base float64, cycles int, step float64) []domain.Candle {
	shape := []float64{1, 2, 3, 2, 1, 0}
	var out []domain.Candle
	for c := 0; c < cycles; c++ {
		offset := base + float64(c)*step
		for j, v := range shape {
			price := offset + v
			out = append(out, candleAt(c*len(shape)+j, price-0.2, price+0.5, price-0.5, price+0.2))
		}
	}
	return out
}

func TestClassifyStructure_BullishWithStreak(t *testing.T) {
	state := classifyStructure(zigzag(100, 5, 1))

	require.Equal(t, domain.StructureBullish, state.Type)
	require.GreaterOrEqual(t, state.Streak, 2)
	require.False(t, state.LastSwingHigh.IsZero())
	require.False(t, state.LastSwingLow.IsZero())
	require.True(t, state.LastSwingHigh.GreaterThan(state.LastSwingLow))
}

func TestClassifyStructure_BearishWithStreak(t *testing.T) {
	// step magnitude below one cycle unit keeps each trough a local minimum
	state := classifyStructure(zigzag(100, 5, -0.5))

	require.Equal(t, domain.StructureBearish, state.Type)
	require.GreaterOrEqual(t, state.Streak, 2)
}

func TestClassifyStructure_RangingOnEqualSwings(t *testing.T) {
	state := classifyStructure(zigzag(100, 5, 0))

	require.Equal(t, domain.StructureRanging, state.Type)
}

func TestClassifyStructure_ChoppyWithTooFewSwings(t *testing.T) {
	state := classifyStructure(zigzag(100, 1, 1))

	require.Equal(t, domain.StructureChoppy, state.Type)
	require.Zero(t, state.Streak)
}

func TestFindSwings_MarksPeaksAndTroughs(t *testing.T) {
	candles := zigzag(100, 3, 1)
	swings := findSwings(candles)

	require.NotEmpty(t, swings)
	for _, s := range swings {
		// interior points only, never within the lookback edges
		require.GreaterOrEqual(t, s.index, swingLookback)
		require.Less(t, s.index, len(candles)-swingLookback)
	}
}
