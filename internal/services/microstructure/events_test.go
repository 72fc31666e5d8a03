package microstructure

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
)

// breakLower appends n consecutive candles closing below the given level.
func breakLower(candles []domain.Candle, level float64, n int) []domain.Candle {
	out := append([]domain.Candle(nil), candles...)
	price := level
	for i := 0; i < n; i++ {
		price -= 0.3
		out = append(out, candleAt(len(out), price+0.3, price+0.4, price-0.1, price))
	}
	return out
}

func TestDetectReversal_RequiresThreeConfirmingCandles(t *testing.T) {
	uptrend := zigzag(100, 5, 1)
	structure := classifyStructure(uptrend)
	require.Equal(t, domain.StructureBullish, structure.Type)

	level, _ := structure.LastSwingLow.Float64()

	// two closes below the swing low is still a potential fakeout
	twoBreaks := breakLower(uptrend, level, 2)
	events := detectEvents(twoBreaks, classifyStructure(twoBreaks))
	for _, e := range events {
		require.NotEqual(t, domain.EventReversal, e.Type)
	}

	// the third confirming close flags the reversal
	threeBreaks := breakLower(uptrend, level, 3)
	events = detectEvents(threeBreaks, classifyStructure(threeBreaks))

	require.Len(t, events, 1)
	require.Equal(t, domain.EventReversal, events[0].Type)
	require.Equal(t, domain.TrendDirectionBearish, events[0].Direction)
	require.Equal(t, 3, events[0].Confirmations)
	require.GreaterOrEqual(t, events[0].Confidence, reversalBaseConfidence)
}

func TestDetectContinuation_FiresOnBreakInTrendDirection(t *testing.T) {
	uptrend := zigzag(100, 5, 1)
	structure := classifyStructure(uptrend)
	require.Equal(t, domain.StructureBullish, structure.Type)

	level, _ := structure.LastSwingHigh.Float64()
	extended := append([]domain.Candle(nil), uptrend...)
	extended = append(extended, candleAt(len(extended), level, level+0.8, level-0.1, level+0.5))

	event, ok := detectContinuation(extended, classifyStructure(extended))
	require.True(t, ok)
	require.Equal(t, domain.EventContinuation, event.Type)
	require.Equal(t, domain.TrendDirectionBullish, event.Direction)
}

func TestDetectContinuation_RequiresEstablishedStreak(t *testing.T) {
	// a single swing pair has no streak to continue
	short := zigzag(100, 2, 1)
	structure := classifyStructure(short)

	_, ok := detectContinuation(short, structure)
	require.False(t, ok)
}

func TestDetectEvents_NoEventsInsideRange(t *testing.T) {
	flat := zigzag(100, 5, 0)
	events := detectEvents(flat, classifyStructure(flat))
	require.Empty(t, events)
}
