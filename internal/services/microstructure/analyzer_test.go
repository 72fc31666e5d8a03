package microstructure

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
)

func overlapSession() domain.SessionProfile {
	return domain.SessionProfile{
		Session:        domain.SessionOverlap,
		Bias:           1.1,
		VolatilityTier: "high",
	}
}

func analysisInput(candles []domain.Candle) Input {
	return Input{
		Instrument:  "BTCUSDT",
		Candles:     candles,
		Class:       domain.AssetClassCrypto,
		Session:     overlapSession(),
		Granularity: GranularityFine,
	}
}

func TestAnalyze_MemoizesUnchangedCandleSet(t *testing.T) {
	a := NewAnalyzer(zap.NewNop())
	candles := zigzag(100, 6, 1)

	first := a.Analyze(analysisInput(candles))
	second := a.Analyze(analysisInput(candles))

	require.Same(t, first, second)
	require.EqualValues(t, 1, a.Recomputes())
}

func TestAnalyze_RecomputesOnNewCandle(t *testing.T) {
	a := NewAnalyzer(zap.NewNop())
	candles := zigzag(100, 6, 1)

	a.Analyze(analysisInput(candles))

	extended := append([]domain.Candle(nil), candles...)
	extended = append(extended, candleAt(len(extended), 106, 107, 105.5, 106.5))

	snap := a.Analyze(analysisInput(extended))
	require.EqualValues(t, 2, a.Recomputes())
	require.Equal(t, len(extended), snap.CandleCount)
}

func TestAnalyze_MemoExpiresAfterTTL(t *testing.T) {
	a := NewAnalyzer(zap.NewNop())
	a.SetMemoTTL(time.Millisecond)
	candles := zigzag(100, 6, 1)

	a.Analyze(analysisInput(candles))
	time.Sleep(5 * time.Millisecond)
	a.Analyze(analysisInput(candles))

	require.EqualValues(t, 2, a.Recomputes())
}

func TestAnalyze_InsufficientHistoryNamesMissingSignals(t *testing.T) {
	a := NewAnalyzer(zap.NewNop())

	snap := a.Analyze(analysisInput(zigzag(100, 2, 1))) // 12 candles

	require.True(t, snap.Insufficient)
	require.Contains(t, snap.Unavailable, "volatility")
	require.Contains(t, snap.Unavailable, "confluence")
	require.Contains(t, snap.Unavailable, "alignment")
	// structure needs only 10 candles and is still computed
	require.NotContains(t, snap.Unavailable, "structure")
}

func TestAnalyze_EmptyInput(t *testing.T) {
	a := NewAnalyzer(zap.NewNop())

	snap := a.Analyze(analysisInput(nil))
	require.True(t, snap.Insufficient)
	require.Zero(t, snap.CandleCount)
	require.Equal(t, domain.HintNone, snap.Hint)
}

func TestAnalyze_EndToEndUptrendWithReversal(t *testing.T) {
	a := NewAnalyzer(zap.NewNop())

	uptrend := zigzag(100, 6, 1) // 36 ascending candles
	structure := classifyStructure(uptrend)
	level, _ := structure.LastSwingLow.Float64()
	candles := breakLower(uptrend, level, 3)

	snap := a.Analyze(analysisInput(candles))

	require.False(t, snap.Insufficient)
	require.Equal(t, domain.StructureBullish, snap.Structure.Type)

	reversal, ok := snap.Event(domain.EventReversal)
	require.True(t, ok, "three confirming closes below the swing low must flag a reversal")
	require.Equal(t, domain.TrendDirectionBearish, reversal.Direction)
	require.Equal(t, 3, reversal.Confirmations)

	require.Greater(t, snap.Confluence, 0.0)
	require.LessOrEqual(t, snap.Confluence, 100.0)
	require.NotEmpty(t, snap.Components)
	require.True(t, snap.LastClose.GreaterThan(decimal.Zero))
}
