package outcome

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
)

func record(result domain.OutcomeResult, confluence float64, vol domain.VolatilityState) domain.SignalOutcomeRecord {
	detected := time.Now().Add(-time.Hour)
	return domain.SignalOutcomeRecord{
		Instrument:   "BTCUSDT",
		Session:      domain.SessionOverlap,
		Confluence:   confluence,
		Volatility:   vol,
		Hint:         domain.HintContinuation,
		Result:       result,
		RiskMultiple: 1.5,
		DetectedAt:   detected,
		ExecutedAt:   detected.Add(2 * time.Second),
	}
}

func seedStore(t *testing.T, wins, losses int) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	for i := 0; i < wins; i++ {
		require.NoError(t, store.Record(record(domain.OutcomeWin, 80, domain.VolatilityExpanding)))
	}
	for i := 0; i < losses; i++ {
		require.NoError(t, store.Record(record(domain.OutcomeLoss, 55, domain.VolatilityContracting)))
	}
	return store
}

func TestLearner_InsufficientSamples(t *testing.T) {
	store := seedStore(t, 5, 5)
	learner := NewLearner(store, zap.NewNop())

	_, err := learner.Optimal("BTCUSDT", domain.SessionOverlap, 70)
	require.ErrorIs(t, err, domain.ErrInsufficientSamples)
}

func TestLearner_LowWinRateTightensThreshold(t *testing.T) {
	store := seedStore(t, 5, 20) // 20% win rate
	learner := NewLearner(store, zap.NewNop())

	params, err := learner.Optimal("BTCUSDT", domain.SessionOverlap, 70)
	require.NoError(t, err)
	require.InDelta(t, 0.2, params.WinRate, 0.001)
	require.InDelta(t, 75, params.ConfidenceThreshold, 0.001)
}

func TestLearner_HighWinRateRelaxesThreshold(t *testing.T) {
	store := seedStore(t, 20, 4) // ~83% win rate
	learner := NewLearner(store, zap.NewNop())

	params, err := learner.Optimal("BTCUSDT", domain.SessionOverlap, 70)
	require.NoError(t, err)
	require.InDelta(t, 65, params.ConfidenceThreshold, 0.001)
}

func TestLearner_InBandWinRateKeepsBase(t *testing.T) {
	store := seedStore(t, 12, 8) // 60% win rate
	learner := NewLearner(store, zap.NewNop())

	params, err := learner.Optimal("BTCUSDT", domain.SessionOverlap, 70)
	require.NoError(t, err)
	require.InDelta(t, 70, params.ConfidenceThreshold, 0.001)
}

func TestLearner_ThresholdStaysInBounds(t *testing.T) {
	store := seedStore(t, 2, 20)
	learner := NewLearner(store, zap.NewNop())

	params, err := learner.Optimal("BTCUSDT", domain.SessionOverlap, 93)
	require.NoError(t, err)
	require.Equal(t, 95.0, params.ConfidenceThreshold)
}

func TestLearner_AggregatesLatencyAndRisk(t *testing.T) {
	store := seedStore(t, 15, 10)
	learner := NewLearner(store, zap.NewNop())

	params, err := learner.Optimal("BTCUSDT", domain.SessionOverlap, 70)
	require.NoError(t, err)
	require.Equal(t, 2*time.Second, params.AvgLatency)
	require.InDelta(t, 1.5, params.AvgRiskMultiple, 0.001)
}

func TestLearner_VolatilityCorrelation(t *testing.T) {
	// wins carry high confluence in expansion, losses low confluence in
	// contraction, so the correlation must come out strongly positive
	store := seedStore(t, 15, 10)
	learner := NewLearner(store, zap.NewNop())

	params, err := learner.Optimal("BTCUSDT", domain.SessionOverlap, 70)
	require.NoError(t, err)
	require.Greater(t, params.VolatilityCorrelation, 0.9)
}

func TestLearner_SessionSuccessRates(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	for i := 0; i < 4; i++ {
		require.NoError(t, store.Record(record(domain.OutcomeWin, 80, domain.VolatilityStable)))
	}
	asian := record(domain.OutcomeLoss, 60, domain.VolatilityStable)
	asian.Session = domain.SessionAsian
	require.NoError(t, store.Record(asian))

	rates := learnerRates(t, store)
	require.InDelta(t, 1.0, rates[domain.SessionOverlap], 0.001)
	require.InDelta(t, 0.0, rates[domain.SessionAsian], 0.001)
}

func learnerRates(t *testing.T, store *Store) map[domain.TradingSession]float64 {
	t.Helper()
	return NewLearner(store, zap.NewNop()).SessionSuccessRates("BTCUSDT")
}

func TestStore_PersistsAcrossReopen(t *testing.T) {
	dir := t.TempDir()

	store, err := NewStore(dir)
	require.NoError(t, err)
	require.NoError(t, store.Record(record(domain.OutcomeWin, 75, domain.VolatilityStable)))
	require.NoError(t, store.Close())

	reopened, err := NewStore(dir)
	require.NoError(t, err)
	defer reopened.Close()

	records := reopened.Records()
	require.Len(t, records, 1)
	require.Equal(t, domain.OutcomeWin, records[0].Result)
	require.NotEmpty(t, records[0].EventID)
}

func TestStore_PurgeDropsOldRecords(t *testing.T) {
	store, err := NewStore(t.TempDir())
	require.NoError(t, err)
	defer store.Close()

	old := record(domain.OutcomeWin, 75, domain.VolatilityStable)
	old.DetectedAt = time.Now().Add(-48 * time.Hour)
	require.NoError(t, store.Record(old))
	require.NoError(t, store.Record(record(domain.OutcomeLoss, 60, domain.VolatilityStable)))

	purged := store.Purge(24 * time.Hour)
	require.Equal(t, 1, purged)
	require.Len(t, store.Records(), 1)
}
