package outcome

import (
	"math"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
)

const (
	// MinSamples records required before the learner proposes adjustments.
	MinSamples = 20

	// win-rate band inside which the current threshold is left alone
	winRateLow  = 0.55
	winRateHigh = 0.70

	thresholdStep = 5.0
	thresholdMin  = 50.0
	thresholdMax  = 95.0
)

// OptimalParameters learned adjustments for one instrument/session pair.
type OptimalParameters struct {
	Instrument          string                `json:"instrument"`
	Session             domain.TradingSession `json:"session"`
	Samples             int                   `json:"samples"`
	WinRate             float64               `json:"win_rate"`
	ConfidenceThreshold float64               `json:"confidence_threshold"`
	AvgLatency          time.Duration         `json:"avg_latency"`
	AvgRiskMultiple     float64               `json:"avg_risk_multiple"`

	// VolatilityCorrelation is the Pearson correlation between detection
	// confluence and the volatility state at detection time. A strongly
	// negative value means high-confidence signals cluster in contraction.
	VolatilityCorrelation float64 `json:"volatility_correlation"`
}

// Learner derives parameter adjustments from recorded outcomes.
type Learner struct {
	store  *Store
	logger *zap.Logger
}

// NewLearner creates a learner over the given store.
func NewLearner(store *Store, logger *zap.Logger) *Learner {
	return &Learner{store: store, logger: logger}
}

// Optimal computes learned parameters for an instrument and session, starting
// from the given base threshold. Returns domain.ErrInsufficientSamples until
// enough history exists; callers keep calibrated defaults in that case.
func (l *Learner) Optimal(instrument string, session domain.TradingSession, baseThreshold float64) (OptimalParameters, error) {
	recs := l.store.RecordsFor(instrument, session)
	if len(recs) < MinSamples {
		return OptimalParameters{}, errors.Wrapf(domain.ErrInsufficientSamples,
			"%s/%s has %d of %d records", instrument, session, len(recs), MinSamples)
	}

	wins := 0
	executed := 0
	var latencySum time.Duration
	var riskSum float64
	for _, r := range recs {
		if r.Result == domain.OutcomeWin {
			wins++
		}
		riskSum += r.RiskMultiple
		if !r.ExecutedAt.IsZero() && r.ExecutedAt.After(r.DetectedAt) {
			latencySum += r.ExecutedAt.Sub(r.DetectedAt)
			executed++
		}
	}

	winRate := float64(wins) / float64(len(recs))

	// a low win rate tightens the threshold, a high one relaxes it; inside
	// the target band the base is kept
	threshold := baseThreshold
	switch {
	case winRate < winRateLow:
		threshold += thresholdStep
	case winRate > winRateHigh:
		threshold -= thresholdStep
	}
	threshold = math.Min(thresholdMax, math.Max(thresholdMin, threshold))

	params := OptimalParameters{
		Instrument:            domain.NormalizeInstrument(instrument),
		Session:               session,
		Samples:               len(recs),
		WinRate:               winRate,
		ConfidenceThreshold:   threshold,
		AvgRiskMultiple:       riskSum / float64(len(recs)),
		VolatilityCorrelation: confidenceVolatilityCorrelation(recs),
	}
	if executed > 0 {
		params.AvgLatency = latencySum / time.Duration(executed)
	}

	l.logger.Debug("learned outcome parameters",
		zap.String("instrument", params.Instrument),
		zap.String("session", string(session)),
		zap.Int("samples", params.Samples),
		zap.Float64("win_rate", winRate),
		zap.Float64("threshold", threshold))

	return params, nil
}

// OptimalThreshold returns just the learned confidence threshold, for
// callers that treat the learner as an advisor over a calibrated base.
func (l *Learner) OptimalThreshold(instrument string, session domain.TradingSession, base float64) (float64, error) {
	params, err := l.Optimal(instrument, session, base)
	if err != nil {
		return 0, err
	}
	return params.ConfidenceThreshold, nil
}

// SessionSuccessRates returns win rate per session for an instrument,
// including sessions below the sample minimum (their rates are indicative only).
func (l *Learner) SessionSuccessRates(instrument string) map[domain.TradingSession]float64 {
	recs := l.store.RecordsFor(instrument, "")

	wins := make(map[domain.TradingSession]int)
	counts := make(map[domain.TradingSession]int)
	for _, r := range recs {
		counts[r.Session]++
		if r.Result == domain.OutcomeWin {
			wins[r.Session]++
		}
	}

	rates := make(map[domain.TradingSession]float64, len(counts))
	for sess, n := range counts {
		rates[sess] = float64(wins[sess]) / float64(n)
	}
	return rates
}

// confidenceVolatilityCorrelation computes the Pearson correlation between
// detection confluence and an ordinal volatility encoding
// (contracting=0, stable=1, expanding=2).
func confidenceVolatilityCorrelation(recs []domain.SignalOutcomeRecord) float64 {
	if len(recs) < 2 {
		return 0
	}

	var sumX, sumY, sumXY, sumXX, sumYY float64
	n := float64(len(recs))
	for _, r := range recs {
		x := r.Confluence
		y := volatilityOrdinal(r.Volatility)
		sumX += x
		sumY += y
		sumXY += x * y
		sumXX += x * x
		sumYY += y * y
	}

	num := n*sumXY - sumX*sumY
	den := math.Sqrt(n*sumXX-sumX*sumX) * math.Sqrt(n*sumYY-sumY*sumY)
	if den == 0 {
		return 0
	}
	return num / den
}

func volatilityOrdinal(v domain.VolatilityState) float64 {
	switch v {
	case domain.VolatilityContracting:
		return 0
	case domain.VolatilityExpanding:
		return 2
	default:
		return 1
	}
}
