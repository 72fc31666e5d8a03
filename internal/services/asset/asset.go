// Package asset provides static per-instrument personality profiles with
// generic defaults for unknown instruments.
package asset

import (
	"sync"

	"go.uber.org/zap"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
)

// Provider looks up asset and threshold profiles by canonical instrument id.
type Provider struct {
	logger *zap.Logger

	mu         sync.RWMutex
	profiles   map[string]domain.AssetProfile
	thresholds map[string]domain.ThresholdProfile
}

// NewProvider builds a provider from configured overrides layered over the
// built-in table. Both maps may be nil.
func NewProvider(logger *zap.Logger, profiles map[string]domain.AssetProfile, thresholds map[string]domain.ThresholdProfile) *Provider {
	p := &Provider{
		logger:     logger,
		profiles:   make(map[string]domain.AssetProfile),
		thresholds: make(map[string]domain.ThresholdProfile),
	}
	p.Reload(profiles, thresholds)
	return p
}

// Reload replaces configured overrides on top of the built-in table.
func (p *Provider) Reload(profiles map[string]domain.AssetProfile, thresholds map[string]domain.ThresholdProfile) {
	merged := make(map[string]domain.AssetProfile, len(builtinProfiles)+len(profiles))
	for id, prof := range builtinProfiles {
		merged[id] = prof
	}
	for id, prof := range profiles {
		canonical := domain.NormalizeInstrument(id)
		prof.Instrument = canonical
		if prof.Class == "" {
			prof.Class = domain.ClassifyInstrument(canonical)
		}
		merged[canonical] = prof
	}

	mergedThresholds := make(map[string]domain.ThresholdProfile, len(builtinThresholds)+len(thresholds))
	for id, tp := range builtinThresholds {
		mergedThresholds[id] = tp
	}
	for id, tp := range thresholds {
		mergedThresholds[domain.NormalizeInstrument(id)] = tp
	}

	p.mu.Lock()
	defer p.mu.Unlock()
	p.profiles = merged
	p.thresholds = mergedThresholds
}

// Profile returns the configured personality for the instrument, or a generic
// default when none exists. Lookup normalizes spelling and suffix variants.
func (p *Provider) Profile(instrument string) domain.AssetProfile {
	id := domain.NormalizeInstrument(instrument)

	p.mu.RLock()
	prof, ok := p.profiles[id]
	p.mu.RUnlock()

	if ok {
		return prof
	}

	if p.logger != nil {
		p.logger.Debug("no asset profile configured, using generic default", zap.String("instrument", id))
	}
	generic := genericProfile
	generic.Instrument = id
	generic.Class = domain.ClassifyInstrument(id)
	return generic
}

// ThresholdProfile returns the calibration inputs for the instrument, with
// defaults substituted when absent.
func (p *Provider) ThresholdProfile(instrument string) domain.ThresholdProfile {
	id := domain.NormalizeInstrument(instrument)

	p.mu.RLock()
	tp, ok := p.thresholds[id]
	p.mu.RUnlock()

	if ok {
		return tp
	}
	return defaultThresholdProfile
}

// StrategiesForSession returns the instrument's preferred strategies during a
// session, falling back to its default strategy outside core sessions.
func (p *Provider) StrategiesForSession(instrument string, sess domain.SessionProfile) []domain.StrategyHint {
	prof := p.Profile(instrument)
	if prof.IsCoreSession(sess.Session) {
		return sess.PreferredStrategies
	}
	return []domain.StrategyHint{prof.DefaultStrategy}
}

var genericProfile = domain.AssetProfile{
	BaseConfidence:  70,
	ATRMultMin:      1.0,
	ATRMultMax:      2.0,
	VWAPTolerance:   0.004,
	ConfluenceMin:   70,
	CoreSessions:    []domain.TradingSession{domain.SessionLondon, domain.SessionNewYork},
	DefaultStrategy: domain.HintRange,
	Traits:          []string{"unprofiled"},
}

var defaultThresholdProfile = domain.ThresholdProfile{
	BaseConfidence:   70,
	VolatilityWeight: 0.5,
	SessionWeight:    1.0,
}

var builtinProfiles = map[string]domain.AssetProfile{
	"BTCUSDT": {
		Instrument:      "BTCUSDT",
		Class:           domain.AssetClassCrypto,
		BaseConfidence:  75,
		ATRMultMin:      1.2,
		ATRMultMax:      2.5,
		VWAPTolerance:   0.008,
		ConfluenceMin:   72,
		CoreSessions:    []domain.TradingSession{domain.SessionOverlap, domain.SessionNewYork},
		DefaultStrategy: domain.HintBreakout,
		Traits:          []string{"liquid", "news-sensitive", "24/7"},
	},
	"ETHUSDT": {
		Instrument:      "ETHUSDT",
		Class:           domain.AssetClassCrypto,
		BaseConfidence:  73,
		ATRMultMin:      1.2,
		ATRMultMax:      2.8,
		VWAPTolerance:   0.01,
		ConfluenceMin:   72,
		CoreSessions:    []domain.TradingSession{domain.SessionOverlap, domain.SessionNewYork},
		DefaultStrategy: domain.HintBreakout,
		Traits:          []string{"beta-to-btc", "24/7"},
	},
	"SOLUSDT": {
		Instrument:      "SOLUSDT",
		Class:           domain.AssetClassCrypto,
		BaseConfidence:  70,
		ATRMultMin:      1.4,
		ATRMultMax:      3.0,
		VWAPTolerance:   0.015,
		ConfluenceMin:   75,
		CoreSessions:    []domain.TradingSession{domain.SessionOverlap},
		DefaultStrategy: domain.HintContinuation,
		Traits:          []string{"high-beta", "24/7"},
	},
	"XAUUSD": {
		Instrument:      "XAUUSD",
		Class:           domain.AssetClassMetal,
		BaseConfidence:  75,
		ATRMultMin:      1.0,
		ATRMultMax:      1.8,
		VWAPTolerance:   0.003,
		ConfluenceMin:   70,
		CoreSessions:    []domain.TradingSession{domain.SessionLondon, domain.SessionOverlap},
		DefaultStrategy: domain.HintReversal,
		Traits:          []string{"session-driven", "liquidity-sweeps"},
	},
	"NAS100": {
		Instrument:      "NAS100",
		Class:           domain.AssetClassIndex,
		BaseConfidence:  75,
		ATRMultMin:      1.1,
		ATRMultMax:      2.2,
		VWAPTolerance:   0.004,
		ConfluenceMin:   72,
		CoreSessions:    []domain.TradingSession{domain.SessionOverlap, domain.SessionNewYork},
		DefaultStrategy: domain.HintContinuation,
		Traits:          []string{"trend-days", "open-drive"},
	},
	"EURUSD": {
		Instrument:      "EURUSD",
		Class:           domain.AssetClassFX,
		BaseConfidence:  72,
		ATRMultMin:      0.9,
		ATRMultMax:      1.6,
		VWAPTolerance:   0.002,
		ConfluenceMin:   70,
		CoreSessions:    []domain.TradingSession{domain.SessionLondon, domain.SessionOverlap},
		DefaultStrategy: domain.HintRange,
		Traits:          []string{"mean-reverting", "session-bound"},
	},
}

var builtinThresholds = map[string]domain.ThresholdProfile{
	"BTCUSDT": {BaseConfidence: 75, VolatilityWeight: 0.6, SessionWeight: 1.2},
	"ETHUSDT": {BaseConfidence: 73, VolatilityWeight: 0.6, SessionWeight: 1.1},
	"XAUUSD":  {BaseConfidence: 75, VolatilityWeight: 0.5, SessionWeight: 1.0},
	"NAS100":  {BaseConfidence: 75, VolatilityWeight: 0.55, SessionWeight: 1.1},
	"EURUSD":  {BaseConfidence: 72, VolatilityWeight: 0.4, SessionWeight: 0.9},
}
