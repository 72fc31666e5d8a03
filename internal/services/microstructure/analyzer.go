// Package microstructure converts ordered 1-minute candle history into a
// structured signal snapshot: swing structure, reversal/continuation events,
// liquidity zones, volatility state, rejection wicks, order blocks, momentum
// quality, trend alignment and a composite confluence score.
//
// Analysis is a pure function of the candle slice; results are memoized by
// (instrument, newest-candle timestamp, candle count) with a bounded lifetime.
package microstructure

import (
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
)

// MinCandles minimum history for a complete snapshot.
const MinCandles = 30

// per-detector history minimums, used to name unavailable sub-signals on a
// partial snapshot.
var detectorMinimums = []struct {
	name string
	min  int
}{
	{"structure", 10},
	{"events", 10},
	{"liquidity", 20},
	{"volatility", atrLongPeriod + 1},
	{"wicks", 5},
	{"order_blocks", 20},
	{"momentum", rsiPeriod + 1},
	{"alignment", MinCandles},
	{"confluence", MinCandles},
}

// DefaultMemoTTL lifetime of a memoized snapshot.
const DefaultMemoTTL = 90 * time.Second

// Input everything one analysis pass needs.
type Input struct {
	Instrument    string
	Candles       []domain.Candle
	Class         domain.AssetClass
	Session       domain.SessionProfile
	Granularity   Granularity
	MeanTolerance float64 // max stretch from mean before reversion is hinted
}

type memoKey struct {
	instrument string
	newest     int64
	count      int
}

type memoEntry struct {
	snapshot *domain.MicrostructureSnapshot
	storedAt time.Time
}

// Analyzer computes memoized microstructure snapshots.
type Analyzer struct {
	logger *zap.Logger
	ttl    time.Duration

	mu         sync.Mutex
	memo       map[memoKey]memoEntry
	recomputes atomic.Int64
}

// NewAnalyzer creates an analyzer with the default memo TTL.
func NewAnalyzer(logger *zap.Logger) *Analyzer {
	return &Analyzer{
		logger: logger,
		ttl:    DefaultMemoTTL,
		memo:   make(map[memoKey]memoEntry),
	}
}

// SetMemoTTL overrides the memo lifetime.
func (a *Analyzer) SetMemoTTL(ttl time.Duration) { a.ttl = ttl }

// Recomputes returns how many full analysis passes have run. Used by tests to
// verify memoization short-circuits repeated calls.
func (a *Analyzer) Recomputes() int64 { return a.recomputes.Load() }

// Analyze returns the snapshot for the candle set, serving a memoized result
// when the (instrument, newest, count) key is unchanged and fresh.
func (a *Analyzer) Analyze(in Input) *domain.MicrostructureSnapshot {
	id := domain.NormalizeInstrument(in.Instrument)

	var newest time.Time
	if len(in.Candles) > 0 {
		newest = in.Candles[len(in.Candles)-1].OpenTime
	}
	key := memoKey{instrument: id, newest: newest.UnixNano(), count: len(in.Candles)}

	a.mu.Lock()
	if entry, ok := a.memo[key]; ok && time.Since(entry.storedAt) < a.ttl {
		a.mu.Unlock()
		return entry.snapshot
	}
	a.mu.Unlock()

	snapshot := a.compute(id, newest, in)

	a.mu.Lock()
	// a changed key invalidates every older entry for the instrument
	for k := range a.memo {
		if k.instrument == id && k != key {
			delete(a.memo, k)
		}
	}
	a.memo[key] = memoEntry{snapshot: snapshot, storedAt: time.Now()}
	a.mu.Unlock()

	return snapshot
}

func (a *Analyzer) compute(id string, newest time.Time, in Input) *domain.MicrostructureSnapshot {
	a.recomputes.Add(1)

	snap := &domain.MicrostructureSnapshot{
		Instrument:  id,
		Newest:      newest,
		CandleCount: len(in.Candles),
		GeneratedAt: time.Now(),
	}
	if len(in.Candles) > 0 {
		snap.LastClose = in.Candles[len(in.Candles)-1].Close
	}

	if len(in.Candles) < MinCandles {
		snap.Insufficient = true
		for _, d := range detectorMinimums {
			if len(in.Candles) < d.min {
				snap.Unavailable = append(snap.Unavailable, d.name)
			}
		}
		a.logger.Debug("insufficient history for full analysis",
			zap.String("instrument", id),
			zap.Int("candles", len(in.Candles)),
			zap.Strings("unavailable", snap.Unavailable))
	}

	if has(in.Candles, "structure") {
		snap.Structure = classifyStructure(in.Candles)
	} else {
		snap.Structure = domain.StructureState{Type: domain.StructureChoppy}
	}
	if has(in.Candles, "events") {
		snap.Events = detectEvents(in.Candles, snap.Structure)
	}
	if has(in.Candles, "liquidity") {
		snap.Liquidity = findLiquidityZones(in.Candles)
	}
	if has(in.Candles, "volatility") {
		snap.Volatility = analyzeVolatility(in.Candles, in.Class)
	} else {
		snap.Volatility = domain.VolatilityInfo{State: domain.VolatilityStable, Regime: domain.RegimeStable, ATRRatio: 1}
	}
	if has(in.Candles, "wicks") {
		snap.Wicks = findRejectionWicks(in.Candles)
	}
	if has(in.Candles, "order_blocks") {
		snap.OrderBlocks = findOrderBlocks(in.Candles)
	}
	if has(in.Candles, "momentum") {
		snap.Momentum = analyzeMomentum(in.Candles)
	} else {
		snap.Momentum = domain.MomentumInfo{Quality: domain.MomentumChoppy, Direction: domain.TrendDirectionNeutral, RSI: 50}
	}
	if has(in.Candles, "alignment") {
		snap.Alignment = analyzeAlignment(in.Candles, snap.Structure)
	}

	if has(in.Candles, "confluence") {
		snap.Confluence, snap.Components = scoreConfluence(snap, in.Class, in.Session, in.Granularity)
		snap.Hint = deriveHint(snap, in.Candles, in.MeanTolerance)
	} else {
		snap.Hint = domain.HintNone
	}

	return snap
}

func has(candles []domain.Candle, detector string) bool {
	for _, d := range detectorMinimums {
		if d.name == detector {
			return len(candles) >= d.min
		}
	}
	return false
}
