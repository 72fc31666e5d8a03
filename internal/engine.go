// Package internal wires the data, analysis, decision and persistence
// services into one engine driven by a single ticker loop.
package internal

import (
	"context"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
	"github.com/BenignMalice/SynergisBot-sub021/internal/services/asset"
	"github.com/BenignMalice/SynergisBot-sub021/internal/services/evaluator"
	"github.com/BenignMalice/SynergisBot-sub021/internal/services/market/candlecache"
	"github.com/BenignMalice/SynergisBot-sub021/internal/services/market/scheduler"
	"github.com/BenignMalice/SynergisBot-sub021/internal/services/microstructure"
	"github.com/BenignMalice/SynergisBot-sub021/internal/services/monitor"
	"github.com/BenignMalice/SynergisBot-sub021/internal/services/session"
	"github.com/BenignMalice/SynergisBot-sub021/internal/services/snapshot"
)

const (
	// DefaultTickInterval cadence of the evaluation loop.
	DefaultTickInterval = 15 * time.Second
	// DefaultSnapshotInterval cadence of crash-recovery snapshots.
	DefaultSnapshotInterval = 5 * time.Minute
)

// EngineConfig runtime settings for the engine loop.
type EngineConfig struct {
	Instruments      []string
	TickInterval     time.Duration
	SnapshotInterval time.Duration
	SnapshotMaxAge   time.Duration
	Granularity      microstructure.Granularity
}

// Engine owns the periodic refresh/analyze/evaluate cycle.
type Engine struct {
	cfg       EngineConfig
	fetcher   *candlecache.Fetcher
	scheduler *scheduler.Scheduler
	analyzer  *microstructure.Analyzer
	evaluator *evaluator.Evaluator
	snapshots *snapshot.Manager
	assets    *asset.Provider
	monitor   *monitor.Monitor
	logger    *zap.Logger
}

// NewEngine assembles the engine. Instrument ids are canonicalized once here.
func NewEngine(
	cfg EngineConfig,
	fetcher *candlecache.Fetcher,
	sched *scheduler.Scheduler,
	analyzer *microstructure.Analyzer,
	eval *evaluator.Evaluator,
	snapshots *snapshot.Manager,
	assets *asset.Provider,
	mon *monitor.Monitor,
	logger *zap.Logger,
) (*Engine, error) {
	if len(cfg.Instruments) == 0 {
		return nil, errors.New("engine needs at least one instrument")
	}
	for i, id := range cfg.Instruments {
		cfg.Instruments[i] = domain.NormalizeInstrument(id)
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	if cfg.SnapshotInterval <= 0 {
		cfg.SnapshotInterval = DefaultSnapshotInterval
	}
	if cfg.Granularity == "" {
		cfg.Granularity = microstructure.GranularityFine
	}

	return &Engine{
		cfg:       cfg,
		fetcher:   fetcher,
		scheduler: sched,
		analyzer:  analyzer,
		evaluator: eval,
		snapshots: snapshots,
		assets:    assets,
		monitor:   mon,
		logger:    logger,
	}, nil
}

// Run recovers cached state, then drives the tick loop until the context is
// cancelled.
func (e *Engine) Run(ctx context.Context) error {
	e.recover(ctx)

	ticker := time.NewTicker(e.cfg.TickInterval)
	defer ticker.Stop()
	snapTicker := time.NewTicker(e.cfg.SnapshotInterval)
	defer snapTicker.Stop()

	e.logger.Info("engine loop starting",
		zap.Strings("instruments", e.cfg.Instruments),
		zap.Duration("tick", e.cfg.TickInterval))

	for {
		select {
		case <-ctx.Done():
			e.logger.Info("engine loop stopping")
			e.writeSnapshots()
			return ctx.Err()
		case <-ticker.C:
			e.tick(ctx)
		case <-snapTicker.C:
			e.writeSnapshots()
		}
	}
}

// recover seeds candle buffers from disk snapshots where a valid one exists
// and cold-fetches the rest. Startup never fails on bad snapshots.
func (e *Engine) recover(ctx context.Context) {
	for _, id := range e.cfg.Instruments {
		candles, createdAt, err := e.snapshots.Load(id, e.cfg.SnapshotMaxAge)
		if err == nil {
			e.fetcher.Seed(id, candles, createdAt)
			e.logger.Info("recovered candle buffer from snapshot",
				zap.String("instrument", id),
				zap.Int("candles", len(candles)),
				zap.Time("created_at", createdAt))
			continue
		}

		switch {
		case errors.Is(err, domain.ErrStaleData):
			e.logger.Info("snapshot too old, cold start", zap.String("instrument", id))
		case errors.Is(err, domain.ErrCorruptSnapshot):
			e.logger.Warn("snapshot corrupt, cold start", zap.String("instrument", id), zap.Error(err))
		default:
			e.logger.Debug("no snapshot, cold start", zap.String("instrument", id))
		}

		if err := e.scheduler.Refresh(ctx, id, true); err != nil {
			// the loop retries on schedule
			e.logger.Warn("cold start fetch failed", zap.String("instrument", id), zap.Error(err))
		}
	}
}

// tick runs one refresh/analyze/evaluate pass. Instruments fail independently.
func (e *Engine) tick(ctx context.Context) {
	now := time.Now()

	if due := e.scheduler.Due(e.cfg.Instruments, now); len(due) > 0 {
		e.scheduler.RefreshBatch(ctx, due)
	}

	sess := session.Profile(now)
	for _, id := range e.cfg.Instruments {
		if err := e.evaluateInstrument(ctx, id, sess); err != nil {
			e.logger.Warn("instrument evaluation skipped",
				zap.String("instrument", id), zap.Error(err))
		}
	}
}

func (e *Engine) evaluateInstrument(ctx context.Context, id string, sess domain.SessionProfile) error {
	// read-only cache access: refreshes happen only in the scheduler step, so
	// tier cadence and trading-hours rules are never bypassed from here
	candles, refreshedAt, ok := e.fetcher.Cached(id)
	if !ok {
		return errors.Wrapf(domain.ErrDataUnavailable, "no cached candles for %s", id)
	}
	e.monitor.ObserveDataAge(id, time.Since(refreshedAt), e.scheduler.Interval(id))

	profile := e.assets.Profile(id)
	snap := e.analyzer.Analyze(microstructure.Input{
		Instrument:    id,
		Candles:       candles,
		Class:         profile.Class,
		Session:       sess,
		Granularity:   e.cfg.Granularity,
		MeanTolerance: profile.VWAPTolerance,
	})
	e.monitor.RecordAnalysis()

	if executed := e.evaluator.EvaluateTick(ctx, snap, sess); len(executed) > 0 {
		e.logger.Info("plans executed",
			zap.String("instrument", id),
			zap.Strings("plans", executed))
	}
	return nil
}

// writeSnapshots persists every instrument buffer that currently holds data.
func (e *Engine) writeSnapshots() {
	for _, id := range e.cfg.Instruments {
		candles, _, ok := e.fetcher.Cached(id)
		if !ok {
			continue
		}
		if err := e.snapshots.Create(id, candles); err != nil {
			e.logger.Warn("snapshot write failed", zap.String("instrument", id), zap.Error(err))
		}
	}
}
