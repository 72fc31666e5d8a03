// Command synergis runs the market microstructure decision engine. It keeps
// rolling candle buffers fresh per instrument, analyzes them into structured
// signal snapshots and evaluates registered conditional plans against each
// snapshot.
//
// Usage:
//
//	synergis --config config.yaml
//
// Required environment variables:
//
//	For Binance: BINANCE_API_KEY, BINANCE_API_SECRET
//	For Bybit: BYBIT_API_KEY, BYBIT_API_SECRET
//	For Hyperliquid: HYPERLIQUID_PRIVATE_KEY (HYPERLIQUID_BASE_URL optional)
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BenignMalice/SynergisBot-sub021/config"
	"github.com/BenignMalice/SynergisBot-sub021/internal"
	"github.com/BenignMalice/SynergisBot-sub021/internal/clients"
	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
	"github.com/BenignMalice/SynergisBot-sub021/internal/services/asset"
	"github.com/BenignMalice/SynergisBot-sub021/internal/services/evaluator"
	"github.com/BenignMalice/SynergisBot-sub021/internal/services/market/candlecache"
	"github.com/BenignMalice/SynergisBot-sub021/internal/services/market/feed"
	"github.com/BenignMalice/SynergisBot-sub021/internal/services/market/scheduler"
	"github.com/BenignMalice/SynergisBot-sub021/internal/services/microstructure"
	"github.com/BenignMalice/SynergisBot-sub021/internal/services/monitor"
	"github.com/BenignMalice/SynergisBot-sub021/internal/services/outcome"
	"github.com/BenignMalice/SynergisBot-sub021/internal/services/snapshot"
	"github.com/BenignMalice/SynergisBot-sub021/internal/services/threshold"
	"github.com/BenignMalice/SynergisBot-sub021/internal/services/trader"
	"github.com/BenignMalice/SynergisBot-sub021/internal/web"
)

func main() {
	cfg, err := config.Get()
	if err != nil {
		log.Fatal(err)
	}

	logger, err := zap.NewProduction()
	if err != nil {
		log.Fatal(err)
	}
	defer logger.Sync()

	provider, err := buildProvider(cfg.Platform)
	if err != nil {
		logger.Fatal("platform setup failed", zap.Error(err))
	}

	mon := monitor.New(logger)

	fetcher := candlecache.NewFetcher(provider, logger,
		candlecache.WithTTL(cfg.CacheTTL),
		candlecache.WithMaxCandles(cfg.MaxCandles),
		candlecache.WithObserver(mon))

	assets := asset.NewProvider(logger, profileMap(cfg.AssetProfiles), cfg.ThresholdProfiles)

	tiers := make(map[string]scheduler.Tier)
	for symbol, tier := range cfg.Tiers() {
		tiers[symbol] = scheduler.Tier(tier)
	}
	sched := scheduler.New(fetcher, assets, logger, tiers, cfg.RefreshTimeout)

	analyzer := microstructure.NewAnalyzer(logger)
	calibrator := threshold.NewCalibrator(assets)

	outcomes, err := outcome.NewStore(cfg.OutcomeDir)
	if err != nil {
		logger.Fatal("outcome store setup failed", zap.Error(err))
	}
	defer outcomes.Close()
	outcomes.Purge(cfg.OutcomeRetention)
	learner := outcome.NewLearner(outcomes, logger)

	plans := evaluator.NewPlanStore()
	eval := evaluator.New(plans, calibrator,
		trader.NewDryRunTrader(logger, mon), mon, learner, logger)

	var snapOpts []snapshot.Option
	if cfg.CompressSnapshot {
		snapOpts = append(snapOpts, snapshot.WithCompression())
	}
	snapshots, err := snapshot.NewManager(cfg.SnapshotDir, logger, snapOpts...)
	if err != nil {
		logger.Fatal("snapshot setup failed", zap.Error(err))
	}
	if removed, err := snapshots.Cleanup(24 * time.Hour); err == nil && removed > 0 {
		logger.Info("stale snapshots removed", zap.Int("count", removed))
	}

	engine, err := internal.NewEngine(internal.EngineConfig{
		Instruments:      cfg.Symbols(),
		TickInterval:     cfg.TickInterval,
		SnapshotInterval: cfg.SnapshotInterval,
		SnapshotMaxAge:   cfg.SnapshotMaxAge,
		Granularity:      microstructure.Granularity(cfg.Granularity),
	}, fetcher, sched, analyzer, eval, snapshots, assets, mon, logger)
	if err != nil {
		logger.Fatal("engine setup failed", zap.Error(err))
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return engine.Run(ctx)
	})
	g.Go(func() error {
		return web.NewServer(cfg.DiagnosticsAddr, mon, plans, fetcher, logger).Start(ctx)
	})

	if err := g.Wait(); err != nil && ctx.Err() == nil {
		logger.Fatal("engine stopped", zap.Error(err))
	}
	logger.Info("shutdown complete")
}

func buildProvider(platform string) (feed.CandleProvider, error) {
	switch platform {
	case "binance":
		apiKey := os.Getenv("BINANCE_API_KEY")
		apiSecret := os.Getenv("BINANCE_API_SECRET")
		return feed.NewBinanceProvider(feed.NewBinanceClient(apiKey, apiSecret)), nil
	case "bybit":
		apiKey := os.Getenv("BYBIT_API_KEY")
		apiSecret := os.Getenv("BYBIT_API_SECRET")
		return feed.NewBybitProvider(feed.NewBybitClient(apiKey, apiSecret)), nil
	case "hyperliquid":
		key := os.Getenv("HYPERLIQUID_PRIVATE_KEY")
		baseURL := os.Getenv("HYPERLIQUID_BASE_URL")
		if baseURL == "" {
			baseURL = "https://api.hyperliquid.xyz"
		}
		client, err := clients.NewHyperliquidClient(key, baseURL)
		if err != nil {
			return nil, err
		}
		return feed.NewHyperliquidProvider(client.Exchange().Info()), nil
	default:
		return nil, errors.Errorf("unsupported platform: %s", platform)
	}
}

func profileMap(profiles []domain.AssetProfile) map[string]domain.AssetProfile {
	out := make(map[string]domain.AssetProfile, len(profiles))
	for _, p := range profiles {
		out[p.Instrument] = p
	}
	return out
}
