// Package config loads runtime settings from a yaml file with CLI flag
// overrides and substitutes defaults for anything omitted.
package config

import (
	"flag"
	"os"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
)

// Instrument one tracked instrument with its optional refresh tier.
type Instrument struct {
	Symbol string `yaml:"symbol"`
	Tier   string `yaml:"tier,omitempty"` // fast, medium or slow; empty means auto
}

// Config full runtime configuration.
type Config struct {
	Platform    string       `yaml:"platform"` // binance, bybit or hyperliquid
	Instruments []Instrument `yaml:"instruments"`

	TickInterval   time.Duration `yaml:"tick_interval"`
	CacheTTL       time.Duration `yaml:"cache_ttl"`
	MaxCandles     int           `yaml:"max_candles"`
	RefreshTimeout time.Duration `yaml:"refresh_timeout"`

	SnapshotDir      string        `yaml:"snapshot_dir"`
	SnapshotInterval time.Duration `yaml:"snapshot_interval"`
	SnapshotMaxAge   time.Duration `yaml:"snapshot_max_age"`
	CompressSnapshot bool          `yaml:"compress_snapshots"`

	OutcomeDir       string        `yaml:"outcome_dir"`
	OutcomeRetention time.Duration `yaml:"outcome_retention"`

	DiagnosticsAddr string `yaml:"diagnostics_addr"`
	Granularity     string `yaml:"granularity"` // fine or coarse

	// optional overrides of the built-in instrument personalities
	AssetProfiles     []domain.AssetProfile              `yaml:"asset_profiles,omitempty"`
	ThresholdProfiles map[string]domain.ThresholdProfile `yaml:"threshold_profiles,omitempty"`
}

// Get parses flags and loads the yaml config, applying defaults.
func Get() (Config, error) {
	path := flag.String("config", "config.yaml", "path to yaml config")
	platform := flag.String("platform", "", "override platform from config")
	diagAddr := flag.String("diagnostics", "", "override diagnostics listen address")
	flag.Parse()

	cfg, err := Load(*path)
	if err != nil {
		return Config{}, err
	}
	if *platform != "" {
		cfg.Platform = *platform
	}
	if *diagAddr != "" {
		cfg.DiagnosticsAddr = *diagAddr
	}
	return cfg, nil
}

// Load reads and validates one yaml config file.
func Load(path string) (Config, error) {
	f, err := os.ReadFile(path)
	if err != nil {
		return Config{}, errors.Wrapf(err, "read config %s", path)
	}

	var cfg Config
	if err := yaml.Unmarshal(f, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "parse yaml config")
	}

	applyDefaults(&cfg)

	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Platform == "" {
		cfg.Platform = "binance"
	}
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = 15 * time.Second
	}
	if cfg.CacheTTL <= 0 {
		cfg.CacheTTL = 5 * time.Minute
	}
	if cfg.MaxCandles <= 0 {
		cfg.MaxCandles = 200
	}
	if cfg.RefreshTimeout <= 0 {
		cfg.RefreshTimeout = 15 * time.Second
	}
	if cfg.SnapshotDir == "" {
		cfg.SnapshotDir = "./snapshots"
	}
	if cfg.SnapshotInterval <= 0 {
		cfg.SnapshotInterval = 5 * time.Minute
	}
	if cfg.SnapshotMaxAge <= 0 {
		cfg.SnapshotMaxAge = time.Hour
	}
	if cfg.OutcomeDir == "" {
		cfg.OutcomeDir = "./wal/outcomes"
	}
	if cfg.OutcomeRetention <= 0 {
		cfg.OutcomeRetention = 30 * 24 * time.Hour
	}
	if cfg.DiagnosticsAddr == "" {
		cfg.DiagnosticsAddr = ":8080"
	}
	if cfg.Granularity == "" {
		cfg.Granularity = "fine"
	}
}

func (c Config) validate() error {
	switch c.Platform {
	case "binance", "bybit", "hyperliquid":
	default:
		return errors.Errorf("unsupported platform %q", c.Platform)
	}
	if len(c.Instruments) == 0 {
		return errors.New("config needs at least one instrument")
	}
	for _, inst := range c.Instruments {
		if inst.Symbol == "" {
			return errors.New("instrument with empty symbol in config")
		}
		switch inst.Tier {
		case "", "fast", "medium", "slow":
		default:
			return errors.Errorf("instrument %s has unknown tier %q", inst.Symbol, inst.Tier)
		}
	}
	switch c.Granularity {
	case "fine", "coarse":
	default:
		return errors.Errorf("unknown granularity %q", c.Granularity)
	}
	return nil
}

// Symbols returns the configured instrument symbols.
func (c Config) Symbols() []string {
	out := make([]string, 0, len(c.Instruments))
	for _, inst := range c.Instruments {
		out = append(out, inst.Symbol)
	}
	return out
}

// Tiers returns the explicit tier assignments keyed by symbol.
func (c Config) Tiers() map[string]string {
	out := make(map[string]string)
	for _, inst := range c.Instruments {
		if inst.Tier != "" {
			out[inst.Symbol] = inst.Tier
		}
	}
	return out
}
