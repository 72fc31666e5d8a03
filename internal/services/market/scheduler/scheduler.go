// Package scheduler drives periodic candle refreshes per instrument at
// configured interval tiers, with asset-class trading-hours exceptions.
package scheduler

import (
	"context"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
)

// Tier refresh-priority class of an instrument.
type Tier string

const (
	TierFast   Tier = "fast"   // high-priority instruments
	TierMedium Tier = "medium" //
	TierSlow   Tier = "slow"   // inactive instruments
)

// DefaultIntervals refresh cadence per tier.
var DefaultIntervals = map[Tier]time.Duration{
	TierFast:   30 * time.Second,
	TierMedium: 60 * time.Second,
	TierSlow:   300 * time.Second,
}

// Fetcher is the candle cache the scheduler drives.
type Fetcher interface {
	Fetch(ctx context.Context, instrument string, force bool) ([]domain.Candle, time.Duration, error)
}

// ProfileSource supplies asset profiles for trading-hours rules.
type ProfileSource interface {
	Profile(instrument string) domain.AssetProfile
}

// Scheduler classifies instruments into refresh tiers and refreshes them.
type Scheduler struct {
	fetcher   Fetcher
	profiles  ProfileSource
	logger    *zap.Logger
	tiers     map[string]Tier // canonical instrument -> tier, from static config
	intervals map[Tier]time.Duration
	timeout   time.Duration

	mu          sync.Mutex
	lastRefresh map[string]time.Time
}

// New builds a scheduler. tiers maps configured instrument ids to their tier;
// instruments absent from it fall back to pattern-based classification.
func New(fetcher Fetcher, profiles ProfileSource, logger *zap.Logger, tiers map[string]Tier, timeout time.Duration) *Scheduler {
	canonical := make(map[string]Tier, len(tiers))
	for id, tier := range tiers {
		canonical[domain.NormalizeInstrument(id)] = tier
	}
	if timeout <= 0 {
		timeout = 15 * time.Second
	}
	return &Scheduler{
		fetcher:     fetcher,
		profiles:    profiles,
		logger:      logger,
		tiers:       canonical,
		intervals:   DefaultIntervals,
		timeout:     timeout,
		lastRefresh: make(map[string]time.Time),
	}
}

// TierFor returns the configured tier for the instrument, falling back to
// pattern matching: majors refresh fast, other crypto medium, the rest slow.
func (s *Scheduler) TierFor(instrument string) Tier {
	id := domain.NormalizeInstrument(instrument)
	if tier, ok := s.tiers[id]; ok {
		return tier
	}

	switch {
	case strings.HasPrefix(id, "BTC") || strings.HasPrefix(id, "ETH"):
		return TierFast
	case domain.ClassifyInstrument(id) == domain.AssetClassCrypto:
		return TierMedium
	default:
		return TierSlow
	}
}

// Interval returns the refresh cadence for the instrument's tier.
func (s *Scheduler) Interval(instrument string) time.Duration {
	return s.intervals[s.TierFor(instrument)]
}

// ShouldRefresh reports whether the instrument is due for a refresh at the
// given time. Instruments that don't trade continuously skip weekends.
func (s *Scheduler) ShouldRefresh(instrument string, now time.Time) bool {
	id := domain.NormalizeInstrument(instrument)

	if !s.profiles.Profile(id).TradesWeekends() && isWeekend(now) {
		return false
	}

	s.mu.Lock()
	last, ok := s.lastRefresh[id]
	s.mu.Unlock()

	return !ok || now.Sub(last) >= s.Interval(id)
}

// Refresh refreshes a single instrument, recording the attempt time.
func (s *Scheduler) Refresh(ctx context.Context, instrument string, force bool) error {
	id := domain.NormalizeInstrument(instrument)

	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	_, _, err := s.fetcher.Fetch(ctx, id, force)

	s.mu.Lock()
	s.lastRefresh[id] = time.Now()
	s.mu.Unlock()

	return err
}

// RefreshBatch refreshes the given instruments concurrently. One instrument's
// failure never blocks the others; the result maps instrument to its error.
func (s *Scheduler) RefreshBatch(ctx context.Context, instruments []string) map[string]error {
	results := make(map[string]error, len(instruments))
	var mu sync.Mutex

	g, ctx := errgroup.WithContext(ctx)
	for _, instrument := range instruments {
		id := domain.NormalizeInstrument(instrument)
		g.Go(func() error {
			err := s.Refresh(ctx, id, false)
			if err != nil {
				s.logger.Warn("batch refresh failed", zap.String("instrument", id), zap.Error(err))
			}
			mu.Lock()
			results[id] = err
			mu.Unlock()
			// errors are collected per instrument, never propagated to the group
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// Due returns the subset of instruments currently due for refresh.
func (s *Scheduler) Due(instruments []string, now time.Time) []string {
	var due []string
	for _, instrument := range instruments {
		if s.ShouldRefresh(instrument, now) {
			due = append(due, instrument)
		}
	}
	return due
}

// LastRefresh returns when the instrument was last refreshed.
func (s *Scheduler) LastRefresh(instrument string) (time.Time, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.lastRefresh[domain.NormalizeInstrument(instrument)]
	return t, ok
}

func isWeekend(t time.Time) bool {
	switch t.UTC().Weekday() {
	case time.Saturday, time.Sunday:
		return true
	default:
		return false
	}
}
