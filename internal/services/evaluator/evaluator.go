package evaluator

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
	"github.com/BenignMalice/SynergisBot-sub021/internal/services/threshold"
)

const (
	// confidenceWindow how many recent confluence scores feed the rolling average.
	confidenceWindow = 10

	// sigmoid shape for scaled confidence: a 50 average maps to 50, the curve
	// saturates toward 0/100 instead of tracking raw averages linearly.
	sigmoidMidpoint = 50.0
	sigmoidSlope    = 12.0

	zoneProximity = 0.003
)

// Executor places an order once a plan's full condition set is satisfied.
type Executor interface {
	Execute(ctx context.Context, req domain.OrderRequest) error
}

// Observer receives evaluation notifications. Satisfied by the monitor.
type Observer interface {
	RecordPlanTriggered(instrument, planID string)
}

// ThresholdAdvisor refines the calibrated threshold from learned outcomes.
// Advisors return an error while their sample base is too small; the
// calibrated value is used as-is in that case.
type ThresholdAdvisor interface {
	OptimalThreshold(instrument string, session domain.TradingSession, base float64) (float64, error)
}

// Evaluator checks active plans against snapshots once per tick.
type Evaluator struct {
	plans      *PlanStore
	calibrator *threshold.Calibrator
	executor   Executor
	observer   Observer
	advisor    ThresholdAdvisor
	logger     *zap.Logger

	mu      sync.Mutex
	history map[string][]float64 // rolling confluence per instrument
}

// New creates an evaluator. The observer and advisor may be nil.
func New(plans *PlanStore, calibrator *threshold.Calibrator, executor Executor, observer Observer, advisor ThresholdAdvisor, logger *zap.Logger) *Evaluator {
	return &Evaluator{
		plans:      plans,
		calibrator: calibrator,
		executor:   executor,
		observer:   observer,
		advisor:    advisor,
		logger:     logger,
		history:    make(map[string][]float64),
	}
}

// EvaluateTick processes every active plan for the snapshot's instrument.
// An insufficient snapshot leaves plans pending; expired plans are retired.
// Returns the ids of plans executed this tick.
func (e *Evaluator) EvaluateTick(ctx context.Context, snap *domain.MicrostructureSnapshot, sess domain.SessionProfile) []string {
	now := time.Now()

	if snap.Insufficient {
		e.logger.Debug("snapshot insufficient, plans stay pending",
			zap.String("instrument", snap.Instrument),
			zap.Strings("unavailable", snap.Unavailable))
		e.expireDue(snap.Instrument, now)
		return nil
	}

	scaled := e.scaledConfidence(snap.Instrument, snap.Confluence)
	bar := e.calibrator.Threshold(snap.Instrument, sess, snap.Volatility.ATRRatio)
	if e.advisor != nil {
		if learned, err := e.advisor.OptimalThreshold(snap.Instrument, sess.Session, bar); err == nil {
			bar = learned
		} else if !errors.Is(err, domain.ErrInsufficientSamples) {
			e.logger.Warn("threshold advisor failed", zap.String("instrument", snap.Instrument), zap.Error(err))
		}
	}

	var executed []string
	for _, plan := range e.plans.Active(snap.Instrument) {
		if plan.Expired(now) {
			if _, err := e.plans.Transition(plan.ID, domain.PlanExpired); err == nil {
				e.logger.Info("plan expired", zap.String("plan", plan.ID))
			}
			continue
		}

		if err := checkConditions(plan, snap, scaled, bar); err != nil {
			e.logger.Debug("plan conditions unmet",
				zap.String("plan", plan.ID),
				zap.Float64("scaled_confidence", scaled),
				zap.Float64("threshold", bar),
				zap.Error(err))
			continue
		}

		if plan.Status == domain.PlanPending {
			var err error
			plan, err = e.plans.Transition(plan.ID, domain.PlanTriggered)
			if err != nil {
				e.logger.Warn("plan trigger transition rejected", zap.String("plan", plan.ID), zap.Error(err))
				continue
			}
			if e.observer != nil {
				e.observer.RecordPlanTriggered(plan.Instrument, plan.ID)
			}
		}

		if err := e.executor.Execute(ctx, orderFor(plan)); err != nil {
			// plan stays triggered, retried next tick
			e.logger.Error("order execution failed", zap.String("plan", plan.ID), zap.Error(err))
			continue
		}
		if _, err := e.plans.Transition(plan.ID, domain.PlanExecuted); err != nil {
			e.logger.Warn("plan execute transition rejected", zap.String("plan", plan.ID), zap.Error(err))
			continue
		}
		executed = append(executed, plan.ID)

		if cancelled := e.plans.CancelSiblings(plan.GroupID, plan.ID); len(cancelled) > 0 {
			e.logger.Info("bracket siblings cancelled",
				zap.String("executed", plan.ID),
				zap.Strings("cancelled", cancelled))
		}
	}
	return executed
}

func (e *Evaluator) expireDue(instrument string, now time.Time) {
	for _, plan := range e.plans.Active(instrument) {
		if plan.Expired(now) {
			e.plans.Transition(plan.ID, domain.PlanExpired)
		}
	}
}

// scaledConfidence appends the latest confluence to the instrument's rolling
// window and maps the window average through a bounded sigmoid.
func (e *Evaluator) scaledConfidence(instrument string, confluence float64) float64 {
	e.mu.Lock()
	window := append(e.history[instrument], confluence)
	if len(window) > confidenceWindow {
		window = window[len(window)-confidenceWindow:]
	}
	e.history[instrument] = window
	e.mu.Unlock()

	sum := 0.0
	for _, v := range window {
		sum += v
	}
	avg := sum / float64(len(window))

	return 100 / (1 + math.Exp(-(avg-sigmoidMidpoint)/sigmoidSlope))
}

// checkConditions verifies the full required-condition set. All listed
// conditions must hold simultaneously on this snapshot.
func checkConditions(plan domain.ConditionalPlan, snap *domain.MicrostructureSnapshot, scaled, bar float64) error {
	c := plan.Conditions

	if c.Event != "" {
		event, ok := snap.Event(c.Event)
		if !ok {
			return errors.Wrapf(domain.ErrConditionUnmet, "no %s event", c.Event)
		}
		if c.Direction != "" && event.Direction != c.Direction {
			return errors.Wrapf(domain.ErrConditionUnmet, "%s event is %s, want %s", c.Event, event.Direction, c.Direction)
		}
	} else if c.Direction != "" && snap.Structure.Type.Direction() != c.Direction {
		return errors.Wrapf(domain.ErrConditionUnmet, "structure is %s, want %s", snap.Structure.Type.Direction(), c.Direction)
	}

	if c.LiquidityZone != "" && !snap.ZoneNear(c.LiquidityZone, snap.LastClose, zoneProximity) {
		return errors.Wrapf(domain.ErrConditionUnmet, "no %s zone near price", c.LiquidityZone)
	}

	if c.Volatility != "" && snap.Volatility.State != c.Volatility {
		return errors.Wrapf(domain.ErrConditionUnmet, "volatility is %s, want %s", snap.Volatility.State, c.Volatility)
	}

	if scaled < c.MinConfluence {
		return errors.Wrapf(domain.ErrConditionUnmet, "confidence %.1f below plan minimum %.1f", scaled, c.MinConfluence)
	}
	if scaled < bar {
		return errors.Wrapf(domain.ErrConditionUnmet, "confidence %.1f below calibrated threshold %.1f", scaled, bar)
	}

	return nil
}

func orderFor(plan domain.ConditionalPlan) domain.OrderRequest {
	return domain.OrderRequest{
		PlanID:     plan.ID,
		Instrument: plan.Instrument,
		Direction:  plan.Direction,
		Entry:      plan.Entry,
		Stop:       plan.Stop,
		Target:     plan.Target,
		Size:       plan.Size,
	}
}
