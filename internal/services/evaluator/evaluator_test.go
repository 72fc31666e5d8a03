package evaluator

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
	"github.com/BenignMalice/SynergisBot-sub021/internal/services/threshold"
)

type flatProfiles struct{}

// zero weights pin the calibrated threshold to the base for any session/volatility
func (flatProfiles) ThresholdProfile(string) domain.ThresholdProfile {
	return domain.ThresholdProfile{BaseConfidence: 70, VolatilityWeight: 0, SessionWeight: 0}
}

type captureExecutor struct {
	requests []domain.OrderRequest
	err      error
}

func (c *captureExecutor) Execute(_ context.Context, req domain.OrderRequest) error {
	if c.err != nil {
		return c.err
	}
	c.requests = append(c.requests, req)
	return nil
}

func newTestEvaluator(executor Executor) (*Evaluator, *PlanStore) {
	plans := NewPlanStore()
	e := New(plans, threshold.NewCalibrator(flatProfiles{}), executor, nil, nil, zap.NewNop())
	return e, plans
}

func testSnapshot(confluence float64) *domain.MicrostructureSnapshot {
	return &domain.MicrostructureSnapshot{
		Instrument:  "BTCUSDT",
		CandleCount: 60,
		LastClose:   decimal.NewFromInt(50000),
		Confluence:  confluence,
		Structure:   domain.StructureState{Type: domain.StructureBullish, Streak: 3},
		Volatility:  domain.VolatilityInfo{State: domain.VolatilityExpanding, Regime: domain.RegimeVolatile, ATRRatio: 1.3},
		Momentum:    domain.MomentumInfo{Quality: domain.MomentumGood, Direction: domain.TrendDirectionBullish},
		GeneratedAt: time.Now(),
	}
}

func testPlan(id string) domain.ConditionalPlan {
	return domain.ConditionalPlan{
		ID:         id,
		Instrument: "BTCUSDT",
		Direction:  domain.DirectionLong,
		Entry:      decimal.NewFromInt(50000),
		Stop:       decimal.NewFromInt(49500),
		Target:     decimal.NewFromInt(51000),
		Size:       decimal.NewFromFloat(0.1),
		Conditions: domain.PlanConditions{
			Direction:     domain.TrendDirectionBullish,
			MinConfluence: 60,
		},
	}
}

var overlap = domain.SessionProfile{Session: domain.SessionOverlap, Bias: 1.1}

func TestEvaluateTick_ExecutesSatisfiedPlan(t *testing.T) {
	executor := &captureExecutor{}
	e, plans := newTestEvaluator(executor)

	plan, err := plans.Add(testPlan("p1"))
	require.NoError(t, err)

	executed := e.EvaluateTick(context.Background(), testSnapshot(90), overlap)
	require.Equal(t, []string{plan.ID}, executed)
	require.Len(t, executor.requests, 1)
	require.Equal(t, plan.ID, executor.requests[0].PlanID)

	got, ok := plans.Get(plan.ID)
	require.True(t, ok)
	require.Equal(t, domain.PlanExecuted, got.Status)
}

func TestEvaluateTick_LowConfidenceLeavesPlanPending(t *testing.T) {
	executor := &captureExecutor{}
	e, plans := newTestEvaluator(executor)

	plan, err := plans.Add(testPlan("p1"))
	require.NoError(t, err)

	executed := e.EvaluateTick(context.Background(), testSnapshot(30), overlap)
	require.Empty(t, executed)
	require.Empty(t, executor.requests)

	got, _ := plans.Get(plan.ID)
	require.Equal(t, domain.PlanPending, got.Status)
}

func TestEvaluateTick_InsufficientSnapshotLeavesPlansPending(t *testing.T) {
	executor := &captureExecutor{}
	e, plans := newTestEvaluator(executor)

	plan, err := plans.Add(testPlan("p1"))
	require.NoError(t, err)

	snap := testSnapshot(95)
	snap.Insufficient = true
	executed := e.EvaluateTick(context.Background(), snap, overlap)
	require.Empty(t, executed)

	got, _ := plans.Get(plan.ID)
	require.Equal(t, domain.PlanPending, got.Status)
}

func TestEvaluateTick_ExpiresDuePlans(t *testing.T) {
	executor := &captureExecutor{}
	e, plans := newTestEvaluator(executor)

	plan := testPlan("p1")
	plan.ExpiresAt = time.Now().Add(-time.Minute)
	added, err := plans.Add(plan)
	require.NoError(t, err)

	executed := e.EvaluateTick(context.Background(), testSnapshot(90), overlap)
	require.Empty(t, executed)

	got, _ := plans.Get(added.ID)
	require.Equal(t, domain.PlanExpired, got.Status)
}

func TestEvaluateTick_BracketSiblingCancelledOnExecution(t *testing.T) {
	executor := &captureExecutor{}
	e, plans := newTestEvaluator(executor)

	long := testPlan("long")
	long.GroupID = "bracket-1"
	_, err := plans.Add(long)
	require.NoError(t, err)

	short := testPlan("short")
	short.GroupID = "bracket-1"
	short.Direction = domain.DirectionShort
	short.Conditions.Direction = domain.TrendDirectionBearish
	_, err = plans.Add(short)
	require.NoError(t, err)

	// snapshot is bullish, only the long side's conditions hold
	executed := e.EvaluateTick(context.Background(), testSnapshot(90), overlap)
	require.Equal(t, []string{"long"}, executed)

	gotLong, _ := plans.Get("long")
	require.Equal(t, domain.PlanExecuted, gotLong.Status)
	gotShort, _ := plans.Get("short")
	require.Equal(t, domain.PlanCancelled, gotShort.Status)
}

func TestEvaluateTick_FailedExecutionKeepsPlanTriggered(t *testing.T) {
	executor := &captureExecutor{err: errors.New("venue rejected")}
	e, plans := newTestEvaluator(executor)

	plan, err := plans.Add(testPlan("p1"))
	require.NoError(t, err)

	executed := e.EvaluateTick(context.Background(), testSnapshot(90), overlap)
	require.Empty(t, executed)

	got, _ := plans.Get(plan.ID)
	require.Equal(t, domain.PlanTriggered, got.Status)

	// once the venue recovers the next tick completes the plan
	executor.err = nil
	executed = e.EvaluateTick(context.Background(), testSnapshot(90), overlap)
	require.Equal(t, []string{plan.ID}, executed)
}

func TestPlanStore_RejectsBackwardTransitions(t *testing.T) {
	plans := NewPlanStore()
	plan, err := plans.Add(testPlan("p1"))
	require.NoError(t, err)

	_, err = plans.Transition(plan.ID, domain.PlanExecuted)
	require.NoError(t, err)

	_, err = plans.Transition(plan.ID, domain.PlanPending)
	require.Error(t, err)
	_, err = plans.Transition(plan.ID, domain.PlanCancelled)
	require.Error(t, err)
}

func TestCheckConditions_AllConditionsMustHold(t *testing.T) {
	snap := testSnapshot(90)
	snap.Events = []domain.StructureEvent{{
		Type:       domain.EventReversal,
		Direction:  domain.TrendDirectionBearish,
		Confidence: 80,
	}}

	plan := testPlan("p1")
	plan.Conditions = domain.PlanConditions{
		Event:      domain.EventReversal,
		Direction:  domain.TrendDirectionBearish,
		Volatility: domain.VolatilityExpanding,
	}
	require.NoError(t, checkConditions(plan, snap, 90, 70))

	plan.Conditions.Volatility = domain.VolatilityContracting
	err := checkConditions(plan, snap, 90, 70)
	require.ErrorIs(t, err, domain.ErrConditionUnmet)

	plan.Conditions.Volatility = domain.VolatilityExpanding
	plan.Conditions.Event = domain.EventContinuation
	err = checkConditions(plan, snap, 90, 70)
	require.ErrorIs(t, err, domain.ErrConditionUnmet)
}
