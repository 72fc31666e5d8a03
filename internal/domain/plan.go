package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// PlanStatus lifecycle state of a conditional plan. Transitions are strictly
// forward: pending -> triggered -> executed, pending -> cancelled, pending -> expired.
type PlanStatus string

const (
	PlanPending   PlanStatus = "pending"
	PlanTriggered PlanStatus = "triggered"
	PlanExecuted  PlanStatus = "executed"
	PlanCancelled PlanStatus = "cancelled"
	PlanExpired   PlanStatus = "expired"
)

// CanTransition reports whether a forward transition to the target status is legal.
func (s PlanStatus) CanTransition(to PlanStatus) bool {
	switch s {
	case PlanPending:
		return to == PlanTriggered || to == PlanExecuted || to == PlanCancelled || to == PlanExpired
	case PlanTriggered:
		return to == PlanExecuted
	default:
		return false
	}
}

// PlanDirection intended trade direction.
type PlanDirection string

const (
	DirectionLong  PlanDirection = "long"
	DirectionShort PlanDirection = "short"
)

// PlanConditions the required-condition set a snapshot must satisfy before the
// plan fires. Zero values mean "not required".
type PlanConditions struct {
	Event         StructureEventType `json:"event,omitempty"`
	Direction     TrendDirection     `json:"direction,omitempty"`
	LiquidityZone LiquidityZoneKind  `json:"liquidity_zone,omitempty"`
	Volatility    VolatilityState    `json:"volatility,omitempty"`
	MinConfluence float64            `json:"min_confluence"`
}

// ConditionalPlan a registered future trade intention created by the external
// planning collaborator.
type ConditionalPlan struct {
	ID         string          `json:"id"`
	Instrument string          `json:"instrument"`
	Direction  PlanDirection   `json:"direction"`
	Entry      decimal.Decimal `json:"entry"`
	Stop       decimal.Decimal `json:"stop"`
	Target     decimal.Decimal `json:"target"`
	Size       decimal.Decimal `json:"size"`
	Conditions PlanConditions  `json:"conditions"`
	GroupID    string          `json:"group_id,omitempty"` // bracket pairing: executing one side cancels the other
	Status     PlanStatus      `json:"status"`
	CreatedAt  time.Time       `json:"created_at"`
	ExpiresAt  time.Time       `json:"expires_at"`
}

// Expired reports whether the plan's expiry has passed.
func (p ConditionalPlan) Expired(now time.Time) bool {
	return !p.ExpiresAt.IsZero() && now.After(p.ExpiresAt)
}

// OrderRequest what the engine hands to the external execution collaborator
// once a plan's full condition set is satisfied.
type OrderRequest struct {
	PlanID     string          `json:"plan_id"`
	Instrument string          `json:"instrument"`
	Direction  PlanDirection   `json:"direction"`
	Entry      decimal.Decimal `json:"entry"`
	Stop       decimal.Decimal `json:"stop"`
	Target     decimal.Decimal `json:"target"`
	Size       decimal.Decimal `json:"size"`
}
