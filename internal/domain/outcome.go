package domain

import "time"

// OutcomeResult realized result of an executed signal.
type OutcomeResult string

const (
	OutcomeWin       OutcomeResult = "win"
	OutcomeLoss      OutcomeResult = "loss"
	OutcomeBreakeven OutcomeResult = "breakeven"
)

// SignalOutcomeRecord append-only record of one decision and its realized
// outcome with the context it was detected in. Never mutated, only aggregated.
type SignalOutcomeRecord struct {
	EventID      string          `json:"event_id"`
	Instrument   string          `json:"instrument"`
	Session      TradingSession  `json:"session"`
	Confluence   float64         `json:"confluence"` // at detection time
	Volatility   VolatilityState `json:"volatility"`
	Hint         StrategyHint    `json:"hint"`
	Result       OutcomeResult   `json:"result"`
	RiskMultiple float64         `json:"risk_multiple"`
	DetectedAt   time.Time       `json:"detected_at"`
	ExecutedAt   time.Time       `json:"executed_at"`
}
