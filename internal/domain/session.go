package domain

// TradingSession named intraday trading session.
type TradingSession string

const (
	SessionAsian   TradingSession = "asian"
	SessionLondon  TradingSession = "london"
	SessionOverlap TradingSession = "overlap"
	SessionNewYork TradingSession = "new_york"
	SessionPostNY  TradingSession = "post_ny"
)

// SessionProfile session personality derived purely from wall-clock time.
type SessionProfile struct {
	Session             TradingSession `json:"session"`
	Bias                float64        `json:"bias"` // confidence bias factor applied by the calibrator
	VolatilityTier      string         `json:"volatility_tier"`
	LiquidityTiming     string         `json:"liquidity_timing"`
	PreferredStrategies []StrategyHint `json:"preferred_strategies"`
}
