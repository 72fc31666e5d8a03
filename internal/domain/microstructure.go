package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// TrendDirection qualitative direction of price action.
type TrendDirection string

const (
	TrendDirectionBullish TrendDirection = "bullish"
	TrendDirectionBearish TrendDirection = "bearish"
	TrendDirectionNeutral TrendDirection = "neutral"
)

// StructureType classification of recent swing-point sequencing.
type StructureType string

const (
	StructureBullish StructureType = "higher_high" // higher highs and higher lows
	StructureBearish StructureType = "lower_low"   // lower highs and lower lows
	StructureRanging StructureType = "equal"       // equal highs/lows within tolerance
	StructureChoppy  StructureType = "choppy"      // no consistent sequencing
)

// Direction maps a structure type to a trend direction.
func (s StructureType) Direction() TrendDirection {
	switch s {
	case StructureBullish:
		return TrendDirectionBullish
	case StructureBearish:
		return TrendDirectionBearish
	default:
		return TrendDirectionNeutral
	}
}

// StructureState swing structure plus consecutive-streak count.
type StructureState struct {
	Type          StructureType   `json:"type"`
	Streak        int             `json:"streak"`
	LastSwingHigh decimal.Decimal `json:"last_swing_high"`
	LastSwingLow  decimal.Decimal `json:"last_swing_low"`
}

// StructureEventType reversal or continuation.
type StructureEventType string

const (
	EventReversal     StructureEventType = "reversal"
	EventContinuation StructureEventType = "continuation"
)

// StructureEvent a confirmed change-of-character or continuation signal.
type StructureEvent struct {
	Type          StructureEventType `json:"type"`
	Direction     TrendDirection     `json:"direction"`
	Confidence    float64            `json:"confidence"`
	BreakLevel    decimal.Decimal    `json:"break_level"`
	Confirmations int                `json:"confirmations"`
	CandleIndex   int                `json:"candle_index"`
}

// LiquidityZoneKind category of a liquidity zone.
type LiquidityZoneKind string

const (
	ZonePriorHigh  LiquidityZoneKind = "prior_high"
	ZonePriorLow   LiquidityZoneKind = "prior_low"
	ZoneEqualHighs LiquidityZoneKind = "equal_highs"
	ZoneEqualLows  LiquidityZoneKind = "equal_lows"
)

// LiquidityZone a price level where clustered prior highs/lows suggest resting orders.
type LiquidityZone struct {
	Kind    LiquidityZoneKind `json:"kind"`
	Price   decimal.Decimal   `json:"price"`
	Touches int               `json:"touches"`
}

// VolatilityState classification of recent range behaviour against its own history.
type VolatilityState string

const (
	VolatilityContracting VolatilityState = "contracting"
	VolatilityExpanding   VolatilityState = "expanding"
	VolatilityStable      VolatilityState = "stable"
)

// VolatilityRegime coarse regime used by crypto-class confluence scoring.
type VolatilityRegime string

const (
	RegimeStable       VolatilityRegime = "stable"
	RegimeTransitional VolatilityRegime = "transitional"
	RegimeVolatile     VolatilityRegime = "volatile"
)

// VolatilityInfo volatility state with the underlying ratio and squeeze duration.
type VolatilityInfo struct {
	State       VolatilityState  `json:"state"`
	Regime      VolatilityRegime `json:"regime"`
	ATRRatio    float64          `json:"atr_ratio"` // short-window ATR over long-window ATR
	SqueezeBars int              `json:"squeeze_bars"`
}

// RejectionWick a candle whose wick dominates its body at a meaningful range.
type RejectionWick struct {
	CandleIndex int             `json:"candle_index"`
	Direction   TrendDirection  `json:"direction"` // bullish = lower-wick rejection
	WickRatio   float64         `json:"wick_ratio"`
	Extreme     decimal.Decimal `json:"extreme"`
}

// OrderBlock price range around the last directional candle preceding an
// opposing displacement, with a strength score that decays as candles pass.
type OrderBlock struct {
	Direction   TrendDirection  `json:"direction"`
	High        decimal.Decimal `json:"high"`
	Low         decimal.Decimal `json:"low"`
	Strength    float64         `json:"strength"`
	CandleIndex int             `json:"candle_index"`
}

// MomentumQuality bucketed quality of recent directional follow-through.
type MomentumQuality string

const (
	MomentumExcellent MomentumQuality = "excellent"
	MomentumGood      MomentumQuality = "good"
	MomentumFair      MomentumQuality = "fair"
	MomentumChoppy    MomentumQuality = "choppy"
)

// MomentumInfo momentum quality with its inputs.
type MomentumInfo struct {
	Quality     MomentumQuality `json:"quality"`
	Consistency float64         `json:"consistency"` // share of same-direction closes, 0..1
	RSI         float64         `json:"rsi"`
	Direction   TrendDirection  `json:"direction"`
}

// TrendAlignment agreement of the 1-minute structure with medium and longer
// granularity structure computed from aggregated candles.
type TrendAlignment struct {
	Aligned    bool          `json:"aligned"`
	Strength   float64       `json:"strength"` // 0..1
	Confidence float64       `json:"confidence"`
	Medium     StructureType `json:"medium"`
	Long       StructureType `json:"long"`
}

// StrategyHint suggested strategy family for current conditions.
type StrategyHint string

const (
	HintRange        StrategyHint = "range"
	HintBreakout     StrategyHint = "breakout"
	HintContinuation StrategyHint = "continuation"
	HintReversal     StrategyHint = "reversal"
	HintNone         StrategyHint = "none"
)

// MicrostructureSnapshot immutable analysis result for one candle set.
// Keyed by (instrument, newest-candle timestamp, candle count); never served
// for a candle set other than the one it was computed from.
type MicrostructureSnapshot struct {
	Instrument  string          `json:"instrument"`
	Newest      time.Time       `json:"newest"`
	CandleCount int             `json:"candle_count"`
	LastClose   decimal.Decimal `json:"last_close"`

	Structure   StructureState     `json:"structure"`
	Events      []StructureEvent   `json:"events"`
	Liquidity   []LiquidityZone    `json:"liquidity"`
	Volatility  VolatilityInfo     `json:"volatility"`
	Wicks       []RejectionWick    `json:"wicks"`
	OrderBlocks []OrderBlock       `json:"order_blocks"`
	Momentum    MomentumInfo       `json:"momentum"`
	Alignment   TrendAlignment     `json:"alignment"`
	Confluence  float64            `json:"confluence"` // 0..100
	Components  map[string]float64 `json:"components"`
	Hint        StrategyHint       `json:"hint"`

	GeneratedAt time.Time `json:"generated_at"`

	// Insufficient marks a partial snapshot produced from too little history.
	// Unavailable names the sub-signals that could not be computed.
	Insufficient bool     `json:"insufficient"`
	Unavailable  []string `json:"unavailable,omitempty"`
}

// Age returns how old the snapshot is relative to now.
func (s *MicrostructureSnapshot) Age(now time.Time) time.Duration {
	return now.Sub(s.GeneratedAt)
}

// Event returns the highest-confidence event of the given type, if any.
func (s *MicrostructureSnapshot) Event(kind StructureEventType) (StructureEvent, bool) {
	var best StructureEvent
	found := false
	for _, e := range s.Events {
		if e.Type != kind {
			continue
		}
		if !found || e.Confidence > best.Confidence {
			best = e
			found = true
		}
	}
	return best, found
}

// ZoneNear reports whether a liquidity zone of the given kind lies within
// tolerance (fraction of price) of the given price.
func (s *MicrostructureSnapshot) ZoneNear(kind LiquidityZoneKind, price decimal.Decimal, tolerance float64) bool {
	if price.IsZero() {
		return false
	}
	tol := price.Mul(decimal.NewFromFloat(tolerance))
	for _, z := range s.Liquidity {
		if z.Kind == kind && z.Price.Sub(price).Abs().LessThanOrEqual(tol) {
			return true
		}
	}
	return false
}
