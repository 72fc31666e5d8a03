package domain

// AssetProfile static volatility personality of one instrument.
type AssetProfile struct {
	Instrument      string           `yaml:"instrument" json:"instrument"`
	Class           AssetClass       `yaml:"class" json:"class"`
	BaseConfidence  float64          `yaml:"base_confidence" json:"base_confidence"`
	ATRMultMin      float64          `yaml:"atr_mult_min" json:"atr_mult_min"`
	ATRMultMax      float64          `yaml:"atr_mult_max" json:"atr_mult_max"`
	VWAPTolerance   float64          `yaml:"vwap_tolerance" json:"vwap_tolerance"` // max stretch from mean, fraction of price
	ConfluenceMin   float64          `yaml:"confluence_min" json:"confluence_min"`
	CoreSessions    []TradingSession `yaml:"core_sessions" json:"core_sessions"`
	DefaultStrategy StrategyHint     `yaml:"default_strategy" json:"default_strategy"`
	Traits          []string         `yaml:"traits" json:"traits"`
}

// TradesWeekends reports whether the instrument trades through weekends.
func (p AssetProfile) TradesWeekends() bool {
	return p.Class.TradesContinuously()
}

// IsCoreSession reports whether the session is one of the instrument's core sessions.
func (p AssetProfile) IsCoreSession(session TradingSession) bool {
	for _, s := range p.CoreSessions {
		if s == session {
			return true
		}
	}
	return false
}

// ThresholdProfile per-instrument inputs to threshold calibration.
type ThresholdProfile struct {
	BaseConfidence   float64 `yaml:"base_confidence" json:"base_confidence"`
	VolatilityWeight float64 `yaml:"volatility_weight" json:"volatility_weight"`
	SessionWeight    float64 `yaml:"session_weight" json:"session_weight"`
}
