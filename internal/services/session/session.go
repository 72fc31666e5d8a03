// Package session resolves wall-clock time into trading session profiles.
// Resolution is a pure function of the supplied timestamp so tests can inject
// any moment directly.
package session

import (
	"time"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
)

// Profile maps a UTC timestamp to the active trading session and its bias
// factors. Asian and post-NY sessions are stricter (bias 0.9), the
// London/NY overlap is more aggressive (1.1), London and NY are neutral.
func Profile(t time.Time) domain.SessionProfile {
	switch hour := t.UTC().Hour(); {
	case hour < 7:
		return domain.SessionProfile{
			Session:             domain.SessionAsian,
			Bias:                0.9,
			VolatilityTier:      "low",
			LiquidityTiming:     "thin",
			PreferredStrategies: []domain.StrategyHint{domain.HintRange},
		}
	case hour < 12:
		return domain.SessionProfile{
			Session:             domain.SessionLondon,
			Bias:                1.0,
			VolatilityTier:      "medium",
			LiquidityTiming:     "building",
			PreferredStrategies: []domain.StrategyHint{domain.HintBreakout, domain.HintContinuation},
		}
	case hour < 16:
		return domain.SessionProfile{
			Session:             domain.SessionOverlap,
			Bias:                1.1,
			VolatilityTier:      "high",
			LiquidityTiming:     "peak",
			PreferredStrategies: []domain.StrategyHint{domain.HintContinuation, domain.HintBreakout},
		}
	case hour < 21:
		return domain.SessionProfile{
			Session:             domain.SessionNewYork,
			Bias:                1.0,
			VolatilityTier:      "medium",
			LiquidityTiming:     "fading",
			PreferredStrategies: []domain.StrategyHint{domain.HintContinuation, domain.HintReversal},
		}
	default:
		return domain.SessionProfile{
			Session:             domain.SessionPostNY,
			Bias:                0.9,
			VolatilityTier:      "low",
			LiquidityTiming:     "thin",
			PreferredStrategies: []domain.StrategyHint{domain.HintRange},
		}
	}
}
