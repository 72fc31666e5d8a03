package microstructure

import (
	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
)

// Granularity controls the confluence weighting profile. Fine-grained
// analysis trusts raw signal confidence and momentum more; coarse-grained
// analysis leans on trend alignment and support/resistance.
type Granularity string

const (
	GranularityFine   Granularity = "fine"
	GranularityCoarse Granularity = "coarse"
)

const (
	componentStructure  = "structure"
	componentSignal     = "signal"
	componentMomentum   = "momentum"
	componentAlignment  = "alignment"
	componentLiquidity  = "liquidity"
	componentVolatility = "volatility"
)

func weightsFor(gran Granularity) map[string]float64 {
	if gran == GranularityCoarse {
		return map[string]float64{
			componentStructure:  0.15,
			componentSignal:     0.15,
			componentMomentum:   0.10,
			componentAlignment:  0.25,
			componentLiquidity:  0.25,
			componentVolatility: 0.10,
		}
	}
	return map[string]float64{
		componentStructure:  0.15,
		componentSignal:     0.25,
		componentMomentum:   0.25,
		componentAlignment:  0.10,
		componentLiquidity:  0.10,
		componentVolatility: 0.15,
	}
}

// scoreConfluence blends all sub-signals into one 0-100 quality measure with
// a per-component breakdown.
func scoreConfluence(
	snap *domain.MicrostructureSnapshot,
	class domain.AssetClass,
	sess domain.SessionProfile,
	gran Granularity,
) (float64, map[string]float64) {
	components := map[string]float64{
		componentStructure:  structureComponent(snap.Structure),
		componentSignal:     signalComponent(snap.Events),
		componentMomentum:   momentumComponent(snap.Momentum),
		componentAlignment:  30 + snap.Alignment.Strength*60,
		componentLiquidity:  liquidityComponent(snap),
		componentVolatility: volatilityComponent(snap.Volatility, class, sess),
	}

	weights := weightsFor(gran)
	total := 0.0
	for name, weight := range weights {
		total += components[name] * weight
	}
	if total > 100 {
		total = 100
	}
	return total, components
}

func structureComponent(s domain.StructureState) float64 {
	switch s.Type {
	case domain.StructureBullish, domain.StructureBearish:
		v := 50 + 10*float64(s.Streak)
		if v > 90 {
			v = 90
		}
		return v
	case domain.StructureRanging:
		return 45
	default:
		return 20
	}
}

func signalComponent(events []domain.StructureEvent) float64 {
	best := 0.0
	for _, e := range events {
		if e.Confidence > best {
			best = e.Confidence
		}
	}
	if best == 0 {
		return 30
	}
	return best
}

func momentumComponent(m domain.MomentumInfo) float64 {
	switch m.Quality {
	case domain.MomentumExcellent:
		return 90
	case domain.MomentumGood:
		return 75
	case domain.MomentumFair:
		return 55
	default:
		return 30
	}
}

func liquidityComponent(snap *domain.MicrostructureSnapshot) float64 {
	if len(snap.Liquidity) == 0 {
		return 40
	}

	best := 40.0
	for _, zone := range snap.Liquidity {
		if !snap.ZoneNear(zone.Kind, snap.LastClose, 0.003) {
			continue
		}
		touches := zone.Touches
		if touches > 4 {
			touches = 4
		}
		if v := 60 + 10*float64(touches); v > best {
			best = v
		}
	}
	return best
}

// volatilityComponent: crypto instruments score the volatility regime
// non-linearly (a volatile regime scores above stable, transitional lowest);
// all other classes score the session's volatility tier.
func volatilityComponent(v domain.VolatilityInfo, class domain.AssetClass, sess domain.SessionProfile) float64 {
	if class == domain.AssetClassCrypto {
		switch v.Regime {
		case domain.RegimeVolatile:
			return 85
		case domain.RegimeStable:
			return 70
		default:
			return 50
		}
	}

	switch sess.VolatilityTier {
	case "high":
		return 75
	case "medium":
		return 60
	default:
		return 45
	}
}
