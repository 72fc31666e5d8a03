package microstructure

import (
	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
)

const (
	// confirmWindow consecutive candles required before a structure break
	// against the prevailing trend is flagged as a reversal. Suppresses
	// single-candle false triggers.
	confirmWindow = 3

	reversalBaseConfidence     = 55.0
	continuationBaseConfidence = 50.0
	// combinedBoost applied when reversal and continuation fire in the same
	// short window, in opposite-then-same direction (break and retest).
	combinedBoost = 1.15
)

// detectEvents finds confirmed reversal and continuation events against the
// prevailing structure.
func detectEvents(candles []domain.Candle, structure domain.StructureState) []domain.StructureEvent {
	var events []domain.StructureEvent

	if reversal, ok := detectReversal(candles, structure); ok {
		events = append(events, reversal)
	}
	if continuation, ok := detectContinuation(candles, structure); ok {
		events = append(events, continuation)
	}

	// Reversal and continuation firing inside the same short window marks a
	// decisive regime change and scores above either signal alone.
	if len(events) == 2 {
		for i := range events {
			events[i].Confidence = capConfidence(events[i].Confidence * combinedBoost)
		}
	}

	return events
}

// detectReversal flags a structure break against the prevailing trend only
// after confirmWindow consecutive candles corroborate the break.
func detectReversal(candles []domain.Candle, structure domain.StructureState) (domain.StructureEvent, bool) {
	var event domain.StructureEvent

	switch structure.Type {
	case domain.StructureBullish:
		if structure.LastSwingLow.IsZero() {
			return event, false
		}
		confirmations := 0
		for i := len(candles) - 1; i >= 0 && confirmations < len(candles); i-- {
			if candles[i].Close.LessThan(structure.LastSwingLow) {
				confirmations++
			} else {
				break
			}
		}
		if confirmations < confirmWindow {
			return event, false
		}
		return domain.StructureEvent{
			Type:          domain.EventReversal,
			Direction:     domain.TrendDirectionBearish,
			Confidence:    reversalConfidence(confirmations, structure.Streak),
			BreakLevel:    structure.LastSwingLow,
			Confirmations: confirmations,
			CandleIndex:   len(candles) - confirmations,
		}, true

	case domain.StructureBearish:
		if structure.LastSwingHigh.IsZero() {
			return event, false
		}
		confirmations := 0
		for i := len(candles) - 1; i >= 0 && confirmations < len(candles); i-- {
			if candles[i].Close.GreaterThan(structure.LastSwingHigh) {
				confirmations++
			} else {
				break
			}
		}
		if confirmations < confirmWindow {
			return event, false
		}
		return domain.StructureEvent{
			Type:          domain.EventReversal,
			Direction:     domain.TrendDirectionBullish,
			Confidence:    reversalConfidence(confirmations, structure.Streak),
			BreakLevel:    structure.LastSwingHigh,
			Confirmations: confirmations,
			CandleIndex:   len(candles) - confirmations,
		}, true
	}

	return event, false
}

// detectContinuation requires alignment with the established streak: the most
// recent close extends beyond the last swing extreme in trend direction.
func detectContinuation(candles []domain.Candle, structure domain.StructureState) (domain.StructureEvent, bool) {
	var event domain.StructureEvent
	if structure.Streak < 2 || len(candles) == 0 {
		return event, false
	}

	last := candles[len(candles)-1]

	switch structure.Type {
	case domain.StructureBullish:
		if structure.LastSwingHigh.IsZero() || !last.Close.GreaterThan(structure.LastSwingHigh) {
			return event, false
		}
		return domain.StructureEvent{
			Type:          domain.EventContinuation,
			Direction:     domain.TrendDirectionBullish,
			Confidence:    continuationConfidence(structure.Streak),
			BreakLevel:    structure.LastSwingHigh,
			Confirmations: 1,
			CandleIndex:   len(candles) - 1,
		}, true

	case domain.StructureBearish:
		if structure.LastSwingLow.IsZero() || !last.Close.LessThan(structure.LastSwingLow) {
			return event, false
		}
		return domain.StructureEvent{
			Type:          domain.EventContinuation,
			Direction:     domain.TrendDirectionBearish,
			Confidence:    continuationConfidence(structure.Streak),
			BreakLevel:    structure.LastSwingLow,
			Confirmations: 1,
			CandleIndex:   len(candles) - 1,
		}, true
	}

	return event, false
}

func reversalConfidence(confirmations, streak int) float64 {
	conf := reversalBaseConfidence + 8*float64(confirmations-confirmWindow+1)
	// breaking a long streak carries more weight than breaking chop
	conf += 3 * float64(streak)
	return capConfidence(conf)
}

func continuationConfidence(streak int) float64 {
	return capConfidence(continuationBaseConfidence + 10*float64(streak))
}

func capConfidence(v float64) float64 {
	if v > 100 {
		return 100
	}
	return v
}
