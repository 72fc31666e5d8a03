package microstructure

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
)

const (
	orderBlockWindow   = 60
	displacementFactor = 1.8
	// strengthDecay multiplier applied per candle since the block formed.
	strengthDecay  = 0.985
	maxOrderBlocks = 5
)

// findOrderBlocks locates the last directional candle preceding an opposing
// displacement candle, keeping its price range and a decaying strength score.
func findOrderBlocks(candles []domain.Candle) []domain.OrderBlock {
	window := candles
	if len(window) > orderBlockWindow {
		window = window[len(window)-orderBlockWindow:]
	}
	if len(window) < 5 {
		return nil
	}
	offset := len(candles) - len(window)

	avgBody := decimal.Zero
	for _, c := range window {
		avgBody = avgBody.Add(c.Body())
	}
	avgBody = avgBody.Div(decimal.NewFromInt(int64(len(window))))
	if avgBody.IsZero() {
		return nil
	}
	displacementFloor := avgBody.Mul(decimal.NewFromFloat(displacementFactor))

	var blocks []domain.OrderBlock
	for i := 1; i < len(window); i++ {
		displacement := window[i]
		if displacement.Body().LessThan(displacementFloor) {
			continue
		}

		origin := window[i-1]
		// the block is the last candle pointing the other way
		if displacement.Bullish() == origin.Bullish() {
			continue
		}

		direction := domain.TrendDirectionBullish
		if origin.Bullish() {
			// bullish origin consumed by bearish displacement: supply zone
			direction = domain.TrendDirectionBearish
		}

		bodyMult, _ := displacement.Body().Div(avgBody).Float64()
		age := len(window) - 1 - i
		strength := math.Min(100, bodyMult*35) * math.Pow(strengthDecay, float64(age))

		blocks = append(blocks, domain.OrderBlock{
			Direction:   direction,
			High:        origin.High,
			Low:         origin.Low,
			Strength:    strength,
			CandleIndex: offset + i - 1,
		})
	}

	if len(blocks) > maxOrderBlocks {
		blocks = blocks[len(blocks)-maxOrderBlocks:]
	}
	return blocks
}
