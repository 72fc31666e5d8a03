package microstructure

import (
	"github.com/shopspring/decimal"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
)

const (
	wickWindow   = 20
	wickRatioMin = 2.0
	// fakeDojiRangeFloor share of the window's average range a candle must
	// reach for its wick to count; rejects low-range "fake doji" candles.
	fakeDojiRangeFloor = 0.6
)

// findRejectionWicks flags candles whose wick-to-body ratio exceeds the
// threshold, filtered for authenticity by minimum range.
func findRejectionWicks(candles []domain.Candle) []domain.RejectionWick {
	if len(candles) == 0 {
		return nil
	}

	window := candles
	if len(window) > wickWindow {
		window = window[len(window)-wickWindow:]
	}
	offset := len(candles) - len(window)

	avgRange := decimal.Zero
	for _, c := range window {
		avgRange = avgRange.Add(c.Range())
	}
	avgRange = avgRange.Div(decimal.NewFromInt(int64(len(window))))
	rangeFloor := avgRange.Mul(decimal.NewFromFloat(fakeDojiRangeFloor))

	var wicks []domain.RejectionWick
	for i, c := range window {
		if c.Range().LessThan(rangeFloor) {
			continue
		}

		body := c.Body()
		if body.IsZero() {
			// full doji at meaningful range: treat body as a sliver of the range
			body = c.Range().Div(decimal.NewFromInt(100))
		}

		if ratio := wickRatio(c.LowerWick(), body); ratio >= wickRatioMin {
			wicks = append(wicks, domain.RejectionWick{
				CandleIndex: offset + i,
				Direction:   domain.TrendDirectionBullish,
				WickRatio:   ratio,
				Extreme:     c.Low,
			})
		}
		if ratio := wickRatio(c.UpperWick(), body); ratio >= wickRatioMin {
			wicks = append(wicks, domain.RejectionWick{
				CandleIndex: offset + i,
				Direction:   domain.TrendDirectionBearish,
				WickRatio:   ratio,
				Extreme:     c.High,
			})
		}
	}
	return wicks
}

func wickRatio(wick, body decimal.Decimal) float64 {
	if body.IsZero() {
		return 0
	}
	ratio, _ := wick.Div(body).Float64()
	return ratio
}
