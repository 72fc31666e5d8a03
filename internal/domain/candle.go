// Package domain defines core data structures used throughout the signal engine.
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Candle single closed 1-minute OHLCV candlestick. Immutable once closed.
type Candle struct {
	OpenTime  time.Time       `json:"open_time"`
	Open      decimal.Decimal `json:"open"`
	High      decimal.Decimal `json:"high"`
	Low       decimal.Decimal `json:"low"`
	Close     decimal.Decimal `json:"close"`
	Volume    decimal.Decimal `json:"volume"`
	CloseTime time.Time       `json:"close_time"`
}

// Range returns high minus low.
func (c Candle) Range() decimal.Decimal {
	return c.High.Sub(c.Low)
}

// Body returns the absolute open-to-close distance.
func (c Candle) Body() decimal.Decimal {
	return c.Close.Sub(c.Open).Abs()
}

// Bullish reports whether the candle closed above its open.
func (c Candle) Bullish() bool {
	return c.Close.GreaterThan(c.Open)
}

// Bearish reports whether the candle closed below its open.
func (c Candle) Bearish() bool {
	return c.Close.LessThan(c.Open)
}

// UpperWick returns the distance from the body top to the high.
func (c Candle) UpperWick() decimal.Decimal {
	return c.High.Sub(decimal.Max(c.Open, c.Close))
}

// LowerWick returns the distance from the low to the body bottom.
func (c Candle) LowerWick() decimal.Decimal {
	return decimal.Min(c.Open, c.Close).Sub(c.Low)
}

// TrueRange returns the true range relative to the previous close.
func (c Candle) TrueRange(prevClose decimal.Decimal) decimal.Decimal {
	tr := c.Range()
	if d := c.High.Sub(prevClose).Abs(); d.GreaterThan(tr) {
		tr = d
	}
	if d := c.Low.Sub(prevClose).Abs(); d.GreaterThan(tr) {
		tr = d
	}
	return tr
}
