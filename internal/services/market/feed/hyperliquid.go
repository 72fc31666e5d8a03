package feed

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	hyperliquid "github.com/sonirico/go-hyperliquid"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
)

// HyperliquidProvider implements CandleProvider for Hyperliquid.
type HyperliquidProvider struct {
	info *hyperliquid.Info
}

// NewHyperliquidProvider creates a new Hyperliquid candle provider.
func NewHyperliquidProvider(info *hyperliquid.Info) *HyperliquidProvider {
	return &HyperliquidProvider{info: info}
}

// Candles fetches kline data from Hyperliquid.
func (p *HyperliquidProvider) Candles(ctx context.Context, instrument, interval string, since time.Time, limit int) ([]domain.Candle, error) {
	if p.info == nil {
		return nil, fmt.Errorf("hyperliquid info is nil")
	}
	if limit <= 0 {
		return nil, fmt.Errorf("limit must be > 0")
	}
	dur, err := parseIntervalToDuration(interval)
	if err != nil {
		return nil, err
	}

	endMs := time.Now().UnixMilli()
	// Fetch a slightly wider window to account for rounding.
	startMs := endMs - (int64(limit)+2)*dur.Milliseconds()
	if !since.IsZero() {
		startMs = since.UnixMilli()
	}

	// Hyperliquid addresses markets by base coin name, e.g. "BTC".
	coin := strings.ToUpper(strings.TrimSuffix(domain.NormalizeInstrument(instrument), "USDT"))
	coin = strings.TrimSuffix(coin, "USDC")
	coin = strings.TrimSuffix(coin, "USD")

	candles, err := p.info.CandlesSnapshot(ctx, coin, interval, startMs, endMs)
	if err != nil {
		return nil, err
	}
	if len(candles) == 0 {
		return nil, fmt.Errorf("no candles from hyperliquid for %s %s", coin, interval)
	}
	if len(candles) > limit {
		candles = candles[len(candles)-limit:]
	}

	out := make([]domain.Candle, 0, len(candles))
	for i, c := range candles {
		open, err := decimal.NewFromString(c.Open)
		if err != nil {
			return nil, fmt.Errorf("parse open at %d: %w", i, err)
		}
		high, err := decimal.NewFromString(c.High)
		if err != nil {
			return nil, fmt.Errorf("parse high at %d: %w", i, err)
		}
		low, err := decimal.NewFromString(c.Low)
		if err != nil {
			return nil, fmt.Errorf("parse low at %d: %w", i, err)
		}
		closePrice, err := decimal.NewFromString(c.Close)
		if err != nil {
			return nil, fmt.Errorf("parse close at %d: %w", i, err)
		}
		volume, err := decimal.NewFromString(c.Volume)
		if err != nil {
			return nil, fmt.Errorf("parse volume at %d: %w", i, err)
		}

		out = append(out, domain.Candle{
			OpenTime:  time.UnixMilli(c.TimeOpen),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
			CloseTime: time.UnixMilli(c.TimeClose),
		})
	}

	return out, nil
}

func parseIntervalToDuration(interval string) (time.Duration, error) {
	if interval == "" {
		return 0, fmt.Errorf("empty interval")
	}
	unit := interval[len(interval)-1]
	value := interval[:len(interval)-1]
	if value == "" {
		return 0, fmt.Errorf("invalid interval: %s", interval)
	}
	var n int64
	for _, r := range value {
		if r < '0' || r > '9' {
			return 0, fmt.Errorf("invalid interval number: %s", interval)
		}
		n = n*10 + int64(r-'0')
	}
	switch unit {
	case 'm':
		return time.Duration(n) * time.Minute, nil
	case 'h':
		return time.Duration(n) * time.Hour, nil
	case 'd':
		return time.Duration(n) * 24 * time.Hour, nil
	default:
		return 0, fmt.Errorf("unsupported interval unit: %c", unit)
	}
}
