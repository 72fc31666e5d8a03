package domain

import "strings"

// AssetClass broad behavioural family of an instrument.
type AssetClass string

const (
	AssetClassCrypto  AssetClass = "crypto"
	AssetClassMetal   AssetClass = "metal"
	AssetClassIndex   AssetClass = "index"
	AssetClassFX      AssetClass = "fx"
	AssetClassGeneric AssetClass = "generic"
)

// TradesContinuously reports whether the class trades 24/7 (no weekend close).
func (c AssetClass) TradesContinuously() bool {
	return c == AssetClassCrypto
}

var suffixAliases = []string{".PERP", "-PERP", "PERP", ".P", "-SWAP"}

// NormalizeInstrument converts spelling and suffix variants to a canonical
// identifier, e.g. "btc/usdt", "BTC-USDT" and "BTCUSDT.PERP" all map to "BTCUSDT".
func NormalizeInstrument(raw string) string {
	id := strings.ToUpper(strings.TrimSpace(raw))
	id = strings.NewReplacer("/", "", "-", "", "_", "", " ", "").Replace(id)
	for _, suffix := range suffixAliases {
		id = strings.TrimSuffix(id, suffix)
	}
	return id
}

var classPrefixes = map[string]AssetClass{
	"BTC": AssetClassCrypto,
	"ETH": AssetClassCrypto,
	"SOL": AssetClassCrypto,
	"XRP": AssetClassCrypto,
	"XAU": AssetClassMetal,
	"XAG": AssetClassMetal,
	"NAS": AssetClassIndex,
	"SPX": AssetClassIndex,
	"US3": AssetClassIndex,
	"GER": AssetClassIndex,
	"EUR": AssetClassFX,
	"GBP": AssetClassFX,
	"USD": AssetClassFX,
	"AUD": AssetClassFX,
	"JPY": AssetClassFX,
	"NZD": AssetClassFX,
	"CHF": AssetClassFX,
	"CAD": AssetClassFX,
}

// ClassifyInstrument derives the asset class from the canonical identifier prefix.
func ClassifyInstrument(instrument string) AssetClass {
	id := NormalizeInstrument(instrument)
	if len(id) >= 3 {
		if class, ok := classPrefixes[id[:3]]; ok {
			return class
		}
	}
	if strings.HasSuffix(id, "USDT") || strings.HasSuffix(id, "USDC") {
		return AssetClassCrypto
	}
	return AssetClassGeneric
}
