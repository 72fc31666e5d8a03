package domain

import "github.com/pkg/errors"

// Sentinel errors shared across the engine. Callers check them with errors.Is.
var (
	// ErrDataUnavailable upstream source failed or returned no candles.
	ErrDataUnavailable = errors.New("market data unavailable")
	// ErrStaleData cached data exceeds its staleness bound.
	ErrStaleData = errors.New("market data is stale")
	// ErrInsufficientHistory fewer candles than a detector's minimum.
	ErrInsufficientHistory = errors.New("insufficient candle history")
	// ErrCorruptSnapshot persisted snapshot failed its integrity check.
	ErrCorruptSnapshot = errors.New("corrupt snapshot")
	// ErrInsufficientSamples not enough outcome records to derive parameters.
	ErrInsufficientSamples = errors.New("insufficient outcome samples")
	// ErrConditionUnmet expected negative evaluation outcome, not a failure.
	ErrConditionUnmet = errors.New("plan conditions not met")
)
