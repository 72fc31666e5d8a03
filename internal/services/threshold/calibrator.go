// Package threshold computes adaptive acceptance thresholds from instrument,
// session and realized volatility, replacing any single fixed cutoff.
package threshold

import (
	"math"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
)

const (
	// ClampMin lower bound of every calibrated threshold.
	ClampMin = 50.0
	// ClampMax upper bound of every calibrated threshold.
	ClampMax = 95.0
)

// ProfileSource supplies per-instrument calibration inputs.
type ProfileSource interface {
	ThresholdProfile(instrument string) domain.ThresholdProfile
}

// Calibrator derives acceptance thresholds.
type Calibrator struct {
	profiles ProfileSource
}

// NewCalibrator creates a calibrator over the given profile source.
func NewCalibrator(profiles ProfileSource) *Calibrator {
	return &Calibrator{profiles: profiles}
}

// Threshold computes the acceptance threshold for one decision:
//
//	clamp(base * (1 + (atrRatio-1)*volWeight) * bias^sessWeight, 50, 95)
//
// Higher realized volatility and higher-bias sessions raise the bar; calmer
// sessions and instruments lower it.
func (c *Calibrator) Threshold(instrument string, sess domain.SessionProfile, atrRatio float64) float64 {
	profile := c.profiles.ThresholdProfile(instrument)
	return Calibrate(profile, sess.Bias, atrRatio)
}

// Calibrate applies the calibration formula for explicit inputs.
func Calibrate(profile domain.ThresholdProfile, sessionBias, atrRatio float64) float64 {
	base := profile.BaseConfidence
	if base <= 0 {
		base = 70
	}
	if atrRatio <= 0 {
		atrRatio = 1
	}
	if sessionBias <= 0 {
		sessionBias = 1
	}

	value := base *
		(1 + (atrRatio-1)*profile.VolatilityWeight) *
		math.Pow(sessionBias, profile.SessionWeight)

	return clamp(value, ClampMin, ClampMax)
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
