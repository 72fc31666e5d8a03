package session

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
)

func at(hour int) time.Time {
	return time.Date(2026, 8, 25, hour, 30, 0, 0, time.UTC)
}

func TestProfile_SessionBoundaries(t *testing.T) {
	cases := []struct {
		hour    int
		session domain.TradingSession
		bias    float64
	}{
		{0, domain.SessionAsian, 0.9},
		{6, domain.SessionAsian, 0.9},
		{7, domain.SessionLondon, 1.0},
		{11, domain.SessionLondon, 1.0},
		{12, domain.SessionOverlap, 1.1},
		{15, domain.SessionOverlap, 1.1},
		{16, domain.SessionNewYork, 1.0},
		{20, domain.SessionNewYork, 1.0},
		{21, domain.SessionPostNY, 0.9},
		{23, domain.SessionPostNY, 0.9},
	}

	for _, tc := range cases {
		p := Profile(at(tc.hour))
		require.Equal(t, tc.session, p.Session, "hour %d", tc.hour)
		require.InDelta(t, tc.bias, p.Bias, 0.001, "hour %d", tc.hour)
	}
}

func TestProfile_NonUTCInputResolvesByUTC(t *testing.T) {
	// 03:00+03:00 is midnight UTC, firmly in the Asian session
	loc := time.FixedZone("UTC+3", 3*60*60)
	p := Profile(time.Date(2026, 8, 25, 3, 0, 0, 0, loc))
	require.Equal(t, domain.SessionAsian, p.Session)
}

func TestProfile_AlwaysSuggestsStrategies(t *testing.T) {
	for hour := 0; hour < 24; hour++ {
		require.NotEmpty(t, Profile(at(hour)).PreferredStrategies, "hour %d", hour)
	}
}
