package snapshot

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
)

func makeCandles(n int) []domain.Candle {
	start := time.Now().Add(-time.Duration(n) * time.Minute).Truncate(time.Minute)
	out := make([]domain.Candle, n)
	for i := range out {
		price := decimal.NewFromInt(int64(100 + i))
		out[i] = domain.Candle{
			OpenTime:  start.Add(time.Duration(i) * time.Minute),
			Open:      price,
			High:      price.Add(decimal.NewFromInt(2)),
			Low:       price.Sub(decimal.NewFromInt(2)),
			Close:     price.Add(decimal.NewFromInt(1)),
			Volume:    decimal.NewFromInt(500),
			CloseTime: start.Add(time.Duration(i+1) * time.Minute),
		}
	}
	return out
}

func TestCreateAndLoad_Roundtrip(t *testing.T) {
	m, err := NewManager(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	original := makeCandles(40)
	require.NoError(t, m.Create("BTCUSDT", original))

	loaded, createdAt, err := m.Load("btc/usdt", time.Hour)
	require.NoError(t, err)
	require.Len(t, loaded, 40)
	require.WithinDuration(t, time.Now(), createdAt, time.Minute)
	require.True(t, loaded[0].Open.Equal(original[0].Open))
	require.True(t, loaded[39].Close.Equal(original[39].Close))
}

func TestCreateAndLoad_CompressedRoundtrip(t *testing.T) {
	m, err := NewManager(t.TempDir(), zap.NewNop(), WithCompression())
	require.NoError(t, err)

	original := makeCandles(40)
	require.NoError(t, m.Create("ETHUSDT", original))

	loaded, _, err := m.Load("ETHUSDT", time.Hour)
	require.NoError(t, err)
	require.Len(t, loaded, 40)
}

func TestLoad_RejectsCorruptedPayload(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, m.Create("BTCUSDT", makeCandles(10)))

	// flip bytes in the snapshot file without touching the checksum
	path := filepath.Join(dir, "btcusdt"+snapshotExt)
	body, err := os.ReadFile(path)
	require.NoError(t, err)
	body[len(body)/2] ^= 0xFF
	require.NoError(t, os.WriteFile(path, body, 0o644))

	_, _, err = m.Load("BTCUSDT", time.Hour)
	require.ErrorIs(t, err, domain.ErrCorruptSnapshot)
}

func TestLoad_RejectsMissingChecksum(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, m.Create("BTCUSDT", makeCandles(10)))
	require.NoError(t, os.Remove(filepath.Join(dir, "btcusdt"+snapshotExt+sumExt)))

	_, _, err = m.Load("BTCUSDT", time.Hour)
	require.ErrorIs(t, err, domain.ErrCorruptSnapshot)
}

func TestLoad_RejectsStaleSnapshot(t *testing.T) {
	m, err := NewManager(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, m.Create("BTCUSDT", makeCandles(10)))

	_, _, err = m.Load("BTCUSDT", time.Nanosecond)
	require.ErrorIs(t, err, domain.ErrStaleData)
}

func TestLoad_MissingSnapshot(t *testing.T) {
	m, err := NewManager(t.TempDir(), zap.NewNop())
	require.NoError(t, err)

	_, _, err = m.Load("BTCUSDT", time.Hour)
	require.Error(t, err)
}

func TestCleanup_RemovesOldFiles(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir, zap.NewNop())
	require.NoError(t, err)

	require.NoError(t, m.Create("BTCUSDT", makeCandles(10)))

	path := filepath.Join(dir, "btcusdt"+snapshotExt)
	old := time.Now().Add(-48 * time.Hour)
	require.NoError(t, os.Chtimes(path, old, old))

	removed, err := m.Cleanup(24 * time.Hour)
	require.NoError(t, err)
	require.Equal(t, 1, removed)

	_, statErr := os.Stat(path)
	require.True(t, os.IsNotExist(statErr))
}
