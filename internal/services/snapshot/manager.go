// Package snapshot persists candle caches to disk so restarts resume from
// recent data instead of refetching full history. Files are written
// atomically with a checksum sidecar; stale or corrupt snapshots are rejected
// at load time.
package snapshot

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
)

const (
	// DefaultMaxAge snapshots older than this are rejected on load.
	DefaultMaxAge = time.Hour

	snapshotExt = ".snapshot.json"
	gzipExt     = ".snapshot.json.gz"
	sumExt      = ".sum"
)

// payload on-disk snapshot format.
type payload struct {
	Instrument string          `json:"instrument"`
	CreatedAt  time.Time       `json:"created_at"`
	Candles    []domain.Candle `json:"candles"`
}

// Manager reads and writes candle snapshots under one directory.
type Manager struct {
	dir      string
	compress bool
	logger   *zap.Logger
}

// Option configures a Manager.
type Option func(*Manager)

// WithCompression enables gzip compression of snapshot payloads.
func WithCompression() Option {
	return func(m *Manager) { m.compress = true }
}

// NewManager creates the snapshot directory if needed.
func NewManager(dir string, logger *zap.Logger, opts ...Option) (*Manager, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(err, "create snapshot dir")
	}
	m := &Manager{dir: dir, logger: logger}
	for _, opt := range opts {
		opt(m)
	}
	return m, nil
}

// Create writes a snapshot for the instrument. The payload goes to a temp
// file first and is renamed into place, so a crash mid-write never leaves a
// truncated snapshot under the final name.
func (m *Manager) Create(instrument string, candles []domain.Candle) error {
	id := domain.NormalizeInstrument(instrument)
	if len(candles) == 0 {
		return errors.Errorf("no candles to snapshot for %s", id)
	}

	body, err := json.Marshal(payload{
		Instrument: id,
		CreatedAt:  time.Now().UTC(),
		Candles:    candles,
	})
	if err != nil {
		return errors.Wrap(err, "marshal snapshot")
	}

	if m.compress {
		body, err = gzipBytes(body)
		if err != nil {
			return errors.Wrap(err, "compress snapshot")
		}
	}

	final := m.path(id)
	tmp := final + ".tmp"
	if err := os.WriteFile(tmp, body, 0o644); err != nil {
		return errors.Wrap(err, "write snapshot")
	}
	if err := os.WriteFile(final+sumExt, checksum(body), 0o644); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "write snapshot checksum")
	}
	if err := os.Rename(tmp, final); err != nil {
		os.Remove(tmp)
		return errors.Wrap(err, "commit snapshot")
	}

	m.logger.Debug("snapshot written",
		zap.String("instrument", id),
		zap.Int("candles", len(candles)),
		zap.Int("bytes", len(body)))

	return nil
}

// Load reads and validates the snapshot for an instrument. Returns
// domain.ErrStaleData when it is older than maxAge and
// domain.ErrCorruptSnapshot when the checksum or payload does not verify.
func (m *Manager) Load(instrument string, maxAge time.Duration) ([]domain.Candle, time.Time, error) {
	id := domain.NormalizeInstrument(instrument)
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}

	body, err := os.ReadFile(m.path(id))
	if err != nil {
		return nil, time.Time{}, errors.Wrapf(err, "read snapshot for %s", id)
	}

	want, err := os.ReadFile(m.path(id) + sumExt)
	if err != nil {
		return nil, time.Time{}, errors.Wrapf(domain.ErrCorruptSnapshot, "missing checksum for %s", id)
	}
	if string(want) != string(checksum(body)) {
		return nil, time.Time{}, errors.Wrapf(domain.ErrCorruptSnapshot, "checksum mismatch for %s", id)
	}

	if m.compress {
		body, err = gunzipBytes(body)
		if err != nil {
			return nil, time.Time{}, errors.Wrapf(domain.ErrCorruptSnapshot, "decompress snapshot for %s", id)
		}
	}

	var p payload
	if err := json.Unmarshal(body, &p); err != nil {
		return nil, time.Time{}, errors.Wrapf(domain.ErrCorruptSnapshot, "decode snapshot for %s", id)
	}
	if p.Instrument != id || len(p.Candles) == 0 {
		return nil, time.Time{}, errors.Wrapf(domain.ErrCorruptSnapshot, "snapshot payload invalid for %s", id)
	}

	if age := time.Since(p.CreatedAt); age > maxAge {
		return nil, time.Time{}, errors.Wrapf(domain.ErrStaleData,
			"snapshot for %s is %s old (max %s)", id, age.Round(time.Second), maxAge)
	}

	return p.Candles, p.CreatedAt, nil
}

// Cleanup removes snapshots and sidecars older than maxAge, returning how
// many snapshot files were removed.
func (m *Manager) Cleanup(maxAge time.Duration) (int, error) {
	entries, err := os.ReadDir(m.dir)
	if err != nil {
		return 0, errors.Wrap(err, "list snapshot dir")
	}

	removed := 0
	cutoff := time.Now().Add(-maxAge)
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		name := e.Name()
		if !strings.HasSuffix(name, snapshotExt) && !strings.HasSuffix(name, gzipExt) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		full := filepath.Join(m.dir, name)
		if err := os.Remove(full); err != nil {
			m.logger.Warn("failed to remove stale snapshot", zap.String("file", name), zap.Error(err))
			continue
		}
		os.Remove(full + sumExt)
		removed++
	}
	return removed, nil
}

func (m *Manager) path(id string) string {
	ext := snapshotExt
	if m.compress {
		ext = gzipExt
	}
	return filepath.Join(m.dir, strings.ToLower(id)+ext)
}

func checksum(body []byte) []byte {
	return []byte(fmt.Sprintf("%016x", xxhash.Sum64(body)))
}

func gzipBytes(body []byte) ([]byte, error) {
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	if _, err := zw.Write(body); err != nil {
		return nil, err
	}
	if err := zw.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func gunzipBytes(body []byte) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	defer zr.Close()
	return io.ReadAll(zr)
}
