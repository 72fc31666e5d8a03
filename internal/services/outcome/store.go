// Package outcome durably records the result of each decision with its
// originating context and derives session-specific parameter adjustments
// from the accumulated history.
package outcome

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/vadiminshakov/gowal"

	"github.com/BenignMalice/SynergisBot-sub021/internal/domain"
)

const (
	// DefaultDir default WAL directory for outcome records.
	DefaultDir = "./wal/outcomes"

	segmentLimit = 1000
	maxSegments  = 20

	outcomeKeyPrefix = "outcome_"
)

// Store persists signal outcome records in an append-only WAL and keeps an
// in-memory index for aggregation. Records are never mutated.
type Store struct {
	wal *gowal.Wal

	mu      sync.RWMutex
	records []domain.SignalOutcomeRecord
}

// NewStore opens (or creates) the WAL directory and loads existing records.
func NewStore(dir string) (*Store, error) {
	if dir == "" {
		dir = DefaultDir
	}

	wal, err := gowal.NewWAL(gowal.Config{
		Dir:              dir,
		Prefix:           "outcome_",
		SegmentThreshold: segmentLimit,
		MaxSegments:      maxSegments,
		IsInSyncDiskMode: true,
	})
	if err != nil {
		return nil, errors.Wrap(err, "init outcome WAL")
	}

	s := &Store{wal: wal}
	for m := range wal.Iterator() {
		var rec domain.SignalOutcomeRecord
		if err := json.Unmarshal(m.Value, &rec); err != nil {
			// skip undecodable entries rather than refusing to start
			continue
		}
		s.records = append(s.records, rec)
	}

	return s, nil
}

// Record appends one outcome record, assigning a unique event id when absent.
// Safe for concurrent writers; every record gets its own WAL index.
func (s *Store) Record(rec domain.SignalOutcomeRecord) error {
	if s == nil || s.wal == nil {
		return errors.New("outcome store is not initialized")
	}
	if rec.Instrument == "" {
		return errors.New("outcome record instrument is required")
	}
	if rec.EventID == "" {
		rec.EventID = uuid.NewString()
	}
	rec.Instrument = domain.NormalizeInstrument(rec.Instrument)

	payload, err := json.Marshal(rec)
	if err != nil {
		return errors.Wrap(err, "marshal outcome record")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.wal.Write(s.wal.CurrentIndex()+1, outcomeKeyPrefix+rec.EventID, payload); err != nil {
		return errors.Wrap(err, "write outcome record")
	}
	s.records = append(s.records, rec)

	return nil
}

// Records returns a copy of all loaded records.
func (s *Store) Records() []domain.SignalOutcomeRecord {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.SignalOutcomeRecord(nil), s.records...)
}

// RecordsFor returns records for one instrument, optionally one session.
func (s *Store) RecordsFor(instrument string, session domain.TradingSession) []domain.SignalOutcomeRecord {
	id := domain.NormalizeInstrument(instrument)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []domain.SignalOutcomeRecord
	for _, rec := range s.records {
		if rec.Instrument != id {
			continue
		}
		if session != "" && rec.Session != session {
			continue
		}
		out = append(out, rec)
	}
	return out
}

// Purge drops in-memory records older than the retention window. Old WAL
// segments rotate out via the segment cap.
func (s *Store) Purge(retention time.Duration) int {
	cutoff := time.Now().Add(-retention)

	s.mu.Lock()
	defer s.mu.Unlock()

	kept := s.records[:0]
	purged := 0
	for _, rec := range s.records {
		if rec.DetectedAt.Before(cutoff) {
			purged++
			continue
		}
		kept = append(kept, rec)
	}
	s.records = kept
	return purged
}

// Close closes the underlying WAL.
func (s *Store) Close() error {
	if s == nil || s.wal == nil {
		return errors.New("outcome store is not initialized")
	}
	return s.wal.Close()
}
