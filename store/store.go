package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"go.uber.org/zap"

	"optioneer/ledger"
)

// Store persists the ledger snapshot as a single JSON file. A missing
// or corrupt file loads as an empty snapshot: losing state on
// corruption is an accepted trade-off, never a fatal condition.
type Store struct {
	path            string
	startingCapital float64
	log             *zap.Logger
}

func New(path string, startingCapital float64, log *zap.Logger) *Store {
	if log == nil {
		log = zap.NewNop()
	}
	return &Store{path: path, startingCapital: startingCapital, log: log}
}

// Load reads the snapshot. Absence and parse failures both yield a
// fresh state seeded with the starting capital.
func (s *Store) Load(now time.Time) *ledger.State {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			s.log.Warn("state file unreadable, starting fresh",
				zap.String("path", s.path), zap.Error(err))
		}
		return ledger.NewState(s.startingCapital, now)
	}

	st := &ledger.State{}
	if err := json.Unmarshal(data, st); err != nil {
		s.log.Warn("state file corrupt, starting fresh",
			zap.String("path", s.path), zap.Error(err))
		return ledger.NewState(s.startingCapital, now)
	}

	if len(st.EquityCurve) == 0 {
		st.EquityCurve = []float64{s.startingCapital}
	}
	if st.Counters.CurrentMonth == "" {
		st.Counters.CurrentMonth = now.Format("2006-01")
	}
	return st
}

// Save writes the snapshot via a temp file and rename so a crash
// mid-write cannot leave a truncated state file behind.
func (s *Store) Save(st *ledger.State) error {
	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal state: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("write state: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("commit state: %w", err)
	}
	return nil
}

// Ping reports whether the store's directory is writable, for the
// health endpoint.
func (s *Store) Ping() error {
	tmp := s.path + ".ping"
	if err := os.WriteFile(tmp, []byte("ok"), 0644); err != nil {
		return err
	}
	return os.Remove(tmp)
}
