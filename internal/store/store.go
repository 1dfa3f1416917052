// Package store persists the booking ledger: a single JSON document mapping
// user -> date key -> game -> booked slot start times.
package store

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/rs/zerolog"
)

// MaxPerDay is the booking cap per user, per date, per game.
const MaxPerDay = 2

// ErrDailyCapExceeded is returned when an append would push a bucket past
// MaxPerDay. The cap is enforced here, on the resolved date key, so neither
// booking policy can overshoot it regardless of which pre-checks ran.
var ErrDailyCapExceeded = errors.New("daily booking cap exceeded")

// Data is the on-disk shape: user ID -> date key -> game key -> slot labels.
type Data map[string]map[string]map[string][]string

// Store is a file-backed booking ledger. All mutations run under a single
// lock and rewrite the file atomically, closing the lost-update hazard of
// the naive read-mutate-rewrite cycle within this process.
type Store struct {
	path   string
	logger *zerolog.Logger

	mu   sync.Mutex
	data Data
}

// Open loads the ledger at path. A missing or corrupt file starts the store
// empty; the file is advisory input, never authoritative enough to abort on.
func Open(path string, logger *zerolog.Logger) (*Store, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("create store dir: %w", err)
	}

	s := &Store{path: path, logger: logger, data: make(Data)}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			logger.Warn().Err(err).Str("path", path).Msg("booking store unreadable, starting empty")
		}
		return s, nil
	}
	if err := json.Unmarshal(raw, &s.data); err != nil {
		logger.Warn().Err(err).Str("path", path).Msg("booking store corrupt, starting empty")
		s.data = make(Data)
	}
	return s, nil
}

// IsBooked reports whether a slot label already exists in a bucket. It
// satisfies slots.BookingChecker.
func (s *Store) IsBooked(userID, dateKey, gameKey, slotLabel string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, booked := range s.bucket(userID, dateKey, gameKey) {
		if booked == slotLabel {
			return true
		}
	}
	return false
}

// Count returns the number of booked sessions in a bucket.
func (s *Store) Count(userID, dateKey, gameKey string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bucket(userID, dateKey, gameKey))
}

// Booked returns a copy of a bucket's slot labels.
func (s *Store) Booked(userID, dateKey, gameKey string) []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.bucket(userID, dateKey, gameKey)...)
}

// UserDay returns a copy of all game buckets for a user on one date.
func (s *Store) UserDay(userID, dateKey string) map[string][]string {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string][]string)
	byDate, ok := s.data[userID]
	if !ok {
		return out
	}
	for game, times := range byDate[dateKey] {
		out[game] = append([]string(nil), times...)
	}
	return out
}

// Snapshot returns a deep copy of the whole document.
func (s *Store) Snapshot() Data {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(Data, len(s.data))
	for user, byDate := range s.data {
		outDate := make(map[string]map[string][]string, len(byDate))
		for date, byGame := range byDate {
			outGame := make(map[string][]string, len(byGame))
			for game, times := range byGame {
				outGame[game] = append([]string(nil), times...)
			}
			outDate[date] = outGame
		}
		out[user] = outDate
	}
	return out
}

// Append records a slot into the bucket for the resolved date key, enforcing
// the daily cap, and persists the whole document. On a write failure the
// in-memory state is rolled back and the error returned: a booking that was
// not durably recorded must not be reported as booked.
func (s *Store) Append(userID, dateKey, gameKey, slotLabel string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.bucket(userID, dateKey, gameKey)) >= MaxPerDay {
		return ErrDailyCapExceeded
	}

	byDate, ok := s.data[userID]
	if !ok {
		byDate = make(map[string]map[string][]string)
		s.data[userID] = byDate
	}
	byGame, ok := byDate[dateKey]
	if !ok {
		byGame = make(map[string][]string)
		byDate[dateKey] = byGame
	}
	byGame[gameKey] = append(byGame[gameKey], slotLabel)

	if err := s.persist(); err != nil {
		byGame[gameKey] = byGame[gameKey][:len(byGame[gameKey])-1]
		return fmt.Errorf("persist booking store: %w", err)
	}
	return nil
}

func (s *Store) bucket(userID, dateKey, gameKey string) []string {
	byDate, ok := s.data[userID]
	if !ok {
		return nil
	}
	byGame, ok := byDate[dateKey]
	if !ok {
		return nil
	}
	return byGame[gameKey]
}

// persist writes the document pretty-printed via a temp file and rename.
// Callers hold s.mu.
func (s *Store) persist() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".bookings-*.json")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Rename(tmp.Name(), s.path); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return nil
}
