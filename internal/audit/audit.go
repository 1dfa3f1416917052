// Package audit keeps an append-only log of booking activity in SQLite,
// separate from the advisory JSON ledger, so exports and troubleshooting
// have a durable record even when the store file is replaced or lost.
package audit

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"
)

// Event actions recorded in the log.
const (
	ActionCommitted = "committed"
	ActionHeld      = "held"
	ActionConfirmed = "confirmed"
	ActionCancelled = "cancelled"
	ActionExpired   = "expired"
)

// Event is one booking-flow occurrence.
type Event struct {
	ID        int64
	UserID    string
	GameKey   string
	DateKey   string
	SlotLabel string
	Action    string
	CreatedAt time.Time
}

// Log wraps the SQLite database holding booking events.
type Log struct {
	*sql.DB
}

// Open opens (creating if needed) the audit database at path.
func Open(path string) (*Log, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("open audit db: %w", err)
	}
	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}
	return &Log{db}, nil
}

func createTables(db *sql.DB) error {
	const q = `CREATE TABLE IF NOT EXISTS booking_events (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		user_id TEXT NOT NULL,
		game_key TEXT NOT NULL,
		date_key TEXT NOT NULL,
		slot_label TEXT NOT NULL,
		action TEXT NOT NULL,
		created_at DATETIME NOT NULL
	)`
	if _, err := db.Exec(q); err != nil {
		return fmt.Errorf("create booking_events: %w", err)
	}
	if _, err := db.Exec(`CREATE INDEX IF NOT EXISTS idx_booking_events_created ON booking_events(created_at)`); err != nil {
		return fmt.Errorf("create booking_events index: %w", err)
	}
	return nil
}

// Record appends an event. Failures are the caller's to log; the booking
// itself must not fail because the audit write did.
func (l *Log) Record(ctx context.Context, ev Event) error {
	if ev.CreatedAt.IsZero() {
		ev.CreatedAt = time.Now()
	}
	_, err := l.ExecContext(ctx,
		`INSERT INTO booking_events (user_id, game_key, date_key, slot_label, action, created_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		ev.UserID, ev.GameKey, ev.DateKey, ev.SlotLabel, ev.Action, ev.CreatedAt,
	)
	return err
}

// ListSince returns events created at or after the cutoff, oldest first.
func (l *Log) ListSince(ctx context.Context, cutoff time.Time) ([]Event, error) {
	rows, err := l.QueryContext(ctx,
		`SELECT id, user_id, game_key, date_key, slot_label, action, created_at
		FROM booking_events WHERE created_at >= ? ORDER BY created_at`,
		cutoff,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var events []Event
	for rows.Next() {
		var ev Event
		if err := rows.Scan(&ev.ID, &ev.UserID, &ev.GameKey, &ev.DateKey, &ev.SlotLabel, &ev.Action, &ev.CreatedAt); err != nil {
			return nil, err
		}
		events = append(events, ev)
	}
	return events, rows.Err()
}
