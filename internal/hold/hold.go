// Package hold keeps provisional slot reservations between "slot picked" and
// "user confirms". Holds are advisory and short-lived; losing one loses only
// the pending reservation, never a persisted booking.
package hold

import (
	"context"
	"time"
)

// TTL is how long a picked slot stays reserved awaiting confirmation.
const TTL = 5 * time.Minute

// Hold is a tentative reservation keyed by (user, game).
type Hold struct {
	UserID    string    `json:"user_id"`
	GameKey   string    `json:"game_key"`
	SlotLabel string    `json:"slot_label"` // "HH:MM:SS"
	DateKey   string    `json:"date_key"`   // "YYYY-MM-DD"
	ExpiresAt time.Time `json:"expires_at"`
}

// Store is a keyed hold store with owned expiry. Get never returns an
// expired hold; backends either evict on TTL (Redis) or sweep with a
// janitor (in-memory cache).
type Store interface {
	Put(ctx context.Context, h Hold) error
	// Get returns nil, nil when no live hold exists for the key.
	Get(ctx context.Context, userID, gameKey string) (*Hold, error)
	Delete(ctx context.Context, userID, gameKey string) error
}

func key(userID, gameKey string) string {
	return userID + ":" + gameKey
}
