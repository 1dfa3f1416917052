package hold

import (
	"context"
	"time"

	"github.com/patrickmn/go-cache"
)

// MemoryStore keeps holds in process memory. The cache's janitor sweeps
// expired entries, so abandoned holds do not accumulate.
type MemoryStore struct {
	c *cache.Cache
}

// NewMemoryStore creates an in-memory hold store sweeping once a minute.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{c: cache.New(TTL, time.Minute)}
}

func (m *MemoryStore) Put(_ context.Context, h Hold) error {
	ttl := time.Until(h.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	m.c.Set(key(h.UserID, h.GameKey), h, ttl)
	return nil
}

func (m *MemoryStore) Get(_ context.Context, userID, gameKey string) (*Hold, error) {
	v, ok := m.c.Get(key(userID, gameKey))
	if !ok {
		return nil, nil
	}
	h, ok := v.(Hold)
	if !ok {
		return nil, nil
	}
	return &h, nil
}

func (m *MemoryStore) Delete(_ context.Context, userID, gameKey string) error {
	m.c.Delete(key(userID, gameKey))
	return nil
}
