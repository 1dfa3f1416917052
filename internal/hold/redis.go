package hold

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const redisPrefix = "hold:"

// RedisStore keeps holds in Redis with a native TTL, so expiry survives a
// bot restart and needs no sweeper of our own.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (r *RedisStore) Put(ctx context.Context, h Hold) error {
	ttl := time.Until(h.ExpiresAt)
	if ttl <= 0 {
		return nil
	}
	raw, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("marshal hold: %w", err)
	}
	if err := r.rdb.Set(ctx, redisPrefix+key(h.UserID, h.GameKey), raw, ttl).Err(); err != nil {
		return fmt.Errorf("store hold: %w", err)
	}
	return nil
}

func (r *RedisStore) Get(ctx context.Context, userID, gameKey string) (*Hold, error) {
	raw, err := r.rdb.Get(ctx, redisPrefix+key(userID, gameKey)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("load hold: %w", err)
	}
	var h Hold
	if err := json.Unmarshal([]byte(raw), &h); err != nil {
		return nil, fmt.Errorf("decode hold: %w", err)
	}
	return &h, nil
}

func (r *RedisStore) Delete(ctx context.Context, userID, gameKey string) error {
	return r.rdb.Del(ctx, redisPrefix+key(userID, gameKey)).Err()
}
