package roomstore

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// cacheTTL bounds how long a room lingers in the external cache after its
// last write-through, comfortably longer than the longest GC window
// (waiting rooms reclaim at ~1h) so a crash-restart within that window can
// still recover cross-process visibility.
const cacheTTL = 2 * time.Hour

// Cache is the optional external cache the Room Store writes through to.
// It is advisory: the in-memory copy is always authoritative for this
// process, and a cache miss never triggers a repopulate-from-cache read —
// the cache exists for cross-process visibility and crash recovery, not as
// a primary store.
type Cache interface {
	Put(ctx context.Context, room *Room) error
	Delete(ctx context.Context, roomID string) error
}

// NoopCache is the Cache used when no REDIS_URL is configured. The system
// then degrades to single-process operation with full correctness, exactly
// as the store's concurrency discipline requires.
type NoopCache struct{}

func (NoopCache) Put(context.Context, *Room) error    { return nil }
func (NoopCache) Delete(context.Context, string) error { return nil }

// RedisCache write-throughs room snapshots to Redis as JSON, keyed by room
// id. It never reads rooms back — the Room Store's in-memory map is the
// only read path during normal operation.
type RedisCache struct {
	rdb *redis.Client
}

// NewRedisCache wraps an already-connected client.
func NewRedisCache(rdb *redis.Client) *RedisCache {
	return &RedisCache{rdb: rdb}
}

func (c *RedisCache) Put(ctx context.Context, room *Room) error {
	raw, err := json.Marshal(room)
	if err != nil {
		return fmt.Errorf("marshal room: %w", err)
	}
	return c.rdb.Set(ctx, roomKey(room.RoomID), raw, cacheTTL).Err()
}

func (c *RedisCache) Delete(ctx context.Context, roomID string) error {
	return c.rdb.Del(ctx, roomKey(roomID)).Err()
}

func roomKey(roomID string) string { return "chessroom:room:" + roomID }
