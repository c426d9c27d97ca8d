package roomstore

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"

	"github.com/chessroom/server/internal/identity"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr := miniredis.RunT(t)
	return redis.NewClient(&redis.Options{Addr: mr.Addr()})
}

func TestRedisCachePutAndDelete(t *testing.T) {
	rdb := newTestRedis(t)
	cache := NewRedisCache(rdb)
	ctx := context.Background()

	room := newRoom("CACHE1")
	if err := cache.Put(ctx, room); err != nil {
		t.Fatalf("put: %v", err)
	}

	raw, err := rdb.Get(ctx, roomKey("CACHE1")).Result()
	if err != nil {
		t.Fatalf("get written key: %v", err)
	}
	if raw == "" {
		t.Fatalf("expected a non-empty cached payload")
	}

	var cached Room
	if err := json.Unmarshal([]byte(raw), &cached); err != nil {
		t.Fatalf("unmarshal cached payload: %v", err)
	}
	if !cached.HostID.Equal(identity.Guest("host")) {
		t.Fatalf("expected cached room to retain its host identity, got %+v", cached.HostID)
	}

	if err := cache.Delete(ctx, "CACHE1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := rdb.Get(ctx, roomKey("CACHE1")).Result(); err != redis.Nil {
		t.Fatalf("expected key to be gone after delete, got err=%v", err)
	}
}

func TestStoreWritesThroughToCacheOnCreateAndDelete(t *testing.T) {
	rdb := newTestRedis(t)
	store := New(NewRedisCache(rdb), nil)
	ctx := context.Background()

	room := newRoom("CACHE2")
	if err := store.Create(ctx, room); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := rdb.Get(ctx, roomKey("CACHE2")).Result(); err != nil {
		t.Fatalf("expected room to be written through to the cache, got %v", err)
	}

	if err := store.Delete(ctx, "CACHE2"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := rdb.Get(ctx, roomKey("CACHE2")).Result(); err != redis.Nil {
		t.Fatalf("expected cache entry to be removed on delete, got err=%v", err)
	}
}
