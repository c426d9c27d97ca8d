package roomstore

import (
	"context"
	"testing"

	"github.com/chessroom/server/internal/identity"
)

func newRoom(roomID string) *Room {
	return &Room{
		RoomID:     roomID,
		HostID:     identity.Guest("host"),
		HostName:   "Host",
		Spectators: make(map[string]Spectator),
		State:      StateWaitingForPlayer,
		Settings:   Settings{AllowSpectators: true, AllowJoin: true},
	}
}

func TestStoreCreateGetDo(t *testing.T) {
	store := New(nil, nil)
	ctx := context.Background()

	room := newRoom("ABC123")
	if err := store.Create(ctx, room); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, room); err != ErrAlreadyExists {
		t.Fatalf("expected ErrAlreadyExists, got %v", err)
	}

	got, ok := store.Get("ABC123")
	if !ok {
		t.Fatalf("expected to find room")
	}
	if got.RoomID != "ABC123" {
		t.Fatalf("unexpected room id %q", got.RoomID)
	}

	if err := store.Do(ctx, "ABC123", func(r *Room) error {
		r.OpponentName = "Opponent"
		return nil
	}); err != nil {
		t.Fatalf("do: %v", err)
	}

	got, _ = store.Get("ABC123")
	if got.OpponentName != "Opponent" {
		t.Fatalf("expected mutation to be visible, got %+v", got)
	}
}

func TestStoreSnapshotIsolation(t *testing.T) {
	store := New(nil, nil)
	ctx := context.Background()
	room := newRoom("XYZ999")
	if err := store.Create(ctx, room); err != nil {
		t.Fatalf("create: %v", err)
	}

	snap, _ := store.Get("XYZ999")
	snap.HostName = "Mutated"

	fresh, _ := store.Get("XYZ999")
	if fresh.HostName == "Mutated" {
		t.Fatalf("expected snapshot mutation not to leak into the store")
	}
}

func TestStoreDoUnknownRoom(t *testing.T) {
	store := New(nil, nil)
	if err := store.Do(context.Background(), "GHOST1", func(*Room) error { return nil }); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestStoreDeleteStopsActor(t *testing.T) {
	store := New(nil, nil)
	ctx := context.Background()
	room := newRoom("DEL001")
	if err := store.Create(ctx, room); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Delete(ctx, "DEL001"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, ok := store.Get("DEL001"); ok {
		t.Fatalf("expected room to be gone after delete")
	}
	if err := store.Do(ctx, "DEL001", func(*Room) error { return nil }); err != ErrNotFound {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func TestStoreEnumerate(t *testing.T) {
	store := New(nil, nil)
	ctx := context.Background()
	if err := store.Create(ctx, newRoom("ONE000")); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := store.Create(ctx, newRoom("TWO000")); err != nil {
		t.Fatalf("create: %v", err)
	}

	rooms := store.Enumerate()
	if len(rooms) != 2 {
		t.Fatalf("expected 2 rooms, got %d", len(rooms))
	}
}

func TestNormalizeRoomID(t *testing.T) {
	if got := NormalizeRoomID(" abc123 "); got != "ABC123" {
		t.Fatalf("unexpected normalization: %q", got)
	}
}
