package engine

import (
	"context"
	"testing"

	"github.com/rs/zerolog"

	"github.com/chessroom/server/internal/eventbus"
	"github.com/chessroom/server/internal/identity"
	"github.com/chessroom/server/internal/roomstore"
	"github.com/chessroom/server/internal/session"
	"github.com/chessroom/server/internal/wire"
)

func newTestEngine() *Engine {
	logger := zerolog.Nop()
	store := roomstore.New(nil, &logger)
	sessions := session.NewRegistry()
	bus := eventbus.New(nil, &logger)
	return New(store, sessions, bus, &logger)
}

func hasEvent(events []Event, name string) bool {
	for _, e := range events {
		if e.Outbound.Event == name {
			return true
		}
	}
	return false
}

func TestCreateJoinStartsGame(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	host := identity.Guest("host")
	opp := identity.Guest("opp")

	created, _, err := e.Create(ctx, host, "conn-host", "Host", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if created.Color != session.ColorWhite {
		t.Fatalf("expected host to be white, got %s", created.Color)
	}

	joined, events, err := e.Join(ctx, opp, "conn-opp", created.Room.RoomID, "Opp", "")
	if err != nil {
		t.Fatalf("join: %v", err)
	}
	if joined.Color != session.ColorBlack {
		t.Fatalf("expected opponent to be black, got %s", joined.Color)
	}
	if joined.Room.State != roomstore.StateInProgress {
		t.Fatalf("expected room in progress, got %s", joined.Room.State)
	}
	if !hasEvent(events, wire.EventGameStarted) {
		t.Fatalf("expected game:started event, got %+v", events)
	}
	if !hasEvent(events, wire.EventRoomListUpdated) {
		t.Fatalf("expected a catalog refresh event, got %+v", events)
	}
}

func TestCreateRejectsDoubleActiveRoom(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	host := identity.Guest("host")

	if _, _, err := e.Create(ctx, host, "conn-1", "Host", nil); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := e.Create(ctx, host, "conn-2", "Host", nil); err == nil {
		t.Fatalf("expected second create by the same identity to fail")
	}
}

func TestJoinRejectsIdentityAlreadyActiveElsewhere(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	host1 := identity.Guest("host1")
	host2 := identity.Guest("host2")
	wanderer := identity.Guest("wanderer")

	room1, _, err := e.Create(ctx, host1, "conn-host1", "Host1", nil)
	if err != nil {
		t.Fatalf("create room1: %v", err)
	}
	room2, _, err := e.Create(ctx, host2, "conn-host2", "Host2", nil)
	if err != nil {
		t.Fatalf("create room2: %v", err)
	}

	if _, _, err := e.Join(ctx, wanderer, "conn-w1", room1.Room.RoomID, "Wanderer", ""); err != nil {
		t.Fatalf("join room1: %v", err)
	}
	if _, _, err := e.Join(ctx, wanderer, "conn-w2", room2.Room.RoomID, "Wanderer", ""); err == nil {
		t.Fatalf("expected join while still seated in room1 to fail")
	}
	if _, ok := e.store.Get(room2.Room.RoomID); !ok {
		t.Fatalf("room2 should still exist")
	}
	if room2After, _ := e.store.Get(room2.Room.RoomID); room2After.State != roomstore.StateWaitingForPlayer {
		t.Fatalf("expected room2 to remain untouched, got state %s", room2After.State)
	}
}

func TestSpectateRejectsIdentityAlreadyActiveElsewhere(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	host1 := identity.Guest("host1")
	host2 := identity.Guest("host2")
	wanderer := identity.Guest("wanderer")

	room1, _, err := e.Create(ctx, host1, "conn-host1", "Host1", nil)
	if err != nil {
		t.Fatalf("create room1: %v", err)
	}
	room2, _, err := e.Create(ctx, host2, "conn-host2", "Host2", nil)
	if err != nil {
		t.Fatalf("create room2: %v", err)
	}

	if _, _, err := e.Join(ctx, wanderer, "conn-w1", room1.Room.RoomID, "Wanderer", ""); err != nil {
		t.Fatalf("join room1: %v", err)
	}
	if _, _, err := e.Spectate(ctx, wanderer, "conn-w2", room2.Room.RoomID, "Wanderer", ""); err == nil {
		t.Fatalf("expected spectate while still seated in room1 to fail")
	}
}

func TestJoinAllowsIdentityWhoseOtherRoomAlreadyFinished(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	host1 := identity.Guest("host1")
	host2 := identity.Guest("host2")
	wanderer := identity.Guest("wanderer")

	room1, _, err := e.Create(ctx, host1, "conn-host1", "Host1", nil)
	if err != nil {
		t.Fatalf("create room1: %v", err)
	}
	room2, _, err := e.Create(ctx, host2, "conn-host2", "Host2", nil)
	if err != nil {
		t.Fatalf("create room2: %v", err)
	}

	if _, _, err := e.Join(ctx, wanderer, "conn-w1", room1.Room.RoomID, "Wanderer", ""); err != nil {
		t.Fatalf("join room1: %v", err)
	}
	if _, err := e.Resign(ctx, wanderer, room1.Room.RoomID); err != nil {
		t.Fatalf("resign room1: %v", err)
	}

	if _, _, err := e.Join(ctx, wanderer, "conn-w2", room2.Room.RoomID, "Wanderer", ""); err != nil {
		t.Fatalf("expected join to succeed once room1 is finished, got %v", err)
	}
}

func TestJoinRejectsHostAsOpponent(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	host := identity.Guest("host")

	created, _, err := e.Create(ctx, host, "conn-1", "Host", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, _, err := e.Join(ctx, host, "conn-1b", created.Room.RoomID, "Host", ""); err == nil {
		t.Fatalf("expected host joining their own room to fail")
	}
}

func TestLockedRoomRequiresPassword(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	host := identity.Guest("host")
	opp := identity.Guest("opp")

	created, _, err := e.Create(ctx, host, "conn-host", "Host", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	roomID := created.Room.RoomID

	if _, err := e.LockRoom(ctx, host, roomID, true, "secret"); err != nil {
		t.Fatalf("lock room: %v", err)
	}

	if _, _, err := e.Join(ctx, opp, "conn-opp", roomID, "Opp", ""); err == nil {
		t.Fatalf("expected join without password to fail")
	}
	werr, ok := mustWireErr(t, func() error {
		_, _, err := e.Join(ctx, opp, "conn-opp", roomID, "Opp", "wrong")
		return err
	})
	if !ok || werr.Code != wire.CodePasswordIncorrect {
		t.Fatalf("expected password_incorrect, got %v", werr)
	}

	if _, _, err := e.Join(ctx, opp, "conn-opp", roomID, "Opp", "secret"); err != nil {
		t.Fatalf("expected join with correct password to succeed, got %v", err)
	}
}

func TestSpectateAndKick(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	host := identity.Guest("host")
	opp := identity.Guest("opp")
	spec := identity.Guest("spec")

	created, _, _ := e.Create(ctx, host, "conn-host", "Host", nil)
	roomID := created.Room.RoomID
	_, _, err := e.Join(ctx, opp, "conn-opp", roomID, "Opp", "")
	if err != nil {
		t.Fatalf("join: %v", err)
	}

	if _, _, err := e.Spectate(ctx, spec, "conn-spec", roomID, "Spec", ""); err != nil {
		t.Fatalf("spectate: %v", err)
	}

	// An opponent may not kick; only the host may.
	if _, err := e.KickSpectator(ctx, opp, roomID, spec.Key()); err == nil {
		t.Fatalf("expected kick by non-host to fail")
	}

	events, err := e.KickSpectator(ctx, host, roomID, spec.Key())
	if err != nil {
		t.Fatalf("kick: %v", err)
	}
	if !hasEvent(events, wire.EventRoomKicked) {
		t.Fatalf("expected room:kicked event, got %+v", events)
	}

	if _, err := e.Leave(ctx, spec, "left"); err == nil {
		t.Fatalf("expected kicked spectator's session to already be discarded")
	}
}

func TestCannotKickAPlayer(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	host := identity.Guest("host")
	opp := identity.Guest("opp")

	created, _, _ := e.Create(ctx, host, "conn-host", "Host", nil)
	roomID := created.Room.RoomID
	if _, _, err := e.Join(ctx, opp, "conn-opp", roomID, "Opp", ""); err != nil {
		t.Fatalf("join: %v", err)
	}

	if _, err := e.KickSpectator(ctx, host, roomID, opp.Key()); err == nil {
		t.Fatalf("expected kicking a seated player to fail")
	}
}

// TestKickRejectsRawIDCollisionAcrossKinds guards against a regression
// where the host's raw id and a guest's raw id happen to be the same
// string: without a Kind-aware comparison a malicious guest could pick
// that raw value to either dodge the seated-player check or get matched
// as the wrong spectator.
func TestKickRejectsRawIDCollisionAcrossKinds(t *testing.T) {
	e := newTestEngine()
	ctx := context.Background()
	host := identity.Authenticated("shared-raw-value")
	opp := identity.Guest("opp")
	impostor := identity.Guest("shared-raw-value")
	genuineSpec := identity.Guest("genuine-spec")

	created, _, err := e.Create(ctx, host, "conn-host", "Host", nil)
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	roomID := created.Room.RoomID
	if _, _, err := e.Join(ctx, opp, "conn-opp", roomID, "Opp", ""); err != nil {
		t.Fatalf("join: %v", err)
	}
	if _, _, err := e.Spectate(ctx, impostor, "conn-impostor", roomID, "Impostor", ""); err != nil {
		t.Fatalf("spectate impostor: %v", err)
	}
	if _, _, err := e.Spectate(ctx, genuineSpec, "conn-genuine", roomID, "GenuineSpec", ""); err != nil {
		t.Fatalf("spectate genuine: %v", err)
	}

	// A raw-only comparison would see impostor.Raw() == host.Raw() and
	// wrongly report the host as unkickable, or silently match the
	// impostor itself instead of the requested spectator.
	if _, err := e.KickSpectator(ctx, host, roomID, host.Key()); err == nil {
		t.Fatalf("expected kicking the host by their own key to be rejected as a seated player")
	}

	events, err := e.KickSpectator(ctx, host, roomID, impostor.Key())
	if err != nil {
		t.Fatalf("expected kicking the guest impostor to succeed, got %v", err)
	}
	if !hasEvent(events, wire.EventRoomKicked) {
		t.Fatalf("expected room:kicked event, got %+v", events)
	}

	if _, err := e.Leave(ctx, genuineSpec, "left"); err != nil {
		t.Fatalf("expected the genuine spectator to remain untouched, got %v", err)
	}
}

func mustWireErr(t *testing.T, fn func() error) (*wire.Error, bool) {
	t.Helper()
	err := fn()
	if err == nil {
		return nil, false
	}
	werr, ok := err.(*wire.Error)
	return werr, ok
}
