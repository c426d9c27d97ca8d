package session

import (
	"testing"
	"time"

	"github.com/chessroom/server/internal/identity"
)

func TestRegisterLookupDiscard(t *testing.T) {
	reg := NewRegistry()
	id := identity.Guest("alice")

	reg.Register(id, "Alice", "ROOM01", RoleHost, "conn-1", ColorWhite)

	sess, ok := reg.Lookup(id)
	if !ok {
		t.Fatalf("expected session to be registered")
	}
	if sess.RoomID != "ROOM01" || sess.Role != RoleHost || sess.Color != ColorWhite {
		t.Fatalf("unexpected session: %+v", sess)
	}

	reg.Discard(id)
	if _, ok := reg.Lookup(id); ok {
		t.Fatalf("expected session to be discarded")
	}
}

func TestLookupByConnection(t *testing.T) {
	reg := NewRegistry()
	id := identity.Guest("bob")
	reg.Register(id, "Bob", "ROOM02", RoleOpponent, "conn-2", ColorBlack)

	sess, ok := reg.LookupByConnection("conn-2")
	if !ok {
		t.Fatalf("expected lookup by connection to succeed")
	}
	if !sess.Identity.Equal(id) {
		t.Fatalf("unexpected identity: %+v", sess.Identity)
	}

	if _, ok := reg.LookupByConnection("no-such-conn"); ok {
		t.Fatalf("expected lookup by unknown connection to fail")
	}
}

func TestRebindReconnectsConnection(t *testing.T) {
	reg := NewRegistry()
	id := identity.Guest("carol")
	reg.Register(id, "Carol", "ROOM03", RoleSpectator, "conn-3", "")

	reg.MarkDisconnected(id, time.Now())
	sess, _ := reg.Lookup(id)
	if sess.IsConnected {
		t.Fatalf("expected session to be marked disconnected")
	}

	rebound, ok := reg.Rebind(id, "conn-3b")
	if !ok {
		t.Fatalf("expected rebind to succeed")
	}
	if !rebound.IsConnected || rebound.ConnectionID != "conn-3b" {
		t.Fatalf("unexpected session after rebind: %+v", rebound)
	}
}

func TestRebindUnknownIdentity(t *testing.T) {
	reg := NewRegistry()
	if _, ok := reg.Rebind(identity.Guest("ghost"), "conn-x"); ok {
		t.Fatalf("expected rebind of unregistered identity to fail")
	}
}
