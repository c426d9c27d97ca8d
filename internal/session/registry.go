// Package session implements the Session Registry: the map from a stable
// participant identity to their current room membership, surviving
// connection churn for anything but a bare connection identity.
package session

import (
	"sync"
	"time"

	"github.com/chessroom/server/internal/identity"
)

// Role is the participant's role within their current room.
type Role string

const (
	RoleHost      Role = "host"
	RoleOpponent  Role = "opponent"
	RoleSpectator Role = "spectator"
)

// Color is the assigned chess side, empty for spectators.
type Color string

const (
	ColorWhite Color = "white"
	ColorBlack Color = "black"
)

// Session is one Session Registry entry.
type Session struct {
	Identity       identity.Identity
	DisplayName    string
	RoomID         string
	Role           Role
	Color          Color
	ConnectionID   string
	IsConnected    bool
	DisconnectedAt time.Time
}

// Registry maps stable identity to session. At most one entry per identity.
type Registry struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewRegistry builds an empty Session Registry.
func NewRegistry() *Registry {
	return &Registry{sessions: make(map[string]*Session)}
}

// Register creates or replaces the session for identity.
func (r *Registry) Register(id identity.Identity, name, roomID string, role Role, connectionID string, color Color) *Session {
	r.mu.Lock()
	defer r.mu.Unlock()
	s := &Session{
		Identity:     id,
		DisplayName:  name,
		RoomID:       roomID,
		Role:         role,
		Color:        color,
		ConnectionID: connectionID,
		IsConnected:  true,
	}
	r.sessions[id.Key()] = s
	return s
}

// Lookup returns the session for identity, if any. The returned value is
// a copy; mutate through the registry's methods, not the returned value.
func (r *Registry) Lookup(id identity.Identity) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	s, ok := r.sessions[id.Key()]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// LookupByConnection scans for the session currently bound to connectionID.
func (r *Registry) LookupByConnection(connectionID string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, s := range r.sessions {
		if s.ConnectionID == connectionID {
			return *s, true
		}
	}
	return Session{}, false
}

// Rebind reconnects identity to a new connection handle.
func (r *Registry) Rebind(id identity.Identity, newConnectionID string) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id.Key()]
	if !ok {
		return Session{}, false
	}
	s.ConnectionID = newConnectionID
	s.IsConnected = true
	s.DisconnectedAt = time.Time{}
	return *s, true
}

// MarkDisconnected flags the session as disconnected without removing it,
// so a grace-period reconnect can still find it.
func (r *Registry) MarkDisconnected(id identity.Identity, at time.Time) (Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.sessions[id.Key()]
	if !ok {
		return Session{}, false
	}
	s.IsConnected = false
	s.DisconnectedAt = at
	return *s, true
}

// Discard removes the session entirely.
func (r *Registry) Discard(id identity.Identity) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, id.Key())
}
