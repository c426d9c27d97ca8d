// Package identity models the stable participant identity the rest of the
// system keys everything on: a verified user id, a client-persisted guest
// id, or (failing both) the raw connection handle.
package identity

import (
	"encoding/json"
	"fmt"
	"strings"
)

// Kind tags which variant an Identity holds.
type Kind int

const (
	// KindAuthenticated identities are backed by a verified bearer token.
	KindAuthenticated Kind = iota
	// KindGuest identities are backed by an opaque client-persisted string.
	KindGuest
	// KindConnection identities cannot survive reconnect.
	KindConnection
)

// Identity is a three-way sum type. Construct one with Authenticated, Guest,
// or Connection; dispatch on Kind() rather than comparing fields directly.
type Identity struct {
	kind  Kind
	value string
}

// Authenticated builds a stable identity for a verified user id.
func Authenticated(userID string) Identity {
	return Identity{kind: KindAuthenticated, value: userID}
}

// Guest builds a stable identity for a client-persisted opaque id.
func Guest(opaqueID string) Identity {
	return Identity{kind: KindGuest, value: opaqueID}
}

// Connection builds a transient identity tied to one connection handle.
// It does not survive reconnect.
func Connection(connID string) Identity {
	return Identity{kind: KindConnection, value: connID}
}

// Kind reports which variant this identity holds.
func (id Identity) Kind() Kind { return id.kind }

// Authenticated reports whether this identity was verified against the
// identity service.
func (id Identity) Authenticated() bool { return id.kind == KindAuthenticated }

// Survives reports whether this identity can be recovered across a
// reconnect (anything but a bare connection handle).
func (id Identity) Survives() bool { return id.kind != KindConnection }

// Key returns the stable string form used as a map key throughout the
// Session Registry and Room Store. Authenticated and guest identities are
// namespaced so a guest id can never collide with a user id.
func (id Identity) Key() string {
	switch id.kind {
	case KindAuthenticated:
		return "user:" + id.value
	case KindGuest:
		return "guest:" + id.value
	default:
		return "conn:" + id.value
	}
}

// Raw returns the underlying value without the namespace prefix.
func (id Identity) Raw() string { return id.value }

func (id Identity) String() string {
	switch id.kind {
	case KindAuthenticated:
		return fmt.Sprintf("Authenticated(%s)", id.value)
	case KindGuest:
		return fmt.Sprintf("Guest(%s)", id.value)
	default:
		return fmt.Sprintf("Connection(%s)", id.value)
	}
}

// Equal reports whether two identities refer to the same participant.
func (id Identity) Equal(other Identity) bool {
	return id.kind == other.kind && id.value == other.value
}

// IsZero reports whether id was never assigned (zero value).
func (id Identity) IsZero() bool { return id.value == "" && id.kind == KindAuthenticated }

// MarshalJSON encodes the identity as its namespaced Key, so anything that
// serializes an Identity (cache snapshots, logs) retains which participant
// it refers to instead of its unexported fields vanishing.
func (id Identity) MarshalJSON() ([]byte, error) {
	return json.Marshal(id.Key())
}

// UnmarshalJSON decodes an identity from its namespaced Key form.
func (id *Identity) UnmarshalJSON(data []byte) error {
	var key string
	if err := json.Unmarshal(data, &key); err != nil {
		return err
	}
	kind, value, ok := strings.Cut(key, ":")
	if !ok {
		return fmt.Errorf("identity: malformed key %q", key)
	}
	switch kind {
	case "user":
		*id = Authenticated(value)
	case "guest":
		*id = Guest(value)
	case "conn":
		*id = Connection(value)
	default:
		return fmt.Errorf("identity: unknown kind %q", kind)
	}
	return nil
}
