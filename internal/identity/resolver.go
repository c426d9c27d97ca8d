package identity

import (
	"github.com/chessroom/server/internal/auth"
	"github.com/chessroom/server/internal/utils"
)

// Resolver turns handshake-time credentials into a stable Identity. It never
// rejects a connection on auth grounds: a missing or invalid token falls
// back to a guest id, and a missing guest id falls back to the raw
// connection handle.
type Resolver struct {
	jwtCfg *auth.JWTConfig
}

// NewResolver builds a Resolver. jwtCfg may be nil, in which case every
// token is treated as absent and resolution always falls back to guest or
// connection identity.
func NewResolver(jwtCfg *auth.JWTConfig) *Resolver {
	return &Resolver{jwtCfg: jwtCfg}
}

// Resolve implements the Identity Resolver's resolution order: verified
// token beats supplied guest id beats the bare connection handle.
func (r *Resolver) Resolve(token, guestID, connID string) Identity {
	if token != "" && r.jwtCfg != nil {
		if claims, err := auth.ValidateToken(r.jwtCfg, token); err == nil {
			return Authenticated(claims.UserID)
		}
	}
	if guestID != "" {
		return Guest(guestID)
	}
	return Connection(connID)
}

// NewGuestID mints an opaque id for a client that has none yet to persist.
func NewGuestID() string {
	return utils.NewID()
}
