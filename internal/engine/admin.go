package engine

import (
	"context"

	"github.com/chessroom/server/internal/auth"
	"github.com/chessroom/server/internal/identity"
	"github.com/chessroom/server/internal/roomstore"
	"github.com/chessroom/server/internal/wire"
)

func (e *Engine) hashPassword(password string) (string, error) {
	return auth.HashPassword(password)
}

// KickSpectator removes the spectator whose namespaced Key is targetKey
// from roomID. Only the host may kick, and only a spectator may be kicked —
// players are unkickable to prevent griefing mid-game. Matching uses Key(),
// never Raw(): Raw() drops the Kind discriminator, so a client could
// otherwise pick a guestId equal to the host's raw id to dodge the
// seated-player check. The wire protocol carries the target's Key, as
// broadcast on spectator:joined; resolution against the room's spectator
// set happens here rather than at the transport layer.
func (e *Engine) KickSpectator(ctx context.Context, id identity.Identity, roomID, targetKey string) ([]Event, error) {
	roomID = roomstore.NormalizeRoomID(roomID)
	var events []Event
	var target identity.Identity

	err := e.store.Do(ctx, roomID, func(r *roomstore.Room) error {
		if !r.HostID.Equal(id) {
			return wire.NewError(wire.CodeHostOnly, "only the host may kick")
		}
		if r.HostID.Key() == targetKey || r.OpponentID.Key() == targetKey {
			return wire.NewError(wire.CodeCannotKickPlayer, "cannot kick a seated player")
		}
		for _, sp := range r.Spectators {
			if sp.Identity.Key() == targetKey {
				target = sp.Identity
				break
			}
		}
		if target.IsZero() {
			return wire.NewError(wire.CodeNotFound, "target is not a spectator of this room")
		}
		delete(r.Spectators, target.Key())
		r.LastActivity = e.nowMs()
		events = append(events, roomEvent(roomID, wire.EventRoomUpdated, BuildRoomView(r)))
		return nil
	})
	if err != nil {
		return nil, err
	}

	sess, hasSession := e.sessions.Lookup(target)
	e.sessions.Discard(target)
	if hasSession && sess.ConnectionID != "" {
		events = append(events, targetEvent(sess.ConnectionID, wire.EventRoomKicked, map[string]string{"roomId": roomID}))
		e.bus.Leave(roomID, sess.ConnectionID)
	}
	events = append(events, catalogRefresh())
	return events, nil
}

// LockRoom toggles the host-only lock, optionally replacing the stored
// password hash. The plaintext password is hashed here and never kept.
func (e *Engine) LockRoom(ctx context.Context, id identity.Identity, roomID string, locked bool, password string) ([]Event, error) {
	roomID = roomstore.NormalizeRoomID(roomID)
	var events []Event

	err := e.store.Do(ctx, roomID, func(r *roomstore.Room) error {
		if !r.HostID.Equal(id) {
			return wire.NewError(wire.CodeHostOnly, "only the host may lock the room")
		}
		r.Settings.IsLocked = locked
		if password != "" {
			hash, hashErr := e.hashPassword(password)
			if hashErr != nil {
				return wire.NewError(wire.CodeInternal, "could not set room password")
			}
			r.Settings.PasswordHash = hash
		}
		r.LastActivity = e.nowMs()
		events = append(events, roomEvent(roomID, wire.EventRoomUpdated, BuildRoomView(r)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	events = append(events, catalogRefresh())
	return events, nil
}

// UpdateSettings merges a partial settings update. Host-only.
func (e *Engine) UpdateSettings(ctx context.Context, id identity.Identity, roomID string, partial *wire.RoomSettings) ([]Event, error) {
	roomID = roomstore.NormalizeRoomID(roomID)
	var events []Event
	catalogAffected := false

	err := e.store.Do(ctx, roomID, func(r *roomstore.Room) error {
		if !r.HostID.Equal(id) {
			return wire.NewError(wire.CodeHostOnly, "only the host may update settings")
		}
		if partial != nil && (partial.IsPrivate != nil || partial.AllowJoin != nil) {
			catalogAffected = true
		}
		r.Settings = mergeSettings(r.Settings, partial)
		r.LastActivity = e.nowMs()
		events = append(events, roomEvent(roomID, wire.EventRoomUpdated, BuildRoomView(r)))
		return nil
	})
	if err != nil {
		return nil, err
	}
	if catalogAffected {
		events = append(events, catalogRefresh())
	}
	return events, nil
}

// RestoreResult is returned by RestoreSession on success.
type RestoreResult struct {
	Session wire.SessionView
	Room    *wire.RoomView
}

// RestoreSession reconciles a reconnecting identity with its prior role.
// If the session is missing, or its room is gone or finished, the session
// is discarded and the caller is told there is nothing to restore.
func (e *Engine) RestoreSession(ctx context.Context, id identity.Identity, newConnID string) (RestoreResult, []Event, bool, error) {
	sess, ok := e.sessions.Lookup(id)
	if !ok {
		return RestoreResult{}, nil, false, nil
	}

	var roomView *wire.RoomView
	var events []Event
	err := e.store.Do(ctx, sess.RoomID, func(r *roomstore.Room) error {
		if r.State == roomstore.StateFinished {
			return errGone
		}
		r.LastActivity = e.nowMs()
		roomView = BuildRoomView(r)

		switch sess.Role {
		case "host", "opponent":
			events = append(events, roomEvent(sess.RoomID, wire.EventPlayerReconnected, map[string]string{"playerId": id.Key()}))
		default:
			events = append(events, roomEvent(sess.RoomID, wire.EventSpectatorJoined, map[string]string{"spectatorId": id.Key(), "spectatorName": sess.DisplayName}))
		}
		return nil
	})

	if err == errGone || err == roomstore.ErrNotFound {
		e.sessions.Discard(id)
		return RestoreResult{}, nil, false, nil
	}
	if err != nil {
		return RestoreResult{}, nil, false, err
	}

	e.cancelGrace(id.Key())
	newSess, _ := e.sessions.Rebind(id, newConnID)
	e.bus.Join(newSess.RoomID, newConnID)
	return RestoreResult{
		Session: wire.SessionView{RoomID: newSess.RoomID, Role: string(newSess.Role), Color: string(newSess.Color)},
		Room:    roomView,
	}, events, true, nil
}

var errGone = wire.NewError(wire.CodeNotFound, "room is gone")
