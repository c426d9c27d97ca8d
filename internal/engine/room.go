package engine

import (
	"context"

	"github.com/chessroom/server/internal/auth"
	"github.com/chessroom/server/internal/identity"
	"github.com/chessroom/server/internal/roomstore"
	"github.com/chessroom/server/internal/session"
	"github.com/chessroom/server/internal/wire"
)

// CreateResult is returned by Create on success.
type CreateResult struct {
	Room     *roomstore.Room
	PlayerID string
	Color    session.Color
}

// Create allocates a new room with id as host. It rejects if id already
// has a non-finished session anywhere.
func (e *Engine) Create(ctx context.Context, id identity.Identity, connID, playerName string, settings *wire.RoomSettings) (CreateResult, []Event, error) {
	if err := e.rejectIfActiveElsewhere(id, ""); err != nil {
		return CreateResult{}, nil, err
	}

	roomID := roomstore.NewRoomID()
	now := e.nowMs()
	room := &roomstore.Room{
		RoomID:       roomID,
		HostID:       id,
		HostName:     playerName,
		Spectators:   make(map[string]roomstore.Spectator),
		State:        roomstore.StateWaitingForPlayer,
		CreatedAt:    now,
		LastActivity: now,
		Settings:     settingsFromWire(settings),
	}

	err := e.store.Create(ctx, room)
	for attempt := 1; err == roomstore.ErrAlreadyExists && attempt < 5; attempt++ {
		room.RoomID = roomstore.NewRoomID()
		err = e.store.Create(ctx, room)
	}
	if err != nil {
		return CreateResult{}, nil, wire.NewError(wire.CodeInternal, "could not allocate room")
	}
	roomID = room.RoomID

	e.sessions.Register(id, playerName, roomID, session.RoleHost, connID, session.ColorWhite)
	e.bus.Join(roomID, connID)

	return CreateResult{Room: room, PlayerID: id.Key(), Color: session.ColorWhite}, nil, nil
}

// JoinResult is returned by Join on success.
type JoinResult struct {
	Room     *roomstore.Room
	PlayerID string
	Color    session.Color
}

// Join admits id as the opponent of roomID.
func (e *Engine) Join(ctx context.Context, id identity.Identity, connID, roomID, playerName, password string) (JoinResult, []Event, error) {
	roomID = roomstore.NormalizeRoomID(roomID)
	if err := e.rejectIfActiveElsewhere(id, roomID); err != nil {
		return JoinResult{}, nil, err
	}
	var result JoinResult
	var events []Event

	err := e.store.Do(ctx, roomID, func(r *roomstore.Room) error {
		if r.State != roomstore.StateWaitingForPlayer {
			return wire.NewError(wire.CodeRoomFull, "room is not accepting an opponent")
		}
		if !r.Settings.AllowJoin {
			return wire.NewError(wire.CodeJoinNotAllowed, "room is not accepting new players")
		}
		if r.HostID.Equal(id) {
			return wire.NewError(wire.CodeJoinNotAllowed, "host cannot join their own room as opponent")
		}
		if err := checkLock(r, password); err != nil {
			return err
		}

		r.OpponentID = id
		r.OpponentName = playerName
		r.State = roomstore.StateInProgress
		r.Game = newGame(r.Settings.TimeControl, e.nowMs())
		r.LastActivity = e.nowMs()

		events = append(events,
			roomEvent(roomID, wire.EventPlayerJoined, map[string]string{"playerId": id.Key(), "playerName": playerName}),
			roomEvent(roomID, wire.EventGameStarted, buildGameView(r.Game)),
			roomEvent(roomID, wire.EventRoomUpdated, BuildRoomView(r)),
		)
		result = JoinResult{Room: r, PlayerID: id.Key(), Color: session.ColorBlack}
		return nil
	})
	if err != nil {
		return JoinResult{}, nil, err
	}

	e.sessions.Register(id, playerName, roomID, session.RoleOpponent, connID, session.ColorBlack)
	e.bus.Join(roomID, connID)
	events = append(events, catalogRefresh())
	return result, events, nil
}

// SpectateResult is returned by Spectate on success.
type SpectateResult struct {
	Room     *roomstore.Room
	PlayerID string
}

// Spectate admits id as a spectator of roomID. Idempotent for the same
// identity — re-spectating just refreshes the display name.
func (e *Engine) Spectate(ctx context.Context, id identity.Identity, connID, roomID, spectatorName, password string) (SpectateResult, []Event, error) {
	roomID = roomstore.NormalizeRoomID(roomID)
	if err := e.rejectIfActiveElsewhere(id, roomID); err != nil {
		return SpectateResult{}, nil, err
	}
	var result SpectateResult
	var events []Event

	err := e.store.Do(ctx, roomID, func(r *roomstore.Room) error {
		if !r.Settings.AllowSpectators {
			return wire.NewError(wire.CodeSpectateNotAllowed, "room does not allow spectators")
		}
		if _, already := r.Spectators[id.Key()]; !already {
			if len(r.Spectators) >= maxSpectators {
				return wire.NewError(wire.CodeSpectateNotAllowed, "room has reached its spectator limit")
			}
			if err := checkLock(r, password); err != nil {
				return err
			}
		}

		name := spectatorName
		if name == "" {
			name = "Spectator"
		}
		r.Spectators[id.Key()] = roomstore.Spectator{Identity: id, Name: name}
		r.LastActivity = e.nowMs()

		events = append(events, roomEvent(roomID, wire.EventSpectatorJoined, map[string]string{"spectatorId": id.Key(), "spectatorName": name}))
		result = SpectateResult{Room: r, PlayerID: id.Key()}
		return nil
	})
	if err != nil {
		return SpectateResult{}, nil, err
	}

	e.sessions.Register(id, spectatorName, roomID, session.RoleSpectator, connID, "")
	e.bus.Join(roomID, connID)
	return result, events, nil
}

// Leave applies the leave semantics for id's current session, based on
// role and room state. reason is included on room:closed for observability
// ("left" for a voluntary leave, "disconnected" for grace expiry).
func (e *Engine) Leave(ctx context.Context, id identity.Identity, reason string) ([]Event, error) {
	sess, ok := e.sessions.Lookup(id)
	if !ok {
		return nil, wire.NewError(wire.CodeNotConnected, "no active session")
	}
	roomID := sess.RoomID
	var events []Event

	err := e.store.Do(ctx, roomID, func(r *roomstore.Room) error {
		switch sess.Role {
		case session.RoleSpectator:
			delete(r.Spectators, id.Key())
			events = append(events, roomEvent(roomID, wire.EventSpectatorLeft, map[string]string{"spectatorId": id.Key()}))
			return nil
		case session.RoleHost:
			if r.State == roomstore.StateWaitingForPlayer {
				events = append(events, roomEvent(roomID, wire.EventRoomClosed, map[string]string{"reason": reason}))
				return errDeleteRoom
			}
			return e.abandon(r, id, reason, &events)
		default: // opponent
			return e.abandon(r, id, reason, &events)
		}
	})

	if err == errDeleteRoom {
		_ = e.store.Delete(ctx, roomID)
		events = append(events, catalogRefresh())
		err = nil
	}
	if err != nil {
		return nil, err
	}

	e.sessions.Discard(id)
	e.cancelGrace(id.Key())
	if sess.ConnectionID != "" {
		e.bus.Leave(roomID, sess.ConnectionID)
	}
	return events, nil
}

// abandon ends an in-progress game when a player leaves or their grace
// period expires: the game ends with status=abandoned, the other side
// wins. Spectator leave never reaches here.
func (e *Engine) abandon(r *roomstore.Room, id identity.Identity, reason string, events *[]Event) error {
	if r.State != roomstore.StateInProgress || r.Game == nil || r.Game.Status != roomstore.GameStatusActive {
		// game already over; nothing to abandon, but still drop the player
		// from the room's bookkeeping view.
		return nil
	}
	winner := roomstore.Black
	if r.ColorOf(id) == roomstore.Black {
		winner = roomstore.White
	}
	r.Game.Status = roomstore.GameStatusAbandoned
	r.Game.Winner = winner
	r.State = roomstore.StateFinished
	r.DrawOfferer = identity.Identity{}
	r.LastActivity = e.nowMs()

	*events = append(*events,
		roomEvent(r.RoomID, wire.EventGameEnded, buildGameView(r.Game)),
		roomEvent(r.RoomID, wire.EventRoomUpdated, BuildRoomView(r)),
	)
	return nil
}

// errDeleteRoom is a sentinel the store.Do closure returns to signal "this
// room must be deleted" without making Delete itself part of the critical
// section that's already running (Delete stops the actor goroutine that is
// the very thing executing this closure).
var errDeleteRoom = roomDeletionSentinel{}

type roomDeletionSentinel struct{}

func (roomDeletionSentinel) Error() string { return "room deletion requested" }

// rejectIfActiveElsewhere enforces that a stable identity participates in
// at most one non-finished room at a time. exceptRoomID is the room being
// joined/spectated, so re-admitting an identity already seated there is
// not a conflict; pass "" from Create, which has no such room yet.
func (e *Engine) rejectIfActiveElsewhere(id identity.Identity, exceptRoomID string) error {
	existing, ok := e.sessions.Lookup(id)
	if !ok || existing.RoomID == "" || existing.RoomID == exceptRoomID {
		return nil
	}
	if room, ok := e.store.Get(existing.RoomID); ok && room.State != roomstore.StateFinished {
		return wire.NewError(wire.CodeAlreadyInRoom, "identity already has an active room")
	}
	return nil
}

func checkLock(r *roomstore.Room, password string) error {
	if !r.Settings.IsLocked {
		return nil
	}
	if r.Settings.PasswordHash == "" {
		return wire.NewError(wire.CodeRoomLocked, "room is locked")
	}
	if password == "" {
		return wire.NewError(wire.CodePasswordRequired, "this room requires a password")
	}
	if err := auth.ComparePassword(r.Settings.PasswordHash, password); err != nil {
		return wire.NewError(wire.CodePasswordIncorrect, "incorrect password")
	}
	return nil
}
