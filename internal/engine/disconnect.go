package engine

import (
	"context"
	"time"

	"github.com/chessroom/server/internal/identity"
	"github.com/chessroom/server/internal/session"
)

// HandleDisconnect reacts to a connection dropping. Spectators are
// discarded immediately, with no grace. Player sessions are marked
// disconnected and given disconnectGrace to reconnect via RestoreSession
// before the state machine applies leave semantics on their behalf.
func (e *Engine) HandleDisconnect(ctx context.Context, id identity.Identity) {
	sess, ok := e.sessions.Lookup(id)
	if !ok {
		return
	}

	if sess.Role == session.RoleSpectator {
		events, err := e.Leave(ctx, id, "disconnected")
		if err == nil {
			e.Publish(events)
		}
		return
	}

	e.sessions.MarkDisconnected(id, e.now())
	e.scheduleGrace(id)

	events := []Event{roomEvent(sess.RoomID, "player:disconnected", map[string]any{"playerId": id.Key(), "gracePeriod": int(disconnectGrace / time.Second)})}
	e.Publish(events)
}

func (e *Engine) scheduleGrace(id identity.Identity) {
	key := id.Key()
	e.graceMu <- struct{}{}
	if existing, ok := e.graceTimers[key]; ok {
		existing.Stop()
	}
	e.graceTimers[key] = time.AfterFunc(disconnectGrace, func() {
		e.onGraceExpired(id)
	})
	<-e.graceMu
}

func (e *Engine) cancelGrace(key string) {
	e.graceMu <- struct{}{}
	if t, ok := e.graceTimers[key]; ok {
		t.Stop()
		delete(e.graceTimers, key)
	}
	<-e.graceMu
}

func (e *Engine) onGraceExpired(id identity.Identity) {
	e.graceMu <- struct{}{}
	delete(e.graceTimers, id.Key())
	<-e.graceMu

	sess, ok := e.sessions.Lookup(id)
	if !ok || sess.IsConnected {
		return // already reconnected via RestoreSession
	}

	events, err := e.Leave(context.Background(), id, "disconnected")
	if err == nil {
		e.Publish(events)
	}
}
