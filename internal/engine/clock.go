package engine

import (
	"context"
	"time"

	"github.com/chessroom/server/internal/identity"
	"github.com/chessroom/server/internal/roomstore"
	"github.com/chessroom/server/internal/wire"
)

// sweepInterval bounds how long a flag-fall against a silent player can go
// undetected; the concurrency model requires detection no later than 1s
// after true expiry, so 400ms leaves headroom for scheduling jitter.
const sweepInterval = 400 * time.Millisecond

// chargeClock deducts elapsed time from mover's clock and adds the
// increment, mutating g in place. It reports whether the charge drove the
// clock to zero or below — the canonical flag-fall signal, detected at
// charge time per the Game Clock's accounting rule.
func (e *Engine) chargeClock(g *roomstore.Game, mover roomstore.Side, incrementMs, now int64) bool {
	clock := g.WhiteTimeMs
	if mover == roomstore.Black {
		clock = g.BlackTimeMs
	}
	if clock == nil {
		return false // untimed game
	}

	elapsed := now - g.LastMoveAt
	if elapsed < 0 {
		elapsed = 0
	}
	*clock -= elapsed
	fellBefore := *clock <= 0
	*clock += incrementMs
	return fellBefore
}

// sweepRooms is a lightweight recurring scan used as the required active
// sweep for every in-progress room with a time control configured: it
// detects flag-fall against a player who has gone silent instead of
// submitting a move, which chargeClock alone cannot see since it only runs
// when a move arrives.
func (e *Engine) sweepRooms(ctx context.Context) {
	ticker := time.NewTicker(sweepInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.sweepOnce(ctx)
		}
	}
}

func (e *Engine) sweepOnce(ctx context.Context) {
	for _, r := range e.store.Enumerate() {
		if r.State != roomstore.StateInProgress || r.Game == nil || r.Game.Status != roomstore.GameStatusActive {
			continue
		}
		if r.Settings.TimeControl == nil {
			continue
		}
		clock := r.Game.WhiteTimeMs
		if r.Game.Turn == roomstore.Black {
			clock = r.Game.BlackTimeMs
		}
		if clock == nil {
			continue
		}
		now := e.nowMs()
		remaining := *clock - (now - r.Game.LastMoveAt)
		if remaining > 0 {
			continue
		}
		e.flagFall(ctx, r.RoomID, r.Game.Turn)
	}
}

func (e *Engine) flagFall(ctx context.Context, roomID string, onMove roomstore.Side) {
	var events []Event
	err := e.store.Do(ctx, roomID, func(r *roomstore.Room) error {
		if r.State != roomstore.StateInProgress || r.Game == nil || r.Game.Status != roomstore.GameStatusActive {
			return nil
		}
		if r.Game.Turn != onMove {
			return nil // a move already arrived and advanced the turn
		}
		now := e.nowMs()
		clock := r.Game.WhiteTimeMs
		if onMove == roomstore.Black {
			clock = r.Game.BlackTimeMs
		}
		if clock != nil {
			*clock -= now - r.Game.LastMoveAt
		}
		r.Game.Status = roomstore.GameStatusTimeout
		r.Game.Winner = opposite(onMove)
		r.State = roomstore.StateFinished
		r.DrawOfferer = identity.Identity{}
		r.LastActivity = now
		events = append(events,
			roomEvent(roomID, wire.EventGameEnded, buildGameView(r.Game)),
			roomEvent(roomID, wire.EventRoomUpdated, BuildRoomView(r)),
		)
		return nil
	})
	if err == nil {
		e.Publish(events)
	}
}
