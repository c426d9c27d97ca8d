package engine

import (
	"context"
	"time"

	"github.com/chessroom/server/internal/roomstore"
)

const (
	finishedRoomTTL = 30 * time.Minute
	waitingRoomTTL  = 60 * time.Minute
	gcInterval      = time.Minute
)

// Run starts the engine's background loops: the flag-fall sweep (§4.5) and
// idle-room garbage collection (§3 Lifecycle). It blocks until ctx is
// cancelled.
func (e *Engine) Run(ctx context.Context) {
	go e.sweepRooms(ctx)
	e.runGC(ctx)
}

func (e *Engine) runGC(ctx context.Context) {
	ticker := time.NewTicker(gcInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			e.collectIdleRooms(ctx)
		}
	}
}

func (e *Engine) collectIdleRooms(ctx context.Context) {
	now := e.nowMs()
	for _, r := range e.store.Enumerate() {
		idle := time.Duration(now-r.LastActivity) * time.Millisecond
		var stale bool
		switch r.State {
		case roomstore.StateFinished:
			stale = idle >= finishedRoomTTL
		case roomstore.StateWaitingForPlayer:
			stale = idle >= waitingRoomTTL
		}
		if !stale {
			continue
		}
		if err := e.store.Delete(ctx, r.RoomID); err == nil {
			e.Publish([]Event{catalogRefresh()})
		}
	}
}
