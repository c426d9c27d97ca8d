// Package engine implements the Room State Machine: the protocol core that
// owns room lifecycle, role admission, move validation, draw negotiation,
// resignation, kicks, locks, settings updates, and disconnect/reconnect
// reconciliation. Every operation takes (identity, roomId, ...) and
// returns a result plus the events produced, or an error — a *wire.Error,
// or roomstore.ErrNotFound when the room does not exist. It never panics on
// a rejected request.
package engine

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"github.com/chessroom/server/internal/chessrules"
	"github.com/chessroom/server/internal/eventbus"
	"github.com/chessroom/server/internal/roomstore"
	"github.com/chessroom/server/internal/session"
	"github.com/chessroom/server/internal/wire"
)

// disconnectGrace is how long a player session survives an involuntary
// disconnect before the state machine applies leave semantics on its
// behalf. Spectators get none.
const disconnectGrace = 60 * time.Second

// soft cap on spectators per room, mentioned as a requirement in the data
// model ("size unbounded but subject to a server-wide soft cap") without a
// specific number; 100 comfortably exceeds any realistic audience for one
// board while still bounding a single room's broadcast fan-out.
const maxSpectators = 100

// Engine is the Room State Machine.
type Engine struct {
	store       *roomstore.Store
	sessions    *session.Registry
	bus         *eventbus.Bus
	log         *zerolog.Logger
	now         func() time.Time
	graceMu     chan struct{} // serializes access to graceTimers
	graceTimers map[string]*time.Timer
}

// New builds a Room State Machine over the given Store, Session Registry,
// and Event Bus.
func New(store *roomstore.Store, sessions *session.Registry, bus *eventbus.Bus, logger *zerolog.Logger) *Engine {
	return &Engine{
		store:       store,
		sessions:    sessions,
		bus:         bus,
		log:         logger,
		now:         time.Now,
		graceMu:     make(chan struct{}, 1),
		graceTimers: make(map[string]*time.Timer),
	}
}

func (e *Engine) nowMs() int64 { return e.now().UnixMilli() }

// NowMs exposes the engine's clock to the transport layer, used only to
// answer ping without a round trip through any room's critical section.
func (e *Engine) NowMs() int64 { return e.nowMs() }

// Publish fans out events after the producing room critical section has
// already released, per the concurrency model's ordering requirement. The
// transport layer calls this with whatever an Engine method returned.
func (e *Engine) Publish(events []Event) {
	for _, ev := range events {
		switch {
		case ev.TargetConnID != "":
			e.bus.PublishTo(ev.TargetConnID, ev.Outbound)
		case ev.Global:
			e.bus.PublishGlobal(context.Background(), ev.Outbound)
		default:
			e.bus.Publish(ev.RoomID, ev.Outbound)
		}
	}
}

// Event is one broadcast produced by a committed operation.
type Event struct {
	RoomID       string
	Outbound     *wire.Outbound
	TargetConnID string
	Global       bool
}

func roomEvent(roomID, eventName string, data any) Event {
	return Event{RoomID: roomID, Outbound: &wire.Outbound{Type: wire.OutboundTypeEvent, Event: eventName, Data: data}}
}

func globalEvent(eventName string) Event {
	return Event{Global: true, Outbound: &wire.Outbound{Type: wire.OutboundTypeEvent, Event: eventName}}
}

func targetEvent(connID, eventName string, data any) Event {
	return Event{TargetConnID: connID, Outbound: &wire.Outbound{Type: wire.OutboundTypeEvent, Event: eventName, Data: data}}
}

// catalogRefresh is the server-wide "something changed" signal a
// catalog-affecting mutation produces alongside the room's own update.
func catalogRefresh() Event { return globalEvent(wire.EventRoomListUpdated) }

// settingsFromWire converts a validated wire.RoomSettings (possibly
// partial) into the store's Settings shape, defaulting anything absent.
func settingsFromWire(in *wire.RoomSettings) roomstore.Settings {
	out := roomstore.Settings{
		AllowSpectators: true,
		AllowJoin:       true,
	}
	if in == nil {
		return out
	}
	if in.TimeControl != nil {
		out.TimeControl = &roomstore.TimeControl{
			InitialMs:   int64(in.TimeControl.InitialSeconds) * 1000,
			IncrementMs: int64(in.TimeControl.IncrementSeconds) * 1000,
		}
	}
	if in.AllowSpectators != nil {
		out.AllowSpectators = *in.AllowSpectators
	}
	if in.AllowJoin != nil {
		out.AllowJoin = *in.AllowJoin
	}
	if in.IsPrivate != nil {
		out.IsPrivate = *in.IsPrivate
	}
	if in.RoomName != nil {
		out.RoomName = *in.RoomName
	}
	return out
}

func mergeSettings(cur roomstore.Settings, in *wire.RoomSettings) roomstore.Settings {
	if in == nil {
		return cur
	}
	if in.TimeControl != nil {
		cur.TimeControl = &roomstore.TimeControl{
			InitialMs:   int64(in.TimeControl.InitialSeconds) * 1000,
			IncrementMs: int64(in.TimeControl.IncrementSeconds) * 1000,
		}
	}
	if in.AllowSpectators != nil {
		cur.AllowSpectators = *in.AllowSpectators
	}
	if in.AllowJoin != nil {
		cur.AllowJoin = *in.AllowJoin
	}
	if in.IsPrivate != nil {
		cur.IsPrivate = *in.IsPrivate
	}
	if in.RoomName != nil {
		cur.RoomName = *in.RoomName
	}
	return cur
}

func sideFromChessrules(c chessrules.Color) roomstore.Side {
	if c == chessrules.White {
		return roomstore.White
	}
	return roomstore.Black
}
