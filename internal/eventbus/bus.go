// Package eventbus fans out server-initiated events to subscribed
// connections: per-room topics for state deltas, a server-wide topic for
// the public catalog's "something changed, refetch" signal, and
// addressable delivery to one connection (used for kicks).
//
// Delivery never blocks a producer on a slow consumer — each connection has
// a bounded mailbox, and a full mailbox drops the event rather than stall
// the room's critical section, mirroring how a broadcast to many
// connections must never let one laggard back-pressure everyone else.
package eventbus

import (
	"context"
	"sync"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/chessroom/server/internal/wire"
)

const mailboxSize = 64

// Bus is the Event Bus. It holds no room or game knowledge — callers pass
// fully-formed wire.Outbound events; the bus only knows how to route them.
type Bus struct {
	mu      sync.RWMutex
	conns   map[string]chan *wire.Outbound
	rooms   map[string]map[string]struct{} // roomID -> set of connIDs
	global  map[string]struct{}            // connIDs subscribed to server-wide events

	redisPub *redis.Client
	log      *zerolog.Logger
}

// New builds an Event Bus. redisPub may be nil; when set, PublishGlobal
// additionally publishes to a Redis channel so other server processes
// observe the same server-wide signal.
func New(redisPub *redis.Client, logger *zerolog.Logger) *Bus {
	return &Bus{
		conns:    make(map[string]chan *wire.Outbound),
		rooms:    make(map[string]map[string]struct{}),
		global:   make(map[string]struct{}),
		redisPub: redisPub,
		log:      logger,
	}
}

// redisListUpdatedChannel is the pub/sub channel used to fan the
// room:list-updated signal out to every server process sharing the cache.
const redisListUpdatedChannel = "chessroom:room-list-updated"

// Register creates a mailbox for a new connection and returns it. The
// transport layer's write loop reads from this channel.
func (b *Bus) Register(connID string) <-chan *wire.Outbound {
	b.mu.Lock()
	defer b.mu.Unlock()
	ch := make(chan *wire.Outbound, mailboxSize)
	b.conns[connID] = ch
	b.global[connID] = struct{}{}
	return ch
}

// Unregister removes a connection from every room topic and the global
// topic, and closes its mailbox.
func (b *Bus) Unregister(connID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ch, ok := b.conns[connID]; ok {
		close(ch)
		delete(b.conns, connID)
	}
	delete(b.global, connID)
	for roomID, members := range b.rooms {
		delete(members, connID)
		if len(members) == 0 {
			delete(b.rooms, roomID)
		}
	}
}

// Join subscribes connID to roomID's topic.
func (b *Bus) Join(roomID, connID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	members, ok := b.rooms[roomID]
	if !ok {
		members = make(map[string]struct{})
		b.rooms[roomID] = members
	}
	members[connID] = struct{}{}
}

// Leave unsubscribes connID from roomID's topic.
func (b *Bus) Leave(roomID, connID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if members, ok := b.rooms[roomID]; ok {
		delete(members, connID)
		if len(members) == 0 {
			delete(b.rooms, roomID)
		}
	}
}

// Publish delivers event to every connection subscribed to roomID, in the
// order Publish is called for that room — callers are expected to call
// Publish for a room's events only from inside that room's critical
// section exit path, which is what gives total ordering per room.
func (b *Bus) Publish(roomID string, event *wire.Outbound) {
	b.mu.RLock()
	members := b.rooms[roomID]
	targets := make([]chan *wire.Outbound, 0, len(members))
	for connID := range members {
		if ch, ok := b.conns[connID]; ok {
			targets = append(targets, ch)
		}
	}
	b.mu.RUnlock()

	for _, ch := range targets {
		b.deliver(ch, event)
	}
}

// PublishTo delivers event to exactly one connection, addressable by id.
// Used for room:kicked, which must reach the target even though they are
// about to be removed from the room's subscriber set.
func (b *Bus) PublishTo(connID string, event *wire.Outbound) {
	b.mu.RLock()
	ch, ok := b.conns[connID]
	b.mu.RUnlock()
	if ok {
		b.deliver(ch, event)
	}
}

// PublishGlobal delivers event to every connected client, best-effort.
// Duplicates are acceptable, per the server-wide topic's contract.
func (b *Bus) PublishGlobal(ctx context.Context, event *wire.Outbound) {
	b.mu.RLock()
	targets := make([]chan *wire.Outbound, 0, len(b.global))
	for connID := range b.global {
		if ch, ok := b.conns[connID]; ok {
			targets = append(targets, ch)
		}
	}
	b.mu.RUnlock()

	for _, ch := range targets {
		b.deliver(ch, event)
	}

	if b.redisPub != nil {
		if err := b.redisPub.Publish(ctx, redisListUpdatedChannel, "1").Err(); err != nil && b.log != nil {
			b.log.Warn().Err(err).Msg("redis publish room-list-updated failed")
		}
	}
}

// SubscribeRedis starts a goroutine that republishes the cross-process
// room:list-updated signal locally until ctx is cancelled. Call once per
// process when a Redis client is configured.
func (b *Bus) SubscribeRedis(ctx context.Context, rdb *redis.Client) {
	sub := rdb.Subscribe(ctx, redisListUpdatedChannel)
	ch := sub.Channel()
	go func() {
		defer sub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case _, ok := <-ch:
				if !ok {
					return
				}
				b.PublishGlobal(ctx, &wire.Outbound{
					Type:  wire.OutboundTypeEvent,
					Event: wire.EventRoomListUpdated,
				})
			}
		}
	}()
}

func (b *Bus) deliver(ch chan *wire.Outbound, event *wire.Outbound) {
	select {
	case ch <- event:
	default:
		if b.log != nil {
			b.log.Warn().Str("event", event.Event).Msg("event bus mailbox full, dropping event")
		}
	}
}
