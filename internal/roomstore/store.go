// Package roomstore owns the set of active rooms and the per-room
// serialization discipline every mutation must observe. The mechanism
// chosen here is a per-room goroutine draining a mailbox of closures —
// acceptable implementation (i) from the concurrency model: operations on
// different rooms proceed fully in parallel, while operations on the same
// room are strictly ordered with no interleaved read-modify-write.
package roomstore

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// ErrNotFound is returned by Do, Delete, and Touch for an unknown room.
var ErrNotFound = fmt.Errorf("room not found")

// ErrAlreadyExists is returned by Create when the room id is taken.
var ErrAlreadyExists = fmt.Errorf("room already exists")

type job struct {
	fn   func(*Room) error
	done chan error
}

// roomActor serializes every mutation of one room behind a single
// goroutine. snapshot is swapped atomically after each job so reads never
// need to cross the mailbox and never observe a partially-applied update.
type roomActor struct {
	mailbox  chan job
	snapshot atomic.Pointer[Room]
	stop     chan struct{}
}

func newRoomActor(initial *Room) *roomActor {
	a := &roomActor{
		mailbox: make(chan job, 64),
		stop:    make(chan struct{}),
	}
	a.snapshot.Store(initial.clone())
	go a.run(initial)
	return a
}

func (a *roomActor) run(room *Room) {
	for {
		select {
		case j := <-a.mailbox:
			err := j.fn(room)
			a.snapshot.Store(room.clone())
			j.done <- err
		case <-a.stop:
			return
		}
	}
}

// do enqueues fn to run inside this room's critical section and blocks
// until it completes. Cancelling ctx only stops waiting for the result —
// fn still runs to completion once it reaches the front of the mailbox, to
// avoid ever observing a torn mutation.
func (a *roomActor) do(ctx context.Context, fn func(*Room) error) error {
	j := job{fn: fn, done: make(chan error, 1)}
	select {
	case a.mailbox <- j:
	case <-a.stop:
		return ErrNotFound
	case <-ctx.Done():
		return ctx.Err()
	}
	select {
	case err := <-j.done:
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Store owns every active room, keyed by room id.
type Store struct {
	mu     sync.RWMutex
	rooms  map[string]*roomActor
	cache  Cache
	log    *zerolog.Logger
}

// New builds an empty Room Store. cache may be NoopCache{} when no
// external cache is configured.
func New(cache Cache, logger *zerolog.Logger) *Store {
	if cache == nil {
		cache = NoopCache{}
	}
	return &Store{rooms: make(map[string]*roomActor), cache: cache, log: logger}
}

// Create registers a brand-new room. Callers must have already picked a
// collision-resistant id and populated the initial Room value.
func (s *Store) Create(ctx context.Context, room *Room) error {
	s.mu.Lock()
	if _, exists := s.rooms[room.RoomID]; exists {
		s.mu.Unlock()
		return ErrAlreadyExists
	}
	actor := newRoomActor(room)
	s.rooms[room.RoomID] = actor
	s.mu.Unlock()

	if err := s.cache.Put(ctx, room); err != nil && s.log != nil {
		s.log.Warn().Err(err).Str("room_id", room.RoomID).Msg("room cache write-through failed")
	}
	return nil
}

// Do runs fn inside roomID's critical section, returning ErrNotFound if the
// room does not exist. fn may mutate the room in place; the caller is
// responsible for stamping LastActivity.
func (s *Store) Do(ctx context.Context, roomID string, fn func(*Room) error) error {
	actor := s.lookupActor(roomID)
	if actor == nil {
		return ErrNotFound
	}
	var cached *Room
	err := actor.do(ctx, func(r *Room) error {
		e := fn(r)
		cached = r
		return e
	})
	if err == nil && cached != nil {
		if cacheErr := s.cache.Put(ctx, cached); cacheErr != nil && s.log != nil {
			s.log.Warn().Err(cacheErr).Str("room_id", roomID).Msg("room cache write-through failed")
		}
	}
	return err
}

// Get returns a coherent snapshot of roomID without going through the
// mailbox: the actor publishes a fresh deep copy after every mutation, so
// reading it directly is race-free and never blocks on room traffic.
func (s *Store) Get(roomID string) (*Room, bool) {
	actor := s.lookupActor(roomID)
	if actor == nil {
		return nil, false
	}
	snap := actor.snapshot.Load()
	if snap == nil {
		return nil, false
	}
	return snap.clone(), true
}

// Touch refreshes lastActivity without any other mutation.
func (s *Store) Touch(ctx context.Context, roomID string, nowMs int64) error {
	return s.Do(ctx, roomID, func(r *Room) error {
		r.LastActivity = nowMs
		return nil
	})
}

// Delete stops roomID's actor and removes it from the store.
func (s *Store) Delete(ctx context.Context, roomID string) error {
	s.mu.Lock()
	actor, ok := s.rooms[roomID]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	delete(s.rooms, roomID)
	s.mu.Unlock()

	close(actor.stop)
	if err := s.cache.Delete(ctx, roomID); err != nil && s.log != nil {
		s.log.Warn().Err(err).Str("room_id", roomID).Msg("room cache delete failed")
	}
	return nil
}

// Enumerate returns a snapshot of every active room. Order is unspecified;
// callers needing a particular order (the catalog) sort the result.
func (s *Store) Enumerate() []*Room {
	s.mu.RLock()
	actors := make([]*roomActor, 0, len(s.rooms))
	for _, a := range s.rooms {
		actors = append(actors, a)
	}
	s.mu.RUnlock()

	out := make([]*Room, 0, len(actors))
	for _, a := range actors {
		if snap := a.snapshot.Load(); snap != nil {
			out = append(out, snap.clone())
		}
	}
	return out
}

func (s *Store) lookupActor(roomID string) *roomActor {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.rooms[roomID]
}
