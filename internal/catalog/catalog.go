// Package catalog implements the Public Catalog: a filtered, sorted
// projection of active rooms suitable for an anonymous browser to page
// through before joining.
package catalog

import (
	"sort"

	"github.com/chessroom/server/internal/roomstore"
	"github.com/chessroom/server/internal/wire"
)

// Filters narrows a Listings call. A nil/empty field means "no filter".
type Filters struct {
	State          string
	HasTimeControl *bool
}

// Listings returns the public projection of rooms visible to browsers:
// isPrivate=false AND allowJoin=true, optionally narrowed by state and by
// presence/absence of a time control, sorted by lastActivity descending.
// Passwords and spectator identities never appear in the result.
func Listings(store *roomstore.Store, f Filters) []wire.ListingView {
	rooms := store.Enumerate()

	out := make([]wire.ListingView, 0, len(rooms))
	for _, r := range rooms {
		if r.Settings.IsPrivate || !r.Settings.AllowJoin {
			continue
		}
		if f.State != "" && string(r.State) != f.State {
			continue
		}
		hasTC := r.Settings.TimeControl != nil
		if f.HasTimeControl != nil && hasTC != *f.HasTimeControl {
			continue
		}

		var tc *wire.TimeControl
		if r.Settings.TimeControl != nil {
			tc = &wire.TimeControl{
				InitialSeconds:   int(r.Settings.TimeControl.InitialMs / 1000),
				IncrementSeconds: int(r.Settings.TimeControl.IncrementMs / 1000),
			}
		}

		out = append(out, wire.ListingView{
			RoomID:         r.RoomID,
			RoomName:       r.Settings.RoomName,
			HostName:       r.HostName,
			State:          string(r.State),
			PlayerCount:    r.PlayerCount(),
			SpectatorCount: len(r.Spectators),
			TimeControl:    tc,
			CreatedAt:      r.CreatedAt,
			LastActivity:   r.LastActivity,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].LastActivity > out[j].LastActivity
	})
	return out
}

// Snapshot returns the single-room view for GET /api/rooms/:roomId, or
// false if the room does not exist or is private.
func Snapshot(store *roomstore.Store, roomID string) (wire.ListingView, bool) {
	room, ok := store.Get(roomID)
	if !ok || room.Settings.IsPrivate {
		return wire.ListingView{}, false
	}

	var tc *wire.TimeControl
	if room.Settings.TimeControl != nil {
		tc = &wire.TimeControl{
			InitialSeconds:   int(room.Settings.TimeControl.InitialMs / 1000),
			IncrementSeconds: int(room.Settings.TimeControl.IncrementMs / 1000),
		}
	}

	return wire.ListingView{
		RoomID:         room.RoomID,
		RoomName:       room.Settings.RoomName,
		HostName:       room.HostName,
		State:          string(room.State),
		PlayerCount:    room.PlayerCount(),
		SpectatorCount: len(room.Spectators),
		TimeControl:    tc,
		CreatedAt:      room.CreatedAt,
		LastActivity:   room.LastActivity,
	}, true
}
