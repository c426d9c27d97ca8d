package roomstore

import "github.com/chessroom/server/internal/identity"

// State is a room's lifecycle state, monotonic except via deletion.
type State string

const (
	StateWaitingForPlayer State = "waiting_for_player"
	StateInProgress       State = "in_progress"
	StateFinished         State = "finished"
)

// GameStatus is the embedded game's terminal/non-terminal status.
type GameStatus string

const (
	GameStatusActive     GameStatus = "active"
	GameStatusCheckmate  GameStatus = "checkmate"
	GameStatusStalemate  GameStatus = "stalemate"
	GameStatusDraw       GameStatus = "draw"
	GameStatusResigned   GameStatus = "resigned"
	GameStatusTimeout    GameStatus = "timeout"
	GameStatusAbandoned  GameStatus = "abandoned"
)

// Side names a chess color.
type Side string

const (
	White Side = "white"
	Black Side = "black"
)

// TimeControl is a room's clock configuration, nil when untimed.
type TimeControl struct {
	InitialMs   int64
	IncrementMs int64
}

// Settings is the configurable subset of a room, per the data model.
type Settings struct {
	TimeControl     *TimeControl
	AllowSpectators bool
	AllowJoin       bool
	IsPrivate       bool
	RoomName        string
	IsLocked        bool
	PasswordHash    string
}

// MoveRecord is one entry in a game's move history.
type MoveRecord struct {
	From          string
	To            string
	SAN           string
	PositionAfter string
	Timestamp     int64
	Promotion     string
}

// Game is the embedded game record created on admission of the second
// player. History holds the move list in UCI form (e.g. "e2e4"), the form
// the Chess Rules Adapter replays from the starting position; Moves holds
// the richer wire-facing record.
type Game struct {
	Position    string
	Turn        Side
	History     []string
	Moves       []MoveRecord
	Status      GameStatus
	Winner      Side
	WhiteTimeMs *int64
	BlackTimeMs *int64
	LastMoveAt  int64
	StartedAt   int64
}

// Spectator is one entry in a room's spectator set.
type Spectator struct {
	Identity identity.Identity
	Name     string
}

// Room is the aggregate the Room Store owns: a lobby/game pair keyed by a
// short, collision-resistant id. Every mutation happens inside the owning
// actor's critical section (see Store).
type Room struct {
	RoomID       string
	HostID       identity.Identity
	HostName     string
	OpponentID   identity.Identity
	OpponentName string
	Spectators   map[string]Spectator
	State        State
	CreatedAt    int64
	LastActivity int64
	Game         *Game
	Settings     Settings

	// DrawOfferer holds the identity that most recently offered a draw, or
	// the zero Identity when no offer is outstanding. Cleared on every
	// move, resignation, leave, or game-ending transition.
	DrawOfferer identity.Identity
}

// clone deep-copies a room so snapshots handed out by the store can never
// be mutated by a reader while the owning actor keeps working.
func (r *Room) clone() *Room {
	if r == nil {
		return nil
	}
	out := *r
	out.Spectators = make(map[string]Spectator, len(r.Spectators))
	for k, v := range r.Spectators {
		out.Spectators[k] = v
	}
	if r.Game != nil {
		g := *r.Game
		g.History = append([]string(nil), r.Game.History...)
		g.Moves = append([]MoveRecord(nil), r.Game.Moves...)
		if r.Game.WhiteTimeMs != nil {
			v := *r.Game.WhiteTimeMs
			g.WhiteTimeMs = &v
		}
		if r.Game.BlackTimeMs != nil {
			v := *r.Game.BlackTimeMs
			g.BlackTimeMs = &v
		}
		out.Game = &g
	}
	return &out
}

// PlayerCount reports how many of {host, opponent} are seated, 1 or 2.
func (r *Room) PlayerCount() int {
	if r.OpponentID.IsZero() && r.OpponentName == "" {
		return 1
	}
	return 2
}

// IsPlayer reports whether id is the host or opponent of this room.
func (r *Room) IsPlayer(id identity.Identity) bool {
	return r.HostID.Equal(id) || (r.PlayerCount() == 2 && r.OpponentID.Equal(id))
}

// ColorOf returns the color assigned to id, or "" if id is not a player.
func (r *Room) ColorOf(id identity.Identity) Side {
	switch {
	case r.HostID.Equal(id):
		return White
	case r.PlayerCount() == 2 && r.OpponentID.Equal(id):
		return Black
	default:
		return ""
	}
}
