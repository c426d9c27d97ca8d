package engine

import (
	"github.com/chessroom/server/internal/roomstore"
	"github.com/chessroom/server/internal/wire"
)

func newGame(tc *roomstore.TimeControl, startedAt int64) *roomstore.Game {
	g := &roomstore.Game{
		Position:   startingFEN,
		Turn:       roomstore.White,
		Status:     roomstore.GameStatusActive,
		StartedAt:  startedAt,
		LastMoveAt: startedAt,
	}
	if tc != nil {
		w, b := tc.InitialMs, tc.InitialMs
		g.WhiteTimeMs = &w
		g.BlackTimeMs = &b
	}
	return g
}

const startingFEN = "rnbqkbnr/pppppppp/8/8/8/8/PPPPPPPP/RNBQKBNR w KQkq - 0 1"

func buildGameView(g *roomstore.Game) *wire.GameView {
	if g == nil {
		return nil
	}
	moves := make([]wire.MoveView, len(g.Moves))
	for i, m := range g.Moves {
		moves[i] = wire.MoveView{
			From:          m.From,
			To:            m.To,
			SAN:           m.SAN,
			PositionAfter: m.PositionAfter,
			Timestamp:     m.Timestamp,
			Promotion:     m.Promotion,
		}
	}
	return &wire.GameView{
		Position:    g.Position,
		Turn:        string(g.Turn),
		Moves:       moves,
		Status:      string(g.Status),
		Winner:      string(g.Winner),
		WhiteTimeMs: g.WhiteTimeMs,
		BlackTimeMs: g.BlackTimeMs,
		LastMoveAt:  g.LastMoveAt,
		StartedAt:   g.StartedAt,
	}
}

func BuildRoomView(r *roomstore.Room) *wire.RoomView {
	spectators := make([]string, 0, len(r.Spectators))
	for _, s := range r.Spectators {
		spectators = append(spectators, s.Name)
	}

	var tc *wire.TimeControl
	if r.Settings.TimeControl != nil {
		tc = &wire.TimeControl{
			InitialSeconds:   int(r.Settings.TimeControl.InitialMs / 1000),
			IncrementSeconds: int(r.Settings.TimeControl.IncrementMs / 1000),
		}
	}

	return &wire.RoomView{
		RoomID:       r.RoomID,
		HostName:     r.HostName,
		OpponentName: r.OpponentName,
		Spectators:   spectators,
		State:        string(r.State),
		CreatedAt:    r.CreatedAt,
		LastActivity: r.LastActivity,
		Game:         buildGameView(r.Game),
		Settings: wire.RoomSettingsView{
			TimeControl:     tc,
			AllowSpectators: r.Settings.AllowSpectators,
			AllowJoin:       r.Settings.AllowJoin,
			IsPrivate:       r.Settings.IsPrivate,
			RoomName:        r.Settings.RoomName,
			IsLocked:        r.Settings.IsLocked,
			HasPassword:     r.Settings.PasswordHash != "",
		},
	}
}
