package engine

import (
	"context"

	"github.com/chessroom/server/internal/chessrules"
	"github.com/chessroom/server/internal/identity"
	"github.com/chessroom/server/internal/roomstore"
	"github.com/chessroom/server/internal/wire"
)

// MoveResult is returned by Move on success.
type MoveResult struct {
	Move  wire.MoveView
	State *wire.GameView
}

// Move validates and applies a move on behalf of id, charging its clock,
// appending the move record, and ending the game if the Chess Rules
// Adapter reports a terminal condition or the mover's clock expired.
func (e *Engine) Move(ctx context.Context, id identity.Identity, roomID, from, to, promotion string) (MoveResult, []Event, error) {
	roomID = roomstore.NormalizeRoomID(roomID)
	var result MoveResult
	var events []Event

	err := e.store.Do(ctx, roomID, func(r *roomstore.Room) error {
		if !r.IsPlayer(id) {
			return wire.NewError(wire.CodeNotAPlayer, "only a seated player may move")
		}
		if r.State != roomstore.StateInProgress || r.Game == nil || r.Game.Status != roomstore.GameStatusActive {
			return wire.NewError(wire.CodeGameNotInProgress, "game is not in progress")
		}
		mover := r.ColorOf(id)
		if mover != r.Game.Turn {
			return wire.NewError(wire.CodeNotYourTurn, "it is not your turn")
		}

		res, moveErr := chessrules.Apply(r.Game.History, from, to, promotion)
		if moveErr != nil {
			switch moveErr {
			case chessrules.ErrPromotionRequired:
				return wire.NewError(wire.CodePromotionRequired, "pawn promotion requires a piece selection")
			default:
				return wire.NewError(wire.CodeInvalidMove, "illegal move")
			}
		}

		// Charge the mover's clock before recording the move: the clock
		// runs against the player on move, so expiration detected here is
		// canonical even though the move itself was legal.
		now := e.nowMs()
		var increment int64
		if r.Settings.TimeControl != nil {
			increment = r.Settings.TimeControl.IncrementMs
		}
		flagFell := e.chargeClock(r.Game, mover, increment, now)
		r.DrawOfferer = identity.Identity{}

		rec := roomstore.MoveRecord{
			From:          from,
			To:            to,
			SAN:           res.SAN,
			PositionAfter: res.FEN,
			Timestamp:     now,
			Promotion:     promotion,
		}
		r.Game.History = append(r.Game.History, res.UCI)
		r.Game.Moves = append(r.Game.Moves, rec)
		r.Game.Position = res.FEN
		r.Game.Turn = sideFromChessrules(res.Turn)
		r.Game.LastMoveAt = now
		r.LastActivity = now

		terminal := false
		switch {
		case flagFell:
			r.Game.Status = roomstore.GameStatusTimeout
			r.Game.Winner = opposite(mover)
			terminal = true
		case res.Outcome == chessrules.OutcomeCheckmate:
			r.Game.Status = roomstore.GameStatusCheckmate
			r.Game.Winner = mover
			terminal = true
		case res.Outcome == chessrules.OutcomeStalemate:
			r.Game.Status = roomstore.GameStatusStalemate
			terminal = true
		case res.Outcome == chessrules.OutcomeDraw:
			r.Game.Status = roomstore.GameStatusDraw
			terminal = true
		}
		if terminal {
			r.State = roomstore.StateFinished
		}

		moveView := wire.MoveView{From: from, To: to, SAN: res.SAN, PositionAfter: res.FEN, Timestamp: now, Promotion: promotion}
		result = MoveResult{Move: moveView, State: buildGameView(r.Game)}
		events = append(events, roomEvent(roomID, wire.EventGameMove, map[string]any{"move": moveView, "gameState": result.State}))
		if terminal {
			events = append(events,
				roomEvent(roomID, wire.EventGameEnded, buildGameView(r.Game)),
				roomEvent(roomID, wire.EventRoomUpdated, BuildRoomView(r)),
			)
		}
		return nil
	})
	if err != nil {
		return MoveResult{}, nil, err
	}
	return result, events, nil
}

// Resign ends the game in favor of the side opposite id.
func (e *Engine) Resign(ctx context.Context, id identity.Identity, roomID string) ([]Event, error) {
	roomID = roomstore.NormalizeRoomID(roomID)
	var events []Event

	err := e.store.Do(ctx, roomID, func(r *roomstore.Room) error {
		if !r.IsPlayer(id) {
			return wire.NewError(wire.CodeNotAPlayer, "only a seated player may resign")
		}
		if r.State != roomstore.StateInProgress || r.Game == nil || r.Game.Status != roomstore.GameStatusActive {
			return wire.NewError(wire.CodeGameNotInProgress, "game is not in progress")
		}
		r.Game.Status = roomstore.GameStatusResigned
		r.Game.Winner = opposite(r.ColorOf(id))
		r.State = roomstore.StateFinished
		r.DrawOfferer = identity.Identity{}
		r.LastActivity = e.nowMs()
		events = append(events,
			roomEvent(roomID, wire.EventGameEnded, buildGameView(r.Game)),
			roomEvent(roomID, wire.EventRoomUpdated, BuildRoomView(r)),
		)
		return nil
	})
	return events, err
}

// OfferDraw records id's offer in the room's single-slot draw negotiation.
func (e *Engine) OfferDraw(ctx context.Context, id identity.Identity, roomID string) ([]Event, error) {
	roomID = roomstore.NormalizeRoomID(roomID)
	var events []Event
	err := e.store.Do(ctx, roomID, func(r *roomstore.Room) error {
		if !r.IsPlayer(id) {
			return wire.NewError(wire.CodeNotAPlayer, "only a seated player may offer a draw")
		}
		if r.State != roomstore.StateInProgress || r.Game == nil || r.Game.Status != roomstore.GameStatusActive {
			return wire.NewError(wire.CodeGameNotInProgress, "game is not in progress")
		}
		r.DrawOfferer = id
		events = append(events, roomEvent(roomID, wire.EventDrawOffered, map[string]string{"offererId": id.Key()}))
		return nil
	})
	return events, err
}

// AcceptDraw ends the game as a draw; only the non-offering player may
// accept.
func (e *Engine) AcceptDraw(ctx context.Context, id identity.Identity, roomID string) ([]Event, error) {
	roomID = roomstore.NormalizeRoomID(roomID)
	var events []Event
	err := e.store.Do(ctx, roomID, func(r *roomstore.Room) error {
		if !r.IsPlayer(id) {
			return wire.NewError(wire.CodeNotAPlayer, "only a seated player may accept a draw")
		}
		if r.DrawOfferer.IsZero() {
			return wire.NewError(wire.CodeNoDrawOffer, "no draw offer is outstanding")
		}
		if r.DrawOfferer.Equal(id) {
			return wire.NewError(wire.CodeCannotAcceptOwnDraw, "cannot accept your own draw offer")
		}
		r.Game.Status = roomstore.GameStatusDraw
		r.Game.Winner = ""
		r.State = roomstore.StateFinished
		r.DrawOfferer = identity.Identity{}
		r.LastActivity = e.nowMs()
		events = append(events,
			roomEvent(roomID, wire.EventGameEnded, buildGameView(r.Game)),
			roomEvent(roomID, wire.EventRoomUpdated, BuildRoomView(r)),
		)
		return nil
	})
	return events, err
}

// DeclineDraw clears the outstanding offer.
func (e *Engine) DeclineDraw(ctx context.Context, id identity.Identity, roomID string) ([]Event, error) {
	roomID = roomstore.NormalizeRoomID(roomID)
	var events []Event
	err := e.store.Do(ctx, roomID, func(r *roomstore.Room) error {
		if !r.IsPlayer(id) {
			return wire.NewError(wire.CodeNotAPlayer, "only a seated player may decline a draw")
		}
		if r.DrawOfferer.IsZero() {
			return wire.NewError(wire.CodeNoDrawOffer, "no draw offer is outstanding")
		}
		r.DrawOfferer = identity.Identity{}
		events = append(events, roomEvent(roomID, wire.EventDrawDeclined, nil))
		return nil
	})
	return events, err
}

func opposite(s roomstore.Side) roomstore.Side {
	if s == roomstore.White {
		return roomstore.Black
	}
	return roomstore.White
}
