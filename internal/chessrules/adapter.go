// Package chessrules adapts github.com/corentings/chess/v2 to the Room State
// Machine's move-validation needs: decode a from/to/promotion triple,
// apply it to a position, and report the resulting terminal status.
//
// Positions are never trusted as stored FEN across calls. Every Apply
// reconstructs the live game by replaying the UCI move history from the
// standard starting position, so there is never a stale *chess.Game lying
// around that could diverge from the move log.
package chessrules

import (
	"errors"
	"fmt"
	"strings"

	nchess "github.com/corentings/chess/v2"
)

// Sentinel errors. The Room State Machine maps these onto the wire error
// taxonomy; chessrules itself never knows about rooms or wire codes.
var (
	ErrIllegalMove       = errors.New("illegal_move")
	ErrPromotionRequired = errors.New("promotion_required")
	ErrGameNotActive     = errors.New("game_not_active")
)

// Color is the side to move, independent of the underlying library's type.
type Color string

const (
	White Color = "white"
	Black Color = "black"
)

// Outcome is the terminal status the adapter can report after a move.
type Outcome string

const (
	OutcomeNone      Outcome = ""
	OutcomeCheckmate Outcome = "checkmate"
	OutcomeStalemate Outcome = "stalemate"
	OutcomeDraw      Outcome = "draw"
)

// Result is what Apply returns on a successful move.
type Result struct {
	SAN        string
	UCI        string
	FEN        string
	Turn       Color
	InCheck    bool
	Outcome    Outcome
	// Winner is set only when Outcome is OutcomeCheckmate; empty for
	// stalemate/draw and for a non-terminal move.
	Winner Color
}

// Position reconstructs a game's live state from its move history and
// reports the side to move and whether that side is in check, without
// applying a move.
func Position(history []string) (fen string, turn Color, inCheck bool, err error) {
	game, err := replay(history)
	if err != nil {
		return "", "", false, err
	}
	pos := game.Position()
	return pos.String(), colorOf(pos.Turn()), lastMoveGaveCheck(game), nil
}

// Apply validates and applies a single move expressed as algebraic
// coordinates (from, to) plus an optional promotion piece letter
// (q, r, b, or n; empty when not promoting) against the position reached by
// replaying history. It never mutates shared state — history is the only
// input, and the caller is responsible for appending the returned UCI to
// its own move log on success.
func Apply(history []string, from, to, promotion string) (Result, error) {
	game, err := replay(history)
	if err != nil {
		return Result{}, err
	}
	pos := game.Position()

	uci := strings.ToLower(from + to + promotion)
	notation := nchess.UCINotation{}
	mv, decodeErr := notation.Decode(pos, uci)
	if decodeErr != nil {
		if promotion == "" && needsPromotion(pos, from, to) {
			return Result{}, ErrPromotionRequired
		}
		return Result{}, ErrIllegalMove
	}

	san := nchess.AlgebraicNotation{}.Encode(pos, mv)
	if err := game.Move(mv, nil); err != nil {
		if promotion == "" && needsPromotion(pos, from, to) {
			return Result{}, ErrPromotionRequired
		}
		return Result{}, ErrIllegalMove
	}

	newPos := game.Position()
	res := Result{
		SAN:     san,
		UCI:     uci,
		FEN:     newPos.String(),
		Turn:    colorOf(newPos.Turn()),
		InCheck: lastMoveGaveCheck(game),
	}

	switch game.Outcome() {
	case nchess.WhiteWon:
		res.Outcome = OutcomeCheckmate
		res.Winner = White
	case nchess.BlackWon:
		res.Outcome = OutcomeCheckmate
		res.Winner = Black
	case nchess.Draw:
		if game.Method() == nchess.Stalemate {
			res.Outcome = OutcomeStalemate
		} else {
			res.Outcome = OutcomeDraw
		}
	}

	return res, nil
}

// needsPromotion reports whether a pawn move from->to lands on the back
// rank without a promotion piece specified, the one case where a syntactically
// well-formed coordinate pair still needs more information from the client.
// It inspects the FEN board field directly rather than the library's square
// types, since all that matters here is "is there a pawn on `from`".
func needsPromotion(pos *nchess.Position, from, to string) bool {
	if len(from) != 2 || len(to) != 2 {
		return false
	}
	destRank := to[1]
	if destRank != '1' && destRank != '8' {
		return false
	}
	return pieceAt(pos.String(), from) == 'p'
}

// pieceAt returns the lowercase piece letter at coord ("e2") on the board
// described by a FEN's first field, or 0 if the square is empty.
func pieceAt(fen, coord string) byte {
	board := strings.SplitN(fen, " ", 2)[0]
	ranks := strings.Split(board, "/")
	targetRank := int('8' - coord[1])
	if targetRank < 0 || targetRank >= len(ranks) {
		return 0
	}
	targetFile := int(coord[0] - 'a')
	file := 0
	for _, c := range ranks[targetRank] {
		if c >= '1' && c <= '8' {
			file += int(c - '0')
			continue
		}
		if file == targetFile {
			if c >= 'A' && c <= 'Z' {
				return byte(c - 'A' + 'a')
			}
			return byte(c)
		}
		file++
	}
	return 0
}

// replay reconstructs a *chess.Game by pushing each UCI move in history onto
// a fresh game from the standard starting position. A history that fails to
// replay indicates a corrupted move log, which should never happen in
// practice; it is reported rather than panicking.
func replay(history []string) (*nchess.Game, error) {
	game := nchess.NewGame()
	for _, uci := range history {
		if err := game.PushNotationMove(uci, nchess.UCINotation{}, nil); err != nil {
			return nil, fmt.Errorf("replay move %q: %w", uci, err)
		}
	}
	return game, nil
}

// lastMoveGaveCheck reports whether the most recently played move in game
// put the side to move in check, i.e. whether game's current position is
// a check. *chess.Position exposes no public InCheck accessor, so this
// reads the Check tag the library itself attaches to the move that led
// here; an empty history (starting position) is never in check.
func lastMoveGaveCheck(game *nchess.Game) bool {
	moves := game.Moves()
	if len(moves) == 0 {
		return false
	}
	return moves[len(moves)-1].HasTag(nchess.Check)
}

func colorOf(c nchess.Color) Color {
	if c == nchess.White {
		return White
	}
	return Black
}
