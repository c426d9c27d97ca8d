package http

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/chessroom/server/internal/engine"
	"github.com/chessroom/server/internal/identity"
	"github.com/chessroom/server/internal/roomstore"
	"github.com/chessroom/server/internal/wire"
)

// validator is satisfied by every wire request payload.
type validator interface {
	Validate() *wire.Error
}

func decodeRequest(data json.RawMessage, v validator) *wire.Error {
	if len(data) > 0 {
		if err := json.Unmarshal(data, v); err != nil {
			return wire.NewError(wire.CodeValidationFailed, "malformed request payload")
		}
	}
	return v.Validate()
}

// asWireError unwraps an engine error into the structured form the wire
// protocol requires. Engine methods return a *wire.Error, or
// roomstore.ErrNotFound for an unknown room, which maps to not_found; any
// other error becomes internal.
func asWireError(err error) *wire.Error {
	if werr, ok := err.(*wire.Error); ok {
		return werr
	}
	if errors.Is(err, roomstore.ErrNotFound) {
		return wire.NewError(wire.CodeNotFound, "room not found")
	}
	return wire.NewError(wire.CodeInternal, err.Error())
}

// dispatch maps one inbound request to a Room State Machine call, fans out
// whatever events the call produced, and returns the acknowledgement (or
// structured error) to write back on this connection. It is the chess
// analogue of the teacher's inboundToCommand/outboundFromEvent pair, but
// since every request here already corresponds to a typed Engine method
// there is no intermediate command value — the mapping is direct.
func (h *WSHandler) dispatch(ctx context.Context, id identity.Identity, connID string, in wire.Inbound) *wire.Outbound {
	ack := func(data any) *wire.Outbound {
		return &wire.Outbound{Type: wire.OutboundTypeAck, ID: in.ID, Data: data}
	}
	fail := func(werr *wire.Error) *wire.Outbound {
		return &wire.Outbound{Type: wire.OutboundTypeError, ID: in.ID, Error: werr}
	}

	switch in.Type {
	case wire.RequestPing:
		return ack(map[string]int64{"timestamp": h.engine.NowMs()})

	case wire.RequestRoomCreate:
		var req wire.RoomCreateRequest
		if werr := decodeRequest(in.Data, &req); werr != nil {
			return fail(werr)
		}
		result, events, err := h.engine.Create(ctx, id, connID, req.PlayerName, req.Settings)
		if err != nil {
			return fail(asWireError(err))
		}
		h.engine.Publish(events)
		return ack(map[string]any{
			"room":     engine.BuildRoomView(result.Room),
			"playerId": result.PlayerID,
			"color":    string(result.Color),
		})

	case wire.RequestRoomJoin:
		var req wire.RoomJoinRequest
		if werr := decodeRequest(in.Data, &req); werr != nil {
			return fail(werr)
		}
		result, events, err := h.engine.Join(ctx, id, connID, req.RoomID, req.PlayerName, req.Password)
		if err != nil {
			return fail(asWireError(err))
		}
		h.engine.Publish(events)
		return ack(map[string]any{
			"room":     engine.BuildRoomView(result.Room),
			"playerId": result.PlayerID,
			"color":    string(result.Color),
		})

	case wire.RequestRoomSpectate:
		var req wire.RoomSpectateRequest
		if werr := decodeRequest(in.Data, &req); werr != nil {
			return fail(werr)
		}
		result, events, err := h.engine.Spectate(ctx, id, connID, req.RoomID, req.SpectatorName, req.Password)
		if err != nil {
			return fail(asWireError(err))
		}
		h.engine.Publish(events)
		return ack(map[string]any{
			"room":     engine.BuildRoomView(result.Room),
			"playerId": result.PlayerID,
		})

	case wire.RequestRoomLeave:
		events, err := h.engine.Leave(ctx, id, "left")
		if err != nil {
			return fail(asWireError(err))
		}
		h.engine.Publish(events)
		return ack(map[string]any{})

	case wire.RequestRoomKick:
		var req wire.RoomKickRequest
		if werr := decodeRequest(in.Data, &req); werr != nil {
			return fail(werr)
		}
		events, err := h.engine.KickSpectator(ctx, id, req.RoomID, req.TargetID)
		if err != nil {
			return fail(asWireError(err))
		}
		h.engine.Publish(events)
		return ack(map[string]any{})

	case wire.RequestRoomLock:
		var req wire.RoomLockRequest
		if werr := decodeRequest(in.Data, &req); werr != nil {
			return fail(werr)
		}
		events, err := h.engine.LockRoom(ctx, id, req.RoomID, req.Locked, req.Password)
		if err != nil {
			return fail(asWireError(err))
		}
		h.engine.Publish(events)
		return ack(map[string]any{})

	case wire.RequestRoomUpdateSettings:
		var req wire.RoomUpdateSettingsRequest
		if werr := decodeRequest(in.Data, &req); werr != nil {
			return fail(werr)
		}
		events, err := h.engine.UpdateSettings(ctx, id, req.RoomID, req.Settings)
		if err != nil {
			return fail(asWireError(err))
		}
		h.engine.Publish(events)
		return ack(map[string]any{})

	case wire.RequestGameMove:
		var req wire.GameMoveRequest
		if werr := decodeRequest(in.Data, &req); werr != nil {
			return fail(werr)
		}
		result, events, err := h.engine.Move(ctx, id, req.RoomID, req.From, req.To, req.Promotion)
		if err != nil {
			return fail(asWireError(err))
		}
		h.engine.Publish(events)
		return ack(map[string]any{"move": result.Move, "gameState": result.State})

	case wire.RequestGameResign:
		var req wire.RoomIDOnlyRequest
		if werr := decodeRequest(in.Data, &req); werr != nil {
			return fail(werr)
		}
		events, err := h.engine.Resign(ctx, id, req.RoomID)
		if err != nil {
			return fail(asWireError(err))
		}
		h.engine.Publish(events)
		return ack(map[string]any{})

	case wire.RequestGameOfferDraw:
		var req wire.RoomIDOnlyRequest
		if werr := decodeRequest(in.Data, &req); werr != nil {
			return fail(werr)
		}
		events, err := h.engine.OfferDraw(ctx, id, req.RoomID)
		if err != nil {
			return fail(asWireError(err))
		}
		h.engine.Publish(events)
		return ack(map[string]any{})

	case wire.RequestGameAcceptDraw:
		var req wire.RoomIDOnlyRequest
		if werr := decodeRequest(in.Data, &req); werr != nil {
			return fail(werr)
		}
		events, err := h.engine.AcceptDraw(ctx, id, req.RoomID)
		if err != nil {
			return fail(asWireError(err))
		}
		h.engine.Publish(events)
		return ack(map[string]any{})

	case wire.RequestGameDeclineDraw:
		var req wire.RoomIDOnlyRequest
		if werr := decodeRequest(in.Data, &req); werr != nil {
			return fail(werr)
		}
		events, err := h.engine.DeclineDraw(ctx, id, req.RoomID)
		if err != nil {
			return fail(asWireError(err))
		}
		h.engine.Publish(events)
		return ack(map[string]any{})

	case wire.RequestChatSend:
		var req wire.ChatSendRequest
		if werr := decodeRequest(in.Data, &req); werr != nil {
			return fail(werr)
		}
		events, err := h.engine.Chat(ctx, id, req.RoomID, req.Message, req.ChatType)
		if err != nil {
			return fail(asWireError(err))
		}
		h.engine.Publish(events)
		return ack(map[string]any{})

	case wire.RequestSessionRestore:
		result, events, restored, err := h.engine.RestoreSession(ctx, id, connID)
		if err != nil {
			return fail(asWireError(err))
		}
		if !restored {
			return fail(wire.NewError(wire.CodeNotConnected, "no session to restore"))
		}
		h.engine.Publish(events)
		return ack(map[string]any{"session": result.Session, "room": result.Room})

	default:
		return fail(wire.NewError(wire.CodeValidationFailed, "unknown request type"))
	}
}
