package engine

import (
	"context"

	"github.com/chessroom/server/internal/identity"
	"github.com/chessroom/server/internal/roomstore"
	"github.com/chessroom/server/internal/wire"
)

// Chat broadcasts a chat message within a room. public reaches every
// participant; private reaches only the two players and is rejected from
// a spectator. The server is the sole source of senderId/senderName/
// timestamp on the delivered message — the client never supplies them.
func (e *Engine) Chat(ctx context.Context, id identity.Identity, roomID, message, chatType string) ([]Event, error) {
	roomID = roomstore.NormalizeRoomID(roomID)
	sess, ok := e.sessions.Lookup(id)
	if !ok || sess.RoomID != roomID {
		return nil, wire.NewError(wire.CodeNotConnected, "not a participant of this room")
	}

	room, ok := e.store.Get(roomID)
	if !ok {
		return nil, wire.NewError(wire.CodeNotFound, "room not found")
	}

	if chatType == wire.ChatTypePrivate && !room.IsPlayer(id) {
		return nil, wire.NewError(wire.CodeNotAPlayer, "spectators cannot send private chat")
	}

	view := wire.ChatMessageView{
		RoomID:     roomID,
		SenderID:   id.Key(),
		SenderName: sess.DisplayName,
		Message:    message,
		ChatType:   chatType,
		Timestamp:  e.nowMs(),
	}

	if chatType == wire.ChatTypePrivate {
		var events []Event
		for _, playerID := range []identity.Identity{room.HostID, room.OpponentID} {
			if playerID.IsZero() {
				continue
			}
			if playerSess, ok := e.sessions.Lookup(playerID); ok && playerSess.ConnectionID != "" {
				events = append(events, targetEvent(playerSess.ConnectionID, wire.EventChatMessage, view))
			}
		}
		return events, nil
	}
	return []Event{roomEvent(roomID, wire.EventChatMessage, view)}, nil
}
