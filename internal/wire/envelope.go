// Package wire defines the envelopes, request/event vocabulary, and payload
// validators shared by every transport that speaks to the Room & Session
// Engine. It mirrors the request/acknowledgement-plus-server-events shape:
// requests carry a payload and get back either a result or a structured
// error; the server also pushes unsolicited events tagged with a room id.
package wire

import "encoding/json"

// Inbound is the envelope for a client request arriving over the socket.
type Inbound struct {
	Type string          `json:"type"`
	ID   string          `json:"id,omitempty"`
	Data json.RawMessage `json:"data"`
}

// Outbound is the envelope for everything the server sends: an
// acknowledgement of a specific request (Type == OutboundTypeAck/Error,
// ID echoing the request) or a server-initiated event (Type ==
// OutboundTypeEvent, Event naming which one).
type Outbound struct {
	Type  string `json:"type"`
	ID    string `json:"id,omitempty"`
	Event string `json:"event,omitempty"`
	Data  any    `json:"data,omitempty"`
	Error *Error `json:"error,omitempty"`
}

const (
	OutboundTypeAck   = "ack"
	OutboundTypeEvent = "event"
	OutboundTypeError = "error"
)

// Error is a structured error delivered on a request's acknowledgement
// channel or, rarely, as an unsolicited error event.
type Error struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

func (e *Error) Error() string { return e.Code + ": " + e.Message }

func NewError(code, message string) *Error {
	return &Error{Code: code, Message: message}
}

// Request type names, verbatim from the logical request vocabulary.
const (
	RequestRoomCreate         = "room:create"
	RequestRoomJoin           = "room:join"
	RequestRoomSpectate       = "room:spectate"
	RequestRoomLeave          = "room:leave"
	RequestRoomKick           = "room:kick"
	RequestRoomLock           = "room:lock"
	RequestRoomUpdateSettings = "room:update-settings"
	RequestGameMove           = "game:move"
	RequestGameResign         = "game:resign"
	RequestGameOfferDraw      = "game:offer-draw"
	RequestGameAcceptDraw     = "game:accept-draw"
	RequestGameDeclineDraw    = "game:decline-draw"
	RequestChatSend           = "chat:send"
	RequestSessionRestore     = "session:restore"
	RequestPing               = "ping"
)

// Server-initiated event names.
const (
	EventRoomUpdated         = "room:updated"
	EventRoomClosed          = "room:closed"
	EventRoomKicked          = "room:kicked"
	EventRoomListUpdated     = "room:list-updated"
	EventGameStarted         = "game:started"
	EventGameMove            = "game:move"
	EventGameEnded           = "game:ended"
	EventGameSync            = "game:sync"
	EventPlayerJoined        = "player:joined"
	EventPlayerLeft          = "player:left"
	EventPlayerDisconnected  = "player:disconnected"
	EventPlayerReconnected   = "player:reconnected"
	EventSpectatorJoined     = "spectator:joined"
	EventSpectatorLeft       = "spectator:left"
	EventChatMessage         = "chat:message"
	EventDrawOffered         = "draw:offered"
	EventDrawDeclined        = "draw:declined"
)
