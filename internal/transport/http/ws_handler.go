package http

import (
	"context"
	"errors"
	"io"
	stdhttp "net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"github.com/rs/zerolog"

	"github.com/chessroom/server/internal/engine"
	"github.com/chessroom/server/internal/eventbus"
	"github.com/chessroom/server/internal/identity"
	"github.com/chessroom/server/internal/session"
	"github.com/chessroom/server/internal/utils"
	"github.com/chessroom/server/internal/wire"
)

// handshakeTimeout bounds how long a freshly accepted connection may stay
// silent before it must send its first message.
const handshakeTimeout = 20 * time.Second

// WSHandler upgrades HTTP connections to the wire protocol's WebSocket
// transport and bridges them to the Room State Machine.
type WSHandler struct {
	engine   *engine.Engine
	bus      *eventbus.Bus
	sessions *session.Registry
	resolver *identity.Resolver
	log      *zerolog.Logger
}

// NewWSHandler builds a new WebSocket handler.
func NewWSHandler(eng *engine.Engine, bus *eventbus.Bus, sessions *session.Registry, resolver *identity.Resolver, logger *zerolog.Logger) stdhttp.Handler {
	return &WSHandler{engine: eng, bus: bus, sessions: sessions, resolver: resolver, log: logger}
}

func (h *WSHandler) ServeHTTP(w stdhttp.ResponseWriter, r *stdhttp.Request) {
	ctx := r.Context()

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		h.log.Error().Err(err).Msg("ws accept error")
		return
	}
	defer conn.CloseNow()

	connID := utils.NewID()
	q := r.URL.Query()
	id := h.resolver.Resolve(q.Get("token"), q.Get("guestId"), connID)

	events := h.bus.Register(connID)
	defer h.bus.Unregister(connID)

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	errCh := make(chan error, 2)
	go func() {
		errCh <- h.readLoop(ctx, conn, id, connID)
	}()
	go func() {
		errCh <- h.writeLoop(ctx, conn, events)
	}()

	err = <-errCh
	cancel() // stop the other goroutine
	<-errCh

	h.engine.HandleDisconnect(context.Background(), id)

	status := websocket.StatusNormalClosure
	reason := "closing"
	if err != nil && !errors.Is(err, context.Canceled) {
		if errors.Is(err, io.EOF) {
			err = nil
		}
		if s := websocket.CloseStatus(err); s != 0 {
			status = s
		}
		if status == websocket.StatusNormalClosure || status == websocket.StatusGoingAway {
			err = nil
		}
		if err != nil {
			if status == websocket.StatusNormalClosure {
				status = websocket.StatusInternalError
			}
			reason = err.Error()
			h.log.Warn().Err(err).Str("conn_id", connID).Msg("ws connection closed with error")
		}
	}

	conn.Close(status, reason)
}

// readLoop decodes inbound requests and dispatches each to the Room State
// Machine. The very first read is bounded by handshakeTimeout; a client that
// connects but never sends anything is dropped rather than held open
// indefinitely.
func (h *WSHandler) readLoop(ctx context.Context, conn *websocket.Conn, id identity.Identity, connID string) error {
	first := true
	for {
		readCtx := ctx
		var cancelRead context.CancelFunc
		if first {
			readCtx, cancelRead = context.WithTimeout(ctx, handshakeTimeout)
		}

		var inbound wire.Inbound
		err := wsjson.Read(readCtx, conn, &inbound)
		if cancelRead != nil {
			cancelRead()
		}
		if err != nil {
			h.log.Warn().Err(err).Str("conn_id", connID).Msg("read ws inbound")
			return err
		}
		first = false

		outbound := h.dispatch(ctx, id, connID, inbound)
		if outbound == nil {
			continue
		}
		if err := wsjson.Write(ctx, conn, outbound); err != nil {
			return err
		}
	}
}

func (h *WSHandler) writeLoop(ctx context.Context, conn *websocket.Conn, events <-chan *wire.Outbound) error {
	for {
		select {
		case event, ok := <-events:
			if !ok {
				return nil
			}
			if err := wsjson.Write(ctx, conn, event); err != nil {
				h.log.Error().Err(err).Msg("write ws event")
				return err
			}
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
