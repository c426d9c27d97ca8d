package http

import (
	stdhttp "net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chessroom/server/internal/config"
	"github.com/chessroom/server/internal/engine"
	"github.com/chessroom/server/internal/eventbus"
	"github.com/chessroom/server/internal/identity"
	"github.com/chessroom/server/internal/roomstore"
	"github.com/chessroom/server/internal/session"
)

// NewServer builds the HTTP server exposing the public REST surface and the
// WebSocket transport.
func NewServer(
	eng *engine.Engine,
	bus *eventbus.Bus,
	sessions *session.Registry,
	resolver *identity.Resolver,
	store *roomstore.Store,
	cfg config.Config,
	logger *zerolog.Logger,
) *stdhttp.Server {
	if cfg.Production() {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery(), LoggerMiddleware(logger), corsMiddleware(cfg.ClientURLs), rateLimitMiddleware())

	api := NewAPIHandlers(store, logger)
	rooms := NewRoomHandlers(store, logger)

	router.GET("/health", api.Health)
	router.GET("/api/stats", api.Stats)
	router.GET("/api/rooms/listings", rooms.ListListings)
	router.GET("/api/rooms/:roomId", rooms.GetRoom)

	ws := NewWSHandler(eng, bus, sessions, resolver, logger)
	router.GET("/ws", gin.WrapH(ws))

	return &stdhttp.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: cfg.ReadHeaderTimeout,
	}
}
