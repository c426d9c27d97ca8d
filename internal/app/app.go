package app

import (
	"context"
	stdhttp "net/http"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/chessroom/server/internal/auth"
	"github.com/chessroom/server/internal/config"
	"github.com/chessroom/server/internal/engine"
	"github.com/chessroom/server/internal/eventbus"
	"github.com/chessroom/server/internal/identity"
	"github.com/chessroom/server/internal/roomstore"
	"github.com/chessroom/server/internal/session"
	transporthttp "github.com/chessroom/server/internal/transport/http"
)

// App wires together the Room & Session Engine and its HTTP/WebSocket
// transport.
type App struct {
	server          *stdhttp.Server
	shutdownTimeout time.Duration
	engine          *engine.Engine
	bus             *eventbus.Bus
	redis           *redis.Client
	log             *zerolog.Logger
}

// New constructs the application from resolved configuration.
func New(cfg config.Config, logger *zerolog.Logger) (*App, error) {
	var rdb *redis.Client
	cache := roomstore.Cache(roomstore.NoopCache{})
	if cfg.CacheEnabled() {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, err
		}
		rdb = redis.NewClient(opts)
		cache = roomstore.NewRedisCache(rdb)
		logger.Info().Msg("redis room cache enabled")
	}

	store := roomstore.New(cache, logger)
	sessions := session.NewRegistry()

	var redisPub *redis.Client
	if rdb != nil {
		redisPub = rdb
	}
	bus := eventbus.New(redisPub, logger)

	var jwtCfg *auth.JWTConfig
	if cfg.IdentityBackendEnabled() {
		jwtCfg = &auth.JWTConfig{Secret: []byte(cfg.JWTSecret)}
	}
	resolver := identity.NewResolver(jwtCfg)

	eng := engine.New(store, sessions, bus, logger)

	server := transporthttp.NewServer(eng, bus, sessions, resolver, store, cfg, logger)

	return &App{
		server:          server,
		shutdownTimeout: cfg.ShutdownTimeout,
		engine:          eng,
		bus:             bus,
		redis:           rdb,
		log:             logger,
	}, nil
}

// Run starts the background loops and the HTTP server, blocking until
// context cancellation or a fatal server error.
func (a *App) Run(ctx context.Context) error {
	serverErr := make(chan error, 1)

	engineCtx, cancelEngine := context.WithCancel(ctx)
	defer cancelEngine()
	go a.engine.Run(engineCtx)

	if a.redis != nil {
		a.bus.SubscribeRedis(engineCtx, a.redis)
	}

	go func() {
		if err := a.server.ListenAndServe(); err != nil && err != stdhttp.ErrServerClosed {
			serverErr <- err
			return
		}
		serverErr <- nil
	}()

	select {
	case err := <-serverErr:
		a.cleanup()
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.shutdownTimeout)
		defer cancel()

		a.log.Info().Msg("shutting down http server")
		if err := a.server.Shutdown(shutdownCtx); err != nil {
			a.cleanup()
			return err
		}

		a.cleanup()
		return <-serverErr
	}
}

func (a *App) cleanup() {
	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.log.Warn().Err(err).Msg("failed to close redis client")
		}
	}
}
