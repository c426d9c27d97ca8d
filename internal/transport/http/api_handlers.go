package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chessroom/server/internal/roomstore"
)

// APIHandlers serves the server's unauthenticated REST surface: liveness
// and aggregate stats.
type APIHandlers struct {
	store *roomstore.Store
	log   *zerolog.Logger
}

// NewAPIHandlers builds a new API handlers instance.
func NewAPIHandlers(store *roomstore.Store, logger *zerolog.Logger) *APIHandlers {
	return &APIHandlers{store: store, log: logger}
}

// ErrorResponse is the JSON body returned on every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse is the liveness probe body.
type HealthResponse struct {
	Status string `json:"status"`
}

// StatsResponse summarizes current server load.
type StatsResponse struct {
	RoomCount      int `json:"roomCount"`
	PlayerCount    int `json:"playerCount"`
	SpectatorCount int `json:"spectatorCount"`
}

// Health handles GET /health.
func (h *APIHandlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, HealthResponse{Status: "ok"})
}

// Stats handles GET /api/stats.
func (h *APIHandlers) Stats(c *gin.Context) {
	rooms := h.store.Enumerate()
	stats := StatsResponse{RoomCount: len(rooms)}
	for _, r := range rooms {
		stats.PlayerCount += r.PlayerCount()
		stats.SpectatorCount += len(r.Spectators)
	}
	c.JSON(http.StatusOK, stats)
}
