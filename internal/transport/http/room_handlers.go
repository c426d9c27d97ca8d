package http

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"

	"github.com/chessroom/server/internal/catalog"
	"github.com/chessroom/server/internal/roomstore"
)

// RoomHandlers serves the Public Catalog over REST, for browsers that want
// to list or preview rooms before opening a WebSocket connection.
type RoomHandlers struct {
	store *roomstore.Store
	log   *zerolog.Logger
}

// NewRoomHandlers builds a new room handlers instance.
func NewRoomHandlers(store *roomstore.Store, logger *zerolog.Logger) *RoomHandlers {
	return &RoomHandlers{store: store, log: logger}
}

// ListListings handles GET /api/rooms/listings.
func (h *RoomHandlers) ListListings(c *gin.Context) {
	f := catalog.Filters{State: c.Query("state")}
	if raw := c.Query("hasTimeControl"); raw != "" {
		if v, err := strconv.ParseBool(raw); err == nil {
			f.HasTimeControl = &v
		}
	}

	listings := catalog.Listings(h.store, f)
	c.JSON(http.StatusOK, listings)
}

// GetRoom handles GET /api/rooms/:roomId.
func (h *RoomHandlers) GetRoom(c *gin.Context) {
	view, ok := catalog.Snapshot(h.store, c.Param("roomId"))
	if !ok {
		c.JSON(http.StatusNotFound, ErrorResponse{Error: "room not found"})
		return
	}
	c.JSON(http.StatusOK, view)
}
