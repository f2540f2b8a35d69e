package sse

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/ghostai/cache"
	"github.com/kasuganosora/ghostai/game/world"
	"go.uber.org/zap"
)

const defaultKeepalive = 30 * time.Second

// Rooms resolves a room id. *world.WorldManager satisfies it.
type Rooms interface {
	Get(id string) (*world.Room, error)
}

// Handler streams room snapshots as server-sent events.
type Handler struct {
	rooms     Rooms
	pubsub    cache.PubSub
	c         cache.Cache
	keepalive time.Duration
	logger    *zap.Logger
}

// NewHandler creates a new SSE Handler. c may be nil.
func NewHandler(rooms Rooms, pubsub cache.PubSub, c cache.Cache, logger *zap.Logger) *Handler {
	return &Handler{rooms: rooms, pubsub: pubsub, c: c, keepalive: defaultKeepalive, logger: logger}
}

// SetKeepalive changes the comment interval that keeps proxies from timing
// out idle streams.
func (h *Handler) SetKeepalive(d time.Duration) {
	if d > 0 {
		h.keepalive = d
	}
}

// ServeRoom handles GET /sse/rooms/:id.
// The stream opens with the cached snapshot (if any), then relays every
// snapshot the room publishes. It ends when the client disconnects or, at
// the next keepalive, once the room is gone.
func (h *Handler) ServeRoom(c *gin.Context) {
	id := c.Param("id")
	room, err := h.rooms.Get(id)
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}

	subCtx, subCancel := context.WithCancel(c.Request.Context())
	defer subCancel()

	msgCh, unsub, err := h.pubsub.Subscribe(subCtx, world.Channel(id))
	if err != nil {
		h.logger.Error("sse subscribe failed", zap.String("room_id", id), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "subscribe failed"})
		return
	}
	defer unsub()

	// Set SSE headers.
	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no")
	c.Status(http.StatusOK)

	fmt.Fprintf(c.Writer, "event: connected\ndata: {\"room_id\":%q,\"board\":%q}\n\n", room.ID, room.Board)
	if h.c != nil {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		if snap, err := h.c.Get(ctx, world.SnapshotKey(id)); err == nil {
			fmt.Fprintf(c.Writer, "event: snapshot\ndata: %s\n\n", snap)
		} else if !cache.IsNotFound(err) {
			h.logger.Warn("sse cached snapshot read failed", zap.String("room_id", id), zap.Error(err))
		}
		cancel()
	}
	c.Writer.Flush()

	ticker := time.NewTicker(h.keepalive)
	defer ticker.Stop()

	for {
		select {
		case msg, ok := <-msgCh:
			if !ok {
				return
			}
			fmt.Fprintf(c.Writer, "event: snapshot\ndata: %s\n\n", msg.Payload)
			c.Writer.Flush()

		case <-ticker.C:
			if _, err := h.rooms.Get(id); err != nil {
				fmt.Fprintf(c.Writer, "event: closed\ndata: {\"room_id\":%q}\n\n", id)
				c.Writer.Flush()
				return
			}
			// Keepalive comment to prevent proxy timeouts.
			fmt.Fprintf(c.Writer, ": keepalive\n\n")
			c.Writer.Flush()

		case <-c.Request.Context().Done():
			return
		}
	}
}
