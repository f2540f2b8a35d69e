package rest

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/ghostai/cache"
	"github.com/kasuganosora/ghostai/game/board"
	"github.com/kasuganosora/ghostai/game/ghost"
	"github.com/kasuganosora/ghostai/game/ghost/strategy"
	"github.com/kasuganosora/ghostai/game/world"
	"github.com/kasuganosora/ghostai/model"
	"github.com/kasuganosora/ghostai/resource"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	movesDefaultLimit = 50
	movesMaxLimit     = 500
	eventsMaxLimit    = 50
)

// RoomHandler handles the room REST endpoints.
type RoomHandler struct {
	wm           *world.WorldManager
	db           *gorm.DB
	cache        cache.Cache
	defaultBoard string
	logger       *zap.Logger
}

// NewRoomHandler creates a RoomHandler. db and c may be nil; the journal
// and event endpoints then report what they can.
func NewRoomHandler(wm *world.WorldManager, db *gorm.DB, c cache.Cache, defaultBoard string, logger *zap.Logger) *RoomHandler {
	return &RoomHandler{wm: wm, db: db, cache: c, defaultBoard: defaultBoard, logger: logger}
}

// RoomInfo summarises a room for listings.
type RoomInfo struct {
	ID        string        `json:"id"`
	Board     string        `json:"board"`
	Seed      int64         `json:"seed"`
	CreatedAt time.Time     `json:"created_at"`
	Tick      int64         `json:"tick"`
	Mode      strategy.Mode `json:"mode"`
	Forced    bool          `json:"forced"`
}

func roomInfo(r *world.Room) RoomInfo {
	mode, forced := r.Mode()
	return RoomInfo{
		ID:        r.ID,
		Board:     r.Board,
		Seed:      r.Seed,
		CreatedAt: r.CreatedAt,
		Tick:      r.Ticks(),
		Mode:      mode,
		Forced:    forced,
	}
}

// room resolves :id or writes a 404.
func (h *RoomHandler) room(c *gin.Context) (*world.Room, bool) {
	r, err := h.wm.Get(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return nil, false
	}
	return r, true
}

// Boards lists the boards rooms can be opened on.
// GET /api/boards
func (h *RoomHandler) Boards(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"boards": h.wm.Boards(), "default": h.defaultBoard})
}

// List returns every active room, oldest first.
// GET /api/rooms
func (h *RoomHandler) List(c *gin.Context) {
	rooms := h.wm.List()
	out := make([]RoomInfo, 0, len(rooms))
	for _, r := range rooms {
		out = append(out, roomInfo(r))
	}
	c.JSON(http.StatusOK, gin.H{"rooms": out, "count": len(out)})
}

// Create opens a room.
// POST /api/rooms {"board": "classic", "seed": 42}
func (h *RoomHandler) Create(c *gin.Context) {
	var req struct {
		Board string `json:"board"`
		Seed  int64  `json:"seed"`
	}
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	if req.Board == "" {
		req.Board = h.defaultBoard
	}

	r, err := h.wm.Create(req.Board, req.Seed)
	switch {
	case err == nil:
	case errors.Is(err, resource.ErrUnknownBoard):
		c.JSON(http.StatusNotFound, gin.H{"error": "unknown board"})
		return
	case errors.Is(err, world.ErrTooManyRooms):
		c.JSON(http.StatusConflict, gin.H{"error": "room limit reached"})
		return
	default:
		h.logger.Error("room create failed", zap.String("board", req.Board), zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "room create failed"})
		return
	}
	c.JSON(http.StatusCreated, gin.H{"room": roomInfo(r), "snapshot": r.Snapshot()})
}

// Get returns a room's summary, latest snapshot and terrain.
// GET /api/rooms/:id
func (h *RoomHandler) Get(c *gin.Context) {
	r, ok := h.room(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"room":     roomInfo(r),
		"snapshot": r.Snapshot(),
		"layout":   r.Layout(),
	})
}

// Delete closes a room.
// DELETE /api/rooms/:id
func (h *RoomHandler) Delete(c *gin.Context) {
	id := c.Param("id")
	if err := h.wm.Destroy(id); err != nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "room not found"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": id})
}

// SetMode forces a mode, or returns the room to its schedule when mode is
// empty.
// PUT /api/rooms/:id/mode {"mode": "scatter"}
func (h *RoomHandler) SetMode(c *gin.Context) {
	r, ok := h.room(c)
	if !ok {
		return
	}
	var req struct {
		Mode string `json:"mode"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if req.Mode == "" {
		r.ClearMode()
	} else {
		mode, err := strategy.ParseMode(req.Mode)
		if err == nil {
			err = r.SetMode(mode)
		}
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"room": roomInfo(r)})
}

// Steer queues the player's next direction.
// POST /api/rooms/:id/steer {"direction": "north"}
func (h *RoomHandler) Steer(c *gin.Context) {
	r, ok := h.room(c)
	if !ok {
		return
	}
	var req struct {
		Direction string `json:"direction" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	d, err := board.ParseDirection(req.Direction)
	if err == nil {
		err = r.Steer(d)
	}
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	c.JSON(http.StatusOK, gin.H{"direction": d})
}

// Moves returns journaled ghost decisions, newest first. Works for closed
// rooms too.
// GET /api/rooms/:id/moves?ghost=pinky&limit=50
func (h *RoomHandler) Moves(c *gin.Context) {
	if h.db == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "journal not available"})
		return
	}
	limit := movesDefaultLimit
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= movesMaxLimit {
		limit = l
	}
	q := h.db.Where("room_id = ?", c.Param("id"))
	if name := c.Query("ghost"); name != "" {
		a, err := ghost.ParseArchetype(name)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		q = q.Where("ghost = ?", a.String())
	}
	var moves []model.GhostMove
	if err := q.Order("tick DESC, id DESC").Limit(limit).Find(&moves).Error; err != nil {
		h.logger.Error("moves query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"moves": moves, "count": len(moves)})
}

// Events returns a room's recent mode changes, newest first. The cached
// feed is used when present; otherwise the journal is queried.
// GET /api/rooms/:id/events?limit=20
func (h *RoomHandler) Events(c *gin.Context) {
	id := c.Param("id")
	limit := eventsMaxLimit
	if l, err := strconv.Atoi(c.Query("limit")); err == nil && l > 0 && l <= limit {
		limit = l
	}

	if h.cache != nil {
		items, err := h.cache.LRange(c.Request.Context(), world.EventsKey(id), 0, int64(limit-1))
		if err == nil && len(items) > 0 {
			events := make([]world.ModeEvent, 0, len(items))
			for _, it := range items {
				var ev world.ModeEvent
				if json.Unmarshal([]byte(it), &ev) == nil {
					events = append(events, ev)
				}
			}
			c.JSON(http.StatusOK, gin.H{"events": events, "source": "cache"})
			return
		}
	}

	if h.db == nil {
		c.JSON(http.StatusOK, gin.H{"events": []world.ModeEvent{}, "source": "none"})
		return
	}
	var rows []model.ModeChange
	if err := h.db.Where("room_id = ?", id).Order("tick DESC, id DESC").Limit(limit).Find(&rows).Error; err != nil {
		h.logger.Error("events query failed", zap.Error(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "db error"})
		return
	}
	events := make([]world.ModeEvent, len(rows))
	for i, row := range rows {
		events[i] = world.ModeEvent{
			Tick:   row.Tick,
			From:   strategy.Mode(row.From),
			To:     strategy.Mode(row.To),
			Reason: row.Reason,
			At:     row.CreatedAt,
		}
	}
	c.JSON(http.StatusOK, gin.H{"events": events, "source": "journal"})
}
