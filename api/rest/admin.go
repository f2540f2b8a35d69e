package rest

import (
	"crypto/subtle"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/kasuganosora/ghostai/audit"
	"github.com/kasuganosora/ghostai/game/ghost/strategy"
	"github.com/kasuganosora/ghostai/game/world"
	"github.com/kasuganosora/ghostai/scheduler"
	"go.uber.org/zap"
)

// JournalStats reports journal counters. *audit.Service satisfies it.
type JournalStats interface {
	Stats() audit.Stats
}

// AdminHandler handles admin-only REST endpoints.
// Routes should be protected by AdminAuth middleware.
type AdminHandler struct {
	wm        *world.WorldManager
	sched     *scheduler.Scheduler
	journal   JournalStats
	cacheKind string
	started   time.Time
	logger    *zap.Logger
}

// NewAdminHandler creates an AdminHandler. journal may be nil.
func NewAdminHandler(
	wm *world.WorldManager,
	sched *scheduler.Scheduler,
	journal JournalStats,
	cacheKind string,
	logger *zap.Logger,
) *AdminHandler {
	return &AdminHandler{
		wm:        wm,
		sched:     sched,
		journal:   journal,
		cacheKind: cacheKind,
		started:   time.Now(),
		logger:    logger,
	}
}

// Metrics returns server health metrics.
// GET /api/admin/metrics
func (h *AdminHandler) Metrics(c *gin.Context) {
	byMode := map[strategy.Mode]int{}
	var captures int
	for _, r := range h.wm.List() {
		mode, _ := r.Mode()
		byMode[mode]++
		captures += r.Snapshot().Captures
	}
	resp := gin.H{
		"active_rooms":    h.wm.ActiveRoomCount(),
		"rooms_by_mode":   byMode,
		"captures":        captures,
		"scheduler_tasks": len(h.sched.ListTickers()),
		"pending_delays":  h.sched.PendingDelays(),
		"cache_backend":   h.cacheKind,
		"goroutines":      runtime.NumGoroutine(),
		"uptime_s":        int64(time.Since(h.started).Seconds()),
	}
	if h.journal != nil {
		resp["journal"] = h.journal.Stats()
	}
	c.JSON(http.StatusOK, resp)
}

// ListSchedulerTasks returns every registered ticker with its run counters.
// GET /api/admin/scheduler
func (h *AdminHandler) ListSchedulerTasks(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"tasks": h.sched.Tasks()})
}

// AdminAuth returns a middleware that checks the X-Admin-Key header.
// WARNING: if adminKey is empty all admin endpoints are disabled (503) so the
// server cannot be accidentally deployed without protection. Set a non-empty
// server.admin_key in config to enable admin routes.
func AdminAuth(adminKey string) gin.HandlerFunc {
	return func(c *gin.Context) {
		if adminKey == "" {
			c.AbortWithStatusJSON(http.StatusServiceUnavailable,
				gin.H{"error": "admin endpoints disabled: set server.admin_key in config"})
			return
		}
		key := c.GetHeader("X-Admin-Key")
		if subtle.ConstantTimeCompare([]byte(key), []byte(adminKey)) != 1 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Next()
	}
}
