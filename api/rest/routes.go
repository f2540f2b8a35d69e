package rest

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// Register mounts the room and admin endpoints on r. Mutating room routes
// and everything under /api/admin run behind guard (AdminAuth, plus any IP
// restriction).
func Register(r gin.IRouter, rooms *RoomHandler, admin *AdminHandler, guard ...gin.HandlerFunc) {
	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.GET("/boards", rooms.Boards)

	roomsG := api.Group("/rooms")
	roomsG.GET("", rooms.List)
	roomsG.GET("/:id", rooms.Get)
	roomsG.POST("/:id/steer", rooms.Steer)
	roomsG.GET("/:id/moves", rooms.Moves)
	roomsG.GET("/:id/events", rooms.Events)

	guarded := roomsG.Group("", guard...)
	guarded.POST("", rooms.Create)
	guarded.DELETE("/:id", rooms.Delete)
	guarded.PUT("/:id/mode", rooms.SetMode)

	adminG := api.Group("/admin", guard...)
	adminG.GET("/metrics", admin.Metrics)
	adminG.GET("/scheduler", admin.ListSchedulerTasks)
}
