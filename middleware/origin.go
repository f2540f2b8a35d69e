package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// Origins restricts cross-origin browsers to the allowed list and echoes
// the matching origin back for CORS. Requests without an Origin header
// (curl, same-origin) pass. An empty list allows every origin.
func Origins(allowed []string) gin.HandlerFunc {
	set := make(map[string]bool, len(allowed))
	for _, o := range allowed {
		set[strings.TrimRight(strings.ToLower(o), "/")] = true
	}
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if origin == "" {
			c.Next()
			return
		}
		if len(set) > 0 && !set[strings.TrimRight(strings.ToLower(origin), "/")] {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "origin not allowed"})
			return
		}
		c.Header("Access-Control-Allow-Origin", origin)
		c.Header("Vary", "Origin")
		if c.Request.Method == http.MethodOptions {
			c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Content-Type, X-Admin-Key, "+TraceIDHeader)
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}
