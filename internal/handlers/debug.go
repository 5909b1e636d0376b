package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"kit-messenger/internal/middleware"
	"kit-messenger/internal/state"
	"kit-messenger/internal/telemetry"
)

// RegisterDebugRoutes wires debug-only endpoints.
func RegisterDebugRoutes(router *gin.Engine, auditor telemetry.Auditor, container *state.Container, enabled bool) {
	if !enabled {
		return
	}

	router.GET("/debug/audit-test", func(c *gin.Context) {
		if auditor == nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "audit emitter not configured"})
			return
		}
		auditor.Emit(c.Request.Context(), telemetry.Record{
			Action:    telemetry.ActionTest,
			RequestID: c.GetString(middleware.RequestIDKey),
			UserID:    c.GetString("userID"),
		})
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/debug/revision", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"revision": container.Revision()})
	})
}
