package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"volume-sentry/internal/monitor"
	"volume-sentry/shared/logger"
)

// RegisterRoutes wires the read-only status surface. The web server never
// mutates monitor state.
func RegisterRoutes(router *gin.Engine, mon *monitor.Monitor, appLogger *logger.Logger) {
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	router.GET("/api/status", func(c *gin.Context) {
		c.JSON(http.StatusOK, mon.Status())
	})

	appLogger.Info("HTTP routes registered", "routes", []string{"/health", "/api/status"})
}
