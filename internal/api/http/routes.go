package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RegisterRoutes mounts every endpoint on router. metricsHandler serves
// /metrics and may be nil when metrics are disabled.
func RegisterRoutes(router gin.IRouter, h *Handlers, metricsHandler http.Handler) {
	router.GET("/", h.Root)
	router.GET("/health", h.Health)

	// Sessions
	router.POST("/sessions", h.CreateSession)
	router.GET("/sessions", h.ListSessions)
	router.GET("/sessions/:id", h.GetSession)
	router.DELETE("/sessions/:id", h.DeleteSession)

	// Workspace
	router.GET("/sessions/:id/tree", h.Tree)
	router.GET("/sessions/:id/files/*path", h.ReadFile)
	router.PUT("/sessions/:id/files/*path", h.WriteFile)
	router.POST("/sessions/:id/exec", h.Exec)

	// Services
	router.GET("/services", h.ListServices)
	router.POST("/services/discover", h.DiscoverServices)
	router.POST("/services/execute", h.ExecuteService)

	// Metrics
	if metricsHandler != nil {
		router.GET("/metrics", gin.WrapH(metricsHandler))
		router.GET("/metrics/json", h.MetricsSummary)
	}
}
