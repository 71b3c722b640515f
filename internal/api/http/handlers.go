package http

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/dkedar7/cowork-dash/backend/internal/domain/service"
	"github.com/dkedar7/cowork-dash/backend/internal/domain/session"
	"github.com/dkedar7/cowork-dash/backend/internal/infrastructure/logging"
	"github.com/dkedar7/cowork-dash/backend/internal/infrastructure/monitoring"
	"github.com/dkedar7/cowork-dash/backend/internal/sandbox"
)

// Version is reported by the root and health endpoints.
const Version = "0.3.0"

// Handlers contains all HTTP handlers
type Handlers struct {
	sessions  *session.Manager
	services  *service.Registry
	executors *sandbox.Registry
	metrics   *monitoring.Metrics
	log       *logging.Logger
}

// NewHandlers creates a new handler set. metrics may be nil.
func NewHandlers(
	sessions *session.Manager,
	services *service.Registry,
	executors *sandbox.Registry,
	metrics *monitoring.Metrics,
	log *logging.Logger,
) *Handlers {
	if log == nil {
		log = logging.NewNop()
	}
	return &Handlers{
		sessions:  sessions,
		services:  services,
		executors: executors,
		metrics:   metrics,
		log:       log,
	}
}

// Root handles the liveness probe
func (h *Handlers) Root(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "online",
		"service": "cowork workspace backend",
		"version": Version,
	})
}

// Health reports component state
func (h *Handlers) Health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":           "healthy",
		"version":          Version,
		"sessions":         h.sessions.Stats(),
		"service_registry": h.services.Stats(),
		"sandbox": gin.H{
			"backend":   h.executors.Kind(),
			"available": h.executors.Kind() != sandbox.KindNone,
			"executors": h.executors.Len(),
		},
	})
}

// MetricsSummary returns running totals as JSON.
func (h *Handlers) MetricsSummary(c *gin.Context) {
	if h.metrics == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "metrics disabled"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"http":     h.metrics.Snapshot(),
		"sessions": h.sessions.Stats(),
	})
}

func errorJSON(c *gin.Context, status int, msg string) {
	c.JSON(status, gin.H{"error": msg})
}
