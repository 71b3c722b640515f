package monitoring

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dkedar7/cowork-dash/backend/internal/infrastructure/resilience"
	"github.com/dkedar7/cowork-dash/backend/internal/shared/types"
)

func scrape(t *testing.T, m *Metrics) string {
	t.Helper()
	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	return string(body)
}

func TestNewMetricsAreIndependent(t *testing.T) {
	a := NewMetrics()
	b := NewMetrics()

	a.ObserveTool("filesystem", "filesystem.read", "success", time.Millisecond)

	assert.Contains(t, scrape(t, a), `cowork_tool_calls_total{service="filesystem",status="success",tool="filesystem.read"} 1`)
	assert.NotContains(t, scrape(t, b), `cowork_tool_calls_total{`)
}

func TestObserveExecution(t *testing.T) {
	m := NewMetrics()

	m.ObserveExecution("bubblewrap", "success", false, 10*time.Millisecond)
	m.ObserveExecution("bubblewrap", "error", true, time.Second)

	body := scrape(t, m)
	assert.Contains(t, body, `cowork_executions_total{backend="bubblewrap",status="success"} 1`)
	assert.Contains(t, body, `cowork_executions_total{backend="bubblewrap",status="error"} 1`)
	assert.Contains(t, body, `cowork_execution_timeouts_total{backend="bubblewrap"} 1`)
	assert.Equal(t, int64(2), m.Snapshot().TotalExecutions)
}

func TestTrackSessions(t *testing.T) {
	m := NewMetrics()
	stats := types.SessionStats{Active: 2, Created: 5, Deleted: 3, Reaped: 1}
	m.TrackSessions(func() types.SessionStats { return stats })

	body := scrape(t, m)
	assert.Contains(t, body, "cowork_sessions_active 2")
	assert.Contains(t, body, "cowork_sessions_created_total 5")
	assert.Contains(t, body, "cowork_sessions_deleted_total 3")
	assert.Contains(t, body, "cowork_sessions_reaped_total 1")

	stats.Active = 4
	assert.Contains(t, scrape(t, m), "cowork_sessions_active 4")
}

func TestObserveBreaker(t *testing.T) {
	m := NewMetrics()

	m.ObserveBreaker("sandbox", resilience.StateClosed, resilience.StateOpen)
	assert.Contains(t, scrape(t, m), `cowork_breaker_state{name="sandbox"} 2`)

	m.ObserveBreaker("sandbox", resilience.StateOpen, resilience.StateHalfOpen)
	assert.Contains(t, scrape(t, m), `cowork_breaker_state{name="sandbox"} 1`)
}

func TestMiddlewareUsesRouteTemplate(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m))
	router.GET("/sessions/:id", func(c *gin.Context) { c.String(http.StatusOK, "ok") })

	for _, path := range []string{"/sessions/a", "/sessions/b", "/nowhere"} {
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	}

	body := scrape(t, m)
	assert.Contains(t, body, `cowork_http_requests_total{method="GET",path="/sessions/:id",status="200"} 2`)
	assert.Contains(t, body, `cowork_http_requests_total{method="GET",path="unmatched",status="404"} 1`)

	snap := m.Snapshot()
	assert.Equal(t, int64(3), snap.TotalRequests)
	assert.Equal(t, int64(1), snap.TotalErrors)
	assert.GreaterOrEqual(t, snap.AvgRequestMS, 0.0)
}

func TestMiddlewareSkipsRoutes(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := NewMetrics()

	router := gin.New()
	router.Use(Middleware(m, "/metrics"))
	router.GET("/metrics", gin.WrapH(m.Handler()))
	router.GET("/health", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, path := range []string{"/metrics", "/health"} {
		router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	body := scrape(t, m)
	assert.Contains(t, body, `cowork_http_requests_total{method="GET",path="/health",status="204"} 1`)
	assert.NotContains(t, body, `path="/metrics"`)
	assert.Equal(t, int64(1), m.Snapshot().TotalRequests)
}
