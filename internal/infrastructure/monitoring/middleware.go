package monitoring

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
)

// UnmatchedRoute labels requests no route template matched.
const UnmatchedRoute = "unmatched"

// Middleware records every request into m, labelled by route template so
// per-session paths share one series. Routes listed in skip (by template,
// e.g. "/metrics") are not recorded.
func Middleware(m *Metrics, skip ...string) gin.HandlerFunc {
	skipped := make(map[string]struct{}, len(skip))
	for _, route := range skip {
		skipped[route] = struct{}{}
	}

	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if _, ok := skipped[route]; ok {
			return
		}
		if route == "" {
			route = UnmatchedRoute
		}

		m.RecordHTTPRequest(
			c.Request.Method,
			route,
			strconv.Itoa(c.Writer.Status()),
			time.Since(start),
			max(c.Request.ContentLength, 0),
			int64(max(c.Writer.Size(), 0)),
		)
	}
}
