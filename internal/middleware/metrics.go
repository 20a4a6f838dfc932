package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/festy23/codeshelf/internal/metrics"
)

// Metrics records request count and latency per route template.
// Scrapes of /metrics are not counted.
func Metrics(m *metrics.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil || c.Request.URL.Path == "/metrics" {
			c.Next()
			return
		}

		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.ObserveRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
