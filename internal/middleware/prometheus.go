package middleware

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/riskmesh/riskmesh/internal/metrics"
)

// PrometheusMiddleware records HTTP request latency and count.
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		elapsed := float64(time.Since(start).Microseconds()) / 1000
		status := strconv.Itoa(c.Writer.Status())
		path := c.FullPath() // route pattern, not actual path (avoids cardinality explosion)
		if path == "" {
			path = "unknown"
		}
		metrics.RequestLatency.WithLabelValues(c.Request.Method, path, status).Observe(elapsed)
		metrics.RequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
	}
}
