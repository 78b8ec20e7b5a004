package middleware

import (
	"strconv"
	"time"

	"animehome/backend/pkg/metrics"

	"github.com/gin-gonic/gin"
)

// Metrics returns middleware that records Prometheus metrics.
func Metrics() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		path := normalizePath(c)
		metrics.HTTPRequestsTotal.WithLabelValues(
			c.Request.Method, path, strconv.Itoa(c.Writer.Status()),
		).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(
			c.Request.Method, path,
		).Observe(time.Since(start).Seconds())
	}
}

// normalizePath uses the matched route template to avoid high cardinality in metrics.
func normalizePath(c *gin.Context) string {
	if p := c.FullPath(); p != "" {
		return p
	}
	return "unmatched"
}
