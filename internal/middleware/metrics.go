package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/gac-api/internal/service"
)

// Metrics times each request by route template so high-cardinality
// path params don't explode the label set.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
