package middleware

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noah-isme/freightdesk-api/internal/service"
)

const (
	unmatchedRoute = "unmatched"
	scrapeRoute    = "/metrics"
)

// Metrics observes request latency and status per route template. Requests
// that match no route share one label so raw paths never become series.
func Metrics(metricsSvc *service.MetricsService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if metricsSvc == nil {
			c.Next()
			return
		}
		start := time.Now()
		c.Next()

		route := c.FullPath()
		switch route {
		case scrapeRoute:
			return
		case "":
			route = unmatchedRoute
		}
		metricsSvc.ObserveHTTPRequest(c.Request.Method, route, c.Writer.Status(), time.Since(start))
	}
}
