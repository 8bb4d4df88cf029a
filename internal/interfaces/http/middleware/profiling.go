package middleware

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/telemetry"
)

// Profiling labels the request goroutine with the matched route and method so
// profiles can be sliced per endpoint. Unmatched paths and /health pass through.
func Profiling(enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return func(c *gin.Context) {
		route := c.FullPath()
		if route == "" || route == "/health" {
			c.Next()
			return
		}
		labels := map[string]string{
			telemetry.ProfilingLabelRoute:  route,
			telemetry.ProfilingLabelMethod: c.Request.Method,
		}
		telemetry.WithProfilingLabels(c.Request.Context(), labels, func(ctx context.Context) {
			c.Request = c.Request.WithContext(ctx)
			c.Next()
		})
	}
}
