package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/logger"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

// Tracing opens a server span per request. Disabled tracing is a pass-through.
func Tracing(serviceName string, enabled bool) gin.HandlerFunc {
	if !enabled {
		return func(c *gin.Context) { c.Next() }
	}
	return otelgin.Middleware(serviceName)
}

// SpanAttributes tags the request span with request, tenant and actor ids and
// marks 4xx/5xx responses as errors. It runs after Tenant so the ids are known.
func SpanAttributes() gin.HandlerFunc {
	return func(c *gin.Context) {
		span := trace.SpanFromContext(c.Request.Context())
		if !span.IsRecording() {
			c.Next()
			return
		}

		ctx := c.Request.Context()
		if id := logger.GetRequestID(ctx); id != "" {
			span.SetAttributes(attribute.String("request_id", id))
		}
		if id := logger.GetTenantID(ctx); id != "" {
			span.SetAttributes(attribute.String("tenant_id", id))
		}
		if id := logger.GetActorID(ctx); id != "" {
			span.SetAttributes(attribute.String("actor_id", id))
		}

		c.Next()

		status := c.Writer.Status()
		if status < http.StatusBadRequest {
			return
		}
		span.SetAttributes(attribute.Int("http.status_code", status))
		if code := c.GetString(ErrorCodeKey); code != "" {
			span.SetAttributes(attribute.String("error.code", code))
		}
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		} else {
			span.SetStatus(codes.Error, "client error")
		}
	}
}
