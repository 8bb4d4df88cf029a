// Package middleware holds the gin middleware of the HTTP API.
package middleware

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/logger"
)

const (
	// RequestIDHeader carries the request id in both directions.
	RequestIDHeader = "X-Request-ID"
	// MaxRequestIDLength caps ids taken from the client.
	MaxRequestIDLength = 128
)

// RequestID reuses the caller's X-Request-ID or generates one, echoes it in
// the response and stores it for the request logger.
func RequestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(RequestIDHeader)
		if len(id) > MaxRequestIDLength {
			id = id[:MaxRequestIDLength]
		}
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(logger.GinRequestIDKey, id)
		c.Header(RequestIDHeader, id)

		ctx := c.Request.Context()
		ctx, _ = logger.WithRequestID(ctx, logger.FromContext(ctx), id)
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// GetRequestID returns the id assigned by RequestID.
func GetRequestID(c *gin.Context) string {
	return c.GetString(logger.GinRequestIDKey)
}
