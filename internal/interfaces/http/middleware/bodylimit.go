package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/juliohebert/loja-sub000/internal/interfaces/http/dto"
)

// DefaultBodyLimit bounds request bodies. Carts and orders are small.
const DefaultBodyLimit = 1 << 20

// BodyLimit rejects bodies larger than maxBytes.
func BodyLimit(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.Request.ContentLength > maxBytes {
			c.AbortWithStatusJSON(http.StatusRequestEntityTooLarge, dto.NewErrorResponse(
				"REQUEST_TOO_LARGE", "Request body exceeds maximum allowed size", GetRequestID(c)))
			return
		}
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}
