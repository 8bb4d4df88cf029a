package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/auth"
	"github.com/juliohebert/loja-sub000/internal/interfaces/http/dto"
)

// Gin context keys set from a valid token.
const (
	JWTClaimsKey   = "jwt_claims"
	JWTTenantIDKey = "jwt_tenant_id"
	JWTUserIDKey   = "jwt_user_id"
)

const bearerPrefix = "Bearer "

// TokenValidator checks a bearer token. *auth.JWTService implements it.
type TokenValidator interface {
	Validate(token string) (*auth.Claims, error)
}

// JWTConfig configures the JWT middleware.
type JWTConfig struct {
	Validator TokenValidator
	// Required rejects requests without a token. When false a missing token
	// passes through and tenant resolution falls back to headers.
	Required  bool
	SkipPaths []string
}

// JWT validates the Authorization bearer token and exposes its claims.
// A present but invalid token is always rejected.
func JWT(cfg JWTConfig) gin.HandlerFunc {
	skip := pathSet(cfg.SkipPaths)
	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		header := c.GetHeader("Authorization")
		if header == "" {
			if cfg.Required {
				abortUnauthorized(c, dto.CodeUnauthorized, "Authorization header is required")
				return
			}
			c.Next()
			return
		}
		token, ok := strings.CutPrefix(header, bearerPrefix)
		if !ok || token == "" {
			abortUnauthorized(c, dto.CodeUnauthorized, "Authorization header must be a Bearer token")
			return
		}

		claims, err := cfg.Validator.Validate(token)
		if err != nil {
			if errors.Is(err, auth.ErrExpiredToken) {
				abortUnauthorized(c, dto.CodeTokenExpired, "Token has expired")
				return
			}
			abortUnauthorized(c, dto.CodeUnauthorized, "Invalid token")
			return
		}

		c.Set(JWTClaimsKey, claims)
		c.Set(JWTTenantIDKey, claims.TenantID)
		c.Set(JWTUserIDKey, claims.UserID)
		c.Next()
	}
}

// GetClaims returns the validated claims, or nil.
func GetClaims(c *gin.Context) *auth.Claims {
	if v, ok := c.Get(JWTClaimsKey); ok {
		if claims, ok := v.(*auth.Claims); ok {
			return claims
		}
	}
	return nil
}

func abortUnauthorized(c *gin.Context, code, message string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, dto.NewErrorResponse(code, message, GetRequestID(c)))
}

func pathSet(paths []string) map[string]bool {
	set := make(map[string]bool, len(paths))
	for _, p := range paths {
		set[p] = true
	}
	return set
}
