package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/logger"
	"github.com/juliohebert/loja-sub000/internal/interfaces/http/dto"
)

const (
	// TenantHeaderKey names the tenant when no token carries one.
	TenantHeaderKey = "X-Tenant-ID"
	// UserHeaderKey names the acting user when no token carries one.
	UserHeaderKey = "X-User-ID"

	tenantIDKey = "tenant_id"
	actorIDKey  = "actor_id"
)

// Tenant resolves the tenant of the request from the token claim, else from
// X-Tenant-ID. The acting user comes from the token, else from X-User-ID,
// and may be absent.
func Tenant(skipPaths ...string) gin.HandlerFunc {
	skip := pathSet(skipPaths)
	return func(c *gin.Context) {
		if skip[c.Request.URL.Path] {
			c.Next()
			return
		}

		raw := c.GetString(JWTTenantIDKey)
		if raw == "" {
			raw = c.GetHeader(TenantHeaderKey)
		}
		tenantID, err := uuid.Parse(raw)
		if err != nil || tenantID == uuid.Nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(
				dto.CodeTenantRequired, "A valid tenant id is required", GetRequestID(c)))
			return
		}

		actorID := uuid.Nil
		rawActor := c.GetString(JWTUserIDKey)
		if rawActor == "" {
			rawActor = c.GetHeader(UserHeaderKey)
		}
		if rawActor != "" {
			if actorID, err = uuid.Parse(rawActor); err != nil {
				c.AbortWithStatusJSON(http.StatusBadRequest, dto.NewErrorResponse(
					dto.CodeValidation, UserHeaderKey+" must be a UUID", GetRequestID(c)))
				return
			}
		}

		c.Set(tenantIDKey, tenantID)
		c.Set(actorIDKey, actorID)

		ctx := c.Request.Context()
		ctx, l := logger.WithTenantID(ctx, logger.FromContext(ctx), tenantID.String())
		if actorID != uuid.Nil {
			ctx, _ = logger.WithActorID(ctx, l, actorID.String())
		}
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

// TenantID returns the tenant resolved by Tenant, or uuid.Nil.
func TenantID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(tenantIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}

// ActorID returns the acting user, or uuid.Nil when the request named none.
func ActorID(c *gin.Context) uuid.UUID {
	if v, ok := c.Get(actorIDKey); ok {
		if id, ok := v.(uuid.UUID); ok {
			return id
		}
	}
	return uuid.Nil
}
