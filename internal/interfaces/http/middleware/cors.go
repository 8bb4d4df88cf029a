package middleware

import (
	"slices"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/config"
)

// CORS builds the cross-origin policy from the http config. No origins, or
// "*", allows every origin without credentials.
func CORS(cfg config.HTTPConfig) gin.HandlerFunc {
	methods := cfg.CORSAllowMethods
	if len(methods) == 0 {
		methods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	}
	headers := cfg.CORSAllowHeaders
	if len(headers) == 0 {
		headers = []string{"Origin", "Content-Type", "Accept", "Authorization", RequestIDHeader, TenantHeaderKey, UserHeaderKey}
	}

	corsCfg := cors.Config{
		AllowMethods:  methods,
		AllowHeaders:  headers,
		ExposeHeaders: []string{RequestIDHeader},
		MaxAge:        12 * time.Hour,
	}
	if len(cfg.CORSAllowOrigins) == 0 || slices.Contains(cfg.CORSAllowOrigins, "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = cfg.CORSAllowOrigins
		corsCfg.AllowCredentials = true
	}
	return cors.New(corsCfg)
}
