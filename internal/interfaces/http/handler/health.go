package handler

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/persistence"
	"github.com/juliohebert/loja-sub000/internal/interfaces/http/dto"
)

// Pinger checks a dependency such as redis
type Pinger func(ctx context.Context) error

// HealthHandler reports liveness of the database and optional dependencies
type HealthHandler struct {
	BaseHandler
	db      *persistence.Database
	checks  map[string]Pinger
	version string
	started time.Time
}

// NewHealthHandler creates a HealthHandler
func NewHealthHandler(db *persistence.Database, version string) *HealthHandler {
	return &HealthHandler{
		db:      db,
		checks:  make(map[string]Pinger),
		version: version,
		started: time.Now(),
	}
}

// AddCheck registers a named dependency check
func (h *HealthHandler) AddCheck(name string, check Pinger) {
	h.checks[name] = check
}

// HealthResponse is the body of GET /health
type HealthResponse struct {
	Status   string            `json:"status"`
	Version  string            `json:"version,omitempty"`
	Uptime   string            `json:"uptime"`
	Checks   map[string]string `json:"checks"`
	Database *DatabaseStats    `json:"database,omitempty"`
}

// DatabaseStats exposes the connection pool
type DatabaseStats struct {
	OpenConnections int   `json:"open_connections"`
	InUse           int   `json:"in_use"`
	Idle            int   `json:"idle"`
	WaitCount       int64 `json:"wait_count"`
}

// Check handles GET /health. Any failed check answers 503.
func (h *HealthHandler) Check(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	resp := HealthResponse{
		Status:  "healthy",
		Version: h.version,
		Uptime:  time.Since(h.started).Round(time.Second).String(),
		Checks:  map[string]string{},
	}

	if err := h.db.Ping(); err != nil {
		resp.Checks["database"] = err.Error()
		resp.Status = "unhealthy"
	} else {
		resp.Checks["database"] = "ok"
		if stats, err := h.db.Stats(); err == nil {
			resp.Database = &DatabaseStats{
				OpenConnections: stats.OpenConnections,
				InUse:           stats.InUse,
				Idle:            stats.Idle,
				WaitCount:       stats.WaitCount,
			}
		}
	}
	for name, check := range h.checks {
		if err := check(ctx); err != nil {
			resp.Checks[name] = err.Error()
			resp.Status = "unhealthy"
			continue
		}
		resp.Checks[name] = "ok"
	}

	status := http.StatusOK
	if resp.Status != "healthy" {
		status = http.StatusServiceUnavailable
	}
	c.JSON(status, dto.NewSuccessResponse(resp))
}
