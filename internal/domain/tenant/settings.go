// Package tenant holds the per-tenant policy switches consulted by the engine.
package tenant

import (
	"context"

	"github.com/google/uuid"
)

// Settings are the tenant-level policy flags owned by an external configuration system
type Settings struct {
	TenantID uuid.UUID
	// RequireOpenCashSession blocks sale finalization unless a cash session is open
	RequireOpenCashSession bool
}

// SettingsProvider resolves the settings of a tenant
type SettingsProvider interface {
	Get(ctx context.Context, tenantID uuid.UUID) (*Settings, error)
}

// StaticSettingsProvider returns the same policy for every tenant
type StaticSettingsProvider struct {
	RequireOpenCashSession bool
}

// Get implements SettingsProvider
func (p StaticSettingsProvider) Get(_ context.Context, tenantID uuid.UUID) (*Settings, error) {
	return &Settings{TenantID: tenantID, RequireOpenCashSession: p.RequireOpenCashSession}, nil
}
