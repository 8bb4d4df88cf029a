// Package tenant keeps GORM queries inside one tenant.
//
// Repositories scope every statement explicitly:
//
//	db.Scopes(tenant.TenantScope(tenantID)).First(&unit, "id = ?", id)
//
// and RegisterGuard rejects any UPDATE or DELETE on a tenant-owned table
// that was built without a tenant condition.
package tenant

import (
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Column is the tenant discriminator present on every tenant-owned table.
const Column = "tenant_id"

// ErrTenantIDRequired is returned when a statement on a tenant-owned table has no tenant condition
var ErrTenantIDRequired = errors.New("tenant_id condition is required on tenant-owned tables")

// TenantScope filters a query to one tenant
func TenantScope(tenantID uuid.UUID) func(db *gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where(Column+" = ?", tenantID)
	}
}
