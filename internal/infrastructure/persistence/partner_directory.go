package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/partner"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/persistence/models"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormPartnerDirectory answers existence checks against the customers and suppliers tables
type GormPartnerDirectory struct {
	db *gorm.DB
}

// NewGormPartnerDirectory creates a new GormPartnerDirectory
func NewGormPartnerDirectory(db *gorm.DB) *GormPartnerDirectory {
	return &GormPartnerDirectory{db: db}
}

// CustomerExists reports whether the customer is registered in the tenant
func (d *GormPartnerDirectory) CustomerExists(ctx context.Context, tenantID, customerID uuid.UUID) (bool, error) {
	return d.exists(ctx, &models.CustomerModel{}, tenantID, customerID)
}

// SupplierExists reports whether the supplier is registered in the tenant
func (d *GormPartnerDirectory) SupplierExists(ctx context.Context, tenantID, supplierID uuid.UUID) (bool, error) {
	return d.exists(ctx, &models.SupplierModel{}, tenantID, supplierID)
}

func (d *GormPartnerDirectory) exists(ctx context.Context, model any, tenantID, id uuid.UUID) (bool, error) {
	var count int64
	err := d.db.WithContext(ctx).
		Model(model).
		Scopes(tenant.TenantScope(tenantID)).
		Where("id = ?", id).
		Count(&count).Error
	return count > 0, err
}

var (
	_ partner.CustomerDirectory = (*GormPartnerDirectory)(nil)
	_ partner.SupplierDirectory = (*GormPartnerDirectory)(nil)
)
