package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/tenant"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormSettingsProvider reads tenant policy from tenant_settings. Tenants
// without a row get the fallback policy.
type GormSettingsProvider struct {
	db       *gorm.DB
	fallback tenant.SettingsProvider
}

// NewGormSettingsProvider creates a provider that defers to fallback for unknown tenants
func NewGormSettingsProvider(db *gorm.DB, fallback tenant.SettingsProvider) *GormSettingsProvider {
	if fallback == nil {
		fallback = tenant.StaticSettingsProvider{}
	}
	return &GormSettingsProvider{db: db, fallback: fallback}
}

// Get implements tenant.SettingsProvider
func (p *GormSettingsProvider) Get(ctx context.Context, tenantID uuid.UUID) (*tenant.Settings, error) {
	var model models.TenantSettingsModel
	err := p.db.WithContext(ctx).Take(&model, "tenant_id = ?", tenantID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return p.fallback.Get(ctx, tenantID)
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

var _ tenant.SettingsProvider = (*GormSettingsProvider)(nil)
