package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/tenant"
)

// TenantSettingsModel stores the policy switches of one tenant.
type TenantSettingsModel struct {
	TenantID               uuid.UUID `gorm:"type:uuid;primaryKey"`
	RequireOpenCashSession bool      `gorm:"not null;default:false"`
	UpdatedAt              time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (TenantSettingsModel) TableName() string {
	return "tenant_settings"
}

// ToDomain converts the model to domain settings.
func (m *TenantSettingsModel) ToDomain() *tenant.Settings {
	return &tenant.Settings{
		TenantID:               m.TenantID,
		RequireOpenCashSession: m.RequireOpenCashSession,
	}
}
