package telemetry

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormStockMetricsProvider reads stock health straight from the stock_units table.
type GormStockMetricsProvider struct {
	db *gorm.DB
}

// NewGormStockMetricsProvider creates a new GormStockMetricsProvider.
func NewGormStockMetricsProvider(db *gorm.DB) *GormStockMetricsProvider {
	return &GormStockMetricsProvider{db: db}
}

// LowStockCount counts units with a reorder threshold whose quantity has dropped to it.
func (p *GormStockMetricsProvider) LowStockCount(ctx context.Context, tenantID uuid.UUID) (int64, error) {
	var count int64
	err := p.db.WithContext(ctx).
		Table("stock_units").
		Where("tenant_id = ?", tenantID).
		Where("reorder_threshold > 0 AND quantity <= reorder_threshold").
		Count(&count).Error
	return count, err
}

// ActiveTenantIDs lists every tenant that owns at least one stock unit.
func (p *GormStockMetricsProvider) ActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := p.db.WithContext(ctx).
		Table("stock_units").
		Distinct("tenant_id").
		Pluck("tenant_id", &ids).Error
	return ids, err
}
