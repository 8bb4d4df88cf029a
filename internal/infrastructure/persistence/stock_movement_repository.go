package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/inventory"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/persistence/models"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormStockMovementRepository implements StockMovementRepository using GORM
type GormStockMovementRepository struct {
	db *gorm.DB
}

// NewGormStockMovementRepository creates a new GormStockMovementRepository
func NewGormStockMovementRepository(db *gorm.DB) *GormStockMovementRepository {
	return &GormStockMovementRepository{db: db}
}

// Create appends a movement. A token already used in the tenant is a
// concurrency conflict: another request applied the same operation first.
func (r *GormStockMovementRepository) Create(ctx context.Context, movement *inventory.StockMovement) error {
	err := r.db.WithContext(ctx).Create(models.StockMovementModelFromDomain(movement)).Error
	if isDuplicateKey(err) {
		return shared.ErrConcurrencyConflict.WithDetail("token", movement.Token)
	}
	return err
}

// FindByToken returns the movement recorded for token
func (r *GormStockMovementRepository) FindByToken(ctx context.Context, tenantID uuid.UUID, token string) (*inventory.StockMovement, error) {
	var model models.StockMovementModel
	err := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Where("token = ?", token).
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound.WithDetail("token", token)
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByStockUnit lists the movements of one stock unit, newest first by default
func (r *GormStockMovementRepository) FindByStockUnit(ctx context.Context, tenantID, stockUnitID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.StockMovementModel{}).
		Scopes(tenant.TenantScope(tenantID)).
		Where("stock_unit_id = ?", stockUnitID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.StockMovementModel
	if err := query.Scopes(paginate(filter, StockMovementSortFields, "created_at")).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	movements := make([]inventory.StockMovement, len(rows))
	for i := range rows {
		movements[i] = *rows[i].ToDomain()
	}
	return movements, total, nil
}

var _ inventory.StockMovementRepository = (*GormStockMovementRepository)(nil)
