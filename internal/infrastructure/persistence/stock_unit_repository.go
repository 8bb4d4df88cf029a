package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/inventory"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/persistence/models"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormStockUnitRepository implements StockUnitRepository using GORM
type GormStockUnitRepository struct {
	db *gorm.DB
}

// NewGormStockUnitRepository creates a new GormStockUnitRepository
func NewGormStockUnitRepository(db *gorm.DB) *GormStockUnitRepository {
	return &GormStockUnitRepository{db: db}
}

// FindByID finds a stock unit within a tenant
func (r *GormStockUnitRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.StockUnit, error) {
	var model models.StockUnitModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "stock unit", id)
	}
	return model.ToDomain(), nil
}

// Create inserts a new stock unit
func (r *GormStockUnitRepository) Create(ctx context.Context, unit *inventory.StockUnit) error {
	if err := r.db.WithContext(ctx).Create(models.StockUnitModelFromDomain(unit)).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.ErrConcurrencyConflict.WithDetail("stock_unit_id", unit.ID.String())
		}
		return err
	}
	unit.MarkPersisted()
	return nil
}

// Delete removes an empty stock unit
func (r *GormStockUnitRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	result := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Where("quantity = 0").
		Delete(&models.StockUnitModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		if _, err := r.FindByID(ctx, tenantID, id); err != nil {
			return err
		}
		return shared.ErrStockUnitInUse.WithDetail("stock_unit_id", id.String())
	}
	return nil
}

// Debit decrements the quantity in a single conditional UPDATE. Two concurrent
// debits for the last unit cannot both match quantity >= qty, so exactly one wins.
func (r *GormStockUnitRepository) Debit(ctx context.Context, tenantID, id uuid.UUID, qty int) (int, error) {
	if err := inventory.ValidateQuantity(qty); err != nil {
		return 0, err
	}

	result := r.db.WithContext(ctx).
		Model(&models.StockUnitModel{}).
		Where("id = ? AND tenant_id = ? AND quantity >= ?", id, tenantID, qty).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity - ?", qty),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}

	available, err := r.currentQuantity(ctx, tenantID, id)
	if err != nil {
		return 0, err
	}
	if result.RowsAffected == 0 {
		return 0, shared.NewInsufficientStockError(id, qty, available)
	}
	return available, nil
}

// Credit increments the quantity.
func (r *GormStockUnitRepository) Credit(ctx context.Context, tenantID, id uuid.UUID, qty int) (int, error) {
	if err := inventory.ValidateQuantity(qty); err != nil {
		return 0, err
	}

	result := r.db.WithContext(ctx).
		Model(&models.StockUnitModel{}).
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Updates(map[string]any{
			"quantity":   gorm.Expr("quantity + ?", qty),
			"version":    gorm.Expr("version + 1"),
			"updated_at": time.Now(),
		})
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, shared.ErrUnknownStockUnit.WithDetail("stock_unit_id", id.String())
	}
	return r.currentQuantity(ctx, tenantID, id)
}

// currentQuantity reads the quantity back after an update; inside a
// transaction the updated row stays locked, so this is the post-update value.
func (r *GormStockUnitRepository) currentQuantity(ctx context.Context, tenantID, id uuid.UUID) (int, error) {
	var model models.StockUnitModel
	err := r.db.WithContext(ctx).
		Select("quantity").
		Where("id = ? AND tenant_id = ?", id, tenantID).
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, shared.ErrUnknownStockUnit.WithDetail("stock_unit_id", id.String())
	}
	if err != nil {
		return 0, err
	}
	return model.Quantity, nil
}

var _ inventory.StockUnitRepository = (*GormStockUnitRepository)(nil)
