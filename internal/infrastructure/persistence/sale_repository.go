package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/juliohebert/loja-sub000/internal/domain/trade"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/persistence/models"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormSaleRepository implements SaleRepository using GORM
type GormSaleRepository struct {
	db *gorm.DB
}

// NewGormSaleRepository creates a new GormSaleRepository
func NewGormSaleRepository(db *gorm.DB) *GormSaleRepository {
	return &GormSaleRepository{db: db}
}

func (r *GormSaleRepository) withItems(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("position ASC") })
}

// FindByID loads a sale with its items in cart order
func (r *GormSaleRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*trade.Sale, error) {
	var model models.SaleModel
	if err := r.withItems(ctx, tenantID).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "sale", id)
	}
	return model.ToDomain(), nil
}

// FindByIdempotencyKey returns the sale a checkout key produced
func (r *GormSaleRepository) FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*trade.Sale, error) {
	var model models.SaleModel
	err := r.withItems(ctx, tenantID).Where("idempotency_key = ?", key).Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound.WithDetail("idempotency_key", key)
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create inserts the sale and its items. A reused idempotency key surfaces as
// a concurrency conflict so the caller can replay the winning sale.
func (r *GormSaleRepository) Create(ctx context.Context, sale *trade.Sale) error {
	if err := r.db.WithContext(ctx).Create(models.SaleModelFromDomain(sale)).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.ErrConcurrencyConflict.WithDetail("idempotency_key", sale.IdempotencyKey)
		}
		return err
	}
	sale.MarkPersisted()
	return nil
}

// SaveWithLock writes links, status and key if nobody saved the sale since it was loaded
func (r *GormSaleRepository) SaveWithLock(ctx context.Context, sale *trade.Sale) error {
	model := models.SaleModelFromDomain(sale)
	return updateVersioned(ctx, r.db, &models.SaleModel{}, sale.TenantID, sale.ID, sale, map[string]any{
		"cash_session_id":         sale.CashSessionID,
		"receivable_id":           sale.ReceivableID,
		"customer_transaction_id": sale.CustomerTransactionID,
		"status":                  string(sale.Status),
		"cancel_reason":           sale.CancelReason,
		"cancelled_at":            sale.CancelledAt,
		"idempotency_key":         model.IdempotencyKey,
		"updated_at":              sale.UpdatedAt,
	})
}

var _ trade.SaleRepository = (*GormSaleRepository)(nil)
