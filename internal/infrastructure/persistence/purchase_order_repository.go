package persistence

import (
	"context"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/juliohebert/loja-sub000/internal/domain/trade"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/persistence/models"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormPurchaseOrderRepository implements PurchaseOrderRepository using GORM
type GormPurchaseOrderRepository struct {
	db *gorm.DB
}

// NewGormPurchaseOrderRepository creates a new GormPurchaseOrderRepository
func NewGormPurchaseOrderRepository(db *gorm.DB) *GormPurchaseOrderRepository {
	return &GormPurchaseOrderRepository{db: db}
}

// FindByID loads an order with its items
func (r *GormPurchaseOrderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*trade.PurchaseOrder, error) {
	var model models.PurchaseOrderModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("stock_unit_id") }).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "purchase order", id)
	}
	return model.ToDomain(), nil
}

// Create inserts the order and its items
func (r *GormPurchaseOrderRepository) Create(ctx context.Context, order *trade.PurchaseOrder) error {
	if err := r.db.WithContext(ctx).Create(models.PurchaseOrderModelFromDomain(order)).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.ErrConcurrencyConflict.WithDetail("order_id", order.ID.String())
		}
		return err
	}
	order.MarkPersisted()
	return nil
}

// SaveWithLock writes status, timestamps and received quantities if nobody
// saved the order since it was loaded
func (r *GormPurchaseOrderRepository) SaveWithLock(ctx context.Context, order *trade.PurchaseOrder) error {
	err := updateVersioned(ctx, r.db, &models.PurchaseOrderModel{}, order.TenantID, order.ID, order, map[string]any{
		"status":                 string(order.Status),
		"expected_delivery_date": order.ExpectedDeliveryDate,
		"approved_at":            order.ApprovedAt,
		"shipped_at":             order.ShippedAt,
		"received_at":            order.ReceivedAt,
		"cancelled_at":           order.CancelledAt,
		"cancel_reason":          order.CancelReason,
		"remark":                 order.Remark,
		"updated_at":             order.UpdatedAt,
	})
	if err != nil {
		return err
	}

	for _, item := range order.Items {
		if err := r.db.WithContext(ctx).
			Model(&models.PurchaseOrderItemModel{}).
			Where("id = ? AND order_id = ? AND tenant_id = ?", item.ID, order.ID, order.TenantID).
			Update("received_qty", item.ReceivedQty).Error; err != nil {
			return err
		}
	}
	return nil
}

// ExistsOpenWithStockUnit reports whether a non-terminal order has a line for the unit
func (r *GormPurchaseOrderRepository) ExistsOpenWithStockUnit(ctx context.Context, tenantID, stockUnitID uuid.UUID) (bool, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.PurchaseOrderItemModel{}).
		Joins("JOIN purchase_orders ON purchase_orders.id = purchase_order_items.order_id").
		Where("purchase_order_items.tenant_id = ? AND purchase_order_items.stock_unit_id = ?", tenantID, stockUnitID).
		Where(clause.Not(clause.IN{
			Column: clause.Column{Table: "purchase_orders", Name: "status"},
			Values: []any{string(trade.PurchaseOrderStatusReceived), string(trade.PurchaseOrderStatusCancelled)},
		})).
		Count(&count).Error
	return count > 0, err
}

var _ trade.PurchaseOrderRepository = (*GormPurchaseOrderRepository)(nil)
