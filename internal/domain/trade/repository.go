package trade

import (
	"context"

	"github.com/google/uuid"
)

// PurchaseOrderRepository persists purchase orders
type PurchaseOrderRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*PurchaseOrder, error)
	Create(ctx context.Context, order *PurchaseOrder) error
	// SaveWithLock persists the order only if its stored version is one behind
	SaveWithLock(ctx context.Context, order *PurchaseOrder) error
	// ExistsOpenWithStockUnit reports whether a non-terminal order references the stock unit
	ExistsOpenWithStockUnit(ctx context.Context, tenantID, stockUnitID uuid.UUID) (bool, error)
}

// SaleRepository persists sales
type SaleRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*Sale, error)
	// FindByIdempotencyKey returns shared.ErrNotFound when no sale used the key
	FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*Sale, error)
	// Create returns shared.ErrConcurrencyConflict when the idempotency key was already used
	Create(ctx context.Context, sale *Sale) error
	SaveWithLock(ctx context.Context, sale *Sale) error
}
