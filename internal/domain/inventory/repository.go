package inventory

import (
	"context"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
)

// StockUnitRepository persists stock units and applies quantity changes atomically
type StockUnitRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*StockUnit, error)
	Create(ctx context.Context, unit *StockUnit) error
	Delete(ctx context.Context, tenantID, id uuid.UUID) error

	// Debit decrements quantity only when it covers qty, as a single conditional update.
	// Returns the new quantity, shared.ErrUnknownStockUnit when the unit does not resolve
	// within the tenant, or an InsufficientStock error naming the unit.
	Debit(ctx context.Context, tenantID, id uuid.UUID, qty int) (int, error)

	// Credit increments quantity. Returns the new quantity or shared.ErrUnknownStockUnit.
	Credit(ctx context.Context, tenantID, id uuid.UUID, qty int) (int, error)
}

// StockMovementRepository is the append-only log of applied movements
type StockMovementRepository interface {
	Create(ctx context.Context, movement *StockMovement) error
	// FindByToken returns shared.ErrNotFound when no movement carries the token
	FindByToken(ctx context.Context, tenantID uuid.UUID, token string) (*StockMovement, error)
	FindByStockUnit(ctx context.Context, tenantID, stockUnitID uuid.UUID, filter shared.Filter) ([]StockMovement, int64, error)
}
