package inventory

import (
	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
)

// StockUnit is one sellable variant (product + size/color) with its own on-hand quantity.
// Quantity never goes negative and changes only through the stock ledger debit/credit
// operations, never by direct assignment.
type StockUnit struct {
	shared.TenantAggregateRoot
	ProductID        uuid.UUID
	Variant          string
	Quantity         int
	ReorderThreshold int
}

// NewStockUnit defines a new variant with zero quantity
func NewStockUnit(tenantID, productID uuid.UUID, variant string, reorderThreshold int) (*StockUnit, error) {
	if productID == uuid.Nil {
		return nil, shared.NewValidationError("Product ID cannot be empty")
	}
	if reorderThreshold < 0 {
		return nil, shared.NewValidationError("Reorder threshold cannot be negative")
	}
	if len(variant) > 100 {
		return nil, shared.NewValidationError("Variant cannot exceed 100 characters")
	}

	return &StockUnit{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		ProductID:           productID,
		Variant:             variant,
		ReorderThreshold:    reorderThreshold,
	}, nil
}

// IsBelowReorderThreshold reports whether the unit should be replenished
func (s *StockUnit) IsBelowReorderThreshold() bool {
	return s.ReorderThreshold > 0 && s.Quantity <= s.ReorderThreshold
}

// EnsureDeletable checks that the variant can be removed: it must hold no stock
// and must not be referenced by an open purchase order.
func (s *StockUnit) EnsureDeletable(referencedByOpenOrder bool) error {
	if s.Quantity != 0 || referencedByOpenOrder {
		return shared.ErrStockUnitInUse.WithDetail("stock_unit_id", s.ID.String())
	}
	return nil
}

// ValidateQuantity checks a debit or credit quantity
func ValidateQuantity(qty int) error {
	if qty <= 0 {
		return shared.NewDomainError(shared.CodeInvalidAmount, "Quantity must be positive")
	}
	return nil
}
