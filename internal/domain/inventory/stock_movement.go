package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
)

// MovementDirection tells whether a movement removed or added stock
type MovementDirection string

const (
	MovementDebit  MovementDirection = "debit"
	MovementCredit MovementDirection = "credit"
)

// Source types of stock movements
const (
	SourceSale          = "sale"
	SourceSaleCancel    = "sale_cancel"
	SourcePurchaseOrder = "purchase_order"
	SourceInitial       = "initial"
	SourceCompensation  = "compensation"
	SourceManual        = "manual"
)

// StockMovement is an immutable record of one applied debit or credit.
// A non-empty Token is unique per tenant and makes the operation idempotent.
type StockMovement struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	StockUnitID   uuid.UUID
	Direction     MovementDirection
	Quantity      int
	QuantityAfter int
	SourceType    string
	SourceID      string
	Token         string
	CreatedAt     time.Time
}

// NewStockMovement records an applied quantity change
func NewStockMovement(tenantID, stockUnitID uuid.UUID, direction MovementDirection, qty, quantityAfter int, op StockOperation) *StockMovement {
	return &StockMovement{
		ID:            uuid.New(),
		TenantID:      tenantID,
		StockUnitID:   stockUnitID,
		Direction:     direction,
		Quantity:      qty,
		QuantityAfter: quantityAfter,
		SourceType:    op.SourceType,
		SourceID:      op.SourceID,
		Token:         op.Token,
		CreatedAt:     time.Now(),
	}
}

// SignedQuantity returns the movement quantity, negative for debits
func (m *StockMovement) SignedQuantity() int {
	if m.Direction == MovementDebit {
		return -m.Quantity
	}
	return m.Quantity
}

// StockOperation describes one requested debit or credit
type StockOperation struct {
	StockUnitID uuid.UUID
	Quantity    int
	SourceType  string
	SourceID    string
	// Token ties the operation to its originating sale or purchase order line
	Token string
}

// Validate checks the operation before it reaches the ledger
func (op StockOperation) Validate() error {
	if op.StockUnitID == uuid.Nil {
		return shared.ErrUnknownStockUnit
	}
	return ValidateQuantity(op.Quantity)
}
