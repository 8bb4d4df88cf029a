package trade

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PurchaseOrderStatus represents the status of a purchase order
type PurchaseOrderStatus string

const (
	PurchaseOrderStatusPending   PurchaseOrderStatus = "pending"
	PurchaseOrderStatusApproved  PurchaseOrderStatus = "approved"
	PurchaseOrderStatusInTransit PurchaseOrderStatus = "in_transit"
	PurchaseOrderStatusReceived  PurchaseOrderStatus = "received"
	PurchaseOrderStatusCancelled PurchaseOrderStatus = "cancelled"
)

// IsValid checks if the status is a valid PurchaseOrderStatus
func (s PurchaseOrderStatus) IsValid() bool {
	switch s {
	case PurchaseOrderStatusPending, PurchaseOrderStatusApproved, PurchaseOrderStatusInTransit,
		PurchaseOrderStatusReceived, PurchaseOrderStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation of PurchaseOrderStatus
func (s PurchaseOrderStatus) String() string {
	return string(s)
}

// IsTerminal returns true for received and cancelled orders
func (s PurchaseOrderStatus) IsTerminal() bool {
	return s == PurchaseOrderStatusReceived || s == PurchaseOrderStatusCancelled
}

// CanTransitionTo checks if the status can transition to the target status.
//
//	pending -> approved -> in_transit -> received
//	pending|approved|in_transit -> cancelled
func (s PurchaseOrderStatus) CanTransitionTo(target PurchaseOrderStatus) bool {
	if s.IsTerminal() {
		return false
	}
	switch target {
	case PurchaseOrderStatusCancelled, PurchaseOrderStatusReceived:
		return true
	case PurchaseOrderStatusApproved:
		return s == PurchaseOrderStatusPending
	case PurchaseOrderStatusInTransit:
		return s == PurchaseOrderStatusApproved
	}
	return false
}

// OpenPurchaseOrderStatuses are the statuses in which an order may still credit stock
var OpenPurchaseOrderStatuses = []PurchaseOrderStatus{
	PurchaseOrderStatusPending,
	PurchaseOrderStatusApproved,
	PurchaseOrderStatusInTransit,
}

// PurchaseOrderItem is one ordered stock unit
type PurchaseOrderItem struct {
	ID          uuid.UUID
	OrderID     uuid.UUID
	StockUnitID uuid.UUID
	OrderedQty  int
	ReceivedQty int
	UnitCost    decimal.Decimal
	Amount      decimal.Decimal
}

// RemainingQty returns the quantity not yet received, tracked for information only
func (i *PurchaseOrderItem) RemainingQty() int {
	if i.ReceivedQty >= i.OrderedQty {
		return 0
	}
	return i.OrderedQty - i.ReceivedQty
}

// PurchaseOrderLine is the input for one ordered item
type PurchaseOrderLine struct {
	StockUnitID uuid.UUID
	OrderedQty  int
	UnitCost    decimal.Decimal
}

// ReceivedLine is one item reported on receipt
type ReceivedLine struct {
	StockUnitID uuid.UUID
	ReceivedQty int
}

// PurchaseOrder is a supplier order whose receipt credits stock exactly once
type PurchaseOrder struct {
	shared.TenantAggregateRoot
	SupplierID           uuid.UUID
	Items                []PurchaseOrderItem
	Status               PurchaseOrderStatus
	Subtotal             decimal.Decimal
	ShippingCost         decimal.Decimal
	Discount             decimal.Decimal
	Total                decimal.Decimal
	OrderDate            time.Time
	ExpectedDeliveryDate *time.Time
	ApprovedAt           *time.Time
	ShippedAt            *time.Time
	ReceivedAt           *time.Time
	CancelledAt          *time.Time
	CancelReason         string
	Remark               string
}

// NewPurchaseOrder submits a pending order and computes its totals
func NewPurchaseOrder(
	tenantID, supplierID uuid.UUID,
	lines []PurchaseOrderLine,
	shippingCost, discount decimal.Decimal,
	orderDate time.Time,
	expectedDeliveryDate *time.Time,
) (*PurchaseOrder, error) {
	if supplierID == uuid.Nil {
		return nil, shared.NewValidationError("Supplier ID cannot be empty")
	}
	if len(lines) == 0 {
		return nil, shared.NewValidationError("Purchase order must have at least one item")
	}
	if shippingCost.IsNegative() || discount.IsNegative() {
		return nil, shared.ErrInvalidAmount
	}
	if orderDate.IsZero() {
		orderDate = time.Now()
	}
	if expectedDeliveryDate != nil && expectedDeliveryDate.Before(orderDate) {
		return nil, shared.NewValidationError("Expected delivery date cannot be before order date")
	}

	order := &PurchaseOrder{
		TenantAggregateRoot:  shared.NewTenantAggregateRoot(tenantID),
		SupplierID:           supplierID,
		Status:               PurchaseOrderStatusPending,
		ShippingCost:         shippingCost.Round(2),
		Discount:             discount.Round(2),
		OrderDate:            orderDate,
		ExpectedDeliveryDate: expectedDeliveryDate,
	}

	seen := make(map[uuid.UUID]bool, len(lines))
	for _, line := range lines {
		if line.StockUnitID == uuid.Nil {
			return nil, shared.ErrUnknownStockUnit
		}
		if seen[line.StockUnitID] {
			return nil, shared.NewValidationError(fmt.Sprintf("Stock unit %s appears more than once", line.StockUnitID))
		}
		seen[line.StockUnitID] = true
		if line.OrderedQty <= 0 {
			return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Ordered quantity must be positive")
		}
		if line.UnitCost.IsNegative() {
			return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Unit cost cannot be negative")
		}
		order.Items = append(order.Items, PurchaseOrderItem{
			ID:          uuid.New(),
			OrderID:     order.ID,
			StockUnitID: line.StockUnitID,
			OrderedQty:  line.OrderedQty,
			UnitCost:    line.UnitCost,
			Amount:      line.UnitCost.Mul(decimal.NewFromInt(int64(line.OrderedQty))).Round(2),
		})
	}

	order.recalculateTotals()
	if order.Total.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Discount cannot exceed subtotal plus shipping")
	}

	order.AddDomainEvent(NewPurchaseOrderSubmittedEvent(order))
	return order, nil
}

// AdvanceTo moves the order along its lifecycle. Receiving goes through Receive.
func (o *PurchaseOrder) AdvanceTo(target PurchaseOrderStatus, reason string) error {
	if !target.IsValid() || target == PurchaseOrderStatusReceived || !o.Status.CanTransitionTo(target) {
		return shared.NewTransitionError("purchase order", o.Status.String(), target.String())
	}

	from := o.Status
	now := time.Now()
	switch target {
	case PurchaseOrderStatusApproved:
		o.ApprovedAt = &now
	case PurchaseOrderStatusInTransit:
		o.ShippedAt = &now
	case PurchaseOrderStatusCancelled:
		o.CancelledAt = &now
		o.CancelReason = reason
	}
	o.Status = target
	o.AddDomainEvent(NewPurchaseOrderStatusChangedEvent(o, from))

	o.Touch()
	o.IncrementVersion()
	return nil
}

// Receive records the received quantities and marks the order received.
// Partial receipt still completes the order; remaining quantities stay informational.
// Returns the lines whose stock must be credited. An empty input receives everything as ordered.
func (o *PurchaseOrder) Receive(received []ReceivedLine) ([]ReceivedLine, error) {
	if o.Status == PurchaseOrderStatusReceived {
		return nil, shared.ErrAlreadyReceived.WithDetail("order_id", o.ID.String())
	}
	if !o.Status.CanTransitionTo(PurchaseOrderStatusReceived) {
		return nil, shared.NewTransitionError("purchase order", o.Status.String(), PurchaseOrderStatusReceived.String())
	}

	if len(received) == 0 {
		for _, item := range o.Items {
			received = append(received, ReceivedLine{StockUnitID: item.StockUnitID, ReceivedQty: item.OrderedQty})
		}
	}

	quantities := make(map[uuid.UUID]int, len(received))
	for _, line := range received {
		item := o.findItem(line.StockUnitID)
		if item == nil {
			return nil, shared.NewValidationError(fmt.Sprintf("Stock unit %s is not part of this order", line.StockUnitID)).
				WithDetail("stock_unit_id", line.StockUnitID.String())
		}
		if line.ReceivedQty < 0 {
			return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Received quantity cannot be negative")
		}
		quantities[line.StockUnitID] += line.ReceivedQty
		if quantities[line.StockUnitID] > item.OrderedQty {
			return nil, shared.NewValidationError(fmt.Sprintf("Received quantity for %s exceeds ordered quantity", line.StockUnitID)).
				WithDetail("stock_unit_id", line.StockUnitID.String())
		}
	}

	credits := make([]ReceivedLine, 0, len(quantities))
	for i := range o.Items {
		qty := quantities[o.Items[i].StockUnitID]
		o.Items[i].ReceivedQty = qty
		if qty > 0 {
			credits = append(credits, ReceivedLine{StockUnitID: o.Items[i].StockUnitID, ReceivedQty: qty})
		}
	}

	now := time.Now()
	o.Status = PurchaseOrderStatusReceived
	o.ReceivedAt = &now
	o.AddDomainEvent(NewPurchaseOrderReceivedEvent(o, credits))

	o.Touch()
	o.IncrementVersion()
	return credits, nil
}

// IsFullyReceived reports whether every line was received as ordered
func (o *PurchaseOrder) IsFullyReceived() bool {
	for _, item := range o.Items {
		if item.RemainingQty() > 0 {
			return false
		}
	}
	return true
}

// ReceivedTotal is what the supplier is owed for the goods actually received:
// received lines at unit cost plus shipping, less discount, never below zero.
// It equals Total for a full receipt.
func (o *PurchaseOrder) ReceivedTotal() decimal.Decimal {
	goods := decimal.Zero
	for _, item := range o.Items {
		goods = goods.Add(item.UnitCost.Mul(decimal.NewFromInt(int64(item.ReceivedQty))).Round(2))
	}
	return decimal.Max(goods.Add(o.ShippingCost).Sub(o.Discount), decimal.Zero)
}

// ReferencesStockUnit reports whether the order contains the stock unit
func (o *PurchaseOrder) ReferencesStockUnit(stockUnitID uuid.UUID) bool {
	return o.findItem(stockUnitID) != nil
}

// StockToken is the idempotency token for crediting one stock unit of this order
func (o *PurchaseOrder) StockToken(stockUnitID uuid.UUID) string {
	return fmt.Sprintf("po:%s:%s", o.ID, stockUnitID)
}

func (o *PurchaseOrder) findItem(stockUnitID uuid.UUID) *PurchaseOrderItem {
	for i := range o.Items {
		if o.Items[i].StockUnitID == stockUnitID {
			return &o.Items[i]
		}
	}
	return nil
}

func (o *PurchaseOrder) recalculateTotals() {
	subtotal := decimal.Zero
	for _, item := range o.Items {
		subtotal = subtotal.Add(item.Amount)
	}
	o.Subtotal = subtotal
	o.Total = subtotal.Add(o.ShippingCost).Sub(o.Discount)
}
