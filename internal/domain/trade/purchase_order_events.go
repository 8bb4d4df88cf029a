package trade

import (
	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypePurchaseOrder is the aggregate type of purchase order events
const AggregateTypePurchaseOrder = "PurchaseOrder"

// Event type constants for purchase orders
const (
	EventTypePurchaseOrderSubmitted     = "PurchaseOrderSubmitted"
	EventTypePurchaseOrderStatusChanged = "PurchaseOrderStatusChanged"
	EventTypePurchaseOrderReceived      = "PurchaseOrderReceived"
)

// PurchaseOrderSubmittedEvent is raised when an order is created
type PurchaseOrderSubmittedEvent struct {
	shared.BaseDomainEvent
	OrderID    uuid.UUID       `json:"order_id"`
	SupplierID uuid.UUID       `json:"supplier_id"`
	Total      decimal.Decimal `json:"total"`
}

// NewPurchaseOrderSubmittedEvent creates a PurchaseOrderSubmittedEvent
func NewPurchaseOrderSubmittedEvent(o *PurchaseOrder) *PurchaseOrderSubmittedEvent {
	return &PurchaseOrderSubmittedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderSubmitted, AggregateTypePurchaseOrder, o.ID, o.TenantID),
		OrderID:         o.ID,
		SupplierID:      o.SupplierID,
		Total:           o.Total,
	}
}

// EventType returns the event type name
func (e *PurchaseOrderSubmittedEvent) EventType() string {
	return EventTypePurchaseOrderSubmitted
}

// PurchaseOrderStatusChangedEvent is raised on approve, ship and cancel
type PurchaseOrderStatusChangedEvent struct {
	shared.BaseDomainEvent
	OrderID uuid.UUID           `json:"order_id"`
	From    PurchaseOrderStatus `json:"from"`
	To      PurchaseOrderStatus `json:"to"`
	Reason  string              `json:"reason,omitempty"`
}

// NewPurchaseOrderStatusChangedEvent creates a PurchaseOrderStatusChangedEvent
func NewPurchaseOrderStatusChangedEvent(o *PurchaseOrder, from PurchaseOrderStatus) *PurchaseOrderStatusChangedEvent {
	return &PurchaseOrderStatusChangedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderStatusChanged, AggregateTypePurchaseOrder, o.ID, o.TenantID),
		OrderID:         o.ID,
		From:            from,
		To:              o.Status,
		Reason:          o.CancelReason,
	}
}

// EventType returns the event type name
func (e *PurchaseOrderStatusChangedEvent) EventType() string {
	return EventTypePurchaseOrderStatusChanged
}

// PurchaseOrderReceivedEvent is raised once, when the order is received
type PurchaseOrderReceivedEvent struct {
	shared.BaseDomainEvent
	OrderID       uuid.UUID      `json:"order_id"`
	SupplierID    uuid.UUID      `json:"supplier_id"`
	Lines         []ReceivedLine `json:"lines"`
	FullyReceived bool           `json:"fully_received"`
}

// NewPurchaseOrderReceivedEvent creates a PurchaseOrderReceivedEvent
func NewPurchaseOrderReceivedEvent(o *PurchaseOrder, lines []ReceivedLine) *PurchaseOrderReceivedEvent {
	return &PurchaseOrderReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypePurchaseOrderReceived, AggregateTypePurchaseOrder, o.ID, o.TenantID),
		OrderID:         o.ID,
		SupplierID:      o.SupplierID,
		Lines:           lines,
		FullyReceived:   o.IsFullyReceived(),
	}
}

// EventType returns the event type name
func (e *PurchaseOrderReceivedEvent) EventType() string {
	return EventTypePurchaseOrderReceived
}
