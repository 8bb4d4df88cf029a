package trade

import (
	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeSale is the aggregate type of sale events
const AggregateTypeSale = "Sale"

// Event type constants for sales
const (
	EventTypeSaleFinalized = "SaleFinalized"
	EventTypeSaleCancelled = "SaleCancelled"
)

// SaleFinalizedEvent is raised after a sale committed
type SaleFinalizedEvent struct {
	shared.BaseDomainEvent
	SaleID        uuid.UUID       `json:"sale_id"`
	Total         decimal.Decimal `json:"total"`
	PaymentMethod PaymentMethod   `json:"payment_method"`
	CustomerID    *uuid.UUID      `json:"customer_id,omitempty"`
}

// NewSaleFinalizedEvent creates a SaleFinalizedEvent
func NewSaleFinalizedEvent(s *Sale) *SaleFinalizedEvent {
	return &SaleFinalizedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleFinalized, AggregateTypeSale, s.ID, s.TenantID),
		SaleID:          s.ID,
		Total:           s.Total,
		PaymentMethod:   s.PaymentMethod,
		CustomerID:      s.CustomerID,
	}
}

// EventType returns the event type name
func (e *SaleFinalizedEvent) EventType() string {
	return EventTypeSaleFinalized
}

// SaleCancelledEvent is raised when a sale is cancelled
type SaleCancelledEvent struct {
	shared.BaseDomainEvent
	SaleID uuid.UUID `json:"sale_id"`
	Reason string    `json:"reason"`
}

// NewSaleCancelledEvent creates a SaleCancelledEvent
func NewSaleCancelledEvent(s *Sale) *SaleCancelledEvent {
	return &SaleCancelledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeSaleCancelled, AggregateTypeSale, s.ID, s.TenantID),
		SaleID:          s.ID,
		Reason:          s.CancelReason,
	}
}

// EventType returns the event type name
func (e *SaleCancelledEvent) EventType() string {
	return EventTypeSaleCancelled
}
