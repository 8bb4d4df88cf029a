package inventory

import (
	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
)

// AggregateTypeStockUnit is the aggregate type of stock events
const AggregateTypeStockUnit = "StockUnit"

// Event type constants
const (
	EventTypeStockDebited  = "StockDebited"
	EventTypeStockCredited = "StockCredited"
)

// StockDebitedEvent is raised after a debit has been committed
type StockDebitedEvent struct {
	shared.BaseDomainEvent
	StockUnitID   uuid.UUID `json:"stock_unit_id"`
	Quantity      int       `json:"quantity"`
	QuantityAfter int       `json:"quantity_after"`
	SourceType    string    `json:"source_type"`
	SourceID      string    `json:"source_id"`
}

// NewStockDebitedEvent creates a StockDebitedEvent from an applied movement
func NewStockDebitedEvent(m *StockMovement) *StockDebitedEvent {
	return &StockDebitedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockDebited, AggregateTypeStockUnit, m.StockUnitID, m.TenantID),
		StockUnitID:     m.StockUnitID,
		Quantity:        m.Quantity,
		QuantityAfter:   m.QuantityAfter,
		SourceType:      m.SourceType,
		SourceID:        m.SourceID,
	}
}

// EventType returns the event type name
func (e *StockDebitedEvent) EventType() string {
	return EventTypeStockDebited
}

// StockCreditedEvent is raised after a credit has been committed
type StockCreditedEvent struct {
	shared.BaseDomainEvent
	StockUnitID   uuid.UUID `json:"stock_unit_id"`
	Quantity      int       `json:"quantity"`
	QuantityAfter int       `json:"quantity_after"`
	SourceType    string    `json:"source_type"`
	SourceID      string    `json:"source_id"`
}

// NewStockCreditedEvent creates a StockCreditedEvent from an applied movement
func NewStockCreditedEvent(m *StockMovement) *StockCreditedEvent {
	return &StockCreditedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockCredited, AggregateTypeStockUnit, m.StockUnitID, m.TenantID),
		StockUnitID:     m.StockUnitID,
		Quantity:        m.Quantity,
		QuantityAfter:   m.QuantityAfter,
		SourceType:      m.SourceType,
		SourceID:        m.SourceID,
	}
}

// EventType returns the event type name
func (e *StockCreditedEvent) EventType() string {
	return EventTypeStockCredited
}

// NewMovementEvent returns the event matching the movement direction
func NewMovementEvent(m *StockMovement) shared.DomainEvent {
	if m.Direction == MovementDebit {
		return NewStockDebitedEvent(m)
	}
	return NewStockCreditedEvent(m)
}
