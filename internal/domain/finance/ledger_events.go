package finance

import (
	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeLedgerEntry is the aggregate type of ledger events
const AggregateTypeLedgerEntry = "LedgerEntry"

// Event type constants
const (
	EventTypeLedgerEntryCreated          = "LedgerEntryCreated"
	EventTypeLedgerEntrySettled          = "LedgerEntrySettled"
	EventTypeLedgerEntryPartiallySettled = "LedgerEntryPartiallySettled"
	EventTypeLedgerEntryCancelled        = "LedgerEntryCancelled"
)

// LedgerEntryCreatedEvent is raised when an entry is posted
type LedgerEntryCreatedEvent struct {
	shared.BaseDomainEvent
	EntryID    uuid.UUID       `json:"entry_id"`
	Kind       EntryKind       `json:"kind"`
	Amount     decimal.Decimal `json:"amount"`
	SourceType string          `json:"source_type"`
	SourceID   string          `json:"source_id"`
}

// NewLedgerEntryCreatedEvent creates a LedgerEntryCreatedEvent
func NewLedgerEntryCreatedEvent(e *LedgerEntry) *LedgerEntryCreatedEvent {
	return &LedgerEntryCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLedgerEntryCreated, AggregateTypeLedgerEntry, e.ID, e.TenantID),
		EntryID:         e.ID,
		Kind:            e.Kind,
		Amount:          e.Amount,
		SourceType:      e.SourceType,
		SourceID:        e.SourceID,
	}
}

// EventType returns the event type name
func (e *LedgerEntryCreatedEvent) EventType() string {
	return EventTypeLedgerEntryCreated
}

// LedgerEntrySettledEvent is raised when the entry is fully covered
type LedgerEntrySettledEvent struct {
	shared.BaseDomainEvent
	EntryID    uuid.UUID       `json:"entry_id"`
	Kind       EntryKind       `json:"kind"`
	LastAmount decimal.Decimal `json:"last_amount"`
	Amount     decimal.Decimal `json:"amount"`
}

// NewLedgerEntrySettledEvent creates a LedgerEntrySettledEvent
func NewLedgerEntrySettledEvent(e *LedgerEntry, paid decimal.Decimal) *LedgerEntrySettledEvent {
	return &LedgerEntrySettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLedgerEntrySettled, AggregateTypeLedgerEntry, e.ID, e.TenantID),
		EntryID:         e.ID,
		Kind:            e.Kind,
		LastAmount:      paid,
		Amount:          e.Amount,
	}
}

// EventType returns the event type name
func (e *LedgerEntrySettledEvent) EventType() string {
	return EventTypeLedgerEntrySettled
}

// LedgerEntryPartiallySettledEvent is raised for a payment that leaves an outstanding amount
type LedgerEntryPartiallySettledEvent struct {
	shared.BaseDomainEvent
	EntryID     uuid.UUID       `json:"entry_id"`
	Paid        decimal.Decimal `json:"paid"`
	Outstanding decimal.Decimal `json:"outstanding"`
}

// NewLedgerEntryPartiallySettledEvent creates a LedgerEntryPartiallySettledEvent
func NewLedgerEntryPartiallySettledEvent(e *LedgerEntry, paid decimal.Decimal) *LedgerEntryPartiallySettledEvent {
	return &LedgerEntryPartiallySettledEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeLedgerEntryPartiallySettled, AggregateTypeLedgerEntry, e.ID, e.TenantID),
		EntryID:         e.ID,
		Paid:            paid,
		Outstanding:     e.OutstandingAmount(),
	}
}

// EventType returns the event type name
func (e *LedgerEntryPartiallySettledEvent) EventType() string {
	return EventTypeLedgerEntryPartiallySettled
}

// LedgerEntryCancelledEvent is raised on cancel and write-off
type LedgerEntryCancelledEvent struct {
	shared.BaseDomainEvent
	EntryID          uuid.UUID       `json:"entry_id"`
	Reason           string          `json:"reason"`
	WrittenOffAmount decimal.Decimal `json:"written_off_amount"`
}

// NewLedgerEntryCancelledEvent creates a LedgerEntryCancelledEvent
func NewLedgerEntryCancelledEvent(e *LedgerEntry) *LedgerEntryCancelledEvent {
	return &LedgerEntryCancelledEvent{
		BaseDomainEvent:  shared.NewBaseDomainEvent(EventTypeLedgerEntryCancelled, AggregateTypeLedgerEntry, e.ID, e.TenantID),
		EntryID:          e.ID,
		Reason:           e.CancelReason,
		WrittenOffAmount: e.WrittenOffAmount,
	}
}

// EventType returns the event type name
func (e *LedgerEntryCancelledEvent) EventType() string {
	return EventTypeLedgerEntryCancelled
}
