package cashier

import (
	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
)

// AggregateTypeCashSession is the aggregate type of session events
const AggregateTypeCashSession = "CashSession"

// Event type constants
const (
	EventTypeCashSessionOpened = "CashSessionOpened"
	EventTypeCashSessionClosed = "CashSessionClosed"
)

// CashSessionOpenedEvent is raised when a register opens
type CashSessionOpenedEvent struct {
	shared.BaseDomainEvent
	SessionID uuid.UUID `json:"session_id"`
	OpenedBy  uuid.UUID `json:"opened_by"`
}

// NewCashSessionOpenedEvent creates a CashSessionOpenedEvent
func NewCashSessionOpenedEvent(s *CashSession) *CashSessionOpenedEvent {
	return &CashSessionOpenedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCashSessionOpened, AggregateTypeCashSession, s.ID, s.TenantID),
		SessionID:       s.ID,
		OpenedBy:        s.OpenedBy,
	}
}

// EventType returns the event type name
func (e *CashSessionOpenedEvent) EventType() string {
	return EventTypeCashSessionOpened
}

// CashSessionClosedEvent is raised when a register closes
type CashSessionClosedEvent struct {
	shared.BaseDomainEvent
	SessionID uuid.UUID `json:"session_id"`
}

// NewCashSessionClosedEvent creates a CashSessionClosedEvent
func NewCashSessionClosedEvent(s *CashSession) *CashSessionClosedEvent {
	return &CashSessionClosedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCashSessionClosed, AggregateTypeCashSession, s.ID, s.TenantID),
		SessionID:       s.ID,
	}
}

// EventType returns the event type name
func (e *CashSessionClosedEvent) EventType() string {
	return EventTypeCashSessionClosed
}
