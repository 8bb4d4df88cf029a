package shared

import (
	"time"

	"github.com/google/uuid"
)

// DomainEvent is a fact recorded by an aggregate. Events are published only
// after the unit of work that produced them commits.
type DomainEvent interface {
	EventID() uuid.UUID
	EventType() string
	OccurredAt() time.Time
	AggregateID() uuid.UUID
	AggregateType() string
	TenantID() uuid.UUID
}

// AggregateRef names the aggregate an event belongs to
type AggregateRef struct {
	Type string    `json:"type"`
	ID   uuid.UUID `json:"id"`
}

// BaseDomainEvent is the envelope embedded by every engine event; the
// embedding type adds the payload.
type BaseDomainEvent struct {
	ID        uuid.UUID    `json:"id"`
	Type      string       `json:"type"`
	At        time.Time    `json:"occurred_at"`
	Aggregate AggregateRef `json:"aggregate"`
	Tenant    uuid.UUID    `json:"tenant_id"`
}

// NewBaseDomainEvent stamps a fresh id and the current time.
func NewBaseDomainEvent(eventType, aggType string, aggID, tenantID uuid.UUID) BaseDomainEvent {
	return BaseDomainEvent{
		ID:        uuid.New(),
		Type:      eventType,
		At:        time.Now(),
		Aggregate: AggregateRef{Type: aggType, ID: aggID},
		Tenant:    tenantID,
	}
}

func (e *BaseDomainEvent) EventID() uuid.UUID     { return e.ID }
func (e *BaseDomainEvent) EventType() string      { return e.Type }
func (e *BaseDomainEvent) OccurredAt() time.Time  { return e.At }
func (e *BaseDomainEvent) AggregateID() uuid.UUID { return e.Aggregate.ID }
func (e *BaseDomainEvent) AggregateType() string  { return e.Aggregate.Type }
func (e *BaseDomainEvent) TenantID() uuid.UUID    { return e.Tenant }
