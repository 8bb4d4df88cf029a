// Package cashier models register sessions that scope point-of-sale activity.
package cashier

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// SessionStatus is the state of a cash session
type SessionStatus string

const (
	SessionStatusOpen   SessionStatus = "open"
	SessionStatusClosed SessionStatus = "closed"
)

// CashSession is a bounded period during which sales are attributed to an open register.
// At most one session per tenant is open at a time; the gate service enforces it.
type CashSession struct {
	shared.TenantAggregateRoot
	OpenedBy      uuid.UUID
	OpenedAt      time.Time
	OpeningAmount decimal.Decimal
	ClosedBy      *uuid.UUID
	ClosedAt      *time.Time
	ClosingAmount *decimal.Decimal
	Status        SessionStatus
}

// OpenCashSession starts a new session
func OpenCashSession(tenantID, openedBy uuid.UUID, openingAmount decimal.Decimal) (*CashSession, error) {
	if openedBy == uuid.Nil {
		return nil, shared.NewValidationError("Opening user cannot be empty")
	}
	if openingAmount.IsNegative() {
		return nil, shared.ErrInvalidAmount
	}

	s := &CashSession{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		OpenedBy:            openedBy,
		OpenedAt:            time.Now(),
		OpeningAmount:       openingAmount.Round(2),
		Status:              SessionStatusOpen,
	}
	s.AddDomainEvent(NewCashSessionOpenedEvent(s))
	return s, nil
}

// Close ends the session
func (s *CashSession) Close(closedBy uuid.UUID, closingAmount *decimal.Decimal) error {
	if s.Status != SessionStatusOpen {
		return shared.NewTransitionError("cash session", string(s.Status), string(SessionStatusClosed))
	}
	if closingAmount != nil && closingAmount.IsNegative() {
		return shared.ErrInvalidAmount
	}

	now := time.Now()
	s.Status = SessionStatusClosed
	s.ClosedAt = &now
	if closedBy != uuid.Nil {
		s.ClosedBy = &closedBy
	}
	if closingAmount != nil {
		rounded := closingAmount.Round(2)
		s.ClosingAmount = &rounded
	}
	s.AddDomainEvent(NewCashSessionClosedEvent(s))

	s.Touch()
	s.IncrementVersion()
	return nil
}

// IsOpen reports whether sales may be attributed to the session
func (s *CashSession) IsOpen() bool {
	return s.Status == SessionStatusOpen
}

// CashSessionRepository persists cash sessions
type CashSessionRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*CashSession, error)
	// FindOpen returns shared.ErrNotFound when the tenant has no open session
	FindOpen(ctx context.Context, tenantID uuid.UUID) (*CashSession, error)
	// Create fails with shared.ErrSessionAlreadyOpen if another open session exists
	Create(ctx context.Context, session *CashSession) error
	SaveWithLock(ctx context.Context, session *CashSession) error
}
