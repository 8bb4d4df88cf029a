package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/cashier"
	"github.com/shopspring/decimal"
)

// CashSessionModel is the persistence model for the CashSession aggregate root.
// A partial unique index keeps one open session per tenant.
type CashSessionModel struct {
	TenantAggregateModel
	OpenedBy      uuid.UUID        `gorm:"type:uuid;not null"`
	OpenedAt      time.Time        `gorm:"not null"`
	OpeningAmount decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	ClosedBy      *uuid.UUID       `gorm:"type:uuid"`
	ClosedAt      *time.Time
	ClosingAmount *decimal.Decimal `gorm:"type:decimal(18,2)"`
	Status        string           `gorm:"type:varchar(10);not null;index"`
}

// TableName returns the table name for GORM
func (CashSessionModel) TableName() string {
	return "cash_sessions"
}

// CashSessionModelFromDomain creates a model from a domain CashSession.
func CashSessionModelFromDomain(s *cashier.CashSession) *CashSessionModel {
	m := &CashSessionModel{
		OpenedBy:      s.OpenedBy,
		OpenedAt:      s.OpenedAt,
		OpeningAmount: s.OpeningAmount,
		ClosedBy:      s.ClosedBy,
		ClosedAt:      s.ClosedAt,
		ClosingAmount: s.ClosingAmount,
		Status:        string(s.Status),
	}
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	return m
}

// ToDomain converts the model to a domain CashSession.
func (m *CashSessionModel) ToDomain() *cashier.CashSession {
	s := &cashier.CashSession{
		OpenedBy:      m.OpenedBy,
		OpenedAt:      m.OpenedAt,
		OpeningAmount: m.OpeningAmount,
		ClosedBy:      m.ClosedBy,
		ClosedAt:      m.ClosedAt,
		ClosingAmount: m.ClosingAmount,
		Status:        cashier.SessionStatus(m.Status),
	}
	m.PopulateTenantAggregateRoot(&s.TenantAggregateRoot)
	return s
}
