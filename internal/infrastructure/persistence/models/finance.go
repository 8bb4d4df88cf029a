package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// LedgerEntryModel is the persistence model for payables and receivables.
type LedgerEntryModel struct {
	TenantAggregateModel
	Kind             string                  `gorm:"type:varchar(20);not null;index"`
	Description      string                  `gorm:"type:varchar(500);not null;default:''"`
	Amount           decimal.Decimal         `gorm:"type:decimal(18,2);not null"`
	AmountSettled    decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	IssueDate        time.Time               `gorm:"not null"`
	DueDate          time.Time               `gorm:"not null;index"`
	Status           string                  `gorm:"type:varchar(20);not null;index"`
	CounterpartyType string                  `gorm:"type:varchar(20);not null;default:'none'"`
	CounterpartyID   *uuid.UUID              `gorm:"type:uuid;index"`
	InstallmentIndex int                     `gorm:"not null;default:1"`
	InstallmentCount int                     `gorm:"not null;default:1"`
	SourceType       string                  `gorm:"type:varchar(30);not null;index:idx_ledger_entries_source,priority:1"`
	SourceID         string                  `gorm:"type:varchar(64);not null;default:'';index:idx_ledger_entries_source,priority:2"`
	ReversesEntryID  *uuid.UUID              `gorm:"type:uuid"`
	SettledAt        *time.Time
	CancelledAt      *time.Time
	CancelReason     string                  `gorm:"type:varchar(500);not null;default:''"`
	WrittenOffAmount decimal.Decimal         `gorm:"type:decimal(18,2);not null;default:0"`
	Settlements      []LedgerSettlementModel `gorm:"foreignKey:EntryID;references:ID"`
}

// TableName returns the table name for GORM
func (LedgerEntryModel) TableName() string {
	return "ledger_entries"
}

// LedgerEntryModelFromDomain creates a model from a domain LedgerEntry.
// Settlements are written separately by the repository.
func LedgerEntryModelFromDomain(e *finance.LedgerEntry) *LedgerEntryModel {
	m := &LedgerEntryModel{
		Kind:             string(e.Kind),
		Description:      e.Description,
		Amount:           e.Amount,
		AmountSettled:    e.AmountSettled,
		IssueDate:        e.IssueDate,
		DueDate:          e.DueDate,
		Status:           string(e.Status),
		CounterpartyType: string(e.Counterparty.Type),
		CounterpartyID:   e.Counterparty.ID,
		InstallmentIndex: e.InstallmentIndex,
		InstallmentCount: e.InstallmentCount,
		SourceType:       e.SourceType,
		SourceID:         e.SourceID,
		ReversesEntryID:  e.ReversesEntryID,
		SettledAt:        e.SettledAt,
		CancelledAt:      e.CancelledAt,
		CancelReason:     e.CancelReason,
		WrittenOffAmount: e.WrittenOffAmount,
	}
	m.FromDomainTenantAggregateRoot(e.TenantAggregateRoot)
	return m
}

// ToDomain converts the model and its loaded settlements to a domain LedgerEntry.
func (m *LedgerEntryModel) ToDomain() *finance.LedgerEntry {
	e := &finance.LedgerEntry{
		Kind:          finance.EntryKind(m.Kind),
		Description:   m.Description,
		Amount:        m.Amount,
		AmountSettled: m.AmountSettled,
		IssueDate:     m.IssueDate,
		DueDate:       m.DueDate,
		Status:        finance.EntryStatus(m.Status),
		Counterparty: finance.CounterpartyRef{
			Type: finance.CounterpartyType(m.CounterpartyType),
			ID:   m.CounterpartyID,
		},
		InstallmentIndex: m.InstallmentIndex,
		InstallmentCount: m.InstallmentCount,
		SourceType:       m.SourceType,
		SourceID:         m.SourceID,
		ReversesEntryID:  m.ReversesEntryID,
		SettledAt:        m.SettledAt,
		CancelledAt:      m.CancelledAt,
		CancelReason:     m.CancelReason,
		WrittenOffAmount: m.WrittenOffAmount,
		Settlements:      make([]finance.LedgerSettlement, 0, len(m.Settlements)),
	}
	m.PopulateTenantAggregateRoot(&e.TenantAggregateRoot)
	for i := range m.Settlements {
		e.Settlements = append(e.Settlements, m.Settlements[i].ToDomain())
	}
	return e
}

// LedgerSettlementModel is one payment applied to a ledger entry.
type LedgerSettlementModel struct {
	ID            uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	EntryID       uuid.UUID       `gorm:"type:uuid;not null;index"`
	Amount        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	PaymentMethod string          `gorm:"type:varchar(30);not null;default:''"`
	PaidAt        time.Time       `gorm:"not null"`
	CreatedAt     time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (LedgerSettlementModel) TableName() string {
	return "ledger_settlements"
}

// LedgerSettlementModelFromDomain creates a model from a domain settlement.
func LedgerSettlementModelFromDomain(s finance.LedgerSettlement) LedgerSettlementModel {
	return LedgerSettlementModel{
		ID:            s.ID,
		TenantID:      s.TenantID,
		EntryID:       s.EntryID,
		Amount:        s.Amount,
		PaymentMethod: s.PaymentMethod,
		PaidAt:        s.PaidAt,
		CreatedAt:     s.CreatedAt,
	}
}

// ToDomain converts the model to a domain settlement.
func (m *LedgerSettlementModel) ToDomain() finance.LedgerSettlement {
	return finance.LedgerSettlement{
		ID:            m.ID,
		TenantID:      m.TenantID,
		EntryID:       m.EntryID,
		Amount:        m.Amount,
		PaymentMethod: m.PaymentMethod,
		PaidAt:        m.PaidAt,
		CreatedAt:     m.CreatedAt,
	}
}
