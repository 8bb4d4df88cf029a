package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// CustomerAccountModel holds the running balances of one customer.
type CustomerAccountModel struct {
	TenantAggregateModel
	CustomerID  uuid.UUID       `gorm:"type:uuid;not null;uniqueIndex"`
	DebtBalance decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
	CreditLimit decimal.Decimal `gorm:"type:decimal(18,2);not null;default:0"`
}

// TableName returns the table name for GORM
func (CustomerAccountModel) TableName() string {
	return "customer_accounts"
}

// CustomerAccountModelFromDomain creates a model from a domain CustomerAccount.
func CustomerAccountModelFromDomain(a *partner.CustomerAccount) *CustomerAccountModel {
	m := &CustomerAccountModel{
		CustomerID:  a.CustomerID,
		DebtBalance: a.DebtBalance,
		CreditLimit: a.CreditLimit,
	}
	m.FromDomainTenantAggregateRoot(a.TenantAggregateRoot)
	return m
}

// ToDomain converts the model to a domain CustomerAccount.
func (m *CustomerAccountModel) ToDomain() *partner.CustomerAccount {
	a := &partner.CustomerAccount{
		CustomerID:  m.CustomerID,
		DebtBalance: m.DebtBalance,
		CreditLimit: m.CreditLimit,
	}
	m.PopulateTenantAggregateRoot(&a.TenantAggregateRoot)
	return a
}

// CustomerTransactionModel is an append-only row of a customer account history.
type CustomerTransactionModel struct {
	ID               uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID         uuid.UUID       `gorm:"type:uuid;not null;index:idx_customer_transactions_customer,priority:1"`
	CustomerID       uuid.UUID       `gorm:"type:uuid;not null;index:idx_customer_transactions_customer,priority:2"`
	Kind             string          `gorm:"type:varchar(20);not null"`
	Amount           decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	RequestedAmount  decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Description      string          `gorm:"type:varchar(500);not null;default:''"`
	Date             time.Time       `gorm:"not null"`
	DebtAfter        decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	CreditLimitAfter decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	ReversesID       *uuid.UUID      `gorm:"type:uuid;index"`
	SourceType       string          `gorm:"type:varchar(30);not null;index:idx_customer_transactions_source,priority:1"`
	SourceID         string          `gorm:"type:varchar(64);not null;default:'';index:idx_customer_transactions_source,priority:2"`
	CreatedAt        time.Time       `gorm:"not null"`
}

// TableName returns the table name for GORM
func (CustomerTransactionModel) TableName() string {
	return "customer_transactions"
}

// CustomerTransactionModelFromDomain creates a model from a domain transaction.
func CustomerTransactionModelFromDomain(tx *partner.CustomerLedgerTransaction) *CustomerTransactionModel {
	return &CustomerTransactionModel{
		ID:               tx.ID,
		TenantID:         tx.TenantID,
		CustomerID:       tx.CustomerID,
		Kind:             string(tx.Kind),
		Amount:           tx.Amount,
		RequestedAmount:  tx.RequestedAmount,
		Description:      tx.Description,
		Date:             tx.Date,
		DebtAfter:        tx.DebtAfter,
		CreditLimitAfter: tx.CreditLimitAfter,
		ReversesID:       tx.ReversesID,
		SourceType:       tx.SourceType,
		SourceID:         tx.SourceID,
		CreatedAt:        tx.CreatedAt,
	}
}

// ToDomain converts the model to a domain transaction.
func (m *CustomerTransactionModel) ToDomain() *partner.CustomerLedgerTransaction {
	return &partner.CustomerLedgerTransaction{
		ID:               m.ID,
		TenantID:         m.TenantID,
		CustomerID:       m.CustomerID,
		Kind:             partner.TransactionKind(m.Kind),
		Amount:           m.Amount,
		RequestedAmount:  m.RequestedAmount,
		Description:      m.Description,
		Date:             m.Date,
		DebtAfter:        m.DebtAfter,
		CreditLimitAfter: m.CreditLimitAfter,
		ReversesID:       m.ReversesID,
		SourceType:       m.SourceType,
		SourceID:         m.SourceID,
		CreatedAt:        m.CreatedAt,
	}
}

// PartnerModel is a row of the customer or supplier registry. The engine only
// checks that a referenced partner exists in the tenant.
type PartnerModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID  uuid.UUID `gorm:"type:uuid;not null;index"`
	Name      string    `gorm:"type:varchar(200);not null"`
	CreatedAt time.Time `gorm:"not null"`
}

// CustomerModel is the customer registry table.
type CustomerModel struct{ PartnerModel }

// TableName returns the table name for GORM
func (CustomerModel) TableName() string { return "customers" }

// SupplierModel is the supplier registry table.
type SupplierModel struct{ PartnerModel }

// TableName returns the table name for GORM
func (SupplierModel) TableName() string { return "suppliers" }
