package partner

import (
	"time"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// CustomerAccount holds the running debt balance and credit limit of a customer.
// Both are derived by applying transactions one at a time, so that
// DebtBalance equals the signed sum of debit transactions and CreditLimit the
// signed sum of credit transactions.
type CustomerAccount struct {
	shared.TenantAggregateRoot
	CustomerID  uuid.UUID
	DebtBalance decimal.Decimal
	CreditLimit decimal.Decimal
}

// NewCustomerAccount opens an empty account for a customer
func NewCustomerAccount(tenantID, customerID uuid.UUID) (*CustomerAccount, error) {
	if customerID == uuid.Nil {
		return nil, shared.NewValidationError("Customer ID cannot be empty")
	}
	return &CustomerAccount{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		CustomerID:          customerID,
		DebtBalance:         decimal.Zero,
		CreditLimit:         decimal.Zero,
	}, nil
}

// AvailableCredit returns max(0, creditLimit - debtBalance)
func (a *CustomerAccount) AvailableCredit() decimal.Decimal {
	available := a.CreditLimit.Sub(a.DebtBalance)
	if available.IsNegative() {
		return decimal.Zero
	}
	return available
}

// HasCreditFor reports whether amount fits in the available credit
func (a *CustomerAccount) HasCreditFor(amount decimal.Decimal) bool {
	return a.AvailableCredit().GreaterThanOrEqual(amount)
}

// Record applies a movement and returns the transaction to append.
// Decreases are clamped so neither balance goes below zero, and the clamped
// amount is what gets recorded. A movement that would apply nothing is rejected.
func (a *CustomerAccount) Record(kind TransactionKind, amount decimal.Decimal, description string, date time.Time) (*CustomerLedgerTransaction, error) {
	if !kind.IsValid() {
		return nil, shared.NewValidationError("Invalid customer transaction kind: " + string(kind))
	}
	requested := amount.Round(2)
	if err := ValidateAmount(requested); err != nil {
		return nil, err
	}

	applied := requested
	switch kind {
	case KindDebitAdd:
		a.DebtBalance = a.DebtBalance.Add(applied)
	case KindDebitPay:
		applied = decimal.Min(requested, a.DebtBalance)
		a.DebtBalance = a.DebtBalance.Sub(applied)
	case KindCreditIncrease:
		a.CreditLimit = a.CreditLimit.Add(applied)
	case KindCreditDecrease:
		applied = decimal.Min(requested, a.CreditLimit)
		a.CreditLimit = a.CreditLimit.Sub(applied)
	}
	if applied.LessThanOrEqual(decimal.Zero) {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Balance is already zero; nothing to apply")
	}
	if date.IsZero() {
		date = time.Now()
	}

	tx := &CustomerLedgerTransaction{
		ID:               uuid.New(),
		TenantID:         a.TenantID,
		CustomerID:       a.CustomerID,
		Kind:             kind,
		Amount:           applied,
		RequestedAmount:  requested,
		Description:      description,
		Date:             date,
		DebtAfter:        a.DebtBalance,
		CreditLimitAfter: a.CreditLimit,
		CreatedAt:        time.Now(),
	}

	a.AddDomainEvent(NewCustomerTransactionRecordedEvent(a, tx))
	a.Touch()
	a.IncrementVersion()
	return tx, nil
}

// Reverse appends a compensating transaction with the inverse kind and the
// original applied amount. The original is never modified.
func (a *CustomerAccount) Reverse(original *CustomerLedgerTransaction, date time.Time) (*CustomerLedgerTransaction, error) {
	if original.CustomerID != a.CustomerID || original.TenantID != a.TenantID {
		return nil, shared.ErrNotFound
	}
	tx, err := a.Record(original.Kind.Inverse(), original.Amount, ReversalDescription(original), date)
	if err != nil {
		return nil, err
	}
	originalID := original.ID
	tx.ReversesID = &originalID
	return tx, nil
}
