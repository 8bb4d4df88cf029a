package partner

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// TransactionKind is the movement type of a customer ledger transaction.
// debit_add and credit_increase raise exposure; debit_pay and credit_decrease lower it.
type TransactionKind string

const (
	KindDebitAdd       TransactionKind = "debit_add"
	KindDebitPay       TransactionKind = "debit_pay"
	KindCreditIncrease TransactionKind = "credit_increase"
	KindCreditDecrease TransactionKind = "credit_decrease"
)

// Source types of customer transactions
const (
	SourceManual     = "manual"
	SourceSale       = "sale"
	SourceSaleCancel = "sale_cancel"
	// SourceReceivable marks a debt payment collected through a sale's receivable
	SourceReceivable = "receivable_settlement"
)

// String returns the string representation
func (k TransactionKind) String() string {
	return string(k)
}

// IsValid checks if the kind is known
func (k TransactionKind) IsValid() bool {
	switch k {
	case KindDebitAdd, KindDebitPay, KindCreditIncrease, KindCreditDecrease:
		return true
	}
	return false
}

// AffectsDebt reports whether the kind moves the debt balance (otherwise the credit limit)
func (k TransactionKind) AffectsDebt() bool {
	return k == KindDebitAdd || k == KindDebitPay
}

// IsIncrease reports whether the kind raises the affected balance
func (k TransactionKind) IsIncrease() bool {
	return k == KindDebitAdd || k == KindCreditIncrease
}

// Inverse returns the kind that undoes this one
func (k TransactionKind) Inverse() TransactionKind {
	switch k {
	case KindDebitAdd:
		return KindDebitPay
	case KindDebitPay:
		return KindDebitAdd
	case KindCreditIncrease:
		return KindCreditDecrease
	default:
		return KindCreditIncrease
	}
}

// CustomerLedgerTransaction is one immutable movement on a customer account.
// Amount is the effect actually applied, which may be smaller than RequestedAmount
// when a decrease was clamped at zero.
type CustomerLedgerTransaction struct {
	ID               uuid.UUID
	TenantID         uuid.UUID
	CustomerID       uuid.UUID
	Kind             TransactionKind
	Amount           decimal.Decimal
	RequestedAmount  decimal.Decimal
	Description      string
	Date             time.Time
	DebtAfter        decimal.Decimal
	CreditLimitAfter decimal.Decimal
	ReversesID       *uuid.UUID
	SourceType       string
	SourceID         string
	CreatedAt        time.Time
}

// SignedAmount returns the amount with the sign of its effect on the affected balance
func (t *CustomerLedgerTransaction) SignedAmount() decimal.Decimal {
	if t.Kind.IsIncrease() {
		return t.Amount
	}
	return t.Amount.Neg()
}

// IsReversal reports whether the transaction compensates another one
func (t *CustomerLedgerTransaction) IsReversal() bool {
	return t.ReversesID != nil
}

// WithSource links the transaction to the operation that produced it
func (t *CustomerLedgerTransaction) WithSource(sourceType, sourceID string) *CustomerLedgerTransaction {
	t.SourceType = sourceType
	t.SourceID = sourceID
	return t
}

// ReversalDescription builds the description of a compensating entry
func ReversalDescription(original *CustomerLedgerTransaction) string {
	return fmt.Sprintf("reversal of %s", original.Description)
}

// ValidateAmount checks a requested transaction amount
func ValidateAmount(amount decimal.Decimal) error {
	if amount.LessThanOrEqual(decimal.Zero) {
		return shared.ErrInvalidAmount
	}
	return nil
}
