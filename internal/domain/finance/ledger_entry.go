package finance

import (
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// EntryKind distinguishes money owed by the tenant from money owed to it
type EntryKind string

const (
	EntryKindPayable    EntryKind = "payable"
	EntryKindReceivable EntryKind = "receivable"
)

// IsValid checks if the kind is known
func (k EntryKind) IsValid() bool {
	return k == EntryKindPayable || k == EntryKindReceivable
}

// EntryStatus is the settlement state of a ledger entry.
//
//	pending -> settled    (settle covers the amount)
//	pending -> pending    (partial settle)
//	pending -> cancelled  (cancel with nothing settled, or explicit write-off)
type EntryStatus string

const (
	EntryStatusPending   EntryStatus = "pending"
	EntryStatusSettled   EntryStatus = "settled"
	EntryStatusCancelled EntryStatus = "cancelled"
)

// IsValid checks if the status is known
func (s EntryStatus) IsValid() bool {
	switch s {
	case EntryStatusPending, EntryStatusSettled, EntryStatusCancelled:
		return true
	}
	return false
}

// String returns the string representation
func (s EntryStatus) String() string {
	return string(s)
}

// IsTerminal returns true if no further settlement is possible
func (s EntryStatus) IsTerminal() bool {
	return s == EntryStatusSettled || s == EntryStatusCancelled
}

// CounterpartyType identifies who the entry is owed to or by
type CounterpartyType string

const (
	CounterpartySupplier CounterpartyType = "supplier"
	CounterpartyCustomer CounterpartyType = "customer"
	CounterpartyNone     CounterpartyType = "none"
)

// CounterpartyRef points at the supplier or customer of an entry
type CounterpartyRef struct {
	Type CounterpartyType
	ID   *uuid.UUID
}

// Customer returns a reference to a customer, or no counterparty for walk-in sales
func Customer(id *uuid.UUID) CounterpartyRef {
	if id == nil {
		return CounterpartyRef{Type: CounterpartyNone}
	}
	return CounterpartyRef{Type: CounterpartyCustomer, ID: id}
}

// Supplier returns a reference to a supplier
func Supplier(id uuid.UUID) CounterpartyRef {
	return CounterpartyRef{Type: CounterpartySupplier, ID: &id}
}

// Source types linking entries to the operation that posted them
const (
	SourceSale          = "sale"
	SourceSaleReversal  = "sale_reversal"
	SourcePurchaseOrder = "purchase_order"
	SourceManual        = "manual"
)

// LedgerEntry is a payable or receivable with its settlement lifecycle.
// AmountSettled never exceeds Amount and the entry is settled exactly when they are equal.
type LedgerEntry struct {
	shared.TenantAggregateRoot
	Kind             EntryKind
	Description      string
	Amount           decimal.Decimal
	AmountSettled    decimal.Decimal
	IssueDate        time.Time
	DueDate          time.Time
	Status           EntryStatus
	Counterparty     CounterpartyRef
	InstallmentIndex int
	InstallmentCount int
	SourceType       string
	SourceID         string
	ReversesEntryID  *uuid.UUID
	SettledAt        *time.Time
	CancelledAt      *time.Time
	CancelReason     string
	WrittenOffAmount decimal.Decimal
	Settlements      []LedgerSettlement
}

// LedgerSettlement is one payment applied to an entry
type LedgerSettlement struct {
	ID            uuid.UUID
	TenantID      uuid.UUID
	EntryID       uuid.UUID
	Amount        decimal.Decimal
	PaymentMethod string
	PaidAt        time.Time
	CreatedAt     time.Time
}

// NewLedgerEntry creates a pending entry with nothing settled
func NewLedgerEntry(
	tenantID uuid.UUID,
	kind EntryKind,
	description string,
	amount decimal.Decimal,
	issueDate, dueDate time.Time,
	counterparty CounterpartyRef,
) (*LedgerEntry, error) {
	if !kind.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("Invalid ledger entry kind: %s", kind))
	}
	amount = amount.Round(2)
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, shared.ErrInvalidAmount
	}
	if dueDate.IsZero() {
		dueDate = issueDate
	}
	if dueDate.Before(startOfDay(issueDate)) {
		return nil, shared.NewValidationError("Due date cannot be before issue date")
	}
	if counterparty.Type == "" {
		counterparty.Type = CounterpartyNone
	}

	entry := &LedgerEntry{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Kind:                kind,
		Description:         description,
		Amount:              amount,
		AmountSettled:       decimal.Zero,
		IssueDate:           issueDate,
		DueDate:             dueDate,
		Status:              EntryStatusPending,
		Counterparty:        counterparty,
		InstallmentIndex:    1,
		InstallmentCount:    1,
		SourceType:          SourceManual,
		WrittenOffAmount:    decimal.Zero,
	}
	entry.AddDomainEvent(NewLedgerEntryCreatedEvent(entry))
	return entry, nil
}

// WithSource links the entry to the operation that posted it
func (e *LedgerEntry) WithSource(sourceType, sourceID string) *LedgerEntry {
	e.SourceType = sourceType
	e.SourceID = sourceID
	return e
}

// WithInstallment marks the entry as installment index of count
func (e *LedgerEntry) WithInstallment(index, count int) *LedgerEntry {
	e.InstallmentIndex = index
	e.InstallmentCount = count
	return e
}

// WithReversal marks the entry as the negative effect of another entry
func (e *LedgerEntry) WithReversal(entryID uuid.UUID) *LedgerEntry {
	e.ReversesEntryID = &entryID
	return e
}

// Settle applies a payment. The entry becomes settled once fully covered.
func (e *LedgerEntry) Settle(paid decimal.Decimal, paymentMethod string, paidAt time.Time) (*LedgerSettlement, error) {
	switch e.Status {
	case EntryStatusCancelled:
		return nil, shared.ErrEntryCancelled.WithDetail("entry_id", e.ID.String())
	case EntryStatusSettled:
		return nil, shared.ErrEntryAlreadySettled.WithDetail("entry_id", e.ID.String())
	}
	paid = paid.Round(2)
	if paid.LessThanOrEqual(decimal.Zero) {
		return nil, shared.ErrInvalidAmount
	}
	if e.AmountSettled.Add(paid).GreaterThan(e.Amount) {
		return nil, shared.NewDomainErrorf(shared.CodeOverSettlement,
			"Payment %s exceeds outstanding amount %s", paid.StringFixed(2), e.OutstandingAmount().StringFixed(2)).
			WithDetail("entry_id", e.ID.String())
	}
	if paidAt.IsZero() {
		paidAt = time.Now()
	}

	settlement := LedgerSettlement{
		ID:            uuid.New(),
		TenantID:      e.TenantID,
		EntryID:       e.ID,
		Amount:        paid,
		PaymentMethod: paymentMethod,
		PaidAt:        paidAt,
		CreatedAt:     time.Now(),
	}
	e.Settlements = append(e.Settlements, settlement)
	e.AmountSettled = e.AmountSettled.Add(paid)

	if e.AmountSettled.Equal(e.Amount) {
		e.Status = EntryStatusSettled
		e.SettledAt = &paidAt
		e.AddDomainEvent(NewLedgerEntrySettledEvent(e, paid))
	} else {
		e.AddDomainEvent(NewLedgerEntryPartiallySettledEvent(e, paid))
	}

	e.Touch()
	e.IncrementVersion()
	return &settlement, nil
}

// SettleInFull settles the whole outstanding amount
func (e *LedgerEntry) SettleInFull(paymentMethod string, paidAt time.Time) (*LedgerSettlement, error) {
	return e.Settle(e.OutstandingAmount(), paymentMethod, paidAt)
}

// Cancel cancels an entry that has nothing settled. Partially settled entries
// must go through WriteOff instead.
func (e *LedgerEntry) Cancel(reason string) error {
	if e.Status == EntryStatusCancelled {
		return shared.ErrEntryCancelled.WithDetail("entry_id", e.ID.String())
	}
	if e.Status == EntryStatusSettled || e.AmountSettled.GreaterThan(decimal.Zero) {
		return shared.ErrEntryAlreadySettled.WithDetail("entry_id", e.ID.String())
	}

	now := time.Now()
	e.Status = EntryStatusCancelled
	e.CancelledAt = &now
	e.CancelReason = reason
	e.AddDomainEvent(NewLedgerEntryCancelledEvent(e))

	e.Touch()
	e.IncrementVersion()
	return nil
}

// WriteOff closes a partially settled entry, abandoning the outstanding amount
func (e *LedgerEntry) WriteOff(reason string) error {
	if e.Status == EntryStatusCancelled {
		return shared.ErrEntryCancelled.WithDetail("entry_id", e.ID.String())
	}
	if e.Status == EntryStatusSettled {
		return shared.ErrEntryAlreadySettled.WithDetail("entry_id", e.ID.String())
	}
	if e.AmountSettled.IsZero() {
		return shared.NewDomainError(shared.CodeInvalidAmount, "Nothing has been settled; cancel the entry instead")
	}

	now := time.Now()
	e.WrittenOffAmount = e.OutstandingAmount()
	e.Status = EntryStatusCancelled
	e.CancelledAt = &now
	e.CancelReason = reason
	e.AddDomainEvent(NewLedgerEntryCancelledEvent(e))

	e.Touch()
	e.IncrementVersion()
	return nil
}

// OutstandingAmount returns the amount still to be settled
func (e *LedgerEntry) OutstandingAmount() decimal.Decimal {
	if e.Status == EntryStatusCancelled {
		return decimal.Zero
	}
	return e.Amount.Sub(e.AmountSettled)
}

// IsOverdue is computed from status and due date and is never persisted
func (e *LedgerEntry) IsOverdue(now time.Time) bool {
	return e.Status == EntryStatusPending && startOfDay(e.DueDate).Before(startOfDay(now))
}

// DaysOverdue returns how many days past the due date a pending entry is
func (e *LedgerEntry) DaysOverdue(now time.Time) int {
	if !e.IsOverdue(now) {
		return 0
	}
	return int(startOfDay(now).Sub(startOfDay(e.DueDate)).Hours() / 24)
}

// HasSettlements reports whether any payment was applied
func (e *LedgerEntry) HasSettlements() bool {
	return e.AmountSettled.GreaterThan(decimal.Zero)
}

// SplitInstallments splits total into count parts rounded to cents.
// The rounding remainder is carried by the last installment. Every part
// must be at least one cent, so count cannot exceed the total in cents.
func SplitInstallments(total decimal.Decimal, count int) ([]decimal.Decimal, error) {
	if count < 1 {
		count = 1
	}
	total = total.Round(2)
	if cents := total.Shift(2); cents.LessThan(decimal.NewFromInt(int64(count))) {
		return nil, shared.NewValidationError(fmt.Sprintf(
			"installment_count %d exceeds the %s cents of the total", count, cents.String())).
			WithDetail("installment_count", count)
	}
	part := total.Div(decimal.NewFromInt(int64(count))).RoundDown(2)
	parts := make([]decimal.Decimal, count)
	allocated := decimal.Zero
	for i := 0; i < count-1; i++ {
		parts[i] = part
		allocated = allocated.Add(part)
	}
	parts[count-1] = total.Sub(allocated)
	return parts, nil
}

func startOfDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}
