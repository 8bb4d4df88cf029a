package partner

import (
	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// AggregateTypeCustomerAccount is the aggregate type of customer account events
const AggregateTypeCustomerAccount = "CustomerAccount"

// EventTypeCustomerTransactionRecorded is raised for every appended transaction
const EventTypeCustomerTransactionRecorded = "CustomerTransactionRecorded"

// CustomerTransactionRecordedEvent carries the movement and the resulting balances
type CustomerTransactionRecordedEvent struct {
	shared.BaseDomainEvent
	CustomerID    uuid.UUID       `json:"customer_id"`
	TransactionID uuid.UUID       `json:"transaction_id"`
	Kind          TransactionKind `json:"kind"`
	Amount        decimal.Decimal `json:"amount"`
	DebtBalance   decimal.Decimal `json:"debt_balance"`
	CreditLimit   decimal.Decimal `json:"credit_limit"`
}

// NewCustomerTransactionRecordedEvent creates a CustomerTransactionRecordedEvent
func NewCustomerTransactionRecordedEvent(a *CustomerAccount, tx *CustomerLedgerTransaction) *CustomerTransactionRecordedEvent {
	return &CustomerTransactionRecordedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeCustomerTransactionRecorded, AggregateTypeCustomerAccount, a.ID, a.TenantID),
		CustomerID:      a.CustomerID,
		TransactionID:   tx.ID,
		Kind:            tx.Kind,
		Amount:          tx.Amount,
		DebtBalance:     a.DebtBalance,
		CreditLimit:     a.CreditLimit,
	}
}

// EventType returns the event type name
func (e *CustomerTransactionRecordedEvent) EventType() string {
	return EventTypeCustomerTransactionRecorded
}
