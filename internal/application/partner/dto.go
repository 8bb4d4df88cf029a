package partner

import (
	"time"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/partner"
	"github.com/shopspring/decimal"
)

// RecordTransactionRequest represents a movement on a customer account
type RecordTransactionRequest struct {
	Kind        string          `json:"kind" binding:"required,oneof=debit_add debit_pay credit_increase credit_decrease"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description" binding:"max=500"`
	Date        *time.Time      `json:"date"`
}

// CustomerAccountResponse represents a customer account in API responses
type CustomerAccountResponse struct {
	CustomerID      uuid.UUID       `json:"customer_id"`
	TenantID        uuid.UUID       `json:"tenant_id"`
	DebtBalance     decimal.Decimal `json:"debt_balance"`
	CreditLimit     decimal.Decimal `json:"credit_limit"`
	AvailableCredit decimal.Decimal `json:"available_credit"`
	Version         int             `json:"version"`
	UpdatedAt       time.Time       `json:"updated_at"`
}

// CustomerTransactionResponse represents one account transaction
type CustomerTransactionResponse struct {
	ID               uuid.UUID       `json:"id"`
	CustomerID       uuid.UUID       `json:"customer_id"`
	Kind             string          `json:"kind"`
	Amount           decimal.Decimal `json:"amount"`
	RequestedAmount  decimal.Decimal `json:"requested_amount"`
	Description      string          `json:"description"`
	Date             time.Time       `json:"date"`
	DebtAfter        decimal.Decimal `json:"debt_after"`
	CreditLimitAfter decimal.Decimal `json:"credit_limit_after"`
	ReversesID       *uuid.UUID      `json:"reverses_id,omitempty"`
	SourceType       string          `json:"source_type,omitempty"`
	SourceID         string          `json:"source_id,omitempty"`
	CreatedAt        time.Time       `json:"created_at"`
}

// RecordTransactionResponse carries the appended transaction and the resulting account
type RecordTransactionResponse struct {
	Account     CustomerAccountResponse     `json:"account"`
	Transaction CustomerTransactionResponse `json:"transaction"`
}

// CreditCheckResponse answers whether an amount fits the customer's available credit
type CreditCheckResponse struct {
	CustomerID      uuid.UUID       `json:"customer_id"`
	Amount          decimal.Decimal `json:"amount"`
	AvailableCredit decimal.Decimal `json:"available_credit"`
	Allowed         bool            `json:"allowed"`
}

// ToCustomerAccountResponse converts a domain CustomerAccount
func ToCustomerAccountResponse(a *partner.CustomerAccount) CustomerAccountResponse {
	return CustomerAccountResponse{
		CustomerID:      a.CustomerID,
		TenantID:        a.TenantID,
		DebtBalance:     a.DebtBalance,
		CreditLimit:     a.CreditLimit,
		AvailableCredit: a.AvailableCredit(),
		Version:         a.Version,
		UpdatedAt:       a.UpdatedAt,
	}
}

// ToCustomerTransactionResponse converts a domain transaction
func ToCustomerTransactionResponse(tx *partner.CustomerLedgerTransaction) CustomerTransactionResponse {
	return CustomerTransactionResponse{
		ID:               tx.ID,
		CustomerID:       tx.CustomerID,
		Kind:             tx.Kind.String(),
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

// ToCustomerTransactionResponses converts a slice of transactions
func ToCustomerTransactionResponses(txs []partner.CustomerLedgerTransaction) []CustomerTransactionResponse {
	responses := make([]CustomerTransactionResponse, len(txs))
	for i := range txs {
		responses[i] = ToCustomerTransactionResponse(&txs[i])
	}
	return responses
}
