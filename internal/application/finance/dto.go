package finance

import (
	"time"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/finance"
	"github.com/shopspring/decimal"
)

// CreateLedgerEntryRequest represents a request to create a payable or receivable
type CreateLedgerEntryRequest struct {
	Kind             string          `json:"kind" binding:"required,oneof=payable receivable"`
	Description      string          `json:"description" binding:"max=500"`
	Amount           decimal.Decimal `json:"amount" binding:"required"`
	IssueDate        *time.Time      `json:"issue_date"`
	DueDate          time.Time       `json:"due_date" binding:"required"`
	CounterpartyType string          `json:"counterparty_type" binding:"omitempty,oneof=supplier customer none"`
	CounterpartyID   *uuid.UUID      `json:"counterparty_id"`
	InstallmentCount int             `json:"installment_count" binding:"omitempty,min=1,max=120"`
}

// SettleLedgerEntryRequest represents a payment applied to an entry
type SettleLedgerEntryRequest struct {
	Amount        decimal.Decimal `json:"amount" binding:"required"`
	PaymentMethod string          `json:"payment_method" binding:"max=50"`
	PaidAt        *time.Time      `json:"paid_at"`
}

// CloseLedgerEntryRequest carries the reason of a cancel or write-off
type CloseLedgerEntryRequest struct {
	Reason string `json:"reason" binding:"max=500"`
}

// LedgerEntryListFilter represents query parameters for listing entries
type LedgerEntryListFilter struct {
	Kind           string     `form:"kind" binding:"omitempty,oneof=payable receivable"`
	Status         string     `form:"status" binding:"omitempty,oneof=pending settled cancelled"`
	CounterpartyID *uuid.UUID `form:"-"`
	SourceType     string     `form:"source_type"`
	SourceID       string     `form:"source_id"`
	Overdue        bool       `form:"overdue"`
	Page           int        `form:"page" binding:"omitempty,min=1"`
	PageSize       int        `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// LedgerSettlementResponse represents one payment of an entry
type LedgerSettlementResponse struct {
	ID            uuid.UUID       `json:"id"`
	Amount        decimal.Decimal `json:"amount"`
	PaymentMethod string          `json:"payment_method"`
	PaidAt        time.Time       `json:"paid_at"`
}

// LedgerEntryResponse represents a ledger entry in API responses
type LedgerEntryResponse struct {
	ID                uuid.UUID                  `json:"id"`
	TenantID          uuid.UUID                  `json:"tenant_id"`
	Kind              string                     `json:"kind"`
	Description       string                     `json:"description"`
	Amount            decimal.Decimal            `json:"amount"`
	AmountSettled     decimal.Decimal            `json:"amount_settled"`
	OutstandingAmount decimal.Decimal            `json:"outstanding_amount"`
	WrittenOffAmount  decimal.Decimal            `json:"written_off_amount"`
	IssueDate         time.Time                  `json:"issue_date"`
	DueDate           time.Time                  `json:"due_date"`
	Status            string                     `json:"status"`
	Overdue           bool                       `json:"overdue"`
	DaysOverdue       int                        `json:"days_overdue"`
	CounterpartyType  string                     `json:"counterparty_type"`
	CounterpartyID    *uuid.UUID                 `json:"counterparty_id,omitempty"`
	InstallmentIndex  int                        `json:"installment_index"`
	InstallmentCount  int                        `json:"installment_count"`
	SourceType        string                     `json:"source_type"`
	SourceID          string                     `json:"source_id,omitempty"`
	ReversesEntryID   *uuid.UUID                 `json:"reverses_entry_id,omitempty"`
	SettledAt         *time.Time                 `json:"settled_at,omitempty"`
	CancelledAt       *time.Time                 `json:"cancelled_at,omitempty"`
	CancelReason      string                     `json:"cancel_reason,omitempty"`
	Settlements       []LedgerSettlementResponse `json:"settlements,omitempty"`
	CreatedAt         time.Time                  `json:"created_at"`
	UpdatedAt         time.Time                  `json:"updated_at"`
}

// ToLedgerEntryResponse converts a domain LedgerEntry; overdue is evaluated at now
func ToLedgerEntryResponse(e *finance.LedgerEntry, now time.Time) LedgerEntryResponse {
	resp := LedgerEntryResponse{
		ID:                e.ID,
		TenantID:          e.TenantID,
		Kind:              string(e.Kind),
		Description:       e.Description,
		Amount:            e.Amount,
		AmountSettled:     e.AmountSettled,
		OutstandingAmount: e.OutstandingAmount(),
		WrittenOffAmount:  e.WrittenOffAmount,
		IssueDate:         e.IssueDate,
		DueDate:           e.DueDate,
		Status:            string(e.Status),
		Overdue:           e.IsOverdue(now),
		DaysOverdue:       e.DaysOverdue(now),
		CounterpartyType:  string(e.Counterparty.Type),
		CounterpartyID:    e.Counterparty.ID,
		InstallmentIndex:  e.InstallmentIndex,
		InstallmentCount:  e.InstallmentCount,
		SourceType:        e.SourceType,
		SourceID:          e.SourceID,
		ReversesEntryID:   e.ReversesEntryID,
		SettledAt:         e.SettledAt,
		CancelledAt:       e.CancelledAt,
		CancelReason:      e.CancelReason,
		CreatedAt:         e.CreatedAt,
		UpdatedAt:         e.UpdatedAt,
	}
	for _, s := range e.Settlements {
		resp.Settlements = append(resp.Settlements, LedgerSettlementResponse{
			ID:            s.ID,
			Amount:        s.Amount,
			PaymentMethod: s.PaymentMethod,
			PaidAt:        s.PaidAt,
		})
	}
	return resp
}

// ToLedgerEntryResponses converts a slice of entries
func ToLedgerEntryResponses(entries []finance.LedgerEntry, now time.Time) []LedgerEntryResponse {
	responses := make([]LedgerEntryResponse, len(entries))
	for i := range entries {
		responses[i] = ToLedgerEntryResponse(&entries[i], now)
	}
	return responses
}
