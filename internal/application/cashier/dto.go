package cashier

import (
	"time"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/cashier"
	"github.com/shopspring/decimal"
)

// OpenCashSessionRequest opens the register
type OpenCashSessionRequest struct {
	OpeningAmount decimal.Decimal `json:"opening_amount" binding:"decimal_gte0"`
}

// CloseCashSessionRequest closes the register
type CloseCashSessionRequest struct {
	ClosingAmount *decimal.Decimal `json:"closing_amount" binding:"omitempty,decimal_gte0"`
}

// CashSessionResponse represents a cash session in API responses
type CashSessionResponse struct {
	ID            uuid.UUID        `json:"id"`
	TenantID      uuid.UUID        `json:"tenant_id"`
	Status        string           `json:"status"`
	OpenedBy      uuid.UUID        `json:"opened_by"`
	OpenedAt      time.Time        `json:"opened_at"`
	OpeningAmount decimal.Decimal  `json:"opening_amount"`
	ClosedBy      *uuid.UUID       `json:"closed_by,omitempty"`
	ClosedAt      *time.Time       `json:"closed_at,omitempty"`
	ClosingAmount *decimal.Decimal `json:"closing_amount,omitempty"`
}

// ToCashSessionResponse converts a domain CashSession
func ToCashSessionResponse(s *cashier.CashSession) CashSessionResponse {
	return CashSessionResponse{
		ID:            s.ID,
		TenantID:      s.TenantID,
		Status:        string(s.Status),
		OpenedBy:      s.OpenedBy,
		OpenedAt:      s.OpenedAt,
		OpeningAmount: s.OpeningAmount,
		ClosedBy:      s.ClosedBy,
		ClosedAt:      s.ClosedAt,
		ClosingAmount: s.ClosingAmount,
	}
}
