package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	financeapp "github.com/juliohebert/loja-sub000/internal/application/finance"
	"github.com/juliohebert/loja-sub000/internal/interfaces/http/middleware"
)

// LedgerHandler exposes payables and receivables
type LedgerHandler struct {
	BaseHandler
	ledger *financeapp.LedgerService
}

// NewLedgerHandler creates a LedgerHandler
func NewLedgerHandler(ledger *financeapp.LedgerService) *LedgerHandler {
	return &LedgerHandler{ledger: ledger}
}

// Create handles POST /ledger/entries. Installments answer with every entry created.
func (h *LedgerHandler) Create(c *gin.Context) {
	var req financeapp.CreateLedgerEntryRequest
	if !h.bindJSON(c, &req) {
		return
	}
	entries, err := h.ledger.Create(c.Request.Context(), middleware.TenantID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, entries)
}

// List handles GET /ledger/entries
func (h *LedgerHandler) List(c *gin.Context) {
	var filter financeapp.LedgerEntryListFilter
	if !h.bindQuery(c, &filter) {
		return
	}
	counterpartyID, ok := h.queryUUID(c, "counterparty_id")
	if !ok {
		return
	}
	filter.CounterpartyID = counterpartyID

	entries, total, err := h.ledger.List(c.Request.Context(), middleware.TenantID(c), filter)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	page, pageSize := filter.Page, filter.PageSize
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	h.SuccessWithMeta(c, entries, total, page, pageSize)
}

// Get handles GET /ledger/entries/:id
func (h *LedgerHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	entry, err := h.ledger.Get(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// Settle handles POST /ledger/entries/:id/settle
func (h *LedgerHandler) Settle(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req financeapp.SettleLedgerEntryRequest
	if !h.bindJSON(c, &req) {
		return
	}
	entry, err := h.ledger.Settle(c.Request.Context(), middleware.TenantID(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}

// Cancel handles POST /ledger/entries/:id/cancel
func (h *LedgerHandler) Cancel(c *gin.Context) {
	h.close(c, h.ledger.Cancel)
}

// WriteOff handles POST /ledger/entries/:id/write-off
func (h *LedgerHandler) WriteOff(c *gin.Context) {
	h.close(c, h.ledger.WriteOff)
}

type closeFunc func(ctx context.Context, tenantID, id uuid.UUID, reason string) (*financeapp.LedgerEntryResponse, error)

func (h *LedgerHandler) close(c *gin.Context, fn closeFunc) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req financeapp.CloseLedgerEntryRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	entry, err := fn(c.Request.Context(), middleware.TenantID(c), id, req.Reason)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, entry)
}
