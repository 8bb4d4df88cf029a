package handler

import (
	"github.com/gin-gonic/gin"
	partnerapp "github.com/juliohebert/loja-sub000/internal/application/partner"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/juliohebert/loja-sub000/internal/interfaces/http/dto"
	"github.com/juliohebert/loja-sub000/internal/interfaces/http/middleware"
	"github.com/shopspring/decimal"
)

// CustomerAccountHandler exposes the customer debt and credit ledger
type CustomerAccountHandler struct {
	BaseHandler
	accounts *partnerapp.CustomerAccountService
}

// NewCustomerAccountHandler creates a CustomerAccountHandler
func NewCustomerAccountHandler(accounts *partnerapp.CustomerAccountService) *CustomerAccountHandler {
	return &CustomerAccountHandler{accounts: accounts}
}

// GetAccount handles GET /customers/:id/account
func (h *CustomerAccountHandler) GetAccount(c *gin.Context) {
	customerID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	account, err := h.accounts.GetAccount(c.Request.Context(), middleware.TenantID(c), customerID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, account)
}

// ListTransactions handles GET /customers/:id/transactions, newest first
func (h *CustomerAccountHandler) ListTransactions(c *gin.Context) {
	customerID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var page dto.ListRequest
	if !h.bindQuery(c, &page) {
		return
	}
	page = page.Normalize()

	txs, total, err := h.accounts.ListTransactions(c.Request.Context(), middleware.TenantID(c), customerID,
		shared.Filter{Page: page.Page, PageSize: page.PageSize})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, txs, total, page.Page, page.PageSize)
}

// RecordTransaction handles POST /customers/:id/transactions
func (h *CustomerAccountHandler) RecordTransaction(c *gin.Context) {
	customerID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req partnerapp.RecordTransactionRequest
	if !h.bindJSON(c, &req) {
		return
	}
	result, err := h.accounts.RecordTransaction(c.Request.Context(), middleware.TenantID(c), customerID, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// ReverseTransaction handles POST /customers/:id/transactions/:txId/reverse
func (h *CustomerAccountHandler) ReverseTransaction(c *gin.Context) {
	customerID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	txID, ok := h.pathUUID(c, "txId")
	if !ok {
		return
	}
	result, err := h.accounts.ReverseTransaction(c.Request.Context(), middleware.TenantID(c), customerID, txID)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, result)
}

// CheckCredit handles GET /customers/:id/credit-check?amount=
func (h *CustomerAccountHandler) CheckCredit(c *gin.Context) {
	customerID, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	amount, err := decimal.NewFromString(c.Query("amount"))
	if err != nil {
		h.BadRequest(c, "amount must be a decimal number")
		return
	}
	result, err := h.accounts.CheckCreditAvailable(c.Request.Context(), middleware.TenantID(c), customerID, amount)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, result)
}
