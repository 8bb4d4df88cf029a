package handler

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	tradeapp "github.com/juliohebert/loja-sub000/internal/application/trade"
	"github.com/juliohebert/loja-sub000/internal/interfaces/http/middleware"
)

// IdempotencyKeyHeader may carry the finalize idempotency key instead of the body.
const IdempotencyKeyHeader = "Idempotency-Key"

// SaleHandler exposes sale finalization and cancellation
type SaleHandler struct {
	BaseHandler
	sales *tradeapp.SaleService
}

// NewSaleHandler creates a SaleHandler
func NewSaleHandler(sales *tradeapp.SaleService) *SaleHandler {
	return &SaleHandler{sales: sales}
}

// Finalize handles POST /sales. A replayed idempotency key answers 200 with
// the original sale instead of 201.
func (h *SaleHandler) Finalize(c *gin.Context) {
	var req tradeapp.FinalizeSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	if req.IdempotencyKey == "" {
		req.IdempotencyKey = c.GetHeader(IdempotencyKeyHeader)
	}
	if req.SellerID == uuid.Nil {
		req.SellerID = middleware.ActorID(c)
	}

	sale, err := h.sales.Finalize(c.Request.Context(), middleware.TenantID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if sale.Replayed {
		h.Success(c, sale)
		return
	}
	h.Created(c, sale)
}

// Get handles GET /sales/:id
func (h *SaleHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	sale, err := h.sales.Get(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}

// Cancel handles POST /sales/:id/cancel
func (h *SaleHandler) Cancel(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.CancelSaleRequest
	if !h.bindJSON(c, &req) {
		return
	}
	sale, err := h.sales.Cancel(c.Request.Context(), middleware.TenantID(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, sale)
}
