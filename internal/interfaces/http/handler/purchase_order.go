package handler

import (
	"github.com/gin-gonic/gin"
	tradeapp "github.com/juliohebert/loja-sub000/internal/application/trade"
	"github.com/juliohebert/loja-sub000/internal/interfaces/http/middleware"
)

// PurchaseOrderHandler exposes the supplier order lifecycle
type PurchaseOrderHandler struct {
	BaseHandler
	orders *tradeapp.PurchaseOrderService
}

// NewPurchaseOrderHandler creates a PurchaseOrderHandler
func NewPurchaseOrderHandler(orders *tradeapp.PurchaseOrderService) *PurchaseOrderHandler {
	return &PurchaseOrderHandler{orders: orders}
}

// Submit handles POST /purchase-orders
func (h *PurchaseOrderHandler) Submit(c *gin.Context) {
	var req tradeapp.SubmitPurchaseOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	order, err := h.orders.Submit(c.Request.Context(), middleware.TenantID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, order)
}

// Get handles GET /purchase-orders/:id
func (h *PurchaseOrderHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.Get(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Advance handles POST /purchase-orders/:id/status
func (h *PurchaseOrderHandler) Advance(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.AdvancePurchaseOrderRequest
	if !h.bindJSON(c, &req) {
		return
	}
	order, err := h.orders.Advance(c.Request.Context(), middleware.TenantID(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}

// Receive handles POST /purchase-orders/:id/receive. An empty body receives
// every line as ordered.
func (h *PurchaseOrderHandler) Receive(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req tradeapp.ReceivePurchaseOrderRequest
	if !h.bindOptionalJSON(c, &req) {
		return
	}
	order, err := h.orders.Receive(c.Request.Context(), middleware.TenantID(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, order)
}
