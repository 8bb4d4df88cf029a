package handler

import (
	"context"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	inventoryapp "github.com/juliohebert/loja-sub000/internal/application/inventory"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/juliohebert/loja-sub000/internal/interfaces/http/dto"
	"github.com/juliohebert/loja-sub000/internal/interfaces/http/middleware"
)

// StockUnitHandler exposes stock units and their movements
type StockUnitHandler struct {
	BaseHandler
	stock *inventoryapp.StockLedgerService
}

// NewStockUnitHandler creates a StockUnitHandler
func NewStockUnitHandler(stock *inventoryapp.StockLedgerService) *StockUnitHandler {
	return &StockUnitHandler{stock: stock}
}

// Define handles POST /stock-units
func (h *StockUnitHandler) Define(c *gin.Context) {
	var req inventoryapp.DefineStockUnitRequest
	if !h.bindJSON(c, &req) {
		return
	}
	unit, err := h.stock.DefineStockUnit(c.Request.Context(), middleware.TenantID(c), req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Created(c, unit)
}

// Get handles GET /stock-units/:id
func (h *StockUnitHandler) Get(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	unit, err := h.stock.GetStockUnit(c.Request.Context(), middleware.TenantID(c), id)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, unit)
}

// Delete handles DELETE /stock-units/:id
func (h *StockUnitHandler) Delete(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	if err := h.stock.DeleteStockUnit(c.Request.Context(), middleware.TenantID(c), id); err != nil {
		h.HandleError(c, err)
		return
	}
	h.NoContent(c)
}

// Debit handles POST /stock-units/:id/debit, a manual adjustment
func (h *StockUnitHandler) Debit(c *gin.Context) {
	h.adjust(c, h.stock.Debit)
}

// Credit handles POST /stock-units/:id/credit, a manual adjustment
func (h *StockUnitHandler) Credit(c *gin.Context) {
	h.adjust(c, h.stock.Credit)
}

type adjustFunc func(ctx context.Context, tenantID, stockUnitID uuid.UUID, req inventoryapp.StockOperationRequest) (*inventoryapp.StockMovementResponse, error)

func (h *StockUnitHandler) adjust(c *gin.Context, fn adjustFunc) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var req inventoryapp.StockOperationRequest
	if !h.bindJSON(c, &req) {
		return
	}
	movement, err := fn(c.Request.Context(), middleware.TenantID(c), id, req)
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, movement)
}

// ListMovements handles GET /stock-units/:id/movements, newest first
func (h *StockUnitHandler) ListMovements(c *gin.Context) {
	id, ok := h.pathUUID(c, "id")
	if !ok {
		return
	}
	var page dto.ListRequest
	if !h.bindQuery(c, &page) {
		return
	}
	page = page.Normalize()

	movements, total, err := h.stock.ListMovements(c.Request.Context(), middleware.TenantID(c), id,
		shared.Filter{Page: page.Page, PageSize: page.PageSize, OrderBy: "created_at", OrderDir: "desc"})
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.SuccessWithMeta(c, movements, total, page.Page, page.PageSize)
}
