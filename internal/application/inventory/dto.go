package inventory

import (
	"time"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/inventory"
)

// DefineStockUnitRequest defines a new sellable variant
type DefineStockUnitRequest struct {
	ProductID        uuid.UUID `json:"product_id" binding:"required"`
	Variant          string    `json:"variant" binding:"max=100"`
	ReorderThreshold int       `json:"reorder_threshold" binding:"min=0"`
	InitialQuantity  int       `json:"initial_quantity" binding:"min=0"`
}

// StockOperationRequest is a manual debit or credit
type StockOperationRequest struct {
	Quantity   int    `json:"quantity" binding:"required,min=1"`
	SourceType string `json:"source_type"`
	SourceID   string `json:"source_id"`
	Token      string `json:"token"`
}

// StockUnitResponse represents a stock unit in API responses
type StockUnitResponse struct {
	ID               uuid.UUID `json:"id"`
	TenantID         uuid.UUID `json:"tenant_id"`
	ProductID        uuid.UUID `json:"product_id"`
	Variant          string    `json:"variant"`
	Quantity         int       `json:"quantity"`
	ReorderThreshold int       `json:"reorder_threshold"`
	BelowThreshold   bool      `json:"below_threshold"`
	Version          int       `json:"version"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"updated_at"`
}

// StockMovementResponse represents an applied movement
type StockMovementResponse struct {
	ID            uuid.UUID `json:"id"`
	StockUnitID   uuid.UUID `json:"stock_unit_id"`
	Direction     string    `json:"direction"`
	Quantity      int       `json:"quantity"`
	QuantityAfter int       `json:"quantity_after"`
	SourceType    string    `json:"source_type"`
	SourceID      string    `json:"source_id,omitempty"`
	Token         string    `json:"token,omitempty"`
	CreatedAt     time.Time `json:"created_at"`
}

// ToStockUnitResponse converts a domain StockUnit to StockUnitResponse
func ToStockUnitResponse(u *inventory.StockUnit) StockUnitResponse {
	return StockUnitResponse{
		ID:               u.ID,
		TenantID:         u.TenantID,
		ProductID:        u.ProductID,
		Variant:          u.Variant,
		Quantity:         u.Quantity,
		ReorderThreshold: u.ReorderThreshold,
		BelowThreshold:   u.IsBelowReorderThreshold(),
		Version:          u.Version,
		CreatedAt:        u.CreatedAt,
		UpdatedAt:        u.UpdatedAt,
	}
}

// ToStockMovementResponse converts a domain StockMovement to StockMovementResponse
func ToStockMovementResponse(m *inventory.StockMovement) StockMovementResponse {
	return StockMovementResponse{
		ID:            m.ID,
		StockUnitID:   m.StockUnitID,
		Direction:     string(m.Direction),
		Quantity:      m.Quantity,
		QuantityAfter: m.QuantityAfter,
		SourceType:    m.SourceType,
		SourceID:      m.SourceID,
		Token:         m.Token,
		CreatedAt:     m.CreatedAt,
	}
}

// ToStockMovementResponses converts a slice of movements
func ToStockMovementResponses(movements []inventory.StockMovement) []StockMovementResponse {
	responses := make([]StockMovementResponse, len(movements))
	for i := range movements {
		responses[i] = ToStockMovementResponse(&movements[i])
	}
	return responses
}
