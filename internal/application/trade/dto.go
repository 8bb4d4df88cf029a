package trade

import (
	"time"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// PurchaseOrderLineRequest is one ordered item
type PurchaseOrderLineRequest struct {
	StockUnitID uuid.UUID       `json:"stock_unit_id" binding:"required"`
	Quantity    int             `json:"quantity" binding:"required,gt=0"`
	UnitCost    decimal.Decimal `json:"unit_cost" binding:"decimal_gte0"`
}

// SubmitPurchaseOrderRequest creates a pending purchase order
type SubmitPurchaseOrderRequest struct {
	SupplierID           uuid.UUID                  `json:"supplier_id" binding:"required"`
	Items                []PurchaseOrderLineRequest `json:"items" binding:"required,min=1,dive"`
	ShippingCost         decimal.Decimal            `json:"shipping_cost" binding:"decimal_gte0"`
	Discount             decimal.Decimal            `json:"discount" binding:"decimal_gte0"`
	OrderDate            *time.Time                 `json:"order_date"`
	ExpectedDeliveryDate *time.Time                 `json:"expected_delivery_date"`
	Remark               string                     `json:"remark" binding:"max=500"`
}

// AdvancePurchaseOrderRequest moves an order to approved, in_transit or cancelled
type AdvancePurchaseOrderRequest struct {
	Status string `json:"status" binding:"required,oneof=approved in_transit cancelled received"`
	Reason string `json:"reason" binding:"max=500"`
}

// ReceivedLineRequest reports the quantity received for one item
type ReceivedLineRequest struct {
	StockUnitID uuid.UUID `json:"stock_unit_id" binding:"required"`
	ReceivedQty int       `json:"received_qty" binding:"gte=0"`
}

// ReceivePurchaseOrderRequest receives an order. No items means everything arrived as ordered.
type ReceivePurchaseOrderRequest struct {
	Items []ReceivedLineRequest `json:"items" binding:"dive"`
}

// PurchaseOrderItemResponse represents an order item in API responses
type PurchaseOrderItemResponse struct {
	ID           uuid.UUID       `json:"id"`
	StockUnitID  uuid.UUID       `json:"stock_unit_id"`
	OrderedQty   int             `json:"ordered_qty"`
	ReceivedQty  int             `json:"received_qty"`
	RemainingQty int             `json:"remaining_qty"`
	UnitCost     decimal.Decimal `json:"unit_cost"`
	Amount       decimal.Decimal `json:"amount"`
}

// PurchaseOrderResponse represents a purchase order in API responses
type PurchaseOrderResponse struct {
	ID                   uuid.UUID                   `json:"id"`
	TenantID             uuid.UUID                   `json:"tenant_id"`
	SupplierID           uuid.UUID                   `json:"supplier_id"`
	Status               string                      `json:"status"`
	Items                []PurchaseOrderItemResponse `json:"items"`
	Subtotal             decimal.Decimal             `json:"subtotal"`
	ShippingCost         decimal.Decimal             `json:"shipping_cost"`
	Discount             decimal.Decimal             `json:"discount"`
	Total                decimal.Decimal             `json:"total"`
	OrderDate            time.Time                   `json:"order_date"`
	ExpectedDeliveryDate *time.Time                  `json:"expected_delivery_date,omitempty"`
	ApprovedAt           *time.Time                  `json:"approved_at,omitempty"`
	ShippedAt            *time.Time                  `json:"shipped_at,omitempty"`
	ReceivedAt           *time.Time                  `json:"received_at,omitempty"`
	CancelledAt          *time.Time                  `json:"cancelled_at,omitempty"`
	CancelReason         string                      `json:"cancel_reason,omitempty"`
	FullyReceived        bool                        `json:"fully_received"`
	PayableEntryID       *uuid.UUID                  `json:"payable_entry_id,omitempty"`
	Remark               string                      `json:"remark,omitempty"`
	Version              int                         `json:"version"`
}

// ToPurchaseOrderResponse converts a domain PurchaseOrder
func ToPurchaseOrderResponse(o *trade.PurchaseOrder) PurchaseOrderResponse {
	items := make([]PurchaseOrderItemResponse, len(o.Items))
	for i := range o.Items {
		item := &o.Items[i]
		items[i] = PurchaseOrderItemResponse{
			ID:           item.ID,
			StockUnitID:  item.StockUnitID,
			OrderedQty:   item.OrderedQty,
			ReceivedQty:  item.ReceivedQty,
			RemainingQty: item.RemainingQty(),
			UnitCost:     item.UnitCost,
			Amount:       item.Amount,
		}
	}
	return PurchaseOrderResponse{
		ID:                   o.ID,
		TenantID:             o.TenantID,
		SupplierID:           o.SupplierID,
		Status:               o.Status.String(),
		Items:                items,
		Subtotal:             o.Subtotal,
		ShippingCost:         o.ShippingCost,
		Discount:             o.Discount,
		Total:                o.Total,
		OrderDate:            o.OrderDate,
		ExpectedDeliveryDate: o.ExpectedDeliveryDate,
		ApprovedAt:           o.ApprovedAt,
		ShippedAt:            o.ShippedAt,
		ReceivedAt:           o.ReceivedAt,
		CancelledAt:          o.CancelledAt,
		CancelReason:         o.CancelReason,
		FullyReceived:        o.Status == trade.PurchaseOrderStatusReceived && o.IsFullyReceived(),
		Remark:               o.Remark,
		Version:              o.Version,
	}
}

// SaleLineRequest is one cart item
type SaleLineRequest struct {
	StockUnitID uuid.UUID       `json:"stock_unit_id" binding:"required"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
}

// FinalizeSaleRequest is a checkout
type FinalizeSaleRequest struct {
	Items          []SaleLineRequest `json:"items" binding:"dive"`
	PaymentMethod  string            `json:"payment_method" binding:"required"`
	Discount       decimal.Decimal   `json:"discount"`
	CustomerID     *uuid.UUID        `json:"customer_id"`
	SellerID       uuid.UUID         `json:"seller_id"`
	ChangeTendered *decimal.Decimal  `json:"change_tendered"`
	IdempotencyKey string            `json:"idempotency_key" binding:"max=100"`
}

// CancelSaleRequest cancels a sale
type CancelSaleRequest struct {
	Reason string `json:"reason" binding:"required,max=500"`
}

// SaleItemResponse represents a sale item in API responses
type SaleItemResponse struct {
	ID          uuid.UUID       `json:"id"`
	StockUnitID uuid.UUID       `json:"stock_unit_id"`
	Quantity    int             `json:"quantity"`
	UnitPrice   decimal.Decimal `json:"unit_price"`
	Amount      decimal.Decimal `json:"amount"`
}

// SaleResponse represents a sale in API responses
type SaleResponse struct {
	ID                    uuid.UUID          `json:"id"`
	TenantID              uuid.UUID          `json:"tenant_id"`
	Status                string             `json:"status"`
	Items                 []SaleItemResponse `json:"items"`
	PaymentMethod         string             `json:"payment_method"`
	Subtotal              decimal.Decimal    `json:"subtotal"`
	Discount              decimal.Decimal    `json:"discount"`
	Total                 decimal.Decimal    `json:"total"`
	ChangeTendered        *decimal.Decimal   `json:"change_tendered,omitempty"`
	ChangeDue             decimal.Decimal    `json:"change_due"`
	SellerID              uuid.UUID          `json:"seller_id"`
	CustomerID            *uuid.UUID         `json:"customer_id,omitempty"`
	CashSessionID         *uuid.UUID         `json:"cash_session_id,omitempty"`
	ReceivableID          *uuid.UUID         `json:"receivable_id,omitempty"`
	CustomerTransactionID *uuid.UUID         `json:"customer_transaction_id,omitempty"`
	CancelReason          string             `json:"cancel_reason,omitempty"`
	CancelledAt           *time.Time         `json:"cancelled_at,omitempty"`
	IdempotencyKey        string             `json:"idempotency_key,omitempty"`
	// Replayed is set when the idempotency key matched an earlier sale
	Replayed  bool      `json:"replayed,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// ToSaleResponse converts a domain Sale
func ToSaleResponse(s *trade.Sale) SaleResponse {
	items := make([]SaleItemResponse, len(s.Items))
	for i, item := range s.Items {
		items[i] = SaleItemResponse{
			ID:          item.ID,
			StockUnitID: item.StockUnitID,
			Quantity:    item.Quantity,
			UnitPrice:   item.UnitPrice,
			Amount:      item.Amount,
		}
	}
	return SaleResponse{
		ID:                    s.ID,
		TenantID:              s.TenantID,
		Status:                string(s.Status),
		Items:                 items,
		PaymentMethod:         string(s.PaymentMethod),
		Subtotal:              s.Subtotal,
		Discount:              s.Discount,
		Total:                 s.Total,
		ChangeTendered:        s.AmountTendered,
		ChangeDue:             s.ChangeDue,
		SellerID:              s.SellerID,
		CustomerID:            s.CustomerID,
		CashSessionID:         s.CashSessionID,
		ReceivableID:          s.ReceivableID,
		CustomerTransactionID: s.CustomerTransactionID,
		CancelReason:          s.CancelReason,
		CancelledAt:           s.CancelledAt,
		IdempotencyKey:        s.IdempotencyKey,
		CreatedAt:             s.CreatedAt,
	}
}

func (r FinalizeSaleRequest) checkout() trade.Checkout {
	items := make([]trade.CartItem, len(r.Items))
	for i, line := range r.Items {
		items[i] = trade.CartItem{
			StockUnitID: line.StockUnitID,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		}
	}
	return trade.Checkout{
		Items:          items,
		PaymentMethod:  trade.PaymentMethod(r.PaymentMethod),
		Discount:       r.Discount,
		AmountTendered: r.ChangeTendered,
		CustomerID:     r.CustomerID,
		SellerID:       r.SellerID,
		IdempotencyKey: r.IdempotencyKey,
	}
}
