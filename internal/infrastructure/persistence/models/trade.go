package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/trade"
	"github.com/shopspring/decimal"
)

// PurchaseOrderModel is the persistence model for the PurchaseOrder aggregate root.
type PurchaseOrderModel struct {
	TenantAggregateModel
	SupplierID           uuid.UUID                `gorm:"type:uuid;not null;index"`
	Items                []PurchaseOrderItemModel `gorm:"foreignKey:OrderID;references:ID"`
	Status               string                   `gorm:"type:varchar(20);not null;index"`
	Subtotal             decimal.Decimal          `gorm:"type:decimal(18,2);not null;default:0"`
	ShippingCost         decimal.Decimal          `gorm:"type:decimal(18,2);not null;default:0"`
	Discount             decimal.Decimal          `gorm:"type:decimal(18,2);not null;default:0"`
	Total                decimal.Decimal          `gorm:"type:decimal(18,2);not null;default:0"`
	OrderDate            time.Time                `gorm:"not null"`
	ExpectedDeliveryDate *time.Time
	ApprovedAt           *time.Time
	ShippedAt            *time.Time
	ReceivedAt           *time.Time
	CancelledAt          *time.Time
	CancelReason         string `gorm:"type:varchar(500);not null;default:''"`
	Remark               string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (PurchaseOrderModel) TableName() string {
	return "purchase_orders"
}

// PurchaseOrderModelFromDomain creates a model, items included, from a domain PurchaseOrder.
func PurchaseOrderModelFromDomain(o *trade.PurchaseOrder) *PurchaseOrderModel {
	m := &PurchaseOrderModel{
		SupplierID:           o.SupplierID,
		Status:               string(o.Status),
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
		Remark:               o.Remark,
		Items:                make([]PurchaseOrderItemModel, len(o.Items)),
	}
	m.FromDomainTenantAggregateRoot(o.TenantAggregateRoot)
	for i, it := range o.Items {
		m.Items[i] = PurchaseOrderItemModel{
			ID:          it.ID,
			TenantID:    o.TenantID,
			OrderID:     o.ID,
			StockUnitID: it.StockUnitID,
			OrderedQty:  it.OrderedQty,
			ReceivedQty: it.ReceivedQty,
			UnitCost:    it.UnitCost,
			Amount:      it.Amount,
		}
	}
	return m
}

// ToDomain converts the model and its loaded items to a domain PurchaseOrder.
func (m *PurchaseOrderModel) ToDomain() *trade.PurchaseOrder {
	o := &trade.PurchaseOrder{
		SupplierID:           m.SupplierID,
		Status:               trade.PurchaseOrderStatus(m.Status),
		Subtotal:             m.Subtotal,
		ShippingCost:         m.ShippingCost,
		Discount:             m.Discount,
		Total:                m.Total,
		OrderDate:            m.OrderDate,
		ExpectedDeliveryDate: m.ExpectedDeliveryDate,
		ApprovedAt:           m.ApprovedAt,
		ShippedAt:            m.ShippedAt,
		ReceivedAt:           m.ReceivedAt,
		CancelledAt:          m.CancelledAt,
		CancelReason:         m.CancelReason,
		Remark:               m.Remark,
		Items:                make([]trade.PurchaseOrderItem, len(m.Items)),
	}
	m.PopulateTenantAggregateRoot(&o.TenantAggregateRoot)
	for i, it := range m.Items {
		o.Items[i] = trade.PurchaseOrderItem{
			ID:          it.ID,
			OrderID:     it.OrderID,
			StockUnitID: it.StockUnitID,
			OrderedQty:  it.OrderedQty,
			ReceivedQty: it.ReceivedQty,
			UnitCost:    it.UnitCost,
			Amount:      it.Amount,
		}
	}
	return o
}

// PurchaseOrderItemModel is one line of a purchase order.
type PurchaseOrderItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderID     uuid.UUID       `gorm:"type:uuid;not null;index"`
	StockUnitID uuid.UUID       `gorm:"type:uuid;not null;index"`
	OrderedQty  int             `gorm:"not null"`
	ReceivedQty int             `gorm:"not null;default:0"`
	UnitCost    decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
}

// TableName returns the table name for GORM
func (PurchaseOrderItemModel) TableName() string {
	return "purchase_order_items"
}

// SaleModel is the persistence model for the Sale aggregate root.
// IdempotencyKey is NULL when the checkout sent none, so the unique
// (tenant_id, idempotency_key) index only covers keyed sales.
type SaleModel struct {
	TenantAggregateModel
	Items                 []SaleItemModel  `gorm:"foreignKey:SaleID;references:ID"`
	PaymentMethod         string           `gorm:"type:varchar(20);not null;index"`
	Subtotal              decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	Discount              decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	Total                 decimal.Decimal  `gorm:"type:decimal(18,2);not null"`
	AmountTendered        *decimal.Decimal `gorm:"type:decimal(18,2)"`
	ChangeDue             decimal.Decimal  `gorm:"type:decimal(18,2);not null;default:0"`
	SellerID              uuid.UUID        `gorm:"type:uuid;not null;index"`
	CustomerID            *uuid.UUID       `gorm:"type:uuid;index"`
	CashSessionID         *uuid.UUID       `gorm:"type:uuid;index"`
	ReceivableID          *uuid.UUID       `gorm:"type:uuid"`
	CustomerTransactionID *uuid.UUID       `gorm:"type:uuid"`
	Status                string           `gorm:"type:varchar(20);not null;index"`
	CancelReason          string           `gorm:"type:varchar(500);not null;default:''"`
	CancelledAt           *time.Time
	IdempotencyKey        *string `gorm:"type:varchar(100)"`
}

// TableName returns the table name for GORM
func (SaleModel) TableName() string {
	return "sales"
}

// SaleModelFromDomain creates a model, items included, from a domain Sale.
func SaleModelFromDomain(s *trade.Sale) *SaleModel {
	m := &SaleModel{
		PaymentMethod:         string(s.PaymentMethod),
		Subtotal:              s.Subtotal,
		Discount:              s.Discount,
		Total:                 s.Total,
		AmountTendered:        s.AmountTendered,
		ChangeDue:             s.ChangeDue,
		SellerID:              s.SellerID,
		CustomerID:            s.CustomerID,
		CashSessionID:         s.CashSessionID,
		ReceivableID:          s.ReceivableID,
		CustomerTransactionID: s.CustomerTransactionID,
		Status:                string(s.Status),
		CancelReason:          s.CancelReason,
		CancelledAt:           s.CancelledAt,
		IdempotencyKey:        nullableString(s.IdempotencyKey),
		Items:                 make([]SaleItemModel, len(s.Items)),
	}
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	for i, it := range s.Items {
		m.Items[i] = SaleItemModel{
			ID:          it.ID,
			TenantID:    s.TenantID,
			SaleID:      s.ID,
			StockUnitID: it.StockUnitID,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Amount:      it.Amount,
			Position:    i,
		}
	}
	return m
}

// ToDomain converts the model and its loaded items to a domain Sale.
// Items must be loaded in Position order; stock tokens depend on it.
func (m *SaleModel) ToDomain() *trade.Sale {
	s := &trade.Sale{
		PaymentMethod:         trade.PaymentMethod(m.PaymentMethod),
		Subtotal:              m.Subtotal,
		Discount:              m.Discount,
		Total:                 m.Total,
		AmountTendered:        m.AmountTendered,
		ChangeDue:             m.ChangeDue,
		SellerID:              m.SellerID,
		CustomerID:            m.CustomerID,
		CashSessionID:         m.CashSessionID,
		ReceivableID:          m.ReceivableID,
		CustomerTransactionID: m.CustomerTransactionID,
		Status:                trade.SaleStatus(m.Status),
		CancelReason:          m.CancelReason,
		CancelledAt:           m.CancelledAt,
		IdempotencyKey:        derefString(m.IdempotencyKey),
		Items:                 make([]trade.SaleItem, len(m.Items)),
	}
	m.PopulateTenantAggregateRoot(&s.TenantAggregateRoot)
	for i, it := range m.Items {
		s.Items[i] = trade.SaleItem{
			ID:          it.ID,
			SaleID:      it.SaleID,
			StockUnitID: it.StockUnitID,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			Amount:      it.Amount,
		}
	}
	return s
}

// SaleItemModel is one line of a sale.
type SaleItemModel struct {
	ID          uuid.UUID       `gorm:"type:uuid;primaryKey"`
	TenantID    uuid.UUID       `gorm:"type:uuid;not null;index"`
	SaleID      uuid.UUID       `gorm:"type:uuid;not null;index"`
	StockUnitID uuid.UUID       `gorm:"type:uuid;not null;index"`
	Quantity    int             `gorm:"not null"`
	UnitPrice   decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Amount      decimal.Decimal `gorm:"type:decimal(18,2);not null"`
	Position    int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (SaleItemModel) TableName() string {
	return "sale_items"
}
