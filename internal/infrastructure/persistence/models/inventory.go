package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/inventory"
)

// StockUnitModel is the persistence model for the StockUnit aggregate root.
type StockUnitModel struct {
	TenantAggregateModel
	ProductID        uuid.UUID `gorm:"type:uuid;not null;index"`
	Variant          string    `gorm:"type:varchar(100);not null;default:''"`
	Quantity         int       `gorm:"not null;default:0;check:chk_stock_units_quantity,quantity >= 0"`
	ReorderThreshold int       `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (StockUnitModel) TableName() string {
	return "stock_units"
}

// FromDomain populates the model from a domain StockUnit.
func (m *StockUnitModel) FromDomain(u *inventory.StockUnit) {
	m.FromDomainTenantAggregateRoot(u.TenantAggregateRoot)
	m.ProductID = u.ProductID
	m.Variant = u.Variant
	m.Quantity = u.Quantity
	m.ReorderThreshold = u.ReorderThreshold
}

// ToDomain converts the model to a domain StockUnit.
func (m *StockUnitModel) ToDomain() *inventory.StockUnit {
	u := &inventory.StockUnit{
		ProductID:        m.ProductID,
		Variant:          m.Variant,
		Quantity:         m.Quantity,
		ReorderThreshold: m.ReorderThreshold,
	}
	m.PopulateTenantAggregateRoot(&u.TenantAggregateRoot)
	return u
}

// StockUnitModelFromDomain creates a model from a domain StockUnit.
func StockUnitModelFromDomain(u *inventory.StockUnit) *StockUnitModel {
	m := &StockUnitModel{}
	m.FromDomain(u)
	return m
}

// StockMovementModel is an append-only row of the stock ledger.
type StockMovementModel struct {
	ID            uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID      uuid.UUID `gorm:"type:uuid;not null;index:idx_stock_movements_unit,priority:1"`
	StockUnitID   uuid.UUID `gorm:"type:uuid;not null;index:idx_stock_movements_unit,priority:2"`
	Direction     string    `gorm:"type:varchar(10);not null"`
	Quantity      int       `gorm:"not null"`
	QuantityAfter int       `gorm:"not null"`
	SourceType    string    `gorm:"type:varchar(30);not null"`
	SourceID      string    `gorm:"type:varchar(64);not null;default:''"`
	Token         *string   `gorm:"type:varchar(150)"`
	CreatedAt     time.Time `gorm:"not null;index"`
}

// TableName returns the table name for GORM
func (StockMovementModel) TableName() string {
	return "stock_movements"
}

// StockMovementModelFromDomain creates a model from a domain StockMovement.
func StockMovementModelFromDomain(mv *inventory.StockMovement) *StockMovementModel {
	return &StockMovementModel{
		ID:            mv.ID,
		TenantID:      mv.TenantID,
		StockUnitID:   mv.StockUnitID,
		Direction:     string(mv.Direction),
		Quantity:      mv.Quantity,
		QuantityAfter: mv.QuantityAfter,
		SourceType:    mv.SourceType,
		SourceID:      mv.SourceID,
		Token:         nullableString(mv.Token),
		CreatedAt:     mv.CreatedAt,
	}
}

// ToDomain converts the model to a domain StockMovement.
func (m *StockMovementModel) ToDomain() *inventory.StockMovement {
	return &inventory.StockMovement{
		ID:            m.ID,
		TenantID:      m.TenantID,
		StockUnitID:   m.StockUnitID,
		Direction:     inventory.MovementDirection(m.Direction),
		Quantity:      m.Quantity,
		QuantityAfter: m.QuantityAfter,
		SourceType:    m.SourceType,
		SourceID:      m.SourceID,
		Token:         derefString(m.Token),
		CreatedAt:     m.CreatedAt,
	}
}
