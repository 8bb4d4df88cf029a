package trade

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// PaymentMethod is how the customer paid for a sale
type PaymentMethod string

const (
	PaymentMethodCash       PaymentMethod = "cash"
	PaymentMethodDebitCard  PaymentMethod = "debit_card"
	PaymentMethodCreditCard PaymentMethod = "credit_card"
	PaymentMethodPix        PaymentMethod = "pix"
	// PaymentMethodCredit is store credit: the customer pays later
	PaymentMethodCredit PaymentMethod = "credit"
)

// IsValid checks if the payment method is known
func (m PaymentMethod) IsValid() bool {
	switch m {
	case PaymentMethodCash, PaymentMethodDebitCard, PaymentMethodCreditCard, PaymentMethodPix, PaymentMethodCredit:
		return true
	}
	return false
}

// IsCredit reports whether the sale is paid on store credit
func (m PaymentMethod) IsCredit() bool {
	return m == PaymentMethodCredit
}

// SaleStatus is the status of a finalized sale
type SaleStatus string

const (
	SaleStatusActive    SaleStatus = "active"
	SaleStatusCancelled SaleStatus = "cancelled"
)

// SaleItem is one sold stock unit
type SaleItem struct {
	ID          uuid.UUID
	SaleID      uuid.UUID
	StockUnitID uuid.UUID
	Quantity    int
	UnitPrice   decimal.Decimal
	Amount      decimal.Decimal
}

// CartItem is a requested line of a checkout
type CartItem struct {
	StockUnitID uuid.UUID
	Quantity    int
	UnitPrice   decimal.Decimal
}

// Checkout carries everything needed to finalize a sale
type Checkout struct {
	Items          []CartItem
	PaymentMethod  PaymentMethod
	Discount       decimal.Decimal
	AmountTendered *decimal.Decimal
	CustomerID     *uuid.UUID
	SellerID       uuid.UUID
	IdempotencyKey string
}

// Sale is a finalized sale. Once created it can only be cancelled.
type Sale struct {
	shared.TenantAggregateRoot
	Items                 []SaleItem
	PaymentMethod         PaymentMethod
	Subtotal              decimal.Decimal
	Discount              decimal.Decimal
	Total                 decimal.Decimal
	AmountTendered        *decimal.Decimal
	ChangeDue             decimal.Decimal
	SellerID              uuid.UUID
	CustomerID            *uuid.UUID
	CashSessionID         *uuid.UUID
	ReceivableID          *uuid.UUID
	CustomerTransactionID *uuid.UUID
	Status                SaleStatus
	CancelReason          string
	CancelledAt           *time.Time
	IdempotencyKey        string
}

// NewSale validates a checkout and prices it.
// Checks run in order: empty cart, line amounts, discount, payment, customer.
func NewSale(tenantID uuid.UUID, checkout Checkout) (*Sale, error) {
	if len(checkout.Items) == 0 {
		return nil, shared.ErrEmptyCart
	}
	if !checkout.PaymentMethod.IsValid() {
		return nil, shared.NewValidationError(fmt.Sprintf("Invalid payment method: %s", checkout.PaymentMethod))
	}

	sale := &Sale{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PaymentMethod:       checkout.PaymentMethod,
		SellerID:            checkout.SellerID,
		CustomerID:          checkout.CustomerID,
		Status:              SaleStatusActive,
		IdempotencyKey:      strings.TrimSpace(checkout.IdempotencyKey),
	}

	subtotal := decimal.Zero
	for _, line := range checkout.Items {
		if line.StockUnitID == uuid.Nil {
			return nil, shared.ErrUnknownStockUnit
		}
		if line.Quantity <= 0 {
			return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Quantity must be positive").
				WithDetail("stock_unit_id", line.StockUnitID.String())
		}
		if line.UnitPrice.IsNegative() {
			return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Unit price cannot be negative").
				WithDetail("stock_unit_id", line.StockUnitID.String())
		}
		amount := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity))).Round(2)
		subtotal = subtotal.Add(amount)
		sale.Items = append(sale.Items, SaleItem{
			ID:          uuid.New(),
			SaleID:      sale.ID,
			StockUnitID: line.StockUnitID,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
			Amount:      amount,
		})
	}

	discount := checkout.Discount.Round(2)
	if discount.IsNegative() {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Discount cannot be negative")
	}
	if discount.GreaterThan(subtotal) {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Discount cannot exceed subtotal")
	}
	sale.Subtotal = subtotal
	sale.Discount = discount
	sale.Total = subtotal.Sub(discount)

	if checkout.AmountTendered != nil {
		tendered := checkout.AmountTendered.Round(2)
		if tendered.IsNegative() {
			return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Tendered amount cannot be negative")
		}
		if checkout.PaymentMethod == PaymentMethodCash && tendered.LessThan(sale.Total) {
			return nil, shared.ErrInsufficientPayment.
				WithDetail("total", sale.Total.StringFixed(2)).
				WithDetail("tendered", tendered.StringFixed(2))
		}
		sale.AmountTendered = &tendered
		sale.ChangeDue = decimal.Max(decimal.Zero, tendered.Sub(sale.Total))
	} else {
		sale.ChangeDue = decimal.Zero
	}

	if checkout.PaymentMethod.IsCredit() && (checkout.CustomerID == nil || *checkout.CustomerID == uuid.Nil) {
		return nil, shared.ErrCustomerRequired
	}

	return sale, nil
}

// AttachCashSession records the register the sale went through
func (s *Sale) AttachCashSession(sessionID uuid.UUID) {
	s.CashSessionID = &sessionID
}

// LinkReceivable records the receivable posted for the sale
func (s *Sale) LinkReceivable(entryID uuid.UUID) {
	s.ReceivableID = &entryID
}

// LinkCustomerTransaction records the debit_add posted for a credit sale
func (s *Sale) LinkCustomerTransaction(txID uuid.UUID) {
	s.CustomerTransactionID = &txID
}

// MarkFinalized raises the completion event once every side effect is recorded
func (s *Sale) MarkFinalized() {
	s.AddDomainEvent(NewSaleFinalizedEvent(s))
}

// IsCancelled reports whether the sale was cancelled
func (s *Sale) IsCancelled() bool {
	return s.Status == SaleStatusCancelled
}

// Cancel marks the sale cancelled
func (s *Sale) Cancel(reason string) error {
	if s.IsCancelled() {
		return shared.ErrSaleAlreadyCancelled.WithDetail("sale_id", s.ID.String())
	}
	now := time.Now()
	s.Status = SaleStatusCancelled
	s.CancelReason = reason
	s.CancelledAt = &now
	s.AddDomainEvent(NewSaleCancelledEvent(s))

	s.Touch()
	s.IncrementVersion()
	return nil
}

// Abort cancels a sale whose finalization failed part way and frees its
// idempotency key so the checkout can be retried.
func (s *Sale) Abort(reason string) error {
	if err := s.Cancel(reason); err != nil {
		return err
	}
	s.IdempotencyKey = ""
	return nil
}

// Description is the text used on the receivable and the customer debit
func (s *Sale) Description() string {
	return fmt.Sprintf("sale #%s", s.ID)
}

// StockToken is the idempotency token of the stock movement for item idx
func (s *Sale) StockToken(idx int) string {
	return fmt.Sprintf("sale:%s:%d", s.ID, idx)
}

// CancelStockToken is the idempotency token of the restock for item idx
func (s *Sale) CancelStockToken(idx int) string {
	return fmt.Sprintf("sale-cancel:%s:%d", s.ID, idx)
}
