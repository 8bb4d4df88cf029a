package trade

import (
	"testing"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func TestNewSale(t *testing.T) {
	unitID := uuid.New()
	cart := []CartItem{{StockUnitID: unitID, Quantity: 2, UnitPrice: dec("10.00")}}

	t.Run("cash sale with exact tender", func(t *testing.T) {
		sale, err := NewSale(uuid.New(), Checkout{
			Items:          cart,
			PaymentMethod:  PaymentMethodCash,
			AmountTendered: decPtr("20.00"),
			SellerID:       uuid.New(),
		})

		require.NoError(t, err)
		assert.Equal(t, "20.00", sale.Subtotal.StringFixed(2))
		assert.Equal(t, "20.00", sale.Total.StringFixed(2))
		assert.Equal(t, "0.00", sale.ChangeDue.StringFixed(2))
		assert.Equal(t, SaleStatusActive, sale.Status)
		require.Len(t, sale.Items, 1)
		assert.Equal(t, sale.ID, sale.Items[0].SaleID)
	})

	t.Run("change due", func(t *testing.T) {
		sale, err := NewSale(uuid.New(), Checkout{
			Items:          cart,
			PaymentMethod:  PaymentMethodCash,
			Discount:       dec("2.50"),
			AmountTendered: decPtr("50"),
		})

		require.NoError(t, err)
		assert.Equal(t, "17.50", sale.Total.StringFixed(2))
		assert.Equal(t, "32.50", sale.ChangeDue.StringFixed(2))
	})

	t.Run("empty cart", func(t *testing.T) {
		_, err := NewSale(uuid.New(), Checkout{PaymentMethod: PaymentMethodCash})
		assert.ErrorIs(t, err, shared.ErrEmptyCart)
	})

	t.Run("insufficient payment", func(t *testing.T) {
		_, err := NewSale(uuid.New(), Checkout{
			Items:          cart,
			PaymentMethod:  PaymentMethodCash,
			AmountTendered: decPtr("19.99"),
		})
		assert.ErrorIs(t, err, shared.ErrInsufficientPayment)
	})

	t.Run("tender is not checked for card payments", func(t *testing.T) {
		sale, err := NewSale(uuid.New(), Checkout{
			Items:          cart,
			PaymentMethod:  PaymentMethodDebitCard,
			AmountTendered: decPtr("0"),
		})
		require.NoError(t, err)
		assert.True(t, sale.ChangeDue.IsZero())
	})

	t.Run("discount above subtotal", func(t *testing.T) {
		_, err := NewSale(uuid.New(), Checkout{Items: cart, PaymentMethod: PaymentMethodPix, Discount: dec("20.01")})
		assert.ErrorIs(t, err, shared.ErrInvalidAmount)
	})

	t.Run("credit sale requires customer", func(t *testing.T) {
		_, err := NewSale(uuid.New(), Checkout{Items: cart, PaymentMethod: PaymentMethodCredit})
		assert.ErrorIs(t, err, shared.ErrCustomerRequired)
	})

	t.Run("invalid quantity", func(t *testing.T) {
		_, err := NewSale(uuid.New(), Checkout{
			Items:         []CartItem{{StockUnitID: unitID, Quantity: 0, UnitPrice: dec("1")}},
			PaymentMethod: PaymentMethodCash,
		})
		assert.ErrorIs(t, err, shared.ErrInvalidAmount)
	})

	t.Run("unknown payment method", func(t *testing.T) {
		_, err := NewSale(uuid.New(), Checkout{Items: cart, PaymentMethod: "barter"})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestSale_Cancel(t *testing.T) {
	sale, err := NewSale(uuid.New(), Checkout{
		Items:         []CartItem{{StockUnitID: uuid.New(), Quantity: 1, UnitPrice: dec("5")}},
		PaymentMethod: PaymentMethodCash,
	})
	require.NoError(t, err)

	require.NoError(t, sale.Cancel("customer changed mind"))
	assert.True(t, sale.IsCancelled())
	assert.Equal(t, "customer changed mind", sale.CancelReason)
	assert.NotNil(t, sale.CancelledAt)

	err = sale.Cancel("again")
	assert.ErrorIs(t, err, shared.ErrSaleAlreadyCancelled)
	assert.Equal(t, "customer changed mind", sale.CancelReason)
}

func TestSale_Abort(t *testing.T) {
	sale, err := NewSale(uuid.New(), Checkout{
		Items:          []CartItem{{StockUnitID: uuid.New(), Quantity: 1, UnitPrice: dec("5")}},
		PaymentMethod:  PaymentMethodPix,
		IdempotencyKey: " checkout-1 ",
	})
	require.NoError(t, err)
	assert.Equal(t, "checkout-1", sale.IdempotencyKey)

	require.NoError(t, sale.Abort("finalization failed"))
	assert.True(t, sale.IsCancelled())
	assert.Empty(t, sale.IdempotencyKey)
}

func TestSale_Tokens(t *testing.T) {
	sale, err := NewSale(uuid.New(), Checkout{
		Items:         []CartItem{{StockUnitID: uuid.New(), Quantity: 1, UnitPrice: dec("5")}},
		PaymentMethod: PaymentMethodCash,
	})
	require.NoError(t, err)

	assert.Equal(t, "sale:"+sale.ID.String()+":0", sale.StockToken(0))
	assert.Equal(t, "sale #"+sale.ID.String(), sale.Description())
}
