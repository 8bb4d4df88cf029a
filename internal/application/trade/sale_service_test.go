package trade

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/finance"
	"github.com/juliohebert/loja-sub000/internal/domain/inventory"
	"github.com/juliohebert/loja-sub000/internal/domain/partner"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/juliohebert/loja-sub000/internal/domain/trade"
	"github.com/juliohebert/loja-sub000/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type stubGate struct {
	sessionID *uuid.UUID
	err       error
}

func (g stubGate) RequireOpenSession(context.Context, uuid.UUID) (*uuid.UUID, error) {
	return g.sessionID, g.err
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func expectNoTokens(repos *testutil.MockRepositories, tenantID uuid.UUID) {
	repos.StockMovements.On("FindByToken", mock.Anything, tenantID, mock.Anything).Return(nil, shared.ErrNotFound)
}

func TestSaleService_Finalize_CashSale(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	unitID := uuid.New()
	sessionID := uuid.New()

	repos := testutil.NewMockRepositories()
	publisher := &testutil.RecordingPublisher{}
	svc := NewSaleService(repos.Scope(), stubGate{sessionID: &sessionID}, nil, nil)
	svc.SetEventPublisher(publisher)

	expectNoTokens(repos, tenantID)
	repos.StockUnits.On("Debit", mock.Anything, tenantID, unitID, 2).Return(3, nil).Once()
	repos.StockMovements.On("Create", mock.Anything, mock.MatchedBy(func(m *inventory.StockMovement) bool {
		return m.Direction == inventory.MovementDebit && m.QuantityAfter == 3 && m.SourceType == inventory.SourceSale
	})).Return(nil).Once()
	repos.Sales.On("Create", mock.Anything, mock.AnythingOfType("*trade.Sale")).Return(nil).Once()
	repos.LedgerEntries.On("Save", mock.Anything, mock.MatchedBy(func(e *finance.LedgerEntry) bool {
		return e.Kind == finance.EntryKindReceivable &&
			e.Status == finance.EntryStatusSettled &&
			e.Amount.Equal(dec("20")) &&
			e.SourceType == finance.SourceSale
	})).Return(nil).Once()
	repos.Sales.On("SaveWithLock", mock.Anything, mock.AnythingOfType("*trade.Sale")).Return(nil).Once()

	resp, err := svc.Finalize(ctx, tenantID, FinalizeSaleRequest{
		Items:          []SaleLineRequest{{StockUnitID: unitID, Quantity: 2, UnitPrice: dec("10.00")}},
		PaymentMethod:  "cash",
		SellerID:       uuid.New(),
		ChangeTendered: decPtr("50"),
	})

	require.NoError(t, err)
	assert.Equal(t, "active", resp.Status)
	assert.True(t, resp.Total.Equal(dec("20")))
	assert.True(t, resp.ChangeDue.Equal(dec("30")))
	assert.Equal(t, &sessionID, resp.CashSessionID)
	assert.NotNil(t, resp.ReceivableID)
	assert.Nil(t, resp.CustomerTransactionID)
	assert.Contains(t, publisher.Types(), trade.EventTypeSaleFinalized)
	assert.Contains(t, publisher.Types(), inventory.EventTypeStockDebited)
	repos.AssertExpectations(t)
}

func TestSaleService_Finalize_CompensatesOnInsufficientStock(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	unitA := uuid.New()
	unitB := uuid.New()

	core, logs := observer.New(zapcore.InfoLevel)
	repos := testutil.NewMockRepositories()
	publisher := &testutil.RecordingPublisher{}
	svc := NewSaleService(repos.Scope(), stubGate{}, nil, zap.New(core))
	svc.SetEventPublisher(publisher)

	expectNoTokens(repos, tenantID)
	repos.StockUnits.On("Debit", mock.Anything, tenantID, unitA, 1).Return(0, nil).Once()
	repos.StockUnits.On("Debit", mock.Anything, tenantID, unitB, 1).
		Return(0, shared.NewInsufficientStockError(unitB, 1, 0)).Once()
	repos.StockUnits.On("Credit", mock.Anything, tenantID, unitA, 1).Return(1, nil).Once()
	repos.StockMovements.On("Create", mock.Anything, mock.MatchedBy(func(m *inventory.StockMovement) bool {
		return m.Direction == inventory.MovementDebit && m.StockUnitID == unitA
	})).Return(nil).Once()
	repos.StockMovements.On("Create", mock.Anything, mock.MatchedBy(func(m *inventory.StockMovement) bool {
		return m.Direction == inventory.MovementCredit && m.StockUnitID == unitA &&
			m.SourceType == inventory.SourceCompensation && m.QuantityAfter == 1
	})).Return(nil).Once()

	_, err := svc.Finalize(ctx, tenantID, FinalizeSaleRequest{
		Items: []SaleLineRequest{
			{StockUnitID: unitA, Quantity: 1, UnitPrice: dec("10")},
			{StockUnitID: unitB, Quantity: 1, UnitPrice: dec("10")},
		},
		PaymentMethod: "pix",
	})

	require.Error(t, err)
	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	var domainErr *shared.DomainError
	require.True(t, errors.As(err, &domainErr))
	assert.Equal(t, unitB.String(), domainErr.Details["stock_unit_id"])

	repos.Sales.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
	repos.LedgerEntries.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	assert.Empty(t, publisher.Types())
	assert.Equal(t, 1, logs.FilterMessage("sale finalization compensated").Len())
	repos.AssertExpectations(t)
}

func TestSaleService_Finalize_CompensatesLaterFailures(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	unitID := uuid.New()

	repos := testutil.NewMockRepositories()
	svc := NewSaleService(repos.Scope(), nil, nil, nil)

	expectNoTokens(repos, tenantID)
	repos.StockUnits.On("Debit", mock.Anything, tenantID, unitID, 1).Return(4, nil).Once()
	repos.StockUnits.On("Credit", mock.Anything, tenantID, unitID, 1).Return(5, nil).Once()
	repos.StockMovements.On("Create", mock.Anything, mock.Anything).Return(nil).Twice()
	repos.Sales.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	repos.LedgerEntries.On("Save", mock.Anything, mock.Anything).Return(errors.New("connection reset")).Once()
	repos.Sales.On("SaveWithLock", mock.Anything, mock.MatchedBy(func(s *trade.Sale) bool {
		return s.IsCancelled() && s.IdempotencyKey == "" && s.CancelReason == abortReason
	})).Return(nil).Once()

	_, err := svc.Finalize(ctx, tenantID, FinalizeSaleRequest{
		Items:          []SaleLineRequest{{StockUnitID: unitID, Quantity: 1, UnitPrice: dec("10")}},
		PaymentMethod:  "debit_card",
		IdempotencyKey: "",
	})

	require.Error(t, err)
	assert.Contains(t, err.Error(), "connection reset")
	repos.AssertExpectations(t)
}

func TestSaleService_Finalize_LogsFailedCompensation(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	unitA := uuid.New()
	unitB := uuid.New()

	core, logs := observer.New(zapcore.InfoLevel)
	repos := testutil.NewMockRepositories()
	svc := NewSaleService(repos.Scope(), nil, nil, zap.New(core))

	expectNoTokens(repos, tenantID)
	repos.StockUnits.On("Debit", mock.Anything, tenantID, unitA, 1).Return(0, nil).Once()
	repos.StockUnits.On("Debit", mock.Anything, tenantID, unitB, 1).
		Return(0, shared.NewInsufficientStockError(unitB, 1, 0)).Once()
	repos.StockUnits.On("Credit", mock.Anything, tenantID, unitA, 1).Return(0, errors.New("database unavailable")).Once()
	repos.StockMovements.On("Create", mock.Anything, mock.Anything).Return(nil).Once()

	_, err := svc.Finalize(ctx, tenantID, FinalizeSaleRequest{
		Items: []SaleLineRequest{
			{StockUnitID: unitA, Quantity: 1, UnitPrice: dec("10")},
			{StockUnitID: unitB, Quantity: 1, UnitPrice: dec("10")},
		},
		PaymentMethod: "cash",
	})

	assert.ErrorIs(t, err, shared.ErrInsufficientStock)
	entries := logs.FilterMessage("compensation failed, manual reconciliation required").All()
	require.Len(t, entries, 1)
	assert.Equal(t, zapcore.ErrorLevel, entries[0].Level)
	assert.Equal(t, tenantID.String(), entries[0].ContextMap()["tenant_id"])
	repos.AssertExpectations(t)
}

func TestSaleService_Finalize_PreChecks(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	unitID := uuid.New()
	customerID := uuid.New()
	items := []SaleLineRequest{{StockUnitID: unitID, Quantity: 1, UnitPrice: dec("20")}}

	t.Run("empty cart", func(t *testing.T) {
		repos := testutil.NewMockRepositories()
		svc := NewSaleService(repos.Scope(), nil, nil, nil)

		_, err := svc.Finalize(ctx, tenantID, FinalizeSaleRequest{PaymentMethod: "cash"})
		assert.ErrorIs(t, err, shared.ErrEmptyCart)
	})

	t.Run("insufficient cash tendered", func(t *testing.T) {
		repos := testutil.NewMockRepositories()
		svc := NewSaleService(repos.Scope(), nil, nil, nil)

		_, err := svc.Finalize(ctx, tenantID, FinalizeSaleRequest{
			Items:          items,
			PaymentMethod:  "cash",
			ChangeTendered: decPtr("19.99"),
		})
		assert.ErrorIs(t, err, shared.ErrInsufficientPayment)
		repos.StockUnits.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("no open session", func(t *testing.T) {
		repos := testutil.NewMockRepositories()
		svc := NewSaleService(repos.Scope(), stubGate{err: shared.ErrNoOpenSession}, nil, nil)

		_, err := svc.Finalize(ctx, tenantID, FinalizeSaleRequest{Items: items, PaymentMethod: "cash"})
		assert.ErrorIs(t, err, shared.ErrNoOpenSession)
		repos.StockUnits.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("credit sale without customer", func(t *testing.T) {
		repos := testutil.NewMockRepositories()
		svc := NewSaleService(repos.Scope(), nil, nil, nil)

		_, err := svc.Finalize(ctx, tenantID, FinalizeSaleRequest{Items: items, PaymentMethod: "credit"})
		assert.ErrorIs(t, err, shared.ErrCustomerRequired)
	})

	t.Run("unknown customer on a cash sale", func(t *testing.T) {
		repos := testutil.NewMockRepositories()
		customers := new(testutil.MockCustomerDirectory)
		svc := NewSaleService(repos.Scope(), nil, nil, nil)
		svc.SetCustomerDirectory(customers)
		customers.On("CustomerExists", mock.Anything, tenantID, customerID).Return(false, nil).Once()

		_, err := svc.Finalize(ctx, tenantID, FinalizeSaleRequest{
			Items:         items,
			PaymentMethod: "cash",
			CustomerID:    &customerID,
		})

		assert.ErrorIs(t, err, shared.ErrNotFound)
		customers.AssertExpectations(t)
		repos.StockUnits.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("credit limit exceeded before any stock mutation", func(t *testing.T) {
		repos := testutil.NewMockRepositories()
		locker := &testutil.StubLocker{}
		svc := NewSaleService(repos.Scope(), nil, locker, nil)

		account, err := partner.NewCustomerAccount(tenantID, customerID)
		require.NoError(t, err)
		account.CreditLimit = dec("50")
		account.DebtBalance = dec("40")
		repos.CustomerAccounts.On("FindByCustomer", mock.Anything, tenantID, customerID).Return(account, nil)

		_, err = svc.Finalize(ctx, tenantID, FinalizeSaleRequest{
			Items:         items,
			PaymentMethod: "credit",
			CustomerID:    &customerID,
		})

		assert.ErrorIs(t, err, shared.ErrCreditLimitExceeded)
		assert.Empty(t, locker.Acquired())
		repos.StockUnits.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})
}

func TestSaleService_Finalize_CreditSale(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	unitID := uuid.New()
	customerID := uuid.New()

	repos := testutil.NewMockRepositories()
	locker := &testutil.StubLocker{}
	svc := NewSaleService(repos.Scope(), nil, locker, nil)

	account, err := partner.NewCustomerAccount(tenantID, customerID)
	require.NoError(t, err)
	account.CreditLimit = dec("100")

	expectNoTokens(repos, tenantID)
	repos.CustomerAccounts.On("FindByCustomer", mock.Anything, tenantID, customerID).Return(account, nil)
	repos.StockUnits.On("Debit", mock.Anything, tenantID, unitID, 3).Return(7, nil).Once()
	repos.StockMovements.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	repos.Sales.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
	repos.LedgerEntries.On("Save", mock.Anything, mock.MatchedBy(func(e *finance.LedgerEntry) bool {
		return e.Kind == finance.EntryKindReceivable &&
			e.Status == finance.EntryStatusPending &&
			e.Counterparty.Type == finance.CounterpartyCustomer &&
			*e.Counterparty.ID == customerID
	})).Return(nil).Once()
	repos.CustomerAccounts.On("SaveWithLock", mock.Anything, account).Return(nil).Once()
	repos.CustomerTransactions.On("Create", mock.Anything, mock.MatchedBy(func(tx *partner.CustomerLedgerTransaction) bool {
		return tx.Kind == partner.KindDebitAdd &&
			tx.Amount.Equal(dec("30")) &&
			tx.SourceType == partner.SourceSale &&
			len(tx.Description) > len("sale #")
	})).Return(nil).Once()
	repos.Sales.On("SaveWithLock", mock.Anything, mock.Anything).Return(nil).Once()

	resp, err := svc.Finalize(ctx, tenantID, FinalizeSaleRequest{
		Items:         []SaleLineRequest{{StockUnitID: unitID, Quantity: 3, UnitPrice: dec("10")}},
		PaymentMethod: "credit",
		CustomerID:    &customerID,
	})

	require.NoError(t, err)
	assert.NotNil(t, resp.CustomerTransactionID)
	assert.True(t, account.DebtBalance.Equal(dec("30")))
	assert.Equal(t, []string{shared.CustomerAccountLockKey(tenantID, customerID)}, locker.Acquired())
	assert.Equal(t, 1, locker.Released())
	repos.AssertExpectations(t)
}

func TestSaleService_Finalize_IdempotentReplay(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	existing, err := trade.NewSale(tenantID, trade.Checkout{
		Items:          []trade.CartItem{{StockUnitID: uuid.New(), Quantity: 1, UnitPrice: dec("5")}},
		PaymentMethod:  trade.PaymentMethodCash,
		IdempotencyKey: "pos-1-0042",
	})
	require.NoError(t, err)

	repos := testutil.NewMockRepositories()
	svc := NewSaleService(repos.Scope(), nil, nil, nil)
	repos.Sales.On("FindByIdempotencyKey", mock.Anything, tenantID, "pos-1-0042").Return(existing, nil).Once()

	resp, err := svc.Finalize(ctx, tenantID, FinalizeSaleRequest{
		Items:          []SaleLineRequest{{StockUnitID: uuid.New(), Quantity: 1, UnitPrice: dec("5")}},
		PaymentMethod:  "cash",
		IdempotencyKey: "pos-1-0042",
	})

	require.NoError(t, err)
	assert.Equal(t, existing.ID, resp.ID)
	assert.True(t, resp.Replayed)
	repos.StockUnits.AssertNotCalled(t, "Debit", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	repos.AssertExpectations(t)
}

func newSettledSale(t *testing.T, tenantID uuid.UUID) (*trade.Sale, *finance.LedgerEntry) {
	t.Helper()
	sale, err := trade.NewSale(tenantID, trade.Checkout{
		Items:         []trade.CartItem{{StockUnitID: uuid.New(), Quantity: 2, UnitPrice: dec("15")}},
		PaymentMethod: trade.PaymentMethodCreditCard,
	})
	require.NoError(t, err)
	now := time.Now()
	entry, err := finance.NewLedgerEntry(tenantID, finance.EntryKindReceivable, sale.Description(), sale.Total, now, now, finance.Customer(nil))
	require.NoError(t, err)
	_, err = entry.SettleInFull(string(sale.PaymentMethod), now)
	require.NoError(t, err)
	sale.LinkReceivable(entry.ID)
	sale.ClearDomainEvents()
	return sale, entry
}

func TestSaleService_Cancel(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("settled receivable gets a settled refund", func(t *testing.T) {
		sale, entry := newSettledSale(t, tenantID)
		unitID := sale.Items[0].StockUnitID

		repos := testutil.NewMockRepositories()
		publisher := &testutil.RecordingPublisher{}
		svc := NewSaleService(repos.Scope(), nil, nil, nil)
		svc.SetEventPublisher(publisher)

		expectNoTokens(repos, tenantID)
		repos.Sales.On("FindByID", mock.Anything, tenantID, sale.ID).Return(sale, nil)
		repos.StockUnits.On("Credit", mock.Anything, tenantID, unitID, 2).Return(2, nil).Once()
		repos.StockMovements.On("Create", mock.Anything, mock.MatchedBy(func(m *inventory.StockMovement) bool {
			return m.Token == sale.CancelStockToken(0) && m.SourceType == inventory.SourceSaleCancel
		})).Return(nil).Once()
		repos.LedgerEntries.On("FindByID", mock.Anything, tenantID, entry.ID).Return(entry, nil).Once()
		repos.LedgerEntries.On("FindBySource", mock.Anything, tenantID, finance.EntryKindPayable, finance.SourceSaleReversal, sale.ID.String()).
			Return(nil, shared.ErrNotFound).Once()
		repos.LedgerEntries.On("Save", mock.Anything, mock.MatchedBy(func(e *finance.LedgerEntry) bool {
			return e.Kind == finance.EntryKindPayable &&
				e.Status == finance.EntryStatusSettled &&
				e.Amount.Equal(dec("30")) &&
				e.ReversesEntryID != nil && *e.ReversesEntryID == entry.ID
		})).Return(nil).Once()
		repos.Sales.On("SaveWithLock", mock.Anything, sale).Return(nil).Once()

		resp, err := svc.Cancel(ctx, tenantID, sale.ID, CancelSaleRequest{Reason: "returned"})

		require.NoError(t, err)
		assert.Equal(t, "cancelled", resp.Status)
		assert.Equal(t, "returned", resp.CancelReason)
		assert.Equal(t, finance.EntryStatusSettled, entry.Status)
		assert.Contains(t, publisher.Types(), trade.EventTypeSaleCancelled)
		repos.AssertExpectations(t)
	})

	t.Run("pending credit receivable is cancelled and the debit reversed", func(t *testing.T) {
		customerID := uuid.New()
		sale, err := trade.NewSale(tenantID, trade.Checkout{
			Items:         []trade.CartItem{{StockUnitID: uuid.New(), Quantity: 1, UnitPrice: dec("25")}},
			PaymentMethod: trade.PaymentMethodCredit,
			CustomerID:    &customerID,
		})
		require.NoError(t, err)
		now := time.Now()
		entry, err := finance.NewLedgerEntry(tenantID, finance.EntryKindReceivable, sale.Description(), sale.Total, now, now, finance.Customer(&customerID))
		require.NoError(t, err)
		account, err := partner.NewCustomerAccount(tenantID, customerID)
		require.NoError(t, err)
		account.CreditLimit = dec("100")
		debit, err := account.Record(partner.KindDebitAdd, sale.Total, sale.Description(), now)
		require.NoError(t, err)
		sale.LinkReceivable(entry.ID)
		sale.LinkCustomerTransaction(debit.ID)

		repos := testutil.NewMockRepositories()
		locker := &testutil.StubLocker{}
		svc := NewSaleService(repos.Scope(), nil, locker, nil)

		expectNoTokens(repos, tenantID)
		repos.Sales.On("FindByID", mock.Anything, tenantID, sale.ID).Return(sale, nil)
		repos.StockUnits.On("Credit", mock.Anything, tenantID, sale.Items[0].StockUnitID, 1).Return(1, nil).Once()
		repos.StockMovements.On("Create", mock.Anything, mock.Anything).Return(nil).Once()
		repos.LedgerEntries.On("FindByID", mock.Anything, tenantID, entry.ID).Return(entry, nil).Once()
		repos.LedgerEntries.On("SaveWithLock", mock.Anything, entry).Return(nil).Once()
		repos.CustomerTransactions.On("FindByID", mock.Anything, tenantID, debit.ID).Return(debit, nil).Once()
		repos.CustomerTransactions.On("FindReversalOf", mock.Anything, tenantID, debit.ID).Return(nil, shared.ErrNotFound).Once()
		repos.CustomerAccounts.On("FindByCustomer", mock.Anything, tenantID, customerID).Return(account, nil)
		repos.CustomerAccounts.On("SaveWithLock", mock.Anything, account).Return(nil).Once()
		repos.CustomerTransactions.On("Create", mock.Anything, mock.MatchedBy(func(tx *partner.CustomerLedgerTransaction) bool {
			return tx.Kind == partner.KindDebitPay && tx.ReversesID != nil && *tx.ReversesID == debit.ID
		})).Return(nil).Once()
		repos.Sales.On("SaveWithLock", mock.Anything, sale).Return(nil).Once()

		_, err = svc.Cancel(ctx, tenantID, sale.ID, CancelSaleRequest{Reason: "wrong size"})

		require.NoError(t, err)
		assert.Equal(t, finance.EntryStatusCancelled, entry.Status)
		assert.True(t, account.DebtBalance.IsZero())
		assert.Equal(t, []string{shared.CustomerAccountLockKey(tenantID, customerID)}, locker.Acquired())
		repos.AssertExpectations(t)
	})

	t.Run("already cancelled", func(t *testing.T) {
		sale, _ := newSettledSale(t, tenantID)
		require.NoError(t, sale.Cancel("first"))

		repos := testutil.NewMockRepositories()
		svc := NewSaleService(repos.Scope(), nil, nil, nil)
		repos.Sales.On("FindByID", mock.Anything, tenantID, sale.ID).Return(sale, nil)

		_, err := svc.Cancel(ctx, tenantID, sale.ID, CancelSaleRequest{Reason: "second"})
		assert.ErrorIs(t, err, shared.ErrSaleAlreadyCancelled)
	})

	t.Run("not found", func(t *testing.T) {
		repos := testutil.NewMockRepositories()
		svc := NewSaleService(repos.Scope(), nil, nil, nil)
		id := uuid.New()
		repos.Sales.On("FindByID", mock.Anything, tenantID, id).Return(nil, shared.NewNotFoundError("sale", id))

		_, err := svc.Cancel(ctx, tenantID, id, CancelSaleRequest{Reason: "x"})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}
