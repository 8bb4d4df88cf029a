package partner

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/partner"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/juliohebert/loja-sub000/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func accountWith(t *testing.T, tenantID, customerID uuid.UUID, limit, debt string) *partner.CustomerAccount {
	t.Helper()
	a, err := partner.NewCustomerAccount(tenantID, customerID)
	require.NoError(t, err)
	a.CreditLimit = decimal.RequireFromString(limit)
	a.DebtBalance = decimal.RequireFromString(debt)
	return a
}

func TestCustomerAccountService_RecordTransaction(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	customerID := uuid.New()

	t.Run("lazily creates the account under the customer lock", func(t *testing.T) {
		repos := testutil.NewMockRepositories()
		locker := &testutil.StubLocker{}
		publisher := &testutil.RecordingPublisher{}
		svc := NewCustomerAccountService(repos.Scope(), locker, nil)
		svc.SetEventPublisher(publisher)

		repos.CustomerAccounts.On("FindByCustomer", mock.Anything, tenantID, customerID).Return(nil, shared.ErrNotFound)
		repos.CustomerAccounts.On("Create", mock.Anything, mock.MatchedBy(func(a *partner.CustomerAccount) bool {
			return a.CreditLimit.Equal(decimal.NewFromInt(100))
		})).Return(nil)
		repos.CustomerTransactions.On("Create", mock.Anything, mock.MatchedBy(func(tx *partner.CustomerLedgerTransaction) bool {
			return tx.Kind == partner.KindCreditIncrease && tx.SourceType == partner.SourceManual
		})).Return(nil)

		resp, err := svc.RecordTransaction(ctx, tenantID, customerID, RecordTransactionRequest{
			Kind:   "credit_increase",
			Amount: decimal.NewFromInt(100),
		})

		require.NoError(t, err)
		assert.Equal(t, "100", resp.Account.CreditLimit.String())
		assert.Equal(t, "100", resp.Account.AvailableCredit.String())
		assert.Equal(t, []string{shared.CustomerAccountLockKey(tenantID, customerID)}, locker.Acquired())
		assert.Equal(t, 1, locker.Released())
		assert.Equal(t, []string{partner.EventTypeCustomerTransactionRecorded}, publisher.Types())
		repos.AssertExpectations(t)
	})

	t.Run("decrease is clamped and the clamped amount recorded", func(t *testing.T) {
		repos := testutil.NewMockRepositories()
		svc := NewCustomerAccountService(repos.Scope(), nil, nil)
		account := accountWith(t, tenantID, customerID, "0", "30")

		repos.CustomerAccounts.On("FindByCustomer", mock.Anything, tenantID, customerID).Return(account, nil)
		repos.CustomerAccounts.On("SaveWithLock", mock.Anything, account).Return(nil)
		repos.CustomerTransactions.On("Create", mock.Anything, mock.AnythingOfType("*partner.CustomerLedgerTransaction")).Return(nil)

		resp, err := svc.RecordTransaction(ctx, tenantID, customerID, RecordTransactionRequest{
			Kind:   "debit_pay",
			Amount: decimal.NewFromInt(50),
		})

		require.NoError(t, err)
		assert.True(t, resp.Account.DebtBalance.IsZero())
		assert.Equal(t, "30", resp.Transaction.Amount.String())
		assert.Equal(t, "50", resp.Transaction.RequestedAmount.String())
	})

	t.Run("unknown customer", func(t *testing.T) {
		repos := testutil.NewMockRepositories()
		directory := new(testutil.MockCustomerDirectory)
		svc := NewCustomerAccountService(repos.Scope(), nil, nil)
		svc.SetCustomerDirectory(directory)
		directory.On("CustomerExists", mock.Anything, tenantID, customerID).Return(false, nil)

		_, err := svc.RecordTransaction(ctx, tenantID, customerID, RecordTransactionRequest{Kind: "debit_add", Amount: decimal.NewFromInt(1)})
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("lock not obtained", func(t *testing.T) {
		repos := testutil.NewMockRepositories()
		svc := NewCustomerAccountService(repos.Scope(), &testutil.StubLocker{Err: shared.ErrConcurrencyConflict}, nil)

		_, err := svc.RecordTransaction(ctx, tenantID, customerID, RecordTransactionRequest{Kind: "debit_add", Amount: decimal.NewFromInt(1)})
		assert.ErrorIs(t, err, shared.ErrConcurrencyConflict)
		repos.CustomerAccounts.AssertNotCalled(t, "FindByCustomer", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("rejects invalid input", func(t *testing.T) {
		svc := NewCustomerAccountService(testutil.NewMockRepositories().Scope(), nil, nil)

		_, err := svc.RecordTransaction(ctx, tenantID, customerID, RecordTransactionRequest{Kind: "gift", Amount: decimal.NewFromInt(1)})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)

		_, err = svc.RecordTransaction(ctx, tenantID, customerID, RecordTransactionRequest{Kind: "debit_add", Amount: decimal.NewFromInt(-1)})
		assert.ErrorIs(t, err, shared.ErrInvalidAmount)
	})
}

func TestCustomerAccountService_CheckCreditAvailable(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	customerID := uuid.New()
	repos := testutil.NewMockRepositories()
	svc := NewCustomerAccountService(repos.Scope(), nil, nil)

	repos.CustomerAccounts.On("FindByCustomer", mock.Anything, tenantID, customerID).
		Return(accountWith(t, tenantID, customerID, "100", "90"), nil)

	resp, err := svc.CheckCreditAvailable(ctx, tenantID, customerID, decimal.NewFromInt(20))
	require.NoError(t, err)
	assert.False(t, resp.Allowed)
	assert.Equal(t, "10", resp.AvailableCredit.String())

	resp, err = svc.CheckCreditAvailable(ctx, tenantID, customerID, decimal.NewFromInt(10))
	require.NoError(t, err)
	assert.True(t, resp.Allowed)
}

func TestCustomerAccountService_ReverseTransaction(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	customerID := uuid.New()

	account := accountWith(t, tenantID, customerID, "0", "0")
	original, err := account.Record(partner.KindDebitAdd, decimal.NewFromInt(40), "sale #1", testutil.FixedTime())
	require.NoError(t, err)
	account.ClearDomainEvents()

	t.Run("appends inverse entry", func(t *testing.T) {
		repos := testutil.NewMockRepositories()
		svc := NewCustomerAccountService(repos.Scope(), nil, nil)

		repos.CustomerTransactions.On("FindByID", mock.Anything, tenantID, original.ID).Return(original, nil)
		repos.CustomerTransactions.On("FindReversalOf", mock.Anything, tenantID, original.ID).Return(nil, shared.ErrNotFound)
		repos.CustomerAccounts.On("FindByCustomer", mock.Anything, tenantID, customerID).Return(account, nil)
		repos.CustomerAccounts.On("SaveWithLock", mock.Anything, account).Return(nil)
		repos.CustomerTransactions.On("Create", mock.Anything, mock.MatchedBy(func(tx *partner.CustomerLedgerTransaction) bool {
			return tx.Kind == partner.KindDebitPay && tx.ReversesID != nil && *tx.ReversesID == original.ID
		})).Return(nil)

		resp, err := svc.ReverseTransaction(ctx, tenantID, customerID, original.ID)

		require.NoError(t, err)
		assert.True(t, resp.Account.DebtBalance.IsZero())
		assert.Equal(t, "reversal of sale #1", resp.Transaction.Description)
		assert.Equal(t, "40", original.Amount.String(), "original untouched")
	})

	t.Run("second reversal is rejected", func(t *testing.T) {
		repos := testutil.NewMockRepositories()
		svc := NewCustomerAccountService(repos.Scope(), nil, nil)

		repos.CustomerTransactions.On("FindByID", mock.Anything, tenantID, original.ID).Return(original, nil)
		repos.CustomerTransactions.On("FindReversalOf", mock.Anything, tenantID, original.ID).
			Return(&partner.CustomerLedgerTransaction{ID: uuid.New()}, nil)

		_, err := svc.ReverseTransaction(ctx, tenantID, customerID, original.ID)
		assert.ErrorIs(t, err, shared.ErrTransactionReversed)
	})

	t.Run("transaction of another customer", func(t *testing.T) {
		repos := testutil.NewMockRepositories()
		svc := NewCustomerAccountService(repos.Scope(), nil, nil)

		repos.CustomerTransactions.On("FindByID", mock.Anything, tenantID, original.ID).Return(original, nil)

		_, err := svc.ReverseTransaction(ctx, tenantID, uuid.New(), original.ID)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestCustomerAccountService_GetAccount(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()
	customerID := uuid.New()
	repos := testutil.NewMockRepositories()
	svc := NewCustomerAccountService(repos.Scope(), nil, nil)

	repos.CustomerAccounts.On("FindByCustomer", mock.Anything, tenantID, customerID).Return(nil, shared.ErrNotFound)

	resp, err := svc.GetAccount(ctx, tenantID, customerID)
	require.NoError(t, err)
	assert.True(t, resp.DebtBalance.IsZero())
	assert.True(t, resp.CreditLimit.IsZero())
}
