package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/finance"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newReceivable(t *testing.T, tenantID uuid.UUID, amount string, issue, due time.Time) *finance.LedgerEntry {
	t.Helper()
	customerID := uuid.New()
	entry, err := finance.NewLedgerEntry(tenantID, finance.EntryKindReceivable, "sale",
		decimal.RequireFromString(amount), issue, due, finance.Customer(&customerID))
	require.NoError(t, err)
	return entry
}

func TestGormLedgerEntryRepository_SaveAndSettle(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormLedgerEntryRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	now := time.Now().UTC()

	entry := newReceivable(t, tenantID, "100.00", now, now.AddDate(0, 0, 30))
	entry.WithSource(finance.SourceSale, "sale-1")
	require.NoError(t, repo.Save(ctx, entry))

	loaded, err := repo.FindByID(ctx, tenantID, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.EntryStatusPending, loaded.Status)
	assert.True(t, loaded.Amount.Equal(decimal.NewFromInt(100)))
	assert.Empty(t, loaded.Settlements)

	_, err = loaded.Settle(decimal.NewFromInt(40), "pix", now)
	require.NoError(t, err)
	require.NoError(t, repo.Save(ctx, loaded))

	_, err = loaded.Settle(decimal.NewFromInt(60), "cash", now.Add(time.Hour))
	require.NoError(t, err)
	require.NoError(t, repo.SaveWithLock(ctx, loaded))

	reloaded, err := repo.FindByID(ctx, tenantID, entry.ID)
	require.NoError(t, err)
	assert.Equal(t, finance.EntryStatusSettled, reloaded.Status)
	assert.True(t, reloaded.AmountSettled.Equal(decimal.NewFromInt(100)))
	require.Len(t, reloaded.Settlements, 2)
	assert.Equal(t, "pix", reloaded.Settlements[0].PaymentMethod)
	assert.Equal(t, "cash", reloaded.Settlements[1].PaymentMethod)

	t.Run("stale copy conflicts", func(t *testing.T) {
		_, err := entry.Settle(decimal.NewFromInt(10), "pix", now)
		require.NoError(t, err)
		err = repo.SaveWithLock(ctx, entry)
		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))
	})

	t.Run("find by source", func(t *testing.T) {
		found, err := repo.FindBySource(ctx, tenantID, finance.EntryKindReceivable, finance.SourceSale, "sale-1")
		require.NoError(t, err)
		assert.Equal(t, entry.ID, found.ID)

		_, err = repo.FindBySource(ctx, tenantID, finance.EntryKindPayable, finance.SourceSale, "sale-1")
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestGormLedgerEntryRepository_FindAll(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormLedgerEntryRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	today := time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)

	overdue := newReceivable(t, tenantID, "50.00", today.AddDate(0, 0, -40), today.AddDate(0, 0, -10))
	dueToday := newReceivable(t, tenantID, "20.00", today.AddDate(0, 0, -5), today)
	settled := newReceivable(t, tenantID, "30.00", today.AddDate(0, 0, -40), today.AddDate(0, 0, -20))
	_, err := settled.SettleInFull("cash", today)
	require.NoError(t, err)
	supplierID := uuid.New()
	payable, err := finance.NewLedgerEntry(tenantID, finance.EntryKindPayable, "po",
		decimal.NewFromInt(70), today, today.AddDate(0, 0, 15), finance.Supplier(supplierID))
	require.NoError(t, err)

	for _, e := range []*finance.LedgerEntry{overdue, dueToday, settled, payable} {
		require.NoError(t, repo.Save(ctx, e))
	}
	require.NoError(t, repo.Save(ctx, newReceivable(t, uuid.New(), "99.00", today, today)))

	t.Run("tenant scoped listing ordered by due date", func(t *testing.T) {
		entries, total, err := repo.FindAll(ctx, tenantID, finance.LedgerEntryFilter{
			Filter: shared.Filter{Page: 1, PageSize: 10, OrderDir: "asc"},
		})
		require.NoError(t, err)
		assert.Equal(t, int64(4), total)
		require.Len(t, entries, 4)
		assert.Equal(t, settled.ID, entries[0].ID)
		assert.Equal(t, payable.ID, entries[3].ID)
	})

	t.Run("kind and counterparty", func(t *testing.T) {
		entries, total, err := repo.FindAll(ctx, tenantID, finance.LedgerEntryFilter{
			Filter:         shared.DefaultFilter(),
			Kind:           finance.EntryKindPayable,
			CounterpartyID: &supplierID,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, payable.ID, entries[0].ID)
	})

	t.Run("overdue excludes settled and entries due today", func(t *testing.T) {
		entries, total, err := repo.FindAll(ctx, tenantID, finance.LedgerEntryFilter{
			Filter:      shared.DefaultFilter(),
			OverdueAsOf: &today,
		})
		require.NoError(t, err)
		assert.Equal(t, int64(1), total)
		assert.Equal(t, overdue.ID, entries[0].ID)
	})
}
