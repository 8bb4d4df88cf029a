package persistence

import (
	"context"
	"errors"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/inventory"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormStockUnitRepository_CreateAndFind(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormStockUnitRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	unit := seedStockUnit(t, db, tenantID, 0)
	assert.Equal(t, 1, unit.PersistedVersion())

	found, err := repo.FindByID(ctx, tenantID, unit.ID)
	require.NoError(t, err)
	assert.Equal(t, unit.ProductID, found.ProductID)
	assert.Equal(t, "M / black", found.Variant)
	assert.Equal(t, 0, found.Quantity)
	assert.Equal(t, 2, found.ReorderThreshold)

	t.Run("other tenant cannot see it", func(t *testing.T) {
		_, err := repo.FindByID(ctx, uuid.New(), unit.ID)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

func TestGormStockUnitRepository_Debit(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormStockUnitRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	unit := seedStockUnit(t, db, tenantID, 5)

	t.Run("covered debit returns remaining quantity", func(t *testing.T) {
		after, err := repo.Debit(ctx, tenantID, unit.ID, 3)
		require.NoError(t, err)
		assert.Equal(t, 2, after)
	})

	t.Run("uncovered debit leaves quantity untouched", func(t *testing.T) {
		_, err := repo.Debit(ctx, tenantID, unit.ID, 3)
		require.Error(t, err)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))

		var de *shared.DomainError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, unit.ID.String(), de.Details["stock_unit_id"])
		assert.Equal(t, 3, de.Details["requested"])
		assert.Equal(t, 2, de.Details["available"])

		found, err := repo.FindByID(ctx, tenantID, unit.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, found.Quantity)
	})

	t.Run("exact quantity drains to zero", func(t *testing.T) {
		after, err := repo.Debit(ctx, tenantID, unit.ID, 2)
		require.NoError(t, err)
		assert.Zero(t, after)
	})

	t.Run("unknown unit", func(t *testing.T) {
		_, err := repo.Debit(ctx, tenantID, uuid.New(), 1)
		assert.True(t, errors.Is(err, shared.ErrUnknownStockUnit))
	})

	t.Run("unit of another tenant is unknown", func(t *testing.T) {
		_, err := repo.Debit(ctx, uuid.New(), unit.ID, 1)
		assert.True(t, errors.Is(err, shared.ErrUnknownStockUnit))
	})

	t.Run("non positive quantity", func(t *testing.T) {
		_, err := repo.Debit(ctx, tenantID, unit.ID, 0)
		assert.True(t, errors.Is(err, shared.ErrInvalidAmount))
	})
}

func TestGormStockUnitRepository_Credit(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormStockUnitRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	unit := seedStockUnit(t, db, tenantID, 1)

	after, err := repo.Credit(ctx, tenantID, unit.ID, 4)
	require.NoError(t, err)
	assert.Equal(t, 5, after)

	_, err = repo.Credit(ctx, tenantID, uuid.New(), 1)
	assert.True(t, errors.Is(err, shared.ErrUnknownStockUnit))

	_, err = repo.Credit(ctx, tenantID, unit.ID, -1)
	assert.True(t, errors.Is(err, shared.ErrInvalidAmount))
}

func TestGormStockUnitRepository_Delete(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormStockUnitRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("unit holding stock is in use", func(t *testing.T) {
		unit := seedStockUnit(t, db, tenantID, 1)
		err := repo.Delete(ctx, tenantID, unit.ID)
		assert.True(t, errors.Is(err, shared.ErrStockUnitInUse))
	})

	t.Run("empty unit is removed", func(t *testing.T) {
		unit := seedStockUnit(t, db, tenantID, 0)
		require.NoError(t, repo.Delete(ctx, tenantID, unit.ID))
		_, err := repo.FindByID(ctx, tenantID, unit.ID)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("missing unit is not found", func(t *testing.T) {
		err := repo.Delete(ctx, tenantID, uuid.New())
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})
}

// The debit must be one conditional statement; a read-then-write would let
// two sellers take the same last unit.
func TestGormStockUnitRepository_Debit_SingleConditionalUpdate(t *testing.T) {
	db, mock, mockDB := newMockDB(t)
	defer mockDB.Close()
	repo := NewGormStockUnitRepository(db)

	tenantID := uuid.New()
	unitID := uuid.New()
	update := regexp.QuoteMeta(`UPDATE "stock_units" SET "quantity"=quantity - $1,"updated_at"=$2,"version"=version + 1 WHERE`) +
		`.*id = \$3 AND tenant_id = \$4 AND quantity >= \$5`
	readBack := regexp.QuoteMeta(`SELECT "quantity" FROM "stock_units" WHERE`)

	t.Run("matched row", func(t *testing.T) {
		mock.ExpectExec(update).
			WithArgs(1, sqlmock.AnyArg(), unitID, tenantID, 1).
			WillReturnResult(sqlmock.NewResult(0, 1))
		mock.ExpectQuery(readBack).
			WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(0))

		after, err := repo.Debit(context.Background(), tenantID, unitID, 1)
		require.NoError(t, err)
		assert.Zero(t, after)
		assert.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("no row matched", func(t *testing.T) {
		mock.ExpectExec(update).
			WithArgs(1, sqlmock.AnyArg(), unitID, tenantID, 1).
			WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectQuery(readBack).
			WillReturnRows(sqlmock.NewRows([]string{"quantity"}).AddRow(0))

		_, err := repo.Debit(context.Background(), tenantID, unitID, 1)
		assert.True(t, errors.Is(err, shared.ErrInsufficientStock))
		assert.NoError(t, mock.ExpectationsWereMet())
	})
}

func TestGormStockMovementRepository(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormStockMovementRepository(db)
	ctx := context.Background()
	tenantID := uuid.New()
	unit := seedStockUnit(t, db, tenantID, 0)

	op := inventory.StockOperation{
		StockUnitID: unit.ID,
		Quantity:    2,
		SourceType:  inventory.SourceSale,
		SourceID:    "sale-1",
		Token:       "sale:sale-1:0",
	}
	movement := inventory.NewStockMovement(tenantID, unit.ID, inventory.MovementDebit, 2, 3, op)
	require.NoError(t, repo.Create(ctx, movement))

	t.Run("token lookup", func(t *testing.T) {
		found, err := repo.FindByToken(ctx, tenantID, op.Token)
		require.NoError(t, err)
		assert.Equal(t, movement.ID, found.ID)
		assert.Equal(t, inventory.MovementDebit, found.Direction)
		assert.Equal(t, 3, found.QuantityAfter)

		_, err = repo.FindByToken(ctx, uuid.New(), op.Token)
		assert.True(t, errors.Is(err, shared.ErrNotFound))
	})

	t.Run("reused token conflicts", func(t *testing.T) {
		dup := inventory.NewStockMovement(tenantID, unit.ID, inventory.MovementDebit, 2, 1, op)
		err := repo.Create(ctx, dup)
		assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict))
	})

	t.Run("same token in another tenant is independent", func(t *testing.T) {
		other := inventory.NewStockMovement(uuid.New(), unit.ID, inventory.MovementDebit, 2, 1, op)
		assert.NoError(t, repo.Create(ctx, other))
	})

	t.Run("movements without token never collide", func(t *testing.T) {
		manual := inventory.StockOperation{StockUnitID: unit.ID, Quantity: 1, SourceType: inventory.SourceManual}
		require.NoError(t, repo.Create(ctx, inventory.NewStockMovement(tenantID, unit.ID, inventory.MovementCredit, 1, 4, manual)))
		require.NoError(t, repo.Create(ctx, inventory.NewStockMovement(tenantID, unit.ID, inventory.MovementCredit, 1, 5, manual)))
	})

	t.Run("history by stock unit", func(t *testing.T) {
		filter := shared.Filter{Page: 1, PageSize: 2, OrderBy: "created_at", OrderDir: "asc"}
		items, total, err := repo.FindByStockUnit(ctx, tenantID, unit.ID, filter)
		require.NoError(t, err)
		assert.Equal(t, int64(3), total)
		require.Len(t, items, 2)
		assert.Equal(t, movement.ID, items[0].ID)
	})
}
