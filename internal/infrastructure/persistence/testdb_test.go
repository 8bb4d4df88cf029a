package persistence

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/inventory"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

// newTestDB opens an in-memory sqlite database with the engine schema.
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	database, err := OpenSQLite(":memory:", Options{})
	require.NoError(t, err)
	require.NoError(t, AutoMigrate(database.DB))
	t.Cleanup(func() { _ = database.Close() })
	return database.DB
}

// newMockDB wires gorm's postgres dialector to sqlmock.
func newMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock, *sql.DB) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(newPostgresMockDialector(mockDB), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return gormDB, mock, mockDB
}

func newPostgresMockDialector(conn *sql.DB) gorm.Dialector {
	return postgres.New(postgres.Config{
		Conn:       conn,
		DriverName: "postgres",
	})
}

// seedStockUnit stores a variant holding qty units.
func seedStockUnit(t *testing.T, db *gorm.DB, tenantID uuid.UUID, qty int) *inventory.StockUnit {
	t.Helper()

	unit, err := inventory.NewStockUnit(tenantID, uuid.New(), "M / black", 2)
	require.NoError(t, err)
	repo := NewGormStockUnitRepository(db)
	require.NoError(t, repo.Create(context.Background(), unit))
	if qty > 0 {
		_, err = repo.Credit(context.Background(), tenantID, unit.ID, qty)
		require.NoError(t, err)
		unit.Quantity = qty
	}
	return unit
}

func seedCustomer(t *testing.T, db *gorm.DB, tenantID uuid.UUID) uuid.UUID {
	t.Helper()

	id := uuid.New()
	require.NoError(t, db.Create(&models.CustomerModel{PartnerModel: models.PartnerModel{
		ID: id, TenantID: tenantID, Name: "Maria Souza", CreatedAt: time.Now(),
	}}).Error)
	return id
}
