package tenant

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

type ownedRow struct {
	ID       uuid.UUID `gorm:"type:uuid;primaryKey"`
	TenantID uuid.UUID `gorm:"type:uuid;not null"`
	Quantity int
}

func (ownedRow) TableName() string { return "owned_rows" }

type globalRow struct {
	ID   uuid.UUID `gorm:"type:uuid;primaryKey"`
	Name string
}

func (globalRow) TableName() string { return "global_rows" }

func newGuardedDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&ownedRow{}, &globalRow{}))
	require.NoError(t, RegisterGuard(db))
	return db
}

func TestTenantScope(t *testing.T) {
	db := newGuardedDB(t)
	tenantA, tenantB := uuid.New(), uuid.New()
	require.NoError(t, db.Create(&[]ownedRow{
		{ID: uuid.New(), TenantID: tenantA, Quantity: 1},
		{ID: uuid.New(), TenantID: tenantA, Quantity: 2},
		{ID: uuid.New(), TenantID: tenantB, Quantity: 3},
	}).Error)

	var rows []ownedRow
	require.NoError(t, db.Scopes(TenantScope(tenantA)).Find(&rows).Error)
	assert.Len(t, rows, 2)
	for _, r := range rows {
		assert.Equal(t, tenantA, r.TenantID)
	}
}

func TestGuard(t *testing.T) {
	db := newGuardedDB(t)
	tenantID := uuid.New()
	row := ownedRow{ID: uuid.New(), TenantID: tenantID, Quantity: 5}
	require.NoError(t, db.Create(&row).Error)

	t.Run("update without tenant is rejected", func(t *testing.T) {
		err := db.Model(&ownedRow{}).Where("id = ?", row.ID).Update("quantity", 0).Error
		assert.ErrorIs(t, err, ErrTenantIDRequired)
	})

	t.Run("delete without tenant is rejected", func(t *testing.T) {
		err := db.Delete(&ownedRow{}, "id = ?", row.ID).Error
		assert.ErrorIs(t, err, ErrTenantIDRequired)
	})

	t.Run("scoped update passes", func(t *testing.T) {
		result := db.Model(&ownedRow{}).
			Scopes(TenantScope(tenantID)).
			Where("id = ?", row.ID).
			Update("quantity", 4)
		require.NoError(t, result.Error)
		assert.EqualValues(t, 1, result.RowsAffected)
	})

	t.Run("inline tenant condition passes", func(t *testing.T) {
		err := db.Model(&ownedRow{}).
			Where("id = ? AND tenant_id = ?", row.ID, tenantID).
			Update("quantity", 3).Error
		assert.NoError(t, err)
	})

	t.Run("tables without tenant column are ignored", func(t *testing.T) {
		g := globalRow{ID: uuid.New(), Name: "x"}
		require.NoError(t, db.Create(&g).Error)
		assert.NoError(t, db.Model(&globalRow{}).Where("id = ?", g.ID).Update("name", "y").Error)
	})
}
