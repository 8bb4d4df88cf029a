package persistence

import (
	"context"
	"errors"
	"strings"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"gorm.io/gorm"
)

// isDuplicateKey recognizes unique violations from every supported driver.
// gorm translates them when TranslateError is on; the message check covers
// connections opened without it, such as sqlmock-backed tests.
func isDuplicateKey(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint failed") ||
		strings.Contains(msg, "duplicate entry")
}

// notFound maps gorm's sentinel to the domain one, naming the resource.
func notFound(err error, resource string, id uuid.UUID) error {
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return shared.NewNotFoundError(resource, id)
	}
	return err
}

// versioned is the optimistic locking view of an aggregate root.
type versioned interface {
	GetVersion() int
	PersistedVersion() int
	MarkPersisted()
}

// updateVersioned writes columns only if the stored row still carries the
// version the aggregate was loaded at, then advances that version.
func updateVersioned(
	ctx context.Context,
	db *gorm.DB,
	model any,
	tenantID, id uuid.UUID,
	agg versioned,
	columns map[string]any,
) error {
	next := agg.PersistedVersion() + 1
	if v := agg.GetVersion(); v > next {
		next = v
	}
	columns["version"] = next

	result := db.WithContext(ctx).
		Model(model).
		Where("id = ? AND tenant_id = ? AND version = ?", id, tenantID, agg.PersistedVersion()).
		Updates(columns)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrConcurrencyConflict.WithDetail("id", id.String())
	}
	agg.MarkPersisted()
	return nil
}
