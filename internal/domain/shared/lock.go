package shared

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// Locker serializes work on a key across processes
type Locker interface {
	// Acquire blocks until the lock is held or ctx ends. The returned func releases it.
	// Returns ErrConcurrencyConflict when the lock could not be obtained in time.
	Acquire(ctx context.Context, key string) (release func(context.Context) error, err error)
}

// CustomerAccountLockKey is the lock key guarding one customer's account ledger
func CustomerAccountLockKey(tenantID, customerID uuid.UUID) string {
	return fmt.Sprintf("customer-account:%s:%s", tenantID, customerID)
}
