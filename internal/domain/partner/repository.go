package partner

import (
	"context"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
)

// CustomerAccountRepository persists customer accounts
type CustomerAccountRepository interface {
	// FindByCustomer returns shared.ErrNotFound when the customer has no account yet
	FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (*CustomerAccount, error)
	Create(ctx context.Context, account *CustomerAccount) error
	// SaveWithLock updates the account only if the stored version precedes the in-memory one.
	// Returns shared.ErrConcurrencyConflict otherwise.
	SaveWithLock(ctx context.Context, account *CustomerAccount) error
}

// CustomerTransactionRepository is the append-only transaction history
type CustomerTransactionRepository interface {
	Create(ctx context.Context, tx *CustomerLedgerTransaction) error
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*CustomerLedgerTransaction, error)
	// FindReversalOf returns shared.ErrNotFound when the transaction was never reversed
	FindReversalOf(ctx context.Context, tenantID, id uuid.UUID) (*CustomerLedgerTransaction, error)
	FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType, sourceID string) (*CustomerLedgerTransaction, error)
	FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) ([]CustomerLedgerTransaction, int64, error)
}

// CustomerDirectory answers existence checks against the customer registry
type CustomerDirectory interface {
	CustomerExists(ctx context.Context, tenantID, customerID uuid.UUID) (bool, error)
}

// SupplierDirectory answers existence checks against the supplier registry
type SupplierDirectory interface {
	SupplierExists(ctx context.Context, tenantID, supplierID uuid.UUID) (bool, error)
}
