package uow

import (
	"context"

	"github.com/juliohebert/loja-sub000/internal/domain/cashier"
	"github.com/juliohebert/loja-sub000/internal/domain/finance"
	"github.com/juliohebert/loja-sub000/internal/domain/inventory"
	"github.com/juliohebert/loja-sub000/internal/domain/partner"
	"github.com/juliohebert/loja-sub000/internal/domain/trade"
)

// TransactionScope provides transactional access to every repository of the engine.
// When a function is executed within a transaction scope, all repository operations
// are part of the same database transaction and are committed or rolled back together.
type TransactionScope interface {
	// Execute runs the given function within a database transaction.
	// If the function returns an error, the transaction is rolled back.
	Execute(ctx context.Context, fn func(repos Repositories) error) error

	// Atomic reports whether Execute really rolls back on error.
	// Callers that mutate stock fall back to compensating actions when it does not.
	Atomic() bool

	// Repositories returns repositories bound to no transaction, for plain reads.
	Repositories() Repositories
}

// Repositories provides access to all repositories within a transaction.
// All repositories returned share the same underlying database transaction.
type Repositories interface {
	StockUnits() inventory.StockUnitRepository
	StockMovements() inventory.StockMovementRepository
	LedgerEntries() finance.LedgerEntryRepository
	CustomerAccounts() partner.CustomerAccountRepository
	CustomerTransactions() partner.CustomerTransactionRepository
	CashSessions() cashier.CashSessionRepository
	PurchaseOrders() trade.PurchaseOrderRepository
	Sales() trade.SaleRepository
}

// RepositorySet is a plain Repositories implementation
type RepositorySet struct {
	StockUnitRepo           inventory.StockUnitRepository
	StockMovementRepo       inventory.StockMovementRepository
	LedgerEntryRepo         finance.LedgerEntryRepository
	CustomerAccountRepo     partner.CustomerAccountRepository
	CustomerTransactionRepo partner.CustomerTransactionRepository
	CashSessionRepo         cashier.CashSessionRepository
	PurchaseOrderRepo       trade.PurchaseOrderRepository
	SaleRepo                trade.SaleRepository
}

func (r RepositorySet) StockUnits() inventory.StockUnitRepository { return r.StockUnitRepo }

func (r RepositorySet) StockMovements() inventory.StockMovementRepository {
	return r.StockMovementRepo
}

func (r RepositorySet) LedgerEntries() finance.LedgerEntryRepository { return r.LedgerEntryRepo }

func (r RepositorySet) CustomerAccounts() partner.CustomerAccountRepository {
	return r.CustomerAccountRepo
}

func (r RepositorySet) CustomerTransactions() partner.CustomerTransactionRepository {
	return r.CustomerTransactionRepo
}

func (r RepositorySet) CashSessions() cashier.CashSessionRepository { return r.CashSessionRepo }

func (r RepositorySet) PurchaseOrders() trade.PurchaseOrderRepository { return r.PurchaseOrderRepo }

func (r RepositorySet) Sales() trade.SaleRepository { return r.SaleRepo }

// NoOpTransactionScope is a transaction scope that doesn't actually use transactions.
// Services running on it compensate failed work themselves.
type NoOpTransactionScope struct {
	repos RepositorySet
}

// NewNoOpTransactionScope creates a NoOpTransactionScope with the given repositories.
func NewNoOpTransactionScope(repos RepositorySet) *NoOpTransactionScope {
	return &NoOpTransactionScope{repos: repos}
}

// Execute runs the function without a real transaction.
func (s *NoOpTransactionScope) Execute(_ context.Context, fn func(repos Repositories) error) error {
	return fn(s.repos)
}

// Atomic returns false: nothing is rolled back.
func (s *NoOpTransactionScope) Atomic() bool {
	return false
}

// Repositories returns the wrapped repositories for reads outside Execute.
func (s *NoOpTransactionScope) Repositories() Repositories {
	return s.repos
}

var (
	_ TransactionScope = (*NoOpTransactionScope)(nil)
	_ Repositories     = RepositorySet{}
)
