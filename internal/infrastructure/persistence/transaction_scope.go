package persistence

import (
	"context"

	"github.com/juliohebert/loja-sub000/internal/application/uow"
	"gorm.io/gorm"
)

// GormTransactionScope implements uow.TransactionScope using GORM transactions.
// Every repository handed to the callback shares the same transaction.
type GormTransactionScope struct {
	db *gorm.DB
}

// NewGormTransactionScope creates a new GormTransactionScope.
func NewGormTransactionScope(db *gorm.DB) *GormTransactionScope {
	return &GormTransactionScope{db: db}
}

// Execute runs fn within a database transaction, rolling back when it returns an error.
func (s *GormTransactionScope) Execute(ctx context.Context, fn func(repos uow.Repositories) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(NewRepositories(tx))
	})
}

// Atomic returns true: a failed Execute leaves no partial writes.
func (s *GormTransactionScope) Atomic() bool {
	return true
}

// Repositories returns repositories bound to the plain connection.
func (s *GormTransactionScope) Repositories() uow.Repositories {
	return NewRepositories(s.db)
}

// NewRepositories binds every engine repository to db.
func NewRepositories(db *gorm.DB) uow.RepositorySet {
	return uow.RepositorySet{
		StockUnitRepo:           NewGormStockUnitRepository(db),
		StockMovementRepo:       NewGormStockMovementRepository(db),
		LedgerEntryRepo:         NewGormLedgerEntryRepository(db),
		CustomerAccountRepo:     NewGormCustomerAccountRepository(db),
		CustomerTransactionRepo: NewGormCustomerTransactionRepository(db),
		CashSessionRepo:         NewGormCashSessionRepository(db),
		PurchaseOrderRepo:       NewGormPurchaseOrderRepository(db),
		SaleRepo:                NewGormSaleRepository(db),
	}
}

var _ uow.TransactionScope = (*GormTransactionScope)(nil)
