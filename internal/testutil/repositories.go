package testutil

import (
	"context"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/application/uow"
	"github.com/juliohebert/loja-sub000/internal/domain/cashier"
	"github.com/juliohebert/loja-sub000/internal/domain/finance"
	"github.com/juliohebert/loja-sub000/internal/domain/inventory"
	"github.com/juliohebert/loja-sub000/internal/domain/partner"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/juliohebert/loja-sub000/internal/domain/trade"
	"github.com/stretchr/testify/mock"
)

// MockStockUnitRepository is a mock implementation of inventory.StockUnitRepository
type MockStockUnitRepository struct {
	mock.Mock
}

func (m *MockStockUnitRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*inventory.StockUnit, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockUnit), args.Error(1)
}

func (m *MockStockUnitRepository) Create(ctx context.Context, unit *inventory.StockUnit) error {
	args := m.Called(ctx, unit)
	return args.Error(0)
}

func (m *MockStockUnitRepository) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	args := m.Called(ctx, tenantID, id)
	return args.Error(0)
}

func (m *MockStockUnitRepository) Debit(ctx context.Context, tenantID, id uuid.UUID, qty int) (int, error) {
	args := m.Called(ctx, tenantID, id, qty)
	return args.Int(0), args.Error(1)
}

func (m *MockStockUnitRepository) Credit(ctx context.Context, tenantID, id uuid.UUID, qty int) (int, error) {
	args := m.Called(ctx, tenantID, id, qty)
	return args.Int(0), args.Error(1)
}

// MockStockMovementRepository is a mock implementation of inventory.StockMovementRepository
type MockStockMovementRepository struct {
	mock.Mock
}

func (m *MockStockMovementRepository) Create(ctx context.Context, movement *inventory.StockMovement) error {
	args := m.Called(ctx, movement)
	return args.Error(0)
}

func (m *MockStockMovementRepository) FindByToken(ctx context.Context, tenantID uuid.UUID, token string) (*inventory.StockMovement, error) {
	args := m.Called(ctx, tenantID, token)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockMovement), args.Error(1)
}

func (m *MockStockMovementRepository) FindByStockUnit(ctx context.Context, tenantID, stockUnitID uuid.UUID, filter shared.Filter) ([]inventory.StockMovement, int64, error) {
	args := m.Called(ctx, tenantID, stockUnitID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]inventory.StockMovement), args.Get(1).(int64), args.Error(2)
}

// MockLedgerEntryRepository is a mock implementation of finance.LedgerEntryRepository
type MockLedgerEntryRepository struct {
	mock.Mock
}

func (m *MockLedgerEntryRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.LedgerEntry, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.LedgerEntry), args.Error(1)
}

func (m *MockLedgerEntryRepository) FindBySource(ctx context.Context, tenantID uuid.UUID, kind finance.EntryKind, sourceType, sourceID string) (*finance.LedgerEntry, error) {
	args := m.Called(ctx, tenantID, kind, sourceType, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.LedgerEntry), args.Error(1)
}

func (m *MockLedgerEntryRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter finance.LedgerEntryFilter) ([]finance.LedgerEntry, int64, error) {
	args := m.Called(ctx, tenantID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]finance.LedgerEntry), args.Get(1).(int64), args.Error(2)
}

func (m *MockLedgerEntryRepository) Save(ctx context.Context, entry *finance.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

func (m *MockLedgerEntryRepository) SaveWithLock(ctx context.Context, entry *finance.LedgerEntry) error {
	args := m.Called(ctx, entry)
	return args.Error(0)
}

// MockCustomerAccountRepository is a mock implementation of partner.CustomerAccountRepository
type MockCustomerAccountRepository struct {
	mock.Mock
}

func (m *MockCustomerAccountRepository) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (*partner.CustomerAccount, error) {
	args := m.Called(ctx, tenantID, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.CustomerAccount), args.Error(1)
}

func (m *MockCustomerAccountRepository) Create(ctx context.Context, account *partner.CustomerAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

func (m *MockCustomerAccountRepository) SaveWithLock(ctx context.Context, account *partner.CustomerAccount) error {
	args := m.Called(ctx, account)
	return args.Error(0)
}

// MockCustomerTransactionRepository is a mock implementation of partner.CustomerTransactionRepository
type MockCustomerTransactionRepository struct {
	mock.Mock
}

func (m *MockCustomerTransactionRepository) Create(ctx context.Context, tx *partner.CustomerLedgerTransaction) error {
	args := m.Called(ctx, tx)
	return args.Error(0)
}

func (m *MockCustomerTransactionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*partner.CustomerLedgerTransaction, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.CustomerLedgerTransaction), args.Error(1)
}

func (m *MockCustomerTransactionRepository) FindReversalOf(ctx context.Context, tenantID, id uuid.UUID) (*partner.CustomerLedgerTransaction, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.CustomerLedgerTransaction), args.Error(1)
}

func (m *MockCustomerTransactionRepository) FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType, sourceID string) (*partner.CustomerLedgerTransaction, error) {
	args := m.Called(ctx, tenantID, sourceType, sourceID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*partner.CustomerLedgerTransaction), args.Error(1)
}

func (m *MockCustomerTransactionRepository) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) ([]partner.CustomerLedgerTransaction, int64, error) {
	args := m.Called(ctx, tenantID, customerID, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]partner.CustomerLedgerTransaction), args.Get(1).(int64), args.Error(2)
}

// MockCashSessionRepository is a mock implementation of cashier.CashSessionRepository
type MockCashSessionRepository struct {
	mock.Mock
}

func (m *MockCashSessionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*cashier.CashSession, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cashier.CashSession), args.Error(1)
}

func (m *MockCashSessionRepository) FindOpen(ctx context.Context, tenantID uuid.UUID) (*cashier.CashSession, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cashier.CashSession), args.Error(1)
}

func (m *MockCashSessionRepository) Create(ctx context.Context, session *cashier.CashSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *MockCashSessionRepository) SaveWithLock(ctx context.Context, session *cashier.CashSession) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

// MockPurchaseOrderRepository is a mock implementation of trade.PurchaseOrderRepository
type MockPurchaseOrderRepository struct {
	mock.Mock
}

func (m *MockPurchaseOrderRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*trade.PurchaseOrder, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.PurchaseOrder), args.Error(1)
}

func (m *MockPurchaseOrderRepository) Create(ctx context.Context, order *trade.PurchaseOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockPurchaseOrderRepository) SaveWithLock(ctx context.Context, order *trade.PurchaseOrder) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *MockPurchaseOrderRepository) ExistsOpenWithStockUnit(ctx context.Context, tenantID, stockUnitID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, stockUnitID)
	return args.Bool(0), args.Error(1)
}

// MockSaleRepository is a mock implementation of trade.SaleRepository
type MockSaleRepository struct {
	mock.Mock
}

func (m *MockSaleRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*trade.Sale, error) {
	args := m.Called(ctx, tenantID, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Sale), args.Error(1)
}

func (m *MockSaleRepository) FindByIdempotencyKey(ctx context.Context, tenantID uuid.UUID, key string) (*trade.Sale, error) {
	args := m.Called(ctx, tenantID, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*trade.Sale), args.Error(1)
}

func (m *MockSaleRepository) Create(ctx context.Context, sale *trade.Sale) error {
	args := m.Called(ctx, sale)
	return args.Error(0)
}

func (m *MockSaleRepository) SaveWithLock(ctx context.Context, sale *trade.Sale) error {
	args := m.Called(ctx, sale)
	return args.Error(0)
}

// MockRepositories bundles one mock per repository
type MockRepositories struct {
	StockUnits           *MockStockUnitRepository
	StockMovements       *MockStockMovementRepository
	LedgerEntries        *MockLedgerEntryRepository
	CustomerAccounts     *MockCustomerAccountRepository
	CustomerTransactions *MockCustomerTransactionRepository
	CashSessions         *MockCashSessionRepository
	PurchaseOrders       *MockPurchaseOrderRepository
	Sales                *MockSaleRepository
}

// NewMockRepositories creates a fresh set of repository mocks
func NewMockRepositories() *MockRepositories {
	return &MockRepositories{
		StockUnits:           new(MockStockUnitRepository),
		StockMovements:       new(MockStockMovementRepository),
		LedgerEntries:        new(MockLedgerEntryRepository),
		CustomerAccounts:     new(MockCustomerAccountRepository),
		CustomerTransactions: new(MockCustomerTransactionRepository),
		CashSessions:         new(MockCashSessionRepository),
		PurchaseOrders:       new(MockPurchaseOrderRepository),
		Sales:                new(MockSaleRepository),
	}
}

// Set returns the mocks as a uow.RepositorySet
func (m *MockRepositories) Set() uow.RepositorySet {
	return uow.RepositorySet{
		StockUnitRepo:           m.StockUnits,
		StockMovementRepo:       m.StockMovements,
		LedgerEntryRepo:         m.LedgerEntries,
		CustomerAccountRepo:     m.CustomerAccounts,
		CustomerTransactionRepo: m.CustomerTransactions,
		CashSessionRepo:         m.CashSessions,
		PurchaseOrderRepo:       m.PurchaseOrders,
		SaleRepo:                m.Sales,
	}
}

// Scope returns a non-atomic transaction scope over the mocks
func (m *MockRepositories) Scope() *uow.NoOpTransactionScope {
	return uow.NewNoOpTransactionScope(m.Set())
}

// AssertExpectations asserts every mock's expectations
func (m *MockRepositories) AssertExpectations(t mock.TestingT) {
	m.StockUnits.AssertExpectations(t)
	m.StockMovements.AssertExpectations(t)
	m.LedgerEntries.AssertExpectations(t)
	m.CustomerAccounts.AssertExpectations(t)
	m.CustomerTransactions.AssertExpectations(t)
	m.CashSessions.AssertExpectations(t)
	m.PurchaseOrders.AssertExpectations(t)
	m.Sales.AssertExpectations(t)
}

// MockCustomerDirectory is a mock implementation of partner.CustomerDirectory
type MockCustomerDirectory struct {
	mock.Mock
}

func (m *MockCustomerDirectory) CustomerExists(ctx context.Context, tenantID, customerID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, customerID)
	return args.Bool(0), args.Error(1)
}

// MockSupplierDirectory is a mock implementation of partner.SupplierDirectory
type MockSupplierDirectory struct {
	mock.Mock
}

func (m *MockSupplierDirectory) SupplierExists(ctx context.Context, tenantID, supplierID uuid.UUID) (bool, error) {
	args := m.Called(ctx, tenantID, supplierID)
	return args.Bool(0), args.Error(1)
}
