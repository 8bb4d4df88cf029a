package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/partner"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/persistence/models"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormCustomerAccountRepository implements CustomerAccountRepository using GORM
type GormCustomerAccountRepository struct {
	db *gorm.DB
}

// NewGormCustomerAccountRepository creates a new GormCustomerAccountRepository
func NewGormCustomerAccountRepository(db *gorm.DB) *GormCustomerAccountRepository {
	return &GormCustomerAccountRepository{db: db}
}

// FindByCustomer loads the account of a customer
func (r *GormCustomerAccountRepository) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID) (*partner.CustomerAccount, error) {
	var model models.CustomerAccountModel
	err := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Where("customer_id = ?", customerID).
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.NewNotFoundError("customer account", customerID)
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create opens the account. A concurrent open of the same account is a conflict.
func (r *GormCustomerAccountRepository) Create(ctx context.Context, account *partner.CustomerAccount) error {
	if err := r.db.WithContext(ctx).Create(models.CustomerAccountModelFromDomain(account)).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.ErrConcurrencyConflict.WithDetail("customer_id", account.CustomerID.String())
		}
		return err
	}
	account.MarkPersisted()
	return nil
}

// SaveWithLock writes the balances if nobody saved the account since it was loaded
func (r *GormCustomerAccountRepository) SaveWithLock(ctx context.Context, account *partner.CustomerAccount) error {
	return updateVersioned(ctx, r.db, &models.CustomerAccountModel{}, account.TenantID, account.ID, account, map[string]any{
		"debt_balance": account.DebtBalance,
		"credit_limit": account.CreditLimit,
		"updated_at":   account.UpdatedAt,
	})
}

var _ partner.CustomerAccountRepository = (*GormCustomerAccountRepository)(nil)

// GormCustomerTransactionRepository implements CustomerTransactionRepository using GORM
type GormCustomerTransactionRepository struct {
	db *gorm.DB
}

// NewGormCustomerTransactionRepository creates a new GormCustomerTransactionRepository
func NewGormCustomerTransactionRepository(db *gorm.DB) *GormCustomerTransactionRepository {
	return &GormCustomerTransactionRepository{db: db}
}

// Create appends a transaction to the history
func (r *GormCustomerTransactionRepository) Create(ctx context.Context, tx *partner.CustomerLedgerTransaction) error {
	err := r.db.WithContext(ctx).Create(models.CustomerTransactionModelFromDomain(tx)).Error
	if isDuplicateKey(err) {
		return shared.ErrConcurrencyConflict.WithDetail("transaction_id", tx.ID.String())
	}
	return err
}

// FindByID loads one transaction
func (r *GormCustomerTransactionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*partner.CustomerLedgerTransaction, error) {
	var model models.CustomerTransactionModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "customer transaction", id)
	}
	return model.ToDomain(), nil
}

// FindReversalOf returns the transaction that reversed id
func (r *GormCustomerTransactionRepository) FindReversalOf(ctx context.Context, tenantID, id uuid.UUID) (*partner.CustomerLedgerTransaction, error) {
	var model models.CustomerTransactionModel
	err := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Where("reverses_id = ?", id).
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound.WithDetail("reverses_id", id.String())
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindBySource returns the first transaction posted by the given operation
func (r *GormCustomerTransactionRepository) FindBySource(ctx context.Context, tenantID uuid.UUID, sourceType, sourceID string) (*partner.CustomerLedgerTransaction, error) {
	var model models.CustomerTransactionModel
	err := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Where("source_type = ? AND source_id = ?", sourceType, sourceID).
		Order("created_at ASC").
		First(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound.
			WithDetail("source_type", sourceType).
			WithDetail("source_id", sourceID)
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// FindByCustomer lists a customer's history, newest first by default
func (r *GormCustomerTransactionRepository) FindByCustomer(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) ([]partner.CustomerLedgerTransaction, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.CustomerTransactionModel{}).
		Scopes(tenant.TenantScope(tenantID)).
		Where("customer_id = ?", customerID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.CustomerTransactionModel
	if err := query.Scopes(paginate(filter, CustomerTransactionSortFields, "created_at")).Find(&rows).Error; err != nil {
		return nil, 0, err
	}

	txs := make([]partner.CustomerLedgerTransaction, len(rows))
	for i := range rows {
		txs[i] = *rows[i].ToDomain()
	}
	return txs, total, nil
}

var _ partner.CustomerTransactionRepository = (*GormCustomerTransactionRepository)(nil)
