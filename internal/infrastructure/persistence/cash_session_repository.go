package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/cashier"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/persistence/models"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
)

// GormCashSessionRepository implements CashSessionRepository using GORM
type GormCashSessionRepository struct {
	db *gorm.DB
}

// NewGormCashSessionRepository creates a new GormCashSessionRepository
func NewGormCashSessionRepository(db *gorm.DB) *GormCashSessionRepository {
	return &GormCashSessionRepository{db: db}
}

// FindByID loads a session
func (r *GormCashSessionRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*cashier.CashSession, error) {
	var model models.CashSessionModel
	if err := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "cash session", id)
	}
	return model.ToDomain(), nil
}

// FindOpen returns the tenant's open session
func (r *GormCashSessionRepository) FindOpen(ctx context.Context, tenantID uuid.UUID) (*cashier.CashSession, error) {
	var model models.CashSessionModel
	err := r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Where("status = ?", string(cashier.SessionStatusOpen)).
		Take(&model).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, shared.ErrNotFound.WithDetail("resource", "open cash session")
	}
	if err != nil {
		return nil, err
	}
	return model.ToDomain(), nil
}

// Create stores a new open session. The partial unique index on
// (tenant_id) WHERE status = 'open' rejects a second one even under races.
func (r *GormCashSessionRepository) Create(ctx context.Context, session *cashier.CashSession) error {
	if err := r.db.WithContext(ctx).Create(models.CashSessionModelFromDomain(session)).Error; err != nil {
		if isDuplicateKey(err) {
			return shared.ErrSessionAlreadyOpen.WithDetail("tenant_id", session.TenantID.String())
		}
		return err
	}
	session.MarkPersisted()
	return nil
}

// SaveWithLock writes the closing fields if nobody saved the session since it was loaded
func (r *GormCashSessionRepository) SaveWithLock(ctx context.Context, session *cashier.CashSession) error {
	return updateVersioned(ctx, r.db, &models.CashSessionModel{}, session.TenantID, session.ID, session, map[string]any{
		"status":         string(session.Status),
		"closed_by":      session.ClosedBy,
		"closed_at":      session.ClosedAt,
		"closing_amount": session.ClosingAmount,
		"updated_at":     session.UpdatedAt,
	})
}

var _ cashier.CashSessionRepository = (*GormCashSessionRepository)(nil)
