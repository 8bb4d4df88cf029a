package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/finance"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/persistence/models"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/persistence/tenant"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormLedgerEntryRepository implements LedgerEntryRepository using GORM
type GormLedgerEntryRepository struct {
	db *gorm.DB
}

// NewGormLedgerEntryRepository creates a new GormLedgerEntryRepository
func NewGormLedgerEntryRepository(db *gorm.DB) *GormLedgerEntryRepository {
	return &GormLedgerEntryRepository{db: db}
}

func (r *GormLedgerEntryRepository) withSettlements(ctx context.Context, tenantID uuid.UUID) *gorm.DB {
	return r.db.WithContext(ctx).
		Scopes(tenant.TenantScope(tenantID)).
		Preload("Settlements", func(db *gorm.DB) *gorm.DB {
			return db.Order("paid_at ASC, created_at ASC")
		})
}

// FindByID loads an entry with its settlements
func (r *GormLedgerEntryRepository) FindByID(ctx context.Context, tenantID, id uuid.UUID) (*finance.LedgerEntry, error) {
	var model models.LedgerEntryModel
	if err := r.withSettlements(ctx, tenantID).First(&model, "id = ?", id).Error; err != nil {
		return nil, notFound(err, "ledger entry", id)
	}
	return model.ToDomain(), nil
}

// FindBySource returns the oldest entry of kind posted by the given operation
func (r *GormLedgerEntryRepository) FindBySource(ctx context.Context, tenantID uuid.UUID, kind finance.EntryKind, sourceType, sourceID string) (*finance.LedgerEntry, error) {
	var model models.LedgerEntryModel
	err := r.withSettlements(ctx, tenantID).
		Where("kind = ? AND source_type = ? AND source_id = ?", string(kind), sourceType, sourceID).
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

// FindAll lists entries matching the filter
func (r *GormLedgerEntryRepository) FindAll(ctx context.Context, tenantID uuid.UUID, filter finance.LedgerEntryFilter) ([]finance.LedgerEntry, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&models.LedgerEntryModel{}).
		Scopes(tenant.TenantScope(tenantID), ledgerFilter(filter))

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.LedgerEntryModel
	err := query.
		Preload("Settlements", func(db *gorm.DB) *gorm.DB { return db.Order("paid_at ASC") }).
		Scopes(paginate(filter.Filter, LedgerEntrySortFields, "due_date")).
		Find(&rows).Error
	if err != nil {
		return nil, 0, err
	}

	entries := make([]finance.LedgerEntry, len(rows))
	for i := range rows {
		entries[i] = *rows[i].ToDomain()
	}
	return entries, total, nil
}

func ledgerFilter(f finance.LedgerEntryFilter) func(*gorm.DB) *gorm.DB {
	return func(db *gorm.DB) *gorm.DB {
		if f.Kind != "" {
			db = db.Where("kind = ?", string(f.Kind))
		}
		if f.Status != "" {
			db = db.Where("status = ?", string(f.Status))
		}
		if f.CounterpartyID != nil {
			db = db.Where("counterparty_id = ?", *f.CounterpartyID)
		}
		if f.SourceType != "" {
			db = db.Where("source_type = ?", f.SourceType)
		}
		if f.SourceID != "" {
			db = db.Where("source_id = ?", f.SourceID)
		}
		if f.OverdueAsOf != nil {
			y, m, d := f.OverdueAsOf.Date()
			startOfDay := time.Date(y, m, d, 0, 0, 0, 0, f.OverdueAsOf.Location())
			db = db.Where("status = ? AND due_date < ?", string(finance.EntryStatusPending), startOfDay)
		}
		return db
	}
}

// Save inserts a new entry or updates a loaded one, then appends settlements
// that are not stored yet.
func (r *GormLedgerEntryRepository) Save(ctx context.Context, entry *finance.LedgerEntry) error {
	if entry.PersistedVersion() == 0 {
		model := models.LedgerEntryModelFromDomain(entry)
		if err := r.db.WithContext(ctx).Omit(clause.Associations).Create(model).Error; err != nil {
			if isDuplicateKey(err) {
				return shared.ErrConcurrencyConflict.WithDetail("entry_id", entry.ID.String())
			}
			return err
		}
		if err := r.appendSettlements(ctx, entry); err != nil {
			return err
		}
		entry.MarkPersisted()
		return nil
	}
	return r.SaveWithLock(ctx, entry)
}

// SaveWithLock updates the entry if nobody saved it since it was loaded
func (r *GormLedgerEntryRepository) SaveWithLock(ctx context.Context, entry *finance.LedgerEntry) error {
	err := updateVersioned(ctx, r.db, &models.LedgerEntryModel{}, entry.TenantID, entry.ID, entry, map[string]any{
		"description":        entry.Description,
		"amount_settled":     entry.AmountSettled,
		"due_date":           entry.DueDate,
		"status":             string(entry.Status),
		"settled_at":         entry.SettledAt,
		"cancelled_at":       entry.CancelledAt,
		"cancel_reason":      entry.CancelReason,
		"written_off_amount": entry.WrittenOffAmount,
		"updated_at":         entry.UpdatedAt,
	})
	if err != nil {
		return err
	}
	return r.appendSettlements(ctx, entry)
}

func (r *GormLedgerEntryRepository) appendSettlements(ctx context.Context, entry *finance.LedgerEntry) error {
	if len(entry.Settlements) == 0 {
		return nil
	}
	rows := make([]models.LedgerSettlementModel, len(entry.Settlements))
	for i, s := range entry.Settlements {
		rows[i] = models.LedgerSettlementModelFromDomain(s)
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{Columns: []clause.Column{{Name: "id"}}, DoNothing: true}).
		Create(&rows).Error
}

var _ finance.LedgerEntryRepository = (*GormLedgerEntryRepository)(nil)
