package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
)

// LedgerEntryFilter narrows ledger listings
type LedgerEntryFilter struct {
	shared.Filter
	Kind           EntryKind
	Status         EntryStatus
	CounterpartyID *uuid.UUID
	SourceType     string
	SourceID       string
	// OverdueAsOf selects pending entries due before that day
	OverdueAsOf *time.Time
}

// LedgerEntryRepository persists ledger entries together with their settlements
type LedgerEntryRepository interface {
	FindByID(ctx context.Context, tenantID, id uuid.UUID) (*LedgerEntry, error)
	FindBySource(ctx context.Context, tenantID uuid.UUID, kind EntryKind, sourceType, sourceID string) (*LedgerEntry, error)
	FindAll(ctx context.Context, tenantID uuid.UUID, filter LedgerEntryFilter) ([]LedgerEntry, int64, error)
	// Save inserts or updates the entry and appends new settlements
	Save(ctx context.Context, entry *LedgerEntry) error
	// SaveWithLock updates the entry only if the stored version is the one it was loaded at
	SaveWithLock(ctx context.Context, entry *LedgerEntry) error
}
