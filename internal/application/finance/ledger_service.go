package finance

import (
	"context"
	"time"

	"github.com/google/uuid"
	partnerapp "github.com/juliohebert/loja-sub000/internal/application/partner"
	"github.com/juliohebert/loja-sub000/internal/application/uow"
	"github.com/juliohebert/loja-sub000/internal/domain/finance"
	"github.com/juliohebert/loja-sub000/internal/domain/partner"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// LedgerService manages payables and receivables
type LedgerService struct {
	scope          uow.TransactionScope
	locker         shared.Locker
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewLedgerService creates a new LedgerService
func NewLedgerService(scope uow.TransactionScope, logger *zap.Logger) *LedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &LedgerService{
		scope:  scope,
		logger: logger,
		now:    time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *LedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetCustomerLocker sets the lock guarding customer accounts. Settling a sale
// receivable pays down the customer's debt under it.
func (s *LedgerService) SetCustomerLocker(locker shared.Locker) {
	s.locker = locker
}

// SetClock overrides the clock used for issue dates and overdue evaluation
func (s *LedgerService) SetClock(now func() time.Time) {
	s.now = now
}

// Create posts a manual entry, split into monthly installments when requested
func (s *LedgerService) Create(ctx context.Context, tenantID uuid.UUID, req CreateLedgerEntryRequest) ([]LedgerEntryResponse, error) {
	kind := finance.EntryKind(req.Kind)
	if !kind.IsValid() {
		return nil, shared.NewValidationError("Invalid ledger entry kind: " + req.Kind)
	}
	count := req.InstallmentCount
	if count < 1 {
		count = 1
	}
	issueDate := s.now()
	if req.IssueDate != nil {
		issueDate = *req.IssueDate
	}
	counterparty, err := counterpartyFrom(req.CounterpartyType, req.CounterpartyID)
	if err != nil {
		return nil, err
	}
	if !req.Amount.IsPositive() {
		return nil, shared.ErrInvalidAmount
	}

	parts, err := finance.SplitInstallments(req.Amount, count)
	if err != nil {
		return nil, err
	}
	entries := make([]*finance.LedgerEntry, 0, count)
	for i, part := range parts {
		entry, err := finance.NewLedgerEntry(tenantID, kind, req.Description, part, issueDate, req.DueDate.AddDate(0, i, 0), counterparty)
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry.WithInstallment(i+1, count))
	}

	err = s.scope.Execute(ctx, func(repos uow.Repositories) error {
		for _, entry := range entries {
			if err := repos.LedgerEntries().Save(ctx, entry); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, entries...)
	now := s.now()
	responses := make([]LedgerEntryResponse, len(entries))
	for i, entry := range entries {
		responses[i] = ToLedgerEntryResponse(entry, now)
	}
	return responses, nil
}

// Get retrieves a ledger entry by ID
func (s *LedgerService) Get(ctx context.Context, tenantID, id uuid.UUID) (*LedgerEntryResponse, error) {
	entry, err := s.scope.Repositories().LedgerEntries().FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToLedgerEntryResponse(entry, s.now())
	return &response, nil
}

// List retrieves entries with filtering and pagination. Overdue is evaluated as of today.
func (s *LedgerService) List(ctx context.Context, tenantID uuid.UUID, filter LedgerEntryListFilter) ([]LedgerEntryResponse, int64, error) {
	if filter.Page <= 0 {
		filter.Page = 1
	}
	if filter.PageSize <= 0 {
		filter.PageSize = 20
	}

	domainFilter := finance.LedgerEntryFilter{
		Filter: shared.Filter{
			Page:     filter.Page,
			PageSize: filter.PageSize,
			OrderBy:  "due_date",
			OrderDir: "asc",
		},
		Kind:           finance.EntryKind(filter.Kind),
		Status:         finance.EntryStatus(filter.Status),
		CounterpartyID: filter.CounterpartyID,
		SourceType:     filter.SourceType,
		SourceID:       filter.SourceID,
	}
	now := s.now()
	if filter.Overdue {
		domainFilter.OverdueAsOf = &now
	}

	entries, total, err := s.scope.Repositories().LedgerEntries().FindAll(ctx, tenantID, domainFilter)
	if err != nil {
		return nil, 0, err
	}
	return ToLedgerEntryResponses(entries, now), total, nil
}

// Settle applies a full or partial payment to an entry
func (s *LedgerService) Settle(ctx context.Context, tenantID, id uuid.UUID, req SettleLedgerEntryRequest) (*LedgerEntryResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "ledger", "settle")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrEntryID, id.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	paidAt := s.now()
	if req.PaidAt != nil {
		paidAt = *req.PaidAt
	}
	settle := func(e *finance.LedgerEntry) error {
		_, err := e.Settle(req.Amount, req.PaymentMethod, paidAt)
		return err
	}

	current, err := s.scope.Repositories().LedgerEntries().FindByID(ctx, tenantID, id)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	var (
		entry   *finance.LedgerEntry
		account *partner.CustomerAccount
	)
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels(telemetry.OperationSettleEntry, ""), func(ctx context.Context) {
		if customerID, ok := saleDebtor(current); ok {
			// The receivable mirrors the customer's debt_add, so the payment lowers the debt too.
			err = partnerapp.WithCustomerLock(ctx, s.locker, s.logger, tenantID, customerID, func() error {
				return s.scope.Execute(ctx, func(repos uow.Repositories) error {
					var err error
					if entry, err = s.apply(ctx, repos, tenantID, id, settle); err != nil {
						return err
					}
					account, err = s.payDownDebt(ctx, repos, entry, customerID, req.Amount.Round(2), paidAt)
					return err
				})
			})
		} else {
			err = s.scope.Execute(ctx, func(repos uow.Repositories) error {
				var err error
				entry, err = s.apply(ctx, repos, tenantID, id, settle)
				return err
			})
		}
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	s.publish(ctx, entry)
	if account != nil {
		s.publishAccount(ctx, account)
	}
	telemetry.SetOK(span)
	response := ToLedgerEntryResponse(entry, s.now())
	return &response, nil
}

// saleDebtor returns the customer of a receivable posted by a sale
func saleDebtor(e *finance.LedgerEntry) (uuid.UUID, bool) {
	if e.Kind != finance.EntryKindReceivable || e.SourceType != finance.SourceSale {
		return uuid.Nil, false
	}
	if e.Counterparty.Type != finance.CounterpartyCustomer || e.Counterparty.ID == nil {
		return uuid.Nil, false
	}
	return *e.Counterparty.ID, true
}

// payDownDebt records the debit_pay matching a receivable payment.
// Debt already cleared by hand is left alone instead of failing the payment.
func (s *LedgerService) payDownDebt(ctx context.Context, repos uow.Repositories, entry *finance.LedgerEntry, customerID uuid.UUID, amount decimal.Decimal, paidAt time.Time) (*partner.CustomerAccount, error) {
	account, _, err := partnerapp.LoadAccount(ctx, repos, entry.TenantID, customerID)
	if err != nil {
		return nil, err
	}
	if account.DebtBalance.IsZero() {
		s.logger.Info("customer debt already cleared, receivable payment not mirrored",
			zap.String("tenant_id", entry.TenantID.String()),
			zap.String("entry_id", entry.ID.String()),
			zap.String("customer_id", customerID.String()),
		)
		return nil, nil
	}
	account, _, err = partnerapp.ApplyMovement(ctx, repos, entry.TenantID, customerID, partnerapp.Movement{
		Kind:        partner.KindDebitPay,
		Amount:      amount,
		Description: "payment of " + entry.Description,
		Date:        paidAt,
		SourceType:  partner.SourceReceivable,
		SourceID:    entry.ID.String(),
	})
	return account, err
}

// Cancel cancels an entry with nothing settled
func (s *LedgerService) Cancel(ctx context.Context, tenantID, id uuid.UUID, reason string) (*LedgerEntryResponse, error) {
	entry, err := s.mutate(ctx, tenantID, id, func(e *finance.LedgerEntry) error {
		return e.Cancel(reason)
	})
	if err != nil {
		return nil, err
	}
	response := ToLedgerEntryResponse(entry, s.now())
	return &response, nil
}

// WriteOff closes a partially settled entry, abandoning the rest
func (s *LedgerService) WriteOff(ctx context.Context, tenantID, id uuid.UUID, reason string) (*LedgerEntryResponse, error) {
	entry, err := s.mutate(ctx, tenantID, id, func(e *finance.LedgerEntry) error {
		return e.WriteOff(reason)
	})
	if err != nil {
		return nil, err
	}
	s.logger.Info("ledger entry written off",
		zap.String("tenant_id", tenantID.String()),
		zap.String("entry_id", id.String()),
		zap.String("written_off", entry.WrittenOffAmount.StringFixed(2)),
	)
	response := ToLedgerEntryResponse(entry, s.now())
	return &response, nil
}

func (s *LedgerService) mutate(ctx context.Context, tenantID, id uuid.UUID, fn func(e *finance.LedgerEntry) error) (*finance.LedgerEntry, error) {
	var entry *finance.LedgerEntry
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		entry, err = s.apply(ctx, repos, tenantID, id, fn)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.publish(ctx, entry)
	return entry, nil
}

func (s *LedgerService) apply(ctx context.Context, repos uow.Repositories, tenantID, id uuid.UUID, fn func(e *finance.LedgerEntry) error) (*finance.LedgerEntry, error) {
	entry, err := repos.LedgerEntries().FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if err := fn(entry); err != nil {
		return nil, err
	}
	if err := repos.LedgerEntries().SaveWithLock(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *LedgerService) publish(ctx context.Context, entries ...*finance.LedgerEntry) {
	if s.eventPublisher == nil {
		return
	}
	var events []shared.DomainEvent
	for _, e := range entries {
		events = append(events, shared.CollectEvents(e)...)
	}
	if len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish ledger events", zap.Error(err))
	}
}

func (s *LedgerService) publishAccount(ctx context.Context, account *partner.CustomerAccount) {
	if s.eventPublisher == nil {
		return
	}
	events := shared.CollectEvents(account)
	if len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish customer account events", zap.Error(err))
	}
}

func counterpartyFrom(kind string, id *uuid.UUID) (finance.CounterpartyRef, error) {
	switch finance.CounterpartyType(kind) {
	case "", finance.CounterpartyNone:
		return finance.CounterpartyRef{Type: finance.CounterpartyNone}, nil
	case finance.CounterpartyCustomer:
		if id == nil {
			return finance.CounterpartyRef{}, shared.NewValidationError("counterparty_id is required for customer entries")
		}
		return finance.Customer(id), nil
	case finance.CounterpartySupplier:
		if id == nil {
			return finance.CounterpartyRef{}, shared.NewValidationError("counterparty_id is required for supplier entries")
		}
		return finance.Supplier(*id), nil
	}
	return finance.CounterpartyRef{}, shared.NewValidationError("Invalid counterparty type: " + kind)
}
