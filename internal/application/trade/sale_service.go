package trade

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	inventoryapp "github.com/juliohebert/loja-sub000/internal/application/inventory"
	partnerapp "github.com/juliohebert/loja-sub000/internal/application/partner"
	"github.com/juliohebert/loja-sub000/internal/application/uow"
	"github.com/juliohebert/loja-sub000/internal/domain/finance"
	"github.com/juliohebert/loja-sub000/internal/domain/inventory"
	"github.com/juliohebert/loja-sub000/internal/domain/partner"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/juliohebert/loja-sub000/internal/domain/trade"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const abortReason = "finalization failed"

// CashSessionGate decides whether a sale may go through and which session it belongs to
type CashSessionGate interface {
	// RequireOpenSession returns the open session id, nil when none is needed,
	// or shared.ErrNoOpenSession.
	RequireOpenSession(ctx context.Context, tenantID uuid.UUID) (*uuid.UUID, error)
}

// SaleMetrics records sale outcomes
type SaleMetrics interface {
	RecordSaleFinalized(ctx context.Context, tenantID uuid.UUID, paymentMethod string, total decimal.Decimal)
	RecordSaleCancelled(ctx context.Context, tenantID uuid.UUID)
	RecordCompensation(ctx context.Context, tenantID uuid.UUID, succeeded bool)
}

type noopSaleMetrics struct{}

func (noopSaleMetrics) RecordSaleFinalized(context.Context, uuid.UUID, string, decimal.Decimal) {}
func (noopSaleMetrics) RecordSaleCancelled(context.Context, uuid.UUID)                          {}
func (noopSaleMetrics) RecordCompensation(context.Context, uuid.UUID, bool)                     {}

// SaleService finalizes and cancels sales.
// Finalization debits stock, records the sale, posts the receivable and, for
// credit sales, the customer debit. Either all of it is applied or none of it.
type SaleService struct {
	scope          uow.TransactionScope
	gate           CashSessionGate
	locker         shared.Locker
	customers      partner.CustomerDirectory
	eventPublisher shared.EventPublisher
	metrics        SaleMetrics
	logger         *zap.Logger
	now            func() time.Time
}

// NewSaleService creates a new SaleService. gate and locker may be nil.
func NewSaleService(scope uow.TransactionScope, gate CashSessionGate, locker shared.Locker, logger *zap.Logger) *SaleService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SaleService{
		scope:   scope,
		gate:    gate,
		locker:  locker,
		metrics: noopSaleMetrics{},
		logger:  logger,
		now:     time.Now,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *SaleService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetCustomerDirectory enables customer existence checks during pre-validation
func (s *SaleService) SetCustomerDirectory(customers partner.CustomerDirectory) {
	s.customers = customers
}

// SetMetrics sets the recorder for sale outcomes
func (s *SaleService) SetMetrics(metrics SaleMetrics) {
	if metrics == nil {
		metrics = noopSaleMetrics{}
	}
	s.metrics = metrics
}

// finalization tracks the side effects applied so far, so a failure on a
// non-transactional scope can undo exactly those.
type finalization struct {
	sale        *trade.Sale
	debits      []*inventory.StockMovement
	saleCreated bool
	receivable  *finance.LedgerEntry
	account     *partner.CustomerAccount
	customerTx  *partner.CustomerLedgerTransaction
}

// Finalize runs the checkout saga.
// Validation, the cash session gate and the credit check run before any mutation.
func (s *SaleService) Finalize(ctx context.Context, tenantID uuid.UUID, req FinalizeSaleRequest) (*SaleResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "finalize")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrItemCount, len(req.Items),
	)

	checkout := req.checkout()
	if key := strings.TrimSpace(checkout.IdempotencyKey); key != "" {
		replayed, err := s.replay(ctx, tenantID, key)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if replayed != nil {
			telemetry.SetOK(span)
			return replayed, nil
		}
	}

	sale, err := trade.NewSale(tenantID, checkout)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	telemetry.SetAttributes(span, telemetry.SpanAttrSaleID, sale.ID.String())

	if err := s.ensureCustomer(ctx, sale); err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if s.gate != nil {
		sessionID, err := s.gate.RequireOpenSession(ctx, tenantID)
		if err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
		if sessionID != nil {
			sale.AttachCashSession(*sessionID)
		}
	}

	if sale.PaymentMethod.IsCredit() {
		if err := s.checkCredit(ctx, s.scope.Repositories(), sale); err != nil {
			telemetry.RecordError(span, err)
			return nil, err
		}
	}

	f := &finalization{sale: sale}
	run := func(ctx context.Context) error {
		err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
			return s.apply(ctx, repos, f)
		})
		if err != nil && !s.scope.Atomic() {
			telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels(telemetry.OperationCompensateSale, ""), func(ctx context.Context) {
				s.compensate(ctx, f, err)
			})
		}
		return err
	}
	labels := telemetry.OperationLabels(telemetry.OperationFinalizeSale, string(sale.PaymentMethod))
	telemetry.WithProfilingLabels(ctx, labels, func(ctx context.Context) {
		if sale.PaymentMethod.IsCredit() {
			err = partnerapp.WithCustomerLock(ctx, s.locker, s.logger, tenantID, *sale.CustomerID, func() error { return run(ctx) })
		} else {
			err = run(ctx)
		}
	})
	if err != nil {
		discardEvents(f)
		if sale.IdempotencyKey != "" && errors.Is(err, shared.ErrConcurrencyConflict) {
			// Lost the race against a concurrent request with the same key
			if replayed, rerr := s.replay(ctx, tenantID, sale.IdempotencyKey); rerr == nil && replayed != nil {
				telemetry.SetOK(span)
				return replayed, nil
			}
		}
		s.logger.Info("sale finalization rejected",
			zap.String("tenant_id", tenantID.String()),
			zap.String("sale_id", sale.ID.String()),
			zap.Error(err),
		)
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("sale finalized",
		zap.String("tenant_id", tenantID.String()),
		zap.String("sale_id", sale.ID.String()),
		zap.String("payment_method", string(sale.PaymentMethod)),
		zap.String("total", sale.Total.StringFixed(2)),
	)
	s.publish(ctx, f.events())
	s.metrics.RecordSaleFinalized(ctx, tenantID, string(sale.PaymentMethod), sale.Total)
	telemetry.SetOK(span)

	response := ToSaleResponse(sale)
	return &response, nil
}

// apply performs the mutating steps: stock debits, sale record, receivable and customer debit
func (s *SaleService) apply(ctx context.Context, repos uow.Repositories, f *finalization) error {
	sale := f.sale
	tenantID := sale.TenantID

	for i, item := range sale.Items {
		movement, _, err := inventoryapp.DebitStock(ctx, repos, tenantID, inventory.StockOperation{
			StockUnitID: item.StockUnitID,
			Quantity:    item.Quantity,
			SourceType:  inventory.SourceSale,
			SourceID:    sale.ID.String(),
			Token:       sale.StockToken(i),
		})
		if err != nil {
			return err
		}
		f.debits = append(f.debits, movement)
	}

	// Re-read the account inside the customer lock; the earlier check ran unguarded.
	if sale.PaymentMethod.IsCredit() {
		if err := s.checkCredit(ctx, repos, sale); err != nil {
			return err
		}
	}

	if err := repos.Sales().Create(ctx, sale); err != nil {
		return err
	}
	f.saleCreated = true

	now := s.now()
	if sale.Total.IsPositive() {
		entry, err := finance.NewLedgerEntry(tenantID, finance.EntryKindReceivable, sale.Description(), sale.Total, now, now, finance.Customer(sale.CustomerID))
		if err != nil {
			return err
		}
		entry.WithSource(finance.SourceSale, sale.ID.String())
		if !sale.PaymentMethod.IsCredit() {
			if _, err := entry.SettleInFull(string(sale.PaymentMethod), now); err != nil {
				return err
			}
		}
		if err := repos.LedgerEntries().Save(ctx, entry); err != nil {
			return err
		}
		f.receivable = entry
		sale.LinkReceivable(entry.ID)

		if sale.PaymentMethod.IsCredit() {
			account, tx, err := partnerapp.ApplyMovement(ctx, repos, tenantID, *sale.CustomerID, partnerapp.Movement{
				Kind:        partner.KindDebitAdd,
				Amount:      sale.Total,
				Description: sale.Description(),
				Date:        now,
				SourceType:  partner.SourceSale,
				SourceID:    sale.ID.String(),
			})
			if err != nil {
				return err
			}
			f.account = account
			f.customerTx = tx
			sale.LinkCustomerTransaction(tx.ID)
		}
	}

	sale.MarkFinalized()
	return repos.Sales().SaveWithLock(ctx, sale)
}

func (s *SaleService) ensureCustomer(ctx context.Context, sale *trade.Sale) error {
	if s.customers == nil || sale.CustomerID == nil {
		return nil
	}
	exists, err := s.customers.CustomerExists(ctx, sale.TenantID, *sale.CustomerID)
	if err != nil {
		return err
	}
	if !exists {
		return shared.NewNotFoundError("customer", *sale.CustomerID)
	}
	return nil
}

func (s *SaleService) checkCredit(ctx context.Context, repos uow.Repositories, sale *trade.Sale) error {
	account, _, err := partnerapp.LoadAccount(ctx, repos, sale.TenantID, *sale.CustomerID)
	if err != nil {
		return err
	}
	if !account.HasCreditFor(sale.Total) {
		return shared.ErrCreditLimitExceeded.
			WithDetail("customer_id", sale.CustomerID.String()).
			WithDetail("available", account.AvailableCredit().StringFixed(2)).
			WithDetail("requested", sale.Total.StringFixed(2))
	}
	return nil
}

// compensate undoes the applied steps in reverse order. It runs detached from
// the caller's cancellation: a timed out request still gets its stock back.
func (s *SaleService) compensate(ctx context.Context, f *finalization, cause error) {
	ctx = context.WithoutCancel(ctx)
	repos := s.scope.Repositories()
	sale := f.sale
	var failures []error

	if f.customerTx != nil {
		if _, _, err := partnerapp.ReverseMovement(ctx, repos, sale.TenantID, f.customerTx, partner.SourceSaleCancel, sale.ID.String(), s.now()); err != nil {
			failures = append(failures, fmt.Errorf("reverse customer debit: %w", err))
		}
	}
	if f.receivable != nil {
		if _, err := s.voidReceivable(ctx, repos, sale, f.receivable, abortReason); err != nil {
			failures = append(failures, fmt.Errorf("void receivable: %w", err))
		}
	}
	if f.saleCreated {
		if err := sale.Abort(abortReason); err == nil {
			if err := repos.Sales().SaveWithLock(ctx, sale); err != nil {
				failures = append(failures, fmt.Errorf("abort sale record: %w", err))
			}
		}
	}
	if err := inventoryapp.Compensate(ctx, repos, sale.TenantID, f.debits); err != nil {
		failures = append(failures, fmt.Errorf("credit back stock: %w", err))
	}

	s.metrics.RecordCompensation(ctx, sale.TenantID, len(failures) == 0)
	if len(failures) > 0 {
		stockUnits := make([]string, len(f.debits))
		for i, d := range f.debits {
			stockUnits[i] = fmt.Sprintf("%s:%d", d.StockUnitID, d.Quantity)
		}
		s.logger.Error("compensation failed, manual reconciliation required",
			zap.String("tenant_id", sale.TenantID.String()),
			zap.String("sale_id", sale.ID.String()),
			zap.Strings("debited_stock_units", stockUnits),
			zap.NamedError("cause", cause),
			zap.Error(errors.Join(failures...)),
		)
		return
	}
	s.logger.Warn("sale finalization compensated",
		zap.String("tenant_id", sale.TenantID.String()),
		zap.String("sale_id", sale.ID.String()),
		zap.Int("debits_reverted", len(f.debits)),
		zap.NamedError("cause", cause),
	)
}

// Cancel restocks the sale, voids its receivable and reverses the customer debit.
// Every step is idempotent, so a cancel interrupted part way can be retried.
func (s *SaleService) Cancel(ctx context.Context, tenantID, saleID uuid.UUID, req CancelSaleRequest) (*SaleResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "sale", "cancel")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrSaleID, saleID.String(),
	)

	sale, err := s.scope.Repositories().Sales().FindByID(ctx, tenantID, saleID)
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}
	if sale.IsCancelled() {
		err := shared.ErrSaleAlreadyCancelled.WithDetail("sale_id", saleID.String())
		telemetry.RecordError(span, err)
		return nil, err
	}

	var events []shared.DomainEvent
	telemetry.WithProfilingLabels(ctx, telemetry.OperationLabels(telemetry.OperationCancelSale, string(sale.PaymentMethod)), func(ctx context.Context) {
		run := func() error {
			return s.scope.Execute(ctx, func(repos uow.Repositories) error {
				var err error
				sale, events, err = s.cancel(ctx, repos, tenantID, saleID, req.Reason)
				return err
			})
		}
		if sale.CustomerTransactionID != nil && sale.CustomerID != nil {
			err = partnerapp.WithCustomerLock(ctx, s.locker, s.logger, tenantID, *sale.CustomerID, run)
		} else {
			err = run()
		}
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("sale cancelled",
		zap.String("tenant_id", tenantID.String()),
		zap.String("sale_id", saleID.String()),
		zap.String("reason", req.Reason),
	)
	s.publish(ctx, events)
	s.metrics.RecordSaleCancelled(ctx, tenantID)
	telemetry.SetOK(span)

	response := ToSaleResponse(sale)
	return &response, nil
}

func (s *SaleService) cancel(ctx context.Context, repos uow.Repositories, tenantID, saleID uuid.UUID, reason string) (*trade.Sale, []shared.DomainEvent, error) {
	sale, err := repos.Sales().FindByID(ctx, tenantID, saleID)
	if err != nil {
		return nil, nil, err
	}
	if err := sale.Cancel(reason); err != nil {
		return nil, nil, err
	}

	var events []shared.DomainEvent
	for i, item := range sale.Items {
		movement, applied, err := inventoryapp.CreditStock(ctx, repos, tenantID, inventory.StockOperation{
			StockUnitID: item.StockUnitID,
			Quantity:    item.Quantity,
			SourceType:  inventory.SourceSaleCancel,
			SourceID:    sale.ID.String(),
			Token:       sale.CancelStockToken(i),
		})
		if err != nil {
			return nil, nil, err
		}
		if applied {
			events = append(events, inventory.NewMovementEvent(movement))
		}
	}

	if sale.ReceivableID != nil {
		entry, err := repos.LedgerEntries().FindByID(ctx, tenantID, *sale.ReceivableID)
		if err != nil {
			return nil, nil, err
		}
		touched, err := s.voidReceivable(ctx, repos, sale, entry, reason)
		if err != nil {
			return nil, nil, err
		}
		for _, e := range touched {
			events = append(events, shared.CollectEvents(e)...)
		}
	}

	if sale.CustomerTransactionID != nil {
		account, err := s.reverseCustomerDebit(ctx, repos, sale)
		if err != nil {
			return nil, nil, err
		}
		if account != nil {
			events = append(events, shared.CollectEvents(account)...)
		}
	}

	if err := repos.Sales().SaveWithLock(ctx, sale); err != nil {
		return nil, nil, err
	}
	return sale, append(events, shared.CollectEvents(sale)...), nil
}

// voidReceivable neutralises the receivable of a sale without rewriting settled history:
//
//	pending, nothing settled   -> cancel
//	pending, partially settled -> write off the rest, pending payable refund of the settled part
//	settled                    -> settled payable refund of the settled amount
func (s *SaleService) voidReceivable(ctx context.Context, repos uow.Repositories, sale *trade.Sale, entry *finance.LedgerEntry, reason string) ([]*finance.LedgerEntry, error) {
	switch {
	case entry.Status == finance.EntryStatusCancelled && entry.WrittenOffAmount.IsZero():
		return nil, nil
	case entry.Status == finance.EntryStatusPending && !entry.HasSettlements():
		if err := entry.Cancel(reason); err != nil {
			return nil, err
		}
		if err := repos.LedgerEntries().SaveWithLock(ctx, entry); err != nil {
			return nil, err
		}
		return []*finance.LedgerEntry{entry}, nil
	case entry.Status == finance.EntryStatusPending:
		if err := entry.WriteOff(reason); err != nil {
			return nil, err
		}
		if err := repos.LedgerEntries().SaveWithLock(ctx, entry); err != nil {
			return nil, err
		}
		refund, err := s.postRefund(ctx, repos, sale, entry, false)
		if err != nil {
			return nil, err
		}
		return []*finance.LedgerEntry{entry, refund}, nil
	case entry.Status == finance.EntryStatusCancelled:
		// written off by an earlier attempt that did not get to the refund
		refund, err := s.postRefund(ctx, repos, sale, entry, false)
		if err != nil {
			return nil, err
		}
		return []*finance.LedgerEntry{refund}, nil
	default:
		refund, err := s.postRefund(ctx, repos, sale, entry, true)
		if err != nil {
			return nil, err
		}
		return []*finance.LedgerEntry{refund}, nil
	}
}

// postRefund records the money owed back for what was already collected on the receivable
func (s *SaleService) postRefund(ctx context.Context, repos uow.Repositories, sale *trade.Sale, receivable *finance.LedgerEntry, settled bool) (*finance.LedgerEntry, error) {
	existing, err := repos.LedgerEntries().FindBySource(ctx, sale.TenantID, finance.EntryKindPayable, finance.SourceSaleReversal, sale.ID.String())
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	refund, err := finance.NewLedgerEntry(
		sale.TenantID,
		finance.EntryKindPayable,
		"refund of "+sale.Description(),
		receivable.AmountSettled,
		now,
		now,
		receivable.Counterparty,
	)
	if err != nil {
		return nil, err
	}
	refund.WithSource(finance.SourceSaleReversal, sale.ID.String()).WithReversal(receivable.ID)
	if settled {
		if _, err := refund.SettleInFull(string(sale.PaymentMethod), now); err != nil {
			return nil, err
		}
	}
	if err := repos.LedgerEntries().Save(ctx, refund); err != nil {
		return nil, err
	}
	return refund, nil
}

// reverseCustomerDebit appends the inverse of the sale's debit_add.
// Nothing is appended when the debt was already paid down to zero or the debit was reversed before.
func (s *SaleService) reverseCustomerDebit(ctx context.Context, repos uow.Repositories, sale *trade.Sale) (*partner.CustomerAccount, error) {
	original, err := repos.CustomerTransactions().FindByID(ctx, sale.TenantID, *sale.CustomerTransactionID)
	if err != nil {
		return nil, err
	}
	account, _, err := partnerapp.LoadAccount(ctx, repos, sale.TenantID, original.CustomerID)
	if err != nil {
		return nil, err
	}
	if account.DebtBalance.IsZero() {
		s.logger.Info("customer debt already settled, no reversal recorded",
			zap.String("tenant_id", sale.TenantID.String()),
			zap.String("sale_id", sale.ID.String()),
			zap.String("customer_id", original.CustomerID.String()),
		)
		return nil, nil
	}
	account, _, err = partnerapp.ReverseMovement(ctx, repos, sale.TenantID, original, partner.SourceSaleCancel, sale.ID.String(), s.now())
	if errors.Is(err, shared.ErrTransactionReversed) {
		return nil, nil
	}
	return account, err
}

// Get retrieves a sale by ID
func (s *SaleService) Get(ctx context.Context, tenantID, saleID uuid.UUID) (*SaleResponse, error) {
	sale, err := s.scope.Repositories().Sales().FindByID(ctx, tenantID, saleID)
	if err != nil {
		return nil, err
	}
	response := ToSaleResponse(sale)
	return &response, nil
}

func (s *SaleService) replay(ctx context.Context, tenantID uuid.UUID, key string) (*SaleResponse, error) {
	sale, err := s.scope.Repositories().Sales().FindByIdempotencyKey(ctx, tenantID, key)
	if errors.Is(err, shared.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	s.logger.Info("sale replayed from idempotency key",
		zap.String("tenant_id", tenantID.String()),
		zap.String("sale_id", sale.ID.String()),
	)
	response := ToSaleResponse(sale)
	response.Replayed = true
	return &response, nil
}

func (f *finalization) events() []shared.DomainEvent {
	events := make([]shared.DomainEvent, 0, len(f.debits)+4)
	for _, m := range f.debits {
		events = append(events, inventory.NewMovementEvent(m))
	}
	events = append(events, shared.CollectEvents(f.sale)...)
	if f.receivable != nil {
		events = append(events, shared.CollectEvents(f.receivable)...)
	}
	if f.account != nil {
		events = append(events, shared.CollectEvents(f.account)...)
	}
	return events
}

func discardEvents(f *finalization) {
	f.sale.ClearDomainEvents()
	if f.receivable != nil {
		f.receivable.ClearDomainEvents()
	}
	if f.account != nil {
		f.account.ClearDomainEvents()
	}
}

func (s *SaleService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish sale events", zap.Error(err))
	}
}
