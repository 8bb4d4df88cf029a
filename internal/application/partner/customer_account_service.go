package partner

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/application/uow"
	"github.com/juliohebert/loja-sub000/internal/domain/partner"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// CustomerAccountService maintains customer debt balances and credit limits
// through an append-only transaction history.
type CustomerAccountService struct {
	scope          uow.TransactionScope
	locker         shared.Locker
	customers      partner.CustomerDirectory
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
	now            func() time.Time
}

// NewCustomerAccountService creates a new CustomerAccountService
func NewCustomerAccountService(scope uow.TransactionScope, locker shared.Locker, logger *zap.Logger) *CustomerAccountService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &CustomerAccountService{
		scope:  scope,
		locker: locker,
		logger: logger,
		now:    time.Now,
	}
}

// SetCustomerDirectory enables customer existence checks
func (s *CustomerAccountService) SetCustomerDirectory(customers partner.CustomerDirectory) {
	s.customers = customers
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *CustomerAccountService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// RecordTransaction appends a movement to the customer's account.
// Decreases are clamped at zero; the clamped amount is what gets recorded.
func (s *CustomerAccountService) RecordTransaction(ctx context.Context, tenantID, customerID uuid.UUID, req RecordTransactionRequest) (*RecordTransactionResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "customer_account", "record_transaction")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrCustomerID, customerID.String(),
		telemetry.SpanAttrAmount, req.Amount.String(),
	)

	kind := partner.TransactionKind(req.Kind)
	if !kind.IsValid() {
		return nil, shared.NewValidationError("Invalid customer transaction kind: " + req.Kind)
	}
	if err := partner.ValidateAmount(req.Amount); err != nil {
		return nil, err
	}
	if err := s.ensureCustomer(ctx, tenantID, customerID); err != nil {
		return nil, err
	}
	date := s.now()
	if req.Date != nil {
		date = *req.Date
	}

	var (
		account *partner.CustomerAccount
		tx      *partner.CustomerLedgerTransaction
	)
	err := s.withCustomerLock(ctx, tenantID, customerID, func() error {
		return s.scope.Execute(ctx, func(repos uow.Repositories) error {
			var err error
			account, tx, err = ApplyMovement(ctx, repos, tenantID, customerID, Movement{
				Kind:        kind,
				Amount:      req.Amount,
				Description: req.Description,
				Date:        date,
			})
			return err
		})
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.publish(ctx, account)
	telemetry.SetOK(span)
	return &RecordTransactionResponse{
		Account:     ToCustomerAccountResponse(account),
		Transaction: ToCustomerTransactionResponse(tx),
	}, nil
}

// ReverseTransaction appends the compensating entry of a transaction.
// The original is never modified or deleted.
func (s *CustomerAccountService) ReverseTransaction(ctx context.Context, tenantID, customerID, transactionID uuid.UUID) (*RecordTransactionResponse, error) {
	var (
		account *partner.CustomerAccount
		tx      *partner.CustomerLedgerTransaction
	)
	err := s.withCustomerLock(ctx, tenantID, customerID, func() error {
		return s.scope.Execute(ctx, func(repos uow.Repositories) error {
			original, err := repos.CustomerTransactions().FindByID(ctx, tenantID, transactionID)
			if err != nil {
				return err
			}
			if original.CustomerID != customerID {
				return shared.NewNotFoundError("customer transaction", transactionID)
			}
			account, tx, err = ReverseMovement(ctx, repos, tenantID, original, partner.SourceManual, "", s.now())
			return err
		})
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("customer transaction reversed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("customer_id", customerID.String()),
		zap.String("transaction_id", transactionID.String()),
		zap.String("reversal_id", tx.ID.String()),
	)
	s.publish(ctx, account)
	return &RecordTransactionResponse{
		Account:     ToCustomerAccountResponse(account),
		Transaction: ToCustomerTransactionResponse(tx),
	}, nil
}

// CheckCreditAvailable reports whether amount fits the available credit. Pure check.
func (s *CustomerAccountService) CheckCreditAvailable(ctx context.Context, tenantID, customerID uuid.UUID, amount decimal.Decimal) (*CreditCheckResponse, error) {
	account, err := s.account(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}
	return &CreditCheckResponse{
		CustomerID:      customerID,
		Amount:          amount,
		AvailableCredit: account.AvailableCredit(),
		Allowed:         account.HasCreditFor(amount),
	}, nil
}

// GetAccount returns the customer's balances; customers without history have a zero account
func (s *CustomerAccountService) GetAccount(ctx context.Context, tenantID, customerID uuid.UUID) (*CustomerAccountResponse, error) {
	account, err := s.account(ctx, tenantID, customerID)
	if err != nil {
		return nil, err
	}
	response := ToCustomerAccountResponse(account)
	return &response, nil
}

// ListTransactions returns the customer's history, newest first
func (s *CustomerAccountService) ListTransactions(ctx context.Context, tenantID, customerID uuid.UUID, filter shared.Filter) ([]CustomerTransactionResponse, int64, error) {
	if filter.OrderBy == "" {
		filter.OrderBy = "created_at"
		filter.OrderDir = "desc"
	}
	txs, total, err := s.scope.Repositories().CustomerTransactions().FindByCustomer(ctx, tenantID, customerID, filter)
	if err != nil {
		return nil, 0, err
	}
	return ToCustomerTransactionResponses(txs), total, nil
}

func (s *CustomerAccountService) account(ctx context.Context, tenantID, customerID uuid.UUID) (*partner.CustomerAccount, error) {
	account, err := s.scope.Repositories().CustomerAccounts().FindByCustomer(ctx, tenantID, customerID)
	if errors.Is(err, shared.ErrNotFound) {
		return partner.NewCustomerAccount(tenantID, customerID)
	}
	return account, err
}

func (s *CustomerAccountService) ensureCustomer(ctx context.Context, tenantID, customerID uuid.UUID) error {
	if s.customers == nil {
		return nil
	}
	exists, err := s.customers.CustomerExists(ctx, tenantID, customerID)
	if err != nil {
		return err
	}
	if !exists {
		return shared.NewNotFoundError("customer", customerID)
	}
	return nil
}

func (s *CustomerAccountService) withCustomerLock(ctx context.Context, tenantID, customerID uuid.UUID, fn func() error) error {
	return WithCustomerLock(ctx, s.locker, s.logger, tenantID, customerID, fn)
}

// WithCustomerLock runs fn while holding the customer's account lock.
// A nil locker runs fn unguarded; the optimistic version check still applies.
func WithCustomerLock(ctx context.Context, locker shared.Locker, logger *zap.Logger, tenantID, customerID uuid.UUID, fn func() error) error {
	if locker == nil {
		return fn()
	}
	release, err := locker.Acquire(ctx, shared.CustomerAccountLockKey(tenantID, customerID))
	if err != nil {
		return err
	}
	defer func() {
		if err := release(context.WithoutCancel(ctx)); err != nil {
			logger.Warn("failed to release customer account lock",
				zap.String("tenant_id", tenantID.String()),
				zap.String("customer_id", customerID.String()),
				zap.Error(err),
			)
		}
	}()
	return fn()
}

func (s *CustomerAccountService) publish(ctx context.Context, account *partner.CustomerAccount) {
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
