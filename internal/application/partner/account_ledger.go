package partner

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/application/uow"
	"github.com/juliohebert/loja-sub000/internal/domain/partner"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/shopspring/decimal"
)

// Movement describes one transaction to append to a customer account
type Movement struct {
	Kind        partner.TransactionKind
	Amount      decimal.Decimal
	Description string
	Date        time.Time
	SourceType  string
	SourceID    string
}

// LoadAccount returns the customer's account, or a fresh zero account when none exists yet.
// isNew tells the caller to Create rather than SaveWithLock.
func LoadAccount(ctx context.Context, repos uow.Repositories, tenantID, customerID uuid.UUID) (account *partner.CustomerAccount, isNew bool, err error) {
	account, err = repos.CustomerAccounts().FindByCustomer(ctx, tenantID, customerID)
	if err == nil {
		return account, false, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, false, err
	}
	account, err = partner.NewCustomerAccount(tenantID, customerID)
	if err != nil {
		return nil, false, err
	}
	return account, true, nil
}

// ApplyMovement appends a transaction and persists the resulting balances
// within the caller's unit of work. The caller holds the customer lock.
func ApplyMovement(ctx context.Context, repos uow.Repositories, tenantID, customerID uuid.UUID, m Movement) (*partner.CustomerAccount, *partner.CustomerLedgerTransaction, error) {
	account, isNew, err := LoadAccount(ctx, repos, tenantID, customerID)
	if err != nil {
		return nil, nil, err
	}
	tx, err := account.Record(m.Kind, m.Amount, m.Description, m.Date)
	if err != nil {
		return nil, nil, err
	}
	sourceType := m.SourceType
	if sourceType == "" {
		sourceType = partner.SourceManual
	}
	tx.WithSource(sourceType, m.SourceID)

	if err := persist(ctx, repos, account, isNew, tx); err != nil {
		return nil, nil, err
	}
	return account, tx, nil
}

// ReverseMovement appends the compensating entry of an existing transaction
func ReverseMovement(ctx context.Context, repos uow.Repositories, tenantID uuid.UUID, original *partner.CustomerLedgerTransaction, sourceType, sourceID string, date time.Time) (*partner.CustomerAccount, *partner.CustomerLedgerTransaction, error) {
	if original.IsReversal() {
		return nil, nil, shared.NewValidationError("A reversal cannot itself be reversed")
	}
	_, err := repos.CustomerTransactions().FindReversalOf(ctx, tenantID, original.ID)
	if err == nil {
		return nil, nil, shared.ErrTransactionReversed.WithDetail("transaction_id", original.ID.String())
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, nil, err
	}

	account, isNew, err := LoadAccount(ctx, repos, tenantID, original.CustomerID)
	if err != nil {
		return nil, nil, err
	}
	tx, err := account.Reverse(original, date)
	if err != nil {
		return nil, nil, err
	}
	if sourceType == "" {
		sourceType = partner.SourceManual
	}
	tx.WithSource(sourceType, sourceID)

	if err := persist(ctx, repos, account, isNew, tx); err != nil {
		return nil, nil, err
	}
	return account, tx, nil
}

func persist(ctx context.Context, repos uow.Repositories, account *partner.CustomerAccount, isNew bool, tx *partner.CustomerLedgerTransaction) error {
	if isNew {
		if err := repos.CustomerAccounts().Create(ctx, account); err != nil {
			return err
		}
	} else if err := repos.CustomerAccounts().SaveWithLock(ctx, account); err != nil {
		return err
	}
	return repos.CustomerTransactions().Create(ctx, tx)
}
