package inventory

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/application/uow"
	"github.com/juliohebert/loja-sub000/internal/domain/inventory"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
)

// DebitStock applies a conditional debit within the caller's unit of work.
// A token that was already applied returns the recorded movement with applied=false.
func DebitStock(ctx context.Context, repos uow.Repositories, tenantID uuid.UUID, op inventory.StockOperation) (*inventory.StockMovement, bool, error) {
	return applyMovement(ctx, repos, tenantID, inventory.MovementDebit, op)
}

// CreditStock applies a credit within the caller's unit of work.
func CreditStock(ctx context.Context, repos uow.Repositories, tenantID uuid.UUID, op inventory.StockOperation) (*inventory.StockMovement, bool, error) {
	return applyMovement(ctx, repos, tenantID, inventory.MovementCredit, op)
}

func applyMovement(
	ctx context.Context,
	repos uow.Repositories,
	tenantID uuid.UUID,
	direction inventory.MovementDirection,
	op inventory.StockOperation,
) (*inventory.StockMovement, bool, error) {
	if err := op.Validate(); err != nil {
		return nil, false, err
	}

	if op.Token != "" {
		existing, err := repos.StockMovements().FindByToken(ctx, tenantID, op.Token)
		if err == nil {
			return existing, false, nil
		}
		if !errors.Is(err, shared.ErrNotFound) {
			return nil, false, err
		}
	}

	var (
		after int
		err   error
	)
	if direction == inventory.MovementDebit {
		after, err = repos.StockUnits().Debit(ctx, tenantID, op.StockUnitID, op.Quantity)
	} else {
		after, err = repos.StockUnits().Credit(ctx, tenantID, op.StockUnitID, op.Quantity)
	}
	if err != nil {
		return nil, false, err
	}

	movement := inventory.NewStockMovement(tenantID, op.StockUnitID, direction, op.Quantity, after, op)
	if err := repos.StockMovements().Create(ctx, movement); err != nil {
		return nil, false, err
	}
	return movement, true, nil
}

// Compensate credits back the given debits in reverse order.
// Every failure is attempted and the first error is returned.
func Compensate(ctx context.Context, repos uow.Repositories, tenantID uuid.UUID, debits []*inventory.StockMovement) error {
	var firstErr error
	for i := len(debits) - 1; i >= 0; i-- {
		d := debits[i]
		after, err := repos.StockUnits().Credit(ctx, tenantID, d.StockUnitID, d.Quantity)
		if err == nil {
			err = repos.StockMovements().Create(ctx, inventory.NewStockMovement(
				tenantID, d.StockUnitID, inventory.MovementCredit, d.Quantity, after,
				inventory.StockOperation{
					StockUnitID: d.StockUnitID,
					Quantity:    d.Quantity,
					SourceType:  inventory.SourceCompensation,
					SourceID:    d.SourceID,
				},
			))
		}
		if err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
