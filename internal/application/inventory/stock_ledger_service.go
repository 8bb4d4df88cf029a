package inventory

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/application/uow"
	"github.com/juliohebert/loja-sub000/internal/domain/inventory"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// StockLedgerService owns stock unit quantities. Every change is a debit or a credit.
type StockLedgerService struct {
	scope          uow.TransactionScope
	eventPublisher shared.EventPublisher
	logger         *zap.Logger
}

// NewStockLedgerService creates a new StockLedgerService
func NewStockLedgerService(scope uow.TransactionScope, logger *zap.Logger) *StockLedgerService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StockLedgerService{
		scope:  scope,
		logger: logger,
	}
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *StockLedgerService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// DefineStockUnit creates a variant, optionally seeding it with an initial credit
func (s *StockLedgerService) DefineStockUnit(ctx context.Context, tenantID uuid.UUID, req DefineStockUnitRequest) (*StockUnitResponse, error) {
	unit, err := inventory.NewStockUnit(tenantID, req.ProductID, req.Variant, req.ReorderThreshold)
	if err != nil {
		return nil, err
	}
	if req.InitialQuantity < 0 {
		return nil, shared.NewDomainError(shared.CodeInvalidAmount, "Initial quantity cannot be negative")
	}

	var events []shared.DomainEvent
	err = s.scope.Execute(ctx, func(repos uow.Repositories) error {
		if err := repos.StockUnits().Create(ctx, unit); err != nil {
			return err
		}
		if req.InitialQuantity == 0 {
			return nil
		}
		m, _, err := CreditStock(ctx, repos, tenantID, inventory.StockOperation{
			StockUnitID: unit.ID,
			Quantity:    req.InitialQuantity,
			SourceType:  inventory.SourceInitial,
			SourceID:    unit.ID.String(),
			Token:       fmt.Sprintf("initial:%s", unit.ID),
		})
		if err != nil {
			return err
		}
		unit.Quantity = m.QuantityAfter
		events = append(events, inventory.NewMovementEvent(m))
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.publish(ctx, events)
	response := ToStockUnitResponse(unit)
	return &response, nil
}

// GetStockUnit retrieves a stock unit by ID
func (s *StockLedgerService) GetStockUnit(ctx context.Context, tenantID, id uuid.UUID) (*StockUnitResponse, error) {
	unit, err := s.scope.Repositories().StockUnits().FindByID(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	response := ToStockUnitResponse(unit)
	return &response, nil
}

// DeleteStockUnit removes a variant that holds no stock and no open purchase order references
func (s *StockLedgerService) DeleteStockUnit(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.scope.Execute(ctx, func(repos uow.Repositories) error {
		unit, err := repos.StockUnits().FindByID(ctx, tenantID, id)
		if err != nil {
			return err
		}
		referenced, err := repos.PurchaseOrders().ExistsOpenWithStockUnit(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := unit.EnsureDeletable(referenced); err != nil {
			return err
		}
		return repos.StockUnits().Delete(ctx, tenantID, id)
	})
}

// Debit removes quantity from a stock unit. Fails with InsufficientStock without mutating.
func (s *StockLedgerService) Debit(ctx context.Context, tenantID, stockUnitID uuid.UUID, req StockOperationRequest) (*StockMovementResponse, error) {
	return s.apply(ctx, tenantID, inventory.MovementDebit, stockUnitID, req)
}

// Credit adds quantity to a stock unit
func (s *StockLedgerService) Credit(ctx context.Context, tenantID, stockUnitID uuid.UUID, req StockOperationRequest) (*StockMovementResponse, error) {
	return s.apply(ctx, tenantID, inventory.MovementCredit, stockUnitID, req)
}

func (s *StockLedgerService) apply(
	ctx context.Context,
	tenantID uuid.UUID,
	direction inventory.MovementDirection,
	stockUnitID uuid.UUID,
	req StockOperationRequest,
) (*StockMovementResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "stock_ledger", string(direction))
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrStockUnitID, stockUnitID.String(),
		telemetry.SpanAttrQuantity, req.Quantity,
	)

	sourceType := req.SourceType
	if sourceType == "" {
		sourceType = inventory.SourceManual
	}
	op := inventory.StockOperation{
		StockUnitID: stockUnitID,
		Quantity:    req.Quantity,
		SourceType:  sourceType,
		SourceID:    req.SourceID,
		Token:       req.Token,
	}

	var (
		movement *inventory.StockMovement
		applied  bool
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		if direction == inventory.MovementDebit {
			movement, applied, err = DebitStock(ctx, repos, tenantID, op)
		} else {
			movement, applied, err = CreditStock(ctx, repos, tenantID, op)
		}
		return err
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	if applied {
		s.publish(ctx, []shared.DomainEvent{inventory.NewMovementEvent(movement)})
	}
	telemetry.SetOK(span)
	response := ToStockMovementResponse(movement)
	return &response, nil
}

// ListMovements returns the movement history of a stock unit
func (s *StockLedgerService) ListMovements(ctx context.Context, tenantID, stockUnitID uuid.UUID, filter shared.Filter) ([]StockMovementResponse, int64, error) {
	movements, total, err := s.scope.Repositories().StockMovements().FindByStockUnit(ctx, tenantID, stockUnitID, filter)
	if err != nil {
		return nil, 0, err
	}
	return ToStockMovementResponses(movements), total, nil
}

func (s *StockLedgerService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish stock events", zap.Error(err))
	}
}
