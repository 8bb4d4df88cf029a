package trade

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	inventoryapp "github.com/juliohebert/loja-sub000/internal/application/inventory"
	"github.com/juliohebert/loja-sub000/internal/application/uow"
	"github.com/juliohebert/loja-sub000/internal/domain/finance"
	"github.com/juliohebert/loja-sub000/internal/domain/inventory"
	"github.com/juliohebert/loja-sub000/internal/domain/partner"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/juliohebert/loja-sub000/internal/domain/trade"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/telemetry"
	"go.uber.org/zap"
)

// DefaultPayableTermDays is the due offset of the payable posted on receipt
const DefaultPayableTermDays = 30

// PurchaseOrderService drives purchase orders through their lifecycle.
// Receiving credits stock exactly once and posts the supplier payable.
type PurchaseOrderService struct {
	scope           uow.TransactionScope
	suppliers       partner.SupplierDirectory
	eventPublisher  shared.EventPublisher
	logger          *zap.Logger
	payableTermDays int
	now             func() time.Time
}

// NewPurchaseOrderService creates a new PurchaseOrderService
func NewPurchaseOrderService(scope uow.TransactionScope, logger *zap.Logger) *PurchaseOrderService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PurchaseOrderService{
		scope:           scope,
		logger:          logger,
		payableTermDays: DefaultPayableTermDays,
		now:             time.Now,
	}
}

// SetSupplierDirectory enables supplier existence checks on submit
func (s *PurchaseOrderService) SetSupplierDirectory(suppliers partner.SupplierDirectory) {
	s.suppliers = suppliers
}

// SetEventPublisher sets the event publisher for publishing domain events
func (s *PurchaseOrderService) SetEventPublisher(publisher shared.EventPublisher) {
	s.eventPublisher = publisher
}

// SetPayableTermDays sets how many days after receipt the supplier payable is due
func (s *PurchaseOrderService) SetPayableTermDays(days int) {
	if days >= 0 {
		s.payableTermDays = days
	}
}

// Submit creates a pending purchase order
func (s *PurchaseOrderService) Submit(ctx context.Context, tenantID uuid.UUID, req SubmitPurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	if s.suppliers != nil {
		exists, err := s.suppliers.SupplierExists(ctx, tenantID, req.SupplierID)
		if err != nil {
			return nil, err
		}
		if !exists {
			return nil, shared.NewNotFoundError("supplier", req.SupplierID)
		}
	}

	lines := make([]trade.PurchaseOrderLine, len(req.Items))
	for i, item := range req.Items {
		lines[i] = trade.PurchaseOrderLine{
			StockUnitID: item.StockUnitID,
			OrderedQty:  item.Quantity,
			UnitCost:    item.UnitCost,
		}
	}
	orderDate := s.now()
	if req.OrderDate != nil {
		orderDate = *req.OrderDate
	}

	order, err := trade.NewPurchaseOrder(tenantID, req.SupplierID, lines, req.ShippingCost, req.Discount, orderDate, req.ExpectedDeliveryDate)
	if err != nil {
		return nil, err
	}
	order.Remark = req.Remark

	err = s.scope.Execute(ctx, func(repos uow.Repositories) error {
		for _, line := range lines {
			if _, err := repos.StockUnits().FindByID(ctx, tenantID, line.StockUnitID); err != nil {
				if errors.Is(err, shared.ErrNotFound) {
					return shared.ErrUnknownStockUnit.WithDetail("stock_unit_id", line.StockUnitID.String())
				}
				return err
			}
		}
		return repos.PurchaseOrders().Create(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase order submitted",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_id", order.ID.String()),
		zap.String("total", order.Total.StringFixed(2)),
	)
	s.publish(ctx, shared.CollectEvents(order))
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// Get retrieves a purchase order by ID
func (s *PurchaseOrderService) Get(ctx context.Context, tenantID, orderID uuid.UUID) (*PurchaseOrderResponse, error) {
	order, err := s.scope.Repositories().PurchaseOrders().FindByID(ctx, tenantID, orderID)
	if err != nil {
		return nil, err
	}
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// Advance moves the order to approved, in_transit or cancelled
func (s *PurchaseOrderService) Advance(ctx context.Context, tenantID, orderID uuid.UUID, req AdvancePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	var order *trade.PurchaseOrder
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		order, err = repos.PurchaseOrders().FindByID(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		if err := order.AdvanceTo(trade.PurchaseOrderStatus(req.Status), req.Reason); err != nil {
			return err
		}
		return repos.PurchaseOrders().SaveWithLock(ctx, order)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("purchase order status changed",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_id", orderID.String()),
		zap.String("status", order.Status.String()),
	)
	s.publish(ctx, shared.CollectEvents(order))
	response := ToPurchaseOrderResponse(order)
	return &response, nil
}

// Receive credits the received quantities and marks the order received.
// Credits carry per-line tokens, so a retried receipt never credits twice.
func (s *PurchaseOrderService) Receive(ctx context.Context, tenantID, orderID uuid.UUID, req ReceivePurchaseOrderRequest) (*PurchaseOrderResponse, error) {
	ctx, span := telemetry.StartServiceSpan(ctx, "purchase_order", "receive")
	defer span.End()
	telemetry.SetAttributes(span,
		telemetry.SpanAttrTenantID, tenantID.String(),
		telemetry.SpanAttrOrderID, orderID.String(),
	)

	received := make([]trade.ReceivedLine, len(req.Items))
	for i, item := range req.Items {
		received[i] = trade.ReceivedLine{StockUnitID: item.StockUnitID, ReceivedQty: item.ReceivedQty}
	}

	var (
		order   *trade.PurchaseOrder
		payable *finance.LedgerEntry
		events  []shared.DomainEvent
	)
	err := s.scope.Execute(ctx, func(repos uow.Repositories) error {
		var err error
		order, err = repos.PurchaseOrders().FindByID(ctx, tenantID, orderID)
		if err != nil {
			return err
		}
		credits, err := order.Receive(received)
		if err != nil {
			return err
		}

		for _, line := range credits {
			movement, applied, err := inventoryapp.CreditStock(ctx, repos, tenantID, inventory.StockOperation{
				StockUnitID: line.StockUnitID,
				Quantity:    line.ReceivedQty,
				SourceType:  inventory.SourcePurchaseOrder,
				SourceID:    order.ID.String(),
				Token:       order.StockToken(line.StockUnitID),
			})
			if err != nil {
				return err
			}
			if applied {
				events = append(events, inventory.NewMovementEvent(movement))
			}
		}

		payable, err = s.postPayable(ctx, repos, order)
		if err != nil {
			return err
		}
		return repos.PurchaseOrders().SaveWithLock(ctx, order)
	})
	if err != nil {
		telemetry.RecordError(span, err)
		return nil, err
	}

	s.logger.Info("purchase order received",
		zap.String("tenant_id", tenantID.String()),
		zap.String("order_id", orderID.String()),
		zap.Bool("fully_received", order.IsFullyReceived()),
	)
	events = append(events, shared.CollectEvents(order)...)
	if payable != nil {
		events = append(events, shared.CollectEvents(payable)...)
	}
	s.publish(ctx, events)
	telemetry.SetOK(span)

	response := ToPurchaseOrderResponse(order)
	if payable != nil {
		response.PayableEntryID = &payable.ID
	}
	return &response, nil
}

// postPayable records what the tenant owes the supplier for the received goods.
// A payable already posted by an interrupted earlier attempt is reused.
func (s *PurchaseOrderService) postPayable(ctx context.Context, repos uow.Repositories, order *trade.PurchaseOrder) (*finance.LedgerEntry, error) {
	amount := order.ReceivedTotal()
	if !amount.IsPositive() {
		return nil, nil
	}
	existing, err := repos.LedgerEntries().FindBySource(ctx, order.TenantID, finance.EntryKindPayable, finance.SourcePurchaseOrder, order.ID.String())
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, shared.ErrNotFound) {
		return nil, err
	}

	now := s.now()
	entry, err := finance.NewLedgerEntry(
		order.TenantID,
		finance.EntryKindPayable,
		fmt.Sprintf("purchase order #%s", order.ID),
		amount,
		now,
		now.AddDate(0, 0, s.payableTermDays),
		finance.Supplier(order.SupplierID),
	)
	if err != nil {
		return nil, err
	}
	entry.WithSource(finance.SourcePurchaseOrder, order.ID.String())
	if err := repos.LedgerEntries().Save(ctx, entry); err != nil {
		return nil, err
	}
	return entry, nil
}

func (s *PurchaseOrderService) publish(ctx context.Context, events []shared.DomainEvent) {
	if s.eventPublisher == nil || len(events) == 0 {
		return
	}
	if err := s.eventPublisher.Publish(ctx, events...); err != nil {
		s.logger.Warn("failed to publish purchase order events", zap.Error(err))
	}
}
