package inventory

import (
	"context"
	"fmt"

	"github.com/juliohebert/loja-sub000/internal/domain/inventory"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"go.uber.org/zap"
)

// ReorderNotifier is told when a stock unit falls to its reorder threshold
type ReorderNotifier interface {
	NotifyReorder(ctx context.Context, unit *inventory.StockUnit) error
}

// ReorderWarningHandler reacts to StockDebited events and flags stock units
// whose quantity dropped to or below their reorder threshold.
type ReorderWarningHandler struct {
	units    inventory.StockUnitRepository
	notifier ReorderNotifier
	logger   *zap.Logger
}

// NewReorderWarningHandler creates a new ReorderWarningHandler
func NewReorderWarningHandler(units inventory.StockUnitRepository, logger *zap.Logger) *ReorderWarningHandler {
	return &ReorderWarningHandler{
		units:  units,
		logger: logger,
	}
}

// WithNotifier sets an optional notifier
func (h *ReorderWarningHandler) WithNotifier(notifier ReorderNotifier) *ReorderWarningHandler {
	h.notifier = notifier
	return h
}

// EventTypes returns the event types this handler is interested in
func (h *ReorderWarningHandler) EventTypes() []string {
	return []string{inventory.EventTypeStockDebited}
}

// Handle processes a StockDebited event
func (h *ReorderWarningHandler) Handle(ctx context.Context, event shared.DomainEvent) error {
	debited, ok := event.(*inventory.StockDebitedEvent)
	if !ok {
		return fmt.Errorf("unexpected event type: %T", event)
	}

	unit, err := h.units.FindByID(ctx, debited.TenantID(), debited.StockUnitID)
	if err != nil {
		return fmt.Errorf("failed to load stock unit %s: %w", debited.StockUnitID, err)
	}
	if !unit.IsBelowReorderThreshold() {
		return nil
	}

	h.logger.Warn("stock unit reached reorder threshold",
		zap.String("tenant_id", unit.TenantID.String()),
		zap.String("stock_unit_id", unit.ID.String()),
		zap.Int("quantity", unit.Quantity),
		zap.Int("reorder_threshold", unit.ReorderThreshold),
		zap.String("source_type", debited.SourceType),
		zap.String("source_id", debited.SourceID),
	)

	if h.notifier != nil {
		if err := h.notifier.NotifyReorder(ctx, unit); err != nil {
			return fmt.Errorf("failed to send reorder notification: %w", err)
		}
	}
	return nil
}

var _ shared.EventHandler = (*ReorderWarningHandler)(nil)
