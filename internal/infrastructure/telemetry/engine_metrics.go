package telemetry

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
)

// ErrMeterNil is returned when no meter is supplied.
var ErrMeterNil = errors.New("telemetry: meter cannot be nil")

// StockMetricsProvider reports stock health for periodic collection.
type StockMetricsProvider interface {
	// LowStockCount counts stock units at or below their reorder threshold
	LowStockCount(ctx context.Context, tenantID uuid.UUID) (int64, error)
}

// TenantProvider lists the tenants to collect gauges for.
type TenantProvider interface {
	ActiveTenantIDs(ctx context.Context) ([]uuid.UUID, error)
}

// EngineMetricsConfig configures EngineMetrics.
type EngineMetricsConfig struct {
	Meter         metric.Meter
	Logger        *zap.Logger
	StockProvider StockMetricsProvider
}

// EngineMetrics counts sale outcomes and tracks low stock per tenant.
type EngineMetrics struct {
	logger *zap.Logger

	salesFinalized metric.Int64Counter
	saleAmount     metric.Int64Counter
	salesCancelled metric.Int64Counter
	compensations  metric.Int64Counter
	lowStockUnits  metric.Int64Gauge

	stockProvider StockMetricsProvider
	stopChan      chan struct{}
	stopOnce      sync.Once
	collectOnce   sync.Once
}

// NewEngineMetrics registers the engine instruments on cfg.Meter.
func NewEngineMetrics(cfg EngineMetricsConfig) (*EngineMetrics, error) {
	if cfg.Meter == nil {
		return nil, ErrMeterNil
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	em := &EngineMetrics{
		logger:        logger,
		stockProvider: cfg.StockProvider,
		stopChan:      make(chan struct{}),
	}

	m := cfg.Meter
	var err error
	if em.salesFinalized, err = m.Int64Counter("loja_sales_finalized_total",
		metric.WithDescription("Sales finalized"), metric.WithUnit("{sales}")); err != nil {
		return nil, err
	}
	if em.saleAmount, err = m.Int64Counter("loja_sale_amount_total",
		metric.WithDescription("Finalized sale amount in cents"), metric.WithUnit("{cents}")); err != nil {
		return nil, err
	}
	if em.salesCancelled, err = m.Int64Counter("loja_sales_cancelled_total",
		metric.WithDescription("Sales cancelled"), metric.WithUnit("{sales}")); err != nil {
		return nil, err
	}
	if em.compensations, err = m.Int64Counter("loja_sale_compensations_total",
		metric.WithDescription("Failed finalizations undone by compensation"), metric.WithUnit("{compensations}")); err != nil {
		return nil, err
	}
	if em.lowStockUnits, err = m.Int64Gauge("loja_low_stock_units",
		metric.WithDescription("Stock units at or below their reorder threshold"), metric.WithUnit("{units}")); err != nil {
		return nil, err
	}
	return em, nil
}

// RecordSaleFinalized counts a finalized sale and its total.
func (em *EngineMetrics) RecordSaleFinalized(ctx context.Context, tenantID uuid.UUID, paymentMethod string, total decimal.Decimal) {
	attrs := metric.WithAttributes(AttrTenantID.String(tenantID.String()), AttrPaymentMethod.String(paymentMethod))
	em.salesFinalized.Add(ctx, 1, attrs)
	em.saleAmount.Add(ctx, total.Shift(2).Round(0).IntPart(), attrs)
}

// RecordSaleCancelled counts a cancelled sale.
func (em *EngineMetrics) RecordSaleCancelled(ctx context.Context, tenantID uuid.UUID) {
	em.salesCancelled.Add(ctx, 1, metric.WithAttributes(AttrTenantID.String(tenantID.String())))
}

// RecordCompensation counts a compensation run, labelled by outcome.
func (em *EngineMetrics) RecordCompensation(ctx context.Context, tenantID uuid.UUID, succeeded bool) {
	outcome := "succeeded"
	if !succeeded {
		outcome = "failed"
	}
	em.compensations.Add(ctx, 1, metric.WithAttributes(AttrTenantID.String(tenantID.String()), AttrOutcome.String(outcome)))
}

// RecordLowStockCount sets the low stock gauge for a tenant.
func (em *EngineMetrics) RecordLowStockCount(ctx context.Context, tenantID uuid.UUID, count int64) {
	em.lowStockUnits.Record(ctx, count, metric.WithAttributes(AttrTenantID.String(tenantID.String())))
}

// StartPeriodicCollection refreshes the gauges every interval (default 5 minutes)
// until Stop is called or ctx is done. Calling it again is a no-op.
func (em *EngineMetrics) StartPeriodicCollection(ctx context.Context, tenants TenantProvider, interval time.Duration) {
	em.collectOnce.Do(func() {
		if interval <= 0 {
			interval = 5 * time.Minute
		}
		go em.runPeriodicCollection(ctx, tenants, interval)
	})
}

func (em *EngineMetrics) runPeriodicCollection(ctx context.Context, tenants TenantProvider, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	em.collect(ctx, tenants)
	for {
		select {
		case <-em.stopChan:
			return
		case <-ctx.Done():
			return
		case <-ticker.C:
			em.collect(ctx, tenants)
		}
	}
}

func (em *EngineMetrics) collect(ctx context.Context, tenants TenantProvider) {
	if em.stockProvider == nil {
		return
	}
	tenantIDs, err := tenants.ActiveTenantIDs(ctx)
	if err != nil {
		em.logger.Error("Failed to list tenants for metrics collection", zap.Error(err))
		return
	}
	for _, tenantID := range tenantIDs {
		count, err := em.stockProvider.LowStockCount(ctx, tenantID)
		if err != nil {
			em.logger.Warn("Failed to count low stock units",
				zap.String("tenant_id", tenantID.String()),
				zap.Error(err),
			)
			continue
		}
		em.RecordLowStockCount(ctx, tenantID, count)
	}
}

// Stop ends periodic collection.
func (em *EngineMetrics) Stop() {
	em.stopOnce.Do(func() {
		close(em.stopChan)
	})
}
