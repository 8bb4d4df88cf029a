package telemetry_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/telemetry"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/metric/noop"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
)

func TestNewMeterProvider_Disabled(t *testing.T) {
	ctx := context.Background()

	mp, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{ServiceName: "loja-test"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	assert.False(t, mp.IsEnabled())
	assert.NotNil(t, mp.Meter("test"))
	assert.NoError(t, mp.Shutdown(ctx))
}

func TestNewEngineMetrics_RequiresMeter(t *testing.T) {
	_, err := telemetry.NewEngineMetrics(telemetry.EngineMetricsConfig{})
	assert.ErrorIs(t, err, telemetry.ErrMeterNil)
}

func collectSums(t *testing.T, reader *sdkmetric.ManualReader) map[string]int64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	sums := map[string]int64{}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					sums[m.Name] += dp.Value
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					sums[m.Name] = dp.Value
				}
			}
		}
	}
	return sums
}

func TestEngineMetrics_RecordsSaleOutcomes(t *testing.T) {
	ctx := context.Background()
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(ctx) })

	em, err := telemetry.NewEngineMetrics(telemetry.EngineMetricsConfig{Meter: provider.Meter("test")})
	require.NoError(t, err)

	tenantID := uuid.New()
	em.RecordSaleFinalized(ctx, tenantID, "cash", decimal.RequireFromString("19.99"))
	em.RecordSaleFinalized(ctx, tenantID, "credit", decimal.RequireFromString("0.01"))
	em.RecordSaleCancelled(ctx, tenantID)
	em.RecordCompensation(ctx, tenantID, true)
	em.RecordCompensation(ctx, tenantID, false)
	em.RecordLowStockCount(ctx, tenantID, 3)

	sums := collectSums(t, reader)
	assert.Equal(t, int64(2), sums["loja_sales_finalized_total"])
	assert.Equal(t, int64(2000), sums["loja_sale_amount_total"])
	assert.Equal(t, int64(1), sums["loja_sales_cancelled_total"])
	assert.Equal(t, int64(2), sums["loja_sale_compensations_total"])
	assert.Equal(t, int64(3), sums["loja_low_stock_units"])
}

type stubTenants struct {
	ids []uuid.UUID
	err error
}

func (s stubTenants) ActiveTenantIDs(context.Context) ([]uuid.UUID, error) {
	return s.ids, s.err
}

type countingStock struct {
	calls atomic.Int32
	err   error
}

func (c *countingStock) LowStockCount(context.Context, uuid.UUID) (int64, error) {
	c.calls.Add(1)
	return 4, c.err
}

func TestEngineMetrics_PeriodicCollection(t *testing.T) {
	t.Run("collects every tenant until stopped", func(t *testing.T) {
		stock := &countingStock{}
		em, err := telemetry.NewEngineMetrics(telemetry.EngineMetricsConfig{
			Meter:         noop.NewMeterProvider().Meter("test"),
			StockProvider: stock,
		})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		em.StartPeriodicCollection(ctx, stubTenants{ids: []uuid.UUID{uuid.New(), uuid.New()}}, 10*time.Millisecond)
		em.StartPeriodicCollection(ctx, stubTenants{}, time.Millisecond)

		assert.Eventually(t, func() bool { return stock.calls.Load() >= 4 }, time.Second, 5*time.Millisecond)
		em.Stop()
		em.Stop()
	})

	t.Run("tenant listing failure skips the round", func(t *testing.T) {
		stock := &countingStock{}
		em, err := telemetry.NewEngineMetrics(telemetry.EngineMetricsConfig{
			Meter:         noop.NewMeterProvider().Meter("test"),
			StockProvider: stock,
		})
		require.NoError(t, err)

		ctx, cancel := context.WithCancel(context.Background())
		em.StartPeriodicCollection(ctx, stubTenants{err: errors.New("db down")}, 10*time.Millisecond)
		time.Sleep(30 * time.Millisecond)
		cancel()

		assert.Zero(t, stock.calls.Load())
	})
}
