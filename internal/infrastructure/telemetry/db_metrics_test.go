package telemetry

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	"go.uber.org/zap/zaptest"
	"gorm.io/gorm"
)

// collectDBPoints flattens the reader's data points into name -> encoded attributes -> value.
// Histograms report their sample count.
func collectDBPoints(t *testing.T, reader *sdkmetric.ManualReader) map[string]map[string]float64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	require.NoError(t, reader.Collect(context.Background(), &rm))

	enc := attribute.DefaultEncoder()
	points := map[string]map[string]float64{}
	put := func(name string, attrs attribute.Set, v float64) {
		if points[name] == nil {
			points[name] = map[string]float64{}
		}
		points[name][attrs.Encoded(enc)] += v
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				for _, dp := range data.DataPoints {
					put(m.Name, dp.Attributes, float64(dp.Value))
				}
			case metricdata.Sum[float64]:
				for _, dp := range data.DataPoints {
					put(m.Name, dp.Attributes, dp.Value)
				}
			case metricdata.Gauge[int64]:
				for _, dp := range data.DataPoints {
					put(m.Name, dp.Attributes, float64(dp.Value))
				}
			case metricdata.Histogram[float64]:
				for _, dp := range data.DataPoints {
					put(m.Name, dp.Attributes, float64(dp.Count))
				}
			}
		}
	}
	return points
}

func setupMetricsDB(t *testing.T, cfg DBMetricsConfig) (*DBMetrics, *sdkmetric.ManualReader, *gorm.DB) {
	t.Helper()
	db := setupTestDB(t)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))
	t.Cleanup(func() { _ = provider.Shutdown(context.Background()) })

	m, err := RegisterDBMetrics(db, provider.Meter("db.client"), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	t.Cleanup(m.Stop)
	return m, reader, db
}

func TestNewDBMetrics_RequiresMeter(t *testing.T) {
	_, err := NewDBMetrics(nil, nil, DBMetricsConfig{}, nil)
	assert.ErrorIs(t, err, ErrMeterNil)
}

func TestDBMetrics_CountsQueriesByOperation(t *testing.T) {
	_, reader, db := setupMetricsDB(t, DBMetricsConfig{})

	row := stockUnitRow{ID: uuid.New(), TenantID: uuid.New(), Quantity: 3}
	require.NoError(t, db.Create(&row).Error)
	assert.Error(t, db.Create(&row).Error, "duplicate primary key")

	var found stockUnitRow
	require.NoError(t, db.First(&found, "id = ?", row.ID).Error)
	require.NoError(t, db.Model(&found).Update("quantity", 5).Error)

	var count int64
	require.NoError(t, db.Raw("SELECT count(*) FROM stock_units").Scan(&count).Error)
	assert.Equal(t, int64(1), count)

	require.NoError(t, db.Delete(&found).Error)

	points := collectDBPoints(t, reader)
	queries := points["db_query_total"]
	require.NotNil(t, queries)
	assert.Equal(t, 1.0, queries["db_operation=INSERT,outcome=ok"])
	assert.Equal(t, 1.0, queries["db_operation=INSERT,outcome=error"])
	assert.Equal(t, 1.0, queries["db_operation=UPDATE,outcome=ok"])
	assert.Equal(t, 1.0, queries["db_operation=DELETE,outcome=ok"])
	assert.Equal(t, 2.0, queries["db_operation=SELECT,outcome=ok"], "First and the raw count")

	durations := points["db_query_duration_seconds"]
	assert.Equal(t, 2.0, durations["db_operation=INSERT"])
	assert.Empty(t, points["db_slow_query_total"], "nothing is slow at the default threshold")
}

func TestDBMetrics_MissingRowIsNotAnError(t *testing.T) {
	_, reader, db := setupMetricsDB(t, DBMetricsConfig{})

	var found stockUnitRow
	require.Error(t, db.First(&found, "id = ?", uuid.New()).Error)

	queries := collectDBPoints(t, reader)["db_query_total"]
	assert.Equal(t, 1.0, queries["db_operation=SELECT,outcome=ok"])
	assert.Zero(t, queries["db_operation=SELECT,outcome=error"])
}

func TestDBMetrics_SlowQueriesByTable(t *testing.T) {
	_, reader, db := setupMetricsDB(t, DBMetricsConfig{SlowQueryThreshold: time.Nanosecond})

	require.NoError(t, db.Create(&stockUnitRow{ID: uuid.New(), TenantID: uuid.New()}).Error)
	var rows []stockUnitRow
	require.NoError(t, db.Find(&rows).Error)

	slow := collectDBPoints(t, reader)["db_slow_query_total"]
	assert.Equal(t, 2.0, slow["db_table=stock_units"])
}

func TestDBMetrics_PoolGauges(t *testing.T) {
	m, reader, db := setupMetricsDB(t, DBMetricsConfig{})
	require.NoError(t, db.Exec("SELECT 1").Error)

	points := collectDBPoints(t, reader)
	assert.Equal(t, 1.0, points["db_pool_connections_max"][""])
	assert.Equal(t, 1.0, points["db_pool_connections"]["state=open"])
	assert.Equal(t, 1.0, points["db_pool_connections"]["state=idle"])
	assert.Zero(t, points["db_pool_connections"]["state=in_use"])
	assert.Contains(t, points, "db_pool_wait_total")

	m.Stop()
	m.Stop()
	after := collectDBPoints(t, reader)
	assert.Empty(t, after["db_pool_connections"], "gauges stop reporting once unregistered")
}

func TestDetectOperation(t *testing.T) {
	tests := []struct {
		query string
		want  string
	}{
		{"SELECT * FROM sales", "SELECT"},
		{"  insert into sales values (1)", "INSERT"},
		{"UPDATE stock_units SET quantity = 1", "UPDATE"},
		{"delete from sales", "DELETE"},
		{"WITH x AS (SELECT 1) SELECT * FROM x", "OTHER"},
		{"", "OTHER"},
	}
	for _, tt := range tests {
		t.Run(tt.want+"/"+tt.query, func(t *testing.T) {
			assert.Equal(t, tt.want, detectOperation(tt.query))
		})
	}
}
