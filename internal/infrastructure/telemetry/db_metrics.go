package telemetry

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Database metric attribute keys.
var (
	AttrDBOperation = attribute.Key("db_operation")
	AttrDBTable     = attribute.Key("db_table")
	AttrDBState     = attribute.Key("state")
)

// DBDurationBuckets are histogram boundaries in seconds for query latency.
var DBDurationBuckets = []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5}

const dbMetricsStartKey = "db_metrics:start"

// DBMetricsConfig configures DBMetrics.
type DBMetricsConfig struct {
	SlowQueryThreshold time.Duration // default 200ms
}

// DBMetrics counts queries per operation and reports connection pool usage.
// Pool gauges are observed at collection time, so there is no polling goroutine.
type DBMetrics struct {
	logger        *zap.Logger
	slowThreshold time.Duration

	queryTotal    metric.Int64Counter
	queryDuration metric.Float64Histogram
	slowQueries   metric.Int64Counter
	registration  metric.Registration
}

// NewDBMetrics registers the query instruments and, when sqlDB is set, the
// pool gauges.
func NewDBMetrics(meter metric.Meter, sqlDB *sql.DB, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	if meter == nil {
		return nil, ErrMeterNil
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.SlowQueryThreshold <= 0 {
		cfg.SlowQueryThreshold = 200 * time.Millisecond
	}
	m := &DBMetrics{logger: logger, slowThreshold: cfg.SlowQueryThreshold}

	var err error
	if m.queryTotal, err = meter.Int64Counter("db_query_total",
		metric.WithDescription("Database queries by operation and outcome"),
		metric.WithUnit("{query}")); err != nil {
		return nil, err
	}
	if m.queryDuration, err = meter.Float64Histogram("db_query_duration_seconds",
		metric.WithDescription("Database query latency"),
		metric.WithUnit("s"),
		metric.WithExplicitBucketBoundaries(DBDurationBuckets...)); err != nil {
		return nil, err
	}
	if m.slowQueries, err = meter.Int64Counter("db_slow_query_total",
		metric.WithDescription("Database queries slower than the slow query threshold, by table"),
		metric.WithUnit("{query}")); err != nil {
		return nil, err
	}

	if sqlDB != nil {
		if m.registration, err = registerPoolGauges(meter, sqlDB); err != nil {
			return nil, err
		}
	}
	return m, nil
}

func registerPoolGauges(meter metric.Meter, sqlDB *sql.DB) (metric.Registration, error) {
	connections, err := meter.Int64ObservableGauge("db_pool_connections",
		metric.WithDescription("Connections in the pool by state"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return nil, err
	}
	maxOpen, err := meter.Int64ObservableGauge("db_pool_connections_max",
		metric.WithDescription("Maximum open connections allowed"),
		metric.WithUnit("{connection}"))
	if err != nil {
		return nil, err
	}
	waits, err := meter.Int64ObservableCounter("db_pool_wait_total",
		metric.WithDescription("Connections waited for because the pool was exhausted"),
		metric.WithUnit("{wait}"))
	if err != nil {
		return nil, err
	}
	waitDuration, err := meter.Float64ObservableCounter("db_pool_wait_duration_seconds",
		metric.WithDescription("Total time blocked waiting for a connection"),
		metric.WithUnit("s"))
	if err != nil {
		return nil, err
	}

	return meter.RegisterCallback(func(_ context.Context, o metric.Observer) error {
		stats := sqlDB.Stats()
		o.ObserveInt64(connections, int64(stats.Idle), metric.WithAttributes(AttrDBState.String("idle")))
		o.ObserveInt64(connections, int64(stats.InUse), metric.WithAttributes(AttrDBState.String("in_use")))
		o.ObserveInt64(connections, int64(stats.OpenConnections), metric.WithAttributes(AttrDBState.String("open")))
		o.ObserveInt64(maxOpen, int64(stats.MaxOpenConnections))
		o.ObserveInt64(waits, stats.WaitCount)
		o.ObserveFloat64(waitDuration, stats.WaitDuration.Seconds())
		return nil
	}, connections, maxOpen, waits, waitDuration)
}

// RecordQuery records one finished query.
func (m *DBMetrics) RecordQuery(ctx context.Context, operation, table string, duration time.Duration, err error) {
	operation = strings.ToUpper(operation)
	if operation == "" {
		operation = "OTHER"
	}
	outcome := "ok"
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		outcome = "error"
	}

	m.queryTotal.Add(ctx, 1, metric.WithAttributes(AttrDBOperation.String(operation), AttrOutcome.String(outcome)))
	m.queryDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(AttrDBOperation.String(operation)))
	if duration > m.slowThreshold {
		if table == "" {
			table = "unknown"
		}
		m.slowQueries.Add(ctx, 1, metric.WithAttributes(AttrDBTable.String(table)))
	}
}

// Stop unregisters the pool gauges. It is a no-op on a nil DBMetrics.
func (m *DBMetrics) Stop() {
	if m == nil || m.registration == nil {
		return
	}
	if err := m.registration.Unregister(); err != nil {
		m.logger.Warn("Failed to unregister pool gauges", zap.Error(err))
	}
	m.registration = nil
}

// Name implements gorm.Plugin.
func (m *DBMetrics) Name() string {
	return "db_metrics"
}

// Initialize implements gorm.Plugin. Start times live on the statement
// instance so they survive callbacks that swap the statement context.
func (m *DBMetrics) Initialize(db *gorm.DB) error {
	cb := db.Callback()
	type hook struct {
		name      string
		operation string
		before    func(string, func(*gorm.DB)) error
		after     func(string, func(*gorm.DB)) error
	}
	hooks := []hook{
		{"create", "INSERT", cb.Create().Before("gorm:create").Register, cb.Create().After("gorm:create").Register},
		{"query", "SELECT", cb.Query().Before("gorm:query").Register, cb.Query().After("gorm:query").Register},
		{"update", "UPDATE", cb.Update().Before("gorm:update").Register, cb.Update().After("gorm:update").Register},
		{"delete", "DELETE", cb.Delete().Before("gorm:delete").Register, cb.Delete().After("gorm:delete").Register},
		{"row", "", cb.Row().Before("gorm:row").Register, cb.Row().After("gorm:row").Register},
		{"raw", "", cb.Raw().Before("gorm:raw").Register, cb.Raw().After("gorm:raw").Register},
	}
	for _, h := range hooks {
		if err := h.before("db_metrics:before_"+h.name, startQueryClock); err != nil {
			return err
		}
		if err := h.after("db_metrics:after_"+h.name, m.afterQuery(h.operation)); err != nil {
			return err
		}
	}
	return nil
}

func startQueryClock(db *gorm.DB) {
	db.InstanceSet(dbMetricsStartKey, time.Now())
}

func (m *DBMetrics) afterQuery(operation string) func(*gorm.DB) {
	return func(db *gorm.DB) {
		if db.DryRun {
			return
		}
		ctx := db.Statement.Context
		if ctx == nil {
			ctx = context.Background()
		}
		var duration time.Duration
		if v, ok := db.InstanceGet(dbMetricsStartKey); ok {
			if start, ok := v.(time.Time); ok {
				duration = time.Since(start)
			}
		}
		op := operation
		if op == "" {
			op = detectOperation(db.Statement.SQL.String())
		}
		m.RecordQuery(ctx, op, db.Statement.Table, duration, db.Error)
	}
}

// detectOperation reads the statement verb of raw SQL.
func detectOperation(query string) string {
	query = strings.ToUpper(strings.TrimSpace(query))
	for _, verb := range []string{"SELECT", "INSERT", "UPDATE", "DELETE"} {
		if strings.HasPrefix(query, verb) {
			return verb
		}
	}
	return "OTHER"
}

// RegisterDBMetrics builds DBMetrics for db and installs it as a GORM plugin.
func RegisterDBMetrics(db *gorm.DB, meter metric.Meter, cfg DBMetricsConfig, logger *zap.Logger) (*DBMetrics, error) {
	sqlDB, err := db.DB()
	if err != nil {
		return nil, err
	}
	m, err := NewDBMetrics(meter, sqlDB, cfg, logger)
	if err != nil {
		return nil, err
	}
	if err := db.Use(m); err != nil {
		m.Stop()
		return nil, err
	}
	m.logger.Info("Database metrics registered", zap.Duration("slow_query_threshold", m.slowThreshold))
	return m, nil
}
