package persistence

import (
	"fmt"
	"time"

	"github.com/juliohebert/loja-sub000/internal/infrastructure/config"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/logger"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/persistence/models"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/persistence/tenant"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/telemetry"
	"go.uber.org/zap"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Database holds the database connection and provides methods for database operations
type Database struct {
	DB *gorm.DB
}

// Options tunes logging and tracing of a new connection.
type Options struct {
	Logger        *zap.Logger
	LogLevel      string
	SlowThreshold time.Duration
	Tracing       *telemetry.DBTracingPlugin
}

// NewDatabase opens the configured driver, applies pool settings and installs
// the tenant guard plus optional tracing.
func NewDatabase(cfg *config.DatabaseConfig, opts Options) (*Database, error) {
	dialector, err := dialectorFor(cfg)
	if err != nil {
		return nil, err
	}

	db, err := gorm.Open(dialector, gormConfig(opts, cfg.Driver != config.DriverSQLite))
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	sqlDB, err := db.DB()
	if err != nil {
		return nil, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	if cfg.Driver == config.DriverSQLite {
		// one connection: sqlite serializes writers and ":memory:" lives per connection
		sqlDB.SetMaxOpenConns(1)
		sqlDB.SetMaxIdleConns(1)
	} else {
		sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
		sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
		sqlDB.SetConnMaxLifetime(time.Duration(cfg.ConnMaxLifetime) * time.Minute)
		sqlDB.SetConnMaxIdleTime(time.Duration(cfg.ConnMaxIdleTime) * time.Minute)
	}

	if err := sqlDB.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	if err := install(db, opts); err != nil {
		return nil, err
	}
	return &Database{DB: db}, nil
}

// OpenSQLite opens a single-connection sqlite database with the same plugins
// as NewDatabase. Used for local runs and tests.
func OpenSQLite(path string, opts Options) (*Database, error) {
	return NewDatabase(&config.DatabaseConfig{Driver: config.DriverSQLite, Path: path}, opts)
}

func dialectorFor(cfg *config.DatabaseConfig) (gorm.Dialector, error) {
	switch cfg.Driver {
	case config.DriverPostgres, "":
		return postgres.Open(cfg.DSN()), nil
	case config.DriverMySQL:
		return mysql.Open(cfg.DSN()), nil
	case config.DriverSQLite:
		return sqlite.Open(cfg.DSN()), nil
	default:
		return nil, fmt.Errorf("unsupported database driver %q", cfg.Driver)
	}
}

func gormConfig(opts Options, prepare bool) *gorm.Config {
	var gl gormlogger.Interface = gormlogger.Default.LogMode(gormlogger.Silent)
	if opts.Logger != nil {
		gl = logger.NewGormLogger(opts.Logger, logger.MapGormLogLevel(opts.LogLevel),
			logger.WithSlowThreshold(opts.SlowThreshold))
	}
	return &gorm.Config{
		Logger:                 gl,
		SkipDefaultTransaction: true,
		PrepareStmt:            prepare,
		TranslateError:         true,
	}
}

func install(db *gorm.DB, opts Options) error {
	if err := tenant.RegisterGuard(db); err != nil {
		return fmt.Errorf("failed to register tenant guard: %w", err)
	}
	if opts.Tracing != nil {
		if err := opts.Tracing.Register(db); err != nil {
			return fmt.Errorf("failed to register db tracing: %w", err)
		}
	}
	return nil
}

// AutoMigrate creates the engine schema from the models. Servers apply the
// SQL files under migrations/ instead; this serves sqlite and tests. The
// models declare native uuid columns, so mysql must use migrations/mysql.
func AutoMigrate(db *gorm.DB) error {
	if db.Dialector.Name() == config.DriverMySQL {
		return fmt.Errorf("auto migrate is not supported on mysql, apply migrations/mysql")
	}
	if err := db.AutoMigrate(
		&models.StockUnitModel{},
		&models.StockMovementModel{},
		&models.LedgerEntryModel{},
		&models.LedgerSettlementModel{},
		&models.CustomerAccountModel{},
		&models.CustomerTransactionModel{},
		&models.CustomerModel{},
		&models.SupplierModel{},
		&models.CashSessionModel{},
		&models.PurchaseOrderModel{},
		&models.PurchaseOrderItemModel{},
		&models.SaleModel{},
		&models.SaleItemModel{},
		&models.TenantSettingsModel{},
	); err != nil {
		return fmt.Errorf("auto migrate: %w", err)
	}

	// Partial unique indexes gorm tags cannot express.
	for _, stmt := range []string{
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_stock_movements_tenant_token ON stock_movements (tenant_id, token) WHERE token IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_sales_tenant_idempotency_key ON sales (tenant_id, idempotency_key) WHERE idempotency_key IS NOT NULL`,
		`CREATE UNIQUE INDEX IF NOT EXISTS uq_cash_sessions_one_open ON cash_sessions (tenant_id) WHERE status = 'open'`,
	} {
		if err := db.Exec(stmt).Error; err != nil {
			return fmt.Errorf("create index: %w", err)
		}
	}
	return nil
}

// Close closes the database connection
func (d *Database) Close() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Close()
}

// Ping checks if the database connection is alive
func (d *Database) Ping() error {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}

// ConnectionStats holds database connection pool statistics
type ConnectionStats struct {
	MaxOpenConnections int
	OpenConnections    int
	InUse              int
	Idle               int
	WaitCount          int64
	WaitDuration       time.Duration
}

// Stats returns connection pool statistics for the health endpoint
func (d *Database) Stats() (ConnectionStats, error) {
	sqlDB, err := d.DB.DB()
	if err != nil {
		return ConnectionStats{}, fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	s := sqlDB.Stats()
	return ConnectionStats{
		MaxOpenConnections: s.MaxOpenConnections,
		OpenConnections:    s.OpenConnections,
		InUse:              s.InUse,
		Idle:               s.Idle,
		WaitCount:          s.WaitCount,
		WaitDuration:       s.WaitDuration,
	}, nil
}
