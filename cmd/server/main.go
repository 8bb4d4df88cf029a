package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	cashierapp "github.com/juliohebert/loja-sub000/internal/application/cashier"
	financeapp "github.com/juliohebert/loja-sub000/internal/application/finance"
	inventoryapp "github.com/juliohebert/loja-sub000/internal/application/inventory"
	partnerapp "github.com/juliohebert/loja-sub000/internal/application/partner"
	tradeapp "github.com/juliohebert/loja-sub000/internal/application/trade"
	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/juliohebert/loja-sub000/internal/domain/tenant"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/auth"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/cache"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/config"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/event"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/lock"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/logger"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/persistence"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/telemetry"
	"github.com/juliohebert/loja-sub000/internal/interfaces/http/handler"
	"github.com/juliohebert/loja-sub000/internal/interfaces/http/middleware"
	"github.com/juliohebert/loja-sub000/internal/interfaces/http/router"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// version is set at build time with -ldflags "-X main.version=..."
var version = "dev"

const lowStockCollectInterval = time.Minute

func main() {
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	logCfg := &logger.Config{
		Level:      cfg.Log.Level,
		Format:     cfg.Log.Format,
		Output:     cfg.Log.Output,
		TimeFormat: cfg.Log.TimeFormat,
	}
	log, err := logger.New(logCfg)
	if err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}

	ctx := context.Background()
	serviceName := cfg.Telemetry.ServiceName
	if serviceName == "" {
		serviceName = cfg.App.Name
	}

	tracer, err := telemetry.NewTracerProvider(ctx, telemetry.Config{
		Enabled:           cfg.Telemetry.Enabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		SamplingRatio:     cfg.Telemetry.SamplingRatio,
		ServiceName:       serviceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize tracing", zap.Error(err))
	}
	meters, err := telemetry.NewMeterProvider(ctx, telemetry.MetricsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.MetricsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       serviceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize metrics", zap.Error(err))
	}
	logs, err := telemetry.NewLoggerProvider(ctx, telemetry.LogsConfig{
		Enabled:           cfg.Telemetry.Enabled && cfg.Telemetry.LogsEnabled,
		CollectorEndpoint: cfg.Telemetry.CollectorEndpoint,
		ServiceName:       serviceName,
		ServiceVersion:    version,
		Insecure:          cfg.Telemetry.Insecure,
	}, log)
	if err != nil {
		log.Fatal("Failed to initialize log export", zap.Error(err))
	}
	if logs.IsEnabled() {
		// rebuild with the OTLP core teed next to stdout
		if log, err = logger.New(logCfg, telemetry.NewZapOTELCore(logs, logger.ParseLevel(cfg.Log.Level))); err != nil {
			panic("Failed to initialize logger: " + err.Error())
		}
	}
	defer func() { _ = log.Sync() }()

	log.Info("Starting store engine",
		zap.String("app", cfg.App.Name),
		zap.String("env", cfg.App.Env),
		zap.String("port", cfg.App.Port),
		zap.String("version", version),
	)

	profiler, err := telemetry.NewProfiler(telemetry.ProfilerConfig{
		Enabled:           cfg.Profiling.Enabled,
		ServerAddress:     cfg.Profiling.ServerAddress,
		ApplicationName:   cfg.Profiling.ApplicationName,
		BasicAuthUser:     cfg.Profiling.BasicAuthUser,
		BasicAuthPassword: cfg.Profiling.BasicAuthPassword,
		ProfileTypes:      cfg.Profiling.ProfileTypes,
		Tags:              map[string]string{"env": cfg.App.Env, "version": version},
	}, log)
	if err != nil {
		log.Fatal("Failed to start profiler", zap.Error(err))
	}
	if cfg.Profiling.SpanProfiles && profiler.IsEnabled() {
		tracer.EnableSpanProfiles()
	}

	var dbTracing *telemetry.DBTracingPlugin
	if cfg.Telemetry.Enabled && cfg.Telemetry.DBTraceEnabled {
		tracingCfg := telemetry.DefaultDBTracingConfig()
		tracingCfg.Enabled = true
		tracingCfg.LogFullSQL = cfg.Telemetry.DBLogFullSQL
		tracingCfg.DBSystem = dbSystem(cfg.Database.Driver)
		if cfg.Telemetry.DBSlowQueryThresh > 0 {
			tracingCfg.SlowQueryThresh = cfg.Telemetry.DBSlowQueryThresh
		}
		dbTracing = telemetry.NewDBTracingPlugin(tracingCfg, log)
	}

	db, err := persistence.NewDatabase(&cfg.Database, persistence.Options{
		Logger:   log,
		LogLevel: cfg.Log.Level,
		Tracing:  dbTracing,
	})
	if err != nil {
		log.Fatal("Failed to connect to database", zap.Error(err))
	}
	defer func() {
		if err := db.Close(); err != nil {
			log.Error("Error closing database", zap.Error(err))
		}
	}()
	if cfg.Database.Driver == config.DriverSQLite {
		// sqlite has no SQL migrations; the schema comes from the models
		if err := persistence.AutoMigrate(db.DB); err != nil {
			log.Fatal("Failed to create sqlite schema", zap.Error(err))
		}
	}
	log.Info("Database connected", zap.String("driver", cfg.Database.Driver))

	// A nil *redis.Client must not reach the factories as a non-nil interface.
	var redisClient redis.UniversalClient
	if cfg.Redis.Enabled {
		client, err := cache.NewRedisClient(cfg.Redis)
		if err != nil {
			log.Fatal("Failed to connect to redis", zap.Error(err))
		}
		defer func() { _ = client.Close() }()
		redisClient = client
		log.Info("Redis connected", zap.String("addr", cfg.Redis.Addr()))
	}
	idempotency := cache.NewIdempotencyStore(redisClient, log)
	defer func() { _ = idempotency.Close() }()
	locker := lock.New(redisClient, cfg.Lock, log)

	// Services share one transaction scope so a sale commits all its writes together.
	scope := persistence.NewGormTransactionScope(db.DB)
	directory := persistence.NewGormPartnerDirectory(db.DB)
	settings := persistence.NewGormSettingsProvider(db.DB, tenant.StaticSettingsProvider{
		RequireOpenCashSession: cfg.Sales.RequireOpenCashSession,
	})

	stockService := inventoryapp.NewStockLedgerService(scope, log)
	ledgerService := financeapp.NewLedgerService(scope, log)
	ledgerService.SetCustomerLocker(locker)
	accountService := partnerapp.NewCustomerAccountService(scope, locker, log)
	accountService.SetCustomerDirectory(directory)
	sessionService := cashierapp.NewCashSessionService(scope, settings, log)
	purchaseOrderService := tradeapp.NewPurchaseOrderService(scope, log)
	purchaseOrderService.SetSupplierDirectory(directory)
	purchaseOrderService.SetPayableTermDays(cfg.Ledger.PayableTermDays)
	saleService := tradeapp.NewSaleService(scope, sessionService, locker, log)
	saleService.SetCustomerDirectory(directory)

	eventBus := event.NewInMemoryEventBus(log)
	reorder := event.NewIdempotentHandler(
		"reorder-warning",
		inventoryapp.NewReorderWarningHandler(persistence.NewGormStockUnitRepository(db.DB), log),
		idempotency,
		shared.IdempotencyConfig{Enabled: true, TTL: cfg.Sales.IdempotencyTTL},
		log,
	)
	eventBus.Subscribe(reorder)
	if err := eventBus.Start(ctx); err != nil {
		log.Fatal("Failed to start event bus", zap.Error(err))
	}
	for _, svc := range []interface {
		SetEventPublisher(shared.EventPublisher)
	}{stockService, ledgerService, accountService, sessionService, purchaseOrderService, saleService} {
		svc.SetEventPublisher(eventBus)
	}

	var dbMetrics *telemetry.DBMetrics
	if meters.IsEnabled() {
		dbMetrics, err = telemetry.RegisterDBMetrics(db.DB, meters.Meter("db.client"), telemetry.DBMetricsConfig{
			SlowQueryThreshold: cfg.Telemetry.DBSlowQueryThresh,
		}, log)
		if err != nil {
			log.Fatal("Failed to register database metrics", zap.Error(err))
		}
	}

	stockMetrics := telemetry.NewGormStockMetricsProvider(db.DB)
	engineMetrics, err := telemetry.NewEngineMetrics(telemetry.EngineMetricsConfig{
		Meter:         meters.Meter("loja.engine"),
		Logger:        log,
		StockProvider: stockMetrics,
	})
	if err != nil {
		log.Fatal("Failed to register engine metrics", zap.Error(err))
	}
	saleService.SetMetrics(engineMetrics)
	if meters.IsEnabled() {
		engineMetrics.StartPeriodicCollection(ctx, stockMetrics, lowStockCollectInterval)
	}

	health := handler.NewHealthHandler(db, version)
	if redisClient != nil {
		health.AddCheck("redis", func(ctx context.Context) error {
			return redisClient.Ping(ctx).Err()
		})
	}

	routerCfg := router.Config{
		Logger:         log,
		HTTP:           cfg.HTTP,
		ServiceName:    serviceName,
		TracingEnabled: tracer.IsEnabled(),
	}
	routerCfg.ProfilingEnabled = profiler.IsEnabled()
	if cfg.JWT.Enabled {
		routerCfg.Tokens = middleware.TokenValidator(auth.NewJWTService(cfg.JWT))
	} else {
		log.Warn("JWT disabled; tenant and user are read from X-Tenant-ID and X-User-ID headers")
	}

	engine := router.New(routerCfg, router.Handlers{
		Sales:          handler.NewSaleHandler(saleService),
		Ledger:         handler.NewLedgerHandler(ledgerService),
		Accounts:       handler.NewCustomerAccountHandler(accountService),
		PurchaseOrders: handler.NewPurchaseOrderHandler(purchaseOrderService),
		CashSessions:   handler.NewCashSessionHandler(sessionService),
		StockUnits:     handler.NewStockUnitHandler(stockService),
		Health:         health,
	})

	srv := &http.Server{
		Addr:           ":" + cfg.App.Port,
		Handler:        engine,
		ReadTimeout:    cfg.HTTP.ReadTimeout,
		WriteTimeout:   cfg.HTTP.WriteTimeout,
		IdleTimeout:    cfg.HTTP.IdleTimeout,
		MaxHeaderBytes: cfg.HTTP.MaxHeaderBytes,
	}

	go func() {
		log.Info("Server starting", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	log.Info("Shutting down server...")

	shutdownTimeout := cfg.HTTP.ShutdownTimeout
	if shutdownTimeout <= 0 {
		shutdownTimeout = 30 * time.Second
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}
	engineMetrics.Stop()
	dbMetrics.Stop()
	if err := profiler.Stop(); err != nil {
		log.Warn("Profiler stop failed", zap.Error(err))
	}
	if err := eventBus.Stop(shutdownCtx); err != nil {
		log.Warn("Event bus stop failed", zap.Error(err))
	}
	// flush telemetry last so shutdown spans and logs are exported
	for name, shutdown := range map[string]func(context.Context) error{
		"tracer": tracer.Shutdown,
		"meter":  meters.Shutdown,
		"logs":   logs.Shutdown,
	} {
		if err := shutdown(shutdownCtx); err != nil {
			log.Warn("Telemetry shutdown failed", zap.String("provider", name), zap.Error(err))
		}
	}

	log.Info("Server exited gracefully")
}

// dbSystem names the driver the way OpenTelemetry semantic conventions do.
func dbSystem(driver string) string {
	switch driver {
	case config.DriverMySQL:
		return "mysql"
	case config.DriverSQLite:
		return "sqlite"
	default:
		return "postgresql"
	}
}
