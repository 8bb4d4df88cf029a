package main

import (
	"database/sql"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/go-sql-driver/mysql"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/config"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/logger"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/migration"
	_ "github.com/lib/pq"
	"go.uber.org/zap"
)

const defaultMigrationsRoot = "migrations"

func main() {
	var (
		root     string
		logLevel string
	)
	flag.StringVar(&root, "path", defaultMigrationsRoot, "Root of the migrations tree; files live under <root>/<driver>")
	flag.StringVar(&logLevel, "log-level", "info", "Log level (debug, info, warn, error)")
	flag.Parse()

	args := flag.Args()
	if len(args) == 0 {
		printUsage()
		os.Exit(1)
	}
	command := args[0]

	log, err := logger.New(&logger.Config{Level: logLevel, Format: "console", Output: "stdout"})
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal("failed to load configuration", zap.Error(err))
	}
	driver := cfg.Database.Driver

	root, err = filepath.Abs(root)
	if err != nil {
		log.Fatal("failed to resolve migrations path", zap.Error(err))
	}
	dir := migration.SourceDir(root, driver)
	log.Info("migration cli started",
		zap.String("command", command),
		zap.String("driver", driver),
		zap.String("migrations_path", dir),
	)

	switch command {
	case "create":
		if len(args) < 2 {
			log.Fatal("usage: migrate create <name> [description]")
		}
		description := ""
		if len(args) > 2 {
			description = args[2]
		}
		// every driver gets the pair so the trees stay in step
		for _, d := range []string{config.DriverPostgres, config.DriverMySQL} {
			mf, err := migration.CreateMigration(migration.SourceDir(root, d), args[1], description)
			if err != nil {
				log.Fatal("failed to create migration", zap.String("driver", d), zap.Error(err))
			}
			log.Info("migration created",
				zap.Uint("version", mf.Version),
				zap.String("up_file", mf.UpPath),
				zap.String("down_file", mf.DownPath),
			)
		}
		return

	case "list":
		migrations, err := migration.ListMigrations(dir)
		if err != nil {
			log.Fatal("failed to list migrations", zap.Error(err))
		}
		for _, m := range migrations {
			fmt.Printf("  %06d %s\n", m.Version, m.Name)
		}
		return
	}

	db, err := openDB(&cfg.Database)
	if err != nil {
		log.Fatal("failed to connect to database", zap.Error(err))
	}
	defer db.Close()

	m, err := migration.New(db, driver, dir, log)
	if err != nil {
		log.Fatal("failed to create migrator", zap.Error(err))
	}
	defer func() { _ = m.Close() }()

	if err := run(m, command, args[1:], log); err != nil {
		log.Fatal("migration command failed", zap.String("command", command), zap.Error(err))
	}
}

// openDB opens a plain database/sql connection. mysql needs multiStatements
// because each migration file holds several statements.
func openDB(cfg *config.DatabaseConfig) (*sql.DB, error) {
	var (
		db  *sql.DB
		err error
	)
	switch cfg.Driver {
	case config.DriverPostgres:
		db, err = sql.Open("postgres", cfg.DSN())
	case config.DriverMySQL:
		mc, perr := mysql.ParseDSN(cfg.DSN())
		if perr != nil {
			return nil, perr
		}
		mc.MultiStatements = true
		db, err = sql.Open("mysql", mc.FormatDSN())
	default:
		return nil, fmt.Errorf("driver %q has no SQL migrations; sqlite schemas are created by the server", cfg.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := db.Ping(); err != nil {
		_ = db.Close()
		return nil, err
	}
	return db, nil
}

func run(m *migration.Migrator, command string, args []string, log *zap.Logger) error {
	switch command {
	case "up":
		return m.Up()
	case "down":
		return m.Down()
	case "steps":
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Steps(n)
	case "goto":
		n, err := intArg(args)
		if err != nil {
			return err
		}
		if n < 0 {
			return fmt.Errorf("version must not be negative")
		}
		return m.GoTo(uint(n))
	case "version":
		version, dirty, err := m.Version()
		if err != nil {
			return err
		}
		log.Info("current migration version", zap.Uint("version", version), zap.Bool("dirty", dirty))
		return nil
	case "force":
		n, err := intArg(args)
		if err != nil {
			return err
		}
		return m.Force(n)
	default:
		printUsage()
		return fmt.Errorf("unknown command %q", command)
	}
}

func intArg(args []string) (int, error) {
	if len(args) == 0 {
		return 0, fmt.Errorf("missing numeric argument")
	}
	n, err := strconv.Atoi(args[0])
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", args[0])
	}
	return n, nil
}

func printUsage() {
	fmt.Println(`Store engine schema migrations

Usage:
  migrate [flags] <command> [arguments]

Commands:
  up                    Apply all pending migrations
  down                  Roll back all migrations
  steps <n>             Apply n migrations (negative rolls back)
  goto <version>        Migrate to a specific version
  version               Show the applied version
  force <version>       Record a version without running it
  create <name> [desc]  Create the next migration pair for every driver
  list                  List migrations of the configured driver

Flags:
  -path string          Migrations root (default: ./migrations)
  -log-level string     Log level: debug, info, warn, error (default: info)

The driver and connection come from the server configuration
(config.toml, .env or LOJA_DATABASE_* environment variables).`)
}
