package repository

import (
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	pgxmigrate "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	sqlitemigrate "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx driver
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq" // PostgreSQL driver
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // SQLite driver

	"userapi/internal/config"
)

//go:embed migrations
var migrationFiles embed.FS

func init() {
	// modernc registers itself as "sqlite", which sqlx does not know about.
	sqlx.BindDriver(config.DriverSQLite, sqlx.QUESTION)
}

// NewDB establishes a new connection using the given driver name
// ("postgres", "pgx" or "sqlite").
func NewDB(driver, dataSourceName string, logger *zap.Logger) (*sqlx.DB, error) {
	db, err := sqlx.Connect(driver, dataSourceName)
	if err != nil {
		return nil, fmt.Errorf("connect %s: %w", driver, err)
	}

	if driver == config.DriverSQLite {
		// A single connection keeps in-memory databases shared and serialises writers.
		db.SetMaxOpenConns(1)
	}

	logger.Info("Successfully connected to the database!", zap.String("driver", driver))
	return db, nil
}

// MigrateDB runs the embedded migrations for the connection's driver.
func MigrateDB(db *sqlx.DB, logger *zap.Logger) error {
	driver, dir, err := migrationDriver(db)
	if err != nil {
		return err
	}

	source, err := iofs.New(migrationFiles, "migrations/"+dir)
	if err != nil {
		return fmt.Errorf("open migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", source, db.DriverName(), driver)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("run database migration: %w", err)
	}

	logger.Info("Database migration was run successfully", zap.String("driver", db.DriverName()))
	return nil
}

func migrationDriver(db *sqlx.DB) (database.Driver, string, error) {
	var (
		driver database.Driver
		err    error
	)

	switch db.DriverName() {
	case config.DriverPostgres:
		driver, err = postgres.WithInstance(db.DB, &postgres.Config{})
		return driver, "postgres", wrapDriverErr(err)
	case config.DriverPgx:
		driver, err = pgxmigrate.WithInstance(db.DB, &pgxmigrate.Config{})
		return driver, "postgres", wrapDriverErr(err)
	case config.DriverSQLite:
		driver, err = sqlitemigrate.WithInstance(db.DB, &sqlitemigrate.Config{})
		return driver, "sqlite", wrapDriverErr(err)
	default:
		return nil, "", fmt.Errorf("no migrations for driver %q", db.DriverName())
	}
}

func wrapDriverErr(err error) error {
	if err != nil {
		return fmt.Errorf("get database instance for migrations: %w", err)
	}
	return nil
}
