package storage

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/database/sqlite3"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"           // postgres driver
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver
)

const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
)

//go:embed migrations/sqlite/*.sql migrations/postgres/*.sql
var migrationsFS embed.FS

// Open connects to the database and applies pending migrations.
// For sqlite dsn is a file path.
func Open(ctx context.Context, driver, dsn string, logger *slog.Logger) (*sqlx.DB, error) {
	var (
		db  *sqlx.DB
		err error
	)

	switch driver {
	case DriverSQLite:
		if dir := filepath.Dir(dsn); dir != "." {
			if err := os.MkdirAll(dir, 0o755); err != nil {
				return nil, fmt.Errorf("create db dir: %w", err)
			}
		}
		db, err = sqlx.ConnectContext(ctx, "sqlite3", dsn)
		if err == nil {
			db.SetMaxOpenConns(1)
		}
	case DriverPostgres:
		db, err = sqlx.ConnectContext(ctx, "postgres", dsn)
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}
	if err != nil {
		return nil, fmt.Errorf("connect to %s: %w", driver, err)
	}

	if err := migrateUp(ctx, db, driver, logger); err != nil {
		_ = db.Close()
		return nil, err
	}

	return db, nil
}

// migrateUp applies the embedded migrations. The postgres driver gets a
// connection of its own that is released before returning; the sqlite
// driver shares the single pooled connection, so only the source is closed.
func migrateUp(ctx context.Context, db *sqlx.DB, driver string, logger *slog.Logger) error {
	var (
		dbInstance database.Driver
		release    = func() error { return nil }
		err        error
	)

	switch driver {
	case DriverSQLite:
		dbInstance, err = sqlite3.WithInstance(db.DB, &sqlite3.Config{})
	case DriverPostgres:
		conn, connErr := db.Conn(ctx)
		if connErr != nil {
			return fmt.Errorf("acquire migration conn: %w", connErr)
		}
		release = conn.Close
		dbInstance, err = postgres.WithConnection(ctx, conn, &postgres.Config{})
	}
	if err != nil {
		_ = release()
		return fmt.Errorf("create DB instance: %w", err)
	}

	srcInstance, err := iofs.New(migrationsFS, "migrations/"+driver)
	if err != nil {
		_ = release()
		return fmt.Errorf("create source instance: %w", err)
	}
	defer func() {
		if err := srcInstance.Close(); err != nil {
			logger.WarnContext(ctx, "failed to close migration source", "error", err)
		}
		if err := release(); err != nil {
			logger.WarnContext(ctx, "failed to release migration conn", "error", err)
		}
	}()

	m, err := migrate.NewWithInstance("iofs", srcInstance, driver, dbInstance)
	if err != nil {
		return fmt.Errorf("create migrate instance: %w", err)
	}

	if err := m.Up(); err != nil {
		if !errors.Is(err, migrate.ErrNoChange) {
			return fmt.Errorf("apply migrations: %w", err)
		}
		logger.DebugContext(ctx, "no migrations to apply", "driver", driver)
		return nil
	}

	version, dirty, _ := m.Version()
	logger.InfoContext(ctx, "db is migrated", "driver", driver, "version", version, "dirty", dirty)

	return nil
}
