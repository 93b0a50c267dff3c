package postgres

import (
	"embed"
	"errors"
	"fmt"
	"log/slog"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database"
	migratepgx "github.com/golang-migrate/migrate/v4/database/pgx/v5"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/stdlib"
)

//go:embed migrations/*.sql
var migrationFiles embed.FS

// migrator is the part of *migrate.Migrate that RunMigrations drives.
type migrator interface {
	Up() error
	Version() (uint, bool, error)
	Close() (error, error)
}

// RunMigrations applies every pending migration in migrations/ to the pool's
// database. It is a no-op when the schema is already current.
func RunMigrations(pool *pgxpool.Pool, logger *slog.Logger) error {
	logger.Info("Running database migrations...")

	sqlDB := stdlib.OpenDBFromPool(pool)

	dbDriver, err := migratepgx.WithInstance(sqlDB, &migratepgx.Config{})
	if err != nil {
		sqlDB.Close()
		return fmt.Errorf("failed to create migration database driver: %w", err)
	}

	m, err := newMigrator(dbDriver)
	if err != nil {
		// The driver holds a pooled connection until it is closed.
		if cerr := dbDriver.Close(); cerr != nil {
			logger.Warn("Failed to close migration database driver", "error", cerr)
		}
		return err
	}

	return applyMigrations(m, logger)
}

// applyMigrations runs m up and always closes it, which returns the
// connection the migration driver acquired from the pool.
func applyMigrations(m migrator, logger *slog.Logger) error {
	defer func() {
		srcErr, dbErr := m.Close()
		if srcErr != nil || dbErr != nil {
			logger.Warn("Failed to close migrator", "source_error", srcErr, "database_error", dbErr)
		}
	}()

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	version, dirty, verr := m.Version()
	if verr != nil && !errors.Is(verr, migrate.ErrNilVersion) {
		logger.Warn("Could not read migration version", "error", verr)
	}
	logger.Info("Database migrations complete", "version", version, "dirty", dirty)
	return nil
}

func newMigrator(dbDriver database.Driver) (*migrate.Migrate, error) {
	src, err := iofs.New(migrationFiles, "migrations")
	if err != nil {
		return nil, fmt.Errorf("failed to open embedded migrations: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "pgx5", dbDriver)
	if err != nil {
		return nil, fmt.Errorf("failed to create migrator: %w", err)
	}
	return m, nil
}
