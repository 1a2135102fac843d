package db

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"

	"github.com/golang-migrate/migrate/v4"
	migratesqlite "github.com/golang-migrate/migrate/v4/database/sqlite"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"go.uber.org/zap"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Schema versions.
const (
	// VersionInit creates every table.
	VersionInit uint = 1
	// VersionCableSignature adds the unique cable signature index. Existing
	// cable rows must be reconciled before it can be created.
	VersionCableSignature uint = 2
)

// Hook runs inside a transaction between two schema versions.
type Hook func(ctx context.Context, tx *sql.Tx) error

// Migrate brings the schema up to date. When the database is below
// VersionCableSignature, beforeIndex runs after VersionInit is applied and
// before the index is created. A nil hook is skipped.
func Migrate(ctx context.Context, db *sql.DB, logger *zap.Logger, beforeIndex Hook) error {
	m, closeSource, err := newMigrator(db)
	if err != nil {
		return err
	}
	defer closeSource()

	current, dirty, err := m.Version()
	if err != nil && !errors.Is(err, migrate.ErrNilVersion) {
		return fmt.Errorf("reading schema version: %w", err)
	}
	if dirty {
		return fmt.Errorf("schema version %d is dirty", current)
	}

	if errors.Is(err, migrate.ErrNilVersion) || current < VersionCableSignature {
		if err := step(m, VersionInit); err != nil {
			return err
		}
		if beforeIndex != nil {
			if err := runHook(ctx, db, beforeIndex); err != nil {
				return fmt.Errorf("running pre-index hook: %w", err)
			}
		}
		if err := step(m, VersionCableSignature); err != nil {
			return err
		}
	}

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("running migrations: %w", err)
	}

	version, _, _ := m.Version()
	logger.Info("schema up to date", zap.Uint("version", version))
	return nil
}

// MigrateTo moves the schema to exactly version, without hooks.
func MigrateTo(db *sql.DB, version uint) error {
	m, closeSource, err := newMigrator(db)
	if err != nil {
		return err
	}
	defer closeSource()

	return step(m, version)
}

func step(m *migrate.Migrate, version uint) error {
	if err := m.Migrate(version); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("migrating to version %d: %w", version, err)
	}
	return nil
}

// newMigrator wires the embedded migrations to db. The returned migrator must
// not be closed: its database driver would close db, which the caller owns.
func newMigrator(db *sql.DB) (*migrate.Migrate, func(), error) {
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return nil, nil, fmt.Errorf("loading migrations: %w", err)
	}

	driver, err := migratesqlite.WithInstance(db, &migratesqlite.Config{})
	if err != nil {
		src.Close()
		return nil, nil, fmt.Errorf("creating migration driver: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", src, "sqlite", driver)
	if err != nil {
		src.Close()
		return nil, nil, fmt.Errorf("creating migrator: %w", err)
	}

	return m, func() { src.Close() }, nil
}

func runHook(ctx context.Context, db *sql.DB, hook Hook) error {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if err := hook(ctx, tx); err != nil {
		return err
	}

	return tx.Commit()
}
