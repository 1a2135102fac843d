package db

import (
	"context"
	"database/sql"
	"testing"

	"go.uber.org/zap"
)

// NewTestDB creates a fresh in-memory SQLite database with every migration
// applied.
func NewTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db := openTestDB(t)
	if err := Migrate(context.Background(), db, zap.NewNop(), nil); err != nil {
		t.Fatalf("migrating test database: %v", err)
	}

	return db
}

// NewTestDBAtVersion creates a fresh in-memory SQLite database migrated to
// exactly version.
func NewTestDBAtVersion(t *testing.T, version uint) *sql.DB {
	t.Helper()

	db := openTestDB(t)
	if err := MigrateTo(db, version); err != nil {
		t.Fatalf("migrating test database to %d: %v", version, err)
	}

	return db
}

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()

	db, err := Open(":memory:")
	if err != nil {
		t.Fatalf("opening test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}
