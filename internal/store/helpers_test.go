package store

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/erazemk/oprema/internal/model"
)

var testTime = time.Date(2025, 3, 1, 9, 0, 0, 0, time.UTC)

func insertTestItem(t *testing.T, q Querier, item model.Item) *model.Item {
	t.Helper()
	if item.Status == "" {
		item.Status = model.StatusInStock
	}
	if item.CreatedBy == "" {
		item.CreatedBy = "tester"
	}
	if item.CreatedAt.IsZero() {
		item.CreatedAt = testTime
	}
	if item.UpdatedAt.IsZero() {
		item.UpdatedAt = item.CreatedAt
	}

	id, err := InsertItem(context.Background(), q, &item)
	require.NoError(t, err)
	got, err := GetItem(context.Background(), q, id)
	require.NoError(t, err)
	require.NotNil(t, got)
	return got
}

func insertTestEvent(t *testing.T, q Querier, itemID int64, action string, at time.Time) int64 {
	t.Helper()
	id, err := InsertAuditEvent(context.Background(), q, &model.AuditEvent{
		ItemID:    itemID,
		Actor:     "tester",
		Timestamp: at,
		Action:    action,
	})
	require.NoError(t, err)
	return id
}

func countRows(t *testing.T, db *sql.DB, table string) int {
	t.Helper()
	var n int
	require.NoError(t, db.QueryRow(`SELECT COUNT(*) FROM `+table).Scan(&n))
	return n
}

func timeStep(i int) time.Duration {
	return time.Duration(i) * time.Minute
}
