package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/erazemk/oprema/internal/model"
)

// auditRow is an audit event as stored, with the diff still serialized.
type auditRow struct {
	ID        int64
	ItemID    int64
	Actor     string
	Timestamp sql.NullTime
	Action    string
	Changes   sql.NullString
	Note      sql.NullString
}

// InsertAuditEvent appends one event and returns its ID. An empty diff is
// stored as NULL.
func InsertAuditEvent(ctx context.Context, q Querier, ev *model.AuditEvent) (int64, error) {
	var changes sql.NullString
	if len(ev.Changes) > 0 {
		data, err := json.Marshal(ev.Changes)
		if err != nil {
			return 0, fmt.Errorf("encoding audit changes: %w", err)
		}
		changes = sql.NullString{String: string(data), Valid: true}
	}

	result, err := q.ExecContext(ctx,
		`INSERT INTO audit_events (item_id, actor, timestamp, action, changes, note)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		ev.ItemID, ev.Actor, ev.Timestamp, ev.Action, changes, ev.Note,
	)
	if err != nil {
		return 0, fmt.Errorf("recording audit event: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting audit event id: %w", err)
	}
	return id, nil
}

// ListItemEvents returns an item's events in the order they were recorded.
func ListItemEvents(ctx context.Context, q Querier, itemID int64) ([]model.AuditEvent, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT id, item_id, actor, timestamp, action, changes, note
		 FROM audit_events WHERE item_id = ? ORDER BY id`, itemID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing item events: %w", err)
	}
	return scanEvents(rows)
}

// ListEventsForItems returns the events of all given items merged in the
// order they were recorded.
func ListEventsForItems(ctx context.Context, q Querier, itemIDs []int64) ([]model.AuditEvent, error) {
	if len(itemIDs) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(itemIDs)), ", ")
	args := make([]any, len(itemIDs))
	for i, id := range itemIDs {
		args[i] = id
	}

	rows, err := q.QueryContext(ctx,
		`SELECT id, item_id, actor, timestamp, action, changes, note
		 FROM audit_events WHERE item_id IN (`+placeholders+`)
		 ORDER BY id`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing events: %w", err)
	}
	return scanEvents(rows)
}

// ReassignAuditEvents moves every event of item from to item to and returns
// how many moved.
func ReassignAuditEvents(ctx context.Context, q Querier, from, to int64) (int64, error) {
	result, err := q.ExecContext(ctx,
		`UPDATE audit_events SET item_id = ? WHERE item_id = ?`, to, from,
	)
	if err != nil {
		return 0, fmt.Errorf("reassigning audit events: %w", err)
	}
	return result.RowsAffected()
}

func scanEvents(rows *sql.Rows) ([]model.AuditEvent, error) {
	defer rows.Close()

	var raw []auditRow
	for rows.Next() {
		var r auditRow
		if err := rows.Scan(&r.ID, &r.ItemID, &r.Actor, &r.Timestamp, &r.Action, &r.Changes, &r.Note); err != nil {
			return nil, fmt.Errorf("scanning audit event: %w", err)
		}
		raw = append(raw, r)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return buildHistory(raw)
}

// buildHistory decodes stored events into history entries.
func buildHistory(raw []auditRow) ([]model.AuditEvent, error) {
	history := make([]model.AuditEvent, 0, len(raw))
	for _, r := range raw {
		ev := model.AuditEvent{
			ID:        r.ID,
			ItemID:    r.ItemID,
			Actor:     r.Actor,
			Timestamp: r.Timestamp.Time,
			Action:    r.Action,
			Note:      nullString(r.Note),
		}
		if r.Changes.Valid && r.Changes.String != "" {
			if err := json.Unmarshal([]byte(r.Changes.String), &ev.Changes); err != nil {
				return nil, fmt.Errorf("decoding changes of event %d: %w", r.ID, err)
			}
		}
		history = append(history, ev)
	}
	return history, nil
}
