package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/erazemk/oprema/internal/cable"
	"github.com/erazemk/oprema/internal/model"
)

const itemColumns = `id, category, make, model, service_tag, quantity, row, note,
	status, assigned_user, created_at, created_by, updated_at`

// cableFilter matches rows of the cable category in either spelling. ulower
// is registered by the db package and lower-cases like strings.ToLower.
const cableFilter = `ulower(category) IN ('cable', 'cables')`

func scanItem(s scanner) (*model.Item, error) {
	item := &model.Item{}
	var row, note, assigned sql.NullString
	err := s.Scan(&item.ID, &item.Category, &item.Make, &item.Model, &item.ServiceTag,
		&item.Quantity, &row, &note, &item.Status, &assigned,
		&item.CreatedAt, &item.CreatedBy, &item.UpdatedAt)
	if err != nil {
		return nil, err
	}
	item.Row = nullString(row)
	item.Note = nullString(note)
	item.AssignedUser = nullString(assigned)
	return item, nil
}

func scanItems(rows *sql.Rows) ([]model.Item, error) {
	defer rows.Close()

	var items []model.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning item: %w", err)
		}
		items = append(items, *item)
	}
	return items, rows.Err()
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	return &ns.String
}

// InsertItem stores a new item and returns its ID. The ID field of item is
// ignored.
func InsertItem(ctx context.Context, q Querier, item *model.Item) (int64, error) {
	result, err := q.ExecContext(ctx,
		`INSERT INTO items (category, make, model, service_tag, quantity, row, note,
		                    status, assigned_user, created_at, created_by, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.Category, item.Make, item.Model, item.ServiceTag, item.Quantity, item.Row, item.Note,
		item.Status, item.AssignedUser, item.CreatedAt, item.CreatedBy, item.UpdatedAt,
	)
	if err != nil {
		return 0, fmt.Errorf("creating item: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("getting item id: %w", err)
	}
	return id, nil
}

// GetItem returns an item by ID, or nil if it does not exist.
func GetItem(ctx context.Context, q Querier, id int64) (*model.Item, error) {
	item, err := scanItem(q.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE id = ?`, id,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("getting item: %w", err)
	}
	return item, nil
}

// ListItems returns items newest first. A non-empty search matches any of
// category, make, model, service tag, row or assigned user as a
// case-insensitive substring.
func ListItems(ctx context.Context, q Querier, search string) ([]model.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items`
	var args []any

	if search = strings.TrimSpace(search); search != "" {
		cols := []string{"category", "make", "model", "service_tag", "row", "assigned_user"}
		conds := make([]string, len(cols))
		pattern := likePattern(strings.ToLower(search))
		for i, c := range cols {
			conds[i] = fmt.Sprintf(`ulower(%s) LIKE ? ESCAPE '\'`, c)
			args = append(args, pattern)
		}
		query += ` WHERE ` + strings.Join(conds, " OR ")
	}
	query += ` ORDER BY id DESC`

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing items: %w", err)
	}
	return scanItems(rows)
}

// ListItemsByCategory returns the items whose category equals one of
// categories case-insensitively, newest first.
func ListItemsByCategory(ctx context.Context, q Querier, categories ...string) ([]model.Item, error) {
	if len(categories) == 0 {
		return nil, nil
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?, ", len(categories)), ", ")
	args := make([]any, len(categories))
	for i, c := range categories {
		args[i] = strings.ToLower(c)
	}

	rows, err := q.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items
		 WHERE ulower(category) IN (`+placeholders+`)
		 ORDER BY id DESC`, args...,
	)
	if err != nil {
		return nil, fmt.Errorf("listing items by category: %w", err)
	}
	return scanItems(rows)
}

// ListCables returns every cable row in ascending ID order.
func ListCables(ctx context.Context, q Querier) ([]model.Item, error) {
	rows, err := q.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE `+cableFilter+` ORDER BY id`,
	)
	if err != nil {
		return nil, fmt.Errorf("listing cables: %w", err)
	}
	return scanItems(rows)
}

// FindCableBySignature returns the cable row with signature sig other than
// excludeID, or nil if there is none. Cable make and model are stored
// normalized, so comparing them lowercased is comparing signatures.
func FindCableBySignature(ctx context.Context, q Querier, sig cable.Signature, excludeID int64) (*model.Item, error) {
	item, err := scanItem(q.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items
		 WHERE `+cableFilter+` AND ulower(make) = ? AND ulower(model) = ? AND id != ?
		 LIMIT 1`,
		sig.Ends, sig.Length, excludeID,
	))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("finding cable by signature: %w", err)
	}
	return item, nil
}

// UpdateItem writes every mutable field of item. Identity and creation fields
// are left untouched.
func UpdateItem(ctx context.Context, q Querier, item *model.Item) error {
	result, err := q.ExecContext(ctx,
		`UPDATE items SET category = ?, make = ?, model = ?, service_tag = ?, quantity = ?,
		                  row = ?, note = ?, status = ?, assigned_user = ?, updated_at = ?
		 WHERE id = ?`,
		item.Category, item.Make, item.Model, item.ServiceTag, item.Quantity,
		item.Row, item.Note, item.Status, item.AssignedUser, item.UpdatedAt, item.ID,
	)
	if err != nil {
		return fmt.Errorf("updating item: %w", err)
	}
	if n, err := result.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("updating item %d: %w", item.ID, sql.ErrNoRows)
	}
	return nil
}

// DeleteItem removes an item row. Its audit events must have been moved or
// removed first.
func DeleteItem(ctx context.Context, q Querier, id int64) error {
	_, err := q.ExecContext(ctx, `DELETE FROM items WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting item: %w", err)
	}
	return nil
}
