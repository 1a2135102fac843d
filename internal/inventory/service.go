// Package inventory implements the item lifecycle: adding and editing items,
// moving them between in stock, deployed and retired, adjusting cable stock,
// and reading items back with their audit history. Every mutation writes the
// item row and its audit event in one transaction.
package inventory

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/erazemk/oprema/internal/apperrors"
	"github.com/erazemk/oprema/internal/cable"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

// Service runs item operations against a database.
type Service struct {
	db     *sql.DB
	logger *zap.Logger
	now    func() time.Time
}

// NewService creates a Service.
func NewService(db *sql.DB, logger *zap.Logger) *Service {
	return &Service{
		db:     db,
		logger: logger.Named("inventory"),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// ItemWithHistory is an item together with its audit trail, oldest first.
type ItemWithHistory struct {
	Item    *model.Item        `json:"item"`
	History []model.AuditEvent `json:"history"`
}

// CategorySummary lists the items of one category and their merged history.
type CategorySummary struct {
	Category string             `json:"category"`
	Items    []model.Item       `json:"items"`
	History  []model.AuditEvent `json:"history"`
}

// applyFunc changes item in place or rejects the operation.
type applyFunc func(ctx context.Context, tx *sql.Tx, item *model.Item) error

// mutate loads an item, applies fn, and records the resulting diff as one
// audit event. An operation that changes nothing is a conflict.
func (s *Service) mutate(ctx context.Context, actor string, id int64, action, note string, fn applyFunc) (*model.Item, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	item, err := store.GetItem(ctx, tx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperrors.NotFound("item")
	}

	before := *item
	if err := fn(ctx, tx, item); err != nil {
		return nil, err
	}

	changes := diffItems(&before, item)
	if len(changes) == 0 {
		return nil, apperrors.Conflict("no changes to apply")
	}

	now := s.now()
	item.UpdatedAt = now
	if err := store.UpdateItem(ctx, tx, item); err != nil {
		return nil, translateStoreError(err)
	}

	if _, err := store.InsertAuditEvent(ctx, tx, &model.AuditEvent{
		ItemID:    item.ID,
		Actor:     actor,
		Timestamp: now,
		Action:    action,
		Changes:   changes,
		Note:      model.StringPtr(trim(note)),
	}); err != nil {
		return nil, translateStoreError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, translateStoreError(fmt.Errorf("committing %s: %w", action, err))
	}

	s.logger.Info("item changed",
		zap.String("action", action),
		zap.Int64("item_id", item.ID),
		zap.String("actor", actor),
		zap.Strings("fields", changes.Fields()),
	)
	return item, nil
}

// checkCableUnique rejects item if another cable already has its signature.
// The store index is the authoritative guard; this only gives a friendlier
// error before the write is attempted.
func checkCableUnique(ctx context.Context, q store.Querier, item *model.Item) error {
	existing, err := store.FindCableBySignature(ctx, q, cable.SignatureOf(item.Make, item.Model), item.ID)
	if err != nil {
		return err
	}
	if existing != nil {
		return duplicateCable(nil)
	}
	return nil
}

func duplicateCable(cause error) error {
	return &apperrors.Error{
		Kind:    apperrors.KindConflict,
		Message: cable.DuplicateMessage,
		Err:     errors.Join(apperrors.ErrDuplicateCable, cause),
	}
}

// translateStoreError maps store constraint failures to error kinds.
func translateStoreError(err error) error {
	switch {
	case store.IsCableSignatureViolation(err):
		return duplicateCable(err)
	case store.IsConstraintViolation(err):
		return apperrors.Integrity(err)
	default:
		return err
	}
}

// GetItem returns an item and its history.
func (s *Service) GetItem(ctx context.Context, id int64) (*ItemWithHistory, error) {
	item, err := store.GetItem(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, apperrors.NotFound("item")
	}

	history, err := store.ListItemEvents(ctx, s.db, id)
	if err != nil {
		return nil, err
	}
	return &ItemWithHistory{Item: item, History: history}, nil
}

// ListItems returns items newest first, optionally filtered by a
// case-insensitive substring query.
func (s *Service) ListItems(ctx context.Context, query string) ([]model.Item, error) {
	return store.ListItems(ctx, s.db, query)
}

// GetCategorySummary returns the items of category and their merged history.
// Both cable spellings are treated as one category.
func (s *Service) GetCategorySummary(ctx context.Context, category string) (*CategorySummary, error) {
	name := cable.TitleCase(category)
	if name == "" {
		return nil, apperrors.Validation("category is required")
	}

	categories := []string{name}
	if cable.IsCategory(name) {
		categories = []string{"cable", "cables"}
	}

	items, err := store.ListItemsByCategory(ctx, s.db, categories...)
	if err != nil {
		return nil, err
	}

	ids := make([]int64, len(items))
	for i, it := range items {
		ids[i] = it.ID
	}
	history, err := store.ListEventsForItems(ctx, s.db, ids)
	if err != nil {
		return nil, err
	}

	return &CategorySummary{Category: name, Items: items, History: history}, nil
}

// CategoryCounts returns per-category totals.
func (s *Service) CategoryCounts(ctx context.Context) ([]model.CategoryCount, error) {
	return store.CategoryCounts(ctx, s.db)
}
