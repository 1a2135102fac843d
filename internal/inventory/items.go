package inventory

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/erazemk/oprema/internal/apperrors"
	"github.com/erazemk/oprema/internal/cable"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

// NewItem describes an item to add. Quantity only applies to cables and
// defaults to 1.
type NewItem struct {
	Category   string `json:"category"`
	Make       string `json:"make"`
	Model      string `json:"model"`
	ServiceTag string `json:"service_tag"`
	Quantity   *int   `json:"quantity"`
	Row        string `json:"row"`
	Note       string `json:"note"`
}

// ItemEdit lists the fields to change; nil fields are left alone. A blank
// Row or Note clears it. Quantity is only present so that a request to set
// it can be rejected.
type ItemEdit struct {
	Category   *string `json:"category"`
	Make       *string `json:"make"`
	Model      *string `json:"model"`
	ServiceTag *string `json:"service_tag"`
	Quantity   *int    `json:"quantity"`
	Row        *string `json:"row"`
	Note       *string `json:"note"`
	// EventNote is recorded on the audit event, not on the item.
	EventNote string `json:"event_note"`
}

// RetireOptions tune RetireItem.
type RetireOptions struct {
	// ZeroStock sets a cable's quantity to 0 in the same event. It is
	// ignored for other items.
	ZeroStock bool   `json:"zero_stock"`
	Note      string `json:"note"`
}

// AddItem creates an item in stock. Cables get normalized ends and length,
// the N/A service tag and must not duplicate an existing cable signature.
func (s *Service) AddItem(ctx context.Context, actor string, in NewItem) (*model.Item, error) {
	item := &model.Item{
		Category:  cable.TitleCase(in.Category),
		Make:      trim(in.Make),
		Model:     trim(in.Model),
		Row:       optional(in.Row),
		Note:      optional(in.Note),
		Status:    model.StatusInStock,
		CreatedBy: actor,
	}
	switch {
	case item.Category == "":
		return nil, apperrors.Validation("category is required")
	case item.Make == "":
		return nil, apperrors.Validation("make is required")
	case item.Model == "":
		return nil, apperrors.Validation("model is required")
	}

	isCable := cable.IsCategory(item.Category)
	if isCable {
		item.Make = cable.NormalizeEnds(item.Make)
		item.Model = cable.NormalizeLength(item.Model)
		item.ServiceTag = cable.ServiceTagNA
		item.Quantity = 1
		if in.Quantity != nil {
			if *in.Quantity < 0 {
				return nil, apperrors.Validation("quantity must not be negative")
			}
			item.Quantity = *in.Quantity
		}
	} else {
		item.ServiceTag = trim(in.ServiceTag)
		if item.ServiceTag == "" {
			return nil, apperrors.Validation("service_tag is required")
		}
		item.Quantity = 1
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	if isCable {
		if err := checkCableUnique(ctx, tx, item); err != nil {
			return nil, err
		}
	}

	now := s.now()
	item.CreatedAt = now
	item.UpdatedAt = now
	id, err := store.InsertItem(ctx, tx, item)
	if err != nil {
		return nil, translateStoreError(err)
	}
	item.ID = id

	changes := initialChanges(item)
	if _, err := store.InsertAuditEvent(ctx, tx, &model.AuditEvent{
		ItemID:    id,
		Actor:     actor,
		Timestamp: now,
		Action:    model.ActionAdd,
		Changes:   changes,
	}); err != nil {
		return nil, translateStoreError(err)
	}

	if err := tx.Commit(); err != nil {
		return nil, translateStoreError(fmt.Errorf("committing add: %w", err))
	}

	s.logger.Info("item added",
		zap.Int64("item_id", id),
		zap.String("category", item.Category),
		zap.String("actor", actor),
	)
	return item, nil
}

// EditItem changes descriptive fields of an item. Only fields that actually
// change are recorded. Moving an item into the cable category normalizes it
// like a new cable; moving it out requires a service tag and resets the
// quantity to 1.
func (s *Service) EditItem(ctx context.Context, actor string, id int64, edit ItemEdit) (*model.Item, error) {
	if edit.Quantity != nil {
		return nil, apperrors.Conflict("quantity cannot be edited; use a quantity adjustment")
	}
	for name, v := range map[string]*string{
		model.FieldCategory: edit.Category,
		model.FieldMake:     edit.Make,
		model.FieldModel:    edit.Model,
	} {
		if v != nil && trim(*v) == "" {
			return nil, apperrors.Validation("%s must not be empty", name)
		}
	}

	return s.mutate(ctx, actor, id, model.ActionEdit, edit.EventNote, func(ctx context.Context, tx *sql.Tx, item *model.Item) error {
		wasCable := cable.IsCategory(item.Category)

		if edit.Category != nil {
			item.Category = cable.TitleCase(*edit.Category)
		}
		if edit.Make != nil {
			item.Make = trim(*edit.Make)
		}
		if edit.Model != nil {
			item.Model = trim(*edit.Model)
		}
		if edit.Row != nil {
			item.Row = optional(*edit.Row)
		}
		if edit.Note != nil {
			item.Note = optional(*edit.Note)
		}

		if cable.IsCategory(item.Category) {
			if !wasCable && item.Status == model.StatusDeployed {
				return apperrors.Conflict("a deployed item cannot become a cable; return it first")
			}
			item.Make = cable.NormalizeEnds(item.Make)
			item.Model = cable.NormalizeLength(item.Model)
			item.ServiceTag = cable.ServiceTagNA
			return checkCableUnique(ctx, tx, item)
		}

		if edit.ServiceTag != nil {
			tag := trim(*edit.ServiceTag)
			if tag == "" {
				return apperrors.Validation("service_tag must not be empty")
			}
			item.ServiceTag = tag
		}
		if wasCable {
			if edit.ServiceTag == nil {
				return apperrors.Validation("service_tag is required when moving a cable to another category")
			}
			item.Quantity = 1
		}
		return nil
	})
}

// DeployItem assigns an item to a person. Cables and retired items cannot be
// deployed; redeploying to the same person is a conflict.
func (s *Service) DeployItem(ctx context.Context, actor string, id int64, assignee, note string) (*model.Item, error) {
	assignee = cable.TitleCase(assignee)
	if assignee == "" {
		return nil, apperrors.Validation("assigned_user is required")
	}

	return s.mutate(ctx, actor, id, model.ActionDeploy, note, func(_ context.Context, _ *sql.Tx, item *model.Item) error {
		switch {
		case item.Status == model.StatusRetired:
			return apperrors.Conflict("item is retired")
		case cable.IsCategory(item.Category):
			return apperrors.Conflict("cables cannot be deployed")
		case item.Status == model.StatusDeployed && model.StringValue(item.AssignedUser) == assignee:
			return apperrors.Conflict("item is already deployed to %s", assignee)
		}
		item.Status = model.StatusDeployed
		item.AssignedUser = &assignee
		return nil
	})
}

// ReturnItem puts a deployed item back in stock.
func (s *Service) ReturnItem(ctx context.Context, actor string, id int64, note string) (*model.Item, error) {
	return s.mutate(ctx, actor, id, model.ActionReturn, note, func(_ context.Context, _ *sql.Tx, item *model.Item) error {
		switch {
		case item.Status == model.StatusRetired:
			return apperrors.Conflict("item is retired")
		case item.Status == model.StatusInStock && item.AssignedUser == nil:
			return apperrors.Conflict("item is already in stock")
		}
		item.Status = model.StatusInStock
		if !cable.IsCategory(item.Category) {
			item.AssignedUser = nil
		}
		return nil
	})
}

// RetireItem takes an item out of service. Other items must be returned
// first; cables may be retired in any state.
func (s *Service) RetireItem(ctx context.Context, actor string, id int64, opts RetireOptions) (*model.Item, error) {
	return s.mutate(ctx, actor, id, model.ActionRetire, opts.Note, func(_ context.Context, _ *sql.Tx, item *model.Item) error {
		isCable := cable.IsCategory(item.Category)
		switch {
		case item.Status == model.StatusRetired:
			return apperrors.Conflict("item is already retired")
		case !isCable && item.Status == model.StatusDeployed:
			return apperrors.Conflict("item is deployed; return it before retiring")
		}
		item.Status = model.StatusRetired
		if isCable {
			if opts.ZeroStock {
				item.Quantity = 0
			}
		} else {
			item.AssignedUser = nil
		}
		return nil
	})
}

// RestoreItem brings a retired item back into stock.
func (s *Service) RestoreItem(ctx context.Context, actor string, id int64, note string) (*model.Item, error) {
	return s.mutate(ctx, actor, id, model.ActionRestore, note, func(_ context.Context, _ *sql.Tx, item *model.Item) error {
		if item.Status != model.StatusRetired {
			return apperrors.Conflict("item is not retired")
		}
		item.Status = model.StatusInStock
		if !cable.IsCategory(item.Category) {
			item.AssignedUser = nil
		}
		return nil
	})
}

// AdjustQuantity adds delta to a cable's quantity.
func (s *Service) AdjustQuantity(ctx context.Context, actor string, id int64, delta int, note string) (*model.Item, error) {
	if delta == 0 {
		return nil, apperrors.Validation("delta must not be zero")
	}

	return s.mutate(ctx, actor, id, model.ActionQuantityAdjust, note, func(_ context.Context, _ *sql.Tx, item *model.Item) error {
		if !cable.IsCategory(item.Category) {
			return apperrors.Conflict("quantity can only be adjusted for cables")
		}
		next := item.Quantity + delta
		if next < 0 {
			return apperrors.Conflict("quantity cannot go below zero (have %d, adjusting by %d)", item.Quantity, delta)
		}
		item.Quantity = next
		return nil
	})
}
