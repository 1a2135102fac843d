package store

import (
	"context"
	"database/sql"
	"fmt"

	"go.uber.org/zap"

	"github.com/erazemk/oprema/internal/cable"
	"github.com/erazemk/oprema/internal/model"
)

// ReconcileStats describes what ReconcileCables changed.
type ReconcileStats struct {
	// Groups is the number of distinct cable signatures.
	Groups int
	// Canonicalized counts rows rewritten in place.
	Canonicalized int
	// Merged counts duplicate rows folded into a survivor and deleted.
	Merged int
}

// ReconcileCables canonicalizes every cable row and merges rows that share a
// signature, so the unique signature index can be created. Running it again
// on reconciled data changes nothing.
//
// In a group of duplicates the first non-retired row by ID survives (the
// lowest ID if all are retired). It takes the sum of the group's quantities,
// each floored at 0, is in stock unless every row was retired, keeps its own
// row and note or else the first ones found in the group, and gets the latest
// updated_at. The other rows' audit events move to the survivor before those
// rows are deleted.
func ReconcileCables(ctx context.Context, q Querier) (ReconcileStats, error) {
	var stats ReconcileStats

	cables, err := ListCables(ctx, q)
	if err != nil {
		return stats, err
	}

	var order []cable.Signature
	groups := make(map[cable.Signature][]model.Item)
	for _, c := range cables {
		sig := cable.SignatureOf(c.Make, c.Model)
		if _, ok := groups[sig]; !ok {
			order = append(order, sig)
		}
		groups[sig] = append(groups[sig], c)
	}
	stats.Groups = len(order)

	for _, sig := range order {
		group := groups[sig]
		if len(group) == 1 {
			changed, err := canonicalizeCable(ctx, q, group[0])
			if err != nil {
				return stats, err
			}
			if changed {
				stats.Canonicalized++
			}
			continue
		}

		if err := mergeCables(ctx, q, group); err != nil {
			return stats, err
		}
		stats.Canonicalized++
		stats.Merged += len(group) - 1
	}

	return stats, nil
}

// canonicalForm applies the cable field rules to item in place.
func canonicalForm(item *model.Item) {
	item.Category = cable.CanonicalCategory
	item.Make = cable.NormalizeEnds(item.Make)
	item.Model = cable.NormalizeLength(item.Model)
	item.ServiceTag = cable.ServiceTagNA
	item.AssignedUser = nil
	item.Quantity = max(item.Quantity, 0)
}

func canonicalizeCable(ctx context.Context, q Querier, item model.Item) (bool, error) {
	before := item
	canonicalForm(&item)
	if item.Category == before.Category && item.Make == before.Make && item.Model == before.Model &&
		item.ServiceTag == before.ServiceTag && before.AssignedUser == nil && item.Quantity == before.Quantity {
		return false, nil
	}
	if err := UpdateItem(ctx, q, &item); err != nil {
		return false, fmt.Errorf("canonicalizing cable %d: %w", item.ID, err)
	}
	return true, nil
}

func mergeCables(ctx context.Context, q Querier, group []model.Item) error {
	survivor := group[0]
	for _, c := range group {
		if c.Status != model.StatusRetired {
			survivor = c
			break
		}
	}

	merged := survivor
	merged.Quantity = 0
	merged.Status = model.StatusRetired
	for _, c := range group {
		merged.Quantity += max(c.Quantity, 0)
		if c.Status != model.StatusRetired {
			merged.Status = model.StatusInStock
		}
		if merged.Row == nil && c.Row != nil {
			merged.Row = c.Row
		}
		if merged.Note == nil && c.Note != nil {
			merged.Note = c.Note
		}
		if c.UpdatedAt.After(merged.UpdatedAt) {
			merged.UpdatedAt = c.UpdatedAt
		}
	}
	// Quantity is already the floored sum.
	canonicalForm(&merged)

	// Duplicates go first so the survivor's new make/model cannot collide
	// with a row that is about to be removed.
	for _, c := range group {
		if c.ID == survivor.ID {
			continue
		}
		if _, err := ReassignAuditEvents(ctx, q, c.ID, survivor.ID); err != nil {
			return fmt.Errorf("merging cable %d into %d: %w", c.ID, survivor.ID, err)
		}
		if err := DeleteItem(ctx, q, c.ID); err != nil {
			return fmt.Errorf("merging cable %d into %d: %w", c.ID, survivor.ID, err)
		}
	}

	if err := UpdateItem(ctx, q, &merged); err != nil {
		return fmt.Errorf("updating merged cable %d: %w", survivor.ID, err)
	}
	return nil
}

// CableReconcileHook adapts ReconcileCables to run inside the migration chain
// and logs what it did.
func CableReconcileHook(logger *zap.Logger) func(context.Context, *sql.Tx) error {
	return func(ctx context.Context, tx *sql.Tx) error {
		stats, err := ReconcileCables(ctx, tx)
		if err != nil {
			return err
		}
		logger.Info("reconciled cable records",
			zap.Int("groups", stats.Groups),
			zap.Int("canonicalized", stats.Canonicalized),
			zap.Int("merged", stats.Merged),
		)
		return nil
	}
}
