package inventory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/erazemk/oprema/internal/apperrors"
	"github.com/erazemk/oprema/internal/cable"
	"github.com/erazemk/oprema/internal/db"
	"github.com/erazemk/oprema/internal/model"
	"github.com/erazemk/oprema/internal/store"
)

const actor = "admin"

func newTestService(t *testing.T) *Service {
	t.Helper()
	svc := NewService(db.NewTestDB(t), zap.NewNop())

	var mu sync.Mutex
	clock := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)
	svc.now = func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		clock = clock.Add(time.Second)
		return clock
	}
	return svc
}

func ptr[T any](v T) *T { return &v }

func addLaptop(t *testing.T, svc *Service, tag string) *model.Item {
	t.Helper()
	item, err := svc.AddItem(context.Background(), actor, NewItem{
		Category: "laptop", Make: "Dell", Model: "Latitude 7440", ServiceTag: tag,
	})
	require.NoError(t, err)
	return item
}

func addCable(t *testing.T, svc *Service, ends, length string, qty int) *model.Item {
	t.Helper()
	item, err := svc.AddItem(context.Background(), actor, NewItem{
		Category: "Cables", Make: ends, Model: length, Quantity: &qty,
	})
	require.NoError(t, err)
	return item
}

func history(t *testing.T, svc *Service, id int64) []model.AuditEvent {
	t.Helper()
	got, err := svc.GetItem(context.Background(), id)
	require.NoError(t, err)
	return got.History
}

func requireKind(t *testing.T, err error, kind apperrors.Kind) {
	t.Helper()
	require.Error(t, err)
	assert.Equal(t, kind, apperrors.KindOf(err), "error: %v", err)
}

func TestAddItem(t *testing.T) {
	svc := newTestService(t)

	item, err := svc.AddItem(context.Background(), actor, NewItem{
		Category: "  dell   LAPTOP ", Make: " Dell ", Model: "XPS 13", ServiceTag: " ABC123 ", Row: " A1 ",
	})
	require.NoError(t, err)
	assert.Equal(t, "Dell Laptop", item.Category)
	assert.Equal(t, "Dell", item.Make)
	assert.Equal(t, "ABC123", item.ServiceTag)
	assert.Equal(t, 1, item.Quantity)
	assert.Equal(t, "A1", model.StringValue(item.Row))
	assert.Nil(t, item.Note)
	assert.Equal(t, model.StatusInStock, item.Status)
	assert.Equal(t, actor, item.CreatedBy)

	events := history(t, svc, item.ID)
	require.Len(t, events, 1)
	assert.Equal(t, model.ActionAdd, events[0].Action)
	assert.Equal(t, []string{
		model.FieldCategory, model.FieldMake, model.FieldModel, model.FieldServiceTag,
		model.FieldQuantity, model.FieldRow, model.FieldStatus,
	}, events[0].Changes.Fields())
	for _, fc := range events[0].Changes {
		assert.Nil(t, fc.Old, fc.Field)
	}
}

func TestAddItemValidation(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	cases := []NewItem{
		{Category: " ", Make: "Dell", Model: "XPS", ServiceTag: "T"},
		{Category: "Laptop", Make: "", Model: "XPS", ServiceTag: "T"},
		{Category: "Laptop", Make: "Dell", Model: "  ", ServiceTag: "T"},
		{Category: "Laptop", Make: "Dell", Model: "XPS", ServiceTag: " "},
		{Category: "Cable", Make: "A-B", Model: "1", Quantity: ptr(-1)},
	}
	for _, in := range cases {
		_, err := svc.AddItem(ctx, actor, in)
		requireKind(t, err, apperrors.KindValidation)
	}

	items, err := svc.ListItems(ctx, "")
	require.NoError(t, err)
	assert.Empty(t, items)
}

func TestAddCableNormalizes(t *testing.T) {
	svc := newTestService(t)

	item, err := svc.AddItem(context.Background(), actor, NewItem{
		Category: "cable", Make: " VGA - HDMI ", Model: "10FT", ServiceTag: "ignored",
	})
	require.NoError(t, err)
	assert.Equal(t, "HDMI-VGA", item.Make)
	assert.Equal(t, "10 ft", item.Model)
	assert.Equal(t, cable.ServiceTagNA, item.ServiceTag)
	assert.Equal(t, 1, item.Quantity)

	zero := addCable(t, svc, "USB-A-USB-C", "3", 0)
	assert.Equal(t, 0, zero.Quantity)
}

func TestAddDuplicateCable(t *testing.T) {
	svc := newTestService(t)
	addCable(t, svc, "A-B", "6ft", 1)

	_, err := svc.AddItem(context.Background(), actor, NewItem{Category: "Cable", Make: "B-A", Model: "6FT"})
	requireKind(t, err, apperrors.KindConflict)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateCable)
	assert.Equal(t, cable.DuplicateMessage, apperrors.MessageOf(err))

	// A different length is a different cable.
	addCable(t, svc, "B-A", "10", 1)
}

func TestAddDuplicateCableNonASCII(t *testing.T) {
	svc := newTestService(t)
	addCable(t, svc, "ÜSB-A", "6", 1)

	_, err := svc.AddItem(context.Background(), actor, NewItem{Category: "Cables", Make: "üsb-a", Model: "6"})
	requireKind(t, err, apperrors.KindConflict)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateCable)

	items, err := svc.ListItems(context.Background(), "")
	require.NoError(t, err)
	assert.Len(t, items, 1)
}

func TestConcurrentDuplicateCableAdds(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	const n = 8
	errs := make([]error, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, errs[i] = svc.AddItem(ctx, actor, NewItem{Category: "Cables", Make: "HDMI-VGA", Model: "10 ft"})
		}()
	}
	wg.Wait()

	ok := 0
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		assert.ErrorIs(t, err, apperrors.ErrDuplicateCable)
	}
	assert.Equal(t, 1, ok)
}

func TestStoreIndexViolationMapsToDuplicate(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	addCable(t, svc, "HDMI-VGA", "10 ft", 1)

	// Bypass the pre-check to hit the index directly.
	dup := &model.Item{Category: "Cables", Make: "hdmi-vga", Model: "10 ft", ServiceTag: "N/A", Quantity: 1,
		Status: model.StatusInStock, CreatedBy: actor, CreatedAt: svc.now(), UpdatedAt: svc.now()}
	_, err := store.InsertItem(ctx, svc.db, dup)
	require.Error(t, err)

	mapped := translateStoreError(err)
	requireKind(t, mapped, apperrors.KindConflict)
	assert.ErrorIs(t, mapped, apperrors.ErrDuplicateCable)

	other := translateStoreError(errors.New("disk on fire"))
	assert.Equal(t, apperrors.KindInternal, apperrors.KindOf(other))
}

func TestDeployItem(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	item := addLaptop(t, svc, "T1")

	deployed, err := svc.DeployItem(ctx, actor, item.ID, "  alice   carter ", "new hire")
	require.NoError(t, err)
	assert.Equal(t, model.StatusDeployed, deployed.Status)
	assert.Equal(t, "Alice Carter", model.StringValue(deployed.AssignedUser))
	assert.True(t, deployed.UpdatedAt.After(item.UpdatedAt))

	events := history(t, svc, item.ID)
	require.Len(t, events, 2)
	ev := events[1]
	assert.Equal(t, model.ActionDeploy, ev.Action)
	assert.Equal(t, "new hire", model.StringValue(ev.Note))
	assert.Equal(t, []string{model.FieldStatus, model.FieldAssignedUser}, ev.Changes.Fields())

	// Same assignee is a no-op and rejected.
	_, err = svc.DeployItem(ctx, actor, item.ID, "ALICE CARTER", "")
	requireKind(t, err, apperrors.KindConflict)

	// Reassigning only records the assignee change.
	_, err = svc.DeployItem(ctx, actor, item.ID, "bob", "")
	require.NoError(t, err)
	events = history(t, svc, item.ID)
	require.Len(t, events, 3)
	assert.Equal(t, []string{model.FieldAssignedUser}, events[2].Changes.Fields())
	fc, _ := events[2].Changes.Get(model.FieldAssignedUser)
	assert.Equal(t, "Alice Carter", fc.Old)
	assert.Equal(t, "Bob", fc.New)
}

func TestDeployRejections(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	c := addCable(t, svc, "A-B", "1", 3)
	_, err := svc.DeployItem(ctx, actor, c.ID, "alice", "")
	requireKind(t, err, apperrors.KindConflict)

	item := addLaptop(t, svc, "T1")
	_, err = svc.DeployItem(ctx, actor, item.ID, "   ", "")
	requireKind(t, err, apperrors.KindValidation)

	_, err = svc.RetireItem(ctx, actor, item.ID, RetireOptions{})
	require.NoError(t, err)
	_, err = svc.DeployItem(ctx, actor, item.ID, "alice", "")
	requireKind(t, err, apperrors.KindConflict)

	_, err = svc.DeployItem(ctx, actor, 9999, "alice", "")
	requireKind(t, err, apperrors.KindNotFound)

	assert.Len(t, history(t, svc, c.ID), 1)
}

func TestReturnItem(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	item := addLaptop(t, svc, "T1")

	_, err := svc.ReturnItem(ctx, actor, item.ID, "")
	requireKind(t, err, apperrors.KindConflict)

	_, err = svc.DeployItem(ctx, actor, item.ID, "alice", "")
	require.NoError(t, err)

	returned, err := svc.ReturnItem(ctx, actor, item.ID, "back")
	require.NoError(t, err)
	assert.Equal(t, model.StatusInStock, returned.Status)
	assert.Nil(t, returned.AssignedUser)

	events := history(t, svc, item.ID)
	last := events[len(events)-1]
	assert.Equal(t, model.ActionReturn, last.Action)
	assert.Equal(t, []string{model.FieldStatus, model.FieldAssignedUser}, last.Changes.Fields())
}

func TestReturnCableOmitsAssignedUser(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	c := addCable(t, svc, "A-B", "1", 3)

	// Cables can only end up deployed through legacy data.
	_, err := svc.db.Exec(`UPDATE items SET status = 'deployed' WHERE id = ?`, c.ID)
	require.NoError(t, err)

	_, err = svc.ReturnItem(ctx, actor, c.ID, "")
	require.NoError(t, err)

	events := history(t, svc, c.ID)
	assert.Equal(t, []string{model.FieldStatus}, events[len(events)-1].Changes.Fields())
}

func TestRetireItem(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	item := addLaptop(t, svc, "T1")

	_, err := svc.DeployItem(ctx, actor, item.ID, "alice", "")
	require.NoError(t, err)

	_, err = svc.RetireItem(ctx, actor, item.ID, RetireOptions{})
	requireKind(t, err, apperrors.KindConflict)

	_, err = svc.ReturnItem(ctx, actor, item.ID, "")
	require.NoError(t, err)

	retired, err := svc.RetireItem(ctx, actor, item.ID, RetireOptions{ZeroStock: true, Note: "broken"})
	require.NoError(t, err)
	assert.Equal(t, model.StatusRetired, retired.Status)
	assert.Equal(t, 1, retired.Quantity, "zero stock is ignored for non-cables")

	_, err = svc.RetireItem(ctx, actor, item.ID, RetireOptions{})
	requireKind(t, err, apperrors.KindConflict)
}

func TestRetireDeployedCable(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	c := addCable(t, svc, "A-B", "1", 4)

	_, err := svc.db.Exec(`UPDATE items SET status = 'deployed' WHERE id = ?`, c.ID)
	require.NoError(t, err)

	retired, err := svc.RetireItem(ctx, actor, c.ID, RetireOptions{})
	require.NoError(t, err)
	assert.Equal(t, model.StatusRetired, retired.Status)
	assert.Equal(t, 4, retired.Quantity)
}

func TestRetireCableZeroStock(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	c := addCable(t, svc, "A-B", "1", 4)

	retired, err := svc.RetireItem(ctx, actor, c.ID, RetireOptions{ZeroStock: true})
	require.NoError(t, err)
	assert.Equal(t, 0, retired.Quantity)

	events := history(t, svc, c.ID)
	require.Len(t, events, 2)
	ev := events[1]
	assert.Equal(t, model.ActionRetire, ev.Action)
	q, ok := ev.Changes.Get(model.FieldQuantity)
	require.True(t, ok)
	assert.Equal(t, int64(4), q.Old)
	assert.Equal(t, int64(0), q.New)
	assert.True(t, ev.Changes.Has(model.FieldStatus))
}

func TestRestoreItem(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	item := addLaptop(t, svc, "T1")

	_, err := svc.RestoreItem(ctx, actor, item.ID, "")
	requireKind(t, err, apperrors.KindConflict)

	_, err = svc.RetireItem(ctx, actor, item.ID, RetireOptions{})
	require.NoError(t, err)

	// A stale assignee left by legacy data is cleared on restore.
	_, err = svc.db.Exec(`UPDATE items SET assigned_user = 'Ghost' WHERE id = ?`, item.ID)
	require.NoError(t, err)

	restored, err := svc.RestoreItem(ctx, actor, item.ID, "fixed")
	require.NoError(t, err)
	assert.Equal(t, model.StatusInStock, restored.Status)
	assert.Nil(t, restored.AssignedUser)

	events := history(t, svc, item.ID)
	last := events[len(events)-1]
	assert.Equal(t, model.ActionRestore, last.Action)
	assert.Equal(t, []string{model.FieldStatus, model.FieldAssignedUser}, last.Changes.Fields())
}

func TestAdjustQuantity(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	c := addCable(t, svc, "A-B", "1", 0)

	_, err := svc.AdjustQuantity(ctx, actor, c.ID, -1, "")
	requireKind(t, err, apperrors.KindConflict)

	_, err = svc.AdjustQuantity(ctx, actor, c.ID, 0, "")
	requireKind(t, err, apperrors.KindValidation)

	up, err := svc.AdjustQuantity(ctx, actor, c.ID, 2, "restock")
	require.NoError(t, err)
	assert.Equal(t, 2, up.Quantity)

	down, err := svc.AdjustQuantity(ctx, actor, c.ID, -2, "")
	require.NoError(t, err)
	assert.Equal(t, 0, down.Quantity)

	events := history(t, svc, c.ID)
	require.Len(t, events, 3)
	for _, ev := range events[1:] {
		assert.Equal(t, model.ActionQuantityAdjust, ev.Action)
		assert.Equal(t, []string{model.FieldQuantity}, ev.Changes.Fields())
	}
	assert.Equal(t, "restock", model.StringValue(events[1].Note))

	laptop := addLaptop(t, svc, "T1")
	_, err = svc.AdjustQuantity(ctx, actor, laptop.ID, 1, "")
	requireKind(t, err, apperrors.KindConflict)
}

func TestEditItem(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	item := addLaptop(t, svc, "T1")

	edited, err := svc.EditItem(ctx, actor, item.ID, ItemEdit{
		Category:  ptr("laptop"),
		Model:     ptr(" Latitude 9440 "),
		Row:       ptr("B2"),
		EventNote: "typo",
	})
	require.NoError(t, err)
	assert.Equal(t, "Latitude 9440", edited.Model)
	assert.Equal(t, "B2", model.StringValue(edited.Row))

	events := history(t, svc, item.ID)
	require.Len(t, events, 2)
	assert.Equal(t, []string{model.FieldModel, model.FieldRow}, events[1].Changes.Fields())
	assert.Equal(t, "typo", model.StringValue(events[1].Note))

	// Blank row clears it.
	cleared, err := svc.EditItem(ctx, actor, item.ID, ItemEdit{Row: ptr(" ")})
	require.NoError(t, err)
	assert.Nil(t, cleared.Row)
}

func TestEditItemRejections(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	item := addLaptop(t, svc, "T1")

	_, err := svc.EditItem(ctx, actor, item.ID, ItemEdit{Make: ptr("Dell")})
	requireKind(t, err, apperrors.KindConflict)

	_, err = svc.EditItem(ctx, actor, item.ID, ItemEdit{})
	requireKind(t, err, apperrors.KindConflict)

	_, err = svc.EditItem(ctx, actor, item.ID, ItemEdit{Quantity: ptr(5)})
	requireKind(t, err, apperrors.KindConflict)

	_, err = svc.EditItem(ctx, actor, item.ID, ItemEdit{Make: ptr("  ")})
	requireKind(t, err, apperrors.KindValidation)

	_, err = svc.EditItem(ctx, actor, item.ID, ItemEdit{ServiceTag: ptr("")})
	requireKind(t, err, apperrors.KindValidation)

	_, err = svc.EditItem(ctx, actor, 404, ItemEdit{Make: ptr("HP")})
	requireKind(t, err, apperrors.KindNotFound)

	assert.Len(t, history(t, svc, item.ID), 1)
}

func TestEditCableSignature(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	addCable(t, svc, "A-B", "6", 1)
	c := addCable(t, svc, "A-C", "6", 1)

	_, err := svc.EditItem(ctx, actor, c.ID, ItemEdit{Make: ptr("b-a")})
	requireKind(t, err, apperrors.KindConflict)
	assert.ErrorIs(t, err, apperrors.ErrDuplicateCable)

	edited, err := svc.EditItem(ctx, actor, c.ID, ItemEdit{Make: ptr("D - A"), ServiceTag: ptr("XYZ")})
	require.NoError(t, err)
	assert.Equal(t, "A-D", edited.Make)
	assert.Equal(t, cable.ServiceTagNA, edited.ServiceTag)

	// Only the service tag changed, and that is ignored for cables.
	_, err = svc.EditItem(ctx, actor, c.ID, ItemEdit{ServiceTag: ptr("XYZ")})
	requireKind(t, err, apperrors.KindConflict)
}

func TestEditCategoryToCable(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	item, err := svc.AddItem(ctx, actor, NewItem{Category: "Adapter", Make: "HDMI - VGA", Model: "10", ServiceTag: "AD1"})
	require.NoError(t, err)

	_, err = svc.DeployItem(ctx, actor, item.ID, "alice", "")
	require.NoError(t, err)
	_, err = svc.EditItem(ctx, actor, item.ID, ItemEdit{Category: ptr("cables")})
	requireKind(t, err, apperrors.KindConflict)

	_, err = svc.ReturnItem(ctx, actor, item.ID, "")
	require.NoError(t, err)

	flipped, err := svc.EditItem(ctx, actor, item.ID, ItemEdit{Category: ptr("cables")})
	require.NoError(t, err)
	assert.Equal(t, "Cables", flipped.Category)
	assert.Equal(t, "HDMI-VGA", flipped.Make)
	assert.Equal(t, "10 ft", flipped.Model)
	assert.Equal(t, cable.ServiceTagNA, flipped.ServiceTag)
	assert.Equal(t, 1, flipped.Quantity)

	// A second row flipping into the same signature is a duplicate.
	other, err := svc.AddItem(ctx, actor, NewItem{Category: "Adapter", Make: "VGA-HDMI", Model: "10 ft", ServiceTag: "AD2"})
	require.NoError(t, err)
	_, err = svc.EditItem(ctx, actor, other.ID, ItemEdit{Category: ptr("Cable")})
	assert.ErrorIs(t, err, apperrors.ErrDuplicateCable)
}

func TestEditCategoryFromCable(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	c := addCable(t, svc, "A-B", "6", 5)

	_, err := svc.EditItem(ctx, actor, c.ID, ItemEdit{Category: ptr("Adapter")})
	requireKind(t, err, apperrors.KindValidation)

	edited, err := svc.EditItem(ctx, actor, c.ID, ItemEdit{Category: ptr("Adapter"), ServiceTag: ptr("AD9")})
	require.NoError(t, err)
	assert.Equal(t, "Adapter", edited.Category)
	assert.Equal(t, "AD9", edited.ServiceTag)
	assert.Equal(t, 1, edited.Quantity)

	events := history(t, svc, c.ID)
	q, ok := events[len(events)-1].Changes.Get(model.FieldQuantity)
	require.True(t, ok)
	assert.Equal(t, int64(5), q.Old)
	assert.Equal(t, int64(1), q.New)
}

func TestGetItemNotFound(t *testing.T) {
	svc := newTestService(t)

	_, err := svc.GetItem(context.Background(), 1)
	requireKind(t, err, apperrors.KindNotFound)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestListItems(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	first := addLaptop(t, svc, "T1")
	addCable(t, svc, "HDMI-VGA", "10", 1)
	last := addLaptop(t, svc, "T2")
	_, err := svc.DeployItem(ctx, actor, first.ID, "alice", "")
	require.NoError(t, err)

	items, err := svc.ListItems(ctx, "")
	require.NoError(t, err)
	require.Len(t, items, 3)
	assert.Equal(t, last.ID, items[0].ID)

	byUser, err := svc.ListItems(ctx, "ALICE")
	require.NoError(t, err)
	require.Len(t, byUser, 1)
	assert.Equal(t, first.ID, byUser[0].ID)
}

func TestCategorySummary(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	a, err := svc.AddItem(ctx, actor, NewItem{Category: "Cable", Make: "A-B", Model: "1"})
	require.NoError(t, err)
	b := addCable(t, svc, "A-C", "1", 2)
	addLaptop(t, svc, "T1")
	_, err = svc.AdjustQuantity(ctx, actor, a.ID, 3, "")
	require.NoError(t, err)

	_, err = svc.GetCategorySummary(ctx, " ")
	requireKind(t, err, apperrors.KindValidation)

	sum, err := svc.GetCategorySummary(ctx, "cables")
	require.NoError(t, err)
	assert.Equal(t, "Cables", sum.Category)
	require.Len(t, sum.Items, 2)
	require.Len(t, sum.History, 3)
	assert.Equal(t, a.ID, sum.History[0].ItemID)
	assert.Equal(t, b.ID, sum.History[1].ItemID)
	assert.Equal(t, model.ActionQuantityAdjust, sum.History[2].Action)

	laptops, err := svc.GetCategorySummary(ctx, "LAPTOP")
	require.NoError(t, err)
	assert.Len(t, laptops.Items, 1)
	assert.Len(t, laptops.History, 1)
}

func TestCategoryCounts(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	addCable(t, svc, "A-B", "1", 4)
	item := addLaptop(t, svc, "T1")
	addLaptop(t, svc, "T2")
	_, err := svc.DeployItem(ctx, actor, item.ID, "alice", "")
	require.NoError(t, err)

	counts, err := svc.CategoryCounts(ctx)
	require.NoError(t, err)
	require.Len(t, counts, 2)
	assert.Equal(t, model.CategoryCount{Category: "Cables", Count: 4, InStock: 4}, counts[0])
	assert.Equal(t, model.CategoryCount{Category: "Laptop", Count: 2, InStock: 1, Deployed: 1}, counts[1])
}

func TestFailedMutationLeavesNoTrace(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	item := addLaptop(t, svc, "T1")

	// Drop the audit table so the event insert fails after the row update.
	_, err := svc.db.Exec(`DROP TABLE audit_events`)
	require.NoError(t, err)

	_, err = svc.DeployItem(ctx, actor, item.ID, "alice", "")
	require.Error(t, err)

	got, err := store.GetItem(ctx, svc.db, item.ID)
	require.NoError(t, err)
	assert.Equal(t, model.StatusInStock, got.Status)
	assert.Nil(t, got.AssignedUser)
}
