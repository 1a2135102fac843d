package inventory

import (
	"strings"

	"github.com/erazemk/oprema/internal/model"
)

type fieldValue struct {
	name  string
	value any
}

// fieldValues lists the audited fields of item in diff order.
func fieldValues(item *model.Item) []fieldValue {
	return []fieldValue{
		{model.FieldCategory, item.Category},
		{model.FieldMake, item.Make},
		{model.FieldModel, item.Model},
		{model.FieldServiceTag, item.ServiceTag},
		{model.FieldQuantity, item.Quantity},
		{model.FieldRow, item.Row},
		{model.FieldNote, item.Note},
		{model.FieldStatus, item.Status},
		{model.FieldAssignedUser, item.AssignedUser},
	}
}

// diffItems returns the fields that differ between before and after.
func diffItems(before, after *model.Item) model.Changes {
	var changes model.Changes
	b, a := fieldValues(before), fieldValues(after)
	for i := range b {
		changes.Add(b[i].name, b[i].value, a[i].value)
	}
	return changes
}

// initialChanges lists every non-null field of a new item as set from null.
func initialChanges(item *model.Item) model.Changes {
	var changes model.Changes
	for _, f := range fieldValues(item) {
		changes.Add(f.name, nil, f.value)
	}
	return changes
}

func trim(s string) string {
	return strings.TrimSpace(s)
}

// optional trims s and maps blank to nil.
func optional(s string) *string {
	return model.StringPtr(trim(s))
}
