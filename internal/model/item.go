package model

import "time"

// Item is a tracked asset or, for the cable category, a stock record whose
// quantity says how many are on hand.
type Item struct {
	ID           int64     `json:"id"`
	Category     string    `json:"category"`
	Make         string    `json:"make"`
	Model        string    `json:"model"`
	ServiceTag   string    `json:"service_tag"`
	Quantity     int       `json:"quantity"`
	Row          *string   `json:"row"`
	Note         *string   `json:"note"`
	Status       string    `json:"status"`
	AssignedUser *string   `json:"assigned_user"`
	CreatedAt    time.Time `json:"created_at"`
	CreatedBy    string    `json:"created_by"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// Item statuses.
const (
	StatusInStock  = "in_stock"
	StatusDeployed = "deployed"
	StatusRetired  = "retired"
)

// Item field names as they appear in audit diffs.
const (
	FieldCategory     = "category"
	FieldMake         = "make"
	FieldModel        = "model"
	FieldServiceTag   = "service_tag"
	FieldQuantity     = "quantity"
	FieldRow          = "row"
	FieldNote         = "note"
	FieldStatus       = "status"
	FieldAssignedUser = "assigned_user"
)

// CategoryCount summarizes one category. Cables count by quantity, every
// other item counts once.
type CategoryCount struct {
	Category string `json:"category"`
	Count    int    `json:"count"`
	InStock  int    `json:"in_stock"`
	Deployed int    `json:"deployed"`
	Retired  int    `json:"retired"`
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

// StringValue dereferences p, treating nil as empty.
func StringValue(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}
