package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

// Item audit actions.
const (
	ActionAdd            = "add"
	ActionEdit           = "edit"
	ActionDeploy         = "deploy"
	ActionReturn         = "return"
	ActionRetire         = "retire"
	ActionRestore        = "restore"
	ActionQuantityAdjust = "quantity_adjust"
)

// AuditEvent is one immutable entry in an item's history.
type AuditEvent struct {
	ID        int64     `json:"id"`
	ItemID    int64     `json:"item_id"`
	Actor     string    `json:"actor"`
	Timestamp time.Time `json:"timestamp"`
	Action    string    `json:"action"`
	Changes   Changes   `json:"changes"`
	Note      *string   `json:"note"`
}

// FieldChange is the old and new value of one field. Values are nil, string
// or int64.
type FieldChange struct {
	Field string
	Old   any
	New   any
}

// Changes is an ordered field diff. It serializes as a JSON object keyed by
// field name, in insertion order.
type Changes []FieldChange

// Add records field if old and new differ.
func (c *Changes) Add(field string, old, new any) {
	old, new = normalizeValue(old), normalizeValue(new)
	if old == new {
		return
	}
	*c = append(*c, FieldChange{Field: field, Old: old, New: new})
}

// Get returns the change recorded for field.
func (c Changes) Get(field string) (FieldChange, bool) {
	for _, fc := range c {
		if fc.Field == field {
			return fc, true
		}
	}
	return FieldChange{}, false
}

// Has reports whether field changed.
func (c Changes) Has(field string) bool {
	_, ok := c.Get(field)
	return ok
}

// Fields returns the changed field names in order.
func (c Changes) Fields() []string {
	fields := make([]string, len(c))
	for i, fc := range c {
		fields[i] = fc.Field
	}
	return fields
}

type oldNew struct {
	Old any `json:"old"`
	New any `json:"new"`
}

type rawOldNew struct {
	Old json.RawMessage `json:"old"`
	New json.RawMessage `json:"new"`
}

// MarshalJSON implements json.Marshaler.
func (c Changes) MarshalJSON() ([]byte, error) {
	if c == nil {
		return []byte("null"), nil
	}
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, fc := range c {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(fc.Field)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(oldNew{Old: fc.Old, New: fc.New})
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON implements json.Unmarshaler, keeping the key order.
func (c *Changes) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		*c = nil
		return nil
	}

	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("changes: expected object, got %v", tok)
	}

	out := Changes{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		field, ok := tok.(string)
		if !ok {
			return fmt.Errorf("changes: expected field name, got %v", tok)
		}
		var raw rawOldNew
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("changes: decoding %q: %w", field, err)
		}
		old, err := decodeValue(raw.Old)
		if err != nil {
			return fmt.Errorf("changes: decoding %q old: %w", field, err)
		}
		new, err := decodeValue(raw.New)
		if err != nil {
			return fmt.Errorf("changes: decoding %q new: %w", field, err)
		}
		out = append(out, FieldChange{Field: field, Old: old, New: new})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*c = out
	return nil
}

func decodeValue(raw json.RawMessage) (any, error) {
	if len(raw) == 0 {
		return nil, nil
	}
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, err
	}
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
		return n.Float64()
	}
	return v, nil
}

// normalizeValue maps the field types used on Item to the diff value types.
func normalizeValue(v any) any {
	switch t := v.(type) {
	case *string:
		if t == nil {
			return nil
		}
		return *t
	case int:
		return int64(t)
	case int32:
		return int64(t)
	default:
		return v
	}
}

// User audit actions.
const (
	ActionUserCreated   = "user_created"
	ActionRoleChanged   = "role_changed"
	ActionPasswordReset = "password_reset"
)

// UserAuditLog records an administrative action on a user account.
type UserAuditLog struct {
	ID         int64     `json:"id"`
	Actor      string    `json:"actor"`
	TargetUser string    `json:"target_user"`
	Timestamp  time.Time `json:"timestamp"`
	Action     string    `json:"action"`
	Details    string    `json:"details,omitempty"`
	OldValue   *string   `json:"old_value"`
	NewValue   *string   `json:"new_value"`
}
