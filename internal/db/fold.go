package db

import (
	"database/sql/driver"
	"strings"

	"modernc.org/sqlite"
)

// LowerFunc is the SQL function that lower-cases text with Go's Unicode
// rules. SQLite's built-in lower() only handles ASCII, so case-insensitive
// comparisons that must agree with Go-side keys use this one instead.
const LowerFunc = "ulower"

func init() {
	sqlite.MustRegisterDeterministicScalarFunction(LowerFunc, 1, unicodeLower)
}

func unicodeLower(_ *sqlite.FunctionContext, args []driver.Value) (driver.Value, error) {
	switch v := args[0].(type) {
	case string:
		return strings.ToLower(v), nil
	case []byte:
		return strings.ToLower(string(v)), nil
	default:
		return v, nil
	}
}
