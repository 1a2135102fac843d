// Package apperrors defines the error kinds the services return and the
// transport layer renders.
package apperrors

import (
	"errors"
	"fmt"
)

// Kind classifies an Error.
type Kind int

// Error kinds.
const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindForbidden
	KindIntegrity
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindIntegrity:
		return "integrity"
	default:
		return "internal"
	}
}

// Sentinels usable with errors.Is.
var (
	ErrNotFound       = errors.New("not found")
	ErrDuplicateCable = errors.New("duplicate cable")
)

// Error is a failure with a kind and a message that is safe to show callers.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err == nil || isSentinel(e.Err) {
		return e.Message
	}
	return fmt.Sprintf("%s: %v", e.Message, e.Err)
}

// isSentinel reports whether err is one of this package's sentinels, which
// only classify the error and add nothing to its text.
func isSentinel(err error) bool {
	return err == ErrNotFound || err == ErrDuplicateCable
}

func (e *Error) Unwrap() error { return e.Err }

// Validation reports a missing or malformed input field.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound reports that the named entity does not exist.
func NotFound(what string) *Error {
	return &Error{Kind: KindNotFound, Message: what + " not found", Err: ErrNotFound}
}

// Conflict reports an illegal transition or a no-op request.
func Conflict(format string, args ...any) *Error {
	return &Error{Kind: KindConflict, Message: fmt.Sprintf(format, args...)}
}

// Forbidden reports that the actor's role does not allow the action.
func Forbidden(format string, args ...any) *Error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

// Integrity wraps an unanticipated store constraint violation.
func Integrity(err error) *Error {
	return &Error{Kind: KindIntegrity, Message: "store constraint violated", Err: err}
}

// KindOf returns the kind of the first *Error in err's chain, or KindInternal.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// MessageOf returns the caller-facing message of err.
func MessageOf(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "internal error"
}
