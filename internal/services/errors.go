package services

import (
	"errors"
	"fmt"

	"github.com/diewo77/uds-rfq/validation"
	"gorm.io/gorm"
)

// Error kinds. Match them with errors.Is; every error returned by this package wraps
// exactly one of them.
var (
	ErrNotFound     = errors.New("not_found")
	ErrValidation   = errors.New("validation_failed")
	ErrInvalidState = errors.New("invalid_state")
	ErrConflict     = errors.New("conflict")
	ErrPersistence  = errors.New("persistence_error")
)

// Error carries a kind, a user-facing message and, for validation failures, the
// offending fields.
type Error struct {
	Kind    error
	Message string
	Details validation.Violations
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" {
		msg = e.Kind.Error()
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *Error) Unwrap() []error {
	if e.Err != nil {
		return []error{e.Kind, e.Err}
	}
	return []error{e.Kind}
}

// Code returns the machine-readable kind ("not_found", "invalid_state", ...).
func (e *Error) Code() string { return e.Kind.Error() }

func notFound(format string, args ...any) *Error {
	return &Error{Kind: ErrNotFound, Message: fmt.Sprintf(format, args...)}
}

func invalidState(format string, args ...any) *Error {
	return &Error{Kind: ErrInvalidState, Message: fmt.Sprintf(format, args...)}
}

func validationFailed(v validation.Violations) *Error {
	return &Error{Kind: ErrValidation, Message: "validation failed", Details: v}
}

// dbError classifies a store error. Errors already classified pass through; duplicate
// keys become conflicts; a missing record becomes not_found; anything else is a
// persistence error.
func dbError(err error, what string) error {
	if err == nil {
		return nil
	}
	var se *Error
	if errors.As(err, &se) {
		return err
	}
	switch {
	case errors.Is(err, gorm.ErrDuplicatedKey):
		return &Error{Kind: ErrConflict, Message: what + " conflicts with a concurrent write", Err: err}
	case errors.Is(err, gorm.ErrRecordNotFound):
		return &Error{Kind: ErrNotFound, Message: what + " not found", Err: err}
	default:
		return &Error{Kind: ErrPersistence, Message: "failed to persist " + what, Err: err}
	}
}

// AsError returns the classified error, wrapping unknown errors as persistence errors.
func AsError(err error) *Error {
	var se *Error
	if errors.As(err, &se) {
		return se
	}
	return &Error{Kind: ErrPersistence, Message: "internal error", Err: err}
}
