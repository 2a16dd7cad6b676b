package store

import (
	"errors"
	"fmt"
)

// Kind classifies a store failure independently of its message.
type Kind int

// Failure kinds.
const (
	KindNotFound Kind = iota + 1
	KindAlreadyExists
	KindConflict
)

// Error is a persistence failure that services translate into domain errors.
type Error struct {
	Kind    Kind
	Message string
	Err     error // Underlying driver error (optional)
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error { return e.Err }

// Is matches any *Error of the same Kind, so wrapped sentinels still compare equal.
func (e *Error) Is(target error) bool {
	var t *Error
	if errors.As(target, &t) {
		return e.Kind == t.Kind
	}
	return false
}

// WithMessage returns a new error with a custom message.
func (e *Error) WithMessage(msg string) *Error {
	return &Error{Kind: e.Kind, Message: msg, Err: e.Err}
}

// WithCause wraps an underlying error.
func (e *Error) WithCause(err error) *Error {
	return &Error{Kind: e.Kind, Message: e.Message, Err: err}
}

// Sentinel errors.
var (
	ErrNotFound = &Error{
		Kind:    KindNotFound,
		Message: "resource not found",
	}

	ErrAlreadyExists = &Error{
		Kind:    KindAlreadyExists,
		Message: "resource already exists",
	}

	// ErrConflict reports a write refused by a foreign key: a referenced row is
	// missing, or a row being deleted is still referenced.
	ErrConflict = &Error{
		Kind:    KindConflict,
		Message: "constraint violation",
	}
)
