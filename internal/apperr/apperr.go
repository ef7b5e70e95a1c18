// Package apperr classifies the error conditions that callers and the
// transport layer must tell apart. Services return these; the HTTP layer
// maps each kind to a status code in one place.
package apperr

import (
	"errors"
	"fmt"
)

// Kind identifies a category of failure. Kinds are string-based so they
// serialize naturally into API responses and logs.
type Kind string

const (
	// KindNotFound indicates a referenced entity does not exist.
	KindNotFound Kind = "NOT_FOUND"

	// KindInvalid indicates a structural constraint on the input was violated.
	KindInvalid Kind = "INVALID_INPUT"

	// KindInvalidState indicates the operation is disallowed by the current
	// state of the entity.
	KindInvalidState Kind = "INVALID_STATE"

	// KindForbidden indicates the principal lacks authorization for the
	// requested resource or scope.
	KindForbidden Kind = "FORBIDDEN"

	// KindDuplicate indicates a uniqueness constraint was violated.
	KindDuplicate Kind = "DUPLICATE"
)

// Error carries a kind plus a human-readable message.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return e.Message }

// Is matches any *Error of the same kind, so callers can write
// errors.Is(err, apperr.NotFound("")) without caring about the message.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return t.Kind == e.Kind
}

func NotFound(format string, args ...any) error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

func Invalid(format string, args ...any) error {
	return &Error{Kind: KindInvalid, Message: fmt.Sprintf(format, args...)}
}

func InvalidState(format string, args ...any) error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

func Forbidden(format string, args ...any) error {
	return &Error{Kind: KindForbidden, Message: fmt.Sprintf(format, args...)}
}

func Duplicate(format string, args ...any) error {
	return &Error{Kind: KindDuplicate, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, unwrapping as needed. It returns the
// empty kind for errors that are not an *Error.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err is an *Error of the given kind.
func IsKind(err error, k Kind) bool {
	return KindOf(err) == k
}
