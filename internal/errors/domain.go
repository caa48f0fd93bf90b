// Package errors defines the closed error taxonomy of the license service
// and its mapping to RFC 7807 problem responses.
//
// Domain failures are represented by a single tagged Error type carrying
// {kind, message, context}. Callers branch on the kind via KindOf or the
// Is* helpers rather than on reflected error shapes.
package errors

import (
	"errors"
	"fmt"
)

// Kind classifies a domain failure.
type Kind string

const (
	// KindValidation marks malformed or missing input. The caller can fix
	// the request and retry.
	KindValidation Kind = "validation"

	// KindNotFound marks a reference to an application that does not exist.
	KindNotFound Kind = "not_found"

	// KindConflict marks an attempted transition on an already-decided
	// application, including the loser of a concurrent review race.
	KindConflict Kind = "conflict"

	// KindAuthorization marks a caller lacking the role an operation
	// requires.
	KindAuthorization Kind = "authorization"

	// KindPersistence marks an underlying store failure. Not retried by
	// the core; safe for callers to retry whole operations.
	KindPersistence Kind = "persistence"
)

// Error is the closed domain error type. Context carries structured
// details such as the offending field or the current status.
type Error struct {
	Kind    Kind
	Message string
	Context map[string]any

	cause error
}

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap exposes the underlying cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// With attaches a context value and returns the error for chaining.
func (e *Error) With(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// KindOf returns the kind of err, or "" when err is not a domain Error.
func KindOf(err error) Kind {
	var de *Error
	if errors.As(err, &de) {
		return de.Kind
	}
	return ""
}

// NewValidation creates a validation error naming the offending field.
func NewValidation(field, message string) *Error {
	e := &Error{Kind: KindValidation, Message: message}
	return e.With("field", field)
}

// NewNotFound creates a not-found error for an application id.
func NewNotFound(id string) *Error {
	e := &Error{Kind: KindNotFound, Message: "license application not found"}
	return e.With("id", id)
}

// NewConflict creates an already-decided error naming the current status,
// so the caller understands why the transition was refused.
func NewConflict(currentStatus string) *Error {
	e := &Error{
		Kind:    KindConflict,
		Message: fmt.Sprintf("application already decided: status is %s", currentStatus),
	}
	return e.With("current_status", currentStatus)
}

// NewAuthorization creates an error for a caller missing the required role.
func NewAuthorization(requiredRole string) *Error {
	e := &Error{Kind: KindAuthorization, Message: "caller lacks required role"}
	return e.With("required_role", requiredRole)
}

// NewPersistence wraps a store failure.
func NewPersistence(op string, cause error) *Error {
	e := &Error{Kind: KindPersistence, Message: "store operation failed", cause: cause}
	return e.With("operation", op)
}

// IsValidation reports whether err is a validation error.
func IsValidation(err error) bool { return KindOf(err) == KindValidation }

// IsNotFound reports whether err is a not-found error.
func IsNotFound(err error) bool { return KindOf(err) == KindNotFound }

// IsConflict reports whether err is an already-decided conflict.
func IsConflict(err error) bool { return KindOf(err) == KindConflict }

// IsAuthorization reports whether err is an authorization error.
func IsAuthorization(err error) bool { return KindOf(err) == KindAuthorization }

// IsPersistence reports whether err is a store failure.
func IsPersistence(err error) bool { return KindOf(err) == KindPersistence }
