// Package faults defines the structured errors shared by the coordination
// services. Every failed operation reports a kind the caller can branch on
// plus a human-readable message; callers own user-facing wording and logging.
package faults

import (
	"errors"
	"fmt"
)

// Kind classifies why an operation was refused.
type Kind string

const (
	// KindValidation marks malformed or out-of-policy input.
	KindValidation Kind = "validation"
	// KindInvalidState marks an operation attempted from a state that
	// disallows it.
	KindInvalidState Kind = "invalid_state"
	// KindPermission marks an actor lacking the role or ownership required.
	KindPermission Kind = "permission"
	// KindDuplicate marks a uniqueness violation.
	KindDuplicate Kind = "duplicate"
	// KindNotFound marks a missing entity.
	KindNotFound Kind = "not_found"
)

// Error carries a failure kind and message. Checks run before any mutation,
// so an Error always means the operation was a no-op.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return string(e.Kind) + ": " + e.Message
}

// Validation returns a validation error with a formatted message.
func Validation(format string, args ...interface{}) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// InvalidState returns an invalid-state error with a formatted message.
func InvalidState(format string, args ...interface{}) *Error {
	return &Error{Kind: KindInvalidState, Message: fmt.Sprintf(format, args...)}
}

// Permission returns a permission error with a formatted message.
func Permission(format string, args ...interface{}) *Error {
	return &Error{Kind: KindPermission, Message: fmt.Sprintf(format, args...)}
}

// Duplicate returns a duplicate error with a formatted message.
func Duplicate(format string, args ...interface{}) *Error {
	return &Error{Kind: KindDuplicate, Message: fmt.Sprintf(format, args...)}
}

// NotFound returns a not-found error with a formatted message.
func NotFound(format string, args ...interface{}) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// KindOf returns the kind of err, or "" if err is not a *Error.
func KindOf(err error) Kind {
	var fe *Error
	if errors.As(err, &fe) {
		return fe.Kind
	}
	return ""
}

// Is reports whether err is a *Error of the given kind.
func Is(err error, kind Kind) bool {
	return KindOf(err) == kind
}
