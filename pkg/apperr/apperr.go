// Package apperr models the error kinds the core distinguishes, per the
// error handling design: not exception classes, just enough to let edge
// handlers and workers decide how to recover.
package apperr

import (
	"errors"
	"fmt"
)

// Kind classifies an error for recovery-policy purposes.
type Kind string

// Error kinds recognised throughout the core.
const (
	KindNotFound    Kind = "NOT_FOUND"
	KindValidation  Kind = "VALIDATION"
	KindConflict    Kind = "CONFLICT"
	KindTransient   Kind = "TRANSIENT"
	KindCircuitOpen Kind = "CIRCUIT_OPEN"
	KindRateLimited Kind = "RATE_LIMITED"
	KindIntegrity   Kind = "INTEGRITY"
	KindFatal       Kind = "FATAL"
)

// Error wraps an underlying cause with a recovery-relevant Kind.
type Error struct {
	Kind    Kind
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Err }

// New creates a Kind-classified error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Wrap classifies an existing error under Kind, preserving it for Unwrap.
func Wrap(kind Kind, message string, err error) *Error {
	return &Error{Kind: kind, Message: message, Err: err}
}

// Is reports whether err (or anything it wraps) carries the given Kind.
func Is(err error, kind Kind) bool {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind == kind
	}
	return false
}

// KindOf extracts the Kind of err, defaulting to KindFatal when err does
// not carry an *Error (an uncategorized error is treated conservatively:
// do not retry, do not expose details).
func KindOf(err error) Kind {
	var ae *Error
	if errors.As(err, &ae) {
		return ae.Kind
	}
	return KindFatal
}

// Retryable reports whether the recovery policy should let the queue retry.
func Retryable(err error) bool {
	switch KindOf(err) {
	case KindTransient, KindCircuitOpen:
		return true
	default:
		return false
	}
}

// NotFound/Validation/Conflict helpers mirror the common constructors.
func NotFound(message string) *Error   { return New(KindNotFound, message) }
func Validation(message string) *Error { return New(KindValidation, message) }
func Conflict(message string) *Error   { return New(KindConflict, message) }
func Transient(message string, err error) *Error {
	return Wrap(KindTransient, message, err)
}
func Fatal(message string, err error) *Error {
	return Wrap(KindFatal, message, err)
}
