// Package apperr defines the structural error kinds shared across the
// session engine, stores, and HTTP transport.
package apperr

import "fmt"

// Kind classifies an Error for status-code mapping at the HTTP boundary.
type Kind string

const (
	KindNotFound           Kind = "not_found"
	KindInvalidState       Kind = "invalid_state"
	KindSimulatorError     Kind = "simulator_error"
	KindNotEnoughData      Kind = "not_enough_data"
	KindInternal           Kind = "internal"
	KindStoreError         Kind = "store_error"
	KindSerializationError Kind = "serialization_error"
)

// Error is a structural error: a Kind plus a human-readable message.
// No error codes beyond the kind, per the session engine's error policy.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func New(kind Kind, format string, args ...interface{}) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

func NotFound(format string, args ...interface{}) *Error {
	return New(KindNotFound, format, args...)
}

func InvalidState(format string, args ...interface{}) *Error {
	return New(KindInvalidState, format, args...)
}

func SimulatorError(format string, args ...interface{}) *Error {
	return New(KindSimulatorError, format, args...)
}

func NotEnoughData(format string, args ...interface{}) *Error {
	return New(KindNotEnoughData, format, args...)
}

func Internal(format string, args ...interface{}) *Error {
	return New(KindInternal, format, args...)
}

func StoreError(format string, args ...interface{}) *Error {
	return New(KindStoreError, format, args...)
}

func SerializationError(format string, args ...interface{}) *Error {
	return New(KindSerializationError, format, args...)
}

// As extracts an *Error from a generic error, reporting ok=false for
// anything that wasn't produced by this package.
func As(err error) (*Error, bool) {
	ae, ok := err.(*Error)
	return ae, ok
}

// KindOf returns the Kind of err, defaulting to KindInternal for
// errors not produced by this package.
func KindOf(err error) Kind {
	if ae, ok := As(err); ok {
		return ae.Kind
	}
	return KindInternal
}
