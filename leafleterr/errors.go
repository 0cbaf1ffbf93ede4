// Package leafleterr implements the adapter's error taxonomy. Every error
// that can cross a Provider operation boundary is one of the Kind values
// below, wrapped with go-errors/errors so a stack trace survives
// propagation back to the caller.
package leafleterr

import (
	"errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

// Kind classifies why a Provider operation failed.
type Kind int

const (
	// InvalidInput means a hex or bech32m value failed validation.
	InvalidInput Kind = iota

	// NotConnected means the operation was attempted before initialize
	// or after close.
	NotConnected

	// TransportError means the channel failed to open or a send/receive
	// failed at the I/O layer.
	TransportError

	// Timeout means a filter's deadline elapsed with no matching frame.
	Timeout

	// Cancelled means the manager was closed while the operation was
	// still pending.
	Cancelled

	// UnsupportedOperation means the Leaflet provider does not implement
	// the requested method.
	UnsupportedOperation

	// DecodeError means a frame matching a type code could not be
	// decoded. Callers of Provider operations never see this directly;
	// it is only logged from within the dispatch loop.
	DecodeError
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case InvalidInput:
		return "InvalidInput"
	case NotConnected:
		return "NotConnected"
	case TransportError:
		return "TransportError"
	case Timeout:
		return "Timeout"
	case Cancelled:
		return "Cancelled"
	case UnsupportedOperation:
		return "UnsupportedOperation"
	case DecodeError:
		return "DecodeError"
	default:
		return "Unknown"
	}
}

// Error is the concrete error type behind every Kind above. It carries a
// Kind so callers can type-switch on failure class
// without parsing message text.
type Error struct {
	Kind Kind
	err  *goerrors.Error
}

// Error implements the error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Kind, e.err.Error())
}

// Unwrap allows errors.Is / errors.As to see through to the wrapped cause.
func (e *Error) Unwrap() error {
	return e.err.Err
}

// Stack returns the formatted stack trace captured at the point the error
// was created, useful for logging decode and transport failures.
func (e *Error) Stack() []byte {
	return e.err.Stack()
}

// New creates an Error of the given Kind from a message.
func New(kind Kind, msg string) *Error {
	return &Error{Kind: kind, err: goerrors.New(msg)}
}

// Wrap creates an Error of the given Kind wrapping an existing error,
// preserving it for Unwrap and capturing a fresh stack trace.
func Wrap(kind Kind, cause error) *Error {
	if cause == nil {
		return nil
	}
	return &Error{Kind: kind, err: goerrors.Wrap(cause, 1)}
}

// Is reports whether err is a *Error of the given Kind.
func Is(err error, kind Kind) bool {
	var e *Error
	if !errors.As(err, &e) {
		return false
	}
	return e.Kind == kind
}
