package corert

import (
	"errors"
	"fmt"
)

// Sentinel errors for the seven semantic error codes of the runtime.
// Callers match them with [errors.Is]; internal code may wrap them with
// additional context via [WrapError].
var (
	// ErrTimedOut is returned when a deadline elapses before a clause fires.
	ErrTimedOut = errors.New("corert: timed out")
	// ErrBrokenPipe is returned to a parked send/recv when the peer half of
	// a channel is closed via chan_done, or when the channel is closed
	// while a peer is still parked.
	ErrBrokenPipe = errors.New("corert: broken pipe")
	// ErrMessageSize is returned when the buffer size offered by a sender
	// and receiver on the same rendezvous do not match exactly.
	ErrMessageSize = errors.New("corert: message size mismatch")
	// ErrCancelled is returned to a task woken by Cancel.
	ErrCancelled = errors.New("corert: cancelled")
	// ErrBadHandle indicates a handle value that does not identify a live
	// object, or whose type does not support the requested operation. It
	// is returned to the caller, not raised as a panic.
	ErrBadHandle = errors.New("corert: bad handle")
	// ErrNotSupported is returned when an operation is not implemented by
	// the concrete object a handle refers to (e.g. Query for a type the
	// handle does not implement).
	ErrNotSupported = errors.New("corert: not supported")
	// ErrInvalidArgument is returned for malformed caller input (e.g. an
	// empty case list passed to Select, or a nil ChanStorage passed to
	// ChanMakeMem).
	ErrInvalidArgument = errors.New("corert: invalid argument")
)

// InvalidArgumentError wraps ErrInvalidArgument with a message describing
// which argument was malformed and why.
type InvalidArgumentError struct {
	Cause   error
	Message string
}

func (e *InvalidArgumentError) Error() string {
	if e.Message == "" {
		return "corert: invalid argument"
	}
	return e.Message
}

func (e *InvalidArgumentError) Unwrap() []error {
	if e.Cause == nil {
		return []error{ErrInvalidArgument}
	}
	return []error{ErrInvalidArgument, e.Cause}
}

// invalidArgument builds an *InvalidArgumentError for the given message.
func invalidArgument(format string, args ...any) error {
	return &InvalidArgumentError{Message: fmt.Sprintf(format, args...)}
}

// WrapError wraps an error with a message, preserving the cause chain so
// that errors.Is(result, cause) still holds.
func WrapError(message string, cause error) error {
	return fmt.Errorf("%s: %w", message, cause)
}

// assertf panics with a formatted message when cond is false. corert uses
// it for clause invariant violations (a task woken twice before resuming),
// which indicate a bug in the runtime rather than a recoverable condition;
// in a library there is no separate test build, so the assertion always
// fires. Bad handles and double closes are not asserted: they return
// ErrBadHandle.
func assertf(cond bool, format string, args ...any) {
	if !cond {
		panic(fmt.Sprintf("corert: assertion failed: "+format, args...))
	}
}
