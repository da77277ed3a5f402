// Package pollset defines the file-descriptor readiness adapter a
// scheduler uses to implement wait_fd_in/wait_fd_out, plus the concrete
// epoll (Linux) and kqueue (Darwin) backends bundled with this module.
//
// The contract is intentionally narrow: Register arms a one-shot interest
// for one direction, In or Out (the caller re-registers if it wants to
// wait again, matching
// how a clause is re-armed per wait rather than left persistently
// subscribed), Clean drops all interest for a descriptor, and Poll blocks
// until at least one registered interest fires or the timeout elapses,
// invoking the associated callback inline before returning.
package pollset

import "errors"

// Common errors returned by every backend, grounded on the equivalent
// sentinel errors of the epoll/kqueue adapters this package's backends are
// ported from.
var (
	ErrFDAlreadyRegistered = errors.New("pollset: fd already registered for that direction")
	ErrFDNotRegistered     = errors.New("pollset: fd not registered")
	ErrClosed              = errors.New("pollset: closed")
)

// Direction identifies which readiness condition an interest is for.
type Direction uint8

const (
	In Direction = iota
	Out
)

// Set is the adapter contract between a scheduler and an OS polling
// mechanism. The scheduler calls Poll from its run loop without holding
// its own lock, while tasks call Register and Clean concurrently under
// that lock, so the bundled backends guard their state with an internal
// mutex.
type Set interface {
	// Register arms a one-shot interest in dir-readiness for fd. ready is
	// invoked at most once, during a subsequent call to Poll, with true if
	// the fd became ready and false if the interest was dropped due to an
	// error on the descriptor.
	Register(fd int, dir Direction, ready func(ok bool)) error
	// Clean removes every interest (both directions) registered for fd.
	// It is not an error to Clean an fd with no registered interest.
	Clean(fd int)
	// Poll blocks until at least one registered interest fires, the
	// Wake method is called from another goroutine, or timeoutMs
	// elapses (a negative value blocks indefinitely). Every interest
	// that fired has its callback invoked, inline, before Poll returns.
	Poll(timeoutMs int) error
	// Wake interrupts a concurrent call to Poll, causing it to return
	// promptly even if timeoutMs has not elapsed and nothing is ready.
	// Safe to call from any goroutine, including while Poll is running.
	Wake()
	// Close releases the underlying OS resources. Poll must not be
	// called concurrently with or after Close.
	Close() error
}
