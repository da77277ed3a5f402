// Package stackpool implements the stack allocator contract of the
// runtime's task subsystem. Go has no user-managed call stacks, so the
// contract is reinterpreted as a bounded admission pool for the
// goroutines backing spawned tasks: Acquire is the analogue of
// allocating a stack before a coroutine starts running, Release is the
// analogue of freeing it once the coroutine's trampoline returns.
package stackpool

import "context"

// Ticket is the handle returned by Acquire. It carries no data; its only
// purpose is to be passed back to Release exactly once.
type Ticket struct{ slot *struct{} }

// Allocator is the pluggable admission-control contract. A scheduler is
// configured with exactly one Allocator for its lifetime.
type Allocator interface {
	// Acquire blocks until admission is granted or ctx is cancelled.
	Acquire(ctx context.Context) (Ticket, error)
	// Release returns a ticket obtained from Acquire. Releasing the zero
	// Ticket has no effect (Unbounded.Acquire hands out only zero
	// Tickets); a non-zero Ticket is released exactly once.
	Release(Ticket)
}

// Unbounded grants every Acquire immediately, mirroring a plain
// allocator with no guard pages and no cache: every task gets its own
// goroutine with no admission delay.
type Unbounded struct{}

func (Unbounded) Acquire(context.Context) (Ticket, error) { return Ticket{}, nil }
func (Unbounded) Release(Ticket)                          {}
