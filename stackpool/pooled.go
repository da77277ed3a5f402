package stackpool

import "context"

// DefaultCacheSize is the default number of admission slots a Pooled
// allocator grants concurrently, matching the "at most 64 stacks cached"
// bound of the contract this package reinterprets.
const DefaultCacheSize = 64

// Pooled is a fixed-capacity semaphore-backed allocator: at most N tasks
// may hold a ticket at once, the rest block in Acquire until one is
// released. This is the admission-control analogue of reusing a bounded
// cache of pre-allocated, guard-paged stacks instead of mapping a fresh
// region per coroutine.
type Pooled struct {
	sem chan struct{}
}

// NewPooled creates a Pooled allocator with the given capacity. A
// non-positive size falls back to DefaultCacheSize.
func NewPooled(size int) *Pooled {
	if size <= 0 {
		size = DefaultCacheSize
	}
	return &Pooled{sem: make(chan struct{}, size)}
}

func (p *Pooled) Acquire(ctx context.Context) (Ticket, error) {
	select {
	case p.sem <- struct{}{}:
		return Ticket{slot: new(struct{})}, nil
	case <-ctx.Done():
		return Ticket{}, ctx.Err()
	}
}

func (p *Pooled) Release(t Ticket) {
	if t.slot == nil {
		return
	}
	<-p.sem
}
