package corert

import (
	"github.com/corert/corert/pollset"
	"github.com/corert/corert/stackpool"
)

// options holds configuration resolved from a slice of Option values.
type options struct {
	logger     Logger
	poll       pollset.Set
	stackAlloc stackpool.Allocator
}

// Option configures a Scheduler at construction time.
type Option interface {
	apply(*options)
}

type optionFunc func(*options)

func (f optionFunc) apply(o *options) { f(o) }

// WithLogger overrides the default no-op Logger.
func WithLogger(l Logger) Option {
	return optionFunc(func(o *options) { o.logger = l })
}

// WithPollset overrides the default OS-appropriate pollset backend.
func WithPollset(p pollset.Set) Option {
	return optionFunc(func(o *options) { o.poll = p })
}

// WithStackAllocator overrides the default unbounded task-admission
// policy with a bounded one (or any other Allocator implementation).
func WithStackAllocator(a stackpool.Allocator) Option {
	return optionFunc(func(o *options) { o.stackAlloc = a })
}

// resolveOptions applies opts over the default configuration, skipping
// any nil entries.
func resolveOptions(opts []Option) *options {
	o := &options{
		logger:     NewNoOpLogger(),
		stackAlloc: stackpool.Unbounded{},
	}
	for _, opt := range opts {
		if opt == nil {
			continue
		}
		opt.apply(o)
	}
	return o
}
