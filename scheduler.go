package corert

import (
	"context"
	"sync"

	"github.com/corert/corert/pollset"
	"github.com/corert/corert/stackpool"
)

// Scheduler is one cooperative-scheduling context: its own handle table,
// timer heap, and pollset, entirely independent of any other Scheduler in
// the same process. Every blocking operation performed by a task spawned
// on a Scheduler is serialized against that Scheduler's own mutex, the Go
// realization of the "single OS thread drives all task switches within a
// context" invariant: many goroutines may call into a Scheduler at once,
// but exactly one of them is ever mutating its clause lists, timer heap,
// or handle table at a time.
type Scheduler struct {
	mu         sync.Mutex
	handles    *HandleTable
	timers     *timerHeap
	clock      *clock
	poll       pollset.Set
	stackAlloc stackpool.Allocator
	logger     Logger

	state   *FastState
	stop    chan struct{}
	stopped chan struct{}
}

// NewScheduler creates a Scheduler. The caller must call Run to start
// processing timers and I/O, and Shutdown to release its resources.
func NewScheduler(opts ...Option) (*Scheduler, error) {
	o := resolveOptions(opts)

	s := &Scheduler{
		handles:    NewHandleTable(),
		timers:     newTimerHeap(),
		clock:      newClock(),
		stackAlloc: o.stackAlloc,
		logger:     o.logger,
		state:      NewFastState(),
		stop:       make(chan struct{}),
		stopped:    make(chan struct{}),
	}

	poll := o.poll
	if poll == nil {
		p, err := pollset.New()
		if err != nil {
			return nil, err
		}
		poll = p
	}
	s.poll = poll

	return s, nil
}

// wake interrupts a blocked poll cycle so it re-evaluates the next timer
// deadline or newly registered interest. Callers must hold s.mu.
func (s *Scheduler) wake() {
	s.poll.Wake()
}

// Run drives the Scheduler's timer and I/O loop until ctx is cancelled or
// Shutdown is called. It returns when the loop has fully stopped.
func (s *Scheduler) Run(ctx context.Context) error {
	if !s.state.TryTransition(StateAwake, StateRunning) {
		return invalidArgument("scheduler already running or terminated")
	}

	watchDone := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Shutdown(context.Background())
		case <-watchDone:
		}
	}()
	defer close(watchDone)

	s.loggerLog(LevelInfo, "scheduler run loop starting")
	for {
		select {
		case <-s.stop:
			s.state.Store(StateTerminated)
			close(s.stopped)
			s.loggerLog(LevelInfo, "scheduler run loop stopped")
			return nil
		default:
		}

		s.mu.Lock()
		now := s.clock.nowMillis()
		for _, e := range s.timers.PopExpired(now) {
			trigger(e.clause, ErrTimedOut)
		}
		timeoutMs := -1
		if e, ok := s.timers.Peek(); ok {
			d := e.deadline - now
			if d < 0 {
				d = 0
			}
			timeoutMs = int(d)
		}
		s.mu.Unlock()

		if err := s.poll.Poll(timeoutMs); err != nil {
			s.loggerLog(LevelError, "poll error: "+err.Error())
		}
		s.clock.refresh()
	}
}

// Shutdown stops the run loop and releases scheduler resources. It is
// idempotent.
func (s *Scheduler) Shutdown(ctx context.Context) error {
	select {
	case <-s.stop:
	default:
		close(s.stop)
		s.mu.Lock()
		s.wake()
		s.mu.Unlock()
	}
	select {
	case <-s.stopped:
		return s.poll.Close()
	case <-ctx.Done():
		return ctx.Err()
	}
}

// spawn launches fn in a new goroutine as a child of parent (nil for a
// top-level task), admission-controlled by the scheduler's stack
// allocator.
func (s *Scheduler) spawn(parent *Bundle, fn func(t *T)) (Handle, error) {
	ticket, err := s.stackAlloc.Acquire(context.Background())
	if err != nil {
		return 0, err
	}

	tsk := &task{
		sched:   s,
		parent:  parent,
		clauses: newList[clause](clauseTaskLink),
		resume:  make(chan wakeup, 1),
		done:    make(chan struct{}),
	}

	s.mu.Lock()
	h := s.handles.Add(tsk)
	tsk.handle = h
	if parent != nil {
		parent.children.PushBack(tsk)
	}
	s.mu.Unlock()

	go func() {
		defer s.stackAlloc.Release(ticket)
		defer func() {
			if r := recover(); r != nil {
				tsk.panicVal = r
				s.loggerLog(LevelError, "task panicked")
			}
			s.mu.Lock()
			if tsk.parent != nil {
				tsk.parent.children.Remove(tsk)
			}
			s.mu.Unlock()
			close(tsk.done)
		}()
		fn(&T{task: tsk, sched: s})
	}()

	return h, nil
}

// Spawn launches fn as an independent, top-level task.
func (s *Scheduler) Spawn(fn func(t *T)) (Handle, error) {
	return s.spawn(nil, fn)
}

// Close releases the object behind h (a task, bundle, or channel
// endpoint). Close never blocks, per the runtime's own invariant, except
// for Bundle, whose documented close semantics require waiting for its
// children.
func (s *Scheduler) Close(h Handle) error {
	// Deliberately not wrapped in s.mu: HandleTable guards its own slot
	// bookkeeping with an internal lock, and some objects' Close (Bundle,
	// notably) must itself acquire s.mu to cancel and await children —
	// holding s.mu here would deadlock against that.
	return s.handles.Close(h)
}

// Own transfers ownership of h; see HandleTable.Own.
func (s *Scheduler) Own(h Handle) (Handle, error) {
	return s.handles.Own(h)
}

// Query probes the object behind h for kind.
func (s *Scheduler) Query(h Handle, kind any) (any, error) {
	return s.handles.Query(h, kind)
}
