package corert

import (
	"context"
	"sync/atomic"
)

// task is a scheduler's internal control block for a running or parked
// coroutine: a goroutine standing in for the manually-switched stack this
// runtime's ancestor implementation uses, a clause list for whatever it is
// currently parked on, and a cancellation flag checked at the next
// suspension point when cancellation arrives while the task is running
// rather than blocked.
type task struct {
	sched   *Scheduler
	handle  Handle
	parent  *Bundle
	clauses *list[clause]
	resume  chan wakeup

	cancelled atomic.Bool
	cancelErr atomic.Pointer[error]

	done     chan struct{}
	panicVal any

	bundleLink listLink[task] // membership in parent.children
}

func bundleTaskLink(t *task) *listLink[task] { return &t.bundleLink }

func (t *task) Query(kind any) (any, bool) {
	if _, ok := kind.(*task); ok {
		return t, true
	}
	return nil, false
}

func (t *task) Close() error {
	// Close never suspends (matching close() must never block), so it
	// does not wait for a still-running task; it reports an error for
	// one instead. HandleTable.Close has already released the slot by the
	// time it calls this method, so the Handle stops resolving either way
	// and the task's goroutine keeps running.
	if !t.isDone() {
		return invalidArgument("cannot close a running task handle; cancel and await it instead")
	}
	return nil
}

func (t *task) isDone() bool {
	select {
	case <-t.done:
		return true
	default:
		return false
	}
}

// T is the identity a spawned function body uses to perform blocking
// operations against the scheduler that spawned it: Await, Yield,
// SleepUntil, WaitFDIn/Out, and (via the Chan type) Send/Recv/Select. It
// plays the role libdill's implicit "current coroutine" plays, made
// explicit since Go has no per-goroutine user data to stash it in.
type T struct {
	task  *task
	sched *Scheduler
}

// Handle returns the Handle identifying the running task itself.
func (t *T) Handle() Handle { return t.task.handle }

// Yield passes the calling task through one suspension point and returns
// at once: it registers a clause, fires it, and consumes the resulting
// wakeup. Since task bodies in this implementation are ordinary
// goroutines, the underlying Go scheduler already interleaves them; Yield
// does not itself hand the turn to another task.
func (t *T) Yield() {
	c := waitFor(t.task, 0, nil)
	t.sched.mu.Lock()
	trigger(c, nil)
	t.sched.mu.Unlock()
	t.task.wait()
}

// wait blocks until some clause belonging to this task fires, returning
// its id and error.
func (t *task) wait() (int, error) {
	w := <-t.resume
	return w.id, w.err
}

// checkCancelled returns the cancellation error (ErrCancelled unless Cancel
// was given another) if Cancel was called while this task was running (not
// parked). The flag is level-triggered: it stays set, so every later
// blocking call fails the same way.
func (t *task) checkCancelled() error {
	if t.cancelled.Load() {
		if p := t.cancelErr.Load(); p != nil {
			return *p
		}
		return ErrCancelled
	}
	return nil
}

// Cancel requests cancellation of the task behind h. If the task is
// currently parked on a clause, that clause fires immediately with err
// (ErrCancelled if err is nil). If the task is running, a flag is set that
// makes its next and every later blocking call fail with err.
func (s *Scheduler) Cancel(h Handle, err error) error {
	if err == nil {
		err = ErrCancelled
	}
	s.mu.Lock()
	obj, gerr := s.handles.Get(h)
	if gerr != nil {
		s.mu.Unlock()
		return gerr
	}
	tsk, ok := obj.(*task)
	if !ok {
		s.mu.Unlock()
		return ErrBadHandle
	}
	if c := tsk.clauses.Front(); c != nil {
		trigger(c, err)
		s.mu.Unlock()
		return nil
	}
	tsk.cancelErr.Store(&err)
	tsk.cancelled.Store(true)
	s.mu.Unlock()
	return nil
}

// Await blocks the calling task until the task behind h finishes, or the
// deadline elapses (ErrTimedOut), or the caller is itself cancelled
// (ErrCancelled). A task that already finished returns immediately.
func (t *T) Await(h Handle, deadline int64) error {
	if err := t.task.checkCancelled(); err != nil {
		return err
	}
	t.sched.mu.Lock()
	obj, err := t.sched.handles.Get(h)
	if err != nil {
		t.sched.mu.Unlock()
		return err
	}
	target, ok := obj.(*task)
	if !ok {
		t.sched.mu.Unlock()
		return ErrBadHandle
	}
	if target.isDone() {
		t.sched.mu.Unlock()
		return nil
	}

	// Register the clause before releasing the lock and starting the
	// watcher goroutine below, so the watcher can never observe
	// target.done closed before the clause it would trigger exists.
	c := waitFor(t.task, 1, nil)
	var timer *timerEntry
	if deadline >= 0 {
		timer = t.sched.timers.Add(deadline, c)
	}
	t.sched.wake()
	t.sched.mu.Unlock()

	watchDone := make(chan struct{})
	go func() {
		select {
		case <-target.done:
		case <-watchDone:
			return
		}
		t.sched.mu.Lock()
		trigger(c, nil)
		t.sched.mu.Unlock()
	}()

	_, werr := t.task.wait()
	close(watchDone)

	if timer != nil {
		t.sched.mu.Lock()
		t.sched.timers.Remove(timer)
		t.sched.mu.Unlock()
	}
	return werr
}

// SleepUntil suspends the calling task until the absolute monotonic
// deadline (in milliseconds) elapses. It always returns nil unless the
// task is cancelled first.
func (t *T) SleepUntil(deadline int64) error {
	if err := t.task.checkCancelled(); err != nil {
		return err
	}
	t.sched.mu.Lock()
	c := waitFor(t.task, 0, nil)
	var timer *timerEntry
	if deadline >= 0 {
		timer = t.sched.timers.Add(deadline, c)
	}
	t.sched.wake()
	t.sched.mu.Unlock()
	_, err := t.task.wait()
	if err == ErrTimedOut {
		err = nil
	}
	if timer != nil {
		t.sched.mu.Lock()
		t.sched.timers.Remove(timer)
		t.sched.mu.Unlock()
	}
	return err
}

// WithContext adapts a context.Context's cancellation into a Cancel call
// on h, for callers who want Go-idiomatic cancellation propagation layered
// on top of the deadline-parameter API. It returns a stop function that
// must be called to release the watching goroutine once h no longer needs
// watching.
func (s *Scheduler) WithContext(ctx context.Context, h Handle) (stop func()) {
	done := make(chan struct{})
	go func() {
		select {
		case <-ctx.Done():
			_ = s.Cancel(h, ctx.Err())
		case <-done:
		}
	}()
	return func() { close(done) }
}
