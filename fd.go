package corert

import "github.com/corert/corert/pollset"

// WaitFDIn suspends the calling task until fd is readable, the deadline
// elapses (ErrTimedOut), or the caller is cancelled.
func (t *T) WaitFDIn(fd int, deadline int64) error {
	return t.waitFD(fd, pollset.In, deadline)
}

// WaitFDOut suspends the calling task until fd is writable, the deadline
// elapses (ErrTimedOut), or the caller is cancelled.
func (t *T) WaitFDOut(fd int, deadline int64) error {
	return t.waitFD(fd, pollset.Out, deadline)
}

func (t *T) waitFD(fd int, dir pollset.Direction, deadline int64) error {
	if err := t.task.checkCancelled(); err != nil {
		return err
	}
	s := t.sched

	s.mu.Lock()
	c := waitFor(t.task, 0, func() { s.poll.Clean(fd) })
	regErr := s.poll.Register(fd, dir, func(ok bool) {
		s.mu.Lock()
		if ok {
			trigger(c, nil)
		} else {
			trigger(c, ErrBrokenPipe)
		}
		s.mu.Unlock()
	})
	if regErr != nil {
		t.task.clauses.Remove(c)
		s.mu.Unlock()
		return regErr
	}
	var timer *timerEntry
	if deadline >= 0 {
		timer = s.timers.Add(deadline, c)
	}
	s.wake()
	s.mu.Unlock()

	_, werr := t.task.wait()

	s.mu.Lock()
	if timer != nil {
		s.timers.Remove(timer)
	}
	s.poll.Clean(fd)
	s.mu.Unlock()

	return werr
}

// FDClean releases any pending pollset registration for fd, matching
// fd_clean(fd): callers should invoke it before closing a file descriptor
// that may still have a WaitFDIn/WaitFDOut interest registered.
func (s *Scheduler) FDClean(fd int) {
	s.mu.Lock()
	s.poll.Clean(fd)
	s.mu.Unlock()
}
