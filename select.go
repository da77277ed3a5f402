package corert

// SelectCase is one candidate operation in a Select call: either a send
// (Send=true, Buf holds the outgoing message) or a recv (Send=false, Buf
// is filled in on success) against Chan.
type SelectCase struct {
	Chan *Chan
	Buf  []byte
	Send bool
}

func (cs SelectCase) matchQueue() *list[chanWaiter] {
	if cs.Send {
		return cs.Chan.core.recvQ
	}
	return cs.Chan.core.sendQ
}

func (cs SelectCase) ownQueue() *list[chanWaiter] {
	if cs.Send {
		return cs.Chan.core.sendQ
	}
	return cs.Chan.core.recvQ
}

// Select evaluates cases in caller order, completing the first one that
// can proceed immediately. If none can, it registers every case (plus, if
// deadline is not Never, a timer) and suspends; whichever fires first —
// per the "only the first trigger wins" invariant — determines the
// result, and every other registered case is torn down via its cancel
// callback. Returns the winning case's index, or -1 with ErrTimedOut if
// the deadline elapsed.
func Select(t *T, cases []SelectCase, deadline int64) (int, error) {
	if len(cases) == 0 {
		return -1, invalidArgument("select requires at least one case")
	}
	if err := t.task.checkCancelled(); err != nil {
		return -1, err
	}

	s := t.sched
	s.mu.Lock()

	for i, cs := range cases {
		if cs.Chan.core.retired {
			s.mu.Unlock()
			return i, ErrBrokenPipe
		}
		peer := cs.matchQueue().Front()
		if peer == nil {
			continue
		}
		cs.matchQueue().Remove(peer)
		peer.removed = true
		if len(peer.buf) != len(cs.Buf) {
			trigger(peer.clause, ErrMessageSize)
			s.mu.Unlock()
			return i, ErrMessageSize
		}
		if cs.Send {
			copy(peer.buf, cs.Buf)
		} else {
			copy(cs.Buf, peer.buf)
		}
		trigger(peer.clause, nil)
		s.mu.Unlock()
		return i, nil
	}

	waiters := make([]*chanWaiter, len(cases))
	for i, cs := range cases {
		i, cs := i, cs
		w := &chanWaiter{buf: cs.Buf}
		w.clause = waitFor(t.task, i, func() {
			if !w.removed {
				w.removed = true
				cs.ownQueue().Remove(w)
			}
		})
		waiters[i] = w
		cs.ownQueue().PushBack(w)
	}

	var timerClause *clause
	var timer *timerEntry
	if deadline >= 0 {
		timerClause = &clause{task: t.task, id: -1}
		t.task.clauses.PushBack(timerClause)
		timer = s.timers.Add(deadline, timerClause)
	}
	s.wake()
	s.mu.Unlock()

	id, err := t.task.wait()

	s.mu.Lock()
	if timer != nil {
		s.timers.Remove(timer)
	}
	s.mu.Unlock()

	if id == -1 {
		return -1, err
	}
	return id, err
}
