package corert

// chanWaiter is a parked send or recv call: the buffer it offered and the
// clause representing the parked task, linked into whichever queue
// (sendQ or recvQ) it is currently waiting in.
type chanWaiter struct {
	buf     []byte
	clause  *clause
	removed bool
	link    listLink[chanWaiter]
}

func chanWaiterLink(w *chanWaiter) *listLink[chanWaiter] { return &w.link }

// chanCore is the shared rendezvous state behind a channel's two
// half-channel endpoints, grounded on the direct hand-off, no-intermediate-
// buffer design of a rendezvous channel: a sender and a receiver match
// directly, copying at most once, never queuing a message body.
type chanCore struct {
	sendQ *list[chanWaiter]
	recvQ *list[chanWaiter]
	// retired is set once either endpoint calls Done or Close; from then
	// on every Send/Recv observes ErrBrokenPipe, and anything still
	// parked is woken with it immediately.
	retired bool
}

// Chan is one endpoint (half) of a rendezvous channel.
type Chan struct {
	sched *Scheduler
	core  *chanCore
	side  int
}

func (c *Chan) Query(kind any) (any, bool) {
	if _, ok := kind.(*Chan); ok {
		return c, true
	}
	return nil, false
}

// Close retires the channel for both endpoints, waking anything parked on
// either side with ErrBrokenPipe. Close never blocks.
func (c *Chan) Close() error {
	c.sched.mu.Lock()
	defer c.sched.mu.Unlock()
	c.retireLocked()
	return nil
}

func (c *Chan) retireLocked() {
	if c.core.retired {
		return
	}
	c.core.retired = true
	for w := c.core.sendQ.PopFront(); w != nil; w = c.core.sendQ.PopFront() {
		w.removed = true
		trigger(w.clause, ErrBrokenPipe)
	}
	for w := c.core.recvQ.PopFront(); w != nil; w = c.core.recvQ.PopFront() {
		w.removed = true
		trigger(w.clause, ErrBrokenPipe)
	}
}

// ChanMake creates a new rendezvous channel and returns handles to its two
// endpoints.
func (s *Scheduler) ChanMake() (Handle, Handle, error) {
	core := &chanCore{
		sendQ: newList[chanWaiter](chanWaiterLink),
		recvQ: newList[chanWaiter](chanWaiterLink),
	}
	a := &Chan{sched: s, core: core, side: 0}
	b := &Chan{sched: s, core: core, side: 1}
	s.mu.Lock()
	ha := s.handles.Add(a)
	hb := s.handles.Add(b)
	s.mu.Unlock()
	return ha, hb, nil
}

// ChanStorage is caller-provided backing memory for ChanMakeMem, allowing
// a channel pair to be constructed without a scheduler-side heap
// allocation for the shared core.
type ChanStorage struct {
	core chanCore
	a, b Chan
}

// ChanMakeMem constructs a channel pair using storage instead of an
// internally allocated core. storage must not be reused while the
// resulting handles are live.
func (s *Scheduler) ChanMakeMem(storage *ChanStorage) (Handle, Handle, error) {
	if storage == nil {
		return 0, 0, invalidArgument("nil ChanStorage")
	}
	storage.core = chanCore{
		sendQ: newList[chanWaiter](chanWaiterLink),
		recvQ: newList[chanWaiter](chanWaiterLink),
	}
	storage.a = Chan{sched: s, core: &storage.core, side: 0}
	storage.b = Chan{sched: s, core: &storage.core, side: 1}
	s.mu.Lock()
	ha := s.handles.Add(&storage.a)
	hb := s.handles.Add(&storage.b)
	s.mu.Unlock()
	return ha, hb, nil
}

// Send hands buf to a parked receiver, or parks in sendQ until a Recv
// matches it. Both endpoints share one recvQ and one sendQ, so a Send
// matches any parked Recv whichever endpoint either call was made on;
// there is no per-half addressing, and a Send and a Recv on the same
// endpoint match each other.
func (c *Chan) Send(t *T, buf []byte, deadline int64) error {
	return c.op(t, buf, deadline, true, c.core.recvQ, c.core.sendQ)
}

// Recv blocks until a matching Send arrives, copying its payload into buf.
func (c *Chan) Recv(t *T, buf []byte, deadline int64) error {
	return c.op(t, buf, deadline, false, c.core.sendQ, c.core.recvQ)
}

// op implements both Send and Recv: matchQ is the queue holding the
// complementary operation already parked (recvQ for Send, sendQ for
// Recv), ownQ is the queue this call parks itself in if no match is
// available yet. isSend says which direction buf flows in relative to
// the matched peer's buffer, mirroring Select's own Send/Recv branch.
func (c *Chan) op(t *T, buf []byte, deadline int64, isSend bool, matchQ, ownQ *list[chanWaiter]) error {
	s := c.sched
	if err := t.task.checkCancelled(); err != nil {
		return err
	}

	s.mu.Lock()
	if c.core.retired {
		s.mu.Unlock()
		return ErrBrokenPipe
	}
	if peer := matchQ.PopFront(); peer != nil {
		peer.removed = true
		if len(peer.buf) != len(buf) {
			trigger(peer.clause, ErrMessageSize)
			s.mu.Unlock()
			return ErrMessageSize
		}
		if isSend {
			copy(peer.buf, buf)
		} else {
			copy(buf, peer.buf)
		}
		trigger(peer.clause, nil)
		s.mu.Unlock()
		return nil
	}

	w := &chanWaiter{buf: buf}
	cl := waitFor(t.task, 0, func() {
		if !w.removed {
			w.removed = true
			ownQ.Remove(w)
		}
	})
	w.clause = cl
	ownQ.PushBack(w)

	var timer *timerEntry
	if deadline >= 0 {
		timer = s.timers.Add(deadline, cl)
	}
	s.wake()
	s.mu.Unlock()

	_, err := t.task.wait()

	s.mu.Lock()
	if timer != nil {
		s.timers.Remove(timer)
	}
	if !w.removed {
		w.removed = true
		ownQ.Remove(w)
	}
	s.mu.Unlock()

	return err
}

// Done announces that this endpoint will perform no further operations,
// broadcasting ErrBrokenPipe to anything currently parked on either side
// and to every subsequent Send/Recv call on the channel.
func (c *Chan) Done() error {
	c.sched.mu.Lock()
	defer c.sched.mu.Unlock()
	c.retireLocked()
	return nil
}
