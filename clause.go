package corert

// clause is a stack-allocated wait record: one per (task, condition) pair
// that a task is parked on at a given suspension point. A select() over N
// channel operations registers N clauses plus, if a deadline is set, one
// timer clause, all sharing the same task.
//
// Exactly one trigger per clause ever has effect; grounded on the
// first-trigger-wins invariant that makes select() deterministic.
type clause struct {
	task   *task
	id     int
	err    error
	cancel func()
	fired  bool

	taskLink listLink[clause] // membership in task.clauses
}

func clauseTaskLink(c *clause) *listLink[clause] { return &c.taskLink }

// waitFor registers a new clause for t, identified by id, optionally with
// a cancel callback invoked if a sibling clause fires first. The caller is
// responsible for also linking the returned clause into whatever
// condition-specific structure (channel queue, timer heap) it represents;
// waitFor only establishes the task-side bookkeeping.
func waitFor(t *task, id int, cancel func()) *clause {
	c := &clause{task: t, id: id, cancel: cancel}
	t.clauses.PushBack(c)
	return c
}

// trigger fires c with the given error if it has not already fired. Firing
// a clause removes ALL of its task's other pending clauses (invoking each
// one's cancel callback, per spec: "every other pending clause belonging
// to the same task is cancelled"), then wakes the task via its resume
// channel. Returns true if this call was the one that fired c.
func trigger(c *clause, err error) bool {
	if c.fired {
		return false
	}
	t := c.task
	// mark the winner fired and detach it before cancelling siblings, so a
	// cancel callback that re-enters trigger (e.g. a timer cancel that
	// also removes itself from the heap) never sees c as a sibling.
	c.fired = true
	c.err = err
	t.clauses.Remove(c)

	for sib := t.clauses.Front(); sib != nil; {
		next := clauseTaskLink(sib).node.next
		t.clauses.Remove(sib)
		sib.fired = true
		sib.err = ErrCancelled
		if sib.cancel != nil {
			sib.cancel()
		}
		sib = next
	}

	select {
	case t.resume <- wakeup{id: c.id, err: c.err}:
	default:
		// resume channel is buffered to exactly 1; a send that would
		// block here means the task already has a pending wakeup queued,
		// which cannot happen under "only the first trigger wins" since
		// every clause is detached from the task before any other
		// trigger for that task can run on the scheduler goroutine.
		assertf(false, "task %d woken twice before resuming", t.handle)
	}
	return true
}

// wakeup carries the id/error pair a task receives from wait().
type wakeup struct {
	id  int
	err error
}
