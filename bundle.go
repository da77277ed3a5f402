package corert

// Bundle is a structured-concurrency container: every task spawned into
// it is tracked as a child, and closing the bundle's Handle cancels every
// still-running child and waits for all of them to finish before
// returning, so a bundle never outlives its Handle.
type Bundle struct {
	sched    *Scheduler
	children *list[task]
}

func (b *Bundle) Query(kind any) (any, bool) {
	if _, ok := kind.(*Bundle); ok {
		return b, true
	}
	return nil, false
}

// Close cancels every child task still running, waits for all of them to
// finish, and releases the bundle. Close never returns while holding the
// scheduler lock across a blocking wait, but it does block the calling
// goroutine until every child has exited — this is the one place in the
// runtime where "close never suspends a task" does not apply, because
// Close here is called directly by a Go caller, not from within a task
// that the scheduler must keep dispatching around.
func (b *Bundle) Close() error {
	b.sched.mu.Lock()
	children := make([]*task, 0, b.children.Len())
	for c := b.children.Front(); c != nil; c = bundleTaskLink(c).node.next {
		children = append(children, c)
	}
	b.sched.mu.Unlock()

	for _, c := range children {
		b.sched.mu.Lock()
		if front := c.clauses.Front(); front != nil {
			trigger(front, ErrCancelled)
		} else {
			err := error(ErrCancelled)
			c.cancelErr.Store(&err)
			c.cancelled.Store(true)
		}
		b.sched.mu.Unlock()
	}
	for _, c := range children {
		<-c.done
	}
	return nil
}

// BundleNew creates a new, empty Bundle and returns its Handle.
func (s *Scheduler) BundleNew() (Handle, error) {
	b := &Bundle{sched: s, children: newList[task](bundleTaskLink)}
	s.mu.Lock()
	h := s.handles.Add(b)
	s.mu.Unlock()
	return h, nil
}

// BundleSpawn spawns fn as a child of the bundle behind bh. The child's
// lifetime is bounded by the bundle: closing bh cancels and awaits it.
func (s *Scheduler) BundleSpawn(bh Handle, fn func(t *T)) (Handle, error) {
	s.mu.Lock()
	obj, err := s.handles.Get(bh)
	if err != nil {
		s.mu.Unlock()
		return 0, err
	}
	b, ok := obj.(*Bundle)
	if !ok {
		s.mu.Unlock()
		return 0, ErrBadHandle
	}
	s.mu.Unlock()
	return s.spawn(b, fn)
}
