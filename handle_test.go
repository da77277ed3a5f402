package corert

import "testing"

type fakeHandler struct {
	closed bool
}

func (f *fakeHandler) Query(kind any) (any, bool) {
	if _, ok := kind.(*fakeHandler); ok {
		return f, true
	}
	return nil, false
}

func (f *fakeHandler) Close() error {
	f.closed = true
	return nil
}

func TestHandleTableAddGetClose(t *testing.T) {
	tbl := NewHandleTable()
	obj := &fakeHandler{}
	h := tbl.Add(obj)

	got, err := tbl.Get(h)
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != obj {
		t.Fatalf("Get() returned a different object")
	}

	if err := tbl.Close(h); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !obj.closed {
		t.Fatalf("Close() did not invoke the handler's Close")
	}
	if _, err := tbl.Get(h); err != ErrBadHandle {
		t.Fatalf("Get() on closed handle = %v, want ErrBadHandle", err)
	}
}

func TestHandleTableDoubleCloseIsBadHandle(t *testing.T) {
	tbl := NewHandleTable()
	h := tbl.Add(&fakeHandler{})
	if err := tbl.Close(h); err != nil {
		t.Fatalf("first Close() error = %v", err)
	}
	if err := tbl.Close(h); err != ErrBadHandle {
		t.Fatalf("second Close() = %v, want ErrBadHandle", err)
	}
}

func TestHandleTableQuery(t *testing.T) {
	tbl := NewHandleTable()
	obj := &fakeHandler{}
	h := tbl.Add(obj)

	v, err := tbl.Query(h, (*fakeHandler)(nil))
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if v.(*fakeHandler) != obj {
		t.Fatalf("Query() returned wrong object")
	}

	if _, err := tbl.Query(h, (*Bundle)(nil)); err != ErrNotSupported {
		t.Fatalf("Query() for unsupported kind = %v, want ErrNotSupported", err)
	}
}

// countingHandler counts each dispatch into its own Query, so tests can
// tell a cache hit (no call reaches here) from a cache miss.
type countingHandler struct {
	queries int
}

func (c *countingHandler) Query(kind any) (any, bool) {
	c.queries++
	if _, ok := kind.(*countingHandler); ok {
		return c, true
	}
	return nil, false
}

func (c *countingHandler) Close() error { return nil }

// TestHandleTableQueryCachesResult exercises the slot's (kind, result)
// cache: a repeated query for the same kind must not re-dispatch into the
// object's own Query, but a query for a different kind still does.
func TestHandleTableQueryCachesResult(t *testing.T) {
	tbl := NewHandleTable()
	obj := &countingHandler{}
	h := tbl.Add(obj)

	if _, err := tbl.Query(h, (*countingHandler)(nil)); err != nil {
		t.Fatalf("first Query() error = %v", err)
	}
	if obj.queries != 1 {
		t.Fatalf("first Query() dispatched %d times, want 1", obj.queries)
	}

	if _, err := tbl.Query(h, (*countingHandler)(nil)); err != nil {
		t.Fatalf("second Query() error = %v", err)
	}
	if obj.queries != 1 {
		t.Fatalf("repeated Query() for the same kind dispatched into the object again: queries = %d, want 1 (cache hit)", obj.queries)
	}

	if _, err := tbl.Query(h, (*Bundle)(nil)); err != ErrNotSupported {
		t.Fatalf("Query() for a different kind = %v, want ErrNotSupported", err)
	}
	if obj.queries != 2 {
		t.Fatalf("Query() for a different kind did not re-dispatch: queries = %d, want 2", obj.queries)
	}
}

func TestHandleTableOutOfRangeIsBadHandle(t *testing.T) {
	tbl := NewHandleTable()
	if _, err := tbl.Get(Handle(999999)); err != ErrBadHandle {
		t.Fatalf("Get() out-of-range = %v, want ErrBadHandle", err)
	}
	if _, err := tbl.Get(Handle(-1)); err != ErrBadHandle {
		t.Fatalf("Get() negative handle = %v, want ErrBadHandle", err)
	}
}

func TestHandleTableHandleZeroIsValid(t *testing.T) {
	tbl := NewHandleTable()
	obj := &fakeHandler{}
	h := tbl.Add(obj)
	if h != 0 {
		t.Fatalf("first allocated handle = %d, want 0 (spec: handle 0 is valid)", h)
	}
	if _, err := tbl.Get(h); err != nil {
		t.Fatalf("Get(0) error = %v", err)
	}
}

func TestHandleTableGrowsByDoubling(t *testing.T) {
	tbl := NewHandleTable()
	if len(tbl.slots) != initialHandleCapacity {
		t.Fatalf("initial capacity = %d, want %d", len(tbl.slots), initialHandleCapacity)
	}
	for i := 0; i < initialHandleCapacity; i++ {
		tbl.Add(&fakeHandler{})
	}
	if len(tbl.slots) <= initialHandleCapacity {
		t.Fatalf("table did not grow after filling initial capacity: len = %d", len(tbl.slots))
	}
	if len(tbl.slots) != initialHandleCapacity*2 {
		t.Fatalf("table grew to %d, want exactly doubled (%d)", len(tbl.slots), initialHandleCapacity*2)
	}
}

// TestHandleTableReuseDelay exercises the spec invariant that a closed
// slot is not handed back out until at least reuseDelay other closes have
// queued behind it in pendingFree. The immediate free list is emptied
// (white-box, same package: freeHead, freeTail and freeCount reset) before
// each Add below so the promotion path in Add is exercised directly,
// isolating the reuse-delay threshold from unrelated growth-capacity
// arithmetic.
func TestHandleTableReuseDelay(t *testing.T) {
	tbl := NewHandleTable()

	target := tbl.Add(&fakeHandler{})
	if err := tbl.Close(target); err != nil {
		t.Fatalf("Close(target) error = %v", err)
	}

	for i := 0; i < reuseDelay; i++ {
		tbl.freeHead, tbl.freeTail, tbl.freeCount = -1, -1, 0
		h := tbl.Add(&fakeHandler{})
		if h == target {
			t.Fatalf("handle %d (target) reused after only %d prior closes, want at least %d", h, i, reuseDelay)
		}
		if err := tbl.Close(h); err != nil {
			t.Fatalf("Close() error = %v", err)
		}
	}

	tbl.freeHead, tbl.freeTail, tbl.freeCount = -1, -1, 0
	h := tbl.Add(&fakeHandler{})
	if h != target {
		t.Fatalf("handle %d, want target %d reused once pendingFree exceeded reuseDelay", h, target)
	}
}

// TestHandleTableGrowsWhenFewerThan8Free exercises the "<8 free" growth
// trigger directly: once freeCount drops under 8, the very next Add
// doubles the table rather than waiting for the free list to empty
// entirely.
func TestHandleTableGrowsWhenFewerThan8Free(t *testing.T) {
	tbl := NewHandleTable()
	tbl.freeCount = 7
	before := len(tbl.slots)
	tbl.Add(&fakeHandler{})
	if len(tbl.slots) != before*2 {
		t.Fatalf("table did not double on the <8-free trigger: before=%d after=%d", before, len(tbl.slots))
	}
}

func TestHandleTableOwnAliasesSameObject(t *testing.T) {
	tbl := NewHandleTable()
	obj := &fakeHandler{}
	h := tbl.Add(obj)

	h2, err := tbl.Own(h)
	if err != nil {
		t.Fatalf("Own() error = %v", err)
	}
	got, err := tbl.Get(h2)
	if err != nil || got != obj {
		t.Fatalf("Own() alias does not resolve to the same object")
	}
}

func TestHandleTableOwnBadHandle(t *testing.T) {
	tbl := NewHandleTable()
	if _, err := tbl.Own(Handle(42)); err != ErrBadHandle {
		t.Fatalf("Own() of unallocated handle = %v, want ErrBadHandle", err)
	}
}

// TestHandleTableOwnThenCloseEqualsDirectClose exercises the round-trip
// property from spec.md §8: own(h) followed by closing the new handle
// must have the same effect, for handle-count accounting, as closing h
// directly.
func TestHandleTableOwnThenCloseEqualsDirectClose(t *testing.T) {
	direct := NewHandleTable()
	h := direct.Add(&fakeHandler{})
	if err := direct.Close(h); err != nil {
		t.Fatalf("direct Close() error = %v", err)
	}

	viaOwn := NewHandleTable()
	h2 := viaOwn.Add(&fakeHandler{})
	owned, err := viaOwn.Own(h2)
	if err != nil {
		t.Fatalf("Own() error = %v", err)
	}
	if err := viaOwn.Close(owned); err != nil {
		t.Fatalf("Close(owned) error = %v", err)
	}

	if len(direct.pendingFree) != len(viaOwn.pendingFree) {
		t.Fatalf("pendingFree accounting diverged: direct=%d viaOwn=%d", len(direct.pendingFree), len(viaOwn.pendingFree))
	}
	if _, err := viaOwn.Get(h2); err != ErrBadHandle {
		t.Fatalf("Get() on original handle after Own+Close = %v, want ErrBadHandle", err)
	}
}
