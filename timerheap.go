package corert

import "container/heap"

// timerEntry is one pending deadline, grounded on the (deadline, payload)
// shape of this runtime's event-loop ancestor's own timer heap, extended
// with a sequence number for FIFO tie-break between timers sharing a
// deadline (the ancestor never needed this since its timers are keyed by
// wall-clock time.Time values that are practically never exactly equal;
// this runtime's deadlines are caller-supplied integer milliseconds,
// where exact ties are common).
type timerEntry struct {
	deadline int64
	seq      uint64
	index    int // position in the heap slice, maintained by container/heap
	clause   *clause
}

type timerHeap struct {
	entries []*timerEntry
	nextSeq uint64
}

func newTimerHeap() *timerHeap { return &timerHeap{} }

func (h *timerHeap) Len() int { return len(h.entries) }

func (h *timerHeap) Less(i, j int) bool {
	if h.entries[i].deadline != h.entries[j].deadline {
		return h.entries[i].deadline < h.entries[j].deadline
	}
	return h.entries[i].seq < h.entries[j].seq
}

func (h *timerHeap) Swap(i, j int) {
	h.entries[i], h.entries[j] = h.entries[j], h.entries[i]
	h.entries[i].index = i
	h.entries[j].index = j
}

func (h *timerHeap) Push(x any) {
	e := x.(*timerEntry)
	e.index = len(h.entries)
	h.entries = append(h.entries, e)
}

func (h *timerHeap) Pop() any {
	old := h.entries
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	h.entries = old[:n-1]
	e.index = -1
	return e
}

// Add inserts a new timer for c at deadline and returns the entry so it
// can later be removed in O(log n).
func (h *timerHeap) Add(deadline int64, c *clause) *timerEntry {
	e := &timerEntry{deadline: deadline, seq: h.nextSeq, clause: c}
	h.nextSeq++
	heap.Push(h, e)
	return e
}

// Remove deletes e from the heap. Removing an entry that is no longer a
// member (already popped or removed) is a no-op.
func (h *timerHeap) Remove(e *timerEntry) {
	if e.index < 0 || e.index >= len(h.entries) || h.entries[e.index] != e {
		return
	}
	heap.Remove(h, e.index)
}

// Peek returns the earliest deadline without removing it, or ok=false if
// empty.
func (h *timerHeap) Peek() (*timerEntry, bool) {
	if len(h.entries) == 0 {
		return nil, false
	}
	return h.entries[0], true
}

// PopExpired removes and returns every timer whose deadline is <= now, in
// deadline (then FIFO) order.
func (h *timerHeap) PopExpired(now int64) []*timerEntry {
	var expired []*timerEntry
	for len(h.entries) > 0 && h.entries[0].deadline <= now {
		expired = append(expired, heap.Pop(h).(*timerEntry))
	}
	return expired
}
