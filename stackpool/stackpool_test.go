package stackpool

import (
	"context"
	"testing"
	"time"
)

func TestUnboundedAlwaysAdmits(t *testing.T) {
	var a Unbounded
	for i := 0; i < 1000; i++ {
		if _, err := a.Acquire(context.Background()); err != nil {
			t.Fatalf("Acquire() error = %v", err)
		}
	}
}

func TestPooledCapsConcurrentAdmission(t *testing.T) {
	p := NewPooled(2)
	t1, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}
	if _, err := p.Acquire(context.Background()); err != nil {
		t.Fatalf("Acquire() error = %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	if _, err := p.Acquire(ctx); err == nil {
		t.Fatalf("Acquire() beyond capacity should block until released")
	}

	p.Release(t1)
	ticket, err := p.Acquire(context.Background())
	if err != nil {
		t.Fatalf("Acquire() after Release() error = %v", err)
	}
	p.Release(ticket)
}

func TestPooledDefaultSize(t *testing.T) {
	p := NewPooled(0)
	if cap(p.sem) != DefaultCacheSize {
		t.Fatalf("NewPooled(0) capacity = %d, want %d", cap(p.sem), DefaultCacheSize)
	}
}

func TestPooledReleaseZeroTicketIsNoOp(t *testing.T) {
	p := NewPooled(1)
	p.Release(Ticket{}) // must not deadlock or panic
}
