package corert

import (
	"context"
	"testing"
	"time"
)

// newRunningScheduler creates a Scheduler, starts its Run loop in the
// background, registers a test cleanup that shuts it down, and returns it.
func newRunningScheduler(t *testing.T) *Scheduler {
	t.Helper()
	s, err := NewScheduler()
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	runDone := make(chan struct{})
	go func() {
		_ = s.Run(context.Background())
		close(runDone)
	}()
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := s.Shutdown(ctx); err != nil {
			t.Errorf("Shutdown() error = %v", err)
		}
		<-runDone
	})
	return s
}

func TestSchedulerRunTwiceFails(t *testing.T) {
	s := newRunningScheduler(t)
	if err := s.Run(context.Background()); err == nil {
		t.Fatalf("second Run() should fail, scheduler is already running")
	}
}

func TestSchedulerShutdownIsIdempotent(t *testing.T) {
	s := newRunningScheduler(t)
	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("first Shutdown() error = %v", err)
	}
	if err := s.Shutdown(ctx); err != nil {
		t.Fatalf("second Shutdown() error = %v", err)
	}
}

func TestSchedulerShutdownViaContextCancel(t *testing.T) {
	s, err := NewScheduler()
	if err != nil {
		t.Fatalf("NewScheduler() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	runDone := make(chan struct{})
	go func() {
		_ = s.Run(ctx)
		close(runDone)
	}()

	cancel()
	select {
	case <-runDone:
	case <-time.After(5 * time.Second):
		t.Fatalf("Run() did not stop after context cancellation")
	}
}
