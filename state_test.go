package corert

import "testing"

func TestFastStateTryTransition(t *testing.T) {
	s := NewFastState()
	if s.Load() != StateAwake {
		t.Fatalf("initial state = %v, want Awake", s.Load())
	}
	if !s.TryTransition(StateAwake, StateRunning) {
		t.Fatalf("Awake -> Running should succeed")
	}
	if s.Load() != StateRunning {
		t.Fatalf("state after transition = %v, want Running", s.Load())
	}
	if s.TryTransition(StateAwake, StateRunning) {
		t.Fatalf("Awake -> Running should fail once already Running")
	}
}

func TestFastStateStore(t *testing.T) {
	s := NewFastState()
	s.Store(StateTerminated)
	if s.Load() != StateTerminated {
		t.Fatalf("state after Store = %v, want Terminated", s.Load())
	}
}

func TestSchedulerStateString(t *testing.T) {
	cases := map[SchedulerState]string{
		StateAwake:      "Awake",
		StateRunning:    "Running",
		StateTerminated: "Terminated",
	}
	for state, want := range cases {
		if got := state.String(); got != want {
			t.Fatalf("%d.String() = %q, want %q", state, got, want)
		}
	}
}
