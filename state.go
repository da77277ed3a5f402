package corert

import "sync/atomic"

// SchedulerState is the lifecycle of a Scheduler's run loop.
//
//	StateAwake (0) -> StateRunning (3)       [Run()]
//	StateRunning (3) -> StateTerminated (1)  [Shutdown() completes]
type SchedulerState uint64

const (
	// StateAwake: the scheduler has been created but Run has not been
	// called yet.
	StateAwake SchedulerState = 0
	// StateTerminated: the scheduler's run loop has fully stopped.
	StateTerminated SchedulerState = 1
	// StateRunning: the scheduler's run loop is processing timers and I/O.
	StateRunning SchedulerState = 3
)

func (s SchedulerState) String() string {
	switch s {
	case StateAwake:
		return "Awake"
	case StateRunning:
		return "Running"
	case StateTerminated:
		return "Terminated"
	default:
		return "Unknown"
	}
}

// FastState is a lock-free state machine guarded by pure CAS operations.
type FastState struct {
	v atomic.Uint64
}

// NewFastState creates a state machine in StateAwake.
func NewFastState() *FastState {
	s := &FastState{}
	s.v.Store(uint64(StateAwake))
	return s
}

func (s *FastState) Load() SchedulerState { return SchedulerState(s.v.Load()) }

func (s *FastState) Store(state SchedulerState) { s.v.Store(uint64(state)) }

// TryTransition attempts an atomic from->to transition, returning whether
// it succeeded.
func (s *FastState) TryTransition(from, to SchedulerState) bool {
	return s.v.CompareAndSwap(uint64(from), uint64(to))
}
