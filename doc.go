// Package corert is a user-space structured-concurrency runtime: a
// cooperative scheduler of lightweight tasks backed by goroutines, a
// rendezvous (unbuffered) channel primitive, and a unified deadline-based
// wait mechanism tying timers, file-descriptor readiness, and channel
// operations together through one clause engine.
//
// # Architecture
//
// A Scheduler owns a handle table, a timer heap, and a pollset; tasks
// spawned on it (Scheduler.Spawn, Scheduler.BundleSpawn) run on their own
// goroutines but every state transition — registering a wait, firing a
// clause, growing the handle table — is serialized through the
// Scheduler's own mutex, so from the perspective of the scheduling data
// structures there is exactly one writer at a time, matching the single-
// threaded cooperative model this runtime is built on even though task
// bodies themselves run concurrently as goroutines.
//
// # Bundles
//
// A Bundle groups tasks so their lifetimes nest: closing a Bundle's
// Handle cancels every child still running and waits for all of them to
// exit before returning, giving a caller a single point to guarantee
// nothing it spawned outlives it.
//
// # Channels
//
// Chan is a two-ended rendezvous channel: Send and Recv hand a message
// directly from one parked task to another with exactly one copy, no
// intermediate buffering. Select evaluates several channel operations (or
// a deadline) together and completes exactly one of them.
//
// # Platform support
//
// The bundled pollset backend uses epoll on Linux, kqueue on Darwin, and
// poll(2) on other unix targets (see the corert/pollset package); any of
// these can be swapped out via WithPollset for a custom adapter.
//
// # Usage
//
//	sched, err := corert.NewScheduler()
//	go sched.Run(ctx)
//	defer sched.Shutdown(context.Background())
//
//	ha, hb, _ := sched.ChanMake()
//	sched.Spawn(func(t *corert.T) {
//	    buf := make([]byte, 4)
//	    ch, _ := sched.Query(ha, (*corert.Chan)(nil))
//	    _ = ch.(*corert.Chan).Recv(t, buf, corert.Never)
//	})
package corert
