// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package scheduler provides a deterministic virtual-time scheduler for
// tests. A Scheduler owns a virtual clock that starts at zero elapsed
// time and moves only when the test says so, a registry of one-shot and
// periodic timers keyed to instants on that clock, and a FIFO queue of
// deferred callbacks (microtasks) that run ahead of any timer.
//
// Time never passes on its own. A test advances it explicitly:
//
//	s := scheduler.New()
//	fired := false
//	s.NewTimer(5*time.Second, func() { fired = true })
//	if err := s.Advance(5 * time.Second); err != nil {
//	    t.Fatal(err)
//	}
//	// fired == true, s.Elapsed() == 5s, no wall-clock time spent.
//
// # Execution Model
//
// The scheduler is single-threaded and cooperative. Every operation,
// including Advance, runs to completion on the calling goroutine;
// timer callbacks and microtasks execute synchronously inside the
// advance that makes them due. Nothing here is safe for concurrent
// use: a test drives a Scheduler from exactly one goroutine. Code
// under test that needs a time source on another goroutine should use
// the clock package's virtual Clock only in the cooperative style
// described there.
//
// # Ordering Guarantees
//
// Microtasks run strictly in the order scheduled, and every pending
// microtask runs before any timer fires, even when the advance
// duration is zero. Timers fire in due-instant order; timers due at
// the same instant fire in creation order. After each timer callback
// returns, the microtask queue drains again before the next timer
// fires, so a callback's deferred work completes before later timers
// observe the clock.
//
// # Blocking Time
//
// ElapseBlocking models computation that occupies the only thread
// while time passes: it moves the clock without firing anything. When
// called from inside a timer callback it can push the clock past the
// containing Advance's deadline, and the advance picks up the timers
// that became due during the blocked stretch before returning.
package scheduler
