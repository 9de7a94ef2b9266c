// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time abstraction for testability.
//
// Production code accepts a Clock interface parameter instead of calling
// time.Now, time.After, time.NewTimer, time.NewTicker, time.AfterFunc,
// or time.Sleep directly. In production, Real() provides the standard
// library behavior. In tests, Virtual() provides a deterministic clock
// backed by a scheduler.Scheduler whose time moves only when the test
// advances it.
//
// # Wiring Pattern
//
// Add a Clock field to structs that use time:
//
//	type Server struct {
//	    clock clock.Clock
//	    // ...
//	}
//
// In production:
//
//	s := &Server{clock: clock.Real()}
//
// In tests:
//
//	sched := scheduler.New()
//	c := clock.Virtual(sched, time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC))
//	s := &Server{clock: c}
//	s.Start()
//	sched.Advance(5 * time.Second) // fire the server's timers deterministically
//
// # Virtual Clock Model
//
// The virtual clock is cooperative: the code under test and the test
// driving the scheduler share one goroutine, and timer callbacks run
// synchronously inside Advance. There is no registration race to
// synchronize away and therefore no WaitForTimers-style facility;
// by the time Advance is called, every timer the code under test
// created is already registered. Code that hands timers to other
// goroutines needs the real clock and real synchronization instead.
package clock
