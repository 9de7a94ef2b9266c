// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cron

import (
	"sync"
	"time"

	"github.com/bureau-foundation/timewarp/lib/clock"
)

// Runner invokes a callback at every instant a Schedule matches,
// driven through a clock.Clock: the real clock runs the schedule
// live, a virtual clock replays months of it inside a single test
// advance.
//
// Runner is safe for concurrent use. On a virtual clock everything
// runs on the one goroutine driving the scheduler and the lock is
// never contended; on the real clock, Stop does not wait for a
// callback already in flight.
type Runner struct {
	clk      clock.Clock
	schedule Schedule
	fn       func(time.Time)

	mu sync.Mutex
	// generation invalidates callbacks armed before a Stop: a timer
	// that fires anyway must not re-arm the chain.
	generation uint64
	timer      *clock.Timer
	active     bool
	err        error
}

// NewRunner returns an unstarted Runner that will call fn with each
// matching instant.
func NewRunner(clk clock.Clock, schedule Schedule, fn func(time.Time)) *Runner {
	return &Runner{clk: clk, schedule: schedule, fn: fn}
}

// Start arms the runner for the first matching instant after the
// clock's current time. Returns an error when the schedule has no
// reachable instant, such as a day-of-month that no listed month has.
// Starting a running Runner is a no-op.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active {
		return nil
	}
	next, err := r.schedule.Next(r.clk.Now())
	if err != nil {
		return err
	}
	r.active = true
	r.err = nil
	r.generation++
	r.arm(next)
	return nil
}

// Stop cancels the pending run. Idempotent. A stopped Runner can be
// started again.
func (r *Runner) Stop() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active {
		return
	}
	r.active = false
	r.generation++
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
}

// Active reports whether the runner has a pending run armed.
func (r *Runner) Active() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.active
}

// Err returns the error that stopped the runner, when rescheduling
// failed. Nil while running or after an explicit Stop.
func (r *Runner) Err() error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.err
}

// arm schedules the next fire. Requires r.mu held.
func (r *Runner) arm(next time.Time) {
	generation := r.generation
	r.timer = r.clk.AfterFunc(next.Sub(r.clk.Now()), func() {
		r.fire(next, generation)
	})
}

// fire runs the callback for one matching instant and re-arms for the
// following one. The callback receives the scheduled instant rather
// than the clock reading, so a run that fires late, on a loaded real
// clock or a virtual clock catching up after a blocking elapse, still
// sees the instant it stands for. Missed instants fire in immediate
// succession rather than being skipped.
func (r *Runner) fire(at time.Time, generation uint64) {
	r.mu.Lock()
	if !r.active || generation != r.generation {
		r.mu.Unlock()
		return
	}
	r.mu.Unlock()

	r.fn(at)

	r.mu.Lock()
	defer r.mu.Unlock()
	if !r.active || generation != r.generation {
		return
	}
	next, err := r.schedule.Next(at)
	if err != nil {
		r.active = false
		r.err = err
		r.timer = nil
		return
	}
	r.arm(next)
}
