// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"time"

	"github.com/bureau-foundation/timewarp/lib/scheduler"
)

// VirtualClock adapts a scheduler.Scheduler to the Clock interface,
// projecting the scheduler's virtual timeline onto wall-clock values
// anchored at an epoch. Code under test receives it as a plain Clock;
// the test moves time by advancing the scheduler.
//
// A VirtualClock is as single-threaded as its scheduler: the code
// under test and the test driving the scheduler share one goroutine.
// Channel deliveries from After, NewTimer, and NewTicker happen
// synchronously inside the advance that makes them due, so tests read
// them with a non-blocking receive after advancing; a blocking receive
// with no advance in flight would wait forever.
type VirtualClock struct {
	scheduler *scheduler.Scheduler
	epoch     time.Time
}

var _ Clock = (*VirtualClock)(nil)

// Virtual returns a Clock backed by s, anchored so that Now() reads
// epoch when the scheduler's elapsed time is zero.
func Virtual(s *scheduler.Scheduler, epoch time.Time) *VirtualClock {
	return &VirtualClock{scheduler: s, epoch: epoch}
}

// Now returns the epoch advanced by the scheduler's elapsed virtual
// time. Inside a timer callback this is the firing instant.
func (c *VirtualClock) Now() time.Time { return c.epoch.Add(c.scheduler.Elapsed()) }

// After returns a channel that receives the virtual time once the
// scheduler advances d past the current instant. A d <= 0 timer is due
// immediately but still delivers only from the next advance.
func (c *VirtualClock) After(d time.Duration) <-chan time.Time {
	return c.NewTimer(d).C
}

// NewTimer returns a Timer whose C receives the virtual firing time
// once the scheduler advances d past the current instant. C has
// capacity 1 and is written with a non-blocking send, matching
// time.Timer delivery.
func (c *VirtualClock) NewTimer(d time.Duration) *Timer {
	channel := make(chan time.Time, 1)
	deliver := func() {
		select {
		case channel <- c.Now():
		default:
		}
	}
	st := c.scheduler.NewTimer(d, deliver)
	return &Timer{
		C: channel,
		stopFunc: func() bool {
			wasActive := st.IsActive()
			st.Cancel()
			return wasActive
		},
		resetFunc: func(d time.Duration) bool {
			wasActive := st.IsActive()
			st.Cancel()
			st = c.scheduler.NewTimer(d, deliver)
			return wasActive
		},
	}
}

// AfterFunc registers f to run once the scheduler advances d past the
// current instant. f runs synchronously inside that advance, on the
// goroutine driving the scheduler. The returned Timer's C is nil,
// matching time.AfterFunc.
func (c *VirtualClock) AfterFunc(d time.Duration, f func()) *Timer {
	st := c.scheduler.NewTimer(d, f)
	return &Timer{
		stopFunc: func() bool {
			wasActive := st.IsActive()
			st.Cancel()
			return wasActive
		},
		resetFunc: func(d time.Duration) bool {
			wasActive := st.IsActive()
			st.Cancel()
			st = c.scheduler.NewTimer(d, f)
			return wasActive
		},
	}
}

// NewTicker returns a Ticker delivering the virtual time on C each
// time the scheduler advances another d. C has capacity 1; ticks the
// consumer has not read are dropped, matching time.Ticker. Panics if
// d <= 0, also matching time.Ticker: the scheduler's own periodic
// timers accept a zero period, but a Ticker must behave like the real
// one so code under test cannot tell the difference.
func (c *VirtualClock) NewTicker(d time.Duration) *Ticker {
	if d <= 0 {
		panic("clock: non-positive interval for NewTicker")
	}
	channel := make(chan time.Time, 1)
	deliver := func(*scheduler.Timer) {
		select {
		case channel <- c.Now():
		default:
		}
	}
	st := c.scheduler.NewPeriodicTimer(d, deliver)
	return &Ticker{
		C:        channel,
		stopFunc: func() { st.Cancel() },
		resetFunc: func(d time.Duration) {
			if d <= 0 {
				panic("clock: non-positive interval for Ticker.Reset")
			}
			st.Cancel()
			st = c.scheduler.NewPeriodicTimer(d, deliver)
		},
	}
}

// Sleep moves the scheduler's clock forward by d without firing timers
// or draining deferred callbacks: in the cooperative model a sleeping
// goroutine blocks the only thread, so nothing else runs while the
// time passes. Timers that came due during the sleep fire on the next
// advance, or later within the containing advance when Sleep is called
// from a timer callback. Returns immediately for d <= 0.
func (c *VirtualClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	// d is positive, so ElapseBlocking cannot fail.
	_ = c.scheduler.ElapseBlocking(d)
}

// ScheduleMicrotask queues f as a deferred callback on the underlying
// scheduler: it runs before any timer the next time the scheduler
// drains, in FIFO order with other deferred callbacks.
func (c *VirtualClock) ScheduleMicrotask(f func()) {
	c.scheduler.ScheduleMicrotask(f)
}

// PendingCount returns the number of registered timers and tickers.
// Fired one-shot timers and stopped timers or tickers do not count.
func (c *VirtualClock) PendingCount() int {
	return c.scheduler.OneShotTimerCount() + c.scheduler.PeriodicTimerCount()
}
