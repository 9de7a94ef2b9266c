// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package integration_test

import (
	"errors"
	"testing"
	"time"

	"github.com/bureau-foundation/timewarp/lib/clock"
	"github.com/bureau-foundation/timewarp/lib/scheduler"
	"github.com/bureau-foundation/timewarp/lib/testutil"
)

// retrier runs an operation with doubling delays between attempts
// until it succeeds. Each retry is an AfterFunc chain link, so the
// whole sequence unwinds under a single FlushTimers.
type retrier struct {
	clk      clock.Clock
	delay    time.Duration
	attempts []time.Time
	done     chan struct{}
}

func newRetrier(clk clock.Clock, initial time.Duration) *retrier {
	return &retrier{clk: clk, delay: initial, done: make(chan struct{})}
}

// Start makes the first attempt immediately. Failed attempts schedule
// a retry after the current delay and double it; success closes done.
func (r *retrier) Start(op func() error) {
	r.attempts = append(r.attempts, r.clk.Now())
	if op() == nil {
		close(r.done)
		return
	}
	delay := r.delay
	r.delay *= 2
	r.clk.AfterFunc(delay, func() { r.Start(op) })
}

func TestBackoffRetriesUntilSuccess(t *testing.T) {
	t.Parallel()

	sched, clk := newVirtualClock()
	r := newRetrier(clk, 100*time.Millisecond)

	failures := 3
	r.Start(func() error {
		if failures > 0 {
			failures--
			return errors.New("transient failure")
		}
		return nil
	})

	if err := sched.FlushTimers(time.Hour, false); err != nil {
		t.Fatalf("flush: %v", err)
	}
	testutil.RequireClosed(t, r.done, "retrier succeeded during flush")

	want := []time.Duration{
		0,
		100 * time.Millisecond,
		300 * time.Millisecond,
		700 * time.Millisecond,
	}
	if len(r.attempts) != len(want) {
		t.Fatalf("attempts = %d, want %d", len(r.attempts), len(want))
	}
	for i, at := range r.attempts {
		if got := at.Sub(epoch); got != want[i] {
			t.Errorf("attempt %d at %v, want %v", i, got, want[i])
		}
	}
	if got := sched.Elapsed(); got != 700*time.Millisecond {
		t.Fatalf("elapsed = %v, want 700ms", got)
	}
}

func TestBackoffImmediateSuccess(t *testing.T) {
	t.Parallel()

	sched, clk := newVirtualClock()
	r := newRetrier(clk, 100*time.Millisecond)

	r.Start(func() error { return nil })

	testutil.RequireClosed(t, r.done, "first attempt succeeded")
	if got := sched.OneShotTimerCount(); got != 0 {
		t.Fatalf("pending retries = %d, want 0", got)
	}
	if len(r.attempts) != 1 {
		t.Fatalf("attempts = %d, want 1", len(r.attempts))
	}
}

func TestBackoffGivesUpAtFlushLimit(t *testing.T) {
	t.Parallel()

	sched, clk := newVirtualClock()
	r := newRetrier(clk, time.Minute)

	r.Start(func() error { return errors.New("always failing") })

	// Retries land at 1m, 3m, 7m, 15m, 31m, 63m, ... so a 40m budget
	// fires five of them and leaves the sixth pending.
	err := sched.FlushTimers(40*time.Minute, false)
	if !errors.Is(err, scheduler.ErrFlushDeadline) {
		t.Fatalf("flush error = %v, want ErrFlushDeadline", err)
	}
	if got := len(r.attempts); got != 6 {
		t.Fatalf("attempts = %d, want 6", got)
	}
	if got := sched.OneShotTimerCount(); got != 1 {
		t.Fatalf("pending retries = %d, want 1", got)
	}
	if got := sched.Elapsed(); got != 31*time.Minute {
		t.Fatalf("elapsed = %v, want 31m", got)
	}
}
