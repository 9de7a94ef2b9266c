// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"cmp"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/bureau-foundation/timewarp/lib/vtime"
)

// Scheduler owns a virtual clock, a timer registry, and a microtask
// queue. The clock starts at zero elapsed time when the scheduler is
// constructed and moves only through Advance, ElapseBlocking, and
// FlushTimers. Not safe for concurrent use; see the package
// documentation for the execution model.
type Scheduler struct {
	// elapsed is the clock: total virtual time since construction.
	// It never decreases.
	elapsed vtime.Instant

	// advancing and deadline form the in-flight marker. While an
	// Advance or FlushTimers runs, advancing is true and deadline
	// holds the instant the clock is moving toward; deadline never
	// sits below elapsed. ElapseBlocking from inside a callback may
	// push both forward.
	advancing bool
	deadline  vtime.Instant

	microtasks  microtaskQueue
	registry    registry
	nextTimerID int64

	logger *slog.Logger
}

// SchedulerOption configures a Scheduler.
type SchedulerOption func(*Scheduler)

// WithLogger makes the scheduler emit a debug-level trace of clock
// movement, timer firings, and microtask drains. The default discards
// everything. Useful when a test scenario misbehaves and the exact
// interleaving is in question.
func WithLogger(logger *slog.Logger) SchedulerOption {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// New creates a scheduler whose clock reads zero elapsed time and
// whose timer registry and microtask queue are empty.
func New(options ...SchedulerOption) *Scheduler {
	s := &Scheduler{
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, option := range options {
		option(s)
	}
	return s
}

// Elapsed returns the total virtual time the clock has moved since the
// scheduler was constructed. Read from inside a timer callback, it
// reports the firing instant, not the advance target.
func (s *Scheduler) Elapsed() time.Duration { return s.elapsed.Elapsed() }

// Now returns the current instant on the scheduler's timeline.
func (s *Scheduler) Now() vtime.Instant { return s.elapsed }

// NewTimer registers a one-shot timer that becomes due delay past the
// current instant and returns its handle. A negative delay is treated
// as zero: the timer is due immediately but fires only from within
// Advance or FlushTimers, never synchronously from NewTimer. The timer
// is deregistered before f runs, so f observes the handle as inactive.
func (s *Scheduler) NewTimer(delay time.Duration, f func()) *Timer {
	t := &Timer{
		scheduler:  s,
		id:         s.nextTimerID,
		callback:   f,
		nextFireAt: s.elapsed.Add(vtime.ClampDelay(delay)),
		heapIndex:  -1,
	}
	s.nextTimerID++
	s.registry.insert(t)
	s.logger.Debug("timer registered",
		"id", t.id, "due", t.nextFireAt, "periodic", false)
	return t
}

// NewPeriodicTimer registers a timer that becomes due every period and
// returns its handle. The callback receives the handle so it can
// cancel or inspect itself. A negative period is treated as zero;
// note that a zero-period timer refires at the same instant and will
// keep an Advance that reaches that instant busy forever unless the
// callback cancels it.
func (s *Scheduler) NewPeriodicTimer(period time.Duration, f func(*Timer)) *Timer {
	clamped := vtime.ClampDelay(period)
	t := &Timer{
		scheduler:        s,
		id:               s.nextTimerID,
		periodicCallback: f,
		period:           clamped,
		periodic:         true,
		nextFireAt:       s.elapsed.Add(clamped),
		heapIndex:        -1,
	}
	s.nextTimerID++
	s.registry.insert(t)
	s.logger.Debug("timer registered",
		"id", t.id, "due", t.nextFireAt, "periodic", true, "period", clamped)
	return t
}

// ScheduleMicrotask queues f to run before any timer fires. Microtasks
// run strictly in the order scheduled; a microtask may schedule
// further microtasks, which run in the same drain. Microtasks have no
// handle and cannot be canceled. A nil f is dropped.
func (s *Scheduler) ScheduleMicrotask(f func()) {
	s.microtasks.enqueue(f)
}

// Advance moves the clock forward by d, firing every timer that comes
// due and draining microtasks before the first timer and after each
// firing. Callbacks run synchronously on the calling goroutine; by the
// time Advance returns, everything that became due has run and the
// clock reads at least d more than it did before the call.
//
// A callback may register new timers (fired within this advance if
// they come due in time), cancel timers, schedule microtasks, and move
// the clock with ElapseBlocking. It must not call Advance or
// FlushTimers again: that returns ErrAdvanceInFlight. A negative d
// returns ErrNegativeDuration. In both error cases no state changes.
//
// A panicking callback propagates out of Advance; the in-flight marker
// is cleared on the way out so the scheduler stays usable.
func (s *Scheduler) Advance(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("advance by %v: %w", d, ErrNegativeDuration)
	}
	if s.advancing {
		return fmt.Errorf("advance by %v: %w", d, ErrAdvanceInFlight)
	}
	s.advancing = true
	s.deadline = s.elapsed.Add(d)
	defer func() { s.advancing = false }()

	s.logger.Debug("advance begin", "by", d, "deadline", s.deadline)
	s.drainMicrotasks()
	// The deadline is re-read each iteration: ElapseBlocking inside a
	// callback can push it forward, making later timers eligible
	// within this same advance.
	for {
		t := s.registry.peekDue(s.deadline)
		if t == nil {
			break
		}
		s.fire(t)
		s.drainMicrotasks()
	}
	// Catch the clock up to the deadline. A blocking elapse may
	// already have carried it past; the clock never moves back.
	s.elapsed = max(s.elapsed, s.deadline)
	s.logger.Debug("advance end", "elapsed", s.elapsed)
	return nil
}

// ElapseBlocking moves the clock forward by d without firing timers or
// draining microtasks, modeling computation that occupies the only
// thread while time passes. Timers that become due during the blocked
// stretch fire on the next advance, or later within the containing
// advance when called from inside a callback: if the clock moves past
// the containing deadline, the deadline extends to match. Returns
// ErrNegativeDuration if d is negative.
func (s *Scheduler) ElapseBlocking(d time.Duration) error {
	if d < 0 {
		return fmt.Errorf("elapse blocking by %v: %w", d, ErrNegativeDuration)
	}
	s.elapsed = s.elapsed.Add(d)
	if s.advancing && s.deadline.Before(s.elapsed) {
		s.deadline = s.elapsed
	}
	s.logger.Debug("blocking elapse", "by", d, "elapsed", s.elapsed)
	return nil
}

// FlushMicrotasks runs every pending microtask, including any
// scheduled while the flush runs, without touching the clock or any
// timer. Legal at any point, including between advances and with
// timers pending.
func (s *Scheduler) FlushMicrotasks() {
	s.drainMicrotasks()
}

// FlushTimers fires pending timers in due order without a preset
// target, moving the clock to each timer's due instant and draining
// microtasks before the first timer and after each firing.
//
// With flushPeriodic false, the flush completes once the remaining
// timers are all periodic and none is due at the current clock:
// one-shot timers all fire, periodic timers fire only to catch up to
// instants the flush already reached, and they stay registered. With
// flushPeriodic true, periodic timers fire as they come due and the
// flush completes only when the registry is empty, which requires some
// callback to cancel them.
//
// limit bounds how far the clock may move: when the next due timer
// lies more than limit past the clock's starting point, FlushTimers
// stops and returns ErrFlushDeadline, keeping the progress made.
// A negative limit returns ErrNegativeDuration; a reentrant call
// returns ErrAdvanceInFlight.
func (s *Scheduler) FlushTimers(limit time.Duration, flushPeriodic bool) error {
	if limit < 0 {
		return fmt.Errorf("flush timers with limit %v: %w", limit, ErrNegativeDuration)
	}
	if s.advancing {
		return fmt.Errorf("flush timers: %w", ErrAdvanceInFlight)
	}
	absoluteLimit := s.elapsed.Add(limit)
	s.advancing = true
	s.deadline = s.elapsed
	defer func() { s.advancing = false }()

	s.logger.Debug("flush begin", "limit", limit, "flush_periodic", flushPeriodic)
	s.drainMicrotasks()
	for {
		t := s.registry.peek()
		if t == nil {
			break
		}
		if !flushPeriodic && s.registry.oneShot == 0 && t.nextFireAt.After(s.elapsed) {
			// Only periodic timers remain and none is due at the
			// clock the flush reached. They survive the flush.
			break
		}
		if t.nextFireAt.After(absoluteLimit) {
			return fmt.Errorf("flush timers: next timer due %v, limit %v: %w",
				t.nextFireAt, limit, ErrFlushDeadline)
		}
		s.fire(t)
		s.deadline = max(s.deadline, s.elapsed)
		s.drainMicrotasks()
	}
	s.logger.Debug("flush end", "elapsed", s.elapsed)
	return nil
}

// fire catches the clock up to the timer's due instant and invokes its
// callback. A one-shot timer leaves the registry before its callback
// runs. A periodic timer stays registered through its callback and
// moves one period further out after the callback returns, unless the
// callback canceled it. The clock never moves backward: a timer whose
// due instant was overtaken by a blocking elapse fires at the current,
// later clock.
func (s *Scheduler) fire(t *Timer) {
	if s.elapsed.Before(t.nextFireAt) {
		s.elapsed = t.nextFireAt
	}
	t.ticks++
	if t.periodic {
		s.logger.Debug("periodic timer fired", "id", t.id, "at", s.elapsed, "tick", t.ticks)
		t.periodicCallback(t)
		if t.heapIndex >= 0 {
			s.registry.reschedule(t, t.nextFireAt.Add(t.period))
		}
		return
	}
	s.registry.remove(t)
	s.logger.Debug("timer fired", "id", t.id, "at", s.elapsed)
	t.callback()
}

// drainMicrotasks runs queued microtasks until none remain, including
// those scheduled mid-drain.
func (s *Scheduler) drainMicrotasks() {
	ran := 0
	for f := s.microtasks.pop(); f != nil; f = s.microtasks.pop() {
		f()
		ran++
	}
	if ran > 0 {
		s.logger.Debug("microtasks drained", "count", ran)
	}
}

// MicrotaskCount returns the number of queued microtasks.
func (s *Scheduler) MicrotaskCount() int { return s.microtasks.len() }

// OneShotTimerCount returns the number of registered one-shot timers.
// Fired and canceled timers do not count.
func (s *Scheduler) OneShotTimerCount() int { return s.registry.oneShot }

// PeriodicTimerCount returns the number of registered periodic timers.
func (s *Scheduler) PeriodicTimerCount() int { return s.registry.periodic }

// TimerInfo describes one registered timer in a PendingTimers
// snapshot.
type TimerInfo struct {
	// ID is the timer's creation-ordered identifier.
	ID int64

	// Due is the instant the timer next fires.
	Due vtime.Instant

	// Period is the firing interval; zero for one-shot timers.
	Period time.Duration

	// Periodic distinguishes the two timer kinds.
	Periodic bool

	// Tick is the number of completed firings.
	Tick int
}

// PendingTimers returns a snapshot of the registered timers in firing
// order (due instant, then creation order). Intended for debugging
// test scenarios; the snapshot does not observe later changes.
func (s *Scheduler) PendingTimers() []TimerInfo {
	infos := make([]TimerInfo, 0, s.registry.len())
	for _, t := range s.registry.heap {
		infos = append(infos, TimerInfo{
			ID:       t.id,
			Due:      t.nextFireAt,
			Period:   t.period,
			Periodic: t.periodic,
			Tick:     t.ticks,
		})
	}
	slices.SortFunc(infos, func(a, b TimerInfo) int {
		if a.Due != b.Due {
			return cmp.Compare(a.Due, b.Due)
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return infos
}
