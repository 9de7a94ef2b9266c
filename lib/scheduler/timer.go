// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"time"

	"github.com/bureau-foundation/timewarp/lib/vtime"
)

// Timer is a handle to a timer registered with a Scheduler. Handles
// are weak references: they support cancellation and liveness queries
// but do not keep the timer registered. A one-shot timer leaves the
// registry the moment it fires; a periodic timer stays registered
// until canceled.
type Timer struct {
	scheduler *Scheduler

	// id orders timers by creation. Timers due at the same instant
	// fire in id order.
	id int64

	// Exactly one of callback and periodicCallback is set, matching
	// the periodic flag. A periodic callback receives its own handle
	// so it can cancel or inspect itself.
	callback         func()
	periodicCallback func(*Timer)

	period     time.Duration
	periodic   bool
	nextFireAt vtime.Instant
	ticks      int

	// heapIndex is the timer's position in the registry heap, -1 when
	// not registered. Maintained by the heap operations in registry.go.
	heapIndex int
}

// Cancel removes the timer from its scheduler's registry. Canceling a
// timer that already fired (one-shot), was already canceled, or was
// never registered is a no-op. Cancel never fails and is always safe,
// including from inside the timer's own callback.
func (t *Timer) Cancel() {
	t.scheduler.registry.remove(t)
}

// IsActive reports whether the timer is currently registered: it has
// neither been canceled nor, for a one-shot timer, fired. A one-shot
// timer observes itself as inactive from inside its own callback. A
// periodic timer stays active across firings until canceled.
func (t *Timer) IsActive() bool {
	return t.heapIndex >= 0
}

// Tick returns the number of times the timer has fired. Read from
// inside the timer's own callback, the firing in progress is included:
// a periodic timer's first callback observes Tick() == 1.
func (t *Timer) Tick() int {
	return t.ticks
}
