// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package vtime provides value types for positions on a virtual
// timeline. A virtual timeline has no wall-clock anchor: positions are
// measured as the duration elapsed since the timeline's epoch, the
// instant the owning scheduler was constructed. Projection onto real
// time.Time values is the clock package's concern.
package vtime

import (
	"fmt"
	"time"
)

// Instant is a moment on a virtual timeline, measured as the duration
// elapsed since the timeline's epoch. The zero Instant is the epoch
// itself. Instants are plain values: copy them freely, compare with ==,
// order with Before and After.
type Instant time.Duration

// Add returns the instant d after t. d may be negative.
func (t Instant) Add(d time.Duration) Instant { return t + Instant(d) }

// Sub returns the duration from u to t.
func (t Instant) Sub(u Instant) time.Duration { return time.Duration(t - u) }

// Before reports whether t precedes u on the timeline.
func (t Instant) Before(u Instant) bool { return t < u }

// After reports whether t follows u on the timeline.
func (t Instant) After(u Instant) bool { return t > u }

// Elapsed returns the instant as the duration since the epoch.
func (t Instant) Elapsed() time.Duration { return time.Duration(t) }

// String formats the instant as an offset from the epoch, e.g. "@1m30s".
func (t Instant) String() string { return fmt.Sprintf("@%s", time.Duration(t)) }

// ClampDelay normalizes a caller-supplied timer delay or period:
// negative durations become zero. A clamped timer is due at the instant
// it was created, but still fires only from within a clock advance,
// never synchronously at creation.
func ClampDelay(d time.Duration) time.Duration {
	if d < 0 {
		return 0
	}
	return d
}
