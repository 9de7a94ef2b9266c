// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scheduler

import "errors"

var (
	// ErrNegativeDuration reports a negative duration argument to
	// Advance or ElapseBlocking, or a negative limit to FlushTimers.
	// The scheduler's state is unchanged when this is returned.
	ErrNegativeDuration = errors.New("scheduler: negative duration")

	// ErrAdvanceInFlight reports a reentrant clock advance: Advance or
	// FlushTimers called from a callback that is itself running under
	// an Advance or FlushTimers on the same scheduler. Callbacks that
	// need the clock to move use ElapseBlocking instead.
	ErrAdvanceInFlight = errors.New("scheduler: advance already in flight")

	// ErrFlushDeadline reports that FlushTimers stopped because firing
	// the next due timer would move the clock further past its starting
	// point than the caller's limit allows. Timers fired before the
	// limit was reached stay fired; the clock keeps the progress made.
	ErrFlushDeadline = errors.New("scheduler: flush exceeded time limit")
)
