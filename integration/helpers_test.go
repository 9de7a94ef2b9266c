// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package integration_test exercises the virtual-time packages
// together the way a consuming test suite would: components built
// against clock.Clock, driven through scheduler advances and timeline
// scripts, asserted with the testutil channel helpers. The virtual
// tests are in-memory and deterministic; the real-clock smoke tests
// pin the same components against clock.Real().
package integration_test

import (
	"time"

	"github.com/bureau-foundation/timewarp/lib/clock"
	"github.com/bureau-foundation/timewarp/lib/scheduler"
)

var epoch = time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

// newVirtualClock returns a fresh scheduler and a virtual clock
// anchored at the shared test epoch.
func newVirtualClock() (*scheduler.Scheduler, *clock.VirtualClock) {
	sched := scheduler.New()
	return sched, clock.Virtual(sched, epoch)
}
