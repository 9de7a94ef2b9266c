// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides shared helpers for tests that drive
// virtual time.
//
// The scheduler's cooperative model makes channel assertions
// immediate: a delivery from a virtual clock happens synchronously
// inside the advance that made it due, so by the time the advance
// returns the value is either in the channel or never coming.
// [RequireReceive], [RequireNoReceive], and [RequireClosed] make the
// resulting non-blocking receives explicit and give uniform failure
// messages. [RequireReceiveWithin] is the one exception: it blocks
// with a real-clock timeout, for suites that drive real goroutines
// rather than a virtual timeline.
//
// All helpers call t.Fatalf on failure rather than returning errors,
// since assertion failures are not recoverable.
package testutil
