// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package testutil

import (
	"fmt"
	"time"
)

// RequireReceive reads one value from ch without blocking, or fails
// the test. Virtual-clock deliveries happen synchronously inside a
// scheduler advance, so a value that is going to arrive is already in
// the channel by the time the advance returns; waiting would only hide
// a missed delivery until a timeout.
//
//	result := testutil.RequireReceive(t, ch, "debounce event after advance")
func RequireReceive[T any](t interface {
	Helper()
	Fatalf(format string, args ...any)
}, ch <-chan T, msgAndArgs ...any) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed without sending a value: %s", formatMessage(msgAndArgs))
		}
		return v
	default:
		t.Fatalf("no value ready: %s", formatMessage(msgAndArgs))
	}
	panic("unreachable")
}

// RequireNoReceive fails the test if ch has a value ready. Use it to
// assert that an advance did not deliver: a timer that should still be
// pending, a ticker that was stopped, a debounce that should still be
// holding.
//
//	testutil.RequireNoReceive(t, ch, "no event before the debounce window closes")
func RequireNoReceive[T any](t interface {
	Helper()
	Fatalf(format string, args ...any)
}, ch <-chan T, msgAndArgs ...any) {
	t.Helper()
	select {
	case v := <-ch:
		t.Fatalf("unexpected value %v: %s", v, formatMessage(msgAndArgs))
	default:
	}
}

// RequireReceiveWithin waits up to timeout for a value on ch. This is
// the safety valve for tests that drive real goroutines against the
// real clock; virtual-clock tests should use RequireReceive, which
// never waits.
func RequireReceiveWithin[T any](t interface {
	Helper()
	Fatalf(format string, args ...any)
}, ch <-chan T, timeout time.Duration, msgAndArgs ...any) T {
	t.Helper()
	select {
	case v, ok := <-ch:
		if !ok {
			t.Fatalf("channel closed without sending a value: %s", formatMessage(msgAndArgs))
		}
		return v
	case <-time.After(timeout):
		t.Fatalf("no value within %v: %s", timeout, formatMessage(msgAndArgs))
	}
	panic("unreachable")
}

// RequireClosed fails the test unless ch is closed (or has a value
// ready). Use this for done channels that code under test closes from
// a timer callback: by the time the advance returns, the close has
// happened or never will.
//
//	testutil.RequireClosed(t, worker.Done(), "worker stopped by shutdown timer")
func RequireClosed(t interface {
	Helper()
	Fatalf(format string, args ...any)
}, ch <-chan struct{}, msgAndArgs ...any) {
	t.Helper()
	select {
	case <-ch:
	default:
		t.Fatalf("channel not closed: %s", formatMessage(msgAndArgs))
	}
}

// formatMessage formats optional message arguments into a string.
// Accepts either a single string or a format string followed by args.
func formatMessage(msgAndArgs []any) string {
	if len(msgAndArgs) == 0 {
		return "(no message)"
	}
	if len(msgAndArgs) == 1 {
		if s, ok := msgAndArgs[0].(string); ok {
			return s
		}
		return fmt.Sprintf("%v", msgAndArgs[0])
	}
	if format, ok := msgAndArgs[0].(string); ok {
		return fmt.Sprintf(format, msgAndArgs[1:]...)
	}
	return fmt.Sprintf("%v", msgAndArgs)
}
