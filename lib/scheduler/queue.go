// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scheduler

// microtaskQueue is a FIFO of deferred callbacks. Callbacks enqueued
// while the queue drains land behind everything already pending and
// run in the same drain.
type microtaskQueue struct {
	entries []func()
	head    int
}

// enqueue appends f to the tail. Nil callbacks are dropped.
func (q *microtaskQueue) enqueue(f func()) {
	if f == nil {
		return
	}
	q.entries = append(q.entries, f)
}

// pop removes and returns the head callback, or nil when the queue is
// empty. The drained prefix of the backing slice is reclaimed once it
// dominates the backing array, so a long-lived scheduler does not
// accumulate dead entries.
func (q *microtaskQueue) pop() func() {
	if q.head >= len(q.entries) {
		// Popped entries are already nil, so truncating retains
		// nothing; the backing array is reused from the start.
		q.entries = q.entries[:0]
		q.head = 0
		return nil
	}
	f := q.entries[q.head]
	q.entries[q.head] = nil
	q.head++
	if q.head > 32 && q.head*2 >= len(q.entries) {
		n := copy(q.entries, q.entries[q.head:])
		clear(q.entries[n:])
		q.entries = q.entries[:n]
		q.head = 0
	}
	return f
}

// len returns the number of queued callbacks.
func (q *microtaskQueue) len() int { return len(q.entries) - q.head }
