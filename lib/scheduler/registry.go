// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package scheduler

import (
	"container/heap"

	"github.com/bureau-foundation/timewarp/lib/vtime"
)

// registry tracks every registered timer in a heap ordered by due
// instant. Counts for the two timer kinds are maintained on insert and
// remove so introspection does not scan the heap.
type registry struct {
	heap     timerHeap
	oneShot  int
	periodic int
}

// insert registers a timer. The timer's nextFireAt and id must be set.
func (r *registry) insert(t *Timer) {
	heap.Push(&r.heap, t)
	if t.periodic {
		r.periodic++
	} else {
		r.oneShot++
	}
}

// remove deregisters a timer. No-op if the timer is not registered,
// which makes cancellation idempotent.
func (r *registry) remove(t *Timer) {
	if t.heapIndex < 0 {
		return
	}
	heap.Remove(&r.heap, t.heapIndex)
	if t.periodic {
		r.periodic--
	} else {
		r.oneShot--
	}
}

// reschedule moves a registered timer to a new due instant and
// restores heap order.
func (r *registry) reschedule(t *Timer, at vtime.Instant) {
	t.nextFireAt = at
	heap.Fix(&r.heap, t.heapIndex)
}

// peek returns the earliest registered timer, or nil when the registry
// is empty. Among timers due at the same instant the earliest-created
// wins.
func (r *registry) peek() *Timer {
	if len(r.heap) == 0 {
		return nil
	}
	return r.heap[0]
}

// peekDue returns the earliest registered timer due at or before
// deadline, or nil.
func (r *registry) peekDue(deadline vtime.Instant) *Timer {
	t := r.peek()
	if t == nil || t.nextFireAt.After(deadline) {
		return nil
	}
	return t
}

// len returns the number of registered timers of both kinds.
func (r *registry) len() int { return len(r.heap) }

// timerHeap orders timers by (due instant, creation id). The id
// tie-break makes timers scheduled for the same instant fire in
// creation order, so firing order is fully deterministic. Each timer
// carries its heap position in heapIndex, which makes removal of an
// arbitrary timer O(log n).
type timerHeap []*Timer

func (h timerHeap) Len() int { return len(h) }

func (h timerHeap) Less(i, j int) bool {
	if h[i].nextFireAt != h[j].nextFireAt {
		return h[i].nextFireAt.Before(h[j].nextFireAt)
	}
	return h[i].id < h[j].id
}

func (h timerHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].heapIndex = i
	h[j].heapIndex = j
}

func (h *timerHeap) Push(x any) {
	t := x.(*Timer)
	t.heapIndex = len(*h)
	*h = append(*h, t)
}

func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = nil
	t.heapIndex = -1
	*h = old[:n-1]
	return t
}
