// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package timeline provides scripted scenarios for driving a virtual
// scheduler through a sequence of instants. A scenario is either built
// in code as a Script of named actions pinned to points on the
// timeline, or loaded as a declarative Document from a YAML or JSONC
// fixture file.
//
// Both forms replay deterministically: the scheduler advances to each
// instant in order, firing whatever timers and deferred callbacks come
// due on the way, exactly as a sequence of hand-written Advance calls
// would.
package timeline

import (
	"cmp"
	"fmt"
	"slices"
	"time"

	"github.com/bureau-foundation/timewarp/lib/scheduler"
)

// Action is one step of a Script: a function pinned to an instant on
// the scheduler's timeline.
type Action struct {
	// At is the instant the action runs, as elapsed time since the
	// scheduler's construction.
	At time.Duration

	// Name identifies the action in errors.
	Name string

	// Run is invoked once the scheduler's clock reaches At. May be nil
	// for pure wait-points.
	Run func(*scheduler.Scheduler)
}

// Script is a set of actions replayed in timeline order against a
// scheduler. The zero value is an empty script ready for Add.
type Script struct {
	actions []Action
}

// Add appends an action at the given instant. Actions may be added in
// any order; Run plays them sorted by At, and actions at equal
// instants play in the order they were added.
func (s *Script) Add(at time.Duration, name string, run func(*scheduler.Scheduler)) *Script {
	s.actions = append(s.actions, Action{At: at, Name: name, Run: run})
	return s
}

// Len returns the number of actions added.
func (s *Script) Len() int { return len(s.actions) }

// Run plays the script against sched. The scheduler advances to each
// action's instant in turn, firing timers and draining deferred
// callbacks on the way, then the action runs outside any advance, so
// an action may itself call Advance or FlushTimers. An action whose
// instant has already passed, because an earlier action moved the
// clock beyond it, runs without further advancing.
func (s *Script) Run(sched *scheduler.Scheduler) error {
	ordered := slices.Clone(s.actions)
	slices.SortStableFunc(ordered, func(a, b Action) int {
		return cmp.Compare(a.At, b.At)
	})
	for _, action := range ordered {
		if wait := action.At - sched.Elapsed(); wait > 0 {
			if err := sched.Advance(wait); err != nil {
				return fmt.Errorf("advancing to %v for action %q: %w",
					action.At, action.Name, err)
			}
		}
		if action.Run != nil {
			action.Run(sched)
		}
	}
	return nil
}
