// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package timeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/bureau-foundation/timewarp/lib/scheduler"
)

// Document is a declarative timeline scenario: a named sequence of
// steps driving a scheduler. Documents are authored as YAML or as
// JSONC (JSON extended with // line comments, /* block comments */,
// and trailing commas):
//
//	name: retry-backoff
//	steps:
//	  - advance: 150ms
//	  - checkpoint: after-first-retry
//	  - elapse_blocking: 20ms
//	  - flush_microtasks: true
//	  - advance: 1s
//	  - checkpoint: end
type Document struct {
	// Name identifies the scenario in errors.
	Name string `yaml:"name" json:"name"`

	// Steps run in order against the scheduler.
	Steps []Step `yaml:"steps" json:"steps"`
}

// Step is one directive in a Document. Exactly one field is set per
// step.
type Step struct {
	// Advance moves the clock forward, firing timers and draining
	// deferred callbacks on the way. A time.ParseDuration string,
	// e.g. "150ms".
	Advance string `yaml:"advance,omitempty" json:"advance,omitempty"`

	// ElapseBlocking moves the clock forward without firing timers or
	// draining deferred callbacks.
	ElapseBlocking string `yaml:"elapse_blocking,omitempty" json:"elapse_blocking,omitempty"`

	// FlushMicrotasks drains the deferred-callback queue without
	// touching the clock or timers.
	FlushMicrotasks bool `yaml:"flush_microtasks,omitempty" json:"flush_microtasks,omitempty"`

	// Checkpoint records the elapsed clock under the given name for
	// the caller to assert on. Names must be unique in a document.
	Checkpoint string `yaml:"checkpoint,omitempty" json:"checkpoint,omitempty"`
}

// Checkpoint is one recorded observation from executing a Document:
// the scheduler's elapsed clock at the moment the checkpoint step ran.
type Checkpoint struct {
	Name    string
	Elapsed time.Duration
}

// Parse strips JSONC comments and trailing commas from data, then
// unmarshals the result into a Document.
func Parse(data []byte) (*Document, error) {
	stripped := jsonc.ToJSON(data)

	var document Document
	if err := json.Unmarshal(stripped, &document); err != nil {
		return nil, fmt.Errorf("parsing timeline: %w", err)
	}

	return &document, nil
}

// ParseYAML unmarshals a YAML timeline document.
func ParseYAML(data []byte) (*Document, error) {
	var document Document
	if err := yaml.Unmarshal(data, &document); err != nil {
		return nil, fmt.Errorf("parsing timeline: %w", err)
	}

	return &document, nil
}

// Load reads a timeline document from disk, selecting the format by
// file extension: .yaml and .yml parse as YAML, .json and .jsonc as
// JSONC. Returns a descriptive error for unreadable files, malformed
// documents, or other extensions.
func Load(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}

	var document *Document
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		document, err = ParseYAML(data)
	case ".json", ".jsonc":
		document, err = Parse(data)
	default:
		return nil, fmt.Errorf("%s: unsupported timeline extension %q", path, filepath.Ext(path))
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return document, nil
}

// stepKind discriminates the compiled form of a Step.
type stepKind int

const (
	stepAdvance stepKind = iota
	stepElapseBlocking
	stepFlushMicrotasks
	stepCheckpoint
)

// compiledStep is a validated Step with its duration parsed.
type compiledStep struct {
	kind     stepKind
	duration time.Duration
	name     string
}

// Validate checks the document for structural errors: steps with zero
// or several directives, malformed or negative durations, and
// duplicate or empty checkpoint names. All problems are reported at
// once.
func (d *Document) Validate() error {
	_, err := d.compile()
	return err
}

func (d *Document) compile() ([]compiledStep, error) {
	var errs []error
	compiled := make([]compiledStep, 0, len(d.Steps))
	seen := make(map[string]bool)

	for i, step := range d.Steps {
		directives := 0
		var out compiledStep

		if step.Advance != "" {
			directives++
			duration, err := parseStepDuration(step.Advance)
			if err != nil {
				errs = append(errs, fmt.Errorf("step %d: advance: %w", i+1, err))
			}
			out = compiledStep{kind: stepAdvance, duration: duration}
		}
		if step.ElapseBlocking != "" {
			directives++
			duration, err := parseStepDuration(step.ElapseBlocking)
			if err != nil {
				errs = append(errs, fmt.Errorf("step %d: elapse_blocking: %w", i+1, err))
			}
			out = compiledStep{kind: stepElapseBlocking, duration: duration}
		}
		if step.FlushMicrotasks {
			directives++
			out = compiledStep{kind: stepFlushMicrotasks}
		}
		if step.Checkpoint != "" {
			directives++
			if seen[step.Checkpoint] {
				errs = append(errs, fmt.Errorf("step %d: duplicate checkpoint %q", i+1, step.Checkpoint))
			}
			seen[step.Checkpoint] = true
			out = compiledStep{kind: stepCheckpoint, name: step.Checkpoint}
		}

		if directives != 1 {
			errs = append(errs, fmt.Errorf("step %d: exactly one directive required, have %d", i+1, directives))
			continue
		}
		compiled = append(compiled, out)
	}

	if len(errs) > 0 {
		return nil, errors.Join(errs...)
	}
	return compiled, nil
}

// parseStepDuration parses a human-readable duration and rejects
// negative values, which the scheduler would refuse at execution time
// anyway; catching them here points at the document instead.
func parseStepDuration(s string) (time.Duration, error) {
	duration, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if duration < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return duration, nil
}

// Execute validates the document and plays its steps against sched in
// order, returning the recorded checkpoints.
func (d *Document) Execute(sched *scheduler.Scheduler) ([]Checkpoint, error) {
	compiled, err := d.compile()
	if err != nil {
		return nil, fmt.Errorf("timeline %q: %w", d.Name, err)
	}

	var checkpoints []Checkpoint
	for i, step := range compiled {
		switch step.kind {
		case stepAdvance:
			if err := sched.Advance(step.duration); err != nil {
				return checkpoints, fmt.Errorf("timeline %q step %d: %w", d.Name, i+1, err)
			}
		case stepElapseBlocking:
			if err := sched.ElapseBlocking(step.duration); err != nil {
				return checkpoints, fmt.Errorf("timeline %q step %d: %w", d.Name, i+1, err)
			}
		case stepFlushMicrotasks:
			sched.FlushMicrotasks()
		case stepCheckpoint:
			checkpoints = append(checkpoints, Checkpoint{
				Name:    step.name,
				Elapsed: sched.Elapsed(),
			})
		}
	}
	return checkpoints, nil
}
