// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package timeline

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/bureau-foundation/timewarp/lib/scheduler"
)

const rampYAML = `
name: ramp
steps:
  - advance: 150ms
  - checkpoint: after-first
  - elapse_blocking: 20ms
  - flush_microtasks: true
  - advance: 1s
  - checkpoint: end
`

const rampJSONC = `
// Same scenario as the YAML form, exercising the JSONC parser.
{
  "name": "ramp",
  "steps": [
    {"advance": "150ms"},
    {"checkpoint": "after-first"},
    {"elapse_blocking": "20ms"},
    {"flush_microtasks": true},
    {"advance": "1s"},
    {"checkpoint": "end"}, // trailing comma on purpose
  ],
}
`

func writeFixture(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}
	return path
}

func TestLoadYAML(t *testing.T) {
	document, err := Load(writeFixture(t, "ramp.yaml", rampYAML))
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if document.Name != "ramp" {
		t.Fatalf("Name = %q, want %q", document.Name, "ramp")
	}
	if len(document.Steps) != 6 {
		t.Fatalf("len(Steps) = %d, want 6", len(document.Steps))
	}
	if err := document.Validate(); err != nil {
		t.Fatalf("Validate() = %v", err)
	}
}

func TestLoadJSONC(t *testing.T) {
	document, err := Load(writeFixture(t, "ramp.jsonc", rampJSONC))
	if err != nil {
		t.Fatalf("Load() = %v", err)
	}
	if document.Name != "ramp" {
		t.Fatalf("Name = %q, want %q", document.Name, "ramp")
	}
	if len(document.Steps) != 6 {
		t.Fatalf("len(Steps) = %d, want 6", len(document.Steps))
	}
}

func TestLoadUnsupportedExtension(t *testing.T) {
	_, err := Load(writeFixture(t, "ramp.toml", "name = 'ramp'"))
	if err == nil || !strings.Contains(err.Error(), "unsupported timeline extension") {
		t.Fatalf("Load(.toml) = %v, want unsupported-extension error", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	if err == nil {
		t.Fatal("Load() of missing file succeeded")
	}
}

func TestExecuteRecordsCheckpoints(t *testing.T) {
	document, err := ParseYAML([]byte(rampYAML))
	if err != nil {
		t.Fatalf("ParseYAML() = %v", err)
	}

	sched := scheduler.New()
	fireInstants := []time.Duration{}
	sched.NewTimer(100*time.Millisecond, func() {
		fireInstants = append(fireInstants, sched.Elapsed())
	})
	// Due at 160ms: inside the blocked stretch after the first advance,
	// so it fires late, during the 1s advance.
	sched.NewTimer(160*time.Millisecond, func() {
		fireInstants = append(fireInstants, sched.Elapsed())
	})

	checkpoints, err := document.Execute(sched)
	if err != nil {
		t.Fatalf("Execute() = %v", err)
	}

	want := []Checkpoint{
		{Name: "after-first", Elapsed: 150 * time.Millisecond},
		{Name: "end", Elapsed: 1170 * time.Millisecond},
	}
	if len(checkpoints) != len(want) {
		t.Fatalf("checkpoints = %+v, want %+v", checkpoints, want)
	}
	for i := range want {
		if checkpoints[i] != want[i] {
			t.Fatalf("checkpoint %d = %+v, want %+v", i, checkpoints[i], want[i])
		}
	}

	// First timer fired on time; the overtaken one fired at the clock
	// it found once the next advance picked it up.
	if len(fireInstants) != 2 {
		t.Fatalf("timers fired at %v, want two firings", fireInstants)
	}
	if fireInstants[0] != 100*time.Millisecond {
		t.Fatalf("first timer fired at %v, want 100ms", fireInstants[0])
	}
	if fireInstants[1] != 170*time.Millisecond {
		t.Fatalf("overtaken timer fired at %v, want 170ms", fireInstants[1])
	}
}

func TestExecuteJSONCMatchesYAML(t *testing.T) {
	fromYAML, err := ParseYAML([]byte(rampYAML))
	if err != nil {
		t.Fatalf("ParseYAML() = %v", err)
	}
	fromJSONC, err := Parse([]byte(rampJSONC))
	if err != nil {
		t.Fatalf("Parse() = %v", err)
	}

	yamlCheckpoints, err := fromYAML.Execute(scheduler.New())
	if err != nil {
		t.Fatalf("Execute(yaml) = %v", err)
	}
	jsoncCheckpoints, err := fromJSONC.Execute(scheduler.New())
	if err != nil {
		t.Fatalf("Execute(jsonc) = %v", err)
	}

	if len(yamlCheckpoints) != len(jsoncCheckpoints) {
		t.Fatalf("checkpoint counts differ: %d vs %d", len(yamlCheckpoints), len(jsoncCheckpoints))
	}
	for i := range yamlCheckpoints {
		if yamlCheckpoints[i] != jsoncCheckpoints[i] {
			t.Fatalf("checkpoint %d differs: %+v vs %+v", i, yamlCheckpoints[i], jsoncCheckpoints[i])
		}
	}
}

func TestValidateRejectsMalformedSteps(t *testing.T) {
	tests := []struct {
		name    string
		doc     Document
		wantErr string
	}{
		{
			name:    "no directive",
			doc:     Document{Name: "bad", Steps: []Step{{}}},
			wantErr: "exactly one directive",
		},
		{
			name: "two directives",
			doc: Document{Name: "bad", Steps: []Step{
				{Advance: "1s", Checkpoint: "x"},
			}},
			wantErr: "exactly one directive",
		},
		{
			name: "malformed duration",
			doc: Document{Name: "bad", Steps: []Step{
				{Advance: "fast"},
			}},
			wantErr: "advance",
		},
		{
			name: "negative duration",
			doc: Document{Name: "bad", Steps: []Step{
				{ElapseBlocking: "-5s"},
			}},
			wantErr: "negative duration",
		},
		{
			name: "duplicate checkpoint",
			doc: Document{Name: "bad", Steps: []Step{
				{Checkpoint: "same"},
				{Checkpoint: "same"},
			}},
			wantErr: "duplicate checkpoint",
		},
	}

	for _, test := range tests {
		test := test
		t.Run(test.name, func(t *testing.T) {
			err := test.doc.Validate()
			if err == nil {
				t.Fatal("Validate() = nil, want error")
			}
			if !strings.Contains(err.Error(), test.wantErr) {
				t.Fatalf("Validate() = %v, want message containing %q", err, test.wantErr)
			}
		})
	}
}

func TestValidateReportsAllProblems(t *testing.T) {
	doc := Document{Name: "bad", Steps: []Step{
		{Advance: "fast"},
		{},
		{Checkpoint: "dup"},
		{Checkpoint: "dup"},
	}}

	err := doc.Validate()
	if err == nil {
		t.Fatal("Validate() = nil, want error")
	}
	for _, fragment := range []string{"step 1", "step 2", "duplicate checkpoint"} {
		if !strings.Contains(err.Error(), fragment) {
			t.Fatalf("Validate() = %v, want message containing %q", err, fragment)
		}
	}
}

func TestExecuteRejectsInvalidDocument(t *testing.T) {
	doc := Document{Name: "bad", Steps: []Step{{}}}
	_, err := doc.Execute(scheduler.New())
	if err == nil || !strings.Contains(err.Error(), `timeline "bad"`) {
		t.Fatalf("Execute() = %v, want validation error naming the document", err)
	}
}
