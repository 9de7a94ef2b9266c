// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package cron

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Schedule is a parsed cron expression. Use Parse to create one, then
// Next to walk the instants it matches. Schedules are immutable values
// and safe to share.
type Schedule struct {
	minutes     bitset64
	hours       bitset64
	daysOfMonth bitset64
	months      bitset64
	daysOfWeek  bitset64

	// crontab(5) day semantics: when both day fields are restricted
	// (neither written with a leading "*"), a day matches if either
	// field matches; otherwise both must match.
	domRestricted bool
	dowRestricted bool
}

// bitset64 is a compact set of integers 0-63.
type bitset64 uint64

func (b bitset64) has(value int) bool { return b&(1<<uint(value)) != 0 }
func (b *bitset64) set(value int)     { *b |= 1 << uint(value) }
func (b *bitset64) unset(value int)   { *b &^= 1 << uint(value) }

// fieldSpec names a cron field and bounds its values.
type fieldSpec struct {
	name     string
	min, max int
}

// Day-of-week admits 7 as an alias for Sunday; Parse folds it into 0.
var fieldSpecs = [5]fieldSpec{
	{name: "minute", min: 0, max: 59},
	{name: "hour", min: 0, max: 23},
	{name: "day-of-month", min: 1, max: 31},
	{name: "month", min: 1, max: 12},
	{name: "day-of-week", min: 0, max: 7},
}

// shortcuts are the @-prefixed aliases from crontab(5). @reboot is not
// a schedule and is rejected like any unknown shortcut.
var shortcuts = map[string]string{
	"@yearly":   "0 0 1 1 *",
	"@annually": "0 0 1 1 *",
	"@monthly":  "0 0 1 * *",
	"@weekly":   "0 0 * * 0",
	"@daily":    "0 0 * * *",
	"@midnight": "0 0 * * *",
	"@hourly":   "0 * * * *",
}

// Parse parses a 5-field cron expression or an @-shortcut. Returns an
// error if the expression is malformed or contains out-of-range
// values.
func Parse(expression string) (Schedule, error) {
	trimmed := strings.TrimSpace(expression)
	if strings.HasPrefix(trimmed, "@") {
		expanded, ok := shortcuts[trimmed]
		if !ok {
			return Schedule{}, fmt.Errorf("cron: unknown shortcut %q", trimmed)
		}
		trimmed = expanded
	}

	fields := strings.Fields(trimmed)
	if len(fields) != len(fieldSpecs) {
		return Schedule{}, fmt.Errorf("cron: expected %d fields, got %d", len(fieldSpecs), len(fields))
	}

	var sets [5]bitset64
	for i, spec := range fieldSpecs {
		bits, err := parseField(fields[i], spec)
		if err != nil {
			return Schedule{}, fmt.Errorf("cron: %s field: %w", spec.name, err)
		}
		sets[i] = bits
	}

	daysOfWeek := sets[4]
	if daysOfWeek.has(7) {
		daysOfWeek.unset(7)
		daysOfWeek.set(0)
	}

	return Schedule{
		minutes:       sets[0],
		hours:         sets[1],
		daysOfMonth:   sets[2],
		months:        sets[3],
		daysOfWeek:    daysOfWeek,
		domRestricted: !strings.HasPrefix(fields[2], "*"),
		dowRestricted: !strings.HasPrefix(fields[4], "*"),
	}, nil
}

// Next returns the earliest instant strictly after t that matches the
// schedule. All computation is in UTC with sub-minute precision
// discarded.
//
// Returns an error when no match exists within 4 years of t, which
// catches impossible schedules like a day-of-month no listed month
// has. 4 years spans a full leap cycle, so any satisfiable schedule
// matches inside the window.
func (s Schedule) Next(t time.Time) (time.Time, error) {
	cursor := t.UTC().Truncate(time.Minute).Add(time.Minute)
	limit := cursor.AddDate(4, 0, 0)

	for cursor.Before(limit) {
		if !s.months.has(int(cursor.Month())) {
			cursor = time.Date(cursor.Year(), cursor.Month()+1, 1, 0, 0, 0, 0, time.UTC)
			continue
		}
		if !s.dayMatches(cursor) {
			cursor = time.Date(cursor.Year(), cursor.Month(), cursor.Day()+1, 0, 0, 0, 0, time.UTC)
			continue
		}
		if !s.hours.has(cursor.Hour()) {
			cursor = time.Date(cursor.Year(), cursor.Month(), cursor.Day(), cursor.Hour()+1, 0, 0, 0, time.UTC)
			continue
		}
		if !s.minutes.has(cursor.Minute()) {
			cursor = cursor.Add(time.Minute)
			continue
		}
		return cursor, nil
	}

	return time.Time{}, fmt.Errorf("cron: no matching time within 4 years of %s", t.UTC().Format(time.RFC3339))
}

// dayMatches applies the crontab(5) day rule: a union when both day
// fields are restricted, an intersection otherwise. A wildcard field
// matches every day, so the intersection reduces to the restricted
// field alone.
func (s Schedule) dayMatches(t time.Time) bool {
	dom := s.daysOfMonth.has(t.Day())
	dow := s.daysOfWeek.has(int(t.Weekday()))
	if s.domRestricted && s.dowRestricted {
		return dom || dow
	}
	return dom && dow
}

// parseField parses one comma-separated cron field into a bitset.
func parseField(field string, spec fieldSpec) (bitset64, error) {
	var result bitset64
	for _, term := range strings.Split(field, ",") {
		bits, err := parseTerm(term, spec)
		if err != nil {
			return 0, err
		}
		result |= bits
	}
	if result == 0 {
		return 0, fmt.Errorf("field %q produces empty set", field)
	}
	return result, nil
}

// parseTerm parses a single term: *, */N, V, V-V, or V-V/N.
func parseTerm(term string, spec fieldSpec) (bitset64, error) {
	rangeExpression, stepExpression, hasStep := strings.Cut(term, "/")
	step := 1
	if hasStep {
		parsed, err := strconv.Atoi(stepExpression)
		if err != nil {
			return 0, fmt.Errorf("invalid step %q: %w", stepExpression, err)
		}
		if parsed <= 0 {
			return 0, fmt.Errorf("step must be positive, got %d", parsed)
		}
		step = parsed
	}

	start, end := spec.min, spec.max
	switch {
	case rangeExpression == "*":
		// Full range.
	case strings.ContainsRune(rangeExpression, '-'):
		startText, endText, _ := strings.Cut(rangeExpression, "-")
		var err error
		if start, err = strconv.Atoi(startText); err != nil {
			return 0, fmt.Errorf("invalid range start %q: %w", startText, err)
		}
		if end, err = strconv.Atoi(endText); err != nil {
			return 0, fmt.Errorf("invalid range end %q: %w", endText, err)
		}
		if start > end {
			return 0, fmt.Errorf("range start %d > end %d", start, end)
		}
	default:
		value, err := strconv.Atoi(rangeExpression)
		if err != nil {
			return 0, fmt.Errorf("invalid value %q: %w", rangeExpression, err)
		}
		start, end = value, value
	}

	if start < spec.min || end > spec.max {
		return 0, fmt.Errorf("value out of range [%d-%d]: got %d-%d", spec.min, spec.max, start, end)
	}

	var result bitset64
	for value := start; value <= end; value += step {
		result.set(value)
	}
	return result, nil
}
