// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

// Package cron parses crontab(5) expressions and runs callbacks at the
// instants they match, against a real or virtual clock.
//
// Supported syntax:
//
//	┌───────────── minute (0-59)
//	│ ┌───────────── hour (0-23)
//	│ │ ┌───────────── day of month (1-31)
//	│ │ │ ┌───────────── month (1-12)
//	│ │ │ │ ┌───────────── day of week (0-7, 0 and 7 = Sunday)
//	│ │ │ │ │
//	* * * * *
//
// Each field supports single values (5), ranges (1-5), lists (1,3,5),
// steps (*/15, 1-30/5), and the wildcard (*). The @yearly, @annually,
// @monthly, @weekly, @daily, @midnight, and @hourly shortcuts expand
// to their crontab equivalents. When both day fields are restricted,
// a day matches if either field matches, per crontab(5).
//
// All times are UTC; there is no seconds field and no named days or
// months. Schedules are pure values: Parse once, call Next anywhere.
// Runner binds a Schedule to a clock.Clock, which is where virtual
// time pays off: a test drives a year of @daily runs through a
// scheduler advance instead of waiting on the wall clock.
package cron
