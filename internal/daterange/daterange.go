// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

// Package daterange validates the user-selected trip/event date range and
// converts it to the upstream's local-time query format.
//
// Dates are YYYY-MM-DD strings. "Today" comes from an injected clock in
// local time, so validation is deterministic under test.
package daterange

import (
	"fmt"
	"math"
	"regexp"
	"time"

	"github.com/zoobzio/clockz"
)

const (
	// MaxRangeDays is the longest calendar month, so a one-month range
	// always fits whatever month it starts in.
	MaxRangeDays = 31

	// MinYear rejects partially typed years such as 0020 or 0202.
	MinYear = 2020

	// DateLayout is the accepted date format.
	DateLayout = "2006-01-02"
)

var datePattern = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// Calendar answers date questions relative to the clock's current day.
type Calendar struct {
	clock clockz.Clock
}

// NewCalendar creates a Calendar. A nil clock uses the real clock.
func NewCalendar(clock clockz.Clock) *Calendar {
	if clock == nil {
		clock = clockz.RealClock
	}
	return &Calendar{clock: clock}
}

// Today returns the current local date.
func (c *Calendar) Today() string {
	return c.clock.Now().In(time.Local).Format(DateLayout)
}

// DaysAgo returns the local date n days before today.
func (c *Calendar) DaysAgo(n int) string {
	return c.clock.Now().In(time.Local).AddDate(0, 0, -n).Format(DateLayout)
}

// OneMonthAgo returns the first day of a one-month window ending today:
// the day after the same date in the previous month. The inclusive span
// from it to today never exceeds MaxRangeDays.
func (c *Calendar) OneMonthAgo() string {
	return c.clock.Now().In(time.Local).AddDate(0, -1, 1).Format(DateLayout)
}

// IsValidDate reports whether value is a strict YYYY-MM-DD calendar date,
// no earlier than MinYear and not after today.
func (c *Calendar) IsValidDate(value string) bool {
	if !datePattern.MatchString(value) {
		return false
	}
	d, err := time.Parse(DateLayout, value)
	if err != nil {
		return false
	}
	if d.Year() < MinYear {
		return false
	}
	return value <= c.Today()
}

// Validate returns a user-facing message for an invalid range, or "" when
// the range is acceptable.
func (c *Calendar) Validate(from, to string) string {
	if !c.IsValidDate(from) {
		return fmt.Sprintf(`"Od" není platné datum (min. rok %d)`, MinYear)
	}
	if !c.IsValidDate(to) {
		return `"Do" není platné datum`
	}
	if from > to {
		return `"Od" nesmí být po "Do"`
	}
	if days := DaysBetween(from, to); days > MaxRangeDays {
		return fmt.Sprintf("Rozsah nesmí přesáhnout 1 měsíc (aktuálně %d dní, max. %d)", days, MaxRangeDays)
	}
	return ""
}

// DaysBetween counts days in [from, to] inclusively. It returns 0 when
// either date is unparseable or to precedes from.
func DaysBetween(from, to string) int {
	a, errA := time.Parse(DateLayout, from)
	b, errB := time.Parse(DateLayout, to)
	if errA != nil || errB != nil {
		return 0
	}
	days := int(math.Round(b.Sub(a).Hours()/24)) + 1
	if days < 0 {
		return 0
	}
	return days
}

// CalcBinHours picks the speed chart bin width: one hour per day of range,
// capped at six.
func CalcBinHours(from, to string) int {
	days := DaysBetween(from, to)
	if days < 1 {
		return 1
	}
	if days > 6 {
		return 6
	}
	return days
}

// ToAPIFrom converts a date to the upstream's start-of-day timestamp.
func ToAPIFrom(date string) string {
	return date + "T00:00"
}

// ToAPITo converts a date to the upstream's end-of-day timestamp.
func ToAPITo(date string) string {
	return date + "T23:59"
}
