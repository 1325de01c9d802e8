// FleetInsights - Fleet Tracking Dashboard Backend
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/fleetinsights

package daterange

// Preset is a quick-pick range. DaysBack 0 means today only, -1 means one
// calendar month, and n > 0 means the last n+1 days including today.
type Preset struct {
	Label    string `json:"label"`
	DaysBack int    `json:"daysBack"`
}

// Presets are offered by the dashboard's range picker.
var Presets = []Preset{
	{Label: "Dnes", DaysBack: 0},
	{Label: "7 dní", DaysBack: 6},
	{Label: "14 dní", DaysBack: 13},
	{Label: "Měsíc", DaysBack: -1},
}

// Range is an editable from/to pair. Setting one bound past the other
// drags the other along when both are valid.
type Range struct {
	cal         *Calendar
	from        string
	to          string
	defaultFrom string
	defaultTo   string
}

// NewRange creates a range defaulting to the last seven days.
func NewRange(cal *Calendar) *Range {
	from, to := cal.DaysAgo(6), cal.Today()
	return &Range{cal: cal, from: from, to: to, defaultFrom: from, defaultTo: to}
}

// From returns the start date.
func (r *Range) From() string { return r.from }

// To returns the end date.
func (r *Range) To() string { return r.to }

// SetFrom sets the start date, pulling the end date forward if needed.
func (r *Range) SetFrom(value string) {
	r.from = value
	if r.cal.IsValidDate(value) && r.cal.IsValidDate(r.to) && value > r.to {
		r.to = value
	}
}

// SetTo sets the end date, pulling the start date back if needed.
func (r *Range) SetTo(value string) {
	r.to = value
	if r.cal.IsValidDate(value) && r.cal.IsValidDate(r.from) && value < r.from {
		r.from = value
	}
}

// Set replaces both bounds as given.
func (r *Range) Set(from, to string) {
	r.from, r.to = from, to
}

// ApplyPreset replaces both bounds. The end is always today.
func (r *Range) ApplyPreset(daysBack int) {
	r.to = r.cal.Today()
	switch {
	case daysBack == 0:
		r.from = r.to
	case daysBack < 0:
		r.from = r.cal.OneMonthAgo()
	default:
		r.from = r.cal.DaysAgo(daysBack)
	}
}

// ResetToSafeDefaults restores any invalid bound to its default.
func (r *Range) ResetToSafeDefaults() {
	if !r.cal.IsValidDate(r.from) {
		r.from = r.defaultFrom
	}
	if !r.cal.IsValidDate(r.to) {
		r.to = r.defaultTo
	}
}

// Error returns the validation message, "" when valid.
func (r *Range) Error() string { return r.cal.Validate(r.from, r.to) }

// Valid reports whether the range passes validation.
func (r *Range) Valid() bool { return r.Error() == "" }

// Days returns the inclusive day count.
func (r *Range) Days() int { return DaysBetween(r.from, r.to) }

// BinHours returns the speed chart bin width for this range.
func (r *Range) BinHours() int { return CalcBinHours(r.from, r.to) }

// APIFrom returns the upstream start timestamp.
func (r *Range) APIFrom() string { return ToAPIFrom(r.from) }

// APITo returns the upstream end timestamp.
func (r *Range) APITo() string { return ToAPITo(r.to) }
