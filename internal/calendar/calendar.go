// Package calendar provides the pure date arithmetic behind the weekly
// attendance report: fiscal-year boundaries, Sunday-anchored week windows,
// same-weekday prior-year alignment, and window counting for averages.
//
// Every function is total: a date that is not a Sunday is normalized back to
// the preceding Sunday rather than rejected, so callers never receive errors
// from this package.
package calendar

import (
	"math"
	"time"
)

// Window is a date range, inclusive at both ends at day granularity.
// Start is anchored to 00:00:00 and End to 23:59:59.999999999 so the window
// can be handed directly to range queries against meeting timestamps.
type Window struct {
	Start time.Time `json:"start"`
	End   time.Time `json:"end"`
}

// NewWindow builds a Window from two dates, normalizing Start to the
// beginning of its day and End to the last nanosecond of its day.
func NewWindow(start, end time.Time) Window {
	return Window{Start: DayStart(start), End: DayEnd(end)}
}

// Contains reports whether t falls inside the window.
func (w Window) Contains(t time.Time) bool {
	return !t.Before(w.Start) && !t.After(w.End)
}

// Clip intersects w with bounds. The result never extends beyond either
// input; an empty intersection yields a zero Window.
func (w Window) Clip(bounds Window) Window {
	start := w.Start
	if bounds.Start.After(start) {
		start = bounds.Start
	}
	end := w.End
	if bounds.End.Before(end) {
		end = bounds.End
	}
	if end.Before(start) {
		return Window{}
	}
	return Window{Start: start, End: end}
}

// IsZero reports whether the window is empty.
func (w Window) IsZero() bool {
	return w.Start.IsZero() && w.End.IsZero()
}

// Days returns the number of calendar days the window spans, inclusive.
func (w Window) Days() int {
	if w.IsZero() {
		return 0
	}
	return int(DayStart(w.End).Sub(DayStart(w.Start)).Hours()/24) + 1
}

// DayStart normalizes a timestamp to 00:00:00 of its day.
func DayStart(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, t.Location())
}

// DayEnd normalizes a timestamp to the last nanosecond of its day.
func DayEnd(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, 999999999, t.Location())
}

// SundayOfWeek returns the most recent Sunday on or before t, at day start.
// Sundays map to themselves, so the function is idempotent.
func SundayOfWeek(t time.Time) time.Time {
	d := DayStart(t)
	return d.AddDate(0, 0, -int(d.Weekday()))
}

// WeekStart returns the Monday six days before the given Sunday. Non-Sunday
// input is first normalized back to the preceding Sunday.
func WeekStart(sunday time.Time) time.Time {
	return SundayOfWeek(sunday).AddDate(0, 0, -6)
}

// ReportWeek returns the Monday-through-Sunday window ending on the Sunday
// on or before t.
func ReportWeek(t time.Time) Window {
	sunday := SundayOfWeek(t)
	return NewWindow(WeekStart(sunday), sunday)
}

// WeeksAgo returns the date exactly n*7 days before t.
func WeeksAgo(t time.Time, n int) time.Time {
	return DayStart(t).AddDate(0, 0, -7*n)
}

// TrailingWindow returns the window covering the n weeks ending on the
// Sunday on or before t (28 days for n=4).
func TrailingWindow(t time.Time, n int) Window {
	sunday := SundayOfWeek(t)
	return NewWindow(WeeksAgo(sunday, n).AddDate(0, 0, 1), sunday)
}

// FiscalSpec names the month and day a fiscal year begins on.
type FiscalSpec struct {
	Month time.Month
	Day   int
}

// FiscalYearBounds returns the one-year window starting on the given
// month/day of year.
func FiscalYearBounds(year int, start FiscalSpec) Window {
	s := time.Date(year, start.Month, start.Day, 0, 0, 0, 0, time.UTC)
	return NewWindow(s, s.AddDate(1, 0, 0).AddDate(0, 0, -1))
}

// FiscalYearContaining returns the fiscal year window that contains t.
func FiscalYearContaining(t time.Time, start FiscalSpec) Window {
	w := FiscalYearBounds(t.Year(), start)
	if DayStart(t).Before(w.Start) {
		w = FiscalYearBounds(t.Year()-1, start)
	}
	return w
}

// FiscalYearToDate returns the window from the fiscal year start through t.
func FiscalYearToDate(t time.Time, start FiscalSpec) Window {
	return NewWindow(FiscalYearContaining(t, start).Start, t)
}

// SameWeekdayPriorYear returns the date 364 days (52 whole weeks) before t,
// preserving the weekday. When fiscal is non-nil the result is nudged by
// whole weeks until it falls inside the fiscal year immediately preceding
// the one containing t.
func SameWeekdayPriorYear(t time.Time, fiscal *FiscalSpec) time.Time {
	prior := DayStart(t).AddDate(0, 0, -364)
	if fiscal == nil {
		return prior
	}

	current := FiscalYearContaining(t, *fiscal)
	previous := FiscalYearBounds(current.Start.Year()-1, *fiscal)

	for prior.After(previous.End) {
		prior = prior.AddDate(0, 0, -7)
	}
	for prior.Before(previous.Start) {
		prior = prior.AddDate(0, 0, 7)
	}
	return prior
}

// WeeksElapsedInFiscalYear returns how many reporting weeks have elapsed
// from the fiscal year start through t, rounded up and never less than 1.
// Used as the divisor for fiscal year-to-date weekly averages.
func WeeksElapsedInFiscalYear(t time.Time, fiscalStart time.Time) int {
	days := DayStart(t).Sub(DayStart(fiscalStart)).Hours() / 24
	weeks := int(math.Ceil((days + 1) / 7))
	if weeks < 1 {
		return 1
	}
	return weeks
}

// SundayCountBetween returns the number of Sundays in [start, end],
// never less than 1 so it can be used directly as an averaging divisor.
func SundayCountBetween(start, end time.Time) int {
	s := DayStart(start)
	e := DayStart(end)
	if e.Before(s) {
		return 1
	}

	// First Sunday on or after start.
	first := s
	if wd := int(first.Weekday()); wd != 0 {
		first = first.AddDate(0, 0, 7-wd)
	}
	if first.After(e) {
		return 1
	}
	count := int(e.Sub(first).Hours()/24)/7 + 1
	if count < 1 {
		return 1
	}
	return count
}
