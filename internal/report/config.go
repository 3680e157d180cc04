// Package report composes the aggregation engine into the weekly attendance
// report: ratio classification, week/year/fiscal comparisons, and the
// assembled per-node output handed to the rendering layer.
package report

import (
	"time"

	"flock-insights/internal/calendar"
	"flock-insights/internal/churchdb"
)

// Thresholds are the ratio classification bands, as whole percentages.
type Thresholds struct {
	InReachMax int // at or below: NeedsInReach
	GoodMax    int // at or below: GoodRatio; above: NeedsOutreach
}

// Config carries every per-run report parameter. It is built once per
// invocation and passed by value through the components; nothing in this
// package keeps mutable package-level state.
type Config struct {
	AsOf           time.Time
	Fiscal         calendar.FiscalSpec
	Thresholds     Thresholds
	FlatBandPct    float64
	RollingWeeks   int
	EnrollmentMode churchdb.EnrollmentMode
	Tag            string
}

// DefaultConfig returns the standard report parameters for an as-of date:
// October fiscal year, 39/59 ratio bands, 5% flat band, 4-week rolling
// window.
func DefaultConfig(asOf time.Time) Config {
	return Config{
		AsOf:           asOf,
		Fiscal:         calendar.FiscalSpec{Month: time.October, Day: 1},
		Thresholds:     Thresholds{InReachMax: 39, GoodMax: 59},
		FlatBandPct:    5,
		RollingWeeks:   4,
		EnrollmentMode: churchdb.AllEnrollments,
	}
}

// Window names used across the weekly set. The names are part of the output
// contract with the rendering layer.
const (
	WinWeek             = "week"
	WinPriorWeek        = "prior_week"
	WinPriorYearWeek    = "prior_year_week"
	WinRolling          = "rolling"
	WinPriorYearRolling = "prior_year_rolling"
	WinFYTD             = "fytd"
	WinPriorFYTD        = "prior_fytd"
	WinLastSunday       = "last_sunday"
)

// Comparison pair names, also part of the output contract.
const (
	CmpWeekVsPriorWeek = "week_vs_prior_week"
	CmpWeekVsPriorYear = "week_vs_prior_year"
	CmpRollingVsPrior  = "rolling_vs_prior_year"
	CmpFYTDVsPrior     = "fytd_vs_prior_year"
)

// Windows derives every named report window from the as-of date. The
// trailing Sunday anchors the whole set; prior-year windows keep weekday
// alignment and land in the preceding fiscal year.
func (c Config) Windows() map[string]calendar.Window {
	sunday := calendar.SundayOfWeek(c.AsOf)
	priorSunday := calendar.SameWeekdayPriorYear(sunday, &c.Fiscal)

	return map[string]calendar.Window{
		WinWeek:             calendar.ReportWeek(sunday),
		WinPriorWeek:        calendar.ReportWeek(calendar.WeeksAgo(sunday, 1)),
		WinPriorYearWeek:    calendar.ReportWeek(priorSunday),
		WinRolling:          calendar.TrailingWindow(sunday, c.RollingWeeks),
		WinPriorYearRolling: calendar.TrailingWindow(priorSunday, c.RollingWeeks),
		WinFYTD:             calendar.FiscalYearToDate(sunday, c.Fiscal),
		WinPriorFYTD:        calendar.FiscalYearToDate(priorSunday, c.Fiscal),
		WinLastSunday:       calendar.NewWindow(sunday, sunday),
	}
}

// ComparisonPairs maps each comparison name to its (current, prior) window
// names.
func ComparisonPairs() map[string][2]string {
	return map[string][2]string{
		CmpWeekVsPriorWeek: {WinWeek, WinPriorWeek},
		CmpWeekVsPriorYear: {WinWeek, WinPriorYearWeek},
		CmpRollingVsPrior:  {WinRolling, WinPriorYearRolling},
		CmpFYTDVsPrior:     {WinFYTD, WinPriorFYTD},
	}
}
