package report

import (
	"flock-insights/internal/calendar"
	"flock-insights/internal/insights"
)

// WeeklySet is one hierarchy node's attendance totals per named window, the
// derived comparisons, and the weekly averages over the rolling and
// fiscal-year-to-date windows. Both maps always hold every name; degraded
// cells are zero-valued and reported through the Warnings collector.
type WeeklySet struct {
	Windows     map[string]insights.AttendanceResult `json:"attendanceByWindow"`
	Comparisons map[string]ComparisonResult          `json:"comparisons"`
	RollingAvg  float64                              `json:"rollingWeeklyAvg"`
	FYTDAvg     float64                              `json:"fytdWeeklyAvg"`
}

// BuildSet derives a WeeklySet from already-aggregated window totals.
// Missing windows read as zero. Averages divide by the Sundays contained in
// the rolling window and the weeks elapsed in the fiscal year, so a partial
// first week of the year does not inflate the figure.
func BuildSet(totals map[string]insights.AttendanceResult, cfg Config) WeeklySet {
	windows := cfg.Windows()
	set := WeeklySet{
		Windows:     make(map[string]insights.AttendanceResult, len(windows)),
		Comparisons: make(map[string]ComparisonResult),
	}
	for name := range windows {
		set.Windows[name] = totals[name]
	}
	for name, pair := range ComparisonPairs() {
		set.Comparisons[name] = Compare(set.Windows[pair[0]].Total, set.Windows[pair[1]].Total, cfg.FlatBandPct)
	}

	rolling := windows[WinRolling]
	set.RollingAvg = float64(set.Windows[WinRolling].Total) /
		float64(calendar.SundayCountBetween(rolling.Start, rolling.End))

	sunday := calendar.SundayOfWeek(cfg.AsOf)
	fiscalStart := calendar.FiscalYearContaining(sunday, cfg.Fiscal).Start
	set.FYTDAvg = float64(set.Windows[WinFYTD].Total) /
		float64(calendar.WeeksElapsedInFiscalYear(sunday, fiscalStart))

	return set
}
