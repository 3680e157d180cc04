package report

import (
	"testing"
	"time"

	"flock-insights/internal/calendar"
	"flock-insights/internal/insights"
)

func TestConfigWindows(t *testing.T) {
	cfg := DefaultConfig(time.Date(2024, time.March, 6, 0, 0, 0, 0, time.UTC)) // Wednesday
	windows := cfg.Windows()

	sunday := time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC)

	week := windows[WinWeek]
	if !calendar.DayStart(week.End).Equal(sunday) {
		t.Errorf("week ends %v, want trailing Sunday %v", week.End, sunday)
	}
	if week.Days() != 7 {
		t.Errorf("week spans %d days", week.Days())
	}

	if windows[WinRolling].Days() != 28 {
		t.Errorf("rolling window spans %d days, want 28", windows[WinRolling].Days())
	}
	if windows[WinLastSunday].Days() != 1 {
		t.Errorf("last-Sunday window spans %d days, want 1", windows[WinLastSunday].Days())
	}

	priorWeek := windows[WinPriorWeek]
	if !calendar.DayStart(priorWeek.End).Equal(sunday.AddDate(0, 0, -7)) {
		t.Errorf("prior week ends %v", priorWeek.End)
	}

	// The prior-year week must end on a Sunday inside the preceding
	// fiscal year.
	priorYear := windows[WinPriorYearWeek]
	if calendar.DayStart(priorYear.End).Weekday() != time.Sunday {
		t.Errorf("prior-year week ends on %v", priorYear.End.Weekday())
	}
	prevFY := calendar.FiscalYearBounds(2022, cfg.Fiscal)
	if !prevFY.Contains(calendar.DayStart(priorYear.End)) {
		t.Errorf("prior-year Sunday %v outside preceding fiscal year", priorYear.End)
	}

	// FYTD runs from the fiscal start through the trailing Sunday.
	fytd := windows[WinFYTD]
	if !fytd.Start.Equal(time.Date(2023, time.October, 1, 0, 0, 0, 0, time.UTC)) {
		t.Errorf("fytd starts %v", fytd.Start)
	}
	if !calendar.DayStart(fytd.End).Equal(sunday) {
		t.Errorf("fytd ends %v", fytd.End)
	}
}

func TestBuildSetComparisons(t *testing.T) {
	cfg := DefaultConfig(time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC))
	totals := map[string]insights.AttendanceResult{
		WinWeek:             {Total: 120, Meetings: 4},
		WinPriorWeek:        {Total: 100, Meetings: 4},
		WinPriorYearWeek:    {Total: 0},
		WinRolling:          {Total: 400},
		WinPriorYearRolling: {Total: 410},
	}

	set := BuildSet(totals, cfg)

	if got := set.Comparisons[CmpWeekVsPriorWeek]; got.Trend != TrendUp || got.ChangePct != 20.0 {
		t.Errorf("week vs prior week = %+v", got)
	}
	if got := set.Comparisons[CmpWeekVsPriorYear]; got.Trend != TrendNew {
		t.Errorf("week vs prior year = %+v, want New", got)
	}
	if got := set.Comparisons[CmpRollingVsPrior]; got.Trend != TrendFlat {
		t.Errorf("rolling comparison = %+v, want Flat (2.4%% inside band)", got)
	}
	// Missing windows read as zero and still produce a comparison.
	if got := set.Comparisons[CmpFYTDVsPrior]; got.Trend != TrendFlat || got.Current != 0 {
		t.Errorf("fytd comparison = %+v", got)
	}
	if len(set.Windows) != len(cfg.Windows()) {
		t.Errorf("set carries %d windows, want %d", len(set.Windows), len(cfg.Windows()))
	}
}

func TestBuildSetWeeklyAverages(t *testing.T) {
	cfg := DefaultConfig(time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC))
	totals := map[string]insights.AttendanceResult{
		WinRolling: {Total: 400},
		WinFYTD:    {Total: 230},
	}

	set := BuildSet(totals, cfg)

	// Four Sundays in the 28-day rolling window.
	if set.RollingAvg != 100 {
		t.Errorf("rolling avg = %v, want 100", set.RollingAvg)
	}
	// 23 reporting weeks from Oct 1, 2023 through Mar 3, 2024.
	if set.FYTDAvg != 10 {
		t.Errorf("fytd avg = %v, want 10", set.FYTDAvg)
	}
}

func TestBuildSetAveragesEarlyFiscalYear(t *testing.T) {
	// The Sunday right after the fiscal year starts divides by one week,
	// not zero.
	cfg := DefaultConfig(time.Date(2025, time.October, 5, 0, 0, 0, 0, time.UTC))
	totals := map[string]insights.AttendanceResult{
		WinFYTD: {Total: 50},
	}

	set := BuildSet(totals, cfg)
	if set.FYTDAvg != 50 {
		t.Errorf("fytd avg = %v, want 50", set.FYTDAvg)
	}
}
