package calendar

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestSundayOfWeek(t *testing.T) {
	tests := []struct {
		name     string
		input    time.Time
		expected time.Time
	}{
		{"SundayMapsToItself", date(2024, time.March, 3), date(2024, time.March, 3)},
		{"MondayRollsBack", date(2024, time.March, 4), date(2024, time.March, 3)},
		{"SaturdayRollsBack", date(2024, time.March, 9), date(2024, time.March, 3)},
		{"MidWeekWithTime", time.Date(2024, time.March, 6, 14, 30, 0, 0, time.UTC), date(2024, time.March, 3)},
		{"AcrossMonthBoundary", date(2024, time.April, 2), date(2024, time.March, 31)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SundayOfWeek(tt.input)
			if !got.Equal(tt.expected) {
				t.Errorf("SundayOfWeek(%v) = %v, want %v", tt.input, got, tt.expected)
			}
			if got.Weekday() != time.Sunday {
				t.Errorf("SundayOfWeek(%v) = %v, not a Sunday", tt.input, got)
			}
		})
	}
}

func TestSundayOfWeekIdempotent(t *testing.T) {
	// Sweep a full year of dates.
	d := date(2024, time.January, 1)
	for i := 0; i < 366; i++ {
		once := SundayOfWeek(d)
		twice := SundayOfWeek(once)
		if !once.Equal(twice) {
			t.Fatalf("SundayOfWeek not idempotent at %v: %v vs %v", d, once, twice)
		}
		d = d.AddDate(0, 0, 1)
	}
}

func TestWeekStartIsAlwaysMonday(t *testing.T) {
	d := date(2023, time.June, 1)
	for i := 0; i < 400; i++ {
		ws := WeekStart(SundayOfWeek(d))
		if ws.Weekday() != time.Monday {
			t.Fatalf("WeekStart(SundayOfWeek(%v)) = %v, weekday %v", d, ws, ws.Weekday())
		}
		d = d.AddDate(0, 0, 1)
	}
}

func TestReportWeek(t *testing.T) {
	w := ReportWeek(date(2024, time.March, 6)) // Wednesday
	if !w.Start.Equal(date(2024, time.February, 26)) {
		t.Errorf("ReportWeek start = %v, want 2024-02-26", w.Start)
	}
	if !DayStart(w.End).Equal(date(2024, time.March, 3)) {
		t.Errorf("ReportWeek end = %v, want 2024-03-03", w.End)
	}
	if w.Days() != 7 {
		t.Errorf("ReportWeek spans %d days, want 7", w.Days())
	}
}

func TestFiscalYearBoundsAreContiguous(t *testing.T) {
	spec := FiscalSpec{Month: time.October, Day: 1}
	for year := 2018; year <= 2028; year++ {
		this := FiscalYearBounds(year, spec)
		next := FiscalYearBounds(year+1, spec)
		if !DayStart(this.End).AddDate(0, 0, 1).Equal(next.Start) {
			t.Errorf("fiscal year %d end %v not contiguous with %d start %v",
				year, this.End, year+1, next.Start)
		}
	}
}

func TestFiscalYearContaining(t *testing.T) {
	spec := FiscalSpec{Month: time.October, Day: 1}
	tests := []struct {
		name      string
		input     time.Time
		wantStart time.Time
	}{
		{"AfterFiscalStart", date(2024, time.November, 15), date(2024, time.October, 1)},
		{"BeforeFiscalStart", date(2024, time.March, 15), date(2023, time.October, 1)},
		{"OnFiscalStart", date(2024, time.October, 1), date(2024, time.October, 1)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := FiscalYearContaining(tt.input, spec)
			if !got.Start.Equal(tt.wantStart) {
				t.Errorf("FiscalYearContaining(%v).Start = %v, want %v", tt.input, got.Start, tt.wantStart)
			}
		})
	}
}

func TestSameWeekdayPriorYear(t *testing.T) {
	in := date(2024, time.March, 3) // Sunday
	got := SameWeekdayPriorYear(in, nil)
	if got.Weekday() != in.Weekday() {
		t.Errorf("weekday changed: %v -> %v", in.Weekday(), got.Weekday())
	}
	if !got.Equal(date(2023, time.March, 5)) {
		t.Errorf("SameWeekdayPriorYear = %v, want 2023-03-05", got)
	}
}

func TestSameWeekdayPriorYearFiscalNudge(t *testing.T) {
	spec := FiscalSpec{Month: time.October, Day: 1}

	// 2024-10-06 is a Sunday in FY2025 (2024-10-01 .. 2025-09-30).
	// 364 days earlier is 2023-10-08, already inside FY2024. No nudge needed.
	in := date(2024, time.October, 6)
	got := SameWeekdayPriorYear(in, &spec)
	prevFY := FiscalYearBounds(2023, spec)
	if !prevFY.Contains(got) {
		t.Errorf("result %v outside preceding fiscal year %v..%v", got, prevFY.Start, prevFY.End)
	}
	if got.Weekday() != in.Weekday() {
		t.Errorf("weekday changed: %v -> %v", in.Weekday(), got.Weekday())
	}

	// 2024-09-29 is a Sunday at the tail of FY2024. 364 days earlier is
	// 2023-10-01, which is already in FY2024 itself, so a nudge back by
	// whole weeks into FY2023 is required.
	in = date(2024, time.September, 29)
	got = SameWeekdayPriorYear(in, &spec)
	prevFY = FiscalYearBounds(2022, spec)
	if !prevFY.Contains(got) {
		t.Errorf("result %v outside preceding fiscal year %v..%v", got, prevFY.Start, prevFY.End)
	}
	if got.Weekday() != time.Sunday {
		t.Errorf("fiscal nudge broke weekday alignment: %v", got.Weekday())
	}
}

func TestWeeksElapsedInFiscalYear(t *testing.T) {
	start := date(2024, time.October, 1)
	tests := []struct {
		name     string
		at       time.Time
		expected int
	}{
		{"FirstDay", date(2024, time.October, 1), 1},
		{"SixthDay", date(2024, time.October, 6), 1},
		{"EighthDay", date(2024, time.October, 8), 2},
		{"BeforeStartClampsToOne", date(2024, time.September, 1), 1},
		{"HalfYear", date(2025, time.April, 1), 27},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := WeeksElapsedInFiscalYear(tt.at, start); got != tt.expected {
				t.Errorf("WeeksElapsedInFiscalYear(%v) = %d, want %d", tt.at, got, tt.expected)
			}
		})
	}
}

func TestSundayCountBetween(t *testing.T) {
	tests := []struct {
		name       string
		start, end time.Time
		expected   int
	}{
		{"SingleSunday", date(2024, time.March, 3), date(2024, time.March, 3), 1},
		{"FullWeek", date(2024, time.February, 26), date(2024, time.March, 3), 1},
		{"FourWeeks", date(2024, time.February, 5), date(2024, time.March, 3), 4},
		{"NoSundayClampsToOne", date(2024, time.March, 4), date(2024, time.March, 6), 1},
		{"InvertedClampsToOne", date(2024, time.March, 10), date(2024, time.March, 3), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SundayCountBetween(tt.start, tt.end); got != tt.expected {
				t.Errorf("SundayCountBetween(%v, %v) = %d, want %d", tt.start, tt.end, got, tt.expected)
			}
		})
	}
}

func TestWindowClip(t *testing.T) {
	base := NewWindow(date(2024, time.March, 1), date(2024, time.March, 10))
	tests := []struct {
		name      string
		bounds    Window
		wantStart time.Time
		wantEnd   time.Time
		empty     bool
	}{
		{"InsideBounds", NewWindow(date(2024, time.February, 1), date(2024, time.April, 1)), base.Start, base.End, false},
		{"TruncatedTail", NewWindow(date(2024, time.February, 1), date(2024, time.March, 5)), base.Start, DayEnd(date(2024, time.March, 5)), false},
		{"TruncatedHead", NewWindow(date(2024, time.March, 5), date(2024, time.April, 1)), DayStart(date(2024, time.March, 5)), base.End, false},
		{"Disjoint", NewWindow(date(2024, time.April, 1), date(2024, time.April, 10)), time.Time{}, time.Time{}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := base.Clip(tt.bounds)
			if tt.empty {
				if !got.IsZero() {
					t.Errorf("Clip = %+v, want empty", got)
				}
				return
			}
			if !got.Start.Equal(tt.wantStart) || !got.End.Equal(tt.wantEnd) {
				t.Errorf("Clip = %v..%v, want %v..%v", got.Start, got.End, tt.wantStart, tt.wantEnd)
			}
		})
	}
}

func TestTrailingWindow(t *testing.T) {
	w := TrailingWindow(date(2024, time.March, 3), 4)
	if w.Days() != 28 {
		t.Errorf("TrailingWindow spans %d days, want 28", w.Days())
	}
	if !DayStart(w.End).Equal(date(2024, time.March, 3)) {
		t.Errorf("TrailingWindow end = %v, want 2024-03-03", w.End)
	}
	if SundayCountBetween(w.Start, w.End) != 4 {
		t.Errorf("TrailingWindow should contain 4 Sundays, got %d", SundayCountBetween(w.Start, w.End))
	}
}
