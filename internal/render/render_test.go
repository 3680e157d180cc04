package render

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"flock-insights/internal/audit"
	"flock-insights/internal/comms"
	"flock-insights/internal/insights"
	"flock-insights/internal/report"

	"flock-insights/internal/churchdb"
)

func sampleWeekly() *report.WeeklyReport {
	win := func(n int) map[string]insights.AttendanceResult {
		return map[string]insights.AttendanceResult{
			report.WinWeek:    {Total: n},
			report.WinRolling: {Total: n * 4},
			report.WinFYTD:    {Total: n * 10},
		}
	}
	cmps := map[string]report.ComparisonResult{
		report.CmpWeekVsPriorWeek: {Current: 30, Prior: 25, Trend: report.TrendUp, ChangePct: 20.0},
		report.CmpWeekVsPriorYear: {Current: 30, Prior: 0, Trend: report.TrendNew},
	}
	th := report.Thresholds{InReachMax: 39, GoodMax: 59}
	return &report.WeeklyReport{
		AsOf: time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC),
		Programs: []report.ProgramSection{{
			Name: "Adults", Display: "Adults",
			Windows: win(30), Comparisons: cmps, RollingAvg: 30, FYTDAvg: 12.5, Enrollment: 100,
			Ratio:     report.NewRatioCell(100, 30, 30, th),
			ByService: map[string]int{"9:20 AM": 20, "11:00 AM": 10},
			Divisions: []report.DivisionSection{{
				Name: "D", Windows: win(30), Comparisons: cmps, RollingAvg: 30, FYTDAvg: 12.5, Enrollment: 100,
				Ratio: report.NewRatioCell(100, 30, 30, th),
				Orgs: []report.OrgLine{
					{Name: "A", Windows: win(20), Comparisons: cmps, RollingAvg: 17.5, Enrollment: 40,
						Ratio: report.NewRatioCell(40, 20, 20, th)},
					{Name: "B", Windows: win(10), Comparisons: cmps, RollingAvg: 10, Enrollment: 60,
						Ratio: report.NewRatioCell(60, 10, 10, th)},
				},
			}},
		}},
		Overall:      report.WeeklySet{Windows: win(30), Comparisons: cmps, RollingAvg: 30, FYTDAvg: 12.5},
		OverallRatio: report.NewRatioCell(100, 30, 30, th),
		Enrollment:   100,
		Unique:       insights.UniqueResult{Total: 42},
	}
}

func TestWeeklyText(t *testing.T) {
	var buf bytes.Buffer
	if err := Weekly(&buf, sampleWeekly()); err != nil {
		t.Fatalf("Weekly: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"Weekly Attendance: week of Mar 3, 2024",
		"Adults",
		"30 (+20.0%)",
		"30 (new)",
		"17.5", // org A rolling weekly average, not the window total
		"30.0% needs_inreach",
		"9:20 AM 20",
		"fiscal YTD avg 12.5/wk",
		"Unique attendees (4 Sundays): 42",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
	if strings.Contains(out, "degraded") {
		t.Error("no warnings expected")
	}
}

func TestWeeklyTextWarnings(t *testing.T) {
	rep := sampleWeekly()
	rep.Warnings = []report.Warning{{Scope: "Adults", Window: "fytd", Reason: "timeout"}}
	var buf bytes.Buffer
	if err := Weekly(&buf, rep); err != nil {
		t.Fatalf("Weekly: %v", err)
	}
	if !strings.Contains(buf.String(), "! Adults / fytd: timeout") {
		t.Errorf("warning not rendered:\n%s", buf.String())
	}
}

func TestWeeklyEmail(t *testing.T) {
	rep := sampleWeekly()
	rep.Warnings = []report.Warning{{Scope: "Adults", Window: "fytd", Reason: "x < y"}}
	var buf bytes.Buffer
	if err := WeeklyEmail(&buf, rep); err != nil {
		t.Fatalf("WeeklyEmail: %v", err)
	}
	out := buf.String()
	for _, want := range []string{
		"week of Mar 3, 2024",
		"<td>30 (&#43;20.0%)</td>", // html/template escapes the plus sign
		"<td>17.5</td>",
		"30.0% needs_inreach",
		"x &lt; y", // html/template escapes warning text
	} {
		if !strings.Contains(out, want) {
			t.Errorf("email missing %q\n%s", want, out)
		}
	}
}

func TestCommsText(t *testing.T) {
	dash := &comms.Dashboard{
		Email: []comms.SenderSummary{{Sender: "office", Days: 2,
			Totals: comms.ChannelTotals{Sent: 150, Delivered: 140, OpenRate: 39.3}}},
		EmailTotal: comms.ChannelTotals{Sent: 150, Delivered: 140, OpenRate: 39.3},
		SMSTotal:   comms.ChannelTotals{Sent: 40, Delivered: 38, Failed: 2},
	}
	var buf bytes.Buffer
	if err := Comms(&buf, dash); err != nil {
		t.Fatalf("Comms: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "office") || !strings.Contains(out, "39.3%") {
		t.Errorf("dashboard output:\n%s", out)
	}
}

func TestAuditText(t *testing.T) {
	rep := &audit.Report{
		Findings:   []churchdb.GapRow{{PersonID: 3, Name: "Cay", Channel: "sms", Issue: "missing"}},
		Suppressed: 2,
	}
	var buf bytes.Buffer
	if err := Audit(&buf, rep); err != nil {
		t.Fatalf("Audit: %v", err)
	}
	out := buf.String()
	if !strings.Contains(out, "1 findings, 2 suppressed") || !strings.Contains(out, "Cay") {
		t.Errorf("audit output:\n%s", out)
	}
}
