// Package render turns engine outputs into text tables and an HTML email
// body. It formats structures it is handed and computes nothing itself.
package render

import (
	"fmt"
	"io"
	"sort"
	"strconv"

	"flock-insights/internal/audit"
	"flock-insights/internal/comms"
	"flock-insights/internal/hierarchy"
	"flock-insights/internal/insights"
	"flock-insights/internal/report"

	"github.com/olekukonko/tablewriter"
	"github.com/olekukonko/tablewriter/tw"
)

// newTable builds a borderless left-aligned table, the house style for
// terminal output.
func newTable(w io.Writer) *tablewriter.Table {
	return tablewriter.NewTable(w,
		tablewriter.WithConfig(tablewriter.Config{
			Header: tw.CellConfig{
				Alignment:  tw.CellAlignment{Global: tw.AlignLeft},
				Formatting: tw.CellFormatting{AutoFormat: tw.On},
			},
			Row: tw.CellConfig{
				Alignment: tw.CellAlignment{Global: tw.AlignLeft},
			},
		}),
		tablewriter.WithRendition(tw.Rendition{
			Borders: tw.Border{Left: tw.Off, Right: tw.Off, Top: tw.Off, Bottom: tw.Off},
			Settings: tw.Settings{
				Separators: tw.Separators{BetweenColumns: tw.Off},
			},
		}),
	)
}

func itoa(n int) string { return strconv.Itoa(n) }

func pct(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64) + "%"
}

// trend renders a comparison as "120 (+20.0%)" style, with the trend word
// where a percentage is meaningless.
func trend(c report.ComparisonResult) string {
	switch c.Trend {
	case report.TrendNew:
		return itoa(c.Current) + " (new)"
	case report.TrendFlat:
		if c.Prior == 0 {
			return itoa(c.Current) + " (flat)"
		}
	}
	return fmt.Sprintf("%d (%+.1f%%)", c.Current, c.ChangePct)
}

// Weekly writes the weekly attendance report as nested tables: one block per
// program, organizations grouped under their divisions, the overall block
// last. Degraded cells are listed in a trailing warnings section.
func Weekly(w io.Writer, rep *report.WeeklyReport) error {
	fmt.Fprintf(w, "Weekly Attendance: week of %s\n\n", rep.AsOf.Format("Jan 2, 2006"))

	for pi := range rep.Programs {
		p := &rep.Programs[pi]
		fmt.Fprintf(w, "%s\n", p.Display)

		t := newTable(w)
		t.Header([]string{"", "Week", "Vs Prior", "Vs Last Yr", "4-Wk Avg", "FYTD", "Enrolled", "Ratio"})
		for di := range p.Divisions {
			d := &p.Divisions[di]
			for _, org := range d.Orgs {
				t.Append(weeklyLine("  "+org.Name, org.Windows, org.Comparisons, org.RollingAvg, org.Enrollment, org.Ratio))
			}
			t.Append(weeklyLine(d.Name, d.Windows, d.Comparisons, d.RollingAvg, d.Enrollment, d.Ratio))
		}
		t.Append(weeklyLine(p.Name+" total", p.Windows, p.Comparisons, p.RollingAvg, p.Enrollment, p.Ratio))
		t.Render()

		if len(p.ByService) > 0 {
			fmt.Fprint(w, "  by service:")
			for _, svc := range sortedKeys(p.ByService) {
				fmt.Fprintf(w, "  %s %d", svc, p.ByService[svc])
			}
			fmt.Fprintln(w)
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Overall: %d this week, %d enrolled, ratio %s (%s), fiscal YTD avg %.1f/wk\n",
		rep.Overall.Windows[report.WinWeek].Total,
		rep.Enrollment, pct(rep.OverallRatio.Percent), rep.OverallRatio.Category,
		rep.Overall.FYTDAvg)
	fmt.Fprintf(w, "Unique attendees (4 Sundays): %d", rep.Unique.Total)
	if len(rep.Unique.Estimated) > 0 {
		fmt.Fprint(w, " (partly estimated)")
	}
	fmt.Fprintln(w)

	warnings(w, rep.Warnings)
	return nil
}

func weeklyLine(name string, windows map[string]insights.AttendanceResult, cmps map[string]report.ComparisonResult, rollingAvg float64, enrolled int, ratio report.RatioCell) []string {
	return []string{
		name,
		itoa(windows[report.WinWeek].Total),
		trend(cmps[report.CmpWeekVsPriorWeek]),
		trend(cmps[report.CmpWeekVsPriorYear]),
		strconv.FormatFloat(rollingAvg, 'f', 1, 64),
		itoa(windows[report.WinFYTD].Total),
		itoa(enrolled),
		pct(ratio.Percent) + " " + string(ratio.Category),
	}
}

// Comms writes the communication dashboard, one table per channel.
func Comms(w io.Writer, dash *comms.Dashboard) error {
	fmt.Fprintf(w, "Communications %s - %s\n\n",
		dash.Window.Start.Format("Jan 2"), dash.Window.End.Format("Jan 2, 2006"))

	t := newTable(w)
	t.Header([]string{"Sender", "Sent", "Delivered", "Failed", "Bounced", "Open", "Click"})
	for _, s := range dash.Email {
		t.Append([]string{s.Sender, itoa(s.Totals.Sent), itoa(s.Totals.Delivered),
			itoa(s.Totals.Failed), itoa(s.Totals.Bounced),
			pct(s.Totals.OpenRate), pct(s.Totals.ClickRate)})
	}
	t.Append([]string{"email total", itoa(dash.EmailTotal.Sent), itoa(dash.EmailTotal.Delivered),
		itoa(dash.EmailTotal.Failed), itoa(dash.EmailTotal.Bounced),
		pct(dash.EmailTotal.OpenRate), pct(dash.EmailTotal.ClickRate)})
	t.Render()
	fmt.Fprintln(w)

	t = newTable(w)
	t.Header([]string{"Sender", "Sent", "Delivered", "Failed"})
	for _, s := range dash.SMS {
		t.Append([]string{s.Sender, itoa(s.Totals.Sent), itoa(s.Totals.Delivered), itoa(s.Totals.Failed)})
	}
	t.Append([]string{"sms total", itoa(dash.SMSTotal.Sent), itoa(dash.SMSTotal.Delivered), itoa(dash.SMSTotal.Failed)})
	t.Render()

	warnings(w, dash.Warnings)
	return nil
}

// Audit writes the notification hygiene findings.
func Audit(w io.Writer, rep *audit.Report) error {
	fmt.Fprintf(w, "Notification audit: %d findings, %d suppressed by exceptions\n\n",
		len(rep.Findings), rep.Suppressed)

	t := newTable(w)
	t.Header([]string{"Person", "Name", "Channel", "Issue", "Last Notified"})
	for _, g := range rep.Findings {
		last := ""
		if !g.LastNotified.IsZero() {
			last = g.LastNotified.Format("2006-01-02")
		}
		t.Append([]string{itoa(g.PersonID), g.Name, g.Channel, g.Issue, last})
	}
	t.Render()
	return nil
}

func warnings(w io.Writer, list []report.Warning) {
	if len(list) == 0 {
		return
	}
	fmt.Fprintf(w, "\n%d cell(s) degraded to zero:\n", len(list))
	for _, warn := range list {
		fmt.Fprintf(w, "  ! %s / %s: %s\n", warn.Scope, warn.Window, warn.Reason)
	}
}

func sortedKeys(m map[string]int) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Ratio writes the classification report, walking the hierarchy so the
// id-keyed cells come out under their names and in report order.
func Ratio(w io.Writer, rep *report.RatioReport, tree *hierarchy.Tree) error {
	t := newTable(w)
	t.Header([]string{"", "Enrolled", "Attend", "Ratio", "Category", "Last Sun", "Category"})

	cell := func(name string, c report.RatioCell) []string {
		return []string{name, itoa(c.Enrollment), itoa(c.Attendance),
			pct(c.Percent), string(c.Category),
			pct(c.LastSundayPercent), string(c.LastSundayCategory)}
	}

	for pi := range tree.Programs {
		p := &tree.Programs[pi]
		for di := range p.Divisions {
			d := &p.Divisions[di]
			for _, org := range d.Organizations {
				t.Append(cell("    "+org.Name, rep.PerOrg[org.ID]))
			}
			t.Append(cell("  "+d.Name, rep.PerDivision[d.ID]))
		}
		t.Append(cell(p.Name, rep.PerProgram[p.ID]))
	}
	t.Append(cell("overall", rep.Overall))
	t.Render()

	warnings(w, rep.Warnings)
	return nil
}
