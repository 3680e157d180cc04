package render

import (
	"html/template"
	"io"
	"strconv"

	"flock-insights/internal/insights"
	"flock-insights/internal/report"
)

// weeklyHTML is the email body. Inline styles only, since mail clients strip
// stylesheets.
const weeklyHTML = `<!DOCTYPE html>
<html>
<body style="font-family: sans-serif; color: #222;">
<h2>Weekly Attendance &mdash; week of {{.AsOf.Format "Jan 2, 2006"}}</h2>
{{range .Programs}}
<h3>{{.Display}}</h3>
<table cellpadding="4" cellspacing="0" border="0" style="border-collapse: collapse;">
<tr style="border-bottom: 1px solid #999; text-align: left;">
<th></th><th>Week</th><th>Vs Prior</th><th>4-Wk Avg</th><th>FYTD</th><th>Enrolled</th><th>Ratio</th>
</tr>
{{range .Divisions}}
{{range .Orgs}}
<tr>
<td style="padding-left: 1.5em;">{{.Name}}</td>
<td>{{win .Windows}}</td>
<td>{{cmp .Comparisons}}</td>
<td>{{avg .RollingAvg}}</td>
<td>{{fytd .Windows}}</td>
<td>{{.Enrollment}}</td>
<td>{{ratio .Ratio}}</td>
</tr>
{{end}}
<tr style="font-weight: bold;">
<td>{{.Name}}</td>
<td>{{win .Windows}}</td>
<td>{{cmp .Comparisons}}</td>
<td>{{avg .RollingAvg}}</td>
<td>{{fytd .Windows}}</td>
<td>{{.Enrollment}}</td>
<td>{{ratio .Ratio}}</td>
</tr>
{{end}}
</table>
{{end}}
<p><strong>Overall:</strong> {{win .Overall.Windows}} this week,
{{.Enrollment}} enrolled, ratio {{ratio .OverallRatio}}.<br>
Unique attendees over 4 Sundays: {{.Unique.Total}}{{if .Unique.Estimated}} (partly estimated){{end}}.</p>
{{if .Warnings}}
<p style="color: #a40000;"><strong>{{len .Warnings}} cell(s) could not be computed and show zero:</strong></p>
<ul style="color: #a40000;">
{{range .Warnings}}<li>{{.Scope}} / {{.Window}}: {{.Reason}}</li>
{{end}}</ul>
{{end}}
</body>
</html>
`

var weeklyTmpl = template.Must(template.New("weekly").Funcs(weeklyFuncs()).Parse(weeklyHTML))

func weeklyFuncs() template.FuncMap {
	return template.FuncMap{
		"win": func(m map[string]insights.AttendanceResult) int {
			return m[report.WinWeek].Total
		},
		"avg": func(v float64) string {
			return strconv.FormatFloat(v, 'f', 1, 64)
		},
		"fytd": func(m map[string]insights.AttendanceResult) int {
			return m[report.WinFYTD].Total
		},
		"cmp": func(m map[string]report.ComparisonResult) string {
			return trend(m[report.CmpWeekVsPriorWeek])
		},
		"ratio": func(c report.RatioCell) string {
			return pct(c.Percent) + " " + string(c.Category)
		},
	}
}

// WeeklyEmail writes the weekly report as a self-contained HTML body.
func WeeklyEmail(w io.Writer, rep *report.WeeklyReport) error {
	return weeklyTmpl.Execute(w, rep)
}
