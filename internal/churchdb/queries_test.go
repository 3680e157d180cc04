package churchdb

import (
	"strings"
	"testing"
	"time"

	"flock-insights/internal/calendar"
)

func TestAttendanceQueryShape(t *testing.T) {
	w := calendar.NewWindow(
		time.Date(2024, time.March, 1, 0, 0, 0, 0, time.UTC),
		time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC),
	)
	sql, args := attendanceQuery("churchdata", ScopeFilter{OrgIDs: []int{10, 20, 30}}, w)

	if !strings.Contains(sql, "did_not_meet = FALSE") {
		t.Error("attendance query must exclude did-not-meet meetings")
	}
	if !strings.Contains(sql, "IN ($1,$2,$3)") {
		t.Errorf("org filter not parameterized: %s", sql)
	}
	if len(args) != 5 {
		t.Errorf("got %d args, want 5 (3 orgs + 2 bounds)", len(args))
	}
	if strings.Contains(sql, "2024") {
		t.Error("window bounds leaked into query text")
	}
}

func TestEnrollmentQueryShape(t *testing.T) {
	asOf := time.Date(2024, time.March, 3, 0, 0, 0, 0, time.UTC)
	sql, args := enrollmentQuery("churchdata", ScopeFilter{OrgIDs: []int{10}}, asOf)

	for _, clause := range []string{
		"enrolled_at IS NULL OR e.enrolled_at <=",
		"inactivated_at IS NULL OR e.inactivated_at >",
		"member_type NOT IN",
		"deceased_at IS NULL OR pe.deceased_at >",
		"dropped_at IS NULL OR pe.dropped_at >",
	} {
		if !strings.Contains(sql, clause) {
			t.Errorf("enrollment query missing clause %q", clause)
		}
	}
	// as-of bound once and reused across the date clauses + org +
	// excluded member types.
	want := 1 + 1 + len(excludedMemberTypes)
	if len(args) != want {
		t.Errorf("got %d args, want %d", len(args), want)
	}
	if !strings.Contains(sql, "enrolled_at <= $1") || !strings.Contains(sql, "dropped_at > $1") {
		t.Errorf("as-of placeholder not reused across clauses: %s", sql)
	}
}

func TestHierarchyQueryShape(t *testing.T) {
	sql, args := hierarchyQuery("churchdata")
	if !strings.Contains(sql, "report_group, '') <> ''") || !strings.Contains(sql, "report_line, '') <> ''") {
		t.Error("hierarchy query must exclude blank report tokens")
	}
	if len(args) != 1 || args[0] != "active" {
		t.Errorf("args = %v, want [active]", args)
	}
}

func TestQueryBuilderBindList(t *testing.T) {
	qb := newQueryBuilder("s")
	qb.bind("first")
	got := qb.bindList([]int{7, 8})
	if got != "$2,$3" {
		t.Errorf("bindList = %q, want $2,$3", got)
	}
	if len(qb.args) != 3 {
		t.Errorf("args = %v", qb.args)
	}
}
