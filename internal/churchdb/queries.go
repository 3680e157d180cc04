package churchdb

import (
	"fmt"
	"strings"
	"time"

	"flock-insights/internal/calendar"
)

// Member-type classifications excluded from enrollment counts. Prospects and
// non-members appear on rosters but are not enrolled members.
var excludedMemberTypes = []string{"Prospect", "NonMember"}

// queryBuilder assembles parameterized SQL incrementally. Components never
// concatenate values into query text; everything user- or data-derived goes
// through args.
type queryBuilder struct {
	schema string
	args   []any
}

func newQueryBuilder(schema string) *queryBuilder {
	return &queryBuilder{schema: schema}
}

// bind appends a value and returns its placeholder.
func (qb *queryBuilder) bind(v any) string {
	qb.args = append(qb.args, v)
	return fmt.Sprintf("$%d", len(qb.args))
}

// bindList appends each value and returns a comma-joined placeholder list,
// for use inside IN (...).
func (qb *queryBuilder) bindList(values []int) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, qb.bind(v))
	}
	return strings.Join(parts, ",")
}

func (qb *queryBuilder) bindStrings(values []string) string {
	parts := make([]string, 0, len(values))
	for _, v := range values {
		parts = append(parts, qb.bind(v))
	}
	return strings.Join(parts, ",")
}

func (qb *queryBuilder) table(name string) string {
	return qb.schema + "." + name
}

// hierarchyQuery returns the reporting-eligible tree: programs with a
// non-blank report group, divisions with a non-blank report line, active
// organizations, joined through the division/organization relation.
func hierarchyQuery(schema string) (string, []any) {
	qb := newQueryBuilder(schema)
	sql := fmt.Sprintf(`
		SELECT p.id, p.name, p.report_group, p.start_hour_offset, p.end_hour_offset,
		       d.id, d.name, d.report_line,
		       o.id, o.name, COALESCE(o.member_count, 0)
		FROM %s p
		JOIN %s d ON d.program_id = p.id
		JOIN %s dor ON dor.division_id = d.id
		JOIN %s o ON o.id = dor.organization_id
		WHERE COALESCE(p.report_group, '') <> ''
		  AND COALESCE(d.report_line, '') <> ''
		  AND o.status = %s
		ORDER BY p.report_group, d.report_line, o.name`,
		qb.table("programs"), qb.table("divisions"), qb.table("division_orgs"),
		qb.table("organizations"), qb.bind("active"))
	return sql, qb.args
}

// attendanceQuery sums meeting attendance per organization and hour of day
// inside a window. The did-not-meet exclusion lives here so no caller can
// forget it.
func attendanceQuery(schema string, scope ScopeFilter, w calendar.Window) (string, []any) {
	qb := newQueryBuilder(schema)
	sql := fmt.Sprintf(`
		SELECT m.organization_id,
		       EXTRACT(HOUR FROM m.meeting_at)::int AS hour,
		       COALESCE(SUM(m.attendance_count), 0)::int,
		       COUNT(*)::int
		FROM %s m
		WHERE m.organization_id IN (%s)
		  AND m.did_not_meet = FALSE
		  AND m.meeting_at >= %s
		  AND m.meeting_at <= %s
		GROUP BY m.organization_id, hour`,
		qb.table("meetings"), qb.bindList(scope.OrgIDs),
		qb.bind(w.Start), qb.bind(w.End))
	return sql, qb.args
}

// enrollmentQuery counts active-as-of enrollments per organization. The
// exclusion rules mirror the engine's definition of an enrolled member:
// enrolled on or before the date, not yet inactivated, an ordinary member
// type, person alive and not dropped as of the date.
func enrollmentQuery(schema string, scope ScopeFilter, asOf time.Time) (string, []any) {
	qb := newQueryBuilder(schema)
	asOfArg := qb.bind(asOf)
	sql := fmt.Sprintf(`
		SELECT e.organization_id, COUNT(*)::int
		FROM %s e
		JOIN %s pe ON pe.id = e.person_id
		WHERE e.organization_id IN (%s)
		  AND (e.enrolled_at IS NULL OR e.enrolled_at <= %s)
		  AND (e.inactivated_at IS NULL OR e.inactivated_at > %s)
		  AND e.member_type NOT IN (%s)
		  AND (pe.deceased_at IS NULL OR pe.deceased_at > %s)
		  AND (pe.dropped_at IS NULL OR pe.dropped_at > %s)
		GROUP BY e.organization_id`,
		qb.table("enrollments"), qb.table("people"),
		qb.bindList(scope.OrgIDs),
		asOfArg, asOfArg,
		qb.bindStrings(excludedMemberTypes),
		asOfArg, asOfArg)
	return sql, qb.args
}

// distinctAttendeeQuery counts distinct attending people inside one program
// window, split by whether the person holds a qualifying enrollment in the
// organization attended.
func distinctAttendeeQuery(schema string, pair ProgramWindow) (string, []any) {
	qb := newQueryBuilder(schema)
	startArg := qb.bind(pair.Window.Start)
	endArg := qb.bind(pair.Window.End)
	sql := fmt.Sprintf(`
		SELECT COUNT(DISTINCT a.person_id) FILTER (WHERE e.person_id IS NOT NULL)::int,
		       COUNT(DISTINCT a.person_id) FILTER (WHERE e.person_id IS NULL)::int
		FROM %s a
		JOIN %s m ON m.id = a.meeting_id
		LEFT JOIN %s e
		       ON e.organization_id = m.organization_id
		      AND e.person_id = a.person_id
		      AND e.member_type NOT IN (%s)
		WHERE a.present = TRUE
		  AND m.did_not_meet = FALSE
		  AND m.organization_id IN (%s)
		  AND m.meeting_at >= %s
		  AND m.meeting_at <= %s`,
		qb.table("attendance_marks"), qb.table("meetings"), qb.table("enrollments"),
		qb.bindStrings(excludedMemberTypes),
		qb.bindList(pair.OrgIDs),
		startArg, endArg)
	return sql, qb.args
}

// orgsWithMeetingsQuery lists organizations that held at least one
// qualifying meeting in the window.
func orgsWithMeetingsQuery(schema string, orgIDs []int, w calendar.Window) (string, []any) {
	qb := newQueryBuilder(schema)
	sql := fmt.Sprintf(`
		SELECT DISTINCT m.organization_id
		FROM %s m
		WHERE m.organization_id IN (%s)
		  AND m.did_not_meet = FALSE
		  AND m.meeting_at >= %s
		  AND m.meeting_at <= %s`,
		qb.table("meetings"), qb.bindList(orgIDs),
		qb.bind(w.Start), qb.bind(w.End))
	return sql, qb.args
}

// emailSummaryQuery aggregates outbound email by sender and day.
func emailSummaryQuery(schema string, w calendar.Window) (string, []any) {
	qb := newQueryBuilder(schema)
	sql := fmt.Sprintf(`
		SELECT q.sender, DATE_TRUNC('day', q.sent_at) AS day,
		       COUNT(*)::int,
		       COUNT(*) FILTER (WHERE q.status = 'delivered')::int,
		       COUNT(*) FILTER (WHERE q.status = 'failed')::int,
		       COUNT(*) FILTER (WHERE q.bounced)::int,
		       COUNT(*) FILTER (WHERE q.opened_at IS NOT NULL)::int,
		       COUNT(*) FILTER (WHERE q.clicked_at IS NOT NULL)::int
		FROM %s q
		WHERE q.sent_at >= %s AND q.sent_at <= %s
		GROUP BY q.sender, day
		ORDER BY day, q.sender`,
		qb.table("email_outbound"), qb.bind(w.Start), qb.bind(w.End))
	return sql, qb.args
}

// smsSummaryQuery aggregates outbound SMS by sender and day.
func smsSummaryQuery(schema string, w calendar.Window) (string, []any) {
	qb := newQueryBuilder(schema)
	sql := fmt.Sprintf(`
		SELECT s.sender, DATE_TRUNC('day', s.sent_at) AS day,
		       COUNT(*)::int,
		       COUNT(*) FILTER (WHERE s.status = 'delivered')::int,
		       COUNT(*) FILTER (WHERE s.status = 'failed')::int
		FROM %s s
		WHERE s.sent_at >= %s AND s.sent_at <= %s
		GROUP BY s.sender, day
		ORDER BY day, s.sender`,
		qb.table("sms_outbound"), qb.bind(w.Start), qb.bind(w.End))
	return sql, qb.args
}

// notificationGapsQuery finds people who receive notifications over a
// channel that cannot reach them: missing address, flagged invalid, or
// opted out.
func notificationGapsQuery(schema string) (string, []any) {
	qb := newQueryBuilder(schema)
	sql := fmt.Sprintf(`
		SELECT pe.id, pe.name, n.channel,
		       CASE
		         WHEN n.channel = 'email' AND COALESCE(pe.email, '') = '' THEN 'missing'
		         WHEN n.channel = 'email' AND pe.email_invalid THEN 'invalid'
		         WHEN n.channel = 'email' AND pe.email_opt_out THEN 'unsubscribed'
		         WHEN n.channel = 'sms' AND COALESCE(pe.cell_phone, '') = '' THEN 'missing'
		         WHEN n.channel = 'sms' AND pe.sms_opt_out THEN 'unsubscribed'
		       END AS issue,
		       MAX(n.sent_at)
		FROM %s n
		JOIN %s pe ON pe.id = n.person_id
		WHERE (n.channel = 'email' AND (COALESCE(pe.email, '') = '' OR pe.email_invalid OR pe.email_opt_out))
		   OR (n.channel = 'sms' AND (COALESCE(pe.cell_phone, '') = '' OR pe.sms_opt_out))
		GROUP BY pe.id, pe.name, n.channel, issue
		ORDER BY pe.name`,
		qb.table("notifications"), qb.table("people"))
	return sql, qb.args
}
