package churchdb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"flock-insights/internal/calendar"

	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/rs/zerolog/log"
)

// ErrNoDocument is returned by LoadDocument when the key has never been
// written.
var ErrNoDocument = errors.New("churchdb: document not found")

// PGStore implements Store against Postgres via the pgx stdlib driver.
type PGStore struct {
	db  *sql.DB
	cfg Config
}

// Open connects to the database and verifies the connection.
func Open(cfg Config) (*PGStore, error) {
	if cfg.Schema == "" {
		cfg.Schema = "churchdata"
	}
	if cfg.QueryTimeout <= 0 {
		cfg.QueryTimeout = 30 * time.Second
	}

	db, err := sql.Open("pgx", cfg.URL)
	if err != nil {
		return nil, accessErr("open", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), cfg.QueryTimeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, accessErr("ping", err)
	}

	log.Debug().Str("schema", cfg.Schema).Msg("Connected to congregation database")
	return &PGStore{db: db, cfg: cfg}, nil
}

// Close releases the connection pool.
func (s *PGStore) Close() error {
	return s.db.Close()
}

func (s *PGStore) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, s.cfg.QueryTimeout)
}

// ListReportableHierarchy implements Store.
func (s *PGStore) ListReportableHierarchy(ctx context.Context) ([]HierarchyRow, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query, args := hierarchyQuery(s.cfg.Schema)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, accessErr("list hierarchy", err)
	}
	defer rows.Close()

	var out []HierarchyRow
	for rows.Next() {
		var r HierarchyRow
		if err := rows.Scan(
			&r.ProgramID, &r.ProgramName, &r.ReportGroup, &r.StartHourOffset, &r.EndHourOffset,
			&r.DivisionID, &r.DivisionName, &r.ReportLine,
			&r.OrgID, &r.OrgName, &r.MemberCount,
		); err != nil {
			return nil, accessErr("scan hierarchy", err)
		}
		out = append(out, r)
	}
	return out, accessErr("list hierarchy", rows.Err())
}

// SumAttendance implements Store.
func (s *PGStore) SumAttendance(ctx context.Context, scope ScopeFilter, w calendar.Window) ([]AttendanceRow, error) {
	if len(scope.OrgIDs) == 0 || w.IsZero() {
		return nil, nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query, args := attendanceQuery(s.cfg.Schema, scope, w)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, accessErr("sum attendance", err)
	}
	defer rows.Close()

	var out []AttendanceRow
	for rows.Next() {
		var r AttendanceRow
		if err := rows.Scan(&r.OrgID, &r.Hour, &r.TotalCount, &r.MeetingCount); err != nil {
			return nil, accessErr("scan attendance", err)
		}
		out = append(out, r)
	}
	return out, accessErr("sum attendance", rows.Err())
}

// SumAttendanceBatch implements Store. All named windows are answered with a
// single round-trip by tagging each window's sub-select and unioning them.
func (s *PGStore) SumAttendanceBatch(ctx context.Context, scope ScopeFilter, windows map[string]calendar.Window) (map[string][]AttendanceRow, error) {
	out := make(map[string][]AttendanceRow, len(windows))
	if len(scope.OrgIDs) == 0 || len(windows) == 0 {
		return out, nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	qb := newQueryBuilder(s.cfg.Schema)
	var parts []string
	for name, w := range windows {
		out[name] = nil
		if w.IsZero() {
			continue
		}
		parts = append(parts, fmt.Sprintf(`
			SELECT %s AS win, m.organization_id,
			       EXTRACT(HOUR FROM m.meeting_at)::int AS hour,
			       COALESCE(SUM(m.attendance_count), 0)::int,
			       COUNT(*)::int
			FROM %s m
			WHERE m.organization_id IN (%s)
			  AND m.did_not_meet = FALSE
			  AND m.meeting_at >= %s
			  AND m.meeting_at <= %s
			GROUP BY win, m.organization_id, hour`,
			qb.bind(name), qb.table("meetings"), qb.bindList(scope.OrgIDs),
			qb.bind(w.Start), qb.bind(w.End)))
	}
	if len(parts) == 0 {
		return out, nil
	}

	rows, err := s.db.QueryContext(ctx, strings.Join(parts, "\nUNION ALL\n"), qb.args...)
	if err != nil {
		return nil, accessErr("sum attendance batch", err)
	}
	defer rows.Close()

	for rows.Next() {
		var name string
		var r AttendanceRow
		if err := rows.Scan(&name, &r.OrgID, &r.Hour, &r.TotalCount, &r.MeetingCount); err != nil {
			return nil, accessErr("scan attendance batch", err)
		}
		out[name] = append(out[name], r)
	}
	return out, accessErr("sum attendance batch", rows.Err())
}

// CountEnrollment implements Store.
func (s *PGStore) CountEnrollment(ctx context.Context, scope ScopeFilter, asOf time.Time) ([]EnrollmentRow, error) {
	if len(scope.OrgIDs) == 0 {
		return nil, nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query, args := enrollmentQuery(s.cfg.Schema, scope, asOf)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, accessErr("count enrollment", err)
	}
	defer rows.Close()

	var out []EnrollmentRow
	for rows.Next() {
		var r EnrollmentRow
		if err := rows.Scan(&r.OrgID, &r.Count); err != nil {
			return nil, accessErr("scan enrollment", err)
		}
		out = append(out, r)
	}
	return out, accessErr("count enrollment", rows.Err())
}

// CountDistinctAttendees implements Store. Each program window is a separate
// aggregate (the windows can overlap in arbitrary ways), but all are resolved
// before returning.
func (s *PGStore) CountDistinctAttendees(ctx context.Context, pairs []ProgramWindow) ([]AttendeeRow, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var out []AttendeeRow
	for _, pair := range pairs {
		if len(pair.OrgIDs) == 0 || pair.Window.IsZero() {
			continue
		}
		query, args := distinctAttendeeQuery(s.cfg.Schema, pair)
		var enrolled, guests int
		if err := s.db.QueryRowContext(ctx, query, args...).Scan(&enrolled, &guests); err != nil {
			return nil, accessErr("count distinct attendees", err)
		}
		if enrolled == 0 && guests == 0 {
			// No individual-level records; the caller falls back to the
			// enrollment-based estimate.
			continue
		}
		out = append(out, AttendeeRow{Key: pair.Key, Program: pair.Program, EnrolledUnique: enrolled, GuestUnique: guests})
	}
	return out, nil
}

// OrgsWithMeetings implements Store.
func (s *PGStore) OrgsWithMeetings(ctx context.Context, orgIDs []int, w calendar.Window) (map[int]bool, error) {
	out := make(map[int]bool)
	if len(orgIDs) == 0 || w.IsZero() {
		return out, nil
	}
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query, args := orgsWithMeetingsQuery(s.cfg.Schema, orgIDs, w)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, accessErr("orgs with meetings", err)
	}
	defer rows.Close()

	for rows.Next() {
		var id int
		if err := rows.Scan(&id); err != nil {
			return nil, accessErr("scan orgs with meetings", err)
		}
		out[id] = true
	}
	return out, accessErr("orgs with meetings", rows.Err())
}

// EmailSummary implements Store.
func (s *PGStore) EmailSummary(ctx context.Context, w calendar.Window) ([]EmailRow, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query, args := emailSummaryQuery(s.cfg.Schema, w)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, accessErr("email summary", err)
	}
	defer rows.Close()

	var out []EmailRow
	for rows.Next() {
		var r EmailRow
		if err := rows.Scan(&r.Sender, &r.Day, &r.Sent, &r.Delivered, &r.Failed, &r.Bounced, &r.Opened, &r.Clicked); err != nil {
			return nil, accessErr("scan email summary", err)
		}
		out = append(out, r)
	}
	return out, accessErr("email summary", rows.Err())
}

// SMSSummary implements Store.
func (s *PGStore) SMSSummary(ctx context.Context, w calendar.Window) ([]SMSRow, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query, args := smsSummaryQuery(s.cfg.Schema, w)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, accessErr("sms summary", err)
	}
	defer rows.Close()

	var out []SMSRow
	for rows.Next() {
		var r SMSRow
		if err := rows.Scan(&r.Sender, &r.Day, &r.Sent, &r.Delivered, &r.Failed); err != nil {
			return nil, accessErr("scan sms summary", err)
		}
		out = append(out, r)
	}
	return out, accessErr("sms summary", rows.Err())
}

// NotificationGaps implements Store.
func (s *PGStore) NotificationGaps(ctx context.Context) ([]GapRow, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	query, args := notificationGapsQuery(s.cfg.Schema)
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, accessErr("notification gaps", err)
	}
	defer rows.Close()

	var out []GapRow
	for rows.Next() {
		var r GapRow
		var lastNotified sql.NullTime
		if err := rows.Scan(&r.PersonID, &r.Name, &r.Channel, &r.Issue, &lastNotified); err != nil {
			return nil, accessErr("scan notification gaps", err)
		}
		if lastNotified.Valid {
			r.LastNotified = lastNotified.Time
		}
		out = append(out, r)
	}
	return out, accessErr("notification gaps", rows.Err())
}

// LoadDocument implements Store.
func (s *PGStore) LoadDocument(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	var doc []byte
	err := s.db.QueryRowContext(ctx,
		fmt.Sprintf(`SELECT doc FROM %s.report_documents WHERE key = $1`, s.cfg.Schema),
		key).Scan(&doc)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNoDocument
	}
	if err != nil {
		return nil, accessErr("load document", err)
	}
	return doc, nil
}

// SaveDocument implements Store. Last write wins; there is no coordination
// between concurrent report runs.
func (s *PGStore) SaveDocument(ctx context.Context, key string, doc []byte) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s.report_documents (key, doc, updated_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (key) DO UPDATE SET doc = EXCLUDED.doc, updated_at = NOW()`,
		s.cfg.Schema), key, doc)
	return accessErr("save document", err)
}

// SaveReportRun implements Store.
func (s *PGStore) SaveReportRun(ctx context.Context, run ReportRun) error {
	ctx, cancel := s.withTimeout(ctx)
	defer cancel()

	_, err := s.db.ExecContext(ctx, fmt.Sprintf(`
		INSERT INTO %s.report_runs (id, kind, as_of, generated_at, warnings, run_tag)
		VALUES ($1, $2, $3, $4, $5, $6)`, s.cfg.Schema),
		run.ID, run.Kind, run.AsOf, run.GeneratedAt, run.Warnings, nullString(run.Tag))
	return accessErr("save report run", err)
}

func nullString(s string) any {
	if s == "" {
		return nil
	}
	return s
}
