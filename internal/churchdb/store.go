// Package churchdb is the data-access boundary over the congregation
// management database. It exposes the handful of read contracts the
// analytics engine needs as typed rows, decoded once here, plus opaque
// key-value documents for the exception list and department mapping.
package churchdb

import (
	"context"
	"time"

	"flock-insights/internal/calendar"
)

// EnrollmentMode selects which enrollments qualify for a count.
type EnrollmentMode int

const (
	// AllEnrollments counts every enrollment active as of the reference date.
	AllEnrollments EnrollmentMode = iota
	// OnlyWithAttendance additionally requires the organization to have held
	// at least one qualifying meeting in the comparison window. Retained for
	// compatibility with the legacy report.
	OnlyWithAttendance
)

// Store is the query collaborator for the analytics engine. Implementations
// must apply the did-not-meet and enrollment exclusion rules inside the
// query so every caller sees the same universe of records.
type Store interface {
	// ListReportableHierarchy returns one row per reporting-eligible
	// program/division/organization combination.
	ListReportableHierarchy(ctx context.Context) ([]HierarchyRow, error)

	// SumAttendance returns per-organization, per-hour attendance aggregates
	// for meetings inside the window. Did-not-meet meetings never count.
	SumAttendance(ctx context.Context, scope ScopeFilter, w calendar.Window) ([]AttendanceRow, error)

	// SumAttendanceBatch answers several named windows in one pass to avoid
	// N round-trips when building comparison sets.
	SumAttendanceBatch(ctx context.Context, scope ScopeFilter, windows map[string]calendar.Window) (map[string][]AttendanceRow, error)

	// CountEnrollment returns per-organization counts of enrollments active
	// as of the date: enrolled on or before it, not yet inactivated, not an
	// excluded member type, and the person neither deceased nor dropped.
	CountEnrollment(ctx context.Context, scope ScopeFilter, asOf time.Time) ([]EnrollmentRow, error)

	// CountDistinctAttendees counts distinct attending people per program
	// window, split into enrolled members and guests/prospects. Programs with
	// no individual-level records in their window yield no row.
	CountDistinctAttendees(ctx context.Context, pairs []ProgramWindow) ([]AttendeeRow, error)

	// OrgsWithMeetings reports which of the given organizations held at
	// least one qualifying meeting inside the window.
	OrgsWithMeetings(ctx context.Context, orgIDs []int, w calendar.Window) (map[int]bool, error)

	// EmailSummary and SMSSummary feed the communication dashboard.
	EmailSummary(ctx context.Context, w calendar.Window) ([]EmailRow, error)
	SMSSummary(ctx context.Context, w calendar.Window) ([]SMSRow, error)

	// NotificationGaps feeds the notification hygiene auditor.
	NotificationGaps(ctx context.Context) ([]GapRow, error)

	// LoadDocument and SaveDocument give access to the two small external
	// documents (exception list, department mapping) as opaque bytes.
	// Concurrent writers are not coordinated; last write wins.
	LoadDocument(ctx context.Context, key string) ([]byte, error)
	SaveDocument(ctx context.Context, key string, doc []byte) error

	// SaveReportRun records one completed report computation.
	SaveReportRun(ctx context.Context, run ReportRun) error
}

// Config holds the connection settings for the Postgres-backed store.
type Config struct {
	URL          string
	Schema       string
	QueryTimeout time.Duration
}
