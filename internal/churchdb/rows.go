package churchdb

import (
	"time"

	"flock-insights/internal/calendar"

	"github.com/google/uuid"
)

// HierarchyRow is one reporting-eligible program/division/organization
// combination. The same organization id may appear under several divisions;
// the hierarchy layer decides how that is counted.
type HierarchyRow struct {
	ProgramID       int
	ProgramName     string
	ReportGroup     string
	StartHourOffset int
	EndHourOffset   int
	DivisionID      int
	DivisionName    string
	ReportLine      string
	OrgID           int
	OrgName         string
	MemberCount     int
}

// AttendanceRow is a per-organization, per-hour attendance aggregate.
// Meetings flagged "did not meet" are excluded by the query itself.
type AttendanceRow struct {
	OrgID        int
	Hour         int
	TotalCount   int
	MeetingCount int
}

// EnrollmentRow is a per-organization count of qualifying enrollments.
type EnrollmentRow struct {
	OrgID int
	Count int
}

// ScopeFilter narrows a query to a set of organizations. The engine resolves
// hierarchy scopes (division, program, whole tree) down to organization ids
// before calling the store, which keeps the deduplication policy out of SQL.
type ScopeFilter struct {
	OrgIDs []int
}

// ProgramWindow pairs a program with its attribution window and the
// organizations attributed to it, for distinct-attendee queries. Key is a
// caller-chosen identifier echoed back on the result row, so one program can
// ask about several windows in a single batch.
type ProgramWindow struct {
	Key     string
	Program string
	Window  calendar.Window
	OrgIDs  []int
}

// AttendeeRow is the distinct-person attendance count for one
// ProgramWindow. Windows with no individual-level attendance records
// produce no row at all, which the caller treats as a signal to fall back
// to the enrollment-based estimate.
type AttendeeRow struct {
	Key            string
	Program        string
	EnrolledUnique int
	GuestUnique    int
}

// EmailRow is a per-sender daily delivery aggregate for the communication
// dashboard.
type EmailRow struct {
	Sender    string
	Day       time.Time
	Sent      int
	Delivered int
	Failed    int
	Bounced   int
	Opened    int
	Clicked   int
}

// SMSRow is a per-sender daily SMS delivery aggregate.
type SMSRow struct {
	Sender    string
	Day       time.Time
	Sent      int
	Delivered int
	Failed    int
}

// GapRow is one notification hygiene finding: a person who receives
// notifications through a channel that cannot actually reach them.
type GapRow struct {
	PersonID     int
	Name         string
	Channel      string // "email" or "sms"
	Issue        string // "missing", "invalid", "unsubscribed"
	LastNotified time.Time
}

// ReportRun records one completed report computation.
type ReportRun struct {
	ID          uuid.UUID
	Kind        string
	AsOf        time.Time
	GeneratedAt time.Time
	Warnings    int
	Tag         string
}
