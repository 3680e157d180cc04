package churchdb

import (
	"context"
	"sort"
	"time"

	"flock-insights/internal/calendar"
)

// Meeting is a raw per-meeting record held by MemStore.
type Meeting struct {
	ID         int
	OrgID      int
	At         time.Time
	DidNotMeet bool
	Attendance int
}

// Enrollment is a raw per-person enrollment record held by MemStore.
type Enrollment struct {
	OrgID         int
	PersonID      int
	EnrolledAt    *time.Time // nil = always enrolled
	InactivatedAt *time.Time // nil = still active
	MemberType    string     // "Member", "Prospect", "NonMember", ...
}

// Person carries the person-level exclusion dates and contact points.
type Person struct {
	ID         int
	Name       string
	DeceasedAt *time.Time
	DroppedAt  *time.Time
}

// Mark is an individual-level attendance record.
type Mark struct {
	MeetingID int
	PersonID  int
	Present   bool
}

// MemStore is an in-memory Store over raw records. It applies the same
// qualification rules the SQL shapes express, which makes it the reference
// implementation the engine tests run against.
type MemStore struct {
	Hierarchy   []HierarchyRow
	Meetings    []Meeting
	Enrollments []Enrollment
	People      map[int]Person
	Marks       []Mark
	Emails      []EmailRow
	SMS         []SMSRow
	Gaps        []GapRow
	Docs        map[string][]byte
	Runs        []ReportRun

	// Fail forces the named operation to return an error, for exercising
	// the degrade-to-zero policy.
	Fail map[string]error
}

// NewMemStore returns an empty MemStore ready for population.
func NewMemStore() *MemStore {
	return &MemStore{
		People: make(map[int]Person),
		Docs:   make(map[string][]byte),
		Fail:   make(map[string]error),
	}
}

func (s *MemStore) failing(op string) error {
	if err, ok := s.Fail[op]; ok {
		return accessErr(op, err)
	}
	return nil
}

// ListReportableHierarchy implements Store.
func (s *MemStore) ListReportableHierarchy(_ context.Context) ([]HierarchyRow, error) {
	if err := s.failing("ListReportableHierarchy"); err != nil {
		return nil, err
	}
	var out []HierarchyRow
	for _, r := range s.Hierarchy {
		if r.ReportGroup == "" || r.ReportLine == "" {
			continue
		}
		out = append(out, r)
	}
	return out, nil
}

func inScope(orgIDs []int, id int) bool {
	for _, o := range orgIDs {
		if o == id {
			return true
		}
	}
	return false
}

// qualifies reports whether a meeting counts toward aggregates: held inside
// the window and not flagged did-not-meet.
func (m Meeting) qualifies(orgIDs []int, w calendar.Window) bool {
	return !m.DidNotMeet && inScope(orgIDs, m.OrgID) && w.Contains(m.At)
}

// SumAttendance implements Store.
func (s *MemStore) SumAttendance(_ context.Context, scope ScopeFilter, w calendar.Window) ([]AttendanceRow, error) {
	if err := s.failing("SumAttendance"); err != nil {
		return nil, err
	}
	return s.sumAttendance(scope, w), nil
}

func (s *MemStore) sumAttendance(scope ScopeFilter, w calendar.Window) []AttendanceRow {
	type key struct{ org, hour int }
	acc := make(map[key]*AttendanceRow)
	for _, m := range s.Meetings {
		if !m.qualifies(scope.OrgIDs, w) {
			continue
		}
		k := key{m.OrgID, m.At.Hour()}
		r, ok := acc[k]
		if !ok {
			r = &AttendanceRow{OrgID: m.OrgID, Hour: m.At.Hour()}
			acc[k] = r
		}
		r.TotalCount += m.Attendance
		r.MeetingCount++
	}

	out := make([]AttendanceRow, 0, len(acc))
	for _, r := range acc {
		out = append(out, *r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].OrgID != out[j].OrgID {
			return out[i].OrgID < out[j].OrgID
		}
		return out[i].Hour < out[j].Hour
	})
	return out
}

// SumAttendanceBatch implements Store.
func (s *MemStore) SumAttendanceBatch(_ context.Context, scope ScopeFilter, windows map[string]calendar.Window) (map[string][]AttendanceRow, error) {
	if err := s.failing("SumAttendanceBatch"); err != nil {
		return nil, err
	}
	out := make(map[string][]AttendanceRow, len(windows))
	for name, w := range windows {
		out[name] = s.sumAttendance(scope, w)
	}
	return out, nil
}

// activeAsOf is the enrollment qualification predicate: enrolled on or
// before the date, not yet inactivated, an ordinary member type, and the
// person neither deceased nor dropped as of the date.
func (s *MemStore) activeAsOf(e Enrollment, asOf time.Time) bool {
	if e.EnrolledAt != nil && e.EnrolledAt.After(asOf) {
		return false
	}
	if e.InactivatedAt != nil && !e.InactivatedAt.After(asOf) {
		return false
	}
	for _, t := range excludedMemberTypes {
		if e.MemberType == t {
			return false
		}
	}
	p, ok := s.People[e.PersonID]
	if !ok {
		return true
	}
	if p.DeceasedAt != nil && !p.DeceasedAt.After(asOf) {
		return false
	}
	if p.DroppedAt != nil && !p.DroppedAt.After(asOf) {
		return false
	}
	return true
}

// CountEnrollment implements Store.
func (s *MemStore) CountEnrollment(_ context.Context, scope ScopeFilter, asOf time.Time) ([]EnrollmentRow, error) {
	if err := s.failing("CountEnrollment"); err != nil {
		return nil, err
	}
	counts := make(map[int]int)
	for _, e := range s.Enrollments {
		if !inScope(scope.OrgIDs, e.OrgID) || !s.activeAsOf(e, asOf) {
			continue
		}
		counts[e.OrgID]++
	}

	out := make([]EnrollmentRow, 0, len(counts))
	for org, n := range counts {
		out = append(out, EnrollmentRow{OrgID: org, Count: n})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].OrgID < out[j].OrgID })
	return out, nil
}

// CountDistinctAttendees implements Store.
func (s *MemStore) CountDistinctAttendees(_ context.Context, pairs []ProgramWindow) ([]AttendeeRow, error) {
	if err := s.failing("CountDistinctAttendees"); err != nil {
		return nil, err
	}

	meetings := make(map[int]Meeting, len(s.Meetings))
	for _, m := range s.Meetings {
		meetings[m.ID] = m
	}

	enrolled := make(map[[2]int]bool) // (org, person) -> ordinary member
	for _, e := range s.Enrollments {
		excluded := false
		for _, t := range excludedMemberTypes {
			if e.MemberType == t {
				excluded = true
				break
			}
		}
		if !excluded {
			enrolled[[2]int{e.OrgID, e.PersonID}] = true
		}
	}

	var out []AttendeeRow
	for _, pair := range pairs {
		members := make(map[int]bool)
		guests := make(map[int]bool)
		for _, mark := range s.Marks {
			if !mark.Present {
				continue
			}
			m, ok := meetings[mark.MeetingID]
			if !ok || !m.qualifies(pair.OrgIDs, pair.Window) {
				continue
			}
			if enrolled[[2]int{m.OrgID, mark.PersonID}] {
				members[mark.PersonID] = true
			} else {
				guests[mark.PersonID] = true
			}
		}
		// Someone enrolled anywhere in the program counts as a member even
		// if another attended org knows them only as a guest.
		for id := range members {
			delete(guests, id)
		}
		if len(members) == 0 && len(guests) == 0 {
			continue // no individual-level data; caller falls back
		}
		out = append(out, AttendeeRow{
			Key:            pair.Key,
			Program:        pair.Program,
			EnrolledUnique: len(members),
			GuestUnique:    len(guests),
		})
	}
	return out, nil
}

// OrgsWithMeetings implements Store.
func (s *MemStore) OrgsWithMeetings(_ context.Context, orgIDs []int, w calendar.Window) (map[int]bool, error) {
	if err := s.failing("OrgsWithMeetings"); err != nil {
		return nil, err
	}
	out := make(map[int]bool)
	for _, m := range s.Meetings {
		if m.qualifies(orgIDs, w) {
			out[m.OrgID] = true
		}
	}
	return out, nil
}

// EmailSummary implements Store.
func (s *MemStore) EmailSummary(_ context.Context, w calendar.Window) ([]EmailRow, error) {
	if err := s.failing("EmailSummary"); err != nil {
		return nil, err
	}
	var out []EmailRow
	for _, r := range s.Emails {
		if w.Contains(r.Day) {
			out = append(out, r)
		}
	}
	return out, nil
}

// SMSSummary implements Store.
func (s *MemStore) SMSSummary(_ context.Context, w calendar.Window) ([]SMSRow, error) {
	if err := s.failing("SMSSummary"); err != nil {
		return nil, err
	}
	var out []SMSRow
	for _, r := range s.SMS {
		if w.Contains(r.Day) {
			out = append(out, r)
		}
	}
	return out, nil
}

// NotificationGaps implements Store.
func (s *MemStore) NotificationGaps(_ context.Context) ([]GapRow, error) {
	if err := s.failing("NotificationGaps"); err != nil {
		return nil, err
	}
	return s.Gaps, nil
}

// LoadDocument implements Store.
func (s *MemStore) LoadDocument(_ context.Context, key string) ([]byte, error) {
	if err := s.failing("LoadDocument"); err != nil {
		return nil, err
	}
	doc, ok := s.Docs[key]
	if !ok {
		return nil, ErrNoDocument
	}
	return doc, nil
}

// SaveDocument implements Store.
func (s *MemStore) SaveDocument(_ context.Context, key string, doc []byte) error {
	if err := s.failing("SaveDocument"); err != nil {
		return err
	}
	s.Docs[key] = doc
	return nil
}

// SaveReportRun implements Store.
func (s *MemStore) SaveReportRun(_ context.Context, run ReportRun) error {
	if err := s.failing("SaveReportRun"); err != nil {
		return err
	}
	s.Runs = append(s.Runs, run)
	return nil
}
