package insights

import (
	"context"
	"fmt"
	"time"

	"flock-insights/internal/calendar"
	"flock-insights/internal/churchdb"
	"flock-insights/internal/hierarchy"
)

// EnrollmentCounter counts qualifying enrollments at a point in time. The
// store applies the exclusion rules (prospects, non-members, deceased,
// dropped, inactivated); this layer applies the scope's multiplicity.
type EnrollmentCounter struct {
	store churchdb.Store
}

// NewEnrollmentCounter wraps a store.
func NewEnrollmentCounter(store churchdb.Store) *EnrollmentCounter {
	return &EnrollmentCounter{store: store}
}

// CountAsOf counts enrollments active as of the date. With
// OnlyWithAttendance the count is restricted to organizations that held at
// least one qualifying meeting inside the comparison window; attendWindow is
// ignored for AllEnrollments.
func (c *EnrollmentCounter) CountAsOf(ctx context.Context, scope hierarchy.Scope, asOf time.Time, mode churchdb.EnrollmentMode, attendWindow calendar.Window) (int, error) {
	unique := scope.UniqueOrgIDs()
	rows, err := c.store.CountEnrollment(ctx, churchdb.ScopeFilter{OrgIDs: unique}, asOf)
	if err != nil {
		return 0, fmt.Errorf("enrollment count %q: %w", scope.Name, err)
	}

	var met map[int]bool
	if mode == churchdb.OnlyWithAttendance {
		met, err = c.store.OrgsWithMeetings(ctx, unique, attendWindow)
		if err != nil {
			return 0, fmt.Errorf("enrollment count %q: %w", scope.Name, err)
		}
	}

	mult := scope.Multiplicity()
	total := 0
	for _, row := range rows {
		if met != nil && !met[row.OrgID] {
			continue
		}
		total += row.Count * mult[row.OrgID]
	}
	return total, nil
}

// CountByOrg returns the per-organization counts for the scope, for callers
// that classify at organization level in the same pass. With
// OnlyWithAttendance, organizations without a qualifying meeting inside
// attendWindow count as zero.
func (c *EnrollmentCounter) CountByOrg(ctx context.Context, scope hierarchy.Scope, asOf time.Time, mode churchdb.EnrollmentMode, attendWindow calendar.Window) (map[int]int, error) {
	unique := scope.UniqueOrgIDs()
	rows, err := c.store.CountEnrollment(ctx, churchdb.ScopeFilter{OrgIDs: unique}, asOf)
	if err != nil {
		return nil, fmt.Errorf("enrollment by org %q: %w", scope.Name, err)
	}

	var met map[int]bool
	if mode == churchdb.OnlyWithAttendance {
		met, err = c.store.OrgsWithMeetings(ctx, unique, attendWindow)
		if err != nil {
			return nil, fmt.Errorf("enrollment by org %q: %w", scope.Name, err)
		}
	}

	out := make(map[int]int, len(rows))
	for _, row := range rows {
		if met != nil && !met[row.OrgID] {
			continue
		}
		out[row.OrgID] = row.Count
	}
	return out, nil
}

// CountByDivision answers several divisions with a single store query over
// the union of their organizations, then rolls up per division. A shared
// organization contributes its full count to every division that carries it.
func (c *EnrollmentCounter) CountByDivision(ctx context.Context, divisions []hierarchy.Division, asOf time.Time) (map[int]int, error) {
	seen := make(map[int]bool)
	var union []int
	for i := range divisions {
		for _, id := range divisions[i].OrgIDs() {
			if !seen[id] {
				seen[id] = true
				union = append(union, id)
			}
		}
	}

	rows, err := c.store.CountEnrollment(ctx, churchdb.ScopeFilter{OrgIDs: union}, asOf)
	if err != nil {
		return nil, fmt.Errorf("enrollment by division: %w", err)
	}
	perOrg := make(map[int]int, len(rows))
	for _, row := range rows {
		perOrg[row.OrgID] = row.Count
	}

	out := make(map[int]int, len(divisions))
	for i := range divisions {
		total := 0
		for _, id := range divisions[i].OrgIDs() {
			total += perOrg[id]
		}
		out[divisions[i].ID] = total
	}
	return out, nil
}
