// Package insights holds the attendance and enrollment aggregation engine:
// meeting-sum roll-ups with the division/whole-tree deduplication rules,
// point-in-time enrollment counts, and distinct-attendee counting over
// per-program time windows.
package insights

import (
	"context"
	"fmt"
	"time"

	"flock-insights/internal/calendar"
	"flock-insights/internal/churchdb"
	"flock-insights/internal/hierarchy"
)

// AttendanceResult is the aggregate for one scope and window.
type AttendanceResult struct {
	Total    int         `json:"total"`
	Meetings int         `json:"meetings"`
	ByHour   map[int]int `json:"byHour,omitempty"`
}

// Aggregator sums meeting attendance for a hierarchy scope. Results honor
// the scope's organization multiplicity: division and program scopes count
// a shared organization once per membership, the whole-tree scope counts it
// exactly once.
type Aggregator struct {
	store churchdb.Store
}

// NewAggregator wraps a store.
func NewAggregator(store churchdb.Store) *Aggregator {
	return &Aggregator{store: store}
}

// ClipToProgram narrows a window to the program's attribution bounds. Each
// Sunday in the window owns the span StartHourOffset..EndHourOffset hours
// from its midnight, so the bounds run from the first Sunday's span start to
// the last Sunday's span end; a multi-week window keeps every constituent
// week. Degenerate offsets (end not after start) attribute nothing and
// leave the window untouched. The result never extends beyond the caller's
// window.
func ClipToProgram(p *hierarchy.Program, w calendar.Window) calendar.Window {
	if p == nil || w.IsZero() {
		return w
	}
	if p.EndHourOffset <= p.StartHourOffset {
		return w
	}
	first := calendar.SundayOfWeek(w.Start.AddDate(0, 0, 6))
	last := calendar.SundayOfWeek(w.End)
	bounds := calendar.Window{
		Start: first.Add(time.Duration(p.StartHourOffset) * time.Hour),
		End:   last.Add(time.Duration(p.EndHourOffset) * time.Hour),
	}
	return w.Clip(bounds)
}

// Sum aggregates attendance for the scope over one window.
func (a *Aggregator) Sum(ctx context.Context, scope hierarchy.Scope, w calendar.Window) (AttendanceResult, error) {
	w = ClipToProgram(scope.Program, w)
	rows, err := a.store.SumAttendance(ctx, churchdb.ScopeFilter{OrgIDs: scope.UniqueOrgIDs()}, w)
	if err != nil {
		return AttendanceResult{}, fmt.Errorf("attendance sum %q: %w", scope.Name, err)
	}
	return rollUp(rows, scope), nil
}

// SumBatch aggregates attendance for several named windows in one store
// round-trip. Every requested window appears in the result, zero-valued
// when no meetings qualified.
func (a *Aggregator) SumBatch(ctx context.Context, scope hierarchy.Scope, windows map[string]calendar.Window) (map[string]AttendanceResult, error) {
	clipped := make(map[string]calendar.Window, len(windows))
	for name, w := range windows {
		clipped[name] = ClipToProgram(scope.Program, w)
	}

	byWindow, err := a.store.SumAttendanceBatch(ctx, churchdb.ScopeFilter{OrgIDs: scope.UniqueOrgIDs()}, clipped)
	if err != nil {
		return nil, fmt.Errorf("attendance batch %q: %w", scope.Name, err)
	}

	out := make(map[string]AttendanceResult, len(windows))
	for name := range windows {
		out[name] = rollUp(byWindow[name], scope)
	}
	return out, nil
}

// PerOrgBatch answers several named windows with per-organization results
// in one store round-trip. Windows are clipped to the scope's program
// bounds; multiplicity is NOT applied, callers roll up per their own level.
func (a *Aggregator) PerOrgBatch(ctx context.Context, scope hierarchy.Scope, windows map[string]calendar.Window) (map[string]map[int]AttendanceResult, error) {
	clipped := make(map[string]calendar.Window, len(windows))
	for name, w := range windows {
		clipped[name] = ClipToProgram(scope.Program, w)
	}

	byWindow, err := a.store.SumAttendanceBatch(ctx, churchdb.ScopeFilter{OrgIDs: scope.UniqueOrgIDs()}, clipped)
	if err != nil {
		return nil, fmt.Errorf("attendance per-org batch %q: %w", scope.Name, err)
	}

	out := make(map[string]map[int]AttendanceResult, len(windows))
	for name := range windows {
		perOrg := make(map[int]AttendanceResult)
		for _, row := range byWindow[name] {
			res := perOrg[row.OrgID]
			if res.ByHour == nil {
				res.ByHour = make(map[int]int)
			}
			res.Total += row.TotalCount
			res.Meetings += row.MeetingCount
			res.ByHour[row.Hour] += row.TotalCount
			perOrg[row.OrgID] = res
		}
		out[name] = perOrg
	}
	return out, nil
}

// rollUp combines per-organization rows into one result, weighting each
// organization by its multiplicity in the scope.
func rollUp(rows []churchdb.AttendanceRow, scope hierarchy.Scope) AttendanceResult {
	mult := scope.Multiplicity()
	res := AttendanceResult{ByHour: make(map[int]int)}
	for _, row := range rows {
		m := mult[row.OrgID]
		if m == 0 {
			continue
		}
		res.Total += row.TotalCount * m
		res.Meetings += row.MeetingCount * m
		res.ByHour[row.Hour] += row.TotalCount * m
	}
	return res
}

// ByService maps an attendance result's hour buckets onto a program's named
// service times. Hours not covered by any service are summed under the
// empty label.
func ByService(res AttendanceResult, services []hierarchy.ServiceTime) map[string]int {
	out := make(map[string]int, len(services))
	for hour, count := range res.ByHour {
		matched := false
		for _, svc := range services {
			if svc.Covers(hour) {
				out[svc.Label] += count
				matched = true
				break
			}
		}
		if !matched {
			out[""] += count
		}
	}
	return out
}
