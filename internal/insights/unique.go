package insights

import (
	"context"
	"fmt"
	"time"

	"flock-insights/internal/calendar"
	"flock-insights/internal/churchdb"
	"flock-insights/internal/hierarchy"

	"github.com/rs/zerolog/log"
)

// UniqueResult is the distinct-attendee summary over the trailing 4-Sunday
// span. Programs listed in Estimated had no individual-level attendance
// records for at least one Sunday window; their numbers include an
// enrollment-based approximation (enrolled members of organizations known
// to have met), not a guaranteed-accurate distinct count.
type UniqueResult struct {
	Total           int             `json:"total"`
	ByProgram       map[string]int  `json:"byProgram"`
	GuestsByProgram map[string]int  `json:"guestsByProgram"`
	Estimated       map[string]bool `json:"estimated,omitempty"`
}

// UniquePersonCounter counts distinct attending people per program across
// the 4 Sundays ending at a trailing date. Each program gets its own time
// window per Sunday, built from the program's hour offsets, so two programs
// meeting the same calendar Sunday may cover disjoint spans.
type UniquePersonCounter struct {
	store churchdb.Store
}

// NewUniquePersonCounter wraps a store.
func NewUniquePersonCounter(store churchdb.Store) *UniquePersonCounter {
	return &UniquePersonCounter{store: store}
}

// CountUnique builds one window per program per Sunday and resolves all of
// them in a single store batch. People are distinct within each Sunday
// window; the per-program figure is the sum over the 4 windows.
func (c *UniquePersonCounter) CountUnique(ctx context.Context, programs []hierarchy.Program, trailingDate time.Time) (UniqueResult, error) {
	res := UniqueResult{
		ByProgram:       make(map[string]int),
		GuestsByProgram: make(map[string]int),
		Estimated:       make(map[string]bool),
	}

	trailing := calendar.SundayOfWeek(trailingDate)
	var pairs []churchdb.ProgramWindow

	for i := range programs {
		p := &programs[i]
		unique := hierarchy.ScopeProgram(p).UniqueOrgIDs()
		res.ByProgram[p.Name] = 0
		res.GuestsByProgram[p.Name] = 0

		for week := 0; week < 4; week++ {
			sunday := calendar.WeeksAgo(trailing, week)
			pairs = append(pairs, churchdb.ProgramWindow{
				Key:     fmt.Sprintf("%s|%s", p.Name, sunday.Format("2006-01-02")),
				Program: p.Name,
				Window:  programSundayWindow(p, sunday),
				OrgIDs:  unique,
			})
		}
	}

	rows, err := c.store.CountDistinctAttendees(ctx, pairs)
	if err != nil {
		return UniqueResult{}, fmt.Errorf("unique attendees: %w", err)
	}

	answered := make(map[string]bool, len(rows))
	for _, row := range rows {
		res.ByProgram[row.Program] += row.EnrolledUnique
		res.GuestsByProgram[row.Program] += row.GuestUnique
		answered[row.Key] = true
	}

	// Estimate fallback for unanswered windows: enrolled members of
	// organizations that held at least one qualifying meeting. Explicitly
	// an approximation for legacy meeting-count-only data.
	for _, pair := range pairs {
		if answered[pair.Key] {
			continue
		}
		est, err := c.estimateFromEnrollment(ctx, pair.OrgIDs, pair.Window)
		if err != nil {
			return UniqueResult{}, err
		}
		if est > 0 {
			res.ByProgram[pair.Program] += est
			res.Estimated[pair.Program] = true
			log.Debug().Str("program", pair.Program).Int("estimate", est).
				Msg("No individual attendance records; using enrollment estimate")
		}
	}

	for _, n := range res.ByProgram {
		res.Total += n
	}
	for _, n := range res.GuestsByProgram {
		res.Total += n
	}
	return res, nil
}

// programSundayWindow is the program's attribution span around one Sunday:
// StartHourOffset..EndHourOffset hours from the Sunday's midnight.
func programSundayWindow(p *hierarchy.Program, sunday time.Time) calendar.Window {
	start := sunday.Add(time.Duration(p.StartHourOffset) * time.Hour)
	end := sunday.Add(time.Duration(p.EndHourOffset) * time.Hour)
	if !end.After(start) {
		// Degenerate offsets fall back to the calendar Sunday itself.
		return calendar.NewWindow(sunday, sunday)
	}
	return calendar.Window{Start: start, End: end}
}

func (c *UniquePersonCounter) estimateFromEnrollment(ctx context.Context, orgIDs []int, w calendar.Window) (int, error) {
	met, err := c.store.OrgsWithMeetings(ctx, orgIDs, w)
	if err != nil {
		return 0, fmt.Errorf("unique attendee estimate: %w", err)
	}
	if len(met) == 0 {
		return 0, nil
	}
	metIDs := make([]int, 0, len(met))
	for id := range met {
		metIDs = append(metIDs, id)
	}
	rows, err := c.store.CountEnrollment(ctx, churchdb.ScopeFilter{OrgIDs: metIDs}, calendar.DayStart(w.End))
	if err != nil {
		return 0, fmt.Errorf("unique attendee estimate: %w", err)
	}
	total := 0
	for _, row := range rows {
		total += row.Count
	}
	return total, nil
}
