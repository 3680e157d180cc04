package report

import (
	"context"
	"fmt"
	"time"

	"flock-insights/internal/calendar"
	"flock-insights/internal/churchdb"
	"flock-insights/internal/hierarchy"
	"flock-insights/internal/insights"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"
)

// OrgLine is one organization's row in the weekly report.
type OrgLine struct {
	ID          int                                  `json:"id"`
	Name        string                               `json:"name"`
	Windows     map[string]insights.AttendanceResult `json:"attendanceByWindow"`
	Comparisons map[string]ComparisonResult          `json:"comparisons"`
	RollingAvg  float64                              `json:"rollingWeeklyAvg"`
	FYTDAvg     float64                              `json:"fytdWeeklyAvg"`
	Enrollment  int                                  `json:"enrollment"`
	Ratio       RatioCell                            `json:"ratio"`
}

// DivisionSection is one division's block: its own totals plus its
// organizations. A shared organization shows its full value here and in
// every other division that carries it.
type DivisionSection struct {
	ID          int                                  `json:"id"`
	Name        string                               `json:"name"`
	Windows     map[string]insights.AttendanceResult `json:"attendanceByWindow"`
	Comparisons map[string]ComparisonResult          `json:"comparisons"`
	RollingAvg  float64                              `json:"rollingWeeklyAvg"`
	FYTDAvg     float64                              `json:"fytdWeeklyAvg"`
	Enrollment  int                                  `json:"enrollment"`
	Ratio       RatioCell                            `json:"ratio"`
	Orgs        []OrgLine                            `json:"orgs"`
}

// ProgramSection is one program's block, with attendance bucketed onto the
// program's named service times for the current week.
type ProgramSection struct {
	ID          int                                  `json:"id"`
	Name        string                               `json:"name"`
	Display     string                               `json:"display"`
	Windows     map[string]insights.AttendanceResult `json:"attendanceByWindow"`
	Comparisons map[string]ComparisonResult          `json:"comparisons"`
	RollingAvg  float64                              `json:"rollingWeeklyAvg"`
	FYTDAvg     float64                              `json:"fytdWeeklyAvg"`
	Enrollment  int                                  `json:"enrollment"`
	Ratio       RatioCell                            `json:"ratio"`
	ByService   map[string]int                       `json:"byService,omitempty"`
	Divisions   []DivisionSection                    `json:"divisions"`
}

// WeeklyReport is the full output contract handed to the rendering layer.
type WeeklyReport struct {
	RunID        uuid.UUID             `json:"runId"`
	AsOf         time.Time             `json:"asOf"`
	GeneratedAt  time.Time             `json:"generatedAt"`
	Programs     []ProgramSection      `json:"programs"`
	Overall      WeeklySet             `json:"overall"`
	OverallRatio RatioCell             `json:"overallRatio"`
	Enrollment   int                   `json:"enrollment"`
	Unique       insights.UniqueResult `json:"uniqueAttendees"`
	Warnings     []Warning             `json:"warnings,omitempty"`
}

// Assembler builds the weekly report from the engine components. Programs
// are computed independently and fanned out across a bounded worker group;
// correctness does not depend on the concurrency, only wall time does.
type Assembler struct {
	store churchdb.Store
	repo  *hierarchy.Repository
	agg   *insights.Aggregator
	enr   *insights.EnrollmentCounter
	uniq  *insights.UniquePersonCounter
	cfg   Config
}

// NewAssembler wires the report components for one run.
func NewAssembler(store churchdb.Store, cfg Config) *Assembler {
	return &Assembler{
		store: store,
		repo:  hierarchy.NewRepository(store),
		agg:   insights.NewAggregator(store),
		enr:   insights.NewEnrollmentCounter(store),
		uniq:  insights.NewUniquePersonCounter(store),
		cfg:   cfg,
	}
}

// BuildWeekly computes the whole report. Only a hierarchy load failure is
// fatal (there is nothing to render without the tree); every other failure
// degrades its own cells and surfaces as a warning.
func (a *Assembler) BuildWeekly(ctx context.Context) (*WeeklyReport, error) {
	tree, err := a.repo.Load(ctx)
	if err != nil {
		return nil, fmt.Errorf("weekly report: %w", err)
	}

	warn := &Warnings{}
	rep := &WeeklyReport{
		RunID:       uuid.New(),
		AsOf:        calendar.SundayOfWeek(a.cfg.AsOf),
		GeneratedAt: time.Now(),
		Programs:    make([]ProgramSection, len(tree.Programs)),
	}

	enrollPerOrg, err := a.enr.CountByOrg(ctx, hierarchy.ScopeTree(tree), a.cfg.AsOf,
		a.cfg.EnrollmentMode, a.cfg.Windows()[WinWeek])
	enrollPerOrg = Fallback(enrollPerOrg, err, warn, "Overall", "enrollment")

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(4)
	for pi := range tree.Programs {
		g.Go(func() error {
			rep.Programs[pi] = a.buildProgram(gctx, &tree.Programs[pi], enrollPerOrg, warn)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	a.fillOverall(rep, enrollPerOrg)

	uniq, err := a.uniq.CountUnique(ctx, tree.Programs, a.cfg.AsOf)
	rep.Unique = Fallback(uniq, err, warn, "Overall", "unique_attendees")

	rep.Warnings = warn.All()

	if err := a.store.SaveReportRun(ctx, churchdb.ReportRun{
		ID:          rep.RunID,
		Kind:        "weekly_attendance",
		AsOf:        rep.AsOf,
		GeneratedAt: rep.GeneratedAt,
		Warnings:    len(rep.Warnings),
		Tag:         a.cfg.Tag,
	}); err != nil {
		// The report itself is complete; a failed run record is log-only.
		log.Warn().Err(err).Msg("Failed to record report run")
	}
	return rep, nil
}

// buildProgram computes one program section from a single per-organization
// batched fetch, then rolls the same numbers up to divisions and the
// program itself.
func (a *Assembler) buildProgram(ctx context.Context, p *hierarchy.Program, enrollPerOrg map[int]int, warn *Warnings) ProgramSection {
	scope := hierarchy.ScopeProgram(p)

	perOrg, err := a.agg.PerOrgBatch(ctx, scope, a.cfg.Windows())
	perOrg = Fallback(perOrg, err, warn, p.Name, "all")

	sec := ProgramSection{
		ID:      p.ID,
		Name:    p.Name,
		Display: p.Display,
	}

	for di := range p.Divisions {
		d := &p.Divisions[di]
		dsec := DivisionSection{ID: d.ID, Name: d.Name}

		dTotals := make(map[string]insights.AttendanceResult)
		for _, org := range d.Organizations {
			oTotals := orgTotals(perOrg, org.ID)
			oSet := BuildSet(oTotals, a.cfg)
			addTotals(dTotals, oTotals)
			dsec.Enrollment += enrollPerOrg[org.ID]

			dsec.Orgs = append(dsec.Orgs, OrgLine{
				ID:          org.ID,
				Name:        org.Name,
				Windows:     oSet.Windows,
				Comparisons: oSet.Comparisons,
				RollingAvg:  oSet.RollingAvg,
				FYTDAvg:     oSet.FYTDAvg,
				Enrollment:  enrollPerOrg[org.ID],
				Ratio: NewRatioCell(enrollPerOrg[org.ID],
					oTotals[WinWeek].Total, oTotals[WinLastSunday].Total, a.cfg.Thresholds),
			})
		}

		dSet := BuildSet(dTotals, a.cfg)
		dsec.Windows = dSet.Windows
		dsec.Comparisons = dSet.Comparisons
		dsec.RollingAvg = dSet.RollingAvg
		dsec.FYTDAvg = dSet.FYTDAvg
		dsec.Ratio = NewRatioCell(dsec.Enrollment,
			dTotals[WinWeek].Total, dTotals[WinLastSunday].Total, a.cfg.Thresholds)
		sec.Divisions = append(sec.Divisions, dsec)
	}

	// Program totals keep per-division multiplicity for shared orgs.
	pTotals := make(map[string]insights.AttendanceResult)
	for _, id := range p.OrgIDs() {
		addTotals(pTotals, orgTotals(perOrg, id))
		sec.Enrollment += enrollPerOrg[id]
	}
	pSet := BuildSet(pTotals, a.cfg)
	sec.Windows = pSet.Windows
	sec.Comparisons = pSet.Comparisons
	sec.RollingAvg = pSet.RollingAvg
	sec.FYTDAvg = pSet.FYTDAvg
	sec.Ratio = NewRatioCell(sec.Enrollment,
		pTotals[WinWeek].Total, pTotals[WinLastSunday].Total, a.cfg.Thresholds)
	if len(p.Services) > 0 {
		sec.ByService = insights.ByService(pTotals[WinWeek], p.Services)
	}
	return sec
}

// fillOverall derives the whole-tree totals from the already-computed
// program sections, counting every organization exactly once. An
// organization reachable through two programs keeps its first program's
// clipped values, mirroring the visit-once rule.
func (a *Assembler) fillOverall(rep *WeeklyReport, enrollPerOrg map[int]int) {
	totals := make(map[string]insights.AttendanceResult)
	seen := make(map[int]bool)

	for pi := range rep.Programs {
		sec := &rep.Programs[pi]
		for di := range sec.Divisions {
			for oi := range sec.Divisions[di].Orgs {
				org := &sec.Divisions[di].Orgs[oi]
				if seen[org.ID] {
					continue
				}
				seen[org.ID] = true
				addTotals(totals, org.Windows)
				rep.Enrollment += enrollPerOrg[org.ID]
			}
		}
	}

	rep.Overall = BuildSet(totals, a.cfg)
	rep.OverallRatio = NewRatioCell(rep.Enrollment,
		totals[WinWeek].Total, totals[WinLastSunday].Total, a.cfg.Thresholds)
}

// orgTotals extracts one organization's result per window, zero-valued when
// absent.
func orgTotals(perOrg map[string]map[int]insights.AttendanceResult, orgID int) map[string]insights.AttendanceResult {
	out := make(map[string]insights.AttendanceResult, len(perOrg))
	for name, byOrg := range perOrg {
		out[name] = byOrg[orgID]
	}
	return out
}

// addTotals accumulates window totals in place.
func addTotals(dst map[string]insights.AttendanceResult, src map[string]insights.AttendanceResult) {
	for name, v := range src {
		acc := dst[name]
		acc.Total += v.Total
		acc.Meetings += v.Meetings
		if len(v.ByHour) > 0 {
			if acc.ByHour == nil {
				acc.ByHour = make(map[int]int, len(v.ByHour))
			}
			for h, n := range v.ByHour {
				acc.ByHour[h] += n
			}
		}
		dst[name] = acc
	}
}
