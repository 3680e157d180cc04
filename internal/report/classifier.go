package report

import (
	"context"
	"fmt"

	"flock-insights/internal/calendar"
	"flock-insights/internal/hierarchy"
	"flock-insights/internal/insights"
)

// RatioReport classifies every level of the hierarchy in one pass: each
// cell carries the regular-period and last-Sunday-only views against a
// single enrollment denominator.
type RatioReport struct {
	PerOrg      map[int]RatioCell `json:"perOrg"`
	PerDivision map[int]RatioCell `json:"perDivision"`
	PerProgram  map[int]RatioCell `json:"perProgram"`
	Overall     RatioCell         `json:"overall"`
	Warnings    []Warning         `json:"warnings,omitempty"`
}

// Classifier applies the aggregator and enrollment counter across the
// hierarchy and classifies at every level.
type Classifier struct {
	agg  *insights.Aggregator
	enr  *insights.EnrollmentCounter
	tree *hierarchy.Tree
	cfg  Config
}

// NewClassifier builds a classifier for one report run.
func NewClassifier(agg *insights.Aggregator, enr *insights.EnrollmentCounter, tree *hierarchy.Tree, cfg Config) *Classifier {
	return &Classifier{agg: agg, enr: enr, tree: tree, cfg: cfg}
}

// ClassifyTree computes the ratio report for one regular window. Attendance
// is fetched per program so each program's hour offsets clip its windows;
// an organization reachable through two programs keeps its first-visited
// value for the overall roll-up, mirroring the visit-once deduplication of
// whole-tree totals.
func (c *Classifier) ClassifyTree(ctx context.Context, window calendar.Window) (RatioReport, error) {
	warn := &Warnings{}
	rep := RatioReport{
		PerOrg:      make(map[int]RatioCell),
		PerDivision: make(map[int]RatioCell),
		PerProgram:  make(map[int]RatioCell),
	}

	enrollPerOrg, err := c.enr.CountByOrg(ctx, hierarchy.ScopeTree(c.tree), c.cfg.AsOf,
		c.cfg.EnrollmentMode, window)
	if err != nil {
		// Without denominators nothing classifies; this is the one failure
		// that aborts the ratio report.
		return rep, fmt.Errorf("ratio classify: %w", err)
	}

	sunday := calendar.SundayOfWeek(c.cfg.AsOf)
	windows := map[string]calendar.Window{
		"regular":     window,
		"last_sunday": calendar.NewWindow(sunday, sunday),
	}

	type orgVals struct{ regular, lastSunday int }
	seen := make(map[int]orgVals)

	for pi := range c.tree.Programs {
		p := &c.tree.Programs[pi]
		scope := hierarchy.ScopeProgram(p)

		perOrg, err := c.agg.PerOrgBatch(ctx, scope, windows)
		perOrg = Fallback(perOrg, err, warn, p.Name, "regular")
		regular := perOrg["regular"]
		lastSunday := perOrg["last_sunday"]

		for di := range p.Divisions {
			d := &p.Divisions[di]
			var dEnroll, dRegular, dLast int
			for _, id := range d.OrgIDs() {
				oReg := regular[id].Total
				oLast := lastSunday[id].Total
				dEnroll += enrollPerOrg[id]
				dRegular += oReg
				dLast += oLast

				if _, ok := rep.PerOrg[id]; !ok {
					rep.PerOrg[id] = NewRatioCell(enrollPerOrg[id], oReg, oLast, c.cfg.Thresholds)
					seen[id] = orgVals{oReg, oLast}
				}
			}
			rep.PerDivision[d.ID] = NewRatioCell(dEnroll, dRegular, dLast, c.cfg.Thresholds)
		}

		// Program totals keep per-division multiplicity for shared orgs.
		var pEnroll, pRegular, pLast int
		for _, id := range p.OrgIDs() {
			pEnroll += enrollPerOrg[id]
			pRegular += regular[id].Total
			pLast += lastSunday[id].Total
		}
		rep.PerProgram[p.ID] = NewRatioCell(pEnroll, pRegular, pLast, c.cfg.Thresholds)
	}

	// Overall counts every organization exactly once.
	var oEnroll, oRegular, oLast int
	for id, v := range seen {
		oEnroll += enrollPerOrg[id]
		oRegular += v.regular
		oLast += v.lastSunday
	}
	rep.Overall = NewRatioCell(oEnroll, oRegular, oLast, c.cfg.Thresholds)
	rep.Warnings = warn.All()
	return rep, nil
}
