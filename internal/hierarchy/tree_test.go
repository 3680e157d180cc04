package hierarchy

import (
	"context"
	"reflect"
	"testing"

	"flock-insights/internal/churchdb"
)

// sharedOrgTree builds a tree where org 30 belongs to both divisions.
func sharedOrgTree() *Tree {
	orgA := Organization{ID: 10, Name: "Class A", MemberCount: 40}
	orgB := Organization{ID: 20, Name: "Class B", MemberCount: 60}
	shared := Organization{ID: 30, Name: "Shared Choir", MemberCount: 25}

	return &Tree{Programs: []Program{{
		ID: 1, Name: "Adults", Display: "Adults", Order: 1,
		StartHourOffset: -144, EndHourOffset: 24,
		Divisions: []Division{
			{ID: 100, Name: "D1", Organizations: []Organization{orgA, shared}},
			{ID: 200, Name: "D2", Organizations: []Organization{orgB, shared}},
		},
	}}}
}

func TestScopeMultiplicityAsymmetry(t *testing.T) {
	tree := sharedOrgTree()
	p := &tree.Programs[0]

	// Program scope keeps the shared org's multiplicity.
	ps := ScopeProgram(p)
	if got := ps.Multiplicity()[30]; got != 2 {
		t.Errorf("program scope multiplicity of shared org = %d, want 2", got)
	}
	if got := len(ps.UniqueOrgIDs()); got != 3 {
		t.Errorf("program scope unique orgs = %d, want 3", got)
	}

	// Whole-tree scope counts the shared org exactly once.
	ts := ScopeTree(tree)
	if got := ts.Multiplicity()[30]; got != 1 {
		t.Errorf("tree scope multiplicity of shared org = %d, want 1", got)
	}
	if !reflect.DeepEqual(ts.OrgIDs, []int{10, 20, 30}) {
		t.Errorf("tree org ids = %v", ts.OrgIDs)
	}

	// Each division sees the shared org fully.
	for i := range p.Divisions {
		ds := ScopeDivision(&p.Divisions[i])
		if got := ds.Multiplicity()[30]; got != 1 {
			t.Errorf("division %s multiplicity of shared org = %d, want 1", p.Divisions[i].Name, got)
		}
	}
}

func TestRepositoryLoad(t *testing.T) {
	store := churchdb.NewMemStore()
	store.Hierarchy = []churchdb.HierarchyRow{
		{ProgramID: 1, ProgramName: "Adults", ReportGroup: "2 Adults (9:20 AM|11:00 AM)",
			StartHourOffset: -144, EndHourOffset: 24,
			DivisionID: 100, DivisionName: "Couples", ReportLine: "1",
			OrgID: 10, OrgName: "Sunday Class", MemberCount: 40},
		{ProgramID: 1, ProgramName: "Adults", ReportGroup: "2 Adults (9:20 AM|11:00 AM)",
			StartHourOffset: -144, EndHourOffset: 24,
			DivisionID: 100, DivisionName: "Couples", ReportLine: "1",
			OrgID: 20, OrgName: "Evening Class", MemberCount: 15},
		{ProgramID: 2, ProgramName: "Children", ReportGroup: "1 Children (9:20 AM)",
			StartHourOffset: 0, EndHourOffset: 24,
			DivisionID: 200, DivisionName: "Elementary", ReportLine: "1",
			OrgID: 30, OrgName: "Grade 1", MemberCount: 12},
		// Ineligible rows are filtered by the store contract; a blank report
		// group must never survive to the tree.
		{ProgramID: 3, ProgramName: "Hidden", ReportGroup: "",
			DivisionID: 300, DivisionName: "X", ReportLine: "1",
			OrgID: 40, OrgName: "Hidden Org"},
	}

	tree, err := NewRepository(store).Load(context.Background())
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if len(tree.Programs) != 2 {
		t.Fatalf("got %d programs, want 2", len(tree.Programs))
	}
	// Order token sorts Children (1) before Adults (2).
	if tree.Programs[0].Name != "Children" || tree.Programs[1].Name != "Adults" {
		t.Errorf("program order = %s, %s", tree.Programs[0].Name, tree.Programs[1].Name)
	}

	adults := tree.Programs[1]
	if len(adults.Services) != 2 {
		t.Errorf("adults services = %+v", adults.Services)
	}
	if len(adults.Divisions) != 1 || len(adults.Divisions[0].Organizations) != 2 {
		t.Errorf("adults divisions = %+v", adults.Divisions)
	}
	if adults.StartHourOffset != -144 || adults.EndHourOffset != 24 {
		t.Errorf("offsets = %d..%d", adults.StartHourOffset, adults.EndHourOffset)
	}

	if got := tree.OrgIDs(); !reflect.DeepEqual(got, []int{10, 20, 30}) {
		t.Errorf("tree org ids = %v", got)
	}
}
