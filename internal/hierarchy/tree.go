// Package hierarchy models the reporting-eligible Program → Division →
// Organization structure. An organization may belong to several divisions at
// once; the Scope helpers encode the reporting rule that division totals
// count shared organizations fully while whole-tree totals count each
// organization exactly once.
package hierarchy

import "sort"

// Organization is a specific class, group, or service instance people
// attend.
type Organization struct {
	ID          int
	Name        string
	MemberCount int
}

// Division is a named grouping of organizations used for report sectioning.
type Division struct {
	ID            int
	Name          string
	ReportLine    string
	Order         int
	Organizations []Organization
}

// Program is a top-level ministry category with a defined weekly
// attribution window, expressed as signed hour offsets from midnight of the
// reporting Sunday.
type Program struct {
	ID              int
	Name            string
	Display         string
	Order           int
	Services        []ServiceTime
	StartHourOffset int
	EndHourOffset   int
	Divisions       []Division
}

// Tree is the full reporting hierarchy for one report run. It is a
// read-only snapshot; nothing mutates it after Load.
type Tree struct {
	Programs []Program
}

// OrgIDs returns the division's organization ids. Within one division an
// organization appears only once.
func (d *Division) OrgIDs() []int {
	ids := make([]int, 0, len(d.Organizations))
	for _, o := range d.Organizations {
		ids = append(ids, o.ID)
	}
	return ids
}

// OrgIDs returns the program's organization ids with multiplicity: an
// organization shared by two of the program's divisions appears twice.
// Deduplication happens at whole-tree level only.
func (p *Program) OrgIDs() []int {
	var ids []int
	for i := range p.Divisions {
		ids = append(ids, p.Divisions[i].OrgIDs()...)
	}
	return ids
}

// OrgIDs returns every organization id in the tree exactly once.
func (t *Tree) OrgIDs() []int {
	seen := make(map[int]bool)
	var ids []int
	for pi := range t.Programs {
		for di := range t.Programs[pi].Divisions {
			for _, o := range t.Programs[pi].Divisions[di].Organizations {
				if !seen[o.ID] {
					seen[o.ID] = true
					ids = append(ids, o.ID)
				}
			}
		}
	}
	sort.Ints(ids)
	return ids
}

// Scope narrows an aggregation to one node of the hierarchy. OrgIDs carries
// multiplicity: summing a scope's per-organization values honors the
// division-level full-count rule, while UniqueOrgIDs is what goes into the
// store query.
type Scope struct {
	Name    string
	Program *Program // set for program scope; its hour offsets clip windows
	OrgIDs  []int
}

// UniqueOrgIDs returns the scope's organization ids deduplicated, for use
// in store queries.
func (s Scope) UniqueOrgIDs() []int {
	seen := make(map[int]bool, len(s.OrgIDs))
	var ids []int
	for _, id := range s.OrgIDs {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids
}

// Multiplicity returns how many times each organization id participates in
// the scope.
func (s Scope) Multiplicity() map[int]int {
	m := make(map[int]int, len(s.OrgIDs))
	for _, id := range s.OrgIDs {
		m[id]++
	}
	return m
}

// ScopeOrg scopes to a single organization.
func ScopeOrg(o Organization) Scope {
	return Scope{Name: o.Name, OrgIDs: []int{o.ID}}
}

// ScopeDivision scopes to one division's organizations.
func ScopeDivision(d *Division) Scope {
	return Scope{Name: d.Name, OrgIDs: d.OrgIDs()}
}

// ScopeProgram scopes to one program. Organizations shared between the
// program's divisions keep their multiplicity, and the program's hour
// offsets apply to attendance windows.
func ScopeProgram(p *Program) Scope {
	return Scope{Name: p.Name, Program: p, OrgIDs: p.OrgIDs()}
}

// ScopeTree scopes to the whole tree with each organization counted exactly
// once.
func ScopeTree(t *Tree) Scope {
	return Scope{Name: "Overall", OrgIDs: t.OrgIDs()}
}
