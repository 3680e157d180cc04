package hierarchy

import (
	"context"
	"fmt"
	"sort"

	"flock-insights/internal/churchdb"

	"github.com/rs/zerolog/log"
)

// Repository loads the reporting hierarchy from the store. Load is called
// once per report run; the resulting tree is a read-only snapshot.
type Repository struct {
	store churchdb.Store
}

// NewRepository wraps a store.
func NewRepository(store churchdb.Store) *Repository {
	return &Repository{store: store}
}

// Load builds the Program → Division → Organization tree from the
// reporting-eligible rows. Programs whose report-group label fails to parse
// are skipped with a warning log; divisions and organizations arrive
// pre-filtered by the store contract.
func (r *Repository) Load(ctx context.Context) (*Tree, error) {
	rows, err := r.store.ListReportableHierarchy(ctx)
	if err != nil {
		return nil, fmt.Errorf("hierarchy load: %w", err)
	}

	programs := make(map[int]*Program)
	divisions := make(map[int]*Division)
	divisionOwner := make(map[int]int) // division id -> program id

	for _, row := range rows {
		p, ok := programs[row.ProgramID]
		if !ok {
			order, display, services, good := ParseReportGroup(row.ReportGroup)
			if !good {
				log.Warn().Int("programId", row.ProgramID).Str("label", row.ReportGroup).
					Msg("Skipping program with unparseable report group")
				continue
			}
			if display == "" {
				display = row.ProgramName
			}
			p = &Program{
				ID:              row.ProgramID,
				Name:            row.ProgramName,
				Display:         display,
				Order:           order,
				Services:        services,
				StartHourOffset: row.StartHourOffset,
				EndHourOffset:   row.EndHourOffset,
			}
			programs[row.ProgramID] = p
		}

		d, ok := divisions[row.DivisionID]
		if !ok {
			d = &Division{
				ID:         row.DivisionID,
				Name:       row.DivisionName,
				ReportLine: row.ReportLine,
				Order:      ParseOrderToken(row.ReportLine),
			}
			divisions[row.DivisionID] = d
			divisionOwner[row.DivisionID] = row.ProgramID
		}

		d.Organizations = append(d.Organizations, Organization{
			ID:          row.OrgID,
			Name:        row.OrgName,
			MemberCount: row.MemberCount,
		})
	}

	tree := &Tree{}
	for divID, d := range divisions {
		p, ok := programs[divisionOwner[divID]]
		if !ok {
			continue
		}
		sort.Slice(d.Organizations, func(i, j int) bool {
			return d.Organizations[i].Name < d.Organizations[j].Name
		})
		p.Divisions = append(p.Divisions, *d)
	}
	for _, p := range programs {
		sort.Slice(p.Divisions, func(i, j int) bool {
			if p.Divisions[i].Order != p.Divisions[j].Order {
				return p.Divisions[i].Order < p.Divisions[j].Order
			}
			return p.Divisions[i].Name < p.Divisions[j].Name
		})
		tree.Programs = append(tree.Programs, *p)
	}
	sort.Slice(tree.Programs, func(i, j int) bool {
		if tree.Programs[i].Order != tree.Programs[j].Order {
			return tree.Programs[i].Order < tree.Programs[j].Order
		}
		return tree.Programs[i].Name < tree.Programs[j].Name
	})

	log.Debug().Int("programs", len(tree.Programs)).Int("organizations", len(tree.OrgIDs())).
		Msg("Loaded reporting hierarchy")
	return tree, nil
}
