package geocodes

import (
	"sort"
	"strings"

	"github.com/sells-group/warn-cli/internal/geo"
)

// Problem kinds reported by Check.
const (
	ProblemParseError = "parse_error"
	ProblemOutOfRange = "out_of_range"
)

// Problem is one row that failed a sanity check.
type Problem struct {
	FacilityID string
	Kind       string
	Lat        string
	Lon        string
}

// CheckReport summarizes geocode table quality.
type CheckReport struct {
	Rows         int
	Problems     []Problem
	UniquePoints int
	// Duplicates lists coordinates shared by two or more rows, largest group first.
	Duplicates []geo.Group
}

// Check reports rows with unparseable or out-of-range coordinates and groups of
// rows sharing an identical coordinate. It never modifies anything.
func Check(rows []Row) CheckReport {
	rep := CheckReport{Rows: len(rows)}

	var ids []string
	var points []geo.Point
	unique := map[string]struct{}{}
	for _, r := range rows {
		fid := strings.TrimSpace(r.FacilityID)
		p, err := r.Point()
		if err != nil {
			rep.Problems = append(rep.Problems, Problem{FacilityID: fid, Kind: ProblemParseError, Lat: r.Lat, Lon: r.Lon})
			continue
		}
		if !geo.InRange(p) {
			rep.Problems = append(rep.Problems, Problem{FacilityID: fid, Kind: ProblemOutOfRange, Lat: r.Lat, Lon: r.Lon})
		}
		ids = append(ids, fid)
		points = append(points, p)
		unique[geo.Key(p)] = struct{}{}
	}

	rep.UniquePoints = len(unique)
	rep.Duplicates = geo.DuplicateGroups(ids, points)
	sort.SliceStable(rep.Duplicates, func(i, j int) bool {
		return len(rep.Duplicates[i].IDs) > len(rep.Duplicates[j].IDs)
	})
	return rep
}
