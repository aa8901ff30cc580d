package export

import (
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/warn-cli/internal/model"
	"github.com/sells-group/warn-cli/internal/table"
)

// NumericThreshold is the share of non-empty values that must parse as numbers
// for a column to be treated as numeric.
const NumericThreshold = 0.8

// HasImpactsColumn is appended by AllFacilities.
const HasImpactsColumn = "hasImpacts"

// JoinStats summarizes an AllFacilities run.
type JoinStats struct {
	CombinedFacilities int
	WithImpacts        int
	FilledWithZeros    int
	NumericColumns     []string
}

// NumericColumns returns, in header order, the columns other than skip whose
// non-empty values are at least NumericThreshold numeric. Columns with no
// non-empty values are not numeric.
func NumericColumns(t *table.Table, skip string) []string {
	var out []string
	for _, col := range t.Header {
		if col == skip {
			continue
		}
		hits, total := 0, 0
		for _, r := range t.Rows {
			v := r.Get(col)
			if v == "" {
				continue
			}
			total++
			if _, ok := model.ParseCount(v); ok {
				hits++
			}
		}
		if total > 0 && float64(hits)/float64(total) >= NumericThreshold {
			out = append(out, col)
		}
	}
	return out
}

// CombinedFacilityIDs returns the distinct, trimmed, sorted facility IDs of ds.
func CombinedFacilityIDs(ds *model.CombinedDataset) []string {
	seen := map[string]struct{}{}
	for _, f := range ds.Facilities {
		if id := strings.TrimSpace(f.FacilityID); id != "" {
			seen[id] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for id := range seen {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// AllFacilities left-joins the authoritative facility list onto an
// impact-driven rollup. Every ID appears exactly once. Matched rows are copied
// with hasImpacts=true; unmatched IDs get 0 in every numeric column, blank
// elsewhere, and hasImpacts=false. Rollup rows for IDs outside the list are
// dropped. Output is sorted by the totalAffected column descending when the
// rollup has one, else by facility ID.
func AllFacilities(facilityIDs []string, rollup *table.Table) (*table.Table, JoinStats, error) {
	if len(rollup.Header) == 0 {
		return nil, JoinStats{}, eris.New("export: facility rollup has no header")
	}
	if len(facilityIDs) == 0 {
		return nil, JoinStats{}, eris.New("export: no facility IDs in combined dataset")
	}

	facCol, ok := rollup.Lookup("facilityId")
	if !ok {
		facCol = rollup.Header[0]
	}

	byID := make(map[string]table.Row, len(rollup.Rows))
	for _, r := range rollup.Rows {
		if id := r.Get(facCol); id != "" {
			byID[id] = r
		}
	}
	numeric := NumericColumns(rollup, facCol)

	header := append([]string{}, rollup.Header...)
	if !rollup.Has(HasImpactsColumn) {
		header = append(header, HasImpactsColumn)
	}

	stats := JoinStats{CombinedFacilities: len(facilityIDs), WithImpacts: len(byID), NumericColumns: numeric}
	out := &table.Table{Header: header, Rows: make([]table.Row, 0, len(facilityIDs))}
	for _, id := range facilityIDs {
		row := table.Row{}
		if existing, ok := byID[id]; ok {
			for k, v := range existing {
				row[k] = v
			}
			row[HasImpactsColumn] = "true"
		} else {
			stats.FilledWithZeros++
			row[facCol] = id
			for _, col := range numeric {
				row[col] = "0"
			}
			row[HasImpactsColumn] = "false"
		}
		out.Rows = append(out.Rows, row)
	}

	if totalCol, ok := rollup.Lookup("totalAffected"); ok {
		sort.SliceStable(out.Rows, func(i, j int) bool {
			return rowInt(out.Rows[i], totalCol) > rowInt(out.Rows[j], totalCol)
		})
	} else {
		sort.SliceStable(out.Rows, func(i, j int) bool {
			return out.Rows[i][facCol] < out.Rows[j][facCol]
		})
	}
	return out, stats, nil
}

func rowInt(r table.Row, col string) int {
	n, _ := model.ParseCount(r.Get(col))
	return n
}

// FacilityRollupTable converts typed rollup rows to a generic table.
func FacilityRollupTable(rows []FacilityRollupRow) *table.Table {
	t := &table.Table{Header: []string{"facilityId", "totalAffected", "jobTitleCount", "noticeCount"}}
	for _, r := range rows {
		t.Rows = append(t.Rows, table.Row{
			"facilityId":    r.FacilityID,
			"totalAffected": strconv.Itoa(r.TotalAffected),
			"jobTitleCount": strconv.Itoa(r.JobTitleCount),
			"noticeCount":   strconv.Itoa(r.NoticeCount),
		})
	}
	return t
}
