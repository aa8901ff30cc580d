// Package export derives the flat rollup tables, GeoJSON, and workbook views
// from a combined dataset or from a previously exported impacts table.
package export

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/warn-cli/internal/model"
	"github.com/sells-group/warn-cli/internal/table"
)

// Stage is the QualityLog stage name for export issues.
const Stage = "export"

// ImpactsHeader is the row-level impacts CSV header.
var ImpactsHeader = []string{"noticeId", "facilityId", "jobTitleRaw", "jobTitleCanonical", "affectedCount"}

// ImpactRow is one (notice, facility, title) fact.
type ImpactRow struct {
	NoticeID          string `csv:"noticeId"`
	FacilityID        string `csv:"facilityId"`
	JobTitleRaw       string `csv:"jobTitleRaw"`
	JobTitleCanonical string `csv:"jobTitleCanonical"`
	AffectedCount     int    `csv:"affectedCount"`
}

// Title is the row's resolved title: canonical, else raw.
func (r ImpactRow) Title() string {
	if t := strings.TrimSpace(r.JobTitleCanonical); t != "" {
		return t
	}
	return strings.TrimSpace(r.JobTitleRaw)
}

var (
	rawPolicy       = []model.TitleField{model.TitleFieldRaw, model.TitleFieldTitle}
	canonicalPolicy = []model.TitleField{model.TitleFieldCanonical, model.TitleFieldTitle}
)

// Impacts flattens every notice's job-title impacts in source order. The raw
// column is jobTitleRaw else jobTitle; the canonical column is
// jobTitleCanonical else jobTitle. Absent and non-numeric counts become 0.
func Impacts(ds *model.CombinedDataset, q *model.QualityLog) []ImpactRow {
	var out []ImpactRow
	for _, n := range ds.Notices {
		for _, imp := range n.JobTitleImpacts {
			raw, _, _ := model.ResolveTitle(imp.TitleFields, rawPolicy)
			canonical, _, _ := model.ResolveTitle(imp.TitleFields, canonicalPolicy)
			if imp.AffectedCount.Present && !imp.AffectedCount.Numeric {
				q.Record(Stage, model.IssueNonNumeric, n.NoticeID+"/"+imp.FacilityID, imp.AffectedCount.Raw())
			}
			out = append(out, ImpactRow{
				NoticeID:          n.NoticeID,
				FacilityID:        imp.FacilityID,
				JobTitleRaw:       raw,
				JobTitleCanonical: canonical,
				AffectedCount:     imp.AffectedCount.Int(),
			})
		}
	}
	return out
}

// WriteImpacts stores rows as the impacts CSV.
func WriteImpacts(path string, rows []ImpactRow) error {
	return table.WriteRecords(path, rows)
}

// requiredImpactColumns must be present for an impacts table to be usable.
var requiredImpactColumns = []string{"noticeId", "facilityId", "jobTitleCanonical", "affectedCount"}

// ImpactsFromTable converts a loaded impacts table. Values are trimmed; a
// missing jobTitleRaw column is tolerated. Non-numeric counts become 0 and are
// recorded in q.
func ImpactsFromTable(t *table.Table, q *model.QualityLog) ([]ImpactRow, error) {
	var missing []string
	for _, col := range requiredImpactColumns {
		if !t.Has(col) {
			missing = append(missing, col)
		}
	}
	if len(missing) > 0 {
		return nil, eris.Errorf("export: impacts table missing required columns %v (found %v)", missing, t.Header)
	}

	out := make([]ImpactRow, 0, len(t.Rows))
	for i, r := range t.Rows {
		out = append(out, ImpactRow{
			NoticeID:          r.Get("noticeId"),
			FacilityID:        r.Get("facilityId"),
			JobTitleRaw:       r.Get("jobTitleRaw"),
			JobTitleCanonical: r.Get("jobTitleCanonical"),
			AffectedCount:     cellInt(r.Get("affectedCount"), q, "row "+strconv.Itoa(i+1)),
		})
	}
	return out, nil
}

// LoadImpacts reads the impacts CSV at path.
func LoadImpacts(path string, q *model.QualityLog) ([]ImpactRow, error) {
	t, err := table.Read(path)
	if err != nil {
		return nil, err
	}
	rows, err := ImpactsFromTable(t, q)
	if err != nil {
		return nil, &model.DataLoadError{Path: path, Err: err}
	}
	return rows, nil
}

// cellInt parses a count cell. Blank is 0 without complaint; anything else that
// does not parse is 0 and recorded.
func cellInt(s string, q *model.QualityLog, key string) int {
	if s == "" {
		return 0
	}
	n, ok := model.ParseCount(s)
	if !ok {
		q.Record(Stage, model.IssueNonNumeric, key, s)
		return 0
	}
	return n
}
