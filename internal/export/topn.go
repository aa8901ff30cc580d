package export

import (
	"sort"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/warn-cli/internal/model"
	"github.com/sells-group/warn-cli/internal/table"
)

// Candidate column names, tried case-insensitively in order.
var (
	TitleCandidates      = []string{"jobTitleCanonical", "job_title_canonical", "title", "canonicalTitle"}
	FacilityCandidates   = []string{"facilityId", "facility_id", "facility", "site", "code"}
	TotalCandidates      = []string{"totalAffected", "total_affected", "affectedTotal", "affected_total", "affected", "total"}
	errTooFewColumns     = eris.New("export: table needs at least 2 columns to rank")
	defaultTopTitles     = 25
	defaultTopFacilities = 15
)

// TopResult describes a ranking run.
type TopResult struct {
	KeyColumn   string
	TotalColumn string
	InputRows   int
	OutputRows  int
	NonNumeric  int
}

// DetectColumn returns the first candidate present in t (case-insensitive),
// else the column at fallback.
func DetectColumn(t *table.Table, candidates []string, fallback int) (string, error) {
	for _, c := range candidates {
		if col, ok := t.Lookup(c); ok {
			return col, nil
		}
	}
	if len(t.Header) <= fallback {
		return "", errTooFewColumns
	}
	return t.Header[fallback], nil
}

// TopN returns the first n rows of t ordered by totalCol descending; n<=0
// keeps every row. Ties keep input order. Non-numeric totals sort as 0 and are
// counted and recorded in q. The header is preserved.
func TopN(t *table.Table, totalCol string, n int, q *model.QualityLog) (*table.Table, int) {
	type ranked struct {
		total int
		row   table.Row
	}
	rows := make([]ranked, 0, len(t.Rows))
	bad := 0
	for i, r := range t.Rows {
		v, ok := model.ParseCount(r.Get(totalCol))
		if !ok {
			bad++
			q.Record(Stage, model.IssueNonNumeric, totalCol+" row "+strconv.Itoa(i+1), r[totalCol])
		}
		rows = append(rows, ranked{total: v, row: r})
	}
	sort.SliceStable(rows, func(i, j int) bool { return rows[i].total > rows[j].total })
	if n > 0 && len(rows) > n {
		rows = rows[:n]
	}

	out := &table.Table{Header: append([]string{}, t.Header...), Rows: make([]table.Row, 0, len(rows))}
	for _, r := range rows {
		out.Rows = append(out.Rows, r.row)
	}
	return out, bad
}

// TopTitles ranks a title rollup. n<0 selects the default of 25; 0 keeps all.
func TopTitles(t *table.Table, n int, q *model.QualityLog) (*table.Table, TopResult, error) {
	if len(t.Header) < 2 {
		return nil, TopResult{}, errTooFewColumns
	}
	key, err := DetectColumn(t, TitleCandidates, 0)
	if err != nil {
		return nil, TopResult{}, err
	}
	total, err := DetectColumn(t, TotalCandidates, 1)
	if err != nil {
		return nil, TopResult{}, err
	}
	if n < 0 {
		n = defaultTopTitles
	}
	out, bad := TopN(t, total, n, q)
	return out, TopResult{KeyColumn: key, TotalColumn: total, InputRows: len(t.Rows), OutputRows: len(out.Rows), NonNumeric: bad}, nil
}

// TopFacilities ranks a facility rollup. The detected total column is used if
// at least NumericThreshold of its rows parse; otherwise the most numeric
// column other than the facility column is chosen. n<0 selects the default of
// 15; 0 keeps all.
func TopFacilities(t *table.Table, n int, q *model.QualityLog) (*table.Table, TopResult, error) {
	if len(t.Header) < 2 {
		return nil, TopResult{}, errTooFewColumns
	}
	key, err := DetectColumn(t, FacilityCandidates, 0)
	if err != nil {
		return nil, TopResult{}, err
	}
	guess, err := DetectColumn(t, TotalCandidates, 1)
	if err != nil {
		return nil, TopResult{}, err
	}
	total := chooseTotalColumn(t, key, guess)
	if n < 0 {
		n = defaultTopFacilities
	}
	out, bad := TopN(t, total, n, q)
	return out, TopResult{KeyColumn: key, TotalColumn: total, InputRows: len(t.Rows), OutputRows: len(out.Rows), NonNumeric: bad}, nil
}

func chooseTotalColumn(t *table.Table, key, guess string) string {
	if len(t.Rows) > 0 && numericRatio(t, guess) >= NumericThreshold {
		return guess
	}
	best, bestRatio := guess, -1.0
	for _, col := range t.Header {
		if col == key {
			continue
		}
		if r := numericRatio(t, col); r > bestRatio {
			best, bestRatio = col, r
		}
	}
	return best
}

// numericRatio is the share of all rows (blank included) whose value in col parses.
func numericRatio(t *table.Table, col string) float64 {
	if len(t.Rows) == 0 {
		return 0
	}
	hits := 0
	for _, r := range t.Rows {
		if _, ok := model.ParseCount(r.Get(col)); ok {
			hits++
		}
	}
	return float64(hits) / float64(len(t.Rows))
}
