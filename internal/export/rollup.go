package export

import (
	"sort"

	"github.com/sells-group/warn-cli/internal/model"
)

// FacilityRollupRow is one facility's totals in the impact-driven rollup.
type FacilityRollupRow struct {
	FacilityID    string `csv:"facilityId"`
	TotalAffected int    `csv:"totalAffected"`
	JobTitleCount int    `csv:"jobTitleCount"`
	NoticeCount   int    `csv:"noticeCount"`
}

// TitleRollupRow is one title's totals.
type TitleRollupRow struct {
	JobTitleCanonical string `csv:"jobTitleCanonical"`
	TotalAffected     int    `csv:"totalAffected"`
	FacilityCount     int    `csv:"facilityCount"`
	NoticeCount       int    `csv:"noticeCount"`
}

// NoticeSummaryRow is one notice's totals.
type NoticeSummaryRow struct {
	NoticeID        string `csv:"noticeId"`
	TotalAffected   int    `csv:"totalAffected"`
	TotalFacilities int    `csv:"totalFacilities"`
	TotalTitles     int    `csv:"totalTitles"`
}

// tally accumulates a total and two distinct-value sets for one key.
type tally struct {
	total int
	a     map[string]struct{}
	b     map[string]struct{}
}

type tallies map[string]*tally

func (t tallies) add(key string, count int, a, b string) {
	e, ok := t[key]
	if !ok {
		e = &tally{a: map[string]struct{}{}, b: map[string]struct{}{}}
		t[key] = e
	}
	e.total += count
	if a != "" {
		e.a[a] = struct{}{}
	}
	if b != "" {
		e.b[b] = struct{}{}
	}
}

// FacilityRollup totals rows per facility, sorted by totalAffected descending
// then facilityId ascending. Rows with a blank facility are ignored.
func FacilityRollup(rows []ImpactRow) []FacilityRollupRow {
	t := tallies{}
	for _, r := range rows {
		if r.FacilityID == "" {
			continue
		}
		t.add(r.FacilityID, r.AffectedCount, r.Title(), r.NoticeID)
	}

	out := make([]FacilityRollupRow, 0, len(t))
	for fid, e := range t {
		out = append(out, FacilityRollupRow{FacilityID: fid, TotalAffected: e.total, JobTitleCount: len(e.a), NoticeCount: len(e.b)})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].TotalAffected != out[j].TotalAffected {
			return out[i].TotalAffected > out[j].TotalAffected
		}
		return out[i].FacilityID < out[j].FacilityID
	})
	return out
}

// TitleRollupFromImpacts totals rows per resolved title, sorted by title.
// Rows whose title resolves blank are skipped.
func TitleRollupFromImpacts(rows []ImpactRow) []TitleRollupRow {
	t := tallies{}
	for _, r := range rows {
		title := r.Title()
		if title == "" {
			continue
		}
		t.add(title, r.AffectedCount, r.FacilityID, r.NoticeID)
	}
	return titleRows(t, nil)
}

// TitleRollupFromCombined totals the combined dataset's impacts per title
// directly from the notices, then adds zero rows for any title that only the
// canonical index knows about.
func TitleRollupFromCombined(ds *model.CombinedDataset) ([]TitleRollupRow, error) {
	t := tallies{}
	for _, n := range ds.Notices {
		for _, imp := range n.JobTitleImpacts {
			title, err := imp.Title()
			if err != nil {
				return nil, err
			}
			t.add(title, imp.AffectedCount.Int(), imp.FacilityID, n.NoticeID)
		}
	}
	extra := make([]string, 0, len(ds.JobTitles.CanonicalTitles))
	for _, ct := range ds.JobTitles.CanonicalTitles {
		extra = append(extra, ct.Title)
	}
	return titleRows(t, extra), nil
}

func titleRows(t tallies, extra []string) []TitleRollupRow {
	for _, title := range extra {
		if _, ok := t[title]; !ok && title != "" {
			t[title] = &tally{a: map[string]struct{}{}, b: map[string]struct{}{}}
		}
	}
	out := make([]TitleRollupRow, 0, len(t))
	for title, e := range t {
		out = append(out, TitleRollupRow{JobTitleCanonical: title, TotalAffected: e.total, FacilityCount: len(e.a), NoticeCount: len(e.b)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].JobTitleCanonical < out[j].JobTitleCanonical })
	return out
}

// NoticeSummary totals rows per notice, sorted by noticeId. Rows with a blank
// notice are skipped.
func NoticeSummary(rows []ImpactRow) []NoticeSummaryRow {
	t := tallies{}
	for _, r := range rows {
		if r.NoticeID == "" {
			continue
		}
		t.add(r.NoticeID, r.AffectedCount, r.FacilityID, r.Title())
	}
	out := make([]NoticeSummaryRow, 0, len(t))
	for id, e := range t {
		out = append(out, NoticeSummaryRow{NoticeID: id, TotalAffected: e.total, TotalFacilities: len(e.a), TotalTitles: len(e.b)})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].NoticeID < out[j].NoticeID })
	return out
}

// Mismatch is one title whose two rollups disagree.
type Mismatch struct {
	Title      string
	FromJSON   *TitleRollupRow
	FromTable  *TitleRollupRow
	Difference string
}

// CrossCheck compares two title rollups on every shared title and reports
// titles present in only one. Both inputs must come from the same notices.
func CrossCheck(fromJSON, fromTable []TitleRollupRow) []Mismatch {
	a := indexTitles(fromJSON)
	b := indexTitles(fromTable)

	titles := make([]string, 0, len(a)+len(b))
	for t := range a {
		titles = append(titles, t)
	}
	for t := range b {
		if _, ok := a[t]; !ok {
			titles = append(titles, t)
		}
	}
	sort.Strings(titles)

	var out []Mismatch
	for _, t := range titles {
		x, y := a[t], b[t]
		switch {
		case y == nil:
			if x.TotalAffected == 0 && x.FacilityCount == 0 && x.NoticeCount == 0 {
				continue
			}
			out = append(out, Mismatch{Title: t, FromJSON: x, Difference: "missing from impacts rollup"})
		case x == nil:
			out = append(out, Mismatch{Title: t, FromTable: y, Difference: "missing from combined rollup"})
		case x.TotalAffected != y.TotalAffected:
			out = append(out, Mismatch{Title: t, FromJSON: x, FromTable: y, Difference: "totalAffected"})
		case x.FacilityCount != y.FacilityCount:
			out = append(out, Mismatch{Title: t, FromJSON: x, FromTable: y, Difference: "facilityCount"})
		case x.NoticeCount != y.NoticeCount:
			out = append(out, Mismatch{Title: t, FromJSON: x, FromTable: y, Difference: "noticeCount"})
		}
	}
	return out
}

func indexTitles(rows []TitleRollupRow) map[string]*TitleRollupRow {
	out := make(map[string]*TitleRollupRow, len(rows))
	for i := range rows {
		out[rows[i].JobTitleCanonical] = &rows[i]
	}
	return out
}
