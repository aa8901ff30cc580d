// Package combine merges validated notices into one combined dataset with
// deduplicated facilities and cross-notice job-title indices.
package combine

import (
	"sort"
	"strings"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/warn-cli/internal/model"
)

// Stage is the QualityLog stage name for aggregation issues.
const Stage = "combine"

// Options configures Combine.
type Options struct {
	// Now stamps generatedAt. Defaults to time.Now.
	Now func() time.Time
	// Quality receives non-numeric affectedCount issues. May be nil.
	Quality *model.QualityLog
}

// Combine aggregates notices, in order, into a CombinedFile. It fails only when
// a job-title impact has no resolvable title.
func Combine(notices []model.Notice, opts Options) (*model.CombinedFile, error) {
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	titles, err := FoldTitles(notices, opts.Quality)
	if err != nil {
		return nil, err
	}

	return &model.CombinedFile{
		Version:     model.SchemaVersion,
		GeneratedAt: model.Timestamp(now()),
		CombinedDataset: model.CombinedDataset{
			Notices:    notices,
			Facilities: Facilities(notices),
			JobTitles:  titles,
		},
	}, nil
}

// Facilities builds the canonical facility list sorted by facilityId.
//
// The first impact seen for an ID defines it. An impact whose notes are blank
// only holds the slot until a later impact supplies notes; after that the
// definition never changes. REMOTE_WA always gets its fixed definition.
func Facilities(notices []model.Notice) []model.Facility {
	defs := map[string]model.Facility{}
	hasNotes := map[string]bool{}

	for _, n := range notices {
		for _, imp := range n.Facilities {
			id := imp.FacilityID
			notes := strings.TrimSpace(imp.Notes)
			if _, seen := defs[id]; seen && (hasNotes[id] || notes == "") {
				continue
			}
			addr := ParseAddress(notes)
			defs[id] = model.Facility{FacilityID: id, Label: Label(id, addr), Address: addr}
			hasNotes[id] = notes != ""
		}
	}

	if _, ok := defs[model.RemoteFacilityID]; ok {
		defs[model.RemoteFacilityID] = RemoteFacility()
	}

	out := make([]model.Facility, 0, len(defs))
	for _, f := range defs {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].FacilityID < out[j].FacilityID })
	return out
}

// titleAccumulator holds the per-run running totals of the title fold.
type titleAccumulator struct {
	total           map[string]int
	titleFacilities map[string]map[string]struct{}
	facilityTitles  map[string]map[string]struct{}
}

func newTitleAccumulator() *titleAccumulator {
	return &titleAccumulator{
		total:           map[string]int{},
		titleFacilities: map[string]map[string]struct{}{},
		facilityTitles:  map[string]map[string]struct{}{},
	}
}

func (a *titleAccumulator) add(title, facilityID string, count int) {
	a.total[title] += count
	if facilityID == "" {
		return
	}
	addToSet(a.titleFacilities, title, facilityID)
	addToSet(a.facilityTitles, facilityID, title)
}

func (a *titleAccumulator) snapshot() model.JobTitleIndex {
	idx := model.JobTitleIndex{
		CanonicalTitles: make([]model.CanonicalTitle, 0, len(a.total)),
		ByFacility:      make(map[string][]string, len(a.facilityTitles)),
	}
	for _, title := range sortedKeys(a.total) {
		facs := sortedSet(a.titleFacilities[title])
		idx.CanonicalTitles = append(idx.CanonicalTitles, model.CanonicalTitle{
			Title:         title,
			AffectedCount: a.total[title],
			FacilityCount: len(facs),
			FacilityIDs:   facs,
		})
	}
	for fid, set := range a.facilityTitles {
		idx.ByFacility[fid] = sortedSet(set)
	}
	return idx
}

// FoldTitles resolves every impact's title and accumulates totals. An absent or
// non-numeric affectedCount contributes 0; non-numeric values are recorded in q.
func FoldTitles(notices []model.Notice, q *model.QualityLog) (model.JobTitleIndex, error) {
	acc := newTitleAccumulator()
	for _, n := range notices {
		for i, imp := range n.JobTitleImpacts {
			title, err := imp.Title()
			if err != nil {
				return model.JobTitleIndex{}, eris.Wrapf(err, "combine: notice %s jobTitleImpacts[%d]", n.NoticeID, i)
			}
			if imp.AffectedCount.Present && !imp.AffectedCount.Numeric {
				q.Record(Stage, model.IssueNonNumeric, n.NoticeID+"/"+imp.FacilityID+"/"+title, imp.AffectedCount.Raw())
			}
			acc.add(title, imp.FacilityID, imp.AffectedCount.Int())
		}
	}
	return acc.snapshot(), nil
}

func addToSet(m map[string]map[string]struct{}, key, val string) {
	set, ok := m[key]
	if !ok {
		set = map[string]struct{}{}
		m[key] = set
	}
	set[val] = struct{}{}
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for v := range set {
		out = append(out, v)
	}
	sort.Strings(out)
	return out
}

func sortedKeys[V any](m map[string]V) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
