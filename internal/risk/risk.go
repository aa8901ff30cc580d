// Package risk answers facility and job-title exposure queries over the
// exported impact tables.
package risk

import (
	"sort"

	"github.com/sells-group/warn-cli/internal/export"
	"github.com/sells-group/warn-cli/internal/geo"
	"github.com/sells-group/warn-cli/internal/geocodes"
	"github.com/sells-group/warn-cli/internal/model"
	"github.com/sells-group/warn-cli/internal/table"
)

// Data is the input to every query. It is never modified.
type Data struct {
	Impacts []export.ImpactRow
	Rollup  *table.Table
	// Locations is keyed by normalized facility ID. Nil when no geocode file
	// was available.
	Locations map[string]geocodes.Location
}

// Query selects a facility and an exact job title.
type Query struct {
	Facility string  `json:"facility"`
	Title    string  `json:"title"`
	Top      int     `json:"top"`
	Nearest  int     `json:"nearest"`
	RadiusKm float64 `json:"radiusKm,omitempty"`
}

// Match is the exact (facility, title) total and the notices behind it.
type Match struct {
	Total   int      `json:"total"`
	Notices []string `json:"notices"`
}

// TitleTotal is one title's total at a facility.
type TitleTotal struct {
	Title    string `json:"title"`
	Affected int    `json:"affected"`
}

// FacilityTotal is one facility's total for a title.
type FacilityTotal struct {
	FacilityID string   `json:"facilityId"`
	Affected   int      `json:"affected"`
	Notices    []string `json:"notices"`
}

// Neighbor is a facility where the title appears, with its distance from the
// queried facility.
type Neighbor struct {
	FacilityID string  `json:"facilityId"`
	DistanceKm float64 `json:"distanceKm"`
	Affected   int     `json:"affected"`
}

// Assessment is the full answer to a Query.
type Assessment struct {
	Query         Query           `json:"query"`
	Found         bool            `json:"found"`
	Facility      table.Row       `json:"facility,omitempty"`
	DirectMatch   Match           `json:"directMatch"`
	TopTitles     []TitleTotal    `json:"topTitles"`
	TopFacilities []FacilityTotal `json:"topFacilities"`
	// Nearby is nil when the queried facility has no geocode.
	Nearby []Neighbor `json:"nearby,omitempty"`
}

// FacilityMetadata returns the rollup row whose facilityId equals id.
func FacilityMetadata(id string, rollup *table.Table) (table.Row, bool) {
	if rollup == nil {
		return nil, false
	}
	col, ok := rollup.Lookup("facilityId")
	if !ok {
		return nil, false
	}
	for _, r := range rollup.Rows {
		if r.Get(col) == id {
			return r, true
		}
	}
	return nil, false
}

// DirectMatch sums affectedCount over rows at facility whose resolved title is
// exactly title.
func DirectMatch(facility, title string, impacts []export.ImpactRow) Match {
	m := Match{Notices: []string{}}
	notices := map[string]struct{}{}
	for _, r := range impacts {
		if r.FacilityID != facility || r.Title() != title {
			continue
		}
		m.Total += r.AffectedCount
		if r.NoticeID != "" {
			notices[r.NoticeID] = struct{}{}
		}
	}
	m.Notices = sortedKeys(notices)
	return m
}

// TopTitlesAtFacility totals every title at facility, descending, ties in
// first-encounter order. n<=0 returns all.
func TopTitlesAtFacility(facility string, impacts []export.ImpactRow, n int) []TitleTotal {
	out := []TitleTotal{}
	pos := map[string]int{}
	for _, r := range impacts {
		if r.FacilityID != facility {
			continue
		}
		title := r.Title()
		if title == "" {
			continue
		}
		i, ok := pos[title]
		if !ok {
			i = len(out)
			pos[title] = i
			out = append(out, TitleTotal{Title: title})
		}
		out[i].Affected += r.AffectedCount
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Affected > out[j].Affected })
	return truncate(out, n)
}

// TopFacilitiesForTitle totals title at every facility, descending, ties in
// first-encounter order, with each facility's contributing notices. n<=0
// returns all.
func TopFacilitiesForTitle(title string, impacts []export.ImpactRow, n int) []FacilityTotal {
	out := []FacilityTotal{}
	pos := map[string]int{}
	notices := map[string]map[string]struct{}{}
	for _, r := range impacts {
		if r.Title() != title || r.FacilityID == "" {
			continue
		}
		i, ok := pos[r.FacilityID]
		if !ok {
			i = len(out)
			pos[r.FacilityID] = i
			out = append(out, FacilityTotal{FacilityID: r.FacilityID})
			notices[r.FacilityID] = map[string]struct{}{}
		}
		out[i].Affected += r.AffectedCount
		if r.NoticeID != "" {
			notices[r.FacilityID][r.NoticeID] = struct{}{}
		}
	}
	for i := range out {
		out[i].Notices = sortedKeys(notices[out[i].FacilityID])
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Affected > out[j].Affected })
	return truncate(out, n)
}

// NearbyFacilities lists the other geocoded facilities where title appears,
// nearest first. radiusKm<=0 disables the radius filter and n<=0 the limit.
// ok is false when facility itself has no geocode.
func NearbyFacilities(facility, title string, impacts []export.ImpactRow, locs map[string]geocodes.Location, n int, radiusKm float64) ([]Neighbor, bool) {
	origin, ok := locs[model.NormalizeFacilityID(facility)]
	if !ok {
		return nil, false
	}
	self := model.NormalizeFacilityID(facility)

	out := []Neighbor{}
	for _, ft := range TopFacilitiesForTitle(title, impacts, 0) {
		id := model.NormalizeFacilityID(ft.FacilityID)
		if id == self {
			continue
		}
		loc, ok := locs[id]
		if !ok {
			continue
		}
		d := geo.HaversineKm(origin.Point, loc.Point)
		if radiusKm > 0 && d > radiusKm {
			continue
		}
		out = append(out, Neighbor{FacilityID: ft.FacilityID, DistanceKm: d, Affected: ft.Affected})
	}
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].DistanceKm != out[j].DistanceKm {
			return out[i].DistanceKm < out[j].DistanceKm
		}
		return out[i].FacilityID < out[j].FacilityID
	})
	return truncate(out, n), true
}

// Assess runs every query for q against d.
func Assess(q Query, d *Data) Assessment {
	a := Assessment{
		Query:         q,
		DirectMatch:   DirectMatch(q.Facility, q.Title, d.Impacts),
		TopTitles:     TopTitlesAtFacility(q.Facility, d.Impacts, q.Top),
		TopFacilities: TopFacilitiesForTitle(q.Title, d.Impacts, q.Top),
	}
	a.Facility, a.Found = FacilityMetadata(q.Facility, d.Rollup)
	if d.Locations != nil {
		a.Nearby, _ = NearbyFacilities(q.Facility, q.Title, d.Impacts, d.Locations, q.Nearest, q.RadiusKm)
	}
	return a
}

func truncate[T any](s []T, n int) []T {
	if n > 0 && len(s) > n {
		return s[:n]
	}
	return s
}

func sortedKeys(m map[string]struct{}) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
