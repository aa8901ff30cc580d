package export

import (
	"sort"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/geojson"

	"github.com/sells-group/warn-cli/internal/geo"
	"github.com/sells-group/warn-cli/internal/geocodes"
	"github.com/sells-group/warn-cli/internal/model"
	"github.com/sells-group/warn-cli/internal/store"
	"github.com/sells-group/warn-cli/internal/table"
)

// GeoJSONOptions controls GeoJSON export.
type GeoJSONOptions struct {
	// TopTitles is the number of titles attached to each feature. Negative
	// selects 5.
	TopTitles     int
	IncludeRemote bool
}

// GeoJSONStats summarizes a GeoJSON export.
type GeoJSONStats struct {
	Facilities int
	Features   int
	Excluded   int
	MissingGeo []string
	Duplicates int
}

// TitleCount is one entry of a feature's topTitles property.
type TitleCount struct {
	Title    string `json:"title"`
	Affected int    `json:"affected"`
}

// GeoJSON builds one Point feature per facility row that has a geocode.
// Facilities are taken in table order, so jitter is assigned in that order.
// Coordinates shared with an earlier feature are displaced for display and
// flagged duplicate; the stored geocodes are not touched.
func GeoJSON(facilities *table.Table, impacts []ImpactRow, locs map[string]geocodes.Location, opts GeoJSONOptions) (*geojson.FeatureCollection, GeoJSONStats, error) {
	if len(facilities.Header) == 0 {
		return nil, GeoJSONStats{}, eris.New("export: facility table has no header")
	}
	facCol, err := DetectColumn(facilities, FacilityCandidates, 0)
	if err != nil {
		return nil, GeoJSONStats{}, err
	}
	totalCol, _ := facilities.Lookup("totalAffected")
	titlesCol, _ := facilities.Lookup("jobTitleCount")
	noticesCol, _ := facilities.Lookup("noticeCount")
	hasCol, hasImpactsKnown := facilities.Lookup(HasImpactsColumn)

	k := opts.TopTitles
	if k < 0 {
		k = 5
	}
	titles := titlesByFacility(impacts)

	jitter := geo.NewJitterer()
	fc := &geojson.FeatureCollection{}
	var stats GeoJSONStats
	for _, r := range facilities.Rows {
		fid := model.NormalizeFacilityID(r.Get(facCol))
		if fid == "" {
			continue
		}
		stats.Facilities++
		if fid == model.RemoteFacilityID && !opts.IncludeRemote {
			stats.Excluded++
			continue
		}
		loc, ok := locs[fid]
		if !ok {
			stats.MissingGeo = append(stats.MissingGeo, fid)
			continue
		}

		total := rowInt(r, totalCol)
		hasImpacts := total > 0
		if hasImpactsKnown {
			switch strings.ToLower(r.Get(hasCol)) {
			case "true":
				hasImpacts = true
			case "false":
				hasImpacts = false
			}
		}

		p, quality := jitter.Place(loc.Point)
		if quality == geo.QualityDuplicate {
			stats.Duplicates++
		}
		top := titles[fid]
		if k > 0 && len(top) > k {
			top = top[:k]
		}
		if top == nil {
			top = []TitleCount{}
		}

		fc.Features = append(fc.Features, &geojson.Feature{
			Geometry: geom.NewPointFlat(geom.XY, []float64{p.Lon, p.Lat}),
			Properties: map[string]any{
				"facilityId":    fid,
				"totalAffected": total,
				"jobTitleCount": rowInt(r, titlesCol),
				"noticeCount":   rowInt(r, noticesCol),
				"hasImpacts":    hasImpacts,
				"geoSource":     loc.Source,
				"geoNotes":      loc.Notes,
				"geoQuality":    quality,
				"topTitles":     top,
			},
		})
	}
	stats.Features = len(fc.Features)
	return fc, stats, nil
}

// titlesByFacility sums impacts per normalized facility and title, ordered by
// total descending with ties in encounter order.
func titlesByFacility(impacts []ImpactRow) map[string][]TitleCount {
	out := map[string][]TitleCount{}
	pos := map[string]map[string]int{}
	for _, r := range impacts {
		fid := model.NormalizeFacilityID(r.FacilityID)
		title := r.Title()
		if fid == "" || title == "" {
			continue
		}
		idx, ok := pos[fid]
		if !ok {
			idx = map[string]int{}
			pos[fid] = idx
		}
		i, ok := idx[title]
		if !ok {
			i = len(out[fid])
			idx[title] = i
			out[fid] = append(out[fid], TitleCount{Title: title})
		}
		out[fid][i].Affected += r.AffectedCount
	}
	for _, list := range out {
		sort.SliceStable(list, func(i, j int) bool { return list[i].Affected > list[j].Affected })
	}
	return out
}

// WriteGeoJSON stores fc as indented JSON.
func WriteGeoJSON(path string, fc *geojson.FeatureCollection) error {
	return store.WriteJSON(path, fc)
}
