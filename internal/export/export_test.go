package export

import (
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"

	"github.com/sells-group/warn-cli/internal/geo"
	"github.com/sells-group/warn-cli/internal/geocodes"
	"github.com/sells-group/warn-cli/internal/model"
	"github.com/sells-group/warn-cli/internal/store"
	"github.com/sells-group/warn-cli/internal/table"
)

func impact(fid string, f model.TitleFields, n int) model.JobTitleImpact {
	return model.JobTitleImpact{FacilityID: fid, TitleFields: f, AffectedCount: model.NewCount(n)}
}

func notANumber(t *testing.T) model.Count {
	t.Helper()
	var c model.Count
	require.NoError(t, json.Unmarshal([]byte(`"n/a"`), &c))
	return c
}

func fixture(t *testing.T) *model.CombinedDataset {
	t.Helper()
	return &model.CombinedDataset{
		Notices: []model.Notice{
			{
				NoticeID: "A",
				JobTitleImpacts: []model.JobTitleImpact{
					impact("SEA40", model.TitleFields{JobTitleCanonical: "SDE II"}, 10),
					impact("SEA40", model.TitleFields{JobTitleRaw: "Recruiter"}, 3),
					impact("SEA41", model.TitleFields{JobTitle: "SDE II"}, 4),
				},
			},
			{
				NoticeID: "B",
				JobTitleImpacts: []model.JobTitleImpact{
					impact("SEA40", model.TitleFields{JobTitle: "SDE II"}, 5),
					impact(model.RemoteFacilityID, model.TitleFields{JobTitle: "Program Manager"}, 2),
					{FacilityID: "SEA41", TitleFields: model.TitleFields{JobTitle: "Recruiter"}, AffectedCount: notANumber(t)},
				},
			},
		},
		Facilities: []model.Facility{
			{FacilityID: "PDX10"}, {FacilityID: model.RemoteFacilityID}, {FacilityID: "SEA40"}, {FacilityID: "SEA41"},
		},
		JobTitles: model.JobTitleIndex{CanonicalTitles: []model.CanonicalTitle{
			{Title: "Data Engineer"}, {Title: "Program Manager"}, {Title: "Recruiter"}, {Title: "SDE II"},
		}},
	}
}

func TestImpacts_SourceOrderAndTitleColumns(t *testing.T) {
	q := &model.QualityLog{}
	rows := Impacts(fixture(t), q)
	require.Len(t, rows, 6)

	assert.Equal(t, ImpactRow{NoticeID: "A", FacilityID: "SEA40", JobTitleCanonical: "SDE II", AffectedCount: 10}, rows[0])
	assert.Equal(t, ImpactRow{NoticeID: "A", FacilityID: "SEA40", JobTitleRaw: "Recruiter", AffectedCount: 3}, rows[1])
	assert.Equal(t, ImpactRow{NoticeID: "A", FacilityID: "SEA41", JobTitleRaw: "SDE II", JobTitleCanonical: "SDE II", AffectedCount: 4}, rows[2])
	assert.Equal(t, "Recruiter", rows[1].Title())
	assert.Equal(t, 0, rows[5].AffectedCount)
	assert.Equal(t, 1, q.CountByKind()[model.IssueNonNumeric])
}

func TestImpacts_WriteLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "impacts.csv")
	rows := Impacts(fixture(t), nil)
	require.NoError(t, WriteImpacts(path, rows))

	loaded, err := LoadImpacts(path, nil)
	require.NoError(t, err)
	assert.Equal(t, rows, loaded)
}

func TestImpactsFromTable_MissingColumns(t *testing.T) {
	_, err := ImpactsFromTable(&table.Table{Header: []string{"noticeId", "facilityId"}}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "jobTitleCanonical")
}

func TestImpactsFromTable_NonNumericCounted(t *testing.T) {
	q := &model.QualityLog{}
	tbl := &table.Table{
		Header: []string{"noticeId", "facilityId", "jobTitleCanonical", "affectedCount"},
		Rows: []table.Row{
			{"noticeId": "A", "facilityId": " SEA40 ", "jobTitleCanonical": "SDE II", "affectedCount": "7"},
			{"noticeId": "A", "facilityId": "SEA40", "jobTitleCanonical": "PM", "affectedCount": "seven"},
			{"noticeId": "A", "facilityId": "SEA40", "jobTitleCanonical": "TPM", "affectedCount": ""},
		},
	}
	rows, err := ImpactsFromTable(tbl, q)
	require.NoError(t, err)
	assert.Equal(t, "SEA40", rows[0].FacilityID)
	assert.Equal(t, []int{7, 0, 0}, []int{rows[0].AffectedCount, rows[1].AffectedCount, rows[2].AffectedCount})
	assert.Equal(t, 1, q.Len())
}

func TestFacilityRollup(t *testing.T) {
	got := FacilityRollup(Impacts(fixture(t), nil))
	assert.Equal(t, []FacilityRollupRow{
		{FacilityID: "SEA40", TotalAffected: 18, JobTitleCount: 2, NoticeCount: 2},
		{FacilityID: "SEA41", TotalAffected: 4, JobTitleCount: 2, NoticeCount: 2},
		{FacilityID: model.RemoteFacilityID, TotalAffected: 2, JobTitleCount: 1, NoticeCount: 1},
	}, got)
}

func TestFacilityRollup_TiesByID(t *testing.T) {
	got := FacilityRollup([]ImpactRow{
		{NoticeID: "A", FacilityID: "B2", JobTitleRaw: "x", AffectedCount: 1},
		{NoticeID: "A", FacilityID: "A1", JobTitleRaw: "x", AffectedCount: 1},
		{NoticeID: "A", FacilityID: "", JobTitleRaw: "x", AffectedCount: 9},
	})
	require.Len(t, got, 2)
	assert.Equal(t, "A1", got[0].FacilityID)
}

func TestNoticeSummary(t *testing.T) {
	got := NoticeSummary(Impacts(fixture(t), nil))
	assert.Equal(t, []NoticeSummaryRow{
		{NoticeID: "A", TotalAffected: 17, TotalFacilities: 2, TotalTitles: 2},
		{NoticeID: "B", TotalAffected: 7, TotalFacilities: 3, TotalTitles: 3},
	}, got)
}

func TestTitleRollup_BothSourcesAgree(t *testing.T) {
	ds := fixture(t)
	fromJSON, err := TitleRollupFromCombined(ds)
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "impacts.csv")
	require.NoError(t, WriteImpacts(path, Impacts(ds, nil)))
	rows, err := LoadImpacts(path, nil)
	require.NoError(t, err)
	fromTable := TitleRollupFromImpacts(rows)

	assert.Equal(t, []TitleRollupRow{
		{JobTitleCanonical: "Program Manager", TotalAffected: 2, FacilityCount: 1, NoticeCount: 1},
		{JobTitleCanonical: "Recruiter", TotalAffected: 3, FacilityCount: 2, NoticeCount: 2},
		{JobTitleCanonical: "SDE II", TotalAffected: 19, FacilityCount: 2, NoticeCount: 2},
	}, fromTable)
	require.Len(t, fromJSON, 4)
	assert.Equal(t, TitleRollupRow{JobTitleCanonical: "Data Engineer"}, fromJSON[0])
	assert.Empty(t, CrossCheck(fromJSON, fromTable))
}

func TestCrossCheck_ReportsDifferences(t *testing.T) {
	a := []TitleRollupRow{
		{JobTitleCanonical: "x", TotalAffected: 3, FacilityCount: 1, NoticeCount: 1},
		{JobTitleCanonical: "y", TotalAffected: 1, FacilityCount: 1, NoticeCount: 1},
	}
	b := []TitleRollupRow{
		{JobTitleCanonical: "x", TotalAffected: 3, FacilityCount: 2, NoticeCount: 1},
		{JobTitleCanonical: "z", TotalAffected: 1, FacilityCount: 1, NoticeCount: 1},
	}
	got := CrossCheck(a, b)
	require.Len(t, got, 3)
	assert.Equal(t, "facilityCount", got[0].Difference)
	assert.Equal(t, "y", got[1].Title)
	assert.Equal(t, "missing from impacts rollup", got[1].Difference)
	assert.Equal(t, "missing from combined rollup", got[2].Difference)
}

func TestAllFacilities_LeftJoinCompleteness(t *testing.T) {
	ds := fixture(t)
	rollup := FacilityRollupTable(FacilityRollup(Impacts(ds, nil)))
	rollup.Rows = append(rollup.Rows, table.Row{"facilityId": "ZZZ9", "totalAffected": "99", "jobTitleCount": "1", "noticeCount": "1"})

	out, stats, err := AllFacilities(CombinedFacilityIDs(ds), rollup)
	require.NoError(t, err)

	assert.Equal(t, []string{"facilityId", "totalAffected", "jobTitleCount", "noticeCount", "hasImpacts"}, out.Header)
	assert.Equal(t, []string{"SEA40", "SEA41", model.RemoteFacilityID, "PDX10"}, out.Column("facilityId"))
	assert.Equal(t, []string{"true", "true", "true", "false"}, out.Column("hasImpacts"))
	assert.Equal(t, table.Row{
		"facilityId": "PDX10", "totalAffected": "0", "jobTitleCount": "0", "noticeCount": "0", "hasImpacts": "false",
	}, out.Rows[3])
	assert.Equal(t, 1, stats.FilledWithZeros)
	assert.Equal(t, []string{"totalAffected", "jobTitleCount", "noticeCount"}, stats.NumericColumns)
}

func TestAllFacilities_NoTotalColumnSortsByID(t *testing.T) {
	rollup := &table.Table{
		Header: []string{"site", "label"},
		Rows:   []table.Row{{"site": "B", "label": "bee"}},
	}
	out, _, err := AllFacilities([]string{"C", "A", "B"}, rollup)
	require.NoError(t, err)
	assert.Equal(t, []string{"A", "B", "C"}, out.Column("site"))
	assert.Equal(t, []string{"", "bee", ""}, out.Column("label"))
}

func TestAllFacilities_Errors(t *testing.T) {
	_, _, err := AllFacilities([]string{"A"}, &table.Table{})
	assert.Error(t, err)
	_, _, err = AllFacilities(nil, &table.Table{Header: []string{"facilityId"}})
	assert.Error(t, err)
}

func TestNumericColumns(t *testing.T) {
	tbl := &table.Table{
		Header: []string{"id", "a", "b", "c"},
		Rows: []table.Row{
			{"id": "1", "a": "1", "b": "1"},
			{"id": "2", "a": "2", "b": "x"},
			{"id": "3", "a": "x", "b": "y"},
			{"id": "4", "a": "3.5"},
			{"id": "5", "a": "4"},
		},
	}
	assert.Equal(t, []string{"a"}, NumericColumns(tbl, "id"))
}

func TestTopTitles(t *testing.T) {
	tbl := &table.Table{
		Header: []string{"jobTitleCanonical", "totalAffected"},
		Rows: []table.Row{
			{"jobTitleCanonical": "A", "totalAffected": "5"},
			{"jobTitleCanonical": "B", "totalAffected": "x"},
			{"jobTitleCanonical": "C", "totalAffected": "9"},
			{"jobTitleCanonical": "D", "totalAffected": "5"},
		},
	}

	q := &model.QualityLog{}
	out, res, err := TopTitles(tbl, 2, q)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A"}, out.Column("jobTitleCanonical"))
	assert.Equal(t, 1, res.NonNumeric)
	assert.Equal(t, 1, q.Len())

	out, _, err = TopTitles(tbl, 0, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"C", "A", "D", "B"}, out.Column("jobTitleCanonical"))
}

func TestTopTitles_PositionalFallback(t *testing.T) {
	tbl := &table.Table{
		Header: []string{"name", "count"},
		Rows:   []table.Row{{"name": "a", "count": "1"}, {"name": "b", "count": "2"}},
	}
	out, res, err := TopTitles(tbl, -1, nil)
	require.NoError(t, err)
	assert.Equal(t, "name", res.KeyColumn)
	assert.Equal(t, "count", res.TotalColumn)
	assert.Equal(t, []string{"b", "a"}, out.Column("name"))
}

func TestTop_TooFewColumns(t *testing.T) {
	tbl := &table.Table{Header: []string{"only"}}
	_, _, err := TopTitles(tbl, 5, nil)
	assert.Error(t, err)
	_, _, err = TopFacilities(tbl, 5, nil)
	assert.Error(t, err)
}

func TestTopFacilities_PicksMostNumericColumn(t *testing.T) {
	tbl := &table.Table{
		Header: []string{"facilityId", "total", "headcount"},
		Rows: []table.Row{
			{"facilityId": "F1", "total": "n/a", "headcount": "4"},
			{"facilityId": "F2", "total": "n/a", "headcount": "10"},
			{"facilityId": "F3", "total": "3", "headcount": "7"},
		},
	}
	out, res, err := TopFacilities(tbl, -1, nil)
	require.NoError(t, err)
	assert.Equal(t, "facilityId", res.KeyColumn)
	assert.Equal(t, "headcount", res.TotalColumn)
	assert.Equal(t, []string{"F2", "F3", "F1"}, out.Column("facilityId"))
}

func geoFixture() (*table.Table, map[string]geocodes.Location) {
	facilities := &table.Table{
		Header: []string{"facilityId", "totalAffected", "jobTitleCount", "noticeCount", "hasImpacts"},
		Rows: []table.Row{
			{"facilityId": "sea40", "totalAffected": "18", "jobTitleCount": "2", "noticeCount": "2", "hasImpacts": "true"},
			{"facilityId": "SEA41", "totalAffected": "4", "jobTitleCount": "2", "noticeCount": "2", "hasImpacts": "true"},
			{"facilityId": model.RemoteFacilityID, "totalAffected": "2", "jobTitleCount": "1", "noticeCount": "1", "hasImpacts": "true"},
			{"facilityId": "PDX10", "totalAffected": "0", "jobTitleCount": "0", "noticeCount": "0", "hasImpacts": "false"},
			{"facilityId": "BOS1", "totalAffected": "0", "jobTitleCount": "0", "noticeCount": "0", "hasImpacts": "false"},
		},
	}
	p := geo.Point{Lat: 47.6, Lon: -122.3}
	locs := map[string]geocodes.Location{
		"SEA40":                {FacilityID: "SEA40", Point: p, Source: "manual"},
		"SEA41":                {FacilityID: "SEA41", Point: p, Source: "manual"},
		"PDX10":                {FacilityID: "PDX10", Point: p, Source: "manual", Notes: "approx"},
		model.RemoteFacilityID: {FacilityID: model.RemoteFacilityID, Point: geo.Point{Lat: 47.5, Lon: -120.5}},
	}
	return facilities, locs
}

func TestGeoJSON_DuplicateJitter(t *testing.T) {
	facilities, locs := geoFixture()
	fc, stats, err := GeoJSON(facilities, Impacts(fixture(t), nil), locs, GeoJSONOptions{TopTitles: 1})
	require.NoError(t, err)

	require.Len(t, fc.Features, 3)
	base := geo.Point{Lat: 47.6, Lon: -122.3}
	want := []geo.Point{base, geo.Offset(base, 60), geo.Offset(base, 120)}
	quality := []string{geo.QualityOK, geo.QualityDuplicate, geo.QualityDuplicate}
	seen := map[string]bool{}
	for i, f := range fc.Features {
		pt, ok := f.Geometry.(*geom.Point)
		require.True(t, ok)
		assert.InDelta(t, want[i].Lon, pt.X(), 1e-12)
		assert.InDelta(t, want[i].Lat, pt.Y(), 1e-12)
		assert.Equal(t, quality[i], f.Properties["geoQuality"])
		seen[geo.Key(geo.Point{Lat: pt.Y(), Lon: pt.X()})] = true
	}
	assert.Len(t, seen, 3)
	assert.Equal(t, geo.Point{Lat: 47.6, Lon: -122.3}, locs["SEA41"].Point)

	first := fc.Features[0].Properties
	assert.Equal(t, "SEA40", first["facilityId"])
	assert.Equal(t, 18, first["totalAffected"])
	assert.Equal(t, true, first["hasImpacts"])
	assert.Equal(t, []TitleCount{{Title: "SDE II", Affected: 15}}, first["topTitles"])
	assert.Equal(t, false, fc.Features[2].Properties["hasImpacts"])
	assert.Equal(t, []TitleCount{}, fc.Features[2].Properties["topTitles"])

	assert.Equal(t, 5, stats.Facilities)
	assert.Equal(t, 1, stats.Excluded)
	assert.Equal(t, []string{"BOS1"}, stats.MissingGeo)
	assert.Equal(t, 2, stats.Duplicates)
}

func TestGeoJSON_IncludeRemoteAndEncode(t *testing.T) {
	facilities, locs := geoFixture()
	fc, stats, err := GeoJSON(facilities, nil, locs, GeoJSONOptions{TopTitles: -1, IncludeRemote: true})
	require.NoError(t, err)
	assert.Equal(t, 4, stats.Features)

	path := filepath.Join(t.TempDir(), "facilities.geojson")
	require.NoError(t, WriteGeoJSON(path, fc))

	var doc struct {
		Type     string `json:"type"`
		Features []struct {
			Geometry struct {
				Type        string    `json:"type"`
				Coordinates []float64 `json:"coordinates"`
			} `json:"geometry"`
			Properties map[string]any `json:"properties"`
		} `json:"features"`
	}
	data, err := store.MarshalIndent(fc)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal(data, &doc))
	assert.Equal(t, "FeatureCollection", doc.Type)
	require.Len(t, doc.Features, 4)
	assert.Equal(t, "Point", doc.Features[0].Geometry.Type)
	assert.Equal(t, []float64{-122.3, 47.6}, doc.Features[0].Geometry.Coordinates)
	assert.Equal(t, model.RemoteFacilityID, doc.Features[2].Properties["facilityId"])
}

func TestWorkbook_RoundTrip(t *testing.T) {
	rollup := FacilityRollupTable(FacilityRollup(Impacts(fixture(t), nil)))
	notices, err := table.FromRecords(NoticeSummary(Impacts(fixture(t), nil)))
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "warn.xlsx")
	require.NoError(t, Workbook(path, []Sheet{
		{Name: "facility_rollup", Table: rollup},
		{Name: "notice_summary", Table: notices},
	}))

	got, err := ReadWorkbook(path)
	require.NoError(t, err)
	require.Contains(t, got, "facility_rollup")
	assert.Equal(t, rollup.Header, got["facility_rollup"].Header)
	assert.Equal(t, []string{"SEA40", "SEA41", model.RemoteFacilityID}, got["facility_rollup"].Column("facilityId"))
	assert.Equal(t, []string{"18", "4", "2"}, got["facility_rollup"].Column("totalAffected"))
	assert.Equal(t, []string{"A", "B"}, got["notice_summary"].Column("noticeId"))
}
