package server

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/warn-cli/internal/export"
	"github.com/sells-group/warn-cli/internal/geocodes"
	"github.com/sells-group/warn-cli/internal/risk"
	"github.com/sells-group/warn-cli/internal/table"
)

func writeFixtures(t *testing.T) Options {
	t.Helper()
	dir := t.TempDir()
	impacts := []export.ImpactRow{
		{NoticeID: "A", FacilityID: "SEA40", JobTitleCanonical: "SDE II", AffectedCount: 10},
		{NoticeID: "B", FacilityID: "SEA40", JobTitleCanonical: "SDE II", AffectedCount: 5},
		{NoticeID: "B", FacilityID: "BEL12", JobTitleCanonical: "SDE II", AffectedCount: 3},
	}
	rollup := export.FacilityRollup(impacts)
	all, _, err := export.AllFacilities([]string{"BEL12", "SEA40"}, export.FacilityRollupTable(rollup))
	require.NoError(t, err)

	opts := Options{
		Risk: risk.Paths{
			Impacts:        filepath.Join(dir, "impacts.csv"),
			FacilityRollup: filepath.Join(dir, "rollup.csv"),
			Geocodes:       filepath.Join(dir, "geocodes.csv"),
		},
		AllFacilities: filepath.Join(dir, "all.csv"),
		Top:           10,
		Nearest:       10,
		GeoJSON:       export.GeoJSONOptions{TopTitles: 5},
	}
	require.NoError(t, export.WriteImpacts(opts.Risk.Impacts, impacts))
	require.NoError(t, table.WriteRecords(opts.Risk.FacilityRollup, rollup))
	require.NoError(t, table.WriteTable(opts.AllFacilities, all))
	require.NoError(t, geocodes.Save(opts.Risk.Geocodes, []geocodes.Row{
		{FacilityID: "SEA40", Lat: "47.6062", Lon: "-122.3321", Source: "manual"},
		{FacilityID: "BEL12", Lat: "47.6101", Lon: "-122.2015", Source: "manual"},
	}))
	return opts
}

func get(t *testing.T, h http.Handler, target string) *httptest.ResponseRecorder {
	t.Helper()
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, target, nil))
	return rec
}

func TestHealth(t *testing.T) {
	h := New(Options{}).Handler()
	rec := get(t, h, "/health")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestRisk(t *testing.T) {
	h := New(writeFixtures(t)).Handler()
	rec := get(t, h, "/risk?facility=SEA40&title=SDE+II&radius_km=50")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	var a risk.Assessment
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &a))
	assert.True(t, a.Found)
	assert.Equal(t, 15, a.DirectMatch.Total)
	assert.Equal(t, []string{"A", "B"}, a.DirectMatch.Notices)
	require.Len(t, a.Nearby, 1)
	assert.Equal(t, "BEL12", a.Nearby[0].FacilityID)
}

func TestRisk_BadRequests(t *testing.T) {
	h := New(writeFixtures(t)).Handler()
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/risk?facility=SEA40").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/risk?facility=SEA40&title=x&top=-1").Code)
	assert.Equal(t, http.StatusBadRequest, get(t, h, "/risk?facility=SEA40&title=x&radius_km=far").Code)
}

func TestRisk_MissingData(t *testing.T) {
	opts := Options{Risk: risk.Paths{Impacts: filepath.Join(t.TempDir(), "none.csv")}}
	rec := get(t, New(opts).Handler(), "/risk?facility=SEA40&title=x")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.Contains(t, rec.Body.String(), "none.csv")
}

func TestGeoJSON(t *testing.T) {
	h := New(writeFixtures(t)).Handler()
	rec := get(t, h, "/facilities.geojson")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "application/geo+json", rec.Header().Get("Content-Type"))

	var doc struct {
		Type     string            `json:"type"`
		Features []json.RawMessage `json:"features"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
	assert.Equal(t, "FeatureCollection", doc.Type)
	assert.Len(t, doc.Features, 2)
}

func TestMetrics(t *testing.T) {
	h := New(Options{}).Handler()
	get(t, h, "/health")
	get(t, h, "/health")

	rec := get(t, h, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `warn_http_requests_total{code="200",route="/health"} 2`)
}
