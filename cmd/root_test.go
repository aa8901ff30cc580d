package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/warn-cli/internal/geocodes"
	"github.com/sells-group/warn-cli/internal/geo"
	"github.com/sells-group/warn-cli/internal/noticeparse"
)

func subcommandNames(c *cobra.Command) map[string]bool {
	names := make(map[string]bool)
	for _, sub := range c.Commands() {
		names[sub.Name()] = true
	}
	return names
}

func TestRootCommand_HasSubcommands(t *testing.T) {
	names := subcommandNames(rootCmd)
	for _, name := range []string{"extract", "parse", "validate", "combine", "export", "geocode", "risk", "build", "serve"} {
		assert.True(t, names[name], "expected subcommand %q not found", name)
	}
}

func TestRootCommand_Metadata(t *testing.T) {
	assert.Equal(t, "warn-cli", rootCmd.Use)
	assert.NotEmpty(t, rootCmd.Short)
	assert.NotEmpty(t, rootCmd.Long)
}

func TestExportCommand_HasSubcommands(t *testing.T) {
	names := subcommandNames(exportCmd)
	expected := []string{
		"impacts", "facility-rollup", "all-facilities", "title-rollup", "crosscheck",
		"notice-summary", "top-titles", "top-facilities", "geojson", "workbook",
	}
	for _, name := range expected {
		assert.True(t, names[name], "export should have subcommand %q", name)
	}
	for _, flagName := range []string{"in", "out"} {
		assert.NotNil(t, exportCmd.PersistentFlags().Lookup(flagName), "export should have --%s flag", flagName)
	}
}

func TestGeocodeCommand_HasSubcommands(t *testing.T) {
	names := subcommandNames(geocodeCmd)
	for _, name := range []string{"refresh", "merge-addresses", "check"} {
		assert.True(t, names[name], "geocode should have subcommand %q", name)
	}
}

func TestRiskCommand_Flags(t *testing.T) {
	for _, flagName := range []string{"facility", "title", "top", "nearest", "radius-km", "json"} {
		assert.NotNil(t, riskCmd.Flags().Lookup(flagName), "risk should have --%s flag", flagName)
	}
	assert.Equal(t, "-1", riskCmd.Flags().Lookup("top").DefValue)
}

func TestParseCommand_Flags(t *testing.T) {
	flag := parseCmd.Flags().Lookup("format")
	require.NotNil(t, flag)
	assert.Equal(t, "wa-layoff", flag.DefValue)
	assert.NotNil(t, parseCmd.Flags().Lookup("pages"))
	assert.NotNil(t, parseCmd.Flags().Lookup("notice"))
}

func TestServeCommand_Flags(t *testing.T) {
	flag := serveCmd.Flags().Lookup("port")
	require.NotNil(t, flag, "serve command should have --port flag")
	assert.Equal(t, "0", flag.DefValue)
}

func TestOverride(t *testing.T) {
	assert.Equal(t, "a.csv", override("a.csv", "b.csv"))
	assert.Equal(t, "b.csv", override("", "b.csv"))
}

func TestResolveAdapter(t *testing.T) {
	a, err := resolveAdapter("wa-layoff")
	require.NoError(t, err)
	assert.Equal(t, "wa-layoff", a.Name())

	_, err = resolveAdapter("nope")
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "custom.yaml")
	require.NoError(t, os.WriteFile(path, []byte("name: custom\n"), 0o644))
	a, err = resolveAdapter(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", a.Name())
	assert.Implements(t, (*noticeparse.Adapter)(nil), a)
}

func TestWriteCheckReport(t *testing.T) {
	rep := geocodes.CheckReport{
		Rows:         3,
		UniquePoints: 1,
		Problems:     []geocodes.Problem{{FacilityID: "BAD1", Kind: geocodes.ProblemParseError, Lat: "x", Lon: "1"}},
		Duplicates:   []geo.Group{{Point: geo.Point{Lat: 47.6, Lon: -122.3}, IDs: []string{"SEA40", "SEA41"}}},
	}
	var buf bytes.Buffer
	writeCheckReport(&buf, rep)
	out := buf.String()
	assert.Contains(t, out, "Rows: 3\n")
	assert.Contains(t, out, "BAD1")
	assert.Contains(t, out, "(47.600000, -122.300000) x2: SEA40, SEA41")
}

const noticeA = `{"version":"1.0.0","generatedAt":"2025-01-01T00:00:00Z","notice":{
  "noticeId":"A","source":"esd.wa.gov","jurisdiction":"WA","separationDates":["2025-03-01"],
  "facilities":[
    {"noticeId":"A","facilityId":"SEA40","affectedApprox":12,"includesRemoteWA":true,"notes":"1 Main St, Seattle, WA 98101"},
    {"noticeId":"A","facilityId":"SEA41","affectedApprox":2,"includesRemoteWA":true,"notes":"2 Main St, Seattle, WA 98101"}],
  "jobTitleImpacts":[
    {"facilityId":"SEA40","jobTitle":"SDE II","affectedCount":10},
    {"facilityId":"SEA41","jobTitle":"Recruiter","affectedCount":2}]}}`

const noticeB = `{"version":"1.0.0","generatedAt":"2025-01-01T00:00:00Z","notice":{
  "noticeId":"B","source":"esd.wa.gov","jurisdiction":"WA","separationDates":["2025-04-01"],
  "facilities":[{"noticeId":"B","facilityId":"SEA40","affectedApprox":5,"includesRemoteWA":true,"notes":""}],
  "jobTitleImpacts":[{"facilityId":"SEA40","jobTitleCanonical":"SDE II","affectedCount":5}]}}`

func TestBuildThenRisk(t *testing.T) {
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) }) //nolint:errcheck

	notices := filepath.Join(dir, "data", "normalized", "notices")
	require.NoError(t, os.MkdirAll(notices, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(notices, "A.json"), []byte(noticeA), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(notices, "B.json"), []byte(noticeB), 0o644))

	rootCmd.SetArgs([]string{"build"})
	require.NoError(t, rootCmd.Execute())

	for _, name := range []string{"impacts_by_facility.csv", "facility_rollup.csv", "job_title_rollup.csv", "warn_rollups.xlsx"} {
		_, err := os.Stat(filepath.Join(dir, "data", "exports", name))
		assert.NoError(t, err, name)
	}

	var buf bytes.Buffer
	rootCmd.SetOut(&buf)
	t.Cleanup(func() { rootCmd.SetOut(nil) })
	rootCmd.SetArgs([]string{"risk", "--facility", "SEA40", "--title", "SDE II", "--top", "10", "--nearest", "10", "--json=false"})
	require.NoError(t, rootCmd.Execute())

	out := buf.String()
	assert.Contains(t, out, "RISK ASSESSMENT REPORT")
	assert.Contains(t, out, "  Affected Count:    15\n")
	assert.Contains(t, out, "  Notices:           [A, B]\n")
	assert.Contains(t, out, "     15  SEA40            notices=[A, B]\n")

	buf.Reset()
	rootCmd.SetArgs([]string{"risk", "--facility", " SEA40", "--title", "SDE II ", "--top", "10", "--nearest", "10", "--json=false"})
	require.NoError(t, rootCmd.Execute())

	padded := buf.String()
	assert.NotContains(t, padded, "Facility not found")
	assert.Contains(t, padded, "  Affected Count:    15\n")
	assert.Contains(t, padded, "  Notices:           [A, B]\n")
}
