package geocodes

import (
	"strings"

	"github.com/sells-group/warn-cli/internal/model"
	"github.com/sells-group/warn-cli/internal/table"
)

// StagingRow is one line of a facility address staging CSV.
type StagingRow struct {
	FacilityID    string `csv:"facility_id"`
	BuildingName  string `csv:"building_name"`
	StreetAddress string `csv:"street_address"`
	City          string `csv:"city"`
	State         string `csv:"state"`
	ZipCode       string `csv:"zip_code"`
	Latitude      string `csv:"latitude"`
	Longitude     string `csv:"longitude"`
}

// MergeReportRow describes what the merge did for one geocode row.
type MergeReportRow struct {
	FacilityID        string `csv:"facilityId"`
	HadAddressRow     bool   `csv:"hadAddressRow"`
	LatWasBlankFilled bool   `csv:"latWasBlankFilled"`
	LonWasBlankFilled bool   `csv:"lonWasBlankFilled"`
	BuildingName      string `csv:"buildingName"`
	StreetAddress     string `csv:"streetAddress"`
	City              string `csv:"city"`
	State             string `csv:"state"`
	Zip               string `csv:"zip"`
}

// LoadStaging reads an address staging CSV.
func LoadStaging(path string) ([]StagingRow, error) {
	return table.ReadRecords[StagingRow](path)
}

// Merge copies staged address fields onto geocode rows matched by normalized
// facility ID. Staged coordinates only fill blank lat/lon; existing coordinates
// are never overwritten. Rows without a staged address keep their geocode
// values and get blank address fields. Later staging rows win for duplicate IDs.
func Merge(rows []Row, staging []StagingRow) ([]Row, []MergeReportRow) {
	byID := make(map[string]StagingRow, len(staging))
	for _, s := range staging {
		id := model.NormalizeFacilityID(s.FacilityID)
		if id == "" {
			continue
		}
		byID[id] = s
	}

	merged := make([]Row, 0, len(rows))
	report := make([]MergeReportRow, 0, len(rows))
	for _, g := range rows {
		id := model.NormalizeFacilityID(g.FacilityID)
		out := Row{FacilityID: g.FacilityID, Lat: g.Lat, Lon: g.Lon, Source: g.Source, Notes: g.Notes}

		s, ok := byID[id]
		if !ok {
			merged = append(merged, out)
			report = append(report, MergeReportRow{FacilityID: id})
			continue
		}

		out.BuildingName = s.BuildingName
		out.StreetAddress = s.StreetAddress
		out.City = s.City
		out.State = s.State
		out.Zip = s.ZipCode

		gLat, gLon := strings.TrimSpace(g.Lat), strings.TrimSpace(g.Lon)
		sLat, sLon := strings.TrimSpace(s.Latitude), strings.TrimSpace(s.Longitude)
		latFilled := gLat == "" && sLat != ""
		lonFilled := gLon == "" && sLon != ""
		if latFilled {
			out.Lat = sLat
		}
		if lonFilled {
			out.Lon = sLon
		}

		merged = append(merged, out)
		report = append(report, MergeReportRow{
			FacilityID:        id,
			HadAddressRow:     true,
			LatWasBlankFilled: latFilled,
			LonWasBlankFilled: lonFilled,
			BuildingName:      out.BuildingName,
			StreetAddress:     out.StreetAddress,
			City:              out.City,
			State:             out.State,
			Zip:               out.Zip,
		})
	}
	return merged, report
}
