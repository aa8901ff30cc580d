// Package geocodes maintains the facility geocode table: refreshing coordinates
// from street addresses, merging staged addresses, and sanity checks.
package geocodes

import (
	"strconv"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/warn-cli/internal/geo"
	"github.com/sells-group/warn-cli/internal/model"
	"github.com/sells-group/warn-cli/internal/table"
)

// Row is one line of the facility geocode CSV. Coordinates stay textual so
// blank and malformed values survive a round trip untouched.
type Row struct {
	FacilityID    string `csv:"facilityId"`
	Lat           string `csv:"lat"`
	Lon           string `csv:"lon"`
	Source        string `csv:"source"`
	Notes         string `csv:"notes"`
	BuildingName  string `csv:"buildingName"`
	StreetAddress string `csv:"streetAddress"`
	City          string `csv:"city"`
	State         string `csv:"state"`
	Zip           string `csv:"zip"`
}

// Point parses the row's coordinates.
func (r Row) Point() (geo.Point, error) {
	lat, err := strconv.ParseFloat(strings.TrimSpace(r.Lat), 64)
	if err != nil {
		return geo.Point{}, eris.Wrapf(err, "geocodes: parse lat %q", r.Lat)
	}
	lon, err := strconv.ParseFloat(strings.TrimSpace(r.Lon), 64)
	if err != nil {
		return geo.Point{}, eris.Wrapf(err, "geocodes: parse lon %q", r.Lon)
	}
	return geo.Point{Lat: lat, Lon: lon}, nil
}

// Location is a parsed geocode keyed by normalized facility ID.
type Location struct {
	FacilityID string
	Point      geo.Point
	Source     string
	Notes      string
}

// Load reads the geocode CSV at path.
func Load(path string) ([]Row, error) {
	return table.ReadRecords[Row](path)
}

// Save writes rows to path with the full geocode header.
func Save(path string, rows []Row) error {
	return table.WriteRecords(path, rows)
}

// Index keys rows with parseable coordinates by normalized facility ID. Rows
// with a blank ID or unparseable coordinates are skipped; a later row for the
// same ID replaces an earlier one.
func Index(rows []Row) map[string]Location {
	out := make(map[string]Location, len(rows))
	for _, r := range rows {
		id := model.NormalizeFacilityID(r.FacilityID)
		if id == "" {
			continue
		}
		p, err := r.Point()
		if err != nil {
			continue
		}
		out[id] = Location{
			FacilityID: id,
			Point:      p,
			Source:     strings.TrimSpace(r.Source),
			Notes:      strings.TrimSpace(r.Notes),
		}
	}
	return out
}
