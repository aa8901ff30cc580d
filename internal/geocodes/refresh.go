package geocodes

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/sells-group/warn-cli/pkg/geocode"
)

// SkipTokens mark a row whose coordinates were placed deliberately; refresh
// leaves such rows alone. Matching is case-insensitive against notes.
var SkipTokens = []string{"CENTROID", "APPROX", "APPROX_AREA", "OK TO APPROX", "REMOTE_CLUSTER"}

// Unresolved reasons.
const (
	ReasonInsufficient = "insufficient address fields to geocode"
	ReasonNoResult     = "no geocode result"
)

// Change records a row whose coordinates moved.
type Change struct {
	FacilityID string `csv:"facilityId"`
	OldLat     string `csv:"old_lat"`
	OldLon     string `csv:"old_lon"`
	NewLat     string `csv:"new_lat"`
	NewLon     string `csv:"new_lon"`
	Query      string `csv:"query"`
}

// Unresolved records a row that could not be refreshed.
type Unresolved struct {
	FacilityID string `csv:"facilityId"`
	Reason     string `csv:"reason"`
	Query      string `csv:"query"`
}

// RefreshResult holds the candidate table and the change and unresolved logs.
type RefreshResult struct {
	Rows       []Row
	Changes    []Change
	Unresolved []Unresolved
	Skipped    int
}

// Query builds "street, city, state zip" from the row's address fields,
// omitting blank parts.
func Query(r Row) string {
	var parts []string
	if s := strings.TrimSpace(r.StreetAddress); s != "" {
		parts = append(parts, s)
	}
	if s := strings.TrimSpace(r.City); s != "" {
		parts = append(parts, s)
	}
	var tail []string
	for _, s := range []string{strings.TrimSpace(r.State), strings.TrimSpace(r.Zip)} {
		if s != "" {
			tail = append(tail, s)
		}
	}
	if len(tail) > 0 {
		parts = append(parts, strings.Join(tail, " "))
	}
	return strings.Join(parts, ", ")
}

// ShouldSkip reports whether the row's notes carry a deliberate-placement token.
func ShouldSkip(r Row) bool {
	notes := strings.ToUpper(strings.TrimSpace(r.Notes))
	for _, tok := range SkipTokens {
		if strings.Contains(notes, tok) {
			return true
		}
	}
	return false
}

// SourceLabel names the refresh provenance written to the source column.
func SourceLabel(provider string) string {
	switch provider {
	case "nominatim", "":
		return "OpenStreetMap Nominatim (refresh)"
	case "census":
		return "US Census Geocoder (refresh)"
	case "google":
		return "Google Geocoding (refresh)"
	default:
		return provider + " (refresh)"
	}
}

// Refresh re-geocodes every row from its street address. A failed or empty
// lookup marks the row unresolved and keeps its existing values; no single
// failure stops the batch. Pacing between requests is the client's concern.
// Input rows are not modified.
func Refresh(ctx context.Context, rows []Row, client geocode.Client) (*RefreshResult, error) {
	res := &RefreshResult{Rows: make([]Row, 0, len(rows))}
	log := zap.L().With(zap.String("stage", "geocode-refresh"))

	for _, row := range rows {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		fid := strings.TrimSpace(row.FacilityID)

		if ShouldSkip(row) {
			res.Skipped++
			res.Rows = append(res.Rows, row)
			continue
		}

		q := Query(row)
		if q == "" || strings.Count(q, ",") < 1 {
			res.Unresolved = append(res.Unresolved, Unresolved{FacilityID: fid, Reason: ReasonInsufficient, Query: q})
			res.Rows = append(res.Rows, row)
			continue
		}

		result, err := client.Geocode(ctx, q)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			log.Warn("geocode failed", zap.String("facility_id", fid), zap.String("query", q), zap.Error(err))
			res.Unresolved = append(res.Unresolved, Unresolved{FacilityID: fid, Reason: "geocode error: " + err.Error(), Query: q})
			res.Rows = append(res.Rows, row)
			continue
		}
		if result == nil || !result.Matched {
			res.Unresolved = append(res.Unresolved, Unresolved{FacilityID: fid, Reason: ReasonNoResult, Query: q})
			res.Rows = append(res.Rows, row)
			continue
		}

		oldLat, oldLon := strings.TrimSpace(row.Lat), strings.TrimSpace(row.Lon)
		newLat := fmt.Sprintf("%.6f", result.Latitude)
		newLon := fmt.Sprintf("%.6f", result.Longitude)

		out := row
		out.Lat, out.Lon = newLat, newLon
		out.Source = SourceLabel(result.Source)
		if row.Notes != "" {
			out.Notes = row.Notes + " | refreshed from address: " + q
		} else {
			out.Notes = "refreshed from address: " + q
		}
		res.Rows = append(res.Rows, out)

		if oldLat != newLat || oldLon != newLon {
			res.Changes = append(res.Changes, Change{
				FacilityID: fid, OldLat: oldLat, OldLon: oldLon, NewLat: newLat, NewLon: newLon, Query: q,
			})
		}
	}
	return res, nil
}
