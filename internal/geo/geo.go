// Package geo provides great-circle distance, coordinate sanity checks, and
// deterministic jitter for coincident map points.
package geo

import (
	"math"
	"strconv"
)

// EarthRadiusKm is the mean Earth radius used by HaversineKm.
const EarthRadiusKm = 6371.0

// Bounds of the dataset's expected coverage, used as a data-quality diagnostic only.
const (
	MinLat = 15.0
	MaxLat = 75.0
	MinLon = -175.0
	MaxLon = -50.0
)

// JitterStepMeters is the diagonal displacement applied per duplicate occurrence.
const JitterStepMeters = 60.0

const metersPerDegree = 111000.0

// Point is a WGS84 latitude/longitude pair.
type Point struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// HaversineKm returns the great-circle distance between a and b in kilometers.
func HaversineKm(a, b Point) float64 {
	lat1, lat2 := radians(a.Lat), radians(b.Lat)
	dLat := lat2 - lat1
	dLon := radians(b.Lon - a.Lon)

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*math.Sin(dLon/2)*math.Sin(dLon/2)
	return 2 * EarthRadiusKm * math.Asin(math.Min(1, math.Sqrt(h)))
}

func radians(deg float64) float64 {
	return deg * math.Pi / 180
}

// InRange reports whether p lies inside the expected coverage box.
func InRange(p Point) bool {
	return p.Lat >= MinLat && p.Lat <= MaxLat && p.Lon >= MinLon && p.Lon <= MaxLon
}

// Offset displaces p along the north-east diagonal by meters in each axis.
// The longitude step widens with latitude; cos(lat) is floored at 0.1 near the poles.
func Offset(p Point, meters float64) Point {
	dLat := meters / metersPerDegree
	dLon := meters / (metersPerDegree * math.Max(0.1, math.Cos(radians(p.Lat))))
	return Point{Lat: p.Lat + dLat, Lon: p.Lon + dLon}
}

// Quality flags returned by Jitterer.
const (
	QualityOK        = "ok"
	QualityDuplicate = "duplicate"
)

// Jitterer hands out display positions for a stream of points. The first point
// at a given coordinate is returned unchanged; the n-th repeat (n>=1) is offset
// by n*JitterStepMeters. Input points are never modified.
type Jitterer struct {
	seen map[string]int
}

// NewJitterer returns an empty Jitterer.
func NewJitterer() *Jitterer {
	return &Jitterer{seen: map[string]int{}}
}

// Place returns the display position and quality flag for p.
func (j *Jitterer) Place(p Point) (Point, string) {
	key := Key(p)
	idx := j.seen[key]
	j.seen[key] = idx + 1
	if idx == 0 {
		return p, QualityOK
	}
	return Offset(p, JitterStepMeters*float64(idx)), QualityDuplicate
}

// Key is the exact-coordinate identity of p. Coordinates that differ in any
// bit of their shortest round-trip form produce different keys.
func Key(p Point) string {
	return strconv.FormatFloat(p.Lat, 'g', -1, 64) + "," + strconv.FormatFloat(p.Lon, 'g', -1, 64)
}

// DuplicateGroups groups ids by identical coordinate, keeping only groups of two
// or more. Groups appear in first-seen order and ids in input order.
func DuplicateGroups(ids []string, points []Point) []Group {
	index := map[string]int{}
	var groups []Group
	for i, p := range points {
		key := Key(p)
		gi, ok := index[key]
		if !ok {
			gi = len(groups)
			index[key] = gi
			groups = append(groups, Group{Point: p})
		}
		groups[gi].IDs = append(groups[gi].IDs, ids[i])
	}

	out := groups[:0]
	for _, g := range groups {
		if len(g.IDs) > 1 {
			out = append(out, g)
		}
	}
	return out
}

// Group is a set of ids sharing one coordinate.
type Group struct {
	Point Point
	IDs   []string
}
