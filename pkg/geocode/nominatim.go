package geocode

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/warn-cli/internal/resilience"
)

const defaultNominatimURL = "https://nominatim.openstreetmap.org"

type nominatimPlace struct {
	Lat         string `json:"lat"`
	Lon         string `json:"lon"`
	DisplayName string `json:"display_name"`
	Class       string `json:"class"`
	Type        string `json:"type"`
}

// geocodeNominatim resolves a free-text query with the Nominatim search API.
func (g *geocoder) geocodeNominatim(ctx context.Context, query string) (*Result, error) {
	if err := g.limiter.Wait(ctx); err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim rate limit")
	}

	params := url.Values{
		"q":      {query},
		"format": {"json"},
		"limit":  {"1"},
	}
	reqURL := g.nominatimURL + "/search?" + params.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim build request")
	}
	req.Header.Set("Accept", "application/json")
	if g.userAgent != "" {
		req.Header.Set("User-Agent", g.userAgent)
	}

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim request")
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode != http.StatusOK {
		return nil, resilience.StatusError("geocode: nominatim", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim read body")
	}

	var places []nominatimPlace
	if err := json.Unmarshal(body, &places); err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim parse response")
	}
	if len(places) == 0 {
		return &Result{Matched: false, Source: "nominatim"}, nil
	}

	p := places[0]
	lat, err := strconv.ParseFloat(p.Lat, 64)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim parse lat")
	}
	lon, err := strconv.ParseFloat(p.Lon, 64)
	if err != nil {
		return nil, eris.Wrap(err, "geocode: nominatim parse lon")
	}
	return &Result{
		Latitude:    lat,
		Longitude:   lon,
		Source:      "nominatim",
		Quality:     nominatimQuality(p.Class, p.Type),
		DisplayName: p.DisplayName,
		Matched:     true,
	}, nil
}

// nominatimQuality maps the OSM class/type of a match to our quality taxonomy.
func nominatimQuality(class, typ string) string {
	switch {
	case class == "building" || typ == "house":
		return "rooftop"
	case class == "highway":
		return "range"
	case class == "boundary" || class == "place":
		return "centroid"
	default:
		return "approximate"
	}
}
