package main

import (
	"net/http"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/sells-group/warn-cli/internal/resilience"
	"github.com/sells-group/warn-cli/pkg/geocode"
)

var geocodeIn string

var geocodeCmd = &cobra.Command{
	Use:   "geocode",
	Short: "Maintain the facility geocode table",
}

// geocodeTable returns the geocode CSV to operate on.
func geocodeTable() string {
	return override(geocodeIn, cfg.Paths.Geocodes)
}

// geocodeSibling returns name in the geocode table's directory.
func geocodeSibling(name string) string {
	return filepath.Join(filepath.Dir(geocodeTable()), name)
}

func newGeocodeClient() geocode.Client {
	g := cfg.Geocode
	retry := resilience.DefaultPolicy()
	retry.Attempts = g.Retries
	retry.OnRetry = resilience.LogRetries("geocode")
	return geocode.NewClient(
		geocode.WithRetry(retry),
		geocode.WithHTTPClient(&http.Client{Timeout: time.Duration(g.TimeoutSecs) * time.Second}),
		geocode.WithUserAgent(g.UserAgent),
		geocode.WithNominatimURL(g.NominatimURL),
		geocode.WithMinInterval(time.Duration(g.DelayMs)*time.Millisecond),
		geocode.WithCensusFallback(g.Census),
		geocode.WithGoogleAPIKey(g.GoogleKey),
	)
}

func init() {
	geocodeCmd.PersistentFlags().StringVar(&geocodeIn, "geocodes", "", "geocode CSV (default from config)")
	rootCmd.AddCommand(geocodeCmd)
}
