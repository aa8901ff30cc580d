package geocode

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"

	"github.com/sells-group/warn-cli/internal/resilience"
)

func TestGeocode_NominatimSucceeds_NoFallbackCalls(t *testing.T) {
	var censusCalled atomic.Int32

	nomSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[{"lat":"47.6","lon":"-122.3","class":"building"}]`)
	}))
	defer nomSrv.Close()
	censusSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		censusCalled.Add(1)
		_, _ = io.WriteString(w, `{"result":{"addressMatches":[]}}`)
	}))
	defer censusSrv.Close()

	g := newTestGeocoder(nomSrv.URL, map[string]string{censusOneLineURL: censusSrv.URL})
	g.census = true

	result, err := g.Geocode(context.Background(), "1 Main St, Seattle, WA")
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, "nominatim", result.Source)
	assert.Equal(t, int32(0), censusCalled.Load())
}

func TestGeocode_FallsThroughToGoogle(t *testing.T) {
	nomSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}))
	defer nomSrv.Close()
	censusSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer censusSrv.Close()
	googleSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"status":"OK","results":[{"geometry":{"location":{"lat":45.5,"lng":-122.6},"location_type":"RANGE_INTERPOLATED"}}]}`)
	}))
	defer googleSrv.Close()

	g := newTestGeocoder(nomSrv.URL, map[string]string{
		censusOneLineURL: censusSrv.URL,
		googleGeocodeURL: googleSrv.URL,
	})
	g.census = true
	g.googleKey = "test-key"

	result, err := g.Geocode(context.Background(), "1 Main St, Portland, OR")
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, "google", result.Source)
	assert.Equal(t, "range", result.Quality)
}

func TestGeocode_AllMiss(t *testing.T) {
	nomSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `[]`)
	}))
	defer nomSrv.Close()

	g := newTestGeocoder(nomSrv.URL, nil)
	result, err := g.Geocode(context.Background(), "000 Nowhere, Faketown, XX")
	require.NoError(t, err)
	assert.False(t, result.Matched)
}

func TestGeocode_ErrorWhenNothingMatchedAndProviderFailed(t *testing.T) {
	nomSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer nomSrv.Close()

	g := newTestGeocoder(nomSrv.URL, nil)
	_, err := g.Geocode(context.Background(), "1 Main St, Kent, WA")
	assert.Error(t, err)
}

func TestGeocode_EmptyQuery(t *testing.T) {
	g := newTestGeocoder("", nil)
	result, err := g.Geocode(context.Background(), "   ")
	require.NoError(t, err)
	assert.False(t, result.Matched)
}

func TestGeocode_CachesRepeatedQueries(t *testing.T) {
	var calls atomic.Int32
	nomSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		calls.Add(1)
		_, _ = io.WriteString(w, `[{"lat":"47.6","lon":"-122.3"}]`)
	}))
	defer nomSrv.Close()

	g := newTestGeocoder(nomSrv.URL, nil)
	for _, q := range []string{"1 Main St, Seattle", "1 MAIN ST,  seattle"} {
		result, err := g.Geocode(context.Background(), q)
		require.NoError(t, err)
		assert.True(t, result.Matched)
	}
	assert.Equal(t, int32(1), calls.Load())
}

func TestGeocode_ContextCancelled(t *testing.T) {
	g := newTestGeocoder("", nil)
	g.limiter = rate.NewLimiter(rate.Every(time.Hour), 1)
	g.limiter.Allow()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := g.Geocode(ctx, "1 Main St")
	assert.Error(t, err)
}

func TestNewClient_Options(t *testing.T) {
	hc := &http.Client{}
	c := NewClient(
		WithHTTPClient(hc),
		WithUserAgent("ua"),
		WithNominatimURL("http://example.test/"),
		WithGoogleAPIKey("k"),
		WithCensusFallback(false),
		WithMinInterval(0),
	)
	g, ok := c.(*geocoder)
	require.True(t, ok)
	assert.Same(t, hc, g.httpClient)
	assert.Equal(t, "ua", g.userAgent)
	assert.Equal(t, "http://example.test", g.nominatimURL)
	assert.Equal(t, "k", g.googleKey)
	assert.False(t, g.census)
	assert.Equal(t, rate.Inf, g.limiter.Limit())
	assert.Len(t, g.providers(), 2)
}

func TestNewClient_DefaultPacing(t *testing.T) {
	g := NewClient().(*geocoder)
	assert.Equal(t, rate.Every(DefaultMinInterval), g.limiter.Limit())
	assert.Equal(t, 1, g.limiter.Burst())
}

func TestCacheKey(t *testing.T) {
	assert.Equal(t, cacheKey("1 Main St, Kent"), cacheKey("  1 main st,   KENT "))
	assert.NotEqual(t, cacheKey("1 Main St"), cacheKey("2 Main St"))
	assert.Len(t, cacheKey("x"), 64)
}

func TestGeocode_RetriesTransientStatus(t *testing.T) {
	var calls atomic.Int32
	nomSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		_, _ = io.WriteString(w, `[{"lat":"47.6","lon":"-122.3","class":"building"}]`)
	}))
	defer nomSrv.Close()

	g := newTestGeocoder(nomSrv.URL, nil)
	WithRetry(resilience.Policy{Attempts: 2, Backoff: time.Millisecond})(g)

	result, err := g.Geocode(context.Background(), "1 Main St, Seattle, WA")
	require.NoError(t, err)
	assert.True(t, result.Matched)
	assert.Equal(t, int32(2), calls.Load())
}

func TestNewClient_DefaultRetry(t *testing.T) {
	g := NewClient().(*geocoder)
	assert.Equal(t, 3, g.retry.Attempts)
	assert.NotNil(t, g.retry.OnRetry)
}
