// Package geocode resolves free-text addresses to coordinates via OpenStreetMap
// Nominatim (primary), the Census one-line geocoder, and Google (optional).
package geocode

import (
	"context"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/warn-cli/internal/resilience"
)

// DefaultMinInterval is the politeness delay between outbound requests.
const DefaultMinInterval = 1500 * time.Millisecond

// Client geocodes free-text address queries.
type Client interface {
	// Geocode resolves query. A query with no match returns a Result with Matched=false and a nil error.
	Geocode(ctx context.Context, query string) (*Result, error)
}

// Result holds the geocoding output for a query.
type Result struct {
	Latitude    float64
	Longitude   float64
	Source      string // "nominatim", "census" or "google"
	Quality     string // "rooftop", "range", "centroid", "approximate"
	DisplayName string
	Matched     bool
}

// Option configures the geocoder.
type Option func(*geocoder)

// WithGoogleAPIKey enables the Google Geocoding API as the last fallback.
func WithGoogleAPIKey(key string) Option {
	return func(g *geocoder) {
		g.googleKey = key
	}
}

// WithHTTPClient sets a custom HTTP client for every provider.
func WithHTTPClient(hc *http.Client) Option {
	return func(g *geocoder) {
		if hc != nil {
			g.httpClient = hc
		}
	}
}

// WithUserAgent sets the User-Agent sent to Nominatim, which requires one.
func WithUserAgent(ua string) Option {
	return func(g *geocoder) {
		g.userAgent = ua
	}
}

// WithNominatimURL overrides the Nominatim base URL.
func WithNominatimURL(u string) Option {
	return func(g *geocoder) {
		if strings.TrimSpace(u) != "" {
			g.nominatimURL = strings.TrimRight(u, "/")
		}
	}
}

// WithMinInterval sets the minimum spacing between requests. Zero disables pacing.
func WithMinInterval(d time.Duration) Option {
	return func(g *geocoder) {
		if d <= 0 {
			g.limiter = rate.NewLimiter(rate.Inf, 1)
			return
		}
		g.limiter = rate.NewLimiter(rate.Every(d), 1)
	}
}

// WithRetry sets the retry policy applied to each provider lookup. A zero
// Policy disables retries.
func WithRetry(p resilience.Policy) Option {
	return func(g *geocoder) {
		g.retry = p
	}
}

// WithCensusFallback toggles the Census one-line fallback.
func WithCensusFallback(enabled bool) Option {
	return func(g *geocoder) {
		g.census = enabled
	}
}

type geocoder struct {
	httpClient   *http.Client
	userAgent    string
	nominatimURL string
	googleKey    string
	census       bool
	limiter      *rate.Limiter
	retry        resilience.Policy
	cache        *memoryCache
}

// NewClient creates a geocoding Client with the given options.
func NewClient(opts ...Option) Client {
	g := &geocoder{
		httpClient:   &http.Client{Timeout: 10 * time.Second},
		userAgent:    "warn-cli/1.0",
		nominatimURL: defaultNominatimURL,
		census:       true,
		limiter:      rate.NewLimiter(rate.Every(DefaultMinInterval), 1),
		retry:        resilience.DefaultPolicy(),
		cache:        newMemoryCache(),
	}
	g.retry.OnRetry = resilience.LogRetries("geocode")
	for _, opt := range opts {
		opt(g)
	}
	return g
}

type provider struct {
	name   string
	lookup func(ctx context.Context, query string) (*Result, error)
}

// providers lists the enabled backends in cascade order.
func (g *geocoder) providers() []provider {
	out := []provider{{"nominatim", g.geocodeNominatim}}
	if g.census {
		out = append(out, provider{"census", g.geocodeCensus})
	}
	if g.googleKey != "" {
		out = append(out, provider{"google", g.geocodeGoogle})
	}
	return out
}

// Geocode tries Nominatim, then Census, then Google if configured, and returns
// the first match. Transient provider failures are retried per the client's
// policy first. Provider errors fall through to the next provider; the last
// error is returned only when no provider matched and at least one failed.
func (g *geocoder) Geocode(ctx context.Context, query string) (*Result, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return &Result{Matched: false}, nil
	}

	key := cacheKey(query)
	if cached, ok := g.cache.get(key); ok {
		return cached, nil
	}

	var lastErr error
	for _, p := range g.providers() {
		result, err := resilience.Do(ctx, g.retry, func(ctx context.Context) (*Result, error) {
			return p.lookup(ctx, query)
		})
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			zap.L().Debug("geocode: provider error, trying next",
				zap.String("provider", p.name),
				zap.String("query", query),
				zap.Error(err),
			)
			lastErr = err
			continue
		}
		if result.Matched {
			g.cache.put(key, result)
			return result, nil
		}
	}

	if lastErr != nil {
		return nil, lastErr
	}
	noMatch := &Result{Matched: false}
	g.cache.put(key, noMatch)
	return noMatch, nil
}
