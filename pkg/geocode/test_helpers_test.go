package geocode

import (
	"net/http"
	"strings"

	"golang.org/x/time/rate"
)

// newTestLimiter creates a rate limiter that effectively does not limit for tests.
func newTestLimiter() *rate.Limiter {
	return rate.NewLimiter(rate.Inf, 1)
}

// newTestGeocoder builds a geocoder that sends every provider's traffic to test servers.
// Providers with an empty URL are pointed at an unroutable address.
func newTestGeocoder(nominatimURL string, rewrites map[string]string) *geocoder {
	if nominatimURL == "" {
		nominatimURL = "http://127.0.0.1:1"
	}
	return &geocoder{
		httpClient:   &http.Client{Transport: &multiRewriteTransport{base: http.DefaultTransport, rewrites: rewrites}},
		userAgent:    "warn-cli-test",
		nominatimURL: nominatimURL,
		limiter:      newTestLimiter(),
		cache:        newMemoryCache(),
	}
}

// multiRewriteTransport rewrites URLs based on a prefix map.
type multiRewriteTransport struct {
	base     http.RoundTripper
	rewrites map[string]string
}

func (t *multiRewriteTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	origURL := req.URL.String()
	for prefix, testURL := range t.rewrites {
		if strings.HasPrefix(origURL, prefix) {
			newReq := req.Clone(req.Context())
			parsed, err := req.URL.Parse(testURL + origURL[len(prefix):])
			if err != nil {
				return nil, err
			}
			newReq.URL = parsed
			newReq.Host = parsed.Host
			return t.base.RoundTrip(newReq)
		}
	}
	return t.base.RoundTrip(req)
}
