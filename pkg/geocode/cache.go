package geocode

import (
	"crypto/sha256"
	"encoding/hex"
	"strings"
	"sync"
)

// memoryCache remembers results for the lifetime of one client so repeated
// queries in a batch cost a single request. Errors are never cached.
type memoryCache struct {
	mu      sync.Mutex
	entries map[string]Result
}

func newMemoryCache() *memoryCache {
	return &memoryCache{entries: map[string]Result{}}
}

func (c *memoryCache) get(key string) (*Result, bool) {
	if c == nil {
		return nil, false
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	r, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	return &r, true
}

func (c *memoryCache) put(key string, r *Result) {
	if c == nil || r == nil {
		return
	}
	c.mu.Lock()
	c.entries[key] = *r
	c.mu.Unlock()
}

// cacheKey produces a case- and whitespace-insensitive SHA-256 key for a query.
func cacheKey(query string) string {
	normalized := strings.ToLower(strings.Join(strings.Fields(query), " "))
	h := sha256.Sum256([]byte(normalized))
	return hex.EncodeToString(h[:])
}
