// Package resilience retries transient failures of outbound HTTP calls with
// exponential backoff and jitter.
package resilience

import (
	"context"
	"math"
	"math/rand/v2"
	"time"

	"go.uber.org/zap"
)

// Policy controls how a call is retried.
type Policy struct {
	// Attempts is the total number of tries. Values below 1 mean a single try.
	Attempts int

	// Backoff is the delay before the first retry. Each later retry doubles it.
	Backoff time.Duration

	// MaxBackoff caps a single delay. Zero means no cap.
	MaxBackoff time.Duration

	// Jitter randomizes each delay by up to this fraction in either direction.
	Jitter float64

	// OnRetry, when set, is called before each retry sleep.
	OnRetry func(attempt int, err error)
}

// DefaultPolicy is three tries starting at two seconds, which stays above the
// Nominatim politeness interval.
func DefaultPolicy() Policy {
	return Policy{
		Attempts:   3,
		Backoff:    2 * time.Second,
		MaxBackoff: 30 * time.Second,
		Jitter:     0.25,
	}
}

// Do calls fn until it succeeds, returns an error IsTransient rejects, the
// attempts run out, or ctx is done. The last error is returned.
func Do[T any](ctx context.Context, p Policy, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	attempts := max(p.Attempts, 1)

	for attempt := 1; ; attempt++ {
		val, err := fn(ctx)
		if err == nil {
			return val, nil
		}
		if ctx.Err() != nil || !IsTransient(err) || attempt >= attempts {
			return zero, err
		}
		if p.OnRetry != nil {
			p.OnRetry(attempt, err)
		}

		timer := time.NewTimer(p.delay(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return zero, err
		case <-timer.C:
		}
	}
}

// delay returns the sleep before retry n, counting from 1.
func (p Policy) delay(n int) time.Duration {
	d := float64(p.Backoff) * math.Pow(2, float64(n-1))
	if p.MaxBackoff > 0 && d > float64(p.MaxBackoff) {
		d = float64(p.MaxBackoff)
	}
	if p.Jitter > 0 {
		d += (rand.Float64()*2 - 1) * d * p.Jitter
	}
	return time.Duration(max(d, 0))
}

// LogRetries returns an OnRetry callback that logs each retry for service.
func LogRetries(service string) func(int, error) {
	return func(attempt int, err error) {
		zap.L().Warn("retrying request",
			zap.String("service", service),
			zap.Int("attempt", attempt),
			zap.Error(err),
		)
	}
}
