// Package provider defines the adapter contracts the enrichment tools
// consume (search, structured LLM extraction, page fetch, email finder) and
// the reliability wrapper every external call passes through:
//
//	cache lookup
//	  └─ on miss: singleflight coalesce
//	       └─ inside the flight: circuit breaker
//	             └─ raw provider call
//
// Successful results are written back to the cache; provider failures write
// a negative entry so retries within the negative TTL are short-circuited.
package provider

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/enrich-cli/internal/cache"
	"github.com/sells-group/enrich-cli/internal/flight"
	"github.com/sells-group/enrich-cli/internal/resilience"
)

// ErrNegativeCached reports that a previous lookup for the same key found
// nothing; the provider call was skipped.
var ErrNegativeCached = eris.New("provider: negative cache entry")

// ErrSchemaViolation reports that the structured extractor returned a shape
// the schema forbids. Treated as a provider failure.
var ErrSchemaViolation = eris.New("provider: schema violation")

// Services bundles the reliability layer shared by all adapters. Created
// once at process init and threaded through.
type Services struct {
	Cache    *cache.Cache
	Flight   *flight.Group
	Breakers *resilience.BreakerRegistry
}

// NewServices creates the reliability bundle.
func NewServices(c *cache.Cache, f *flight.Group, b *resilience.BreakerRegistry) *Services {
	return &Services{Cache: c, Flight: f, Breakers: b}
}

// Call describes one wrapped provider call.
type Call struct {
	// CacheKey is the base cache key (versioned prefix applied by the cache).
	CacheKey string
	// TTL for the cached result; zero means the cache default.
	TTL time.Duration
	// FlightKey coalesces concurrent callers; defaults to CacheKey.
	FlightKey string
	// Provider names the breaker guarding the call.
	Provider string
	// CostCents is recorded in the breaker's rolling window.
	CostCents int
	// SkipNegative suppresses the negative write on failure (for calls
	// whose failures are not worth damping).
	SkipNegative bool
}

// Do runs fn through the full reliability stack. A negative cache hit
// returns ErrNegativeCached without touching the provider; a circuit-open
// rejection surfaces as a resilience.CircuitOpenError.
func Do[T any](ctx context.Context, s *Services, call Call, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	cached, res := cache.GetJSON[T](ctx, s.Cache, call.CacheKey, call.TTL)
	if res.Hit {
		if res.IsNegative {
			return zero, ErrNegativeCached
		}
		return cached, nil
	}

	flightKey := call.FlightKey
	if flightKey == "" {
		flightKey = call.CacheKey
	}

	return flight.DoVal(ctx, s.Flight, flightKey, func(ctx context.Context) (T, error) {
		// A waiter that queued behind the leader may find the cache warm now.
		cached, res := cache.GetJSON[T](ctx, s.Cache, call.CacheKey, call.TTL)
		if res.Hit && !res.IsNegative {
			return cached, nil
		}

		val, err := resilience.WithBreaker(ctx, s.Breakers, call.Provider, call.CostCents, fn)
		if err != nil {
			if !call.SkipNegative && !resilience.IsCircuitOpen(err) {
				_ = s.Cache.SetNegative(ctx, call.CacheKey)
			}
			return zero, err
		}

		_ = s.Cache.Set(ctx, call.CacheKey, val, call.TTL)
		return val, nil
	})
}
