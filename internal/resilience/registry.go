package resilience

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"
)

// BreakerRegistry manages one circuit breaker per provider name for the
// lifetime of the process.
type BreakerRegistry struct {
	mu       sync.RWMutex
	breakers map[string]*CircuitBreaker
	cfg      CircuitBreakerConfig
}

// NewBreakerRegistry creates a registry of per-provider circuit breakers.
func NewBreakerRegistry(cfg CircuitBreakerConfig) *BreakerRegistry {
	return &BreakerRegistry{
		breakers: make(map[string]*CircuitBreaker),
		cfg:      cfg,
	}
}

// Get returns the breaker for the named provider, creating one if needed.
func (r *BreakerRegistry) Get(provider string) *CircuitBreaker {
	r.mu.RLock()
	cb, ok := r.breakers[provider]
	r.mu.RUnlock()
	if ok {
		return cb
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	// Double-check after acquiring write lock.
	if cb, ok = r.breakers[provider]; ok {
		return cb
	}
	cb = NewCircuitBreaker(provider, r.cfg)
	r.breakers[provider] = cb
	return cb
}

// WithBreaker runs fn through the named provider's breaker: rejects
// immediately with a CircuitOpenError when the circuit is open, otherwise
// times the call and records the outcome (context deadline errors count as
// timeouts).
func WithBreaker[T any](ctx context.Context, r *BreakerRegistry, provider string, costCents int, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	cb := r.Get(provider)

	if !cb.CanRequest() {
		return zero, &CircuitOpenError{Provider: provider, NextRetry: cb.NextRetryTime()}
	}

	start := time.Now()
	val, err := fn(ctx)
	elapsed := time.Since(start)

	if err != nil {
		timedOut := errors.Is(err, context.DeadlineExceeded)
		cb.RecordFailure(elapsed, costCents, timedOut)
		return zero, err
	}
	cb.RecordSuccess(elapsed, costCents)
	return val, nil
}

// AllMetrics returns metrics snapshots for every registered provider,
// sorted by provider name for stable output.
func (r *BreakerRegistry) AllMetrics() []Metrics {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Metrics, 0, len(r.breakers))
	for _, cb := range r.breakers {
		out = append(out, cb.Metrics())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Provider < out[j].Provider })
	return out
}

// HealthyProviders returns the providers currently accepting requests,
// ranked best-first by (1 − errorRate)·100 − p50Millis/100.
func (r *BreakerRegistry) HealthyProviders() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	type scored struct {
		name  string
		score float64
	}
	var healthy []scored
	for name, cb := range r.breakers {
		if cb.State() == CircuitOpen {
			continue
		}
		m := cb.Metrics()
		score := (1-m.ErrorRate)*100 - float64(m.P50Latency.Milliseconds())/100
		healthy = append(healthy, scored{name: name, score: score})
	}
	sort.Slice(healthy, func(i, j int) bool {
		if healthy[i].score != healthy[j].score {
			return healthy[i].score > healthy[j].score
		}
		return healthy[i].name < healthy[j].name
	})

	names := make([]string, len(healthy))
	for i, s := range healthy {
		names[i] = s.name
	}
	return names
}
