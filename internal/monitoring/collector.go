// Package monitoring assembles point-in-time health snapshots from the
// reliability layer: circuit breaker metrics, singleflight counters, and
// cache counters. The snapshot drives the `health` command and the serve
// mode's /healthz endpoint.
package monitoring

import (
	"context"
	"time"

	"github.com/sells-group/enrich-cli/internal/cache"
	"github.com/sells-group/enrich-cli/internal/flight"
	"github.com/sells-group/enrich-cli/internal/resilience"
)

// Status summarizes overall engine health.
type Status string

const (
	StatusHealthy  Status = "healthy"
	StatusDegraded Status = "degraded"
	StatusDown     Status = "down"
)

// Snapshot holds a point-in-time view of engine health.
type Snapshot struct {
	Status           Status               `json:"status" yaml:"status"`
	Providers        []resilience.Metrics `json:"providers" yaml:"providers"`
	HealthyProviders []string             `json:"healthyProviders" yaml:"healthy_providers"`
	OpenCircuits     []string             `json:"openCircuits,omitempty" yaml:"open_circuits,omitempty"`
	Cache            cache.Stats          `json:"cache" yaml:"cache"`
	CacheRemoteOK    bool                 `json:"cacheRemoteOk" yaml:"cache_remote_ok"`
	Flight           flight.Stats         `json:"flight" yaml:"flight"`
	CollectedAt      time.Time            `json:"collectedAt" yaml:"collected_at"`
}

// Collector gathers snapshots from the shared reliability services.
type Collector struct {
	cache    *cache.Cache
	flights  *flight.Group
	breakers *resilience.BreakerRegistry
}

// NewCollector creates a metrics collector over the reliability layer.
func NewCollector(c *cache.Cache, f *flight.Group, b *resilience.BreakerRegistry) *Collector {
	return &Collector{cache: c, flights: f, breakers: b}
}

// Collect gathers a health snapshot. It never fails; an unreachable remote
// cache is reported in the snapshot rather than as an error.
func (c *Collector) Collect(ctx context.Context) *Snapshot {
	snap := &Snapshot{
		Providers:        c.breakers.AllMetrics(),
		HealthyProviders: c.breakers.HealthyProviders(),
		Cache:            c.cache.Stats(),
		CacheRemoteOK:    c.cache.Healthy(ctx),
		Flight:           c.flights.Stats(),
		CollectedAt:      time.Now().UTC(),
	}

	for _, m := range snap.Providers {
		if m.State == resilience.CircuitOpen.String() {
			snap.OpenCircuits = append(snap.OpenCircuits, m.Provider)
		}
	}

	snap.Status = statusOf(snap)
	return snap
}

// statusOf grades the snapshot: down when every known provider circuit is
// open, degraded when any circuit is open or the remote cache is
// unreachable, healthy otherwise.
func statusOf(snap *Snapshot) Status {
	if len(snap.Providers) > 0 && len(snap.OpenCircuits) == len(snap.Providers) {
		return StatusDown
	}
	if len(snap.OpenCircuits) > 0 || !snap.CacheRemoteOK {
		return StatusDegraded
	}
	return StatusHealthy
}
