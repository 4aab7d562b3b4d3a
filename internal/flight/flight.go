// Package flight coalesces concurrent calls for the same logical key into a
// single execution. It wraps golang.org/x/sync/singleflight with the flight
// key scheme used across the engine (cell-level and provider-level) and
// keeps counters for the health surface.
package flight

import (
	"context"
	"fmt"
	"sync/atomic"

	"golang.org/x/sync/singleflight"
)

// CellKey is the flight key for one (rowId, field) enrichment cell.
func CellKey(rowID, field string) string {
	return fmt.Sprintf("cell:%s:%s", rowID, field)
}

// ProviderKey is the flight key for one (rowId, provider) call.
func ProviderKey(rowID, provider string) string {
	return fmt.Sprintf("provider:%s:%s", rowID, provider)
}

// Stats is a snapshot of the group's counters.
type Stats struct {
	Total     int64   `json:"total" yaml:"total"`
	Executed  int64   `json:"executed" yaml:"executed"`
	Coalesced int64   `json:"coalesced" yaml:"coalesced"`
	Errors    int64   `json:"errors" yaml:"errors"`
	MeanWait  float64 `json:"meanWaitersPerExecution" yaml:"mean_waiters_per_execution"`
}

// Group coalesces calls per key. The zero value is not usable; use NewGroup.
type Group struct {
	sf singleflight.Group

	total     atomic.Int64
	executed  atomic.Int64
	coalesced atomic.Int64
	errors    atomic.Int64
}

// NewGroup creates an empty flight group.
func NewGroup() *Group {
	return &Group{}
}

// Do runs fn for key, coalescing concurrent callers: at most one invocation
// of fn executes for any key at a time, and every waiter observes the same
// outcome, success or failure. Context cancellation of a waiter does not
// cancel the in-flight leader.
func (g *Group) Do(ctx context.Context, key string, fn func(ctx context.Context) (any, error)) (any, error) {
	g.total.Add(1)

	v, err, shared := g.sf.Do(key, func() (any, error) {
		g.executed.Add(1)
		// The leader runs under the caller's context; waiters share its fate.
		return fn(ctx)
	})
	if shared {
		g.coalesced.Add(1)
	}
	if err != nil {
		g.errors.Add(1)
	}
	return v, err
}

// DoVal is a typed wrapper over Do.
func DoVal[T any](ctx context.Context, g *Group, key string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	v, err := g.Do(ctx, key, func(ctx context.Context) (any, error) {
		return fn(ctx)
	})
	if err != nil {
		return zero, err
	}
	if v == nil {
		return zero, nil
	}
	return v.(T), nil
}

// Forget removes a key so the next Do starts a fresh flight. Used after
// cache invalidation.
func (g *Group) Forget(key string) {
	g.sf.Forget(key)
}

// Stats returns a snapshot of the counters.
func (g *Group) Stats() Stats {
	s := Stats{
		Total:     g.total.Load(),
		Executed:  g.executed.Load(),
		Coalesced: g.coalesced.Load(),
		Errors:    g.errors.Load(),
	}
	if s.Executed > 0 {
		s.MeanWait = float64(s.Total) / float64(s.Executed)
	}
	return s
}
