// Package resilience provides the circuit breaker, retry, and transient
// error taxonomy that every provider call passes through.
package resilience

import (
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// CircuitState represents the state of a circuit breaker.
type CircuitState int

const (
	// CircuitClosed is the normal operating state — requests flow through.
	CircuitClosed CircuitState = iota
	// CircuitOpen means too many failures — requests are rejected immediately.
	CircuitOpen
	// CircuitHalfOpen allows probe requests to test recovery.
	CircuitHalfOpen
)

func (s CircuitState) String() string {
	switch s {
	case CircuitClosed:
		return "closed"
	case CircuitOpen:
		return "open"
	case CircuitHalfOpen:
		return "half-open"
	default:
		return "unknown"
	}
}

// ParseCircuitState maps a state name back to a CircuitState. Used by the
// breaker-force admin command.
func ParseCircuitState(s string) (CircuitState, error) {
	switch s {
	case "closed":
		return CircuitClosed, nil
	case "open":
		return CircuitOpen, nil
	case "half-open", "halfopen", "half_open":
		return CircuitHalfOpen, nil
	default:
		return CircuitClosed, eris.Errorf("resilience: unknown circuit state %q", s)
	}
}

// CircuitOpenError is returned when a call is rejected by an open circuit.
// It names the provider and when the next probe will be allowed.
type CircuitOpenError struct {
	Provider  string
	NextRetry time.Time
}

func (e *CircuitOpenError) Error() string {
	return "circuit breaker open for " + e.Provider + ", next retry at " +
		e.NextRetry.Format(time.RFC3339)
}

// IsCircuitOpen reports whether err is a circuit-open rejection.
func IsCircuitOpen(err error) bool {
	var coe *CircuitOpenError
	return eris.As(err, &coe)
}

// CircuitBreakerConfig controls circuit breaker behavior.
type CircuitBreakerConfig struct {
	// FailureThreshold is the failure count that opens the circuit once the
	// window holds at least MinimumRequests samples. Default: 5.
	FailureThreshold int

	// ResetTimeout is how long the circuit stays open before a probe is
	// allowed. Default: 30s.
	ResetTimeout time.Duration

	// SuccessThreshold is the number of half-open successes required before
	// closing. Default: 3.
	SuccessThreshold int

	// Window bounds the rolling sample window. Default: 60s.
	Window time.Duration

	// MinimumRequests gates the open transition so a cold breaker with a
	// couple of failures does not trip. Default: 10.
	MinimumRequests int

	// OnStateChange is called when the circuit transitions between states.
	OnStateChange func(provider string, from, to CircuitState)
}

// DefaultCircuitBreakerConfig returns the canonical defaults.
func DefaultCircuitBreakerConfig() CircuitBreakerConfig {
	return CircuitBreakerConfig{
		FailureThreshold: 5,
		ResetTimeout:     30 * time.Second,
		SuccessThreshold: 3,
		Window:           60 * time.Second,
		MinimumRequests:  10,
	}
}

// sample is one recorded call in the rolling window.
type sample struct {
	ts        time.Time
	success   bool
	timeout   bool
	latency   time.Duration
	costCents int
}

// Metrics is a snapshot of a breaker's rolling window.
type Metrics struct {
	Provider      string        `json:"provider" yaml:"provider"`
	State         string        `json:"state" yaml:"state"`
	Total         int           `json:"total" yaml:"total"`
	Successful    int           `json:"successful" yaml:"successful"`
	Failed        int           `json:"failed" yaml:"failed"`
	Timeouts      int           `json:"timeouts" yaml:"timeouts"`
	ErrorRate     float64       `json:"errorRate" yaml:"error_rate"`
	P50Latency    time.Duration `json:"p50Latency" yaml:"p50_latency"`
	P95Latency    time.Duration `json:"p95Latency" yaml:"p95_latency"`
	P99Latency    time.Duration `json:"p99Latency" yaml:"p99_latency"`
	AvgCostCents  float64       `json:"avgCostCents" yaml:"avg_cost_cents"`
	NextRetryTime *time.Time    `json:"nextRetryTime,omitempty" yaml:"next_retry_time,omitempty"`
}

// CircuitBreaker guards calls to a single provider. The state trajectory is
// exactly CLOSED→OPEN, OPEN→HALF_OPEN, HALF_OPEN→OPEN, HALF_OPEN→CLOSED.
type CircuitBreaker struct {
	provider string
	cfg      CircuitBreakerConfig

	mu                sync.Mutex
	state             CircuitState
	failures          int
	halfOpenSuccesses int
	lastFailureTime   time.Time
	window            []sample

	// nowFunc allows test injection of time.
	nowFunc func() time.Time
}

// NewCircuitBreaker creates a breaker for the named provider.
func NewCircuitBreaker(provider string, cfg CircuitBreakerConfig) *CircuitBreaker {
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 5
	}
	if cfg.ResetTimeout <= 0 {
		cfg.ResetTimeout = 30 * time.Second
	}
	if cfg.SuccessThreshold <= 0 {
		cfg.SuccessThreshold = 3
	}
	if cfg.Window <= 0 {
		cfg.Window = 60 * time.Second
	}
	if cfg.MinimumRequests <= 0 {
		cfg.MinimumRequests = 10
	}
	return &CircuitBreaker{
		provider: provider,
		cfg:      cfg,
		state:    CircuitClosed,
		nowFunc:  time.Now,
	}
}

// CanRequest reports whether a call may proceed, transitioning OPEN to
// HALF_OPEN once the reset timeout has elapsed.
func (cb *CircuitBreaker) CanRequest() bool {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	switch cb.state {
	case CircuitOpen:
		if cb.nowFunc().Sub(cb.lastFailureTime) >= cb.cfg.ResetTimeout {
			cb.transition(CircuitHalfOpen)
			cb.halfOpenSuccesses = 0
			return true
		}
		return false
	default:
		return true
	}
}

// RecordSuccess appends a successful call to the window. In CLOSED state a
// success decrements the failure counter (floor zero); in HALF_OPEN enough
// successes close the circuit.
func (cb *CircuitBreaker) RecordSuccess(latency time.Duration, costCents int) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.appendSample(sample{ts: cb.nowFunc(), success: true, latency: latency, costCents: costCents})

	switch cb.state {
	case CircuitHalfOpen:
		cb.halfOpenSuccesses++
		if cb.halfOpenSuccesses >= cb.cfg.SuccessThreshold {
			cb.transition(CircuitClosed)
			cb.failures = 0
			cb.halfOpenSuccesses = 0
		}
	case CircuitClosed:
		if cb.failures > 0 {
			cb.failures--
		}
	}
}

// RecordFailure appends a failed call to the window. A timeout is recorded
// as a failure whose latency equals the timeout.
func (cb *CircuitBreaker) RecordFailure(latency time.Duration, costCents int, timedOut bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	now := cb.nowFunc()
	cb.appendSample(sample{ts: now, timeout: timedOut, latency: latency, costCents: costCents})
	cb.failures++
	cb.lastFailureTime = now

	switch cb.state {
	case CircuitClosed:
		if len(cb.window) >= cb.cfg.MinimumRequests && cb.failures >= cb.cfg.FailureThreshold {
			cb.transition(CircuitOpen)
		}
	case CircuitHalfOpen:
		// Any failure during probing reopens immediately.
		cb.transition(CircuitOpen)
		cb.halfOpenSuccesses = 0
	}
}

// State returns the current circuit state without mutating it.
func (cb *CircuitBreaker) State() CircuitState {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if cb.state == CircuitOpen && cb.nowFunc().Sub(cb.lastFailureTime) >= cb.cfg.ResetTimeout {
		return CircuitHalfOpen
	}
	return cb.state
}

// NextRetryTime returns when an open breaker will next allow a probe.
func (cb *CircuitBreaker) NextRetryTime() time.Time {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.lastFailureTime.Add(cb.cfg.ResetTimeout)
}

// ForceState pins the breaker into a state. Admin and test use only.
func (cb *CircuitBreaker) ForceState(s CircuitState) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if s != cb.state {
		cb.transition(s)
	}
	cb.failures = 0
	cb.halfOpenSuccesses = 0
	if s == CircuitOpen {
		cb.lastFailureTime = cb.nowFunc()
	}
}

// Metrics computes a snapshot over the rolling window.
func (cb *CircuitBreaker) Metrics() Metrics {
	cb.mu.Lock()
	defer cb.mu.Unlock()

	cb.pruneWindow(cb.nowFunc())

	m := Metrics{
		Provider: cb.provider,
		State:    cb.state.String(),
		Total:    len(cb.window),
	}
	if cb.state == CircuitOpen {
		next := cb.lastFailureTime.Add(cb.cfg.ResetTimeout)
		m.NextRetryTime = &next
	}
	if len(cb.window) == 0 {
		return m
	}

	latencies := make([]time.Duration, 0, len(cb.window))
	totalCost := 0
	for _, s := range cb.window {
		latencies = append(latencies, s.latency)
		totalCost += s.costCents
		if s.success {
			m.Successful++
		} else {
			m.Failed++
			if s.timeout {
				m.Timeouts++
			}
		}
	}
	sort.Slice(latencies, func(i, j int) bool { return latencies[i] < latencies[j] })
	m.P50Latency = percentile(latencies, 0.50)
	m.P95Latency = percentile(latencies, 0.95)
	m.P99Latency = percentile(latencies, 0.99)
	m.ErrorRate = float64(m.Failed) / float64(m.Total)
	m.AvgCostCents = float64(totalCost) / float64(m.Total)
	return m
}

func (cb *CircuitBreaker) appendSample(s sample) {
	cb.window = append(cb.window, s)
	cb.pruneWindow(s.ts)
}

func (cb *CircuitBreaker) pruneWindow(now time.Time) {
	cutoff := now.Add(-cb.cfg.Window)
	i := 0
	for i < len(cb.window) && cb.window[i].ts.Before(cutoff) {
		i++
	}
	if i > 0 {
		cb.window = append(cb.window[:0], cb.window[i:]...)
	}
}

func (cb *CircuitBreaker) transition(to CircuitState) {
	from := cb.state
	cb.state = to
	zap.L().Info("resilience: circuit state change",
		zap.String("provider", cb.provider),
		zap.String("from", from.String()),
		zap.String("to", to.String()),
	)
	if cb.cfg.OnStateChange != nil {
		cb.cfg.OnStateChange(cb.provider, from, to)
	}
}

func percentile(sorted []time.Duration, p float64) time.Duration {
	if len(sorted) == 0 {
		return 0
	}
	idx := int(p * float64(len(sorted)))
	if idx >= len(sorted) {
		idx = len(sorted) - 1
	}
	return sorted[idx]
}
