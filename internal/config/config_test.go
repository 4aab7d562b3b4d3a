package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "enrich", cfg.Cache.KeyPrefix)
	assert.Equal(t, int64(3), cfg.Cache.Version)
	assert.Equal(t, 10_000, cfg.Cache.MaxMemoryEntries)
	assert.Equal(t, 5, cfg.Breaker.FailureThreshold)
	assert.Equal(t, 30_000, cfg.Breaker.ResetTimeoutMs)
	assert.Equal(t, 10, cfg.Breaker.MinRequests)
	assert.Equal(t, 10, cfg.Serper.NumResults)
	assert.Equal(t, 8, cfg.Scrape.TimeoutSecs)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Empty(t, cfg.Redis.URL, "memory-only by default")
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("ENRICH_CACHE_KEY_PREFIX", "enrich-staging")
	t.Setenv("ENRICH_CACHE_VERSION", "7")
	t.Setenv("ENRICH_BREAKER_FAILURE_THRESHOLD", "2")
	t.Setenv("ENRICH_SERPER_KEY", "test-key")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "enrich-staging", cfg.Cache.KeyPrefix)
	assert.Equal(t, int64(7), cfg.Cache.Version)
	assert.Equal(t, 2, cfg.Breaker.FailureThreshold)
	assert.Equal(t, "test-key", cfg.Serper.Key)
}

func TestCachePolicy(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	policy := cfg.CachePolicy()
	assert.Equal(t, "enrich", policy.Prefix)
	assert.Equal(t, int64(3), policy.Version)
	assert.Equal(t, 20*24*time.Hour, policy.DefaultTTL)
	assert.Equal(t, 24*time.Hour, policy.NegativeTTL)
	assert.Equal(t, 7*24*time.Hour, policy.NegativeLongTTL)
	assert.Equal(t, 7*24*time.Hour, policy.EmailVerifyTTL)
}

func TestBreakerPolicy(t *testing.T) {
	cfg := &Config{Breaker: BreakerConfig{
		FailureThreshold: 2,
		ResetTimeoutMs:   5_000,
		SuccessThreshold: 1,
		WindowMs:         10_000,
		MinRequests:      4,
	}}

	policy := cfg.BreakerPolicy()
	assert.Equal(t, 2, policy.FailureThreshold)
	assert.Equal(t, 5*time.Second, policy.ResetTimeout)
	assert.Equal(t, 1, policy.SuccessThreshold)
	assert.Equal(t, 10*time.Second, policy.Window)
	assert.Equal(t, 4, policy.MinimumRequests)
}

func TestToolsEnabled(t *testing.T) {
	tc := ToolsConfig{Disabled: []string{"person.email_work"}}
	assert.False(t, tc.Enabled("person.email_work"))
	assert.True(t, tc.Enabled("company.resolve_name"))
}
