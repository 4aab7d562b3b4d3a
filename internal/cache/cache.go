// Package cache provides the versioned, prefixed key/value layer every
// provider call sits behind. Keys follow "<prefix>:v<version>:<baseKey>";
// entries embed the version they were written under and are rejected (and
// deleted) when it no longer matches. A remote redis store is optional —
// when absent or unreachable the cache degrades to an in-process LRU, and
// every set writes both copies so warmth survives transient outages.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Canonical TTLs (spec defaults; overridable via Config).
const (
	DefaultArtifactTTL      = 20 * 24 * time.Hour // profiles, socials, size, search, llm, scrape, linkedin
	DefaultEmailVerifyTTL   = 7 * 24 * time.Hour
	DefaultNegativeShortTTL = 24 * time.Hour
	DefaultNegativeLongTTL  = 7 * 24 * time.Hour
)

// Config controls key scheme and TTL policy.
type Config struct {
	Prefix           string
	Version          int64
	DefaultTTL       time.Duration
	NegativeTTL      time.Duration
	NegativeLongTTL  time.Duration
	EmailVerifyTTL   time.Duration
	MaxMemoryEntries int
}

// DefaultConfig returns the canonical cache policy.
func DefaultConfig() Config {
	return Config{
		Prefix:           "enrich",
		Version:          3,
		DefaultTTL:       DefaultArtifactTTL,
		NegativeTTL:      DefaultNegativeShortTTL,
		NegativeLongTTL:  DefaultNegativeLongTTL,
		EmailVerifyTTL:   DefaultEmailVerifyTTL,
		MaxMemoryEntries: 10_000,
	}
}

// entry is the stored envelope. Value is raw JSON so the cache stays
// type-agnostic; negative entries carry a null value.
type entry struct {
	Value      json.RawMessage `json:"value"`
	Timestamp  int64           `json:"timestamp"` // unix seconds
	Version    int64           `json:"version"`
	IsNegative bool            `json:"isNegative,omitempty"`
}

// Result is the outcome of a lookup.
type Result struct {
	Value      json.RawMessage
	Hit        bool
	IsNegative bool
}

// Stats are monotonically increasing cache counters.
type Stats struct {
	Hits         int64 `json:"hits" yaml:"hits"`
	Misses       int64 `json:"misses" yaml:"misses"`
	NegativeHits int64 `json:"negativeHits" yaml:"negative_hits"`
	Sets         int64 `json:"sets" yaml:"sets"`
	NegativeSets int64 `json:"negativeSets" yaml:"negative_sets"`
	RemoteErrors int64 `json:"remoteErrors" yaml:"remote_errors"`
	Version      int64 `json:"version" yaml:"version"`
}

// Cache is the versioned layer over a remote store plus a memory fallback.
type Cache struct {
	cfg     Config
	remote  KVStore // nil when redis is unconfigured
	memory  *MemoryStore
	version atomic.Int64

	hits         atomic.Int64
	misses       atomic.Int64
	negativeHits atomic.Int64
	sets         atomic.Int64
	negativeSets atomic.Int64
	remoteErrors atomic.Int64

	nowFunc func() time.Time
}

// New creates a Cache. remote may be nil; the memory fallback is always
// present and bounded by cfg.MaxMemoryEntries.
func New(cfg Config, remote KVStore) *Cache {
	if cfg.Prefix == "" {
		cfg.Prefix = "enrich"
	}
	if cfg.DefaultTTL <= 0 {
		cfg.DefaultTTL = DefaultArtifactTTL
	}
	if cfg.NegativeTTL <= 0 {
		cfg.NegativeTTL = DefaultNegativeShortTTL
	}
	if cfg.NegativeLongTTL <= 0 {
		cfg.NegativeLongTTL = DefaultNegativeLongTTL
	}
	if cfg.EmailVerifyTTL <= 0 {
		cfg.EmailVerifyTTL = DefaultEmailVerifyTTL
	}
	c := &Cache{
		cfg:     cfg,
		remote:  remote,
		memory:  NewMemoryStore(cfg.MaxMemoryEntries, cfg.DefaultTTL),
		nowFunc: time.Now,
	}
	c.version.Store(cfg.Version)
	return c
}

// Key builds the full versioned key for a base key.
func (c *Cache) Key(baseKey string) string {
	return fmt.Sprintf("%s:v%d:%s", c.cfg.Prefix, c.version.Load(), baseKey)
}

// Version returns the current cache version.
func (c *Cache) Version() int64 { return c.version.Load() }

// DefaultTTL exposes the artifact TTL for callers that store derived data.
func (c *Cache) DefaultTTL() time.Duration { return c.cfg.DefaultTTL }

// EmailVerifyTTL exposes the email-verification TTL.
func (c *Cache) EmailVerifyTTL() time.Duration { return c.cfg.EmailVerifyTTL }

// Get looks up baseKey. Version mismatches and expired envelopes count as
// misses and trigger a best-effort delete.
func (c *Cache) Get(ctx context.Context, baseKey string, ttl time.Duration) Result {
	key := c.Key(baseKey)
	raw, found := c.load(ctx, key)
	if !found {
		c.misses.Add(1)
		return Result{}
	}

	var e entry
	if err := json.Unmarshal([]byte(raw), &e); err != nil {
		c.misses.Add(1)
		c.delete(ctx, key)
		return Result{}
	}

	if e.Version != c.version.Load() {
		c.misses.Add(1)
		c.delete(ctx, key)
		return Result{}
	}

	if ttl <= 0 {
		ttl = c.cfg.DefaultTTL
	}
	if e.IsNegative {
		ttl = c.cfg.NegativeTTL
	}
	if c.nowFunc().Sub(time.Unix(e.Timestamp, 0)) > ttl {
		c.misses.Add(1)
		c.delete(ctx, key)
		return Result{}
	}

	if e.IsNegative {
		c.negativeHits.Add(1)
		return Result{Hit: true, IsNegative: true}
	}
	c.hits.Add(1)
	return Result{Value: e.Value, Hit: true}
}

// Set stores a positive entry under baseKey.
func (c *Cache) Set(ctx context.Context, baseKey string, value any, ttl time.Duration) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return eris.Wrap(err, "cache: marshal value")
	}
	if ttl <= 0 {
		ttl = c.cfg.DefaultTTL
	}
	c.sets.Add(1)
	return c.store(ctx, c.Key(baseKey), entry{
		Value:     raw,
		Timestamp: c.nowFunc().Unix(),
		Version:   c.version.Load(),
	}, ttl)
}

// SetNegative records that a lookup yielded nothing, with the short
// negative TTL, so retries are damped.
func (c *Cache) SetNegative(ctx context.Context, baseKey string) error {
	c.negativeSets.Add(1)
	return c.store(ctx, c.Key(baseKey), entry{
		Value:      json.RawMessage("null"),
		Timestamp:  c.nowFunc().Unix(),
		Version:    c.version.Load(),
		IsNegative: true,
	}, c.cfg.NegativeTTL)
}

// GetMultiple batch-fetches base keys, applying the same version and TTL
// checks as Get. Negative and stale entries are omitted from the result.
func (c *Cache) GetMultiple(ctx context.Context, baseKeys []string, ttl time.Duration) map[string]json.RawMessage {
	if len(baseKeys) == 0 {
		return map[string]json.RawMessage{}
	}
	keys := make([]string, len(baseKeys))
	byFull := make(map[string]string, len(baseKeys))
	for i, bk := range baseKeys {
		keys[i] = c.Key(bk)
		byFull[keys[i]] = bk
	}

	raws := c.loadMultiple(ctx, keys)
	out := make(map[string]json.RawMessage, len(raws))
	if ttl <= 0 {
		ttl = c.cfg.DefaultTTL
	}
	now := c.nowFunc()
	for full, raw := range raws {
		var e entry
		if err := json.Unmarshal([]byte(raw), &e); err != nil {
			continue
		}
		if e.Version != c.version.Load() || e.IsNegative {
			continue
		}
		if now.Sub(time.Unix(e.Timestamp, 0)) > ttl {
			continue
		}
		c.hits.Add(1)
		out[byFull[full]] = e.Value
	}
	return out
}

// SetMultiple batch-stores positive entries, pipelined on the remote side.
func (c *Cache) SetMultiple(ctx context.Context, values map[string]any, ttl time.Duration) error {
	if len(values) == 0 {
		return nil
	}
	if ttl <= 0 {
		ttl = c.cfg.DefaultTTL
	}
	now := c.nowFunc().Unix()
	ver := c.version.Load()
	encoded := make(map[string]string, len(values))
	for bk, v := range values {
		raw, err := json.Marshal(v)
		if err != nil {
			return eris.Wrapf(err, "cache: marshal value for %s", bk)
		}
		env, err := json.Marshal(entry{Value: raw, Timestamp: now, Version: ver})
		if err != nil {
			return eris.Wrap(err, "cache: marshal envelope")
		}
		encoded[c.Key(bk)] = string(env)
		c.sets.Add(1)
	}

	if err := c.memory.SetMultiple(ctx, encoded, ttl); err != nil {
		return err
	}
	if c.remote != nil {
		if err := c.remote.SetMultiple(ctx, encoded, ttl); err != nil {
			c.remoteErrors.Add(1)
			zap.L().Debug("cache: remote batch set failed", zap.Error(err))
		}
	}
	return nil
}

// Delete removes baseKey from both stores.
func (c *Cache) Delete(ctx context.Context, baseKey string) {
	c.delete(ctx, c.Key(baseKey))
}

// InvalidateAll bumps the version — a monotonic increment that orphans
// every existing entry — and clears the in-memory fallback.
func (c *Cache) InvalidateAll() int64 {
	v := c.version.Add(1)
	c.memory.Purge()
	zap.L().Info("cache: version bumped", zap.Int64("version", v))
	return v
}

// Healthy reports whether the remote store answers a ping. A cache with no
// remote configured is healthy by definition (memory-only mode).
func (c *Cache) Healthy(ctx context.Context) bool {
	if c.remote == nil {
		return true
	}
	return c.remote.Ping(ctx) == nil
}

// Stats returns a snapshot of the cache counters.
func (c *Cache) Stats() Stats {
	return Stats{
		Hits:         c.hits.Load(),
		Misses:       c.misses.Load(),
		NegativeHits: c.negativeHits.Load(),
		Sets:         c.sets.Load(),
		NegativeSets: c.negativeSets.Load(),
		RemoteErrors: c.remoteErrors.Load(),
		Version:      c.version.Load(),
	}
}

// load checks memory first, then the remote store. A remote hit is copied
// back into memory.
func (c *Cache) load(ctx context.Context, key string) (string, bool) {
	if raw, ok, _ := c.memory.Get(ctx, key); ok {
		return raw, true
	}
	if c.remote == nil {
		return "", false
	}
	raw, ok, err := c.remote.Get(ctx, key)
	if err != nil {
		c.remoteErrors.Add(1)
		zap.L().Debug("cache: remote get failed, falling back to memory", zap.Error(err))
		return "", false
	}
	if ok {
		_ = c.memory.Set(ctx, key, raw, c.cfg.DefaultTTL)
	}
	return raw, ok
}

func (c *Cache) loadMultiple(ctx context.Context, keys []string) map[string]string {
	out, _ := c.memory.GetMultiple(ctx, keys)
	if c.remote == nil {
		return out
	}
	var missing []string
	for _, k := range keys {
		if _, ok := out[k]; !ok {
			missing = append(missing, k)
		}
	}
	if len(missing) == 0 {
		return out
	}
	remote, err := c.remote.GetMultiple(ctx, missing)
	if err != nil {
		c.remoteErrors.Add(1)
		zap.L().Debug("cache: remote mget failed", zap.Error(err))
		return out
	}
	for k, v := range remote {
		out[k] = v
		_ = c.memory.Set(ctx, k, v, c.cfg.DefaultTTL)
	}
	return out
}

func (c *Cache) store(ctx context.Context, key string, e entry, ttl time.Duration) error {
	raw, err := json.Marshal(e)
	if err != nil {
		return eris.Wrap(err, "cache: marshal envelope")
	}
	// Memory first so warmth is guaranteed even when remote is down.
	if err := c.memory.Set(ctx, key, string(raw), ttl); err != nil {
		return err
	}
	if c.remote != nil {
		if err := c.remote.Set(ctx, key, string(raw), ttl); err != nil {
			c.remoteErrors.Add(1)
			zap.L().Debug("cache: remote set failed", zap.Error(err))
		}
	}
	return nil
}

func (c *Cache) delete(ctx context.Context, key string) {
	_ = c.memory.Del(ctx, key)
	if c.remote != nil {
		if err := c.remote.Del(ctx, key); err != nil {
			c.remoteErrors.Add(1)
		}
	}
}

// GetJSON is a typed lookup helper: on a positive hit it unmarshals the
// stored value into T.
func GetJSON[T any](ctx context.Context, c *Cache, baseKey string, ttl time.Duration) (T, Result) {
	var zero T
	res := c.Get(ctx, baseKey, ttl)
	if !res.Hit || res.IsNegative {
		return zero, res
	}
	var v T
	if err := json.Unmarshal(res.Value, &v); err != nil {
		c.Delete(ctx, baseKey)
		return zero, Result{}
	}
	return v, res
}
