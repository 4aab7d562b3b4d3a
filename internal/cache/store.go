package cache

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/redis/go-redis/v9"
	"github.com/rotisserie/eris"
)

// KVStore is the storage contract behind the cache: remote (redis) in
// production, in-memory LRU as fallback and in tests.
type KVStore interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
	Del(ctx context.Context, keys ...string) error
	GetMultiple(ctx context.Context, keys []string) (map[string]string, error)
	SetMultiple(ctx context.Context, entries map[string]string, ttl time.Duration) error
	Ping(ctx context.Context) error
}

// RedisStore implements KVStore on a go-redis client.
type RedisStore struct {
	client redis.UniversalClient
}

// NewRedisStore wraps an existing redis client.
func NewRedisStore(client redis.UniversalClient) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisStoreFromURL dials redis from a URL like redis://host:6379/0.
func NewRedisStoreFromURL(url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, eris.Wrap(err, "cache: parse redis url")
	}
	return &RedisStore{client: redis.NewClient(opts)}, nil
}

func (s *RedisStore) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := s.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, eris.Wrap(err, "cache: redis get")
	}
	return val, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		return eris.Wrap(err, "cache: redis set")
	}
	return nil
}

func (s *RedisStore) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Del(ctx, keys...).Err(); err != nil {
		return eris.Wrap(err, "cache: redis del")
	}
	return nil
}

// GetMultiple fetches keys in one MGET round trip.
func (s *RedisStore) GetMultiple(ctx context.Context, keys []string) (map[string]string, error) {
	if len(keys) == 0 {
		return map[string]string{}, nil
	}
	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, eris.Wrap(err, "cache: redis mget")
	}
	out := make(map[string]string, len(keys))
	for i, v := range vals {
		if v == nil {
			continue
		}
		if str, ok := v.(string); ok {
			out[keys[i]] = str
		}
	}
	return out, nil
}

// SetMultiple writes entries through a single pipeline.
func (s *RedisStore) SetMultiple(ctx context.Context, entries map[string]string, ttl time.Duration) error {
	if len(entries) == 0 {
		return nil
	}
	pipe := s.client.Pipeline()
	for k, v := range entries {
		pipe.Set(ctx, k, v, ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return eris.Wrap(err, "cache: redis pipeline set")
	}
	return nil
}

func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return eris.Wrap(err, "cache: redis ping")
	}
	return nil
}

// MemoryStore implements KVStore on an expiring in-process LRU. It serves as
// the transparent fallback when redis is unconfigured or unreachable.
type MemoryStore struct {
	lru *expirable.LRU[string, string]
}

// NewMemoryStore creates a bounded memory store. TTLs finer than the LRU's
// single expiry are enforced by the cache envelope's own timestamp check, so
// the store-level TTL only bounds worst-case retention.
func NewMemoryStore(maxEntries int, maxTTL time.Duration) *MemoryStore {
	if maxEntries <= 0 {
		maxEntries = 10_000
	}
	return &MemoryStore{lru: expirable.NewLRU[string, string](maxEntries, nil, maxTTL)}
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, bool, error) {
	v, ok := s.lru.Get(key)
	return v, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string, _ time.Duration) error {
	s.lru.Add(key, value)
	return nil
}

func (s *MemoryStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		s.lru.Remove(k)
	}
	return nil
}

func (s *MemoryStore) GetMultiple(_ context.Context, keys []string) (map[string]string, error) {
	out := make(map[string]string, len(keys))
	for _, k := range keys {
		if v, ok := s.lru.Get(k); ok {
			out[k] = v
		}
	}
	return out, nil
}

func (s *MemoryStore) SetMultiple(_ context.Context, entries map[string]string, _ time.Duration) error {
	for k, v := range entries {
		s.lru.Add(k, v)
	}
	return nil
}

func (s *MemoryStore) Ping(_ context.Context) error { return nil }

// Purge drops all entries. Used on version bumps.
func (s *MemoryStore) Purge() { s.lru.Purge() }
