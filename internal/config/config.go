// Package config loads configuration from an optional config.yaml plus
// ENRICH_-prefixed environment variables, and initializes the global zap
// logger.
package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/enrich-cli/internal/cache"
	"github.com/sells-group/enrich-cli/internal/resilience"
)

// Config holds the full application configuration.
type Config struct {
	Redis      RedisConfig      `yaml:"redis" mapstructure:"redis"`
	Cache      CacheConfig      `yaml:"cache" mapstructure:"cache"`
	Breaker    BreakerConfig    `yaml:"breaker" mapstructure:"breaker"`
	Serper     SerperConfig     `yaml:"serper" mapstructure:"serper"`
	Prospeo    ProspeoConfig    `yaml:"prospeo" mapstructure:"prospeo"`
	Anthropic  AnthropicConfig  `yaml:"anthropic" mapstructure:"anthropic"`
	Jina       JinaConfig       `yaml:"jina" mapstructure:"jina"`
	Scrape     ScrapeConfig     `yaml:"scrape" mapstructure:"scrape"`
	Tools      ToolsConfig      `yaml:"tools" mapstructure:"tools"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// RedisConfig configures the optional remote cache store. An empty URL
// means the engine runs memory-only.
type RedisConfig struct {
	URL string `yaml:"url" mapstructure:"url"`
}

// CacheConfig configures the versioned cache key scheme and TTL policy.
type CacheConfig struct {
	KeyPrefix          string `yaml:"key_prefix" mapstructure:"key_prefix"`
	Version            int64  `yaml:"version" mapstructure:"version"`
	DefaultTTLSec      int    `yaml:"default_ttl_sec" mapstructure:"default_ttl_sec"`
	NegativeTTLSec     int    `yaml:"negative_ttl_sec" mapstructure:"negative_ttl_sec"`
	NegativeLongTTLSec int    `yaml:"negative_long_ttl_sec" mapstructure:"negative_long_ttl_sec"`
	EmailVerifyTTLSec  int    `yaml:"email_verify_ttl_sec" mapstructure:"email_verify_ttl_sec"`
	MaxMemoryEntries   int    `yaml:"max_memory_entries" mapstructure:"max_memory_entries"`
}

// BreakerConfig configures the per-provider circuit breakers.
type BreakerConfig struct {
	FailureThreshold int `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutMs   int `yaml:"reset_timeout_ms" mapstructure:"reset_timeout_ms"`
	SuccessThreshold int `yaml:"success_threshold" mapstructure:"success_threshold"`
	WindowMs         int `yaml:"window_ms" mapstructure:"window_ms"`
	MinRequests      int `yaml:"min_requests" mapstructure:"min_requests"`
}

// SerperConfig holds the SERP search API settings.
type SerperConfig struct {
	Key        string `yaml:"key" mapstructure:"key"`
	NumResults int    `yaml:"num_results" mapstructure:"num_results"`
}

// ProspeoConfig holds the email finder API settings.
type ProspeoConfig struct {
	Key string `yaml:"key" mapstructure:"key"`
}

// AnthropicConfig holds Anthropic API settings.
type AnthropicConfig struct {
	Key   string `yaml:"key" mapstructure:"key"`
	Model string `yaml:"model" mapstructure:"model"`
}

// JinaConfig holds the optional Jina Reader fallback scraper settings.
type JinaConfig struct {
	Key     string `yaml:"key" mapstructure:"key"`
	BaseURL string `yaml:"base_url" mapstructure:"base_url"`
}

// ScrapeConfig configures the bounded page fetcher.
type ScrapeConfig struct {
	TimeoutSecs int `yaml:"timeout_secs" mapstructure:"timeout_secs"`
}

// ToolsConfig disables cataloged tools by id.
type ToolsConfig struct {
	Disabled []string `yaml:"disabled" mapstructure:"disabled"`
}

// Enabled reports whether the named tool is enabled.
func (t ToolsConfig) Enabled(id string) bool {
	for _, d := range t.Disabled {
		if d == id {
			return false
		}
	}
	return true
}

// ServerConfig configures serve mode.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// MonitoringConfig configures the background alert checker.
type MonitoringConfig struct {
	WebhookURL         string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	ErrorRateThreshold float64 `yaml:"error_rate_threshold" mapstructure:"error_rate_threshold"`
	CheckIntervalSecs  int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("ENRICH")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("cache.key_prefix", "enrich")
	v.SetDefault("cache.version", 3)
	v.SetDefault("cache.default_ttl_sec", int(cache.DefaultArtifactTTL.Seconds()))
	v.SetDefault("cache.negative_ttl_sec", int(cache.DefaultNegativeShortTTL.Seconds()))
	v.SetDefault("cache.negative_long_ttl_sec", int(cache.DefaultNegativeLongTTL.Seconds()))
	v.SetDefault("cache.email_verify_ttl_sec", int(cache.DefaultEmailVerifyTTL.Seconds()))
	v.SetDefault("cache.max_memory_entries", 10_000)
	v.SetDefault("breaker.failure_threshold", 5)
	v.SetDefault("breaker.reset_timeout_ms", 30_000)
	v.SetDefault("breaker.success_threshold", 3)
	v.SetDefault("breaker.window_ms", 60_000)
	v.SetDefault("breaker.min_requests", 10)
	v.SetDefault("serper.num_results", 10)
	v.SetDefault("anthropic.model", "claude-haiku-4-5-20251001")
	v.SetDefault("jina.base_url", "https://r.jina.ai")
	v.SetDefault("scrape.timeout_secs", 8)
	v.SetDefault("server.port", 8080)
	v.SetDefault("monitoring.error_rate_threshold", 0.5)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// CachePolicy maps the loaded knobs onto the cache layer's config.
func (c *Config) CachePolicy() cache.Config {
	return cache.Config{
		Prefix:           c.Cache.KeyPrefix,
		Version:          c.Cache.Version,
		DefaultTTL:       time.Duration(c.Cache.DefaultTTLSec) * time.Second,
		NegativeTTL:      time.Duration(c.Cache.NegativeTTLSec) * time.Second,
		NegativeLongTTL:  time.Duration(c.Cache.NegativeLongTTLSec) * time.Second,
		EmailVerifyTTL:   time.Duration(c.Cache.EmailVerifyTTLSec) * time.Second,
		MaxMemoryEntries: c.Cache.MaxMemoryEntries,
	}
}

// BreakerPolicy maps the loaded knobs onto the circuit breaker config.
func (c *Config) BreakerPolicy() resilience.CircuitBreakerConfig {
	cfg := resilience.DefaultCircuitBreakerConfig()
	if c.Breaker.FailureThreshold > 0 {
		cfg.FailureThreshold = c.Breaker.FailureThreshold
	}
	if c.Breaker.ResetTimeoutMs > 0 {
		cfg.ResetTimeout = time.Duration(c.Breaker.ResetTimeoutMs) * time.Millisecond
	}
	if c.Breaker.SuccessThreshold > 0 {
		cfg.SuccessThreshold = c.Breaker.SuccessThreshold
	}
	if c.Breaker.WindowMs > 0 {
		cfg.Window = time.Duration(c.Breaker.WindowMs) * time.Millisecond
	}
	if c.Breaker.MinRequests > 0 {
		cfg.MinimumRequests = c.Breaker.MinRequests
	}
	return cfg
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
