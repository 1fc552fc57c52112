// Package config defines service configuration structures and loading hooks.
//
// Conventions:
// - Provide New() to build a Config with defaults, Load(ctx) to layer
//   file and environment overrides on top.
// - External errors must be wrapped via this package's error helpers.
package config

import (
	"runtime"
	"time"
)

// Config contains process configuration. Extend as needed.
type Config struct {
	// LogLevel controls verbosity: debug, info, warn, error.
	LogLevel string `koanf:"log_level"`

	// Addr configures the HTTP listen address, e.g. ":8080".
	Addr string `koanf:"addr"`

	// QueueSize bounds the in-memory rescore-job queue.
	QueueSize int `koanf:"queue_size"`

	// WorkerCount sets the number of rescoring workers.
	WorkerCount int `koanf:"worker_count"`

	// DedupeSize sets the size of the request deduplication cache.
	DedupeSize int `koanf:"dedupe_size"`

	// MaxQueueLimit caps GET /queue?limit.
	MaxQueueLimit int `koanf:"max_queue_limit"`

	// DatabaseURL is the Postgres DSN. Empty runs on the in-memory store.
	DatabaseURL string `koanf:"database_url"`

	// KafkaBrokers enables event publishing when non-empty.
	KafkaBrokers    []string `koanf:"kafka_brokers"`
	KafkaRankTopic  string   `koanf:"kafka_rank_topic"`
	KafkaAuditTopic string   `koanf:"kafka_audit_topic"`

	// RedisAddr enables the enrichment cache when non-empty.
	RedisAddr     string `koanf:"redis_addr"`
	RedisPassword string `koanf:"redis_password"`
	RedisDB       int    `koanf:"redis_db"`

	// Provider credentials. A provider without a key is skipped.
	CoresignalAPIKey string `koanf:"coresignal_api_key"`
	LushaAPIKey      string `koanf:"lusha_api_key"`
	ProspeoAPIKey    string `koanf:"prospeo_api_key"`

	// EnrichRequestDelayMS paces consecutive provider calls.
	EnrichRequestDelayMS int `koanf:"enrich_request_delay_ms"`

	// EnrichCacheTTLMinutes bounds how long provider results are reused.
	EnrichCacheTTLMinutes int `koanf:"enrich_cache_ttl_minutes"`

	// Rank weight overrides. Zero means the built-in default.
	RankBase              int     `koanf:"rank_base"`
	RankInfluenceWeight   float64 `koanf:"rank_influence_weight"`
	RankEngagementWeight  float64 `koanf:"rank_engagement_weight"`
	RankDataQualityWeight float64 `koanf:"rank_data_quality_weight"`
}

// New creates a Config with defaults.
func New() *Config {
	return &Config{
		LogLevel:              "info",
		Addr:                  ":9080",
		QueueSize:             100_000,
		WorkerCount:           runtime.NumCPU() * 2,
		DedupeSize:            100_000,
		MaxQueueLimit:         100,
		EnrichRequestDelayMS:  500,
		EnrichCacheTTLMinutes: 24 * 60,
	}
}

// EnrichRequestDelay returns the provider pacing as a duration.
func (c *Config) EnrichRequestDelay() time.Duration {
	return time.Duration(c.EnrichRequestDelayMS) * time.Millisecond
}

// EnrichCacheTTL returns the cache TTL as a duration.
func (c *Config) EnrichCacheTTL() time.Duration {
	return time.Duration(c.EnrichCacheTTLMinutes) * time.Minute
}
