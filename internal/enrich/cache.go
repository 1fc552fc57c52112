package enrich

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/adrata/crmops/pkg/metrics"
)

const defaultCacheTTL = 24 * time.Hour

// Cache stores enrichment profiles in Redis so repeated runs do not
// burn provider credits.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache connects to Redis and verifies the connection.
func NewCache(ctx context.Context, addr, password string, db int, ttl time.Duration) (*Cache, error) {
	if ttl <= 0 {
		ttl = defaultCacheTTL
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("redis ping: %w", err)
	}

	return &Cache{client: client, ttl: ttl}, nil
}

func cacheKey(provider, personID string) string {
	return "enrich:" + provider + ":" + personID
}

// Get loads a cached profile. The boolean reports whether the key was
// present.
func (c *Cache) Get(ctx context.Context, provider, personID string) (*Profile, bool, error) {
	ba, err := c.client.Get(ctx, cacheKey(provider, personID)).Bytes()
	if errors.Is(err, redis.Nil) {
		metrics.RecordEnrichmentCacheMiss()
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get: %w", err)
	}

	var p Profile
	if err := json.Unmarshal(ba, &p); err != nil {
		return nil, false, fmt.Errorf("decode cached profile: %w", err)
	}
	metrics.RecordEnrichmentCacheHit()
	return &p, true, nil
}

// Set stores a profile under the provider and person key.
func (c *Cache) Set(ctx context.Context, provider, personID string, p *Profile) error {
	ba, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("encode profile: %w", err)
	}
	if err := c.client.Set(ctx, cacheKey(provider, personID), ba, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set: %w", err)
	}
	return nil
}

// Close releases the Redis connection.
func (c *Cache) Close() error {
	return c.client.Close()
}
