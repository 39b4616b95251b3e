// Package cache provides lookup caches backed by Redis.
package cache

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	transferapp "github.com/crmportal/backend/internal/application/transfer"
	"github.com/crmportal/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Ensure implementations satisfy CompanyCache
var (
	_ transferapp.CompanyCache = (*RedisCompanyCache)(nil)
	_ transferapp.CompanyCache = (*MemoryCompanyCache)(nil)
)

const companyKeyPrefix = "company:title:"

// RedisCompanyCache memoizes company title to remote ID lookups so a
// large import does not resolve the same company on every row
type RedisCompanyCache struct {
	client *redis.Client
	ttl    time.Duration
	logger *zap.Logger
}

// NewRedisCompanyCache creates a cache on top of an existing Redis client
func NewRedisCompanyCache(client *redis.Client, ttl time.Duration, logger *zap.Logger) *RedisCompanyCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &RedisCompanyCache{client: client, ttl: ttl, logger: logger}
}

// NewRedisClient connects to Redis with the given configuration
func NewRedisClient(ctx context.Context, cfg *config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr(),
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return client, nil
}

// key normalizes the company title so lookups are case-insensitive
func key(title string) string {
	return companyKeyPrefix + strings.ToLower(strings.TrimSpace(title))
}

// Get returns the cached remote company ID for a title
func (c *RedisCompanyCache) Get(ctx context.Context, title string) (string, bool, error) {
	val, err := c.client.Get(ctx, key(title)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", false, nil
		}
		// cache failures must not break an import
		c.logger.Warn("company cache read failed", zap.Error(err))
		return "", false, nil
	}
	return val, true, nil
}

// Set caches a resolved company ID
func (c *RedisCompanyCache) Set(ctx context.Context, title, companyID string) error {
	if err := c.client.Set(ctx, key(title), companyID, c.ttl).Err(); err != nil {
		c.logger.Warn("company cache write failed", zap.Error(err))
	}
	return nil
}

// MemoryCompanyCache is an in-process CompanyCache for development and
// tests. Entries never expire.
type MemoryCompanyCache struct {
	mu      sync.RWMutex
	entries map[string]string
}

// NewMemoryCompanyCache creates a new MemoryCompanyCache
func NewMemoryCompanyCache() *MemoryCompanyCache {
	return &MemoryCompanyCache{entries: make(map[string]string)}
}

// Get returns the cached remote company ID for a title
func (c *MemoryCompanyCache) Get(ctx context.Context, title string) (string, bool, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	id, ok := c.entries[key(title)]
	return id, ok, nil
}

// Set caches a resolved company ID
func (c *MemoryCompanyCache) Set(ctx context.Context, title, companyID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key(title)] = companyID
	return nil
}
