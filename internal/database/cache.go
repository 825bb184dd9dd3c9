package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/Ayash-Bera/searchable/internal/models"
	"github.com/go-redis/redis/v8"
	"github.com/sirupsen/logrus"
)

// ErrCacheMiss is returned when a key is absent or the cache is disabled
var ErrCacheMiss = errors.New("cache miss")

// Cache implementation backed by Redis. A Cache built on a nil client misses on
// every read and drops every write.
type Cache struct {
	client *redis.Client
	logger *logrus.Logger
}

func NewCache(client *redis.Client, logger *logrus.Logger) *Cache {
	return &Cache{
		client: client,
		logger: logger,
	}
}

// Cache key constants
const (
	SearchResultsKey  = "search:results:%s"
	PopularQueriesKey = "popular:queries:%d"
	SystemHealthKey   = "system:health"
)

func (c *Cache) Enabled() bool { return c != nil && c.client != nil }

// CacheSearchResults caches the result for a normalised query key
func (c *Cache) CacheSearchResults(ctx context.Context, key string, result *models.SearchResult, expiration time.Duration) error {
	return c.set(ctx, fmt.Sprintf(SearchResultsKey, key), result, expiration)
}

// GetCachedSearchResults returns the cached result for a normalised query key
func (c *Cache) GetCachedSearchResults(ctx context.Context, key string) (*models.SearchResult, error) {
	var result models.SearchResult
	if err := c.get(ctx, fmt.Sprintf(SearchResultsKey, key), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// CachePopularQueries caches the top list for one limit
func (c *Cache) CachePopularQueries(ctx context.Context, limit int, queries []models.PopularQuery, expiration time.Duration) error {
	return c.set(ctx, fmt.Sprintf(PopularQueriesKey, limit), queries, expiration)
}

func (c *Cache) GetCachedPopularQueries(ctx context.Context, limit int) ([]models.PopularQuery, error) {
	var queries []models.PopularQuery
	if err := c.get(ctx, fmt.Sprintf(PopularQueriesKey, limit), &queries); err != nil {
		return nil, err
	}
	return queries, nil
}

// CacheSystemHealth caches the latest probe snapshot
func (c *Cache) CacheSystemHealth(ctx context.Context, health []models.SystemHealth, expiration time.Duration) error {
	return c.set(ctx, SystemHealthKey, health, expiration)
}

func (c *Cache) GetCachedSystemHealth(ctx context.Context) ([]models.SystemHealth, error) {
	var health []models.SystemHealth
	if err := c.get(ctx, SystemHealthKey, &health); err != nil {
		return nil, err
	}
	return health, nil
}

func (c *Cache) set(ctx context.Context, key string, value interface{}, expiration time.Duration) error {
	if !c.Enabled() {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", key, err)
	}
	return c.client.Set(ctx, key, data, expiration).Err()
}

func (c *Cache) get(ctx context.Context, key string, dest interface{}) error {
	if !c.Enabled() {
		return ErrCacheMiss
	}
	data, err := c.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return ErrCacheMiss
	}
	if err != nil {
		return err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		c.logger.WithError(err).WithField("key", key).Warn("Dropping undecodable cache entry")
		if err := c.client.Del(ctx, key).Err(); err != nil {
			c.logger.WithError(err).WithField("key", key).Warn("Failed to delete cache entry")
		}
		return ErrCacheMiss
	}
	return nil
}
