package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/fundledger/internal/infrastructure/metrics"
)

// Cache implements usecase.Cache using Redis. A missing key is a nil value,
// not an error.
type Cache struct {
	client  redis.UniversalClient
	prefix  string
	metrics *metrics.Metrics
}

// NewCache creates a new Cache. metrics may be nil.
func NewCache(client redis.UniversalClient, m *metrics.Metrics) *Cache {
	return &Cache{
		client:  client,
		prefix:  "cache:",
		metrics: m,
	}
}

// Get retrieves a value by key.
func (c *Cache) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := c.client.Get(ctx, c.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		c.record("cache_get", nil)
		return nil, nil
	}
	c.record("cache_get", err)
	if err != nil {
		return nil, err
	}
	return val, nil
}

// Set stores a value with TTL.
func (c *Cache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	err := c.client.Set(ctx, c.prefix+key, value, ttl).Err()
	c.record("cache_set", err)
	return err
}

// Delete removes a key.
func (c *Cache) Delete(ctx context.Context, key string) error {
	err := c.client.Del(ctx, c.prefix+key).Err()
	c.record("cache_delete", err)
	return err
}

func (c *Cache) record(op string, err error) {
	recordOperation(c.metrics, op, err)
}

func recordOperation(m *metrics.Metrics, op string, err error) {
	if m == nil {
		return
	}
	m.RedisOperations.WithLabelValues(op).Inc()
	if err != nil {
		m.RedisErrors.WithLabelValues(op).Inc()
	}
}
