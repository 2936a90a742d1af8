package redis

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/iho/fundledger/internal/infrastructure/metrics"
)

// processingMarker is stored while the first request for a key runs.
const processingMarker = "processing"

// IdempotencyStore implements usecase.IdempotencyStore using Redis.
type IdempotencyStore struct {
	client  redis.UniversalClient
	prefix  string
	metrics *metrics.Metrics
}

// NewIdempotencyStore creates a new IdempotencyStore. metrics may be nil.
func NewIdempotencyStore(client redis.UniversalClient, m *metrics.Metrics) *IdempotencyStore {
	return &IdempotencyStore{
		client:  client,
		prefix:  "idempotency:",
		metrics: m,
	}
}

// CheckAndSet claims key with SETNX. When the key was already claimed it
// returns true and the stored value, which is the processing marker while
// the first request is still running.
func (s *IdempotencyStore) CheckAndSet(ctx context.Context, key string, response []byte, ttl time.Duration) (bool, []byte, error) {
	fullKey := s.prefix + key

	value := response
	if value == nil {
		value = []byte(processingMarker)
	}

	set, err := s.client.SetNX(ctx, fullKey, value, ttl).Result()
	recordOperation(s.metrics, "idempotency_claim", err)
	if err != nil {
		return false, nil, err
	}
	if set {
		return false, nil, nil
	}

	existing, err := s.client.Get(ctx, fullKey).Bytes()
	if errors.Is(err, redis.Nil) {
		// Expired between SETNX and GET; treat as still claimed.
		return true, nil, nil
	}
	recordOperation(s.metrics, "idempotency_get", err)
	if err != nil {
		return false, nil, err
	}
	return true, existing, nil
}

// Update stores the final response for key.
func (s *IdempotencyStore) Update(ctx context.Context, key string, response []byte, ttl time.Duration) error {
	err := s.client.Set(ctx, s.prefix+key, response, ttl).Err()
	recordOperation(s.metrics, "idempotency_update", err)
	return err
}

// Release drops a claim so the request can be retried.
func (s *IdempotencyStore) Release(ctx context.Context, key string) error {
	err := s.client.Del(ctx, s.prefix+key).Err()
	recordOperation(s.metrics, "idempotency_release", err)
	return err
}

// IsProcessing reports whether value is the in-flight marker.
func IsProcessing(value []byte) bool {
	return string(value) == processingMarker
}
