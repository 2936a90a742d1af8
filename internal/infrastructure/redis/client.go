package redis

import (
	"context"
	"fmt"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// Options tune the client beyond what the URL carries.
type Options struct {
	// ConnectTimeout bounds the initial ping, retries included.
	ConnectTimeout time.Duration
	PoolSize       int
}

// NewClient creates a Redis client from redisURL and waits for it to answer
// a ping.
func NewClient(ctx context.Context, redisURL string, logger zerolog.Logger) (*redis.Client, error) {
	return NewClientWithOptions(ctx, redisURL, Options{}, logger)
}

// NewClientWithOptions is NewClient with explicit options.
func NewClientWithOptions(ctx context.Context, redisURL string, opts Options, logger zerolog.Logger) (*redis.Client, error) {
	parsed, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse redis URL: %w", err)
	}
	if opts.PoolSize > 0 {
		parsed.PoolSize = opts.PoolSize
	}
	if opts.ConnectTimeout <= 0 {
		opts.ConnectTimeout = 3 * time.Second
	}

	client := redis.NewClient(parsed)

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = 100 * time.Millisecond
	b.MaxElapsedTime = opts.ConnectTimeout

	attempt := 0
	err = backoff.Retry(func() error {
		attempt++
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn().Err(err).Int("attempt", attempt).Str("addr", parsed.Addr).Msg("redis not ready")
			return err
		}
		return nil
	}, backoff.WithContext(b, ctx))
	if err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to ping redis: %w", err)
	}

	logger.Info().Str("addr", parsed.Addr).Msg("connected to redis")
	return client, nil
}
