package sqlite

import (
	"context"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/rs/zerolog"

	"github.com/iho/fundledger/internal/infrastructure/metrics"
)

// Retrier retries operations that failed on a busy or locked database.
type Retrier struct {
	maxRetries uint64
	interval   time.Duration
	logger     zerolog.Logger
	metrics    *metrics.Metrics
}

// NewRetrier creates a new Retrier.
func NewRetrier(logger zerolog.Logger, metrics *metrics.Metrics) *Retrier {
	return &Retrier{
		maxRetries: 5,
		interval:   20 * time.Millisecond,
		logger:     logger.With().Str("component", "sqlite_retrier").Logger(),
		metrics:    metrics,
	}
}

// Retry runs operation until it succeeds, fails permanently, or the retry
// budget is spent.
func (r *Retrier) Retry(ctx context.Context, operation func() error) error {
	b := backoff.WithMaxRetries(backoff.NewConstantBackOff(r.interval), r.maxRetries)

	return backoff.Retry(func() error {
		err := operation()
		if err == nil {
			return nil
		}
		if !isBusy(err) {
			return backoff.Permanent(err)
		}
		if r.metrics != nil {
			r.metrics.DBRetries.Inc()
		}
		r.logger.Warn().Err(err).Msg("database busy, retrying")
		return err
	}, backoff.WithContext(b, ctx))
}
