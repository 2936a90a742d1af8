package usecase

import "time"

const (
	// DefaultTransactionTimeout is the maximum duration for a database transaction
	// This prevents long-running transactions from blocking tables
	DefaultTransactionTimeout = 10 * time.Second

	// IdempotencyKeyTTL is how long idempotency keys are cached
	IdempotencyKeyTTL = 24 * time.Hour

	// FundStatusCacheKey is the cache key for the restricted fund summary.
	FundStatusCacheKey = "fund:status"
)

// systemActor is recorded when no actor id is supplied.
const systemActor = "system"
