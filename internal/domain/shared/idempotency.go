package shared

import (
	"context"
	"time"
)

// IdempotencyStore guards caller-supplied idempotency keys while the request
// that carries them is in flight. The durable record of a processed key lives
// with the payment row; the store only stops two concurrent submissions of the
// same key from racing each other into the database.
type IdempotencyStore interface {
	// MarkProcessed claims key for ttl.
	// Returns true if the key was newly claimed, false if someone else holds it.
	MarkProcessed(ctx context.Context, key string, ttl time.Duration) (bool, error)

	// IsProcessed checks whether key is currently claimed
	IsProcessed(ctx context.Context, key string) (bool, error)

	// Release drops the claim on key so a failed attempt can be retried
	Release(ctx context.Context, key string) error

	// Close closes the store and releases resources
	Close() error
}

// IdempotencyConfig holds configuration for idempotency handling
type IdempotencyConfig struct {
	// TTL bounds how long an in-flight claim may be held. Default: 30s
	TTL time.Duration
	// Enabled determines whether the in-flight guard is used. Default: true
	Enabled bool
}

// DefaultIdempotencyConfig returns the default idempotency configuration
func DefaultIdempotencyConfig() IdempotencyConfig {
	return IdempotencyConfig{
		TTL:     30 * time.Second,
		Enabled: true,
	}
}
