// Package limiter defines interfaces and implementations for attempt rate limiting.
package limiter

import (
	"context"
	"time"
)

// Limiter controls attempts per key and temporary lockouts.
// Keys are scoped by the caller, e.g. "login:alice" or "otp:alice".
type Limiter interface {
	// Allow reports whether an attempt is currently allowed and optional retry-after.
	Allow(ctx context.Context, key string) (bool, time.Duration, error)
	// Success resets counters after a successful attempt.
	Success(ctx context.Context, key string) error
	// Failure records a failed attempt; may place a temporary block.
	Failure(ctx context.Context, key string) (bool, time.Duration, error)
}
