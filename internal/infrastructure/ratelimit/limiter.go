// Package ratelimit provides fixed-window request rate limiting.
package ratelimit

import (
	"context"
	"time"
)

// Result describes the outcome of a rate limit check.
type Result struct {
	// Allowed is false once the key has exhausted its window quota.
	Allowed bool
	// Remaining requests in the current window.
	Remaining int
	// RetryAfter is how long until the window resets. Meaningful when
	// Allowed is false.
	RetryAfter time.Duration
}

// Limiter counts requests per key in fixed windows. Keys are caller-defined;
// the middleware uses "orgID:clientIP".
type Limiter interface {
	// Allow consumes one request from the key's quota and reports whether
	// it fit in the current window.
	Allow(ctx context.Context, key string) (Result, error)
}

// Config holds limiter settings.
type Config struct {
	Limit  int
	Window time.Duration
}

// DefaultConfig returns the default quota of 10 requests per minute.
func DefaultConfig() Config {
	return Config{Limit: 10, Window: time.Minute}
}
