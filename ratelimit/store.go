// Package ratelimit counts requests per key in fixed windows over a pluggable
// store and decides whether a caller is over its budget.
package ratelimit

import (
	"context"
	"time"
)

// Result is the state of one counter right after an increment.
type Result struct {
	Count   int64
	ResetAt time.Time
}

// Store increments the counter for key within a window of the given length,
// starting a new window when the previous one has elapsed.
type Store interface {
	Increment(ctx context.Context, key string, window time.Duration) (Result, error)
}
