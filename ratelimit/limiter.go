package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"skillswap-api/metrics"
)

// UnknownKey replaces empty caller keys so they still share one budget.
const UnknownKey = "unknown"

var ErrTooManyRequests = errors.New("too many requests")

// TooManyRequestsError is returned when a key is over its budget. It matches
// ErrTooManyRequests with errors.Is.
type TooManyRequestsError struct {
	RetryAfter time.Duration
}

func (e *TooManyRequestsError) Error() string {
	return fmt.Sprintf("too many requests, retry after %s", e.RetryAfter)
}

func (e *TooManyRequestsError) Is(target error) bool {
	return target == ErrTooManyRequests
}

// Config describes one endpoint class. Prefix keeps classes apart in a shared store.
type Config struct {
	Prefix string
	Window time.Duration
	Max    int
}

// Decision is the outcome of one gated request.
type Decision struct {
	Allowed    bool
	Limit      int
	Remaining  int
	Count      int64
	ResetAt    time.Time
	RetryAfter time.Duration
}

type Limiter struct {
	cfg   Config
	store Store
	now   func() time.Time
}

func New(store Store, cfg Config, now func() time.Time) *Limiter {
	if now == nil {
		now = time.Now
	}
	return &Limiter{cfg: cfg, store: store, now: now}
}

func (l *Limiter) Prefix() string { return l.cfg.Prefix }

// StoreKey is the namespaced counter key for a caller key.
func (l *Limiter) StoreKey(key string) string {
	key = strings.TrimSpace(key)
	if key == "" {
		key = UnknownKey
	}
	return "ratelimit:" + l.cfg.Prefix + ":" + key
}

// Allow counts one request for key. Over the limit it returns the denied
// decision together with a *TooManyRequestsError.
func (l *Limiter) Allow(ctx context.Context, key string) (Decision, error) {
	res, err := l.store.Increment(ctx, l.StoreKey(key), l.cfg.Window)
	if err != nil {
		return Decision{}, err
	}

	d := Decision{
		Limit:   l.cfg.Max,
		Count:   res.Count,
		ResetAt: res.ResetAt,
	}
	if remaining := int64(l.cfg.Max) - res.Count; remaining > 0 {
		d.Remaining = int(remaining)
	}

	if res.Count > int64(l.cfg.Max) {
		d.RetryAfter = retryAfter(res.ResetAt, l.now())
		metrics.ObserveRateLimit(l.cfg.Prefix, false)
		return d, &TooManyRequestsError{RetryAfter: d.RetryAfter}
	}

	d.Allowed = true
	metrics.ObserveRateLimit(l.cfg.Prefix, true)
	return d, nil
}

// retryAfter rounds the time left in the window up to whole seconds, minimum one.
func retryAfter(resetAt, now time.Time) time.Duration {
	left := resetAt.Sub(now)
	seconds := (left + time.Second - 1) / time.Second
	if seconds < 1 {
		seconds = 1
	}
	return seconds * time.Second
}
