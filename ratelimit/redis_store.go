package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"time"

	"skillswap-api/logger"
	"skillswap-api/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"golang.org/x/sync/singleflight"
)

// CounterClient is the slice of the Redis API the store needs. *redis.Client satisfies it.
type CounterClient interface {
	Incr(ctx context.Context, key string) *redis.IntCmd
	PExpire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	PTTL(ctx context.Context, key string) *redis.DurationCmd
}

// Dialer opens the backend connection. RedisStore calls it lazily and keeps the
// first successful result for the life of the store.
type Dialer func(ctx context.Context) (CounterClient, error)

type RedisOptions struct {
	// CommandTimeout bounds a dial or one increment round-trip.
	CommandTimeout time.Duration
	// DisableDuration is how long the breaker stays open after a failure.
	DisableDuration time.Duration
	// LogInterval is the minimum spacing between backend error log lines.
	LogInterval time.Duration
	Now         func() time.Time
}

// RedisStore counts in Redis with INCR/PEXPIRE so every replica shares one window.
// Any backend failure opens the breaker and the call, and every call until the
// cooldown elapses, is served by the local fallback store instead.
type RedisStore struct {
	dial     Dialer
	fallback *MemoryStore
	breaker  *Breaker
	opts     RedisOptions

	group singleflight.Group

	mu                sync.Mutex
	client            CounterClient
	lastErrorLoggedAt time.Time
}

func NewRedisStore(dial Dialer, fallback *MemoryStore, opts RedisOptions) *RedisStore {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if fallback == nil {
		fallback = NewMemoryStore(opts.Now)
	}
	return &RedisStore{
		dial:     dial,
		fallback: fallback,
		breaker:  NewBreaker(opts.DisableDuration),
		opts:     opts,
	}
}

// Breaker exposes the circuit state, mainly for health reporting.
func (s *RedisStore) Breaker() *Breaker {
	return s.breaker
}

func (s *RedisStore) Increment(ctx context.Context, key string, window time.Duration) (Result, error) {
	now := s.opts.Now()
	if !s.breaker.Allow(now) {
		metrics.RateLimitFallbacks.Inc()
		return s.fallback.Increment(ctx, key, window)
	}

	// Backend calls outlive the caller's cancellation so one aborted request
	// cannot trip the breaker for everyone; CommandTimeout still bounds them.
	res, err := s.incrementRemote(context.WithoutCancel(ctx), key, window, now)
	if err != nil {
		s.fail(err, now)
		metrics.RateLimitFallbacks.Inc()
		return s.fallback.Increment(ctx, key, window)
	}
	return res, nil
}

func (s *RedisStore) incrementRemote(ctx context.Context, key string, window time.Duration, now time.Time) (Result, error) {
	if s.opts.CommandTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.CommandTimeout)
		defer cancel()
	}

	client, err := s.connection(ctx)
	if err != nil {
		return Result{}, fmt.Errorf("connect: %w", err)
	}

	count, err := client.Incr(ctx, key).Result()
	if err != nil {
		return Result{}, fmt.Errorf("incr: %w", err)
	}
	if count == 1 {
		if err := client.PExpire(ctx, key, window).Err(); err != nil {
			return Result{}, fmt.Errorf("pexpire: %w", err)
		}
	}

	ttl, err := client.PTTL(ctx, key).Result()
	if err != nil {
		return Result{}, fmt.Errorf("pttl: %w", err)
	}
	// -1 means the key lost its expiry; without it the counter would never reset.
	if ttl <= 0 {
		if err := client.PExpire(ctx, key, window).Err(); err != nil {
			return Result{}, fmt.Errorf("pexpire: %w", err)
		}
		ttl = window
	}

	return Result{Count: count, ResetAt: now.Add(ttl)}, nil
}

// connection returns the shared client, dialing it once. Concurrent first callers
// share a single dial; a failed dial is retried on the next allowed call.
func (s *RedisStore) connection(ctx context.Context) (CounterClient, error) {
	s.mu.Lock()
	client := s.client
	s.mu.Unlock()
	if client != nil {
		return client, nil
	}

	v, err, _ := s.group.Do("dial", func() (interface{}, error) {
		s.mu.Lock()
		if s.client != nil {
			c := s.client
			s.mu.Unlock()
			return c, nil
		}
		s.mu.Unlock()

		c, err := s.dial(ctx)
		if err != nil {
			return nil, err
		}

		s.mu.Lock()
		s.client = c
		s.mu.Unlock()
		logger.Log.Info("Rate limit backend connected")
		return c, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(CounterClient), nil
}

func (s *RedisStore) fail(err error, now time.Time) {
	s.breaker.Trip(now)
	metrics.RateLimitBackendFailures.Inc()

	s.mu.Lock()
	shouldLog := s.lastErrorLoggedAt.IsZero() || now.Sub(s.lastErrorLoggedAt) >= s.opts.LogInterval
	if shouldLog {
		s.lastErrorLoggedAt = now
	}
	s.mu.Unlock()

	if shouldLog {
		logger.Log.WithError(err).WithFields(logrus.Fields{
			"disabled_until": s.breaker.DisabledUntil(),
		}).Warn("Rate limit backend unavailable, using in-process counters")
	}
}
