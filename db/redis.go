// file: db/redis.go

package db

import (
	"context"
	"fmt"

	"skillswap-api/logger"
	"skillswap-api/ratelimit"

	"github.com/redis/go-redis/v9"
)

// RedisDialer returns a ratelimit.Dialer for the given redis:// URL. The URL is
// parsed up front so a malformed value fails at startup rather than on first use.
func RedisDialer(url string) (ratelimit.Dialer, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	// The limiter has its own fallback; retries would only stretch a failing request.
	opts.MaxRetries = -1

	return func(ctx context.Context) (ratelimit.CounterClient, error) {
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			rdb.Close()
			return nil, fmt.Errorf("failed to ping redis: %w", err)
		}
		logger.Log.WithField("address", opts.Addr).Info("Redis connection established successfully")
		return rdb, nil
	}, nil
}
