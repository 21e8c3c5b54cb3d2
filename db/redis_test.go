package db

import (
	"context"
	"io"
	"testing"
	"time"

	"skillswap-api/logger"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRedisDialer(t *testing.T) {
	logger.Log.SetOutput(io.Discard)

	t.Run("rejects malformed URL", func(t *testing.T) {
		_, err := RedisDialer("http://not-redis")
		assert.Error(t, err)
	})

	t.Run("connects and serves counter commands", func(t *testing.T) {
		mr := miniredis.RunT(t)
		dial, err := RedisDialer("redis://" + mr.Addr() + "/0")
		require.NoError(t, err)

		client, err := dial(context.Background())
		require.NoError(t, err)

		n, err := client.Incr(context.Background(), "k").Result()
		require.NoError(t, err)
		assert.Equal(t, int64(1), n)
		require.NoError(t, client.PExpire(context.Background(), "k", time.Minute).Err())
		assert.Equal(t, time.Minute, mr.TTL("k"))
	})

	t.Run("fails when the server is unreachable", func(t *testing.T) {
		mr := miniredis.RunT(t)
		addr := mr.Addr()
		mr.Close()

		dial, err := RedisDialer("redis://" + addr)
		require.NoError(t, err)

		ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		_, err = dial(ctx)
		assert.Error(t, err)
	})
}
