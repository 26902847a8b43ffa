package draft

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	tcredis "github.com/testcontainers/testcontainers-go/modules/redis"
	"github.com/testcontainers/testcontainers-go/wait"
)

func startRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}
	ctx := context.Background()

	container, err := tcredis.Run(ctx,
		"docker.io/redis:7-alpine",
		testcontainers.WithWaitStrategy(
			wait.ForLog("* Ready to accept connections").
				WithOccurrence(1).
				WithStartupTimeout(time.Minute),
		),
	)
	require.NoError(t, err, "start redis container")
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	host, err := container.Host(ctx)
	require.NoError(t, err)
	port, err := container.MappedPort(ctx, "6379/tcp")
	require.NoError(t, err)

	rdb := redis.NewClient(&redis.Options{Addr: fmt.Sprintf("%s:%s", host, port.Port())})
	t.Cleanup(func() { _ = rdb.Close() })
	require.NoError(t, rdb.Ping(ctx).Err())
	return rdb
}

func TestRedisStore(t *testing.T) {
	rdb := startRedis(t)
	storeContract(t, NewRedisStore(rdb, DefaultKey, 0))
}

func TestRedisStoreTTL(t *testing.T) {
	rdb := startRedis(t)
	ctx := context.Background()

	store := NewRedisStore(rdb, "test:ttl-draft", time.Hour)
	require.NoError(t, store.Set(ctx, NewState(time.Now(), sampleValues())))

	ttl, err := rdb.TTL(ctx, "test:ttl-draft").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, 59*time.Minute)
}
