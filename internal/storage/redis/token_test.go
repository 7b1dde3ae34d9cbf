package redis

import (
	"context"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) *redis.Client {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping redis integration test in short mode")
	}

	ctx := context.Background()
	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections").WithStartupTimeout(30 * time.Second),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, client.Ping(ctx).Err())
	return client
}

func TestTokenStorage(t *testing.T) {
	client := setupRedis(t)
	s := NewTokenStorage(client)
	ctx := context.Background()

	denied, err := s.IsTokenInvalidated(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, denied)

	require.NoError(t, s.InvalidateToken(ctx, "jti-1", time.Minute))

	denied, err = s.IsTokenInvalidated(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, denied)

	ttl, err := client.TTL(ctx, denyListPrefix+"jti-1").Result()
	require.NoError(t, err)
	assert.Greater(t, ttl, time.Duration(0))
	assert.LessOrEqual(t, ttl, time.Minute)

	require.NoError(t, s.InvalidateToken(ctx, "jti-2", 0))
	denied, err = s.IsTokenInvalidated(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, denied)
}
