//go:build integration

package lock

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/juliohebert/loja-sub000/internal/domain/shared"
	"github.com/juliohebert/loja-sub000/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
	"go.uber.org/zap"
)

func newRedis(t *testing.T) *redis.Client {
	t.Helper()
	ctx := context.Background()

	container, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: testcontainers.ContainerRequest{
			Image:        "redis:7-alpine",
			ExposedPorts: []string{"6379/tcp"},
			WaitingFor:   wait.ForLog("Ready to accept connections"),
		},
		Started: true,
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = container.Terminate(context.Background()) })

	endpoint, err := container.Endpoint(ctx, "")
	require.NoError(t, err)
	client := redis.NewClient(&redis.Options{Addr: endpoint})
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func TestRedisLocker(t *testing.T) {
	client := newRedis(t)
	ctx := context.Background()
	locker := NewRedisLocker(client, config.LockConfig{
		TTL:           2 * time.Second,
		RetryInterval: 10 * time.Millisecond,
		MaxRetries:    3,
	}, zap.NewNop())

	release, err := locker.Acquire(ctx, "customer-account:t:c")
	require.NoError(t, err)

	_, err = locker.Acquire(ctx, "customer-account:t:c")
	assert.True(t, errors.Is(err, shared.ErrConcurrencyConflict), "unexpected error: %v", err)

	require.NoError(t, release(ctx))

	again, err := locker.Acquire(ctx, "customer-account:t:c")
	require.NoError(t, err)
	require.NoError(t, again(ctx))
}
