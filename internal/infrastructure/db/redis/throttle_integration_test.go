//go:build integration

package redis

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"
)

func setupRedis(t *testing.T) Config {
	t.Helper()
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

	addr, err := container.PortEndpoint(ctx, "6379/tcp", "")
	require.NoError(t, err)
	return Config{Addr: addr}
}

func TestLoginThrottle(t *testing.T) {
	cfg := setupRedis(t)
	ctx := context.Background()

	client, err := Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })
	require.NoError(t, Pinger{Client: client}.Ping(ctx))

	throttle := NewLoginThrottle(client, 3, time.Minute)
	const email = "a@x.com"

	for i := 0; i < 3; i++ {
		allowed, _, err := throttle.Attempt(ctx, email)
		require.NoError(t, err)
		assert.True(t, allowed, "attempt %d", i)
	}

	allowed, retryAfter, err := throttle.Attempt(ctx, email)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Greater(t, retryAfter, time.Duration(0))
	assert.LessOrEqual(t, retryAfter, time.Minute)

	other, _, err := throttle.Attempt(ctx, "b@x.com")
	require.NoError(t, err)
	assert.True(t, other)

	require.NoError(t, throttle.Reset(ctx, email))
	allowed, _, err = throttle.Attempt(ctx, email)
	require.NoError(t, err)
	assert.True(t, allowed)
}

func TestLoginThrottle_ConcurrentAttemptsStopAtLimit(t *testing.T) {
	cfg := setupRedis(t)
	ctx := context.Background()

	client, err := Connect(ctx, cfg)
	require.NoError(t, err)
	t.Cleanup(func() { _ = client.Close() })

	const (
		limit    = 5
		attempts = 40
	)
	throttle := NewLoginThrottle(client, limit, time.Minute)

	var (
		wg      sync.WaitGroup
		allowed atomic.Int32
		errs    atomic.Int32
	)
	for i := 0; i < attempts; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _, err := throttle.Attempt(ctx, "burst@x.com")
			if err != nil {
				errs.Add(1)
				return
			}
			if ok {
				allowed.Add(1)
			}
		}()
	}
	wg.Wait()

	assert.Zero(t, errs.Load())
	assert.EqualValues(t, limit, allowed.Load())
}
