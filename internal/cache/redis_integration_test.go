//go:build integration

package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/wait"

	"github.com/noline/locationd/internal/models"
)

func setupRedis(t *testing.T) *RedisStore {
	ctx := context.Background()

	req := testcontainers.ContainerRequest{
		Image:        "redis:7-alpine",
		ExposedPorts: []string{"6379/tcp"},
		WaitingFor:   wait.ForLog("Ready to accept connections"),
	}

	redisC, err := testcontainers.GenericContainer(ctx, testcontainers.GenericContainerRequest{
		ContainerRequest: req,
		Started:          true,
	})
	require.NoError(t, err)

	t.Cleanup(func() {
		redisC.Terminate(ctx)
	})

	host, err := redisC.Host(ctx)
	require.NoError(t, err)

	port, err := redisC.MappedPort(ctx, "6379")
	require.NoError(t, err)

	store, err := NewRedisStore(&RedisConfig{
		Host: host,
		Port: port.Int(),
	}, false)
	require.NoError(t, err)

	t.Cleanup(func() {
		store.Close()
	})

	return store
}

func TestRedisStore_Integration_RoundTrip(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	store := setupRedis(t)

	_, ok, err := store.Get(ctx, "missing")
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, store.Set(ctx, "k", "v1"))
	require.NoError(t, store.Set(ctx, "k", "v2"))

	val, ok, err := store.Get(ctx, "k")
	require.NoError(t, err)
	require.True(t, ok)
	assert.Equal(t, "v2", val)
}

func TestRedisStore_Integration_LocationCache(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping integration test")
	}

	ctx := context.Background()
	c := NewLocationCache(setupRedis(t))

	address := "Main Street, Springfield"
	saved := &models.LocationRecord{
		Coordinates: models.Coordinates{Latitude: 39.78, Longitude: -89.65},
		Address:     &address,
		UpdatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	c.SaveLocation(ctx, saved)

	loaded := c.LoadLocation(ctx)
	require.NotNil(t, loaded)
	assert.Equal(t, saved.Coordinates, loaded.Coordinates)
	require.NotNil(t, loaded.Address)
	assert.Equal(t, address, *loaded.Address)

	history := []time.Time{time.Now().UTC().Truncate(time.Millisecond)}
	c.SavePromptHistory(ctx, history)

	loadedHistory := c.LoadPromptHistory(ctx)
	require.Len(t, loadedHistory, 1)
	assert.True(t, loadedHistory[0].Equal(history[0]))
}
