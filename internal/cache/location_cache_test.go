package cache

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noline/locationd/internal/models"
)

func TestLocationCache_LoadLocation_EmptyStoreReturnsNil(t *testing.T) {
	c := NewLocationCache(NewMemoryStore())
	assert.Nil(t, c.LoadLocation(context.Background()))
}

func TestLocationCache_SaveLoadLocationRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewLocationCache(NewMemoryStore())

	address := "Shibuya Crossing, Tokyo"
	saved := &models.LocationRecord{
		Coordinates: models.Coordinates{Latitude: 35.6595, Longitude: 139.7005},
		Address:     &address,
		UpdatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	c.SaveLocation(ctx, saved)

	loaded := c.LoadLocation(ctx)
	require.NotNil(t, loaded)
	assert.Equal(t, saved.Coordinates, loaded.Coordinates)
	require.NotNil(t, loaded.Address)
	assert.Equal(t, address, *loaded.Address)
	assert.True(t, loaded.UpdatedAt.Equal(saved.UpdatedAt))
}

func TestLocationCache_RoundTripWithNilAddress(t *testing.T) {
	ctx := context.Background()
	c := NewLocationCache(NewMemoryStore())

	saved := &models.LocationRecord{
		Coordinates: models.Coordinates{Latitude: -33.8688, Longitude: 151.2093},
		Address:     nil,
		UpdatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	c.SaveLocation(ctx, saved)

	loaded := c.LoadLocation(ctx)
	require.NotNil(t, loaded)
	assert.Nil(t, loaded.Address)
	assert.Equal(t, saved.Coordinates, loaded.Coordinates)
}

func TestLocationCache_CorruptLocationTreatedAsAbsent(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, keyLastLocation, "{not json"))

	c := NewLocationCache(store)
	assert.Nil(t, c.LoadLocation(ctx))
}

func TestLocationCache_SaveOverwrites(t *testing.T) {
	ctx := context.Background()
	c := NewLocationCache(NewMemoryStore())

	c.SaveLocation(ctx, &models.LocationRecord{
		Coordinates: models.Coordinates{Latitude: 1, Longitude: 1},
		UpdatedAt:   time.Now().UTC(),
	})
	c.SaveLocation(ctx, &models.LocationRecord{
		Coordinates: models.Coordinates{Latitude: 2, Longitude: 2},
		UpdatedAt:   time.Now().UTC(),
	})

	loaded := c.LoadLocation(ctx)
	require.NotNil(t, loaded)
	assert.Equal(t, 2.0, loaded.Coordinates.Latitude)
}

func TestLocationCache_LoadPromptHistory_EmptyStoreReturnsEmpty(t *testing.T) {
	c := NewLocationCache(NewMemoryStore())
	assert.Empty(t, c.LoadPromptHistory(context.Background()))
}

func TestLocationCache_PromptHistoryRoundTrip(t *testing.T) {
	ctx := context.Background()
	c := NewLocationCache(NewMemoryStore())

	history := []time.Time{
		time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
		time.Date(2025, 6, 1, 10, 10, 0, 0, time.UTC),
	}
	c.SavePromptHistory(ctx, history)

	loaded := c.LoadPromptHistory(ctx)
	require.Len(t, loaded, 2)
	assert.True(t, loaded[0].Equal(history[0]))
	assert.True(t, loaded[1].Equal(history[1]))
}

func TestLocationCache_PromptHistoryStoredAsEpochMillis(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	c := NewLocationCache(store)

	at := time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC)
	c.SavePromptHistory(ctx, []time.Time{at})

	raw, ok, err := store.Get(ctx, keyPromptHistory)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, "[1748772000000]", raw)
}

func TestLocationCache_CorruptPromptHistoryTreatedAsEmpty(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, keyPromptHistory, `{"bogus":true}`))

	c := NewLocationCache(store)
	assert.Empty(t, c.LoadPromptHistory(ctx))
}
