package coordinator

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/noline/locationd/internal/cache"
	apperrors "github.com/noline/locationd/internal/errors"
	"github.com/noline/locationd/internal/fetcher"
	"github.com/noline/locationd/internal/gate"
	"github.com/noline/locationd/internal/geocode"
	"github.com/noline/locationd/internal/models"
	"github.com/noline/locationd/internal/platform"
)

// stubGeocoder returns a fixed address, or nothing when empty.
type stubGeocoder struct {
	addr *geocode.Address
	err  error
}

func (s *stubGeocoder) Reverse(ctx context.Context, lat, lon float64) (*geocode.Address, error) {
	return s.addr, s.err
}

type fixture struct {
	coordinator *Coordinator
	cache       *cache.LocationCache
	simulator   *platform.Simulator
}

func newFixture(t *testing.T, sim *platform.Simulator, geocoder fetcher.Geocoder) *fixture {
	t.Helper()

	locationCache := cache.NewLocationCache(cache.NewMemoryStore())
	g := gate.New(sim, sim, locationCache, gate.DefaultPolicy())
	f := fetcher.New(sim, geocoder, time.Second)

	return &fixture{
		coordinator: New(context.Background(), g, f, locationCache),
		cache:       locationCache,
		simulator:   sim,
	}
}

func TestAcquire_FullWorkflow(t *testing.T) {
	ctx := context.Background()

	sim := platform.NewSimulator(models.PermissionUndetermined, true,
		models.Coordinates{Latitude: 35.6595, Longitude: 139.7005})
	fx := newFixture(t, sim, &stubGeocoder{
		addr: &geocode.Address{Street: "Dogenzaka", City: "Shibuya", Region: "Tokyo"},
	})

	rec, err := fx.coordinator.Acquire(ctx)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, 35.6595, rec.Coordinates.Latitude)
	require.NotNil(t, rec.Address)
	assert.Equal(t, "Dogenzaka, Shibuya, Tokyo", *rec.Address)
	assert.False(t, rec.UpdatedAt.IsZero())

	// The record is persisted and visible as last known.
	assert.NotNil(t, fx.cache.LoadLocation(ctx))
	assert.Equal(t, rec, fx.coordinator.LastKnown())
}

func TestAcquire_GeocoderFailureKeepsCoordinates(t *testing.T) {
	ctx := context.Background()

	sim := platform.NewSimulator(models.PermissionGranted, true,
		models.Coordinates{Latitude: 1, Longitude: 2})
	fx := newFixture(t, sim, &stubGeocoder{err: assert.AnError})

	rec, err := fx.coordinator.Acquire(ctx)
	require.NoError(t, err)
	assert.Nil(t, rec.Address)
	assert.Equal(t, 1.0, rec.Coordinates.Latitude)
}

func TestAcquire_DenialSurfacesPermissionDenied(t *testing.T) {
	ctx := context.Background()

	sim := platform.NewSimulator(models.PermissionUndetermined, false, models.Coordinates{})
	fx := newFixture(t, sim, &stubGeocoder{})

	_, err := fx.coordinator.Acquire(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypePermissionDenied))
	assert.Nil(t, fx.coordinator.LastKnown())
}

func TestAcquire_ThrottledPromptSurfacesDistinctCode(t *testing.T) {
	ctx := context.Background()

	sim := platform.NewSimulator(models.PermissionUndetermined, false, models.Coordinates{})
	fx := newFixture(t, sim, &stubGeocoder{})

	// First attempt prompts and is denied; permission stays denied, so the
	// second attempt within the same window is throttled after the grace
	// allotment is spent.
	_, err := fx.coordinator.Acquire(ctx)
	require.Error(t, err)
	_, err = fx.coordinator.Acquire(ctx)
	require.Error(t, err)

	_, err = fx.coordinator.Acquire(ctx)
	require.Error(t, err)

	var appErr *apperrors.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "PROMPT_THROTTLED", appErr.Code)
}

func TestAcquire_PositionUnavailablePropagates(t *testing.T) {
	ctx := context.Background()

	sim := platform.NewSimulator(models.PermissionGranted, true, models.Coordinates{})
	sim.SetFixAvailable(false)
	fx := newFixture(t, sim, &stubGeocoder{})

	_, err := fx.coordinator.Acquire(ctx)
	require.Error(t, err)
	assert.True(t, apperrors.IsErrorType(err, apperrors.ErrorTypePositionUnavailable))
}

func TestNew_SeedsLastKnownFromCache(t *testing.T) {
	ctx := context.Background()

	locationCache := cache.NewLocationCache(cache.NewMemoryStore())
	seeded := &models.LocationRecord{
		Coordinates: models.Coordinates{Latitude: 9, Longitude: 9},
		UpdatedAt:   time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	locationCache.SaveLocation(ctx, seeded)

	sim := platform.NewSimulator(models.PermissionGranted, true, models.Coordinates{})
	g := gate.New(sim, sim, locationCache, gate.DefaultPolicy())
	f := fetcher.New(sim, &stubGeocoder{}, time.Second)

	coord := New(ctx, g, f, locationCache)

	last := coord.LastKnown()
	require.NotNil(t, last)
	assert.Equal(t, seeded.Coordinates, last.Coordinates)
}

func TestSubscribe_ReceivesLocationUpdatedEvent(t *testing.T) {
	ctx := context.Background()

	sim := platform.NewSimulator(models.PermissionGranted, true,
		models.Coordinates{Latitude: 3, Longitude: 4})
	fx := newFixture(t, sim, &stubGeocoder{})

	events := fx.coordinator.Subscribe()
	defer fx.coordinator.Unsubscribe(events)

	_, err := fx.coordinator.Acquire(ctx)
	require.NoError(t, err)

	select {
	case ev := <-events:
		assert.Equal(t, 3.0, ev.Record.Coordinates.Latitude)
		assert.False(t, ev.OccurredAt.IsZero())
	case <-time.After(time.Second):
		t.Fatal("expected a location updated event")
	}
}

func TestUnsubscribe_ClosesChannel(t *testing.T) {
	sim := platform.NewSimulator(models.PermissionGranted, true, models.Coordinates{})
	fx := newFixture(t, sim, &stubGeocoder{})

	events := fx.coordinator.Subscribe()
	fx.coordinator.Unsubscribe(events)

	_, open := <-events
	assert.False(t, open)
}

func TestMonitor_PeriodicAcquireAndDeterministicStop(t *testing.T) {
	sim := platform.NewSimulator(models.PermissionGranted, true,
		models.Coordinates{Latitude: 7, Longitude: 7})
	fx := newFixture(t, sim, &stubGeocoder{})

	monitor := NewMonitor(fx.coordinator, 10*time.Millisecond)

	done := make(chan error, 1)
	go func() {
		done <- monitor.Start(context.Background())
	}()

	require.Eventually(t, func() bool {
		return fx.coordinator.LastKnown() != nil
	}, time.Second, 5*time.Millisecond)

	monitor.Stop()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(time.Second):
		t.Fatal("monitor did not stop")
	}
}

func TestMonitor_NeverPromptsInBackground(t *testing.T) {
	ctx := context.Background()

	sim := platform.NewSimulator(models.PermissionUndetermined, true,
		models.Coordinates{Latitude: 5, Longitude: 5})
	fx := newFixture(t, sim, &stubGeocoder{})

	monitor := NewMonitor(fx.coordinator, 5*time.Millisecond)

	done := make(chan error, 1)
	go func() {
		done <- monitor.Start(context.Background())
	}()

	// Let several ticks elapse, then stop.
	time.Sleep(50 * time.Millisecond)
	monitor.Stop()
	<-done

	// No tick may surface the OS dialog or consume the prompt allotment.
	assert.Empty(t, fx.cache.LoadPromptHistory(ctx))
	state, err := sim.Status(ctx)
	require.NoError(t, err)
	assert.Equal(t, models.PermissionUndetermined, state)
	assert.Nil(t, fx.coordinator.LastKnown())

	// A later foreground request still has its full grace allotment.
	rec, err := fx.coordinator.Acquire(ctx)
	require.NoError(t, err)
	assert.Equal(t, 5.0, rec.Coordinates.Latitude)
}

func TestMonitor_StartTwiceFails(t *testing.T) {
	sim := platform.NewSimulator(models.PermissionGranted, true, models.Coordinates{})
	fx := newFixture(t, sim, &stubGeocoder{})

	monitor := NewMonitor(fx.coordinator, time.Hour)

	go monitor.Start(context.Background())

	require.Eventually(t, func() bool {
		return monitor.Start(context.Background()) != nil
	}, time.Second, 5*time.Millisecond)

	monitor.Stop()
}
