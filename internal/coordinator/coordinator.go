// Package coordinator composes the permission gate, the position fetcher and
// the local cache into the location acquisition workflow.
package coordinator

import (
	"context"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/metric"

	"github.com/noline/locationd/internal/cache"
	apperrors "github.com/noline/locationd/internal/errors"
	"github.com/noline/locationd/internal/fetcher"
	"github.com/noline/locationd/internal/gate"
	"github.com/noline/locationd/internal/models"
	"github.com/noline/locationd/internal/telemetry"
)

// Coordinator owns the acquire-location workflow: gate, then fetch, then
// resolve, then persist, then notify. Concurrent workflows are tolerated;
// every cache write is a wholesale last-write-wins overwrite, so a race
// produces at worst a stale-but-valid record.
type Coordinator struct {
	gate    *gate.Gate
	fetcher *fetcher.Fetcher
	cache   *cache.LocationCache

	mu   sync.RWMutex
	last *models.LocationRecord

	subs  map[chan Event]struct{}
	subMu sync.Mutex

	now func() time.Time

	acquisitions  metric.Int64Counter
	acquireErrors metric.Int64Counter
}

// New creates a coordinator and seeds the in-memory last-known record from
// the cache once.
func New(ctx context.Context, g *gate.Gate, f *fetcher.Fetcher, c *cache.LocationCache) *Coordinator {
	meter := otel.Meter("github.com/noline/locationd/internal/coordinator")
	acquisitions, _ := meter.Int64Counter("locationd.acquisitions",
		metric.WithDescription("Completed location acquisitions"))
	acquireErrors, _ := meter.Int64Counter("locationd.acquire_errors",
		metric.WithDescription("Failed location acquisitions"))

	coord := &Coordinator{
		gate:          g,
		fetcher:       f,
		cache:         c,
		subs:          make(map[chan Event]struct{}),
		now:           time.Now,
		acquisitions:  acquisitions,
		acquireErrors: acquireErrors,
	}
	coord.last = c.LoadLocation(ctx)
	return coord
}

// Acquire runs one full acquisition workflow. The gate must grant access
// strictly before a fix is attempted. The resolved address is best effort;
// its absence never fails the workflow.
func (c *Coordinator) Acquire(ctx context.Context) (*models.LocationRecord, error) {
	logger := telemetry.LogFromContext(ctx).WithField("operation", "acquire_location")

	decision, err := c.gate.RequestAccess(ctx)
	if err != nil {
		c.acquireErrors.Add(ctx, 1)
		return nil, err
	}
	if !decision.Granted {
		c.acquireErrors.Add(ctx, 1)
		if decision.Skipped {
			return nil, apperrors.NewPromptThrottledError()
		}
		return nil, apperrors.NewPermissionDeniedError()
	}

	coords, err := c.fetcher.FetchPosition(ctx)
	if err != nil {
		c.acquireErrors.Add(ctx, 1)
		return nil, err
	}

	address := c.fetcher.ResolveAddress(ctx, coords)

	rec := &models.LocationRecord{
		Coordinates: coords,
		Address:     address,
		UpdatedAt:   c.now().UTC(),
	}

	c.cache.SaveLocation(ctx, rec)

	c.mu.Lock()
	c.last = rec
	c.mu.Unlock()

	c.publish(Event{Record: *rec, OccurredAt: rec.UpdatedAt})
	c.acquisitions.Add(ctx, 1)

	logger.WithFields(map[string]interface{}{
		"latitude":    coords.Latitude,
		"longitude":   coords.Longitude,
		"has_address": address != nil,
	}).Info("Location acquired")

	return rec, nil
}

// RequestAccess runs the permission gate once without fetching a position.
func (c *Coordinator) RequestAccess(ctx context.Context) (gate.Decision, error) {
	return c.gate.RequestAccess(ctx)
}

// PermissionStatus returns the platform permission state without prompting.
func (c *Coordinator) PermissionStatus(ctx context.Context) (models.PermissionState, error) {
	return c.gate.Status(ctx)
}

// OpenSystemSettings opens the OS app settings screen, the recovery path
// the user may choose after a denial.
func (c *Coordinator) OpenSystemSettings(ctx context.Context) error {
	return c.gate.OpenSettings(ctx)
}

// LastKnown returns the most recent location record, from this session or
// seeded from the cache at startup. Nil when none exists.
func (c *Coordinator) LastKnown() *models.LocationRecord {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.last
}
