// Package fetcher obtains position fixes and resolves them to addresses.
package fetcher

import (
	"context"
	"time"

	apperrors "github.com/noline/locationd/internal/errors"
	"github.com/noline/locationd/internal/geocode"
	"github.com/noline/locationd/internal/models"
	"github.com/noline/locationd/internal/platform"
	"github.com/noline/locationd/internal/telemetry"
)

// Geocoder resolves coordinates to address components. A nil address with a
// nil error means the position is unknown to the geocoder.
type Geocoder interface {
	Reverse(ctx context.Context, lat, lon float64) (*geocode.Address, error)
}

// Fetcher retrieves a single current position and reverse-geocodes it.
// It performs no retries; retry policy belongs to the caller.
type Fetcher struct {
	position platform.PositionAPI
	geocoder Geocoder
	timeout  time.Duration
	accuracy platform.Accuracy
}

// New creates a fetcher. The timeout bounds a single fix acquisition, since
// GPS acquisition has no upper bound on some devices; zero disables it.
func New(position platform.PositionAPI, geocoder Geocoder, timeout time.Duration) *Fetcher {
	return &Fetcher{
		position: position,
		geocoder: geocoder,
		timeout:  timeout,
		accuracy: platform.AccuracyBalanced,
	}
}

// FetchPosition obtains one position fix. Failures (timeout, sensors off,
// airplane mode) surface as a retryable position-unavailable error.
func (f *Fetcher) FetchPosition(ctx context.Context) (models.Coordinates, error) {
	if f.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, f.timeout)
		defer cancel()
	}

	coords, err := f.position.CurrentPosition(ctx, f.accuracy)
	if err != nil {
		telemetry.LogFromContext(ctx).WithError(err).
			WithField("operation", "fetch_position").
			Warn("Position fix failed")
		return models.Coordinates{}, apperrors.NewPositionUnavailableError(err)
	}

	if !coords.Valid() {
		return models.Coordinates{}, apperrors.NewValidationError(
			"platform returned coordinates outside geographic ranges")
	}

	return coords, nil
}

// ResolveAddress resolves coordinates to a display address. Resolution is
// best effort: any geocoder failure or an unknown position returns nil and
// never blocks the coordinate result. A known position with no usable
// components resolves to a placeholder string.
func (f *Fetcher) ResolveAddress(ctx context.Context, coords models.Coordinates) *string {
	addr, err := f.geocoder.Reverse(ctx, coords.Latitude, coords.Longitude)
	if err != nil {
		telemetry.LogFromContext(ctx).WithError(err).
			WithField("operation", "resolve_address").
			Warn("Reverse geocoding failed, continuing without address")
		return nil
	}
	if addr == nil {
		return nil
	}

	formatted := geocode.FormatAddress(addr)
	return &formatted
}
