package cache

import (
	"context"
	"encoding/json"
	"time"

	"github.com/noline/locationd/internal/models"
	"github.com/noline/locationd/internal/telemetry"
)

// Storage keys. Both values are JSON blobs; the prompt history is an array
// of epoch-millisecond timestamps.
const (
	keyLastLocation  = "noline:location:last"
	keyPromptHistory = "noline:prompt:history"
)

// LocationCache is the typed persistence layer owned by the location
// coordinator. Reads degrade to absent on corruption; write failures are
// logged and swallowed so the current session keeps its in-memory state.
type LocationCache struct {
	store Store
}

// NewLocationCache creates a cache over the given store.
func NewLocationCache(store Store) *LocationCache {
	return &LocationCache{store: store}
}

// LoadLocation returns the last stored location record, or nil if it was
// never written or the stored payload is malformed.
func (c *LocationCache) LoadLocation(ctx context.Context) *models.LocationRecord {
	raw, ok, err := c.store.Get(ctx, keyLastLocation)
	if err != nil {
		telemetry.LogFromContext(ctx).WithError(err).
			WithField("key", keyLastLocation).
			Warn("Failed to read stored location, treating as absent")
		return nil
	}
	if !ok {
		return nil
	}

	var rec models.LocationRecord
	if err := json.Unmarshal([]byte(raw), &rec); err != nil {
		telemetry.LogFromContext(ctx).WithError(err).
			WithField("key", keyLastLocation).
			Warn("Stored location is corrupt, treating as absent")
		return nil
	}
	return &rec
}

// SaveLocation overwrites the stored location record. Last write wins.
func (c *LocationCache) SaveLocation(ctx context.Context, rec *models.LocationRecord) {
	data, err := json.Marshal(rec)
	if err != nil {
		telemetry.LogFromContext(ctx).WithError(err).
			Error("Failed to marshal location record")
		return
	}
	if err := c.store.Set(ctx, keyLastLocation, string(data)); err != nil {
		telemetry.LogFromContext(ctx).WithError(err).
			WithField("key", keyLastLocation).
			Error("Failed to persist location record")
	}
}

// LoadPromptHistory returns the recorded prompt timestamps, oldest first.
// Absent or corrupt history loads as empty.
func (c *LocationCache) LoadPromptHistory(ctx context.Context) []time.Time {
	raw, ok, err := c.store.Get(ctx, keyPromptHistory)
	if err != nil {
		telemetry.LogFromContext(ctx).WithError(err).
			WithField("key", keyPromptHistory).
			Warn("Failed to read prompt history, treating as empty")
		return nil
	}
	if !ok {
		return nil
	}

	var millis []int64
	if err := json.Unmarshal([]byte(raw), &millis); err != nil {
		telemetry.LogFromContext(ctx).WithError(err).
			WithField("key", keyPromptHistory).
			Warn("Prompt history is corrupt, treating as empty")
		return nil
	}

	history := make([]time.Time, 0, len(millis))
	for _, ms := range millis {
		history = append(history, time.UnixMilli(ms).UTC())
	}
	return history
}

// SavePromptHistory overwrites the recorded prompt timestamps.
func (c *LocationCache) SavePromptHistory(ctx context.Context, history []time.Time) {
	millis := make([]int64, 0, len(history))
	for _, t := range history {
		millis = append(millis, t.UnixMilli())
	}

	data, err := json.Marshal(millis)
	if err != nil {
		telemetry.LogFromContext(ctx).WithError(err).
			Error("Failed to marshal prompt history")
		return
	}
	if err := c.store.Set(ctx, keyPromptHistory, string(data)); err != nil {
		telemetry.LogFromContext(ctx).WithError(err).
			WithField("key", keyPromptHistory).
			Error("Failed to persist prompt history")
	}
}
