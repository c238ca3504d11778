// Package cache provides the durable local storage for the location agent:
// a small key-value store abstraction with Redis and file backends, and a
// typed layer for the location record and the prompt history.
package cache

import "context"

// Store is a durable string key-value store. Values survive process restart.
type Store interface {
	// Get returns the stored value and whether the key was present.
	Get(ctx context.Context, key string) (string, bool, error)

	// Set overwrites the value for the key. Last write wins.
	Set(ctx context.Context, key, value string) error

	Close() error
}
