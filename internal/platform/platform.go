// Package platform defines the external collaborator contracts the location
// agent depends on. Implementations are supplied by the host: the mobile
// runtime in production, the simulator in development and tests.
package platform

import (
	"context"

	"github.com/noline/locationd/internal/models"
)

// Accuracy hints the position source at the fix quality the caller needs.
type Accuracy int

const (
	AccuracyCoarse Accuracy = iota
	AccuracyBalanced
	AccuracyHigh
)

// PermissionAPI exposes the platform location permission state.
type PermissionAPI interface {
	// Status returns the current permission state without prompting.
	Status(ctx context.Context) (models.PermissionState, error)

	// Request surfaces the OS permission dialog and returns the resulting
	// state. Denial is a valid result, not an error.
	Request(ctx context.Context) (models.PermissionState, error)
}

// PositionAPI produces position fixes.
type PositionAPI interface {
	// CurrentPosition obtains a single fix. It may block for as long as the
	// underlying hardware needs; callers bound it with a context deadline.
	CurrentPosition(ctx context.Context, hint Accuracy) (models.Coordinates, error)
}

// SettingsNavigator opens the OS-level application settings screen.
// Fire and forget; invoked only when the user opts in after a denial.
type SettingsNavigator interface {
	OpenAppSettings(ctx context.Context) error
}
