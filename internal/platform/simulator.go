package platform

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"sync"

	"github.com/noline/locationd/internal/models"
	"github.com/noline/locationd/internal/telemetry"
)

// Simulator is an in-process platform binding used in development and
// end-to-end runs. Permission state and position are driven by environment
// variables; a Request moves an undetermined state to the configured answer.
type Simulator struct {
	mu           sync.Mutex
	state        models.PermissionState
	grantRequest bool
	position     models.Coordinates
	fixAvailable bool
}

// NewSimulator creates a simulator with the given initial state.
func NewSimulator(state models.PermissionState, grantOnRequest bool, position models.Coordinates) *Simulator {
	return &Simulator{
		state:        state,
		grantRequest: grantOnRequest,
		position:     position,
		fixAvailable: true,
	}
}

// SimulatorFromEnv builds a simulator from SIM_* environment variables.
// Defaults: undetermined permission that grants on request, a fix at the
// configured coordinates (0,0 unless overridden), sensors available.
func SimulatorFromEnv() *Simulator {
	state := models.PermissionUndetermined
	switch os.Getenv("SIM_PERMISSION_STATE") {
	case "granted":
		state = models.PermissionGranted
	case "denied":
		state = models.PermissionDenied
	}

	lat, _ := strconv.ParseFloat(os.Getenv("SIM_LATITUDE"), 64)
	lon, _ := strconv.ParseFloat(os.Getenv("SIM_LONGITUDE"), 64)

	sim := NewSimulator(state, os.Getenv("SIM_DENY_REQUEST") != "true",
		models.Coordinates{Latitude: lat, Longitude: lon})
	if os.Getenv("SIM_FIX_UNAVAILABLE") == "true" {
		sim.fixAvailable = false
	}
	return sim
}

// Status returns the current simulated permission state.
func (s *Simulator) Status(ctx context.Context) (models.PermissionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state, nil
}

// Request simulates the OS permission dialog.
func (s *Simulator) Request(ctx context.Context) (models.PermissionState, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.state == models.PermissionUndetermined {
		if s.grantRequest {
			s.state = models.PermissionGranted
		} else {
			s.state = models.PermissionDenied
		}
	}
	return s.state, nil
}

// CurrentPosition returns the configured fix.
func (s *Simulator) CurrentPosition(ctx context.Context, hint Accuracy) (models.Coordinates, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.fixAvailable {
		return models.Coordinates{}, fmt.Errorf("simulator: no position fix available")
	}
	return s.position, nil
}

// OpenAppSettings logs the navigation; there is no OS screen to open here.
func (s *Simulator) OpenAppSettings(ctx context.Context) error {
	telemetry.LogFromContext(ctx).WithField("operation", "open_app_settings").
		Info("Simulator: app settings requested")
	return nil
}

// SetPosition updates the simulated fix.
func (s *Simulator) SetPosition(c models.Coordinates) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.position = c
}

// SetFixAvailable toggles fix availability.
func (s *Simulator) SetFixAvailable(ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fixAvailable = ok
}
