package coordinator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/noline/locationd/internal/models"
	"github.com/noline/locationd/internal/telemetry"
)

// Monitor periodically re-runs the acquisition workflow so the cached
// location stays fresh once permission is granted. It owns a single ticker
// and stops deterministically on teardown.
type Monitor struct {
	coordinator *Coordinator
	interval    time.Duration

	stopCh    chan struct{}
	wg        sync.WaitGroup
	isRunning bool
	mu        sync.Mutex
}

// NewMonitor creates a monitor that re-checks at the given interval.
func NewMonitor(c *Coordinator, interval time.Duration) *Monitor {
	return &Monitor{
		coordinator: c,
		interval:    interval,
		stopCh:      make(chan struct{}),
	}
}

// Start begins the periodic re-check. This is a blocking call - run in a
// goroutine. It returns when the context is cancelled or Stop is called.
func (m *Monitor) Start(ctx context.Context) error {
	m.mu.Lock()
	if m.isRunning {
		m.mu.Unlock()
		return fmt.Errorf("monitor already running")
	}
	m.isRunning = true
	m.mu.Unlock()

	logger := telemetry.LogFromContext(ctx).WithField("interval", m.interval.String())
	logger.Info("Starting location re-check monitor")

	m.wg.Add(1)
	defer m.wg.Done()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			logger.Info("Location monitor stopped by context")
			return ctx.Err()
		case <-m.stopCh:
			logger.Info("Location monitor stopped")
			return nil
		case <-ticker.C:
			m.recheck(ctx)
		}
	}
}

// Stop terminates the monitor and waits for the loop to exit.
func (m *Monitor) Stop() {
	m.mu.Lock()
	if !m.isRunning {
		m.mu.Unlock()
		return
	}
	m.isRunning = false
	m.mu.Unlock()

	close(m.stopCh)
	m.wg.Wait()
}

func (m *Monitor) recheck(ctx context.Context) {
	ctx = telemetry.WithCorrelationID(ctx, telemetry.NewCorrelationID())
	logger := telemetry.LogFromContext(ctx).WithField("operation", "periodic_recheck")

	// Prompts are user-disruptive and reserved for foreground requests. The
	// monitor only refreshes once access already exists, picking up a grant
	// made elsewhere.
	state, err := m.coordinator.PermissionStatus(ctx)
	if err != nil {
		logger.WithError(err).Warn("Permission status query failed during re-check")
		return
	}
	if state != models.PermissionGranted {
		logger.WithField("state", string(state)).Debug("Re-check skipped without access")
		return
	}

	if _, err := m.coordinator.Acquire(ctx); err != nil {
		logger.WithError(err).Warn("Periodic location re-check failed")
	}
}
