// Package gate decides when the user may be shown the OS location permission
// prompt and records every prompt that was surfaced.
package gate

import (
	"context"
	"sync"
	"time"

	"github.com/noline/locationd/internal/cache"
	apperrors "github.com/noline/locationd/internal/errors"
	"github.com/noline/locationd/internal/models"
	"github.com/noline/locationd/internal/platform"
	"github.com/noline/locationd/internal/telemetry"
)

// Policy is the prompt throttling rule: at most GraceLimit prompts within
// GraceWindow of the first one, then silence until the CooldownWindow slides
// past every recorded prompt.
//
// The grace window is deliberately a single configurable constant. The rule
// is "a short burst of prompts right after install, then a daily cadence";
// the exact burst duration carries no further business meaning.
type Policy struct {
	GraceWindow    time.Duration
	GraceLimit     int
	CooldownWindow time.Duration
}

// DefaultPolicy returns the production policy: 2 prompts in 15 minutes,
// 24-hour cooldown.
func DefaultPolicy() Policy {
	return Policy{
		GraceWindow:    15 * time.Minute,
		GraceLimit:     2,
		CooldownWindow: 24 * time.Hour,
	}
}

// Decision is the outcome of a RequestAccess call. Skipped means the
// throttling policy suppressed the prompt; the user was not asked.
type Decision struct {
	Granted bool                   `json:"granted"`
	Skipped bool                   `json:"skipped"`
	State   models.PermissionState `json:"state"`
}

// Gate owns the permission prompt lifecycle.
type Gate struct {
	perm     platform.PermissionAPI
	settings platform.SettingsNavigator
	cache    *cache.LocationCache
	policy   Policy

	// now is injected by tests.
	now func() time.Time

	// mu serializes the prompt-history read-modify-write across concurrent
	// RequestAccess calls.
	mu sync.Mutex
}

// New creates a permission gate.
func New(perm platform.PermissionAPI, settings platform.SettingsNavigator, c *cache.LocationCache, policy Policy) *Gate {
	return &Gate{
		perm:     perm,
		settings: settings,
		cache:    c,
		policy:   policy,
		now:      time.Now,
	}
}

// RequestAccess checks the platform permission state and, when allowed by
// the throttling policy, surfaces the OS prompt.
//
// An already granted permission bypasses the policy entirely. A platform API
// failure returns a permission-query error, distinct from denial; denial is
// a valid terminal decision, not an error.
func (g *Gate) RequestAccess(ctx context.Context) (Decision, error) {
	logger := telemetry.LogFromContext(ctx).WithField("operation", "request_access")

	state, err := g.perm.Status(ctx)
	if err != nil {
		logger.WithError(err).Error("Platform permission status query failed")
		return Decision{}, apperrors.NewPermissionQueryError("status", err)
	}
	if state == models.PermissionGranted {
		return Decision{Granted: true, State: state}, nil
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now()
	history := g.cache.LoadPromptHistory(ctx)
	recent := pruneBefore(history, now.Add(-g.policy.CooldownWindow))

	if !g.allowPrompt(recent, now) {
		logger.WithField("recent_prompts", len(recent)).
			Info("Permission prompt suppressed by throttling policy")
		return Decision{Skipped: true, State: state}, nil
	}

	result, err := g.perm.Request(ctx)
	if err != nil {
		logger.WithError(err).Error("Platform permission request failed")
		return Decision{}, apperrors.NewPermissionQueryError("request", err)
	}

	// The prompt was surfaced; record it whether the user granted or denied.
	recent = append(recent, now)
	g.cache.SavePromptHistory(ctx, recent)

	logger.WithFields(map[string]interface{}{
		"result":         string(result),
		"recent_prompts": len(recent),
	}).Info("Permission prompt shown")

	return Decision{Granted: result == models.PermissionGranted, State: result}, nil
}

// allowPrompt applies the throttling policy to the pruned history.
func (g *Gate) allowPrompt(recent []time.Time, now time.Time) bool {
	if len(recent) >= g.policy.GraceLimit {
		// The grace allotment is used up for this cooldown cycle.
		return false
	}
	if len(recent) > 0 && now.Sub(recent[0]) > g.policy.GraceWindow {
		// The grace window measured from the first prompt has closed.
		return false
	}
	return true
}

// OpenSettings navigates to the OS app settings screen. Called when the user
// opts in after a denial.
func (g *Gate) OpenSettings(ctx context.Context) error {
	return g.settings.OpenAppSettings(ctx)
}

// Status returns the platform permission state without prompting.
func (g *Gate) Status(ctx context.Context) (models.PermissionState, error) {
	state, err := g.perm.Status(ctx)
	if err != nil {
		return "", apperrors.NewPermissionQueryError("status", err)
	}
	return state, nil
}

// SetClock replaces the time source. Tests only.
func (g *Gate) SetClock(now func() time.Time) {
	g.now = now
}

// pruneBefore drops history entries older than the cutoff. Entries are
// stored oldest first; pruning is idempotent.
func pruneBefore(history []time.Time, cutoff time.Time) []time.Time {
	kept := make([]time.Time, 0, len(history))
	for _, t := range history {
		if !t.Before(cutoff) {
			kept = append(kept, t)
		}
	}
	return kept
}
