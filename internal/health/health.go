// Package health aggregates component health checks behind the /health
// endpoint.
package health

import (
	"context"
	"fmt"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/noline/locationd/internal/cache"
	"github.com/noline/locationd/internal/platform"
)

// Status represents the overall health status
type Status string

const (
	StatusHealthy   Status = "healthy"
	StatusDegraded  Status = "degraded"
	StatusUnhealthy Status = "unhealthy"
)

// ComponentHealth represents the health of a single component
type ComponentHealth struct {
	Status      Status    `json:"status"`
	Message     string    `json:"message,omitempty"`
	Latency     *int64    `json:"latency_ms,omitempty"`
	LastChecked time.Time `json:"last_checked"`
}

// Response represents the complete health check response
type Response struct {
	Status     Status                     `json:"status"`
	Service    string                     `json:"service"`
	Version    string                     `json:"version"`
	Timestamp  time.Time                  `json:"timestamp"`
	Uptime     string                     `json:"uptime"`
	Components map[string]ComponentHealth `json:"components"`
	System     SystemInfo                 `json:"system"`
}

// SystemInfo represents process-level information
type SystemInfo struct {
	Goroutines int    `json:"goroutines"`
	CPUCount   int    `json:"cpu_count"`
	GoVersion  string `json:"go_version"`
	AllocBytes uint64 `json:"alloc_bytes"`
	NumGC      uint32 `json:"num_gc"`
}

// CheckFunc probes one component.
type CheckFunc func(ctx context.Context) ComponentHealth

// Checker manages health checks for the agent's components.
type Checker struct {
	mu        sync.RWMutex
	startTime time.Time
	service   string
	version   string
	checks    map[string]CheckFunc
}

// NewChecker creates a health checker.
func NewChecker(service, version string) *Checker {
	return &Checker{
		startTime: time.Now(),
		service:   service,
		version:   version,
		checks:    make(map[string]CheckFunc),
	}
}

// Register adds a named component check.
func (c *Checker) Register(name string, fn CheckFunc) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.checks[name] = fn
}

// RegisterStoreCheck registers a durable store probe. A read of a missing key
// is a successful round trip.
func (c *Checker) RegisterStoreCheck(name string, store cache.Store) {
	c.Register(name, func(ctx context.Context) ComponentHealth {
		start := time.Now()
		ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
		defer cancel()

		_, _, err := store.Get(ctx, "health:probe")
		latency := time.Since(start).Milliseconds()

		if err != nil {
			return ComponentHealth{
				Status:      StatusUnhealthy,
				Message:     fmt.Sprintf("Store probe failed: %v", err),
				Latency:     &latency,
				LastChecked: time.Now(),
			}
		}

		status := StatusHealthy
		if latency > 500 {
			status = StatusDegraded
		}
		return ComponentHealth{
			Status:      status,
			Message:     "Store reachable",
			Latency:     &latency,
			LastChecked: time.Now(),
		}
	})
}

// RegisterPermissionCheck registers a platform permission API probe.
func (c *Checker) RegisterPermissionCheck(name string, perm platform.PermissionAPI) {
	c.Register(name, func(ctx context.Context) ComponentHealth {
		start := time.Now()
		state, err := perm.Status(ctx)
		latency := time.Since(start).Milliseconds()

		if err != nil {
			return ComponentHealth{
				Status:      StatusUnhealthy,
				Message:     fmt.Sprintf("Permission API failed: %v", err),
				Latency:     &latency,
				LastChecked: time.Now(),
			}
		}
		return ComponentHealth{
			Status:      StatusHealthy,
			Message:     fmt.Sprintf("Permission state: %s", state),
			Latency:     &latency,
			LastChecked: time.Now(),
		}
	})
}

// Check runs every registered probe and aggregates the worst status.
func (c *Checker) Check(ctx context.Context) Response {
	c.mu.RLock()
	checks := make(map[string]CheckFunc, len(c.checks))
	for name, fn := range c.checks {
		checks[name] = fn
	}
	c.mu.RUnlock()

	components := make(map[string]ComponentHealth, len(checks))
	overall := StatusHealthy
	for name, fn := range checks {
		result := fn(ctx)
		components[name] = result
		switch result.Status {
		case StatusUnhealthy:
			overall = StatusUnhealthy
		case StatusDegraded:
			if overall == StatusHealthy {
				overall = StatusDegraded
			}
		}
	}

	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)

	return Response{
		Status:     overall,
		Service:    c.service,
		Version:    c.version,
		Timestamp:  time.Now().UTC(),
		Uptime:     time.Since(c.startTime).Round(time.Second).String(),
		Components: components,
		System: SystemInfo{
			Goroutines: runtime.NumGoroutine(),
			CPUCount:   runtime.NumCPU(),
			GoVersion:  runtime.Version(),
			AllocBytes: mem.Alloc,
			NumGC:      mem.NumGC,
		},
	}
}

// Handler returns the gin handler for the health endpoint. An unhealthy
// aggregate maps to 503 so orchestrators can act on it.
func (c *Checker) Handler() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		resp := c.Check(ctx.Request.Context())
		code := http.StatusOK
		if resp.Status == StatusUnhealthy {
			code = http.StatusServiceUnavailable
		}
		ctx.JSON(code, resp)
	}
}
