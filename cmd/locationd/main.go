package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"golang.org/x/sync/errgroup"

	"github.com/noline/locationd/internal/cache"
	"github.com/noline/locationd/internal/config"
	"github.com/noline/locationd/internal/coordinator"
	"github.com/noline/locationd/internal/fetcher"
	"github.com/noline/locationd/internal/gate"
	"github.com/noline/locationd/internal/geocode"
	"github.com/noline/locationd/internal/handler"
	"github.com/noline/locationd/internal/health"
	"github.com/noline/locationd/internal/platform"
	"github.com/noline/locationd/internal/telemetry"
)

// version is stamped at build time via -ldflags.
var version = "dev"

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("Warning: Error loading .env file: %v", err)
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("configuration error: %v", err)
	}

	if err := telemetry.InitGlobalLogger(&telemetry.LogConfig{
		Level:    telemetry.LogLevel(cfg.LogLevel),
		Format:   cfg.LogFormat,
		Output:   cfg.LogOutput,
		Rotation: cfg.LogOutput != "stdout" && cfg.LogOutput != "stderr",
		MaxSize:  50,
	}); err != nil {
		log.Fatalf("failed to initialize logger: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger := telemetry.LogFromContext(ctx)

	otelShutdown, err := telemetry.InitializeOpenTelemetry(ctx, telemetry.LoadOtelConfigFromEnv())
	if err != nil {
		logger.WithError(err).Warn("OpenTelemetry initialization failed, continuing without it")
	} else {
		defer otelShutdown()
	}

	store := openStore(cfg)
	defer func() {
		if err := store.Close(); err != nil {
			logger.WithError(err).Warn("Failed to close store")
		}
	}()

	locationCache := cache.NewLocationCache(store)

	geocoder := geocode.NewClient(geocode.Config{
		BaseURL:   cfg.GeocoderBaseURL,
		UserAgent: cfg.GeocoderUserAgent,
		Timeout:   cfg.GeocoderTimeout,
	})

	// The simulator stands in for the mobile platform bindings; production
	// hosts wire their own PermissionAPI/PositionAPI implementations.
	sim := platform.SimulatorFromEnv()

	permissionGate := gate.New(sim, sim, locationCache, gate.Policy{
		GraceWindow:    cfg.PromptGraceWindow,
		GraceLimit:     cfg.PromptGraceLimit,
		CooldownWindow: cfg.PromptCooldownWindow,
	})
	positionFetcher := fetcher.New(sim, geocoder, cfg.PositionTimeout)
	coord := coordinator.New(ctx, permissionGate, positionFetcher, locationCache)

	if last := coord.LastKnown(); last != nil {
		logger.WithField("updated_at", last.UpdatedAt).Info("Seeded last known location from cache")
	}

	checker := health.NewChecker("noline-locationd", version)
	checker.RegisterStoreCheck("store", store)
	checker.RegisterPermissionCheck("permission", sim)

	router := handler.NewRouter(handler.RouterConfig{
		ServiceName: "noline-locationd",
		Development: cfg.IsDevelopment(),
		Health:      checker,
	},
		handler.NewLocationHandler(coord),
		handler.NewPermissionHandler(coord),
	)

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
	}

	group, groupCtx := errgroup.WithContext(ctx)

	group.Go(func() error {
		logger.Infof("http listening on %s", cfg.HTTPAddr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})

	var monitor *coordinator.Monitor
	if cfg.RecheckInterval > 0 {
		monitor = coordinator.NewMonitor(coord, cfg.RecheckInterval)
		group.Go(func() error {
			if err := monitor.Start(groupCtx); err != nil && !errors.Is(err, context.Canceled) {
				return err
			}
			return nil
		})
	}

	group.Go(func() error {
		<-groupCtx.Done()

		if monitor != nil {
			monitor.Stop()
		}

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil {
		logger.WithError(err).Fatal("Agent terminated")
	}
	logger.Info("Agent stopped")
}

// openStore opens the configured store backend. A Redis failure degrades to
// the file store so the agent still comes up on a device without Redis.
func openStore(cfg *config.Config) cache.Store {
	logger := telemetry.LogFromContext(context.Background())

	if cfg.StoreBackend == "redis" {
		store, err := cache.NewRedisStore(&cache.RedisConfig{
			Host:     cfg.RedisHost,
			Port:     cfg.RedisPort,
			Password: cfg.RedisPassword,
			DB:       cfg.RedisDB,
		}, true)
		if err == nil {
			return store
		}
		logger.WithError(err).Warn("Redis unavailable, falling back to file store")
	}

	store, err := cache.NewFileStore(cfg.StoreFile)
	if err != nil {
		logger.WithError(err).Warn("File store unavailable, falling back to memory store")
		return cache.NewMemoryStore()
	}
	return store
}
