// CarLink Core - vendor-neutral car data runtime
//
// This is the main entry point for the CarLink Core daemon. It loads
// configuration, builds the instance registry, instantiates the
// configured connector and plugin instances through the factory table,
// and keeps the data tree fresh until a shutdown signal arrives.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/opencarlink/carlink-core/internal/infrastructure/config"
	"github.com/opencarlink/carlink-core/internal/infrastructure/logging"
	"github.com/opencarlink/carlink-core/pkg/aggregate"
	"github.com/opencarlink/carlink-core/pkg/connectors/sim"
	"github.com/opencarlink/carlink-core/pkg/registry"
)

// Version information - set at build time via ldflags
// Example: go build -ldflags "-X main.version=1.0.0 -X main.commit=abc123"
var (
	version = "dev"     // Semantic version (e.g., "1.0.0")
	commit  = "unknown" // Git commit hash
	date    = "unknown" // Build date
)

// Default configuration file path
const defaultConfigPath = "configs/config.yaml"

func main() {
	// Create a context that cancels on interrupt signals (Ctrl+C, SIGTERM)
	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// run is the actual application logic, separated from main for testability.
// Returning an error allows main to handle exit codes consistently.
func run(ctx context.Context) error {
	// Use default logger until config is loaded
	log := logging.Default()
	log.Info("starting CarLink Core",
		"version", version,
		"commit", commit,
		"build_date", date,
	)

	// Load configuration
	configPath := getConfigPath()
	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	log.Info("configuration loaded", "path", configPath)

	// Reinitialise logger with config settings
	log = logging.New(cfg.Logging, version)
	log.Info("logger initialised",
		"level", cfg.Logging.Level,
		"format", cfg.Logging.Format,
	)

	// Build the registry and the factory table
	reg := registry.New()
	reg.SetLogger(log.With("component", "registry"))

	factories := buildFactories()
	log.Info("factories registered",
		"connectors", factories.ConnectorTypes(),
		"plugins", factories.PluginTypes(),
	)

	// Instantiate configured connectors and plugins
	if err := startInstances(ctx, cfg, reg, factories, log); err != nil {
		shutdown(reg, cfg, log)
		return err
	}

	// Initial fetch so the tree is populated before the loop starts
	if err := reg.FetchAll(ctx); err != nil {
		logAggregate(log, "initial fetch failed", err)
	}

	log.Info("initialisation complete, entering run loop")

	fetchTicker := time.NewTicker(cfg.GetFetchInterval())
	defer fetchTicker.Stop()
	healthTicker := time.NewTicker(cfg.GetHealthInterval())
	defer healthTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Info("shutdown signal received, cleaning up")
			shutdown(reg, cfg, log)
			log.Info("CarLink Core stopped")
			return nil

		case <-fetchTicker.C:
			if err := reg.FetchAll(ctx); err != nil {
				logAggregate(log, "fetch failed", err)
			}

		case <-healthTicker.C:
			for key, health := range reg.PublishHealth(ctx) {
				log.Debug("instance health",
					"type", key.Type,
					"instance", key.InstanceID,
					"status", health.Status,
				)
			}
		}
	}
}

// buildFactories returns the factory table of built-in types. Vendor
// connectors and plugins add themselves here when linked in.
func buildFactories() *registry.Factories {
	factories := registry.NewFactories()
	// Registration of built-ins cannot collide.
	if err := factories.RegisterConnector(sim.Type, sim.Factory); err != nil {
		panic(err)
	}
	return factories
}

// startInstances creates and registers every instance the configuration
// names. The first failure aborts startup; already-started instances
// are cleaned up by the caller's shutdown.
func startInstances(ctx context.Context, cfg *config.Config, reg *registry.Registry, factories *registry.Factories, log *logging.Logger) error {
	for _, ic := range cfg.Connectors {
		conn, err := factories.NewConnector(ic.Type, ic.Config)
		if err != nil {
			return fmt.Errorf("connector %s: %w", ic.Type, err)
		}
		key := registry.Key{Type: ic.Type, InstanceID: ic.ID}
		if _, err := reg.RegisterConnector(ctx, key, conn); err != nil {
			return fmt.Errorf("registering connector: %w", err)
		}
		log.Info("connector started", "type", ic.Type, "instance", key.InstanceID)
	}

	for _, ic := range cfg.Plugins {
		plugin, err := factories.NewPlugin(ic.Type, ic.Config)
		if err != nil {
			return fmt.Errorf("plugin %s: %w", ic.Type, err)
		}
		key := registry.Key{Type: ic.Type, InstanceID: ic.ID}
		if _, err := reg.RegisterPlugin(ctx, key, plugin); err != nil {
			return fmt.Errorf("registering plugin: %w", err)
		}
		log.Info("plugin started", "type", ic.Type, "instance", key.InstanceID)
	}

	return nil
}

// shutdown stops the registry within the configured timeout, reporting
// every per-instance failure individually.
func shutdown(reg *registry.Registry, cfg *config.Config, log *logging.Logger) {
	ctx, cancel := context.WithTimeout(context.Background(), cfg.GetShutdownTimeout())
	defer cancel()

	if err := reg.Shutdown(ctx); err != nil && !errors.Is(err, registry.ErrClosed) {
		logAggregate(log, "shutdown completed with failures", err)
	}
}

// logAggregate logs each cause of an aggregate error on its own line,
// keeping the failing instance's identity visible.
func logAggregate(log *logging.Logger, msg string, err error) {
	var agg *aggregate.Error
	if errors.As(err, &agg) {
		for _, cause := range agg.Causes {
			log.Error(msg,
				"type", cause.InstanceType,
				"instance", cause.InstanceID,
				"error", cause.Err,
			)
		}
		return
	}
	log.Error(msg, "error", err)
}

// getConfigPath returns the configuration file path.
// Uses CARLINK_CONFIG environment variable if set, otherwise default.
func getConfigPath() string {
	if path := os.Getenv("CARLINK_CONFIG"); path != "" {
		return path
	}
	return defaultConfigPath
}
