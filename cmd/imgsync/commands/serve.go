package commands

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/Wysakm/weather-app-backend-sub001/internal/logger"
	"github.com/Wysakm/weather-app-backend-sub001/internal/telemetry"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/api"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/api/handlers"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/config"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/imagesync"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/metrics"
	promMetrics "github.com/Wysakm/weather-app-backend-sub001/pkg/metrics/prometheus"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Analyze periodically and serve the latest report over HTTP",
	Long: `Run an analysis every server.interval and serve the latest report,
health probes and Prometheus metrics over HTTP. The server never changes the
database or the bucket.

The configuration file is watched; a new server.interval or logging.level
takes effect without a restart.

Examples:
  # Serve on the default port (8080)
  imgsync serve

  # Scan every five minutes
  IMGSYNC_SERVER_INTERVAL=5m imgsync serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := initTelemetry(ctx, cfg)
	if err != nil {
		return err
	}
	defer shutdownTelemetry()

	profilingShutdown, err := telemetry.InitProfiling(telemetry.ProfilingConfig{
		Enabled:        cfg.Telemetry.Profiling.Enabled,
		ServiceName:    "imgsync",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Profiling.Endpoint,
		ProfileTypes:   cfg.Telemetry.Profiling.ProfileTypes,
		Tags: map[string]string{
			"bucket":   cfg.Storage.Bucket,
			"database": string(cfg.Database.Type),
		},
	})
	if err != nil {
		return fmt.Errorf("failed to initialize profiling: %w", err)
	}
	defer func() {
		if err := profilingShutdown(); err != nil {
			logger.Error("profiling shutdown error", logger.KeyError, err)
		}
	}()

	logger.Info("Configuration loaded", "source", getConfigSource(GetConfigFile()))

	var syncMetrics imagesync.Metrics
	if cfg.Metrics.Enabled {
		metrics.InitRegistry()
		syncMetrics = promMetrics.NewImageSyncMetrics()
		logger.Info("Metrics enabled", "path", "/metrics")
	} else {
		logger.Info("Metrics collection disabled")
	}

	engine, stores, err := newEngine(ctx, cfg, syncMetrics)
	if err != nil {
		return err
	}
	defer closeStores(stores)

	monitor := imagesync.NewMonitor(engine, cfg.Server.Interval)
	monitor.Start(ctx)
	defer monitor.Stop()

	if GetConfigFile() != "" || config.DefaultConfigExists() {
		if err := config.Watch(GetConfigFile(), func(next *config.Config) {
			monitor.SetInterval(next.Server.Interval)
			logger.SetLevel(next.Logging.Level)
		}); err != nil {
			logger.Warn("Config reload disabled", logger.KeyError, err)
		}
	}

	if !cfg.Server.API.IsEnabled() {
		logger.Info("API server disabled. Press Ctrl+C to stop.")
		<-ctx.Done()
		logger.Info("Shutdown signal received")
		return nil
	}

	server := api.NewServer(cfg.Server.API, api.Dependencies{
		Stores:  storeChecks(cfg, stores),
		Reports: monitor,
	})

	logger.Info("Server is running. Press Ctrl+C to stop.")
	if err := server.Start(ctx); err != nil {
		logger.Error("Server error", logger.KeyError, err)
		return err
	}
	logger.Info("Server stopped gracefully")
	return nil
}

// storeChecks exposes both stores to the health endpoints.
func storeChecks(cfg *config.Config, stores *config.Stores) []handlers.StoreCheck {
	return []handlers.StoreCheck{
		{
			Name:  fmt.Sprintf("%s/%s", cfg.Database.Type, cfg.Database.Table),
			Type:  imagesync.SourceReferences,
			Check: stores.References.Healthcheck,
		},
		{
			Name:  fmt.Sprintf("%s/%s", cfg.Storage.Type, cfg.Storage.Bucket),
			Type:  imagesync.SourceStorage,
			Check: stores.Objects.HealthCheck,
		},
	}
}
