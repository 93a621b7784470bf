package commands

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/Wysakm/weather-app-backend-sub001/internal/cli/output"
	"github.com/Wysakm/weather-app-backend-sub001/internal/logger"
	"github.com/Wysakm/weather-app-backend-sub001/internal/telemetry"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/config"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/imagesync"
)

// loadConfig loads the configuration named by --config and initializes the
// logger from it.
func loadConfig() (*config.Config, error) {
	cfg, err := config.MustLoad(GetConfigFile())
	if err != nil {
		return nil, err
	}
	if logLevel != "" {
		cfg.Logging.Level = strings.ToUpper(logLevel)
	}
	if err := InitLogger(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// InitLogger initializes the structured logger from configuration.
func InitLogger(cfg *config.Config) error {
	loggerCfg := logger.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Output: cfg.Logging.Output,
	}
	if err := logger.Init(loggerCfg); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

// initTelemetry starts tracing when enabled and returns its shutdown hook.
func initTelemetry(ctx context.Context, cfg *config.Config) (func(), error) {
	shutdown, err := telemetry.Init(ctx, telemetry.Config{
		Enabled:        cfg.Telemetry.Enabled,
		ServiceName:    "imgsync",
		ServiceVersion: Version,
		Endpoint:       cfg.Telemetry.Endpoint,
		Insecure:       cfg.Telemetry.Insecure,
		SampleRate:     cfg.Telemetry.SampleRate,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to initialize telemetry: %w", err)
	}
	return func() {
		// ctx may already be cancelled; flush on a fresh one.
		flushCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
		defer cancel()
		if err := shutdown(flushCtx); err != nil {
			logger.Error("telemetry shutdown error", logger.KeyError, err)
		}
	}, nil
}

// newEngine opens both stores and builds an engine over them. The caller
// closes the returned stores.
func newEngine(ctx context.Context, cfg *config.Config, metrics imagesync.Metrics) (*imagesync.Engine, *config.Stores, error) {
	stores, err := config.OpenStores(ctx, cfg)
	if err != nil {
		return nil, nil, err
	}

	engine, err := imagesync.New(stores.References, stores.Objects, config.EngineOptions(cfg, metrics))
	if err != nil {
		_ = stores.Close()
		return nil, nil, err
	}
	return engine, stores, nil
}

// closeStores closes stores, logging rather than returning the error.
func closeStores(stores *config.Stores) {
	if err := stores.Close(); err != nil {
		logger.Warn("Failed to close stores", logger.KeyError, err)
	}
}

// newPrinter builds a printer from the global --output and --no-color flags.
func newPrinter(cmd *cobra.Command) (*output.Printer, error) {
	outputFlag, _ := cmd.Flags().GetString("output")
	format, err := output.ParseFormat(outputFlag)
	if err != nil {
		return nil, err
	}
	noColor, _ := cmd.Flags().GetBool("no-color")
	return output.NewPrinter(cmd.OutOrStdout(), format, !noColor), nil
}

// getConfigSource returns a description of where the config was loaded from.
func getConfigSource(configFile string) string {
	if configFile != "" {
		return configFile
	}
	if config.DefaultConfigExists() {
		return config.GetDefaultConfigPath()
	}
	return "environment and defaults"
}
