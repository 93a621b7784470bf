package config

import (
	"strings"
	"time"

	"github.com/Wysakm/weather-app-backend-sub001/pkg/imagesync"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/reference/gormstore"
)

// ApplyDefaults sets default values for any unspecified configuration fields.
// Zero values are replaced; explicit values are preserved.
func ApplyDefaults(cfg *Config) {
	applyLoggingDefaults(&cfg.Logging)
	applyTelemetryDefaults(&cfg.Telemetry)
	applyShutdownTimeoutDefaults(cfg)
	cfg.Database.ApplyDefaults()
	applyStorageDefaults(&cfg.Storage)
	applyReconcileDefaults(&cfg.Reconcile)
	applyServerDefaults(&cfg.Server)
}

// applyLoggingDefaults sets logging defaults and normalizes values.
func applyLoggingDefaults(cfg *LoggingConfig) {
	if cfg.Level == "" {
		cfg.Level = "INFO"
	}
	cfg.Level = strings.ToUpper(cfg.Level)

	if cfg.Format == "" {
		cfg.Format = "text"
	}
	if cfg.Output == "" {
		cfg.Output = "stderr"
	}
}

// applyTelemetryDefaults sets OpenTelemetry defaults.
func applyTelemetryDefaults(cfg *TelemetryConfig) {
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}
	if cfg.SampleRate == 0 {
		cfg.SampleRate = 1.0
	}

	if cfg.Profiling.Endpoint == "" {
		cfg.Profiling.Endpoint = "http://localhost:4040"
	}
	if len(cfg.Profiling.ProfileTypes) == 0 {
		cfg.Profiling.ProfileTypes = []string{
			"cpu",
			"alloc_objects",
			"alloc_space",
			"inuse_objects",
			"inuse_space",
			"goroutines",
		}
	}
}

func applyShutdownTimeoutDefaults(cfg *Config) {
	if cfg.ShutdownTimeout == 0 {
		cfg.ShutdownTimeout = 30 * time.Second
	}
}

func applyStorageDefaults(cfg *StorageConfig) {
	if cfg.Type == "" {
		cfg.Type = StorageGCS
	}
	cfg.Type = strings.ToLower(cfg.Type)

	if cfg.Host == "" {
		cfg.Host = imagesync.DefaultStorageHost
	}
	if cfg.Prefix == "" {
		cfg.Prefix = imagesync.DefaultPrefix
	}
	if cfg.Type == StorageS3 && cfg.S3.Region == "" {
		// GCS interop ignores the region but the SDK requires one.
		cfg.S3.Region = "auto"
	}
}

func applyReconcileDefaults(cfg *ReconcileConfig) {
	if cfg.PrefixLength == 0 {
		cfg.PrefixLength = imagesync.DefaultPrefixLength
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = 10 * time.Minute
	}
}

func applyServerDefaults(cfg *ServerConfig) {
	if cfg.Interval == 0 {
		cfg.Interval = imagesync.DefaultInterval
	}
	if cfg.API.Port == 0 {
		cfg.API.Port = 8080
	}
	if cfg.API.ReadTimeout == 0 {
		cfg.API.ReadTimeout = 10 * time.Second
	}
	if cfg.API.WriteTimeout == 0 {
		cfg.API.WriteTimeout = 5 * time.Minute
	}
	if cfg.API.IdleTimeout == 0 {
		cfg.API.IdleTimeout = 60 * time.Second
	}
	if cfg.API.ShutdownTimeout == 0 {
		cfg.API.ShutdownTimeout = 5 * time.Second
	}
}

// GetDefaultConfig returns a Config with all default values applied.
// The bucket is a placeholder that must be replaced before use.
func GetDefaultConfig() *Config {
	cfg := &Config{
		Database: gormstore.Config{
			Type: gormstore.DatabaseTypeSQLite,
		},
		Storage: StorageConfig{
			Type:   StorageGCS,
			Bucket: "my-bucket",
		},
	}

	ApplyDefaults(cfg)
	return cfg
}
