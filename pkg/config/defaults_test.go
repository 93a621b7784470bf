package config

import (
	"testing"
	"time"
)

func TestApplyDefaults(t *testing.T) {
	cfg := &Config{Storage: StorageConfig{Type: "S3", Bucket: "b"}}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "INFO" || cfg.Logging.Format != "text" {
		t.Errorf("Unexpected logging defaults: %+v", cfg.Logging)
	}
	if cfg.Storage.Type != StorageS3 {
		t.Errorf("Expected storage type to be normalized, got %q", cfg.Storage.Type)
	}
	if cfg.Storage.Host != "storage.googleapis.com" {
		t.Errorf("Unexpected host %q", cfg.Storage.Host)
	}
	if cfg.Storage.S3.Region != "auto" {
		t.Errorf("Expected region auto, got %q", cfg.Storage.S3.Region)
	}
	if cfg.Reconcile.PrefixLength != 20 {
		t.Errorf("Expected prefix length 20, got %d", cfg.Reconcile.PrefixLength)
	}
	if cfg.Server.Interval != 15*time.Minute {
		t.Errorf("Expected interval 15m, got %v", cfg.Server.Interval)
	}
	if cfg.Database.Table != "posts" || cfg.Database.LocatorColumn != "image" {
		t.Errorf("Unexpected database defaults: %+v", cfg.Database)
	}
	if len(cfg.Telemetry.Profiling.ProfileTypes) == 0 {
		t.Error("Expected default profile types")
	}
}

func TestApplyDefaults_PreservesExplicitValues(t *testing.T) {
	cfg := &Config{
		Logging:   LoggingConfig{Level: "warn", Format: "json", Output: "stdout"},
		Storage:   StorageConfig{Type: StorageGCS, Bucket: "b", Prefix: "uploads/"},
		Reconcile: ReconcileConfig{PrefixLength: 12, Timeout: time.Minute},
		Server:    ServerConfig{Interval: time.Hour},
	}
	ApplyDefaults(cfg)

	if cfg.Logging.Level != "WARN" || cfg.Logging.Format != "json" || cfg.Logging.Output != "stdout" {
		t.Errorf("Logging overridden: %+v", cfg.Logging)
	}
	if cfg.Storage.Prefix != "uploads/" {
		t.Errorf("Prefix overridden: %q", cfg.Storage.Prefix)
	}
	if cfg.Reconcile.PrefixLength != 12 || cfg.Reconcile.Timeout != time.Minute {
		t.Errorf("Reconcile overridden: %+v", cfg.Reconcile)
	}
	if cfg.Server.Interval != time.Hour {
		t.Errorf("Interval overridden: %v", cfg.Server.Interval)
	}
}

func TestEngineOptions(t *testing.T) {
	cfg := GetDefaultConfig()
	cfg.Reconcile.MaxRepairs = 3

	opts := EngineOptions(cfg, nil)
	if opts.Locator.Bucket != "my-bucket" || opts.Locator.Prefix != "posts/" {
		t.Errorf("Unexpected locator %+v", opts.Locator)
	}
	if opts.MaxRepairs != 3 || opts.PrefixLength != 20 {
		t.Errorf("Unexpected options %+v", opts)
	}
	if opts.Metrics != nil {
		t.Error("Expected nil metrics")
	}
}
