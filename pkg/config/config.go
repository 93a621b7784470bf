package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/Wysakm/weather-app-backend-sub001/pkg/api"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/reference/gormstore"
)

// Config is the imgsync configuration.
//
// Configuration sources (in order of precedence):
//  1. CLI flags (highest priority)
//  2. Environment variables (IMGSYNC_*, plus DATABASE_URL)
//  3. Configuration file (YAML)
//  4. A .env file in the working directory
//  5. Default values (lowest priority)
type Config struct {
	// Logging controls log output behavior
	Logging LoggingConfig `mapstructure:"logging" yaml:"logging"`

	// Telemetry controls OpenTelemetry tracing and Pyroscope profiling
	Telemetry TelemetryConfig `mapstructure:"telemetry" yaml:"telemetry"`

	// ShutdownTimeout is the maximum time to wait for graceful shutdown
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"required,gt=0" yaml:"shutdown_timeout"`

	// Database is the relational store holding image references.
	Database gormstore.Config `mapstructure:"database" yaml:"database"`

	// Storage is the bucket holding the uploaded images.
	Storage StorageConfig `mapstructure:"storage" yaml:"storage"`

	// Reconcile tunes matching and caps mutations per run.
	Reconcile ReconcileConfig `mapstructure:"reconcile" yaml:"reconcile"`

	// Server configures "imgsync serve".
	Server ServerConfig `mapstructure:"server" yaml:"server"`

	// Metrics enables Prometheus collection, served on the API at /metrics.
	Metrics MetricsConfig `mapstructure:"metrics" yaml:"metrics"`
}

// LoggingConfig controls logging behavior.
type LoggingConfig struct {
	// Level is the minimum log level to output
	// Valid values: DEBUG, INFO, WARN, ERROR (case-insensitive, normalized to uppercase)
	Level string `mapstructure:"level" validate:"required,oneof=DEBUG INFO WARN ERROR debug info warn error" yaml:"level"`

	// Format specifies the log output format
	// Valid values: text, json
	Format string `mapstructure:"format" validate:"required,oneof=text json" yaml:"format"`

	// Output specifies where logs are written
	// Valid values: stdout, stderr, or a file path
	Output string `mapstructure:"output" validate:"required" yaml:"output"`
}

// TelemetryConfig controls OpenTelemetry distributed tracing.
type TelemetryConfig struct {
	// Enabled controls whether tracing is enabled. Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the OTLP gRPC collector endpoint (host:port)
	// Default: "localhost:4317"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Insecure disables TLS to the collector
	Insecure bool `mapstructure:"insecure" yaml:"insecure"`

	// SampleRate is the trace sampling rate (0.0 to 1.0). Default: 1.0
	SampleRate float64 `mapstructure:"sample_rate" validate:"omitempty,gte=0,lte=1" yaml:"sample_rate"`

	// Profiling contains Pyroscope continuous profiling configuration
	Profiling ProfilingConfig `mapstructure:"profiling" yaml:"profiling"`
}

// ProfilingConfig controls Pyroscope continuous profiling.
type ProfilingConfig struct {
	// Enabled controls whether continuous profiling is enabled. Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`

	// Endpoint is the Pyroscope server URL. Default: "http://localhost:4040"
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// ProfileTypes lists the profiles to collect.
	// Default: ["cpu", "alloc_objects", "alloc_space", "inuse_objects", "inuse_space", "goroutines"]
	ProfileTypes []string `mapstructure:"profile_types" yaml:"profile_types"`
}

// Storage backends.
const (
	StorageMemory = "memory"
	StorageFS     = "fs"
	StorageS3     = "s3"
	StorageGCS    = "gcs"
)

// StorageConfig describes the bucket and how locators name its objects.
type StorageConfig struct {
	// Type selects the client: gcs (native), s3 (S3 API, also GCS interop),
	// fs (local directory) or memory (empty, for trying things out).
	Type string `mapstructure:"type" validate:"required,oneof=memory fs s3 gcs" yaml:"type"`

	// Bucket is the bucket name, as it appears in public locators.
	Bucket string `mapstructure:"bucket" validate:"required" yaml:"bucket"`

	// Host is the public host in locators. Default: storage.googleapis.com
	Host string `mapstructure:"host" validate:"required" yaml:"host"`

	// Prefix is the key prefix of uploaded images. Default: "posts/"
	Prefix string `mapstructure:"prefix" validate:"required" yaml:"prefix"`

	FS  FSConfig  `mapstructure:"fs" yaml:"fs,omitempty"`
	S3  S3Config  `mapstructure:"s3" yaml:"s3,omitempty"`
	GCS GCSConfig `mapstructure:"gcs" yaml:"gcs,omitempty"`
}

// FSConfig configures the directory-backed store.
type FSConfig struct {
	// BasePath is the directory that plays the bucket root.
	BasePath string `mapstructure:"base_path" yaml:"base_path,omitempty"`
}

// S3Config configures the S3 API client.
type S3Config struct {
	Region string `mapstructure:"region" yaml:"region,omitempty"`

	// Endpoint overrides the service endpoint. When empty and Storage.Host
	// is Google's, https://storage.googleapis.com is used.
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`

	// Static credentials (HMAC keys for GCS interop). Empty uses the
	// default AWS credential chain.
	AccessKeyID     string `mapstructure:"access_key_id" yaml:"access_key_id,omitempty"`
	SecretAccessKey string `mapstructure:"secret_access_key" yaml:"secret_access_key,omitempty"`

	ForcePathStyle bool `mapstructure:"force_path_style" yaml:"force_path_style,omitempty"`
}

// GCSConfig configures the native Cloud Storage client.
type GCSConfig struct {
	// CredentialsFile is a service account JSON key. Empty uses
	// Application Default Credentials.
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file,omitempty"`

	// Endpoint overrides the API endpoint (emulators).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint,omitempty"`

	// Anonymous disables authentication.
	Anonymous bool `mapstructure:"anonymous" yaml:"anonymous,omitempty"`
}

// ReconcileConfig tunes the engine.
type ReconcileConfig struct {
	// PrefixLength is the name-match length of the repair heuristic. Default: 20
	PrefixLength int `mapstructure:"prefix_length" validate:"gte=1" yaml:"prefix_length"`

	// MaxRepairs caps fixed references per run. 0 means unlimited.
	MaxRepairs int `mapstructure:"max_repairs" validate:"gte=0" yaml:"max_repairs"`

	// MaxDeletions caps orphan delete attempts per run. 0 means unlimited.
	MaxDeletions int `mapstructure:"max_deletions" validate:"gte=0" yaml:"max_deletions"`

	// Timeout bounds a single CLI run. Default: 10m
	Timeout time.Duration `mapstructure:"timeout" validate:"gt=0" yaml:"timeout"`
}

// ServerConfig configures the long-running monitor.
type ServerConfig struct {
	// Interval is the time between analysis runs. Default: 15m
	// Changes to the config file are picked up without a restart.
	Interval time.Duration `mapstructure:"interval" validate:"gt=0" yaml:"interval"`

	// API is the HTTP server exposing health, reports and metrics.
	API api.APIConfig `mapstructure:"api" yaml:"api"`
}

// MetricsConfig configures Prometheus metrics.
type MetricsConfig struct {
	// Enabled controls whether metrics are collected. Default: false
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
}

// Load loads configuration from file, environment, and defaults.
//
// A missing config file is not an error: environment variables and defaults
// still apply.
func Load(configPath string) (*Config, error) {
	if err := loadDotEnv(); err != nil {
		return nil, err
	}

	v := viper.New()
	setupViper(v, configPath)

	if _, err := readConfigFile(v); err != nil {
		return nil, err
	}

	var cfg Config
	if err := v.Unmarshal(&cfg, viper.DecodeHook(configDecodeHooks())); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	ApplyDefaults(&cfg)

	if err := Validate(&cfg); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return &cfg, nil
}

// MustLoad is Load with user-facing errors when an explicit file is missing.
func MustLoad(configPath string) (*Config, error) {
	if configPath != "" {
		if _, err := os.Stat(configPath); os.IsNotExist(err) {
			return nil, fmt.Errorf("configuration file not found: %s\n\n"+
				"Please create the configuration file:\n"+
				"  imgsync config init --config %s",
				configPath, configPath)
		}
	}

	cfg, err := Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

// SaveConfig writes cfg as YAML with owner-only permissions, since it may
// hold database passwords and HMAC secrets.
func SaveConfig(cfg *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// loadDotEnv reads ./.env into the environment without overriding
// variables that are already set. A missing file is fine.
func loadDotEnv() error {
	path := os.Getenv("IMGSYNC_ENV_FILE")
	if path == "" {
		path = ".env"
	}
	if err := godotenv.Load(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("failed to load %s: %w", path, err)
	}
	return nil
}

// setupViper configures environment variables and the config file location.
func setupViper(v *viper.Viper, configPath string) {
	// Example: IMGSYNC_STORAGE_BUCKET=my-bucket
	v.SetEnvPrefix("IMGSYNC")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Unmarshal only sees keys viper knows about; bind every leaf so that
	// environment-only configuration works without a file.
	bindEnvKeys(v, "", reflect.TypeOf(Config{}))

	// The application's own .env names the database DATABASE_URL.
	_ = v.BindEnv("database.url", "IMGSYNC_DATABASE_URL", "DATABASE_URL")

	if configPath != "" {
		v.SetConfigFile(configPath)
	} else {
		v.AddConfigPath(getConfigDir())
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}
}

// bindEnvKeys registers every mapstructure leaf key of t with viper.
func bindEnvKeys(v *viper.Viper, prefix string, t reflect.Type) {
	for i := 0; i < t.NumField(); i++ {
		f := t.Field(i)
		name := strings.Split(f.Tag.Get("mapstructure"), ",")[0]
		if name == "" || name == "-" {
			continue
		}
		key := name
		if prefix != "" {
			key = prefix + "." + name
		}

		ft := f.Type
		if ft.Kind() == reflect.Ptr {
			ft = ft.Elem()
		}
		if ft.Kind() == reflect.Struct && ft != reflect.TypeOf(time.Time{}) {
			bindEnvKeys(v, key, ft)
			continue
		}
		_ = v.BindEnv(key)
	}
}

// readConfigFile reads the config file if there is one.
func readConfigFile(v *viper.Viper) (bool, error) {
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) || os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to read config file: %w", err)
	}
	return true, nil
}

// configDecodeHooks converts strings to durations and comma-separated lists.
func configDecodeHooks() mapstructure.DecodeHookFunc {
	return mapstructure.ComposeDecodeHookFunc(
		durationDecodeHook(),
		mapstructure.StringToSliceHookFunc(","),
	)
}

// durationDecodeHook accepts "30s", "5m", "1h" as well as raw nanoseconds.
func durationDecodeHook() mapstructure.DecodeHookFunc {
	return func(from reflect.Type, to reflect.Type, data interface{}) (interface{}, error) {
		if to != reflect.TypeOf(time.Duration(0)) {
			return data, nil
		}

		switch v := data.(type) {
		case string:
			return time.ParseDuration(v)
		case int:
			return time.Duration(v), nil
		case int64:
			return time.Duration(v), nil
		case float64:
			// YAML often deserializes numbers as float64
			return time.Duration(v), nil
		default:
			return data, nil
		}
	}
}

// getConfigDir returns $XDG_CONFIG_HOME/imgsync, ~/.config/imgsync, or "."
// when no home directory is known.
func getConfigDir() string {
	if xdgConfig := os.Getenv("XDG_CONFIG_HOME"); xdgConfig != "" {
		return filepath.Join(xdgConfig, "imgsync")
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "."
	}
	return filepath.Join(home, ".config", "imgsync")
}

// GetDefaultConfigPath returns the default configuration file path.
func GetDefaultConfigPath() string {
	return filepath.Join(getConfigDir(), "config.yaml")
}

// DefaultConfigExists checks if a config file exists at the default location.
func DefaultConfigExists() bool {
	_, err := os.Stat(GetDefaultConfigPath())
	return err == nil
}

// GetConfigDir returns the configuration directory path.
func GetConfigDir() string {
	return getConfigDir()
}
