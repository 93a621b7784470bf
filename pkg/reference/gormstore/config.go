package gormstore

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"regexp"
	"strings"
)

// DatabaseType defines the supported database backends.
type DatabaseType string

const (
	// DatabaseTypeSQLite uses SQLite (local development, tests).
	DatabaseTypeSQLite DatabaseType = "sqlite"

	// DatabaseTypePostgres uses PostgreSQL (the application's production database).
	DatabaseTypePostgres DatabaseType = "postgres"

	// DatabaseTypeMySQL uses MySQL or MariaDB.
	DatabaseTypeMySQL DatabaseType = "mysql"
)

// Default table layout of the posts table.
const (
	DefaultTable         = "posts"
	DefaultIDColumn      = "id"
	DefaultLocatorColumn = "image"
)

// SQLiteConfig contains SQLite-specific configuration.
type SQLiteConfig struct {
	// Path is the database file, or ":memory:".
	Path string `mapstructure:"path" yaml:"path"`
}

// PostgresConfig contains PostgreSQL-specific configuration.
type PostgresConfig struct {
	Host         string `mapstructure:"host" yaml:"host"`
	Port         int    `mapstructure:"port" yaml:"port"`
	Database     string `mapstructure:"database" yaml:"database"`
	User         string `mapstructure:"user" yaml:"user"`
	Password     string `mapstructure:"password" yaml:"password"`
	SSLMode      string `mapstructure:"sslmode" yaml:"sslmode"` // disable, require, verify-ca, verify-full
	MaxOpenConns int    `mapstructure:"max_open_conns" yaml:"max_open_conns"`
	MaxIdleConns int    `mapstructure:"max_idle_conns" yaml:"max_idle_conns"`
}

// DSN returns the PostgreSQL connection string.
func (c *PostgresConfig) DSN() string {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s",
		c.Host, c.Port, c.User, c.Password, c.Database)
	if c.SSLMode != "" {
		dsn += " sslmode=" + c.SSLMode
	}
	return dsn
}

// MySQLConfig contains MySQL-specific configuration.
type MySQLConfig struct {
	Host     string `mapstructure:"host" yaml:"host"`
	Port     int    `mapstructure:"port" yaml:"port"`
	Database string `mapstructure:"database" yaml:"database"`
	User     string `mapstructure:"user" yaml:"user"`
	Password string `mapstructure:"password" yaml:"password"`
}

// DSN returns the go-sql-driver DSN. clientFoundRows makes UPDATE report
// matched rows, so rewriting a locator to its current value is not "not found".
func (c *MySQLConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&clientFoundRows=true",
		c.User, c.Password, c.Host, c.Port, c.Database)
}

// Config contains database configuration.
type Config struct {
	Type DatabaseType `mapstructure:"type" yaml:"type"`

	// URL is a complete connection string. When set it takes precedence over
	// the per-backend settings (e.g. DATABASE_URL from the application's .env).
	URL string `mapstructure:"url" yaml:"url"`

	SQLite   SQLiteConfig   `mapstructure:"sqlite" yaml:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres" yaml:"postgres"`
	MySQL    MySQLConfig    `mapstructure:"mysql" yaml:"mysql"`

	// Table and columns holding the image locators.
	Table         string `mapstructure:"table" yaml:"table"`
	IDColumn      string `mapstructure:"id_column" yaml:"id_column"`
	LocatorColumn string `mapstructure:"locator_column" yaml:"locator_column"`

	// AutoMigrate creates the default posts table. Development and tests only.
	AutoMigrate bool `mapstructure:"auto_migrate" yaml:"auto_migrate"`

	// LogQueries logs every SQL statement through GORM's logger.
	LogQueries bool `mapstructure:"log_queries" yaml:"log_queries"`
}

var identifierRe = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)?$`)

// ApplyDefaults fills in missing configuration with default values.
func (c *Config) ApplyDefaults() {
	if c.Type == "" {
		c.Type = inferType(c.URL)
	}

	if c.Table == "" {
		c.Table = DefaultTable
	}
	if c.IDColumn == "" {
		c.IDColumn = DefaultIDColumn
	}
	if c.LocatorColumn == "" {
		c.LocatorColumn = DefaultLocatorColumn
	}

	switch c.Type {
	case DatabaseTypeSQLite:
		if c.SQLite.Path == "" && c.URL == "" {
			configDir := os.Getenv("XDG_CONFIG_HOME")
			if configDir == "" {
				homeDir, _ := os.UserHomeDir()
				configDir = filepath.Join(homeDir, ".config")
			}
			c.SQLite.Path = filepath.Join(configDir, "imgsync", "imgsync.db")
		}
	case DatabaseTypePostgres:
		if c.Postgres.Port == 0 {
			c.Postgres.Port = 5432
		}
		if c.Postgres.SSLMode == "" {
			c.Postgres.SSLMode = "disable"
		}
		if c.Postgres.MaxOpenConns == 0 {
			c.Postgres.MaxOpenConns = 10
		}
		if c.Postgres.MaxIdleConns == 0 {
			c.Postgres.MaxIdleConns = 2
		}
	case DatabaseTypeMySQL:
		if c.MySQL.Port == 0 {
			c.MySQL.Port = 3306
		}
	}
}

// inferType guesses the backend from a connection URL scheme.
func inferType(raw string) DatabaseType {
	if raw == "" {
		return DatabaseTypeSQLite
	}
	u, err := url.Parse(raw)
	if err != nil {
		return DatabaseTypeSQLite
	}
	switch strings.ToLower(u.Scheme) {
	case "postgres", "postgresql":
		return DatabaseTypePostgres
	case "mysql":
		return DatabaseTypeMySQL
	default:
		return DatabaseTypeSQLite
	}
}

// Validate checks if the configuration is valid.
func (c *Config) Validate() error {
	for _, ident := range []string{c.Table, c.IDColumn, c.LocatorColumn} {
		if !identifierRe.MatchString(ident) {
			return fmt.Errorf("invalid SQL identifier %q", ident)
		}
	}

	if c.AutoMigrate && (c.IDColumn != DefaultIDColumn || c.LocatorColumn != DefaultLocatorColumn) {
		return fmt.Errorf("auto_migrate requires the default %q/%q columns", DefaultIDColumn, DefaultLocatorColumn)
	}

	if c.URL != "" {
		return nil
	}

	switch c.Type {
	case DatabaseTypeSQLite:
		if c.SQLite.Path == "" {
			return fmt.Errorf("sqlite path is required")
		}
	case DatabaseTypePostgres:
		if c.Postgres.Host == "" {
			return fmt.Errorf("postgres host is required")
		}
		if c.Postgres.Database == "" {
			return fmt.Errorf("postgres database is required")
		}
		if c.Postgres.User == "" {
			return fmt.Errorf("postgres user is required")
		}
	case DatabaseTypeMySQL:
		if c.MySQL.Host == "" {
			return fmt.Errorf("mysql host is required")
		}
		if c.MySQL.Database == "" {
			return fmt.Errorf("mysql database is required")
		}
	default:
		return fmt.Errorf("unsupported database type: %s", c.Type)
	}
	return nil
}

// mysqlDSN converts a mysql:// URL into the driver's DSN format; other
// strings are returned unchanged.
func mysqlDSN(raw string) string {
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "mysql" {
		return raw
	}
	pass, _ := u.User.Password()
	cfg := MySQLConfig{
		Host:     u.Hostname(),
		User:     u.User.Username(),
		Password: pass,
		Database: strings.TrimPrefix(u.Path, "/"),
		Port:     3306,
	}
	if p := u.Port(); p != "" {
		fmt.Sscanf(p, "%d", &cfg.Port)
	}
	return cfg.DSN()
}
