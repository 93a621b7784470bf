// Package gormstore implements reference.Store over a SQL table with GORM.
// SQLite, PostgreSQL and MySQL are supported through the same code path.
package gormstore

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/glebarez/sqlite"
	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	gormlogger "gorm.io/gorm/logger"

	"github.com/Wysakm/weather-app-backend-sub001/internal/logger"
	"github.com/Wysakm/weather-app-backend-sub001/internal/telemetry"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/reference"
)

// Store reads and rewrites image locators in a single table.
type Store struct {
	db     *gorm.DB
	config *Config
}

// New opens the database described by config.
func New(config *Config) (*Store, error) {
	if config == nil {
		config = &Config{}
	}
	config.ApplyDefaults()

	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid database configuration: %w", err)
	}

	dialector, err := openDialector(config)
	if err != nil {
		return nil, err
	}

	logLevel := gormlogger.Silent
	if config.LogQueries {
		logLevel = gormlogger.Info
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(logLevel),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if config.Type == DatabaseTypePostgres {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying database: %w", err)
		}
		sqlDB.SetMaxOpenConns(config.Postgres.MaxOpenConns)
		sqlDB.SetMaxIdleConns(config.Postgres.MaxIdleConns)
	}

	// Every new connection to ":memory:" is a fresh database.
	if config.Type == DatabaseTypeSQLite && config.URL == "" && config.SQLite.Path == ":memory:" {
		sqlDB, err := db.DB()
		if err != nil {
			return nil, fmt.Errorf("failed to get underlying database: %w", err)
		}
		sqlDB.SetMaxOpenConns(1)
	}

	if config.AutoMigrate {
		if err := db.Table(config.Table).AutoMigrate(&Post{}); err != nil {
			return nil, fmt.Errorf("failed to run database migration: %w", err)
		}
	}

	logger.Debug("Reference store opened",
		logger.KeyDatabase, string(config.Type),
		logger.KeyTable, config.Table)

	return &Store{db: db, config: config}, nil
}

func openDialector(config *Config) (gorm.Dialector, error) {
	switch config.Type {
	case DatabaseTypeSQLite:
		dsn := config.URL
		if dsn == "" {
			dsn = config.SQLite.Path
			if dsn != ":memory:" {
				if err := os.MkdirAll(filepath.Dir(dsn), 0o755); err != nil {
					return nil, fmt.Errorf("failed to create database directory: %w", err)
				}
				dsn += "?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)"
			}
		}
		return sqlite.Open(dsn), nil

	case DatabaseTypePostgres:
		dsn := config.URL
		if dsn == "" {
			dsn = config.Postgres.DSN()
		}
		return postgres.Open(dsn), nil

	case DatabaseTypeMySQL:
		dsn := mysqlDSN(config.URL)
		if dsn == "" {
			dsn = config.MySQL.DSN()
		}
		return mysql.Open(dsn), nil

	default:
		return nil, fmt.Errorf("unsupported database type: %s", config.Type)
	}
}

// DB returns the underlying GORM connection (seeding, ad-hoc queries).
func (s *Store) DB() *gorm.DB {
	return s.db
}

// Table returns the configured table name.
func (s *Store) Table() string {
	return s.config.Table
}

// ListImageReferences returns (id, locator) for every row, ordered by id.
func (s *Store) ListImageReferences(ctx context.Context) ([]reference.ImageReference, error) {
	ctx, span := telemetry.StartReferenceSpan(ctx, telemetry.SpanListReferences, string(s.config.Type), s.config.Table)
	defer span.End()

	rows, err := s.db.WithContext(ctx).
		Table(s.config.Table).
		Select("?, ?", clause.Column{Name: s.config.IDColumn}, clause.Column{Name: s.config.LocatorColumn}).
		Order(clause.OrderByColumn{Column: clause.Column{Name: s.config.IDColumn}}).
		Rows()
	if err != nil {
		telemetry.RecordError(ctx, err)
		return nil, fmt.Errorf("list %s: %w", s.config.Table, err)
	}
	defer rows.Close()

	refs := []reference.ImageReference{}
	for rows.Next() {
		var (
			id      string
			locator sql.NullString
		)
		if err := rows.Scan(&id, &locator); err != nil {
			return nil, fmt.Errorf("scan %s row: %w", s.config.Table, err)
		}
		ref := reference.ImageReference{EntityID: id}
		if locator.Valid {
			ref.Locator = reference.Locator(locator.String)
		}
		refs = append(refs, ref)
	}
	if err := rows.Err(); err != nil {
		telemetry.RecordError(ctx, err)
		return nil, fmt.Errorf("list %s: %w", s.config.Table, err)
	}

	span.SetAttributes(telemetry.Count(telemetry.AttrReferences, len(refs)))
	return refs, nil
}

// UpdateImageReference writes locator (NULL when nil) to the entity's row.
func (s *Store) UpdateImageReference(ctx context.Context, entityID string, locator *string) error {
	ctx, span := telemetry.StartReferenceSpan(ctx, telemetry.SpanUpdateRef, string(s.config.Type), s.config.Table,
		telemetry.EntityID(entityID))
	defer span.End()

	var value any = gorm.Expr("NULL")
	if locator != nil {
		value = *locator
	}

	result := s.db.WithContext(ctx).
		Table(s.config.Table).
		Where(clause.Eq{Column: clause.Column{Name: s.config.IDColumn}, Value: entityID}).
		Update(s.config.LocatorColumn, value)
	if result.Error != nil {
		telemetry.RecordError(ctx, result.Error)
		return result.Error
	}
	if result.RowsAffected == 0 {
		return reference.ErrReferenceNotFound
	}
	return nil
}

// Healthcheck pings the database.
func (s *Store) Healthcheck(ctx context.Context) error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	return sqlDB.PingContext(ctx)
}

// Close closes the connection pool.
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying database: %w", err)
	}
	return sqlDB.Close()
}

var _ reference.Store = (*Store)(nil)
