package config

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/Wysakm/weather-app-backend-sub001/internal/logger"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/blob"
	blobfs "github.com/Wysakm/weather-app-backend-sub001/pkg/blob/fs"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/blob/gcs"
	blobmemory "github.com/Wysakm/weather-app-backend-sub001/pkg/blob/memory"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/blob/s3"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/imagesync"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/reference"
	"github.com/Wysakm/weather-app-backend-sub001/pkg/reference/gormstore"
)

// Stores holds both collaborators of a run.
type Stores struct {
	References reference.Store
	Objects    blob.Store
}

// Close releases both stores and joins their errors.
func (s *Stores) Close() error {
	var errs []error
	if s.References != nil {
		errs = append(errs, s.References.Close())
	}
	if s.Objects != nil {
		errs = append(errs, s.Objects.Close())
	}
	return errors.Join(errs...)
}

// OpenStores connects to the database and the bucket. On failure nothing is
// left open.
func OpenStores(ctx context.Context, cfg *Config) (*Stores, error) {
	refs, err := CreateReferenceStore(cfg)
	if err != nil {
		return nil, err
	}

	objects, err := CreateBlobStore(ctx, cfg)
	if err != nil {
		_ = refs.Close()
		return nil, err
	}

	return &Stores{References: refs, Objects: objects}, nil
}

// CreateReferenceStore opens the configured database.
func CreateReferenceStore(cfg *Config) (reference.Store, error) {
	store, err := gormstore.New(&cfg.Database)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s database: %w", cfg.Database.Type, err)
	}
	logger.Debug("Reference store opened",
		logger.KeyDatabase, string(cfg.Database.Type),
		logger.KeyTable, cfg.Database.Table)
	return store, nil
}

// CreateBlobStore opens the configured bucket.
func CreateBlobStore(ctx context.Context, cfg *Config) (blob.Store, error) {
	sc := cfg.Storage

	var (
		store blob.Store
		err   error
	)
	switch sc.Type {
	case StorageMemory:
		store = blobmemory.New()
	case StorageFS:
		store, err = blobfs.New(blobfs.Config{BasePath: sc.FS.BasePath})
	case StorageS3:
		store, err = s3.NewFromConfig(ctx, s3Config(sc))
	case StorageGCS:
		store, err = gcs.NewFromConfig(ctx, gcs.Config{
			Bucket:          sc.Bucket,
			CredentialsFile: sc.GCS.CredentialsFile,
			Endpoint:        sc.GCS.Endpoint,
			Anonymous:       sc.GCS.Anonymous,
		})
	default:
		return nil, fmt.Errorf("unknown storage type: %q", sc.Type)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to open %s storage: %w", sc.Type, err)
	}

	logger.Debug("Blob store opened",
		logger.KeyStoreType, sc.Type,
		logger.KeyBucket, sc.Bucket)
	return store, nil
}

// s3Config maps the storage section onto the S3 client. Buckets addressed
// through Google's host use the GCS XML interop endpoint.
func s3Config(sc StorageConfig) s3.Config {
	endpoint := sc.S3.Endpoint
	if endpoint == "" && strings.HasSuffix(sc.Host, "googleapis.com") {
		endpoint = "https://" + sc.Host
	}
	return s3.Config{
		Bucket:          sc.Bucket,
		Region:          sc.S3.Region,
		Endpoint:        endpoint,
		AccessKeyID:     sc.S3.AccessKeyID,
		SecretAccessKey: sc.S3.SecretAccessKey,
		ForcePathStyle:  sc.S3.ForcePathStyle,
	}
}

// EngineOptions builds engine options from the storage and reconcile
// sections. metrics may be nil.
func EngineOptions(cfg *Config, metrics imagesync.Metrics) imagesync.Options {
	return imagesync.Options{
		Locator: imagesync.Locator{
			Host:   cfg.Storage.Host,
			Bucket: cfg.Storage.Bucket,
			Prefix: cfg.Storage.Prefix,
		},
		PrefixLength: cfg.Reconcile.PrefixLength,
		MaxRepairs:   cfg.Reconcile.MaxRepairs,
		MaxDeletions: cfg.Reconcile.MaxDeletions,
		Metrics:      metrics,
	}
}
