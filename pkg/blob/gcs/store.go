// Package gcs provides a blob store backed by the native Google Cloud Storage client.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"github.com/Wysakm/weather-app-backend-sub001/pkg/blob"
)

// Config holds configuration for the GCS blob store.
type Config struct {
	// Bucket is the bucket name.
	Bucket string `mapstructure:"bucket" yaml:"bucket"`

	// CredentialsFile is a service-account JSON key. When empty, Application
	// Default Credentials are used.
	CredentialsFile string `mapstructure:"credentials_file" yaml:"credentials_file"`

	// Endpoint overrides the JSON API endpoint (fake-gcs-server, emulators).
	Endpoint string `mapstructure:"endpoint" yaml:"endpoint"`

	// Anonymous disables authentication (emulators, public buckets).
	Anonymous bool `mapstructure:"anonymous" yaml:"anonymous"`
}

// Store is a GCS-backed implementation of blob.Store.
type Store struct {
	client *storage.Client
	bucket *storage.BucketHandle
	name   string
	closed bool
	mu     sync.RWMutex
}

// New creates a store over an existing client. The store owns the client.
func New(client *storage.Client, bucket string) *Store {
	return &Store{
		client: client,
		bucket: client.Bucket(bucket),
		name:   bucket,
	}
}

// NewFromConfig creates a client from config and wraps it.
func NewFromConfig(ctx context.Context, cfg Config) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("gcs: bucket is required")
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}
	if cfg.Endpoint != "" {
		opts = append(opts, option.WithEndpoint(cfg.Endpoint))
	}
	if cfg.Anonymous {
		opts = append(opts, option.WithoutAuthentication())
	}

	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: failed to create client: %w", err)
	}
	return New(client, cfg.Bucket), nil
}

func (s *Store) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return blob.ErrStoreClosed
	}
	return nil
}

// ListObjects iterates the bucket under prefix. Only names are fetched.
func (s *Store) ListObjects(ctx context.Context, prefix string) ([]string, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}

	query := &storage.Query{Prefix: prefix}
	if err := query.SetAttrSelection([]string{"Name"}); err != nil {
		return nil, fmt.Errorf("gcs: select attrs: %w", err)
	}

	keys := []string{}
	it := s.bucket.Objects(ctx, query)
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("gcs: failed to list objects: %w", err)
		}
		if strings.HasSuffix(attrs.Name, "/") {
			continue
		}
		keys = append(keys, attrs.Name)
	}

	return keys, nil
}

// ObjectExists fetches object attributes; ErrObjectNotExist means absent.
func (s *Store) ObjectExists(ctx context.Context, key string) (bool, error) {
	if err := s.checkOpen(); err != nil {
		return false, err
	}
	if key == "" {
		return false, blob.ErrInvalidKey
	}

	_, err := s.bucket.Object(key).Attrs(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("gcs: object attrs: %w", err)
	}
	return true, nil
}

// DeleteObject deletes key. A missing object is treated as already deleted.
func (s *Store) DeleteObject(ctx context.Context, key string) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if key == "" {
		return blob.ErrInvalidKey
	}

	err := s.bucket.Object(key).Delete(ctx)
	if err != nil && !errors.Is(err, storage.ErrObjectNotExist) {
		return fmt.Errorf("gcs: failed to delete object: %w", err)
	}
	return nil
}

// HealthCheck reads the bucket attributes.
func (s *Store) HealthCheck(ctx context.Context) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if _, err := s.bucket.Attrs(ctx); err != nil {
		return fmt.Errorf("GCS health check failed: %w", err)
	}
	return nil
}

// Close closes the underlying client.
func (s *Store) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return nil
	}
	s.closed = true
	return s.client.Close()
}

// Bucket returns the bucket name.
func (s *Store) Bucket() string {
	return s.name
}

var _ blob.Store = (*Store)(nil)
