// Package source retrieves raw study snapshots from blob storage.
package source

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/trialscope/trialscope/pkg/config"
	"github.com/trialscope/trialscope/pkg/snapshot"
)

// ErrNotFound is returned when the snapshot object does not exist.
var ErrNotFound = errors.New("snapshot object not found")

// Store abstracts blob storage for snapshot documents.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Put(ctx context.Context, key string, data []byte) error
	// Location renders key as a URL-like string for provenance.
	Location(key string) string
}

// LocalStore implements Store using the local filesystem.
// Useful for development and testing.
type LocalStore struct {
	BaseDir string
}

// NewLocalStore creates a LocalStore rooted at the given directory.
func NewLocalStore(baseDir string) *LocalStore {
	return &LocalStore{BaseDir: baseDir}
}

func (s *LocalStore) path(key string) string {
	return filepath.Join(s.BaseDir, filepath.FromSlash(key))
}

// Get reads a snapshot document.
func (s *LocalStore) Get(ctx context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(s.path(key))
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%s: %w", s.path(key), ErrNotFound)
	}
	return data, err
}

// Put writes a snapshot document, creating parent directories.
func (s *LocalStore) Put(ctx context.Context, key string, data []byte) error {
	path := s.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create directory: %w", err)
	}
	return os.WriteFile(path, data, 0o644)
}

func (s *LocalStore) Location(key string) string {
	return "file://" + filepath.ToSlash(s.path(key))
}

// Source fetches the current snapshot from one key of a store.
type Source struct {
	store Store
	key   string
}

// New creates a Source reading key from store.
func New(store Store, key string) *Source {
	return &Source{store: store, key: key}
}

// Open builds a Source from configuration.
func Open(ctx context.Context, cfg config.SourceConfig) (*Source, error) {
	key := cfg.Key
	if key == "" {
		key = "snapshots/latest.json"
	}

	switch cfg.Kind {
	case "", "file":
		return New(NewLocalStore(cfg.Path), key), nil
	case "s3":
		store, err := NewS3Store(ctx, S3Config{
			Bucket:    cfg.Bucket,
			Region:    cfg.Region,
			Endpoint:  cfg.Endpoint,
			AccessKey: os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		})
		if err != nil {
			return nil, err
		}
		return New(store, key), nil
	case "gcs":
		store, err := NewGCSStore(ctx, cfg.Bucket)
		if err != nil {
			return nil, err
		}
		return New(store, key), nil
	default:
		return nil, fmt.Errorf("unknown source kind %q", cfg.Kind)
	}
}

// Fetch retrieves and normalizes the current snapshot.
func (s *Source) Fetch(ctx context.Context) (*snapshot.Snapshot, error) {
	data, err := s.store.Get(ctx, s.key)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot: %w", err)
	}
	snap, err := snapshot.Parse(data)
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot from %s: %w", s.Location(), err)
	}
	return snap, nil
}

// Publish writes a snapshot document to the source key.
func (s *Source) Publish(ctx context.Context, data []byte) error {
	if _, err := snapshot.Parse(data); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	if err := s.store.Put(ctx, s.key, data); err != nil {
		return fmt.Errorf("publish snapshot: %w", err)
	}
	return nil
}

// Location describes where the snapshot is read from.
func (s *Source) Location() string {
	return s.store.Location(s.key)
}
