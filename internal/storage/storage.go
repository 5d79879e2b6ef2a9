// Package storage keeps generated report files in blob storage or on disk
package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/spectrum-media/quote-api/internal/config"
	"go.uber.org/zap"
)

// ErrObjectNotFound is returned when a key does not exist
var ErrObjectNotFound = errors.New("storage object not found")

// ErrInvalidKey is returned for empty keys or keys escaping the store root
var ErrInvalidKey = errors.New("invalid storage key")

// Storage stores opaque objects under slash separated keys
type Storage interface {
	Put(ctx context.Context, key, contentType string, data io.Reader) (int64, error)
	Get(ctx context.Context, key string) (io.ReadCloser, error)
	Delete(ctx context.Context, key string) error
}

// NewStorage creates the configured backend: "local" or "azure"/"cloud"
func NewStorage(ctx context.Context, cfg *config.StorageConfig, logger *zap.Logger) (Storage, error) {
	switch cfg.Mode {
	case "", "local":
		return NewLocalStorage(cfg.LocalBasePath)
	case "cloud", "azure":
		if cfg.CloudConnectionString == "" {
			return nil, fmt.Errorf("cloud connection string required for azure storage")
		}
		return NewAzureBlobStorage(ctx, cfg.CloudConnectionString, cfg.CloudContainer, logger)
	default:
		return nil, fmt.Errorf("unsupported storage mode: %s", cfg.Mode)
	}
}

// ArchiveKey builds the key of an archived report
func ArchiveKey(kind string, year int, name string) string {
	return path.Join("reports", kind, fmt.Sprint(year), name)
}

// cleanKey normalizes a key and rejects traversal outside the root
func cleanKey(key string) (string, error) {
	key = strings.TrimSpace(key)
	if key == "" {
		return "", ErrInvalidKey
	}
	cleaned := path.Clean("/" + key)[1:]
	if cleaned == "" || cleaned != strings.TrimPrefix(key, "/") {
		return "", fmt.Errorf("%w: %s", ErrInvalidKey, key)
	}
	return cleaned, nil
}

// LocalStorage stores objects as files below a base directory
type LocalStorage struct {
	basePath string
}

// NewLocalStorage creates the base directory when missing
func NewLocalStorage(basePath string) (*LocalStorage, error) {
	if basePath == "" {
		basePath = "./data/reports"
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}
	return &LocalStorage{basePath: basePath}, nil
}

func (s *LocalStorage) fullPath(key string) (string, error) {
	cleaned, err := cleanKey(key)
	if err != nil {
		return "", err
	}
	return filepath.Join(s.basePath, filepath.FromSlash(cleaned)), nil
}

// Put writes data to the key, replacing an existing object
func (s *LocalStorage) Put(ctx context.Context, key, contentType string, data io.Reader) (int64, error) {
	full, err := s.fullPath(key)
	if err != nil {
		return 0, err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return 0, fmt.Errorf("failed to create directory: %w", err)
	}

	file, err := os.Create(full)
	if err != nil {
		return 0, fmt.Errorf("failed to create file: %w", err)
	}
	size, err := io.Copy(file, data)
	if closeErr := file.Close(); err == nil {
		err = closeErr
	}
	if err != nil {
		_ = os.Remove(full)
		return 0, fmt.Errorf("failed to write file: %w", err)
	}
	return size, nil
}

// Get opens the object for reading
func (s *LocalStorage) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	full, err := s.fullPath(key)
	if err != nil {
		return nil, err
	}
	file, err := os.Open(full)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrObjectNotFound, key)
		}
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	return file, nil
}

// Delete removes the object; missing objects are not an error
func (s *LocalStorage) Delete(ctx context.Context, key string) error {
	full, err := s.fullPath(key)
	if err != nil {
		return err
	}
	if err := os.Remove(full); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to delete file: %w", err)
	}
	return nil
}
