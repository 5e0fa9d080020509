// Package storage defines the blob store for inspection photos.
//
// Backends register themselves from an init function in their own package and
// are selected by name through New:
//
//	func init() {
//	    storage.Register("mybackend", func(cfg config.StorageConfig) (storage.Storage, error) {
//	        return NewMyBackend(cfg)
//	    })
//	}
//
// cmd/api blank-imports every backend so its init runs.
package storage

import (
	"context"
	"errors"
	"io"
	"time"
)

// ErrNotFound is returned by Download when no blob exists at the key.
var ErrNotFound = errors.New("blob not found")

// Storage is implemented by every photo backend.
type Storage interface {
	// Upload stores r under key. size is the exact number of bytes r yields.
	Upload(ctx context.Context, key string, r io.Reader, size int64, contentType string) (*UploadResult, error)

	Download(ctx context.Context, key string) (io.ReadCloser, error)

	// Delete removes the blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	Exists(ctx context.Context, key string) (bool, error)

	// List returns every blob whose key starts with prefix.
	List(ctx context.Context, prefix string) ([]FileMetadata, error)
}

// UploadResult describes a stored blob.
type UploadResult struct {
	Key      string
	Size     int64
	Checksum string
}

// FileMetadata describes a blob returned by List.
type FileMetadata struct {
	Key          string
	Size         int64
	LastModified time.Time
}
