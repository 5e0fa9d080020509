package testsupport

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"time"

	"github.com/crucial707/remote-inspect/internal/storage"
)

// MemBlobs is an in-memory storage.Storage.
type MemBlobs struct {
	mu    sync.Mutex
	blobs map[string]memBlob
	// Now stamps LastModified; defaults to time.Now.
	Now func() time.Time
}

type memBlob struct {
	data        []byte
	contentType string
	modified    time.Time
}

func NewMemBlobs() *MemBlobs {
	return &MemBlobs{blobs: make(map[string]memBlob), Now: time.Now}
}

func (b *MemBlobs) Upload(_ context.Context, key string, r io.Reader, _ int64, contentType string) (*storage.UploadResult, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[key] = memBlob{data: data, contentType: contentType, modified: b.Now()}
	return &storage.UploadResult{Key: key, Size: int64(len(data))}, nil
}

func (b *MemBlobs) Download(_ context.Context, key string) (io.ReadCloser, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	blob, ok := b.blobs[key]
	if !ok {
		return nil, storage.ErrNotFound
	}
	return io.NopCloser(bytes.NewReader(blob.data)), nil
}

func (b *MemBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.blobs, key)
	return nil
}

func (b *MemBlobs) Exists(_ context.Context, key string) (bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	_, ok := b.blobs[key]
	return ok, nil
}

func (b *MemBlobs) List(_ context.Context, prefix string) ([]storage.FileMetadata, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	var out []storage.FileMetadata
	for k, blob := range b.blobs {
		if strings.HasPrefix(k, prefix) {
			out = append(out, storage.FileMetadata{Key: k, Size: int64(len(blob.data)), LastModified: blob.modified})
		}
	}
	return out, nil
}

// Put stores a blob directly with the given modification time.
func (b *MemBlobs) Put(key string, data []byte, modified time.Time) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.blobs[key] = memBlob{data: data, modified: modified}
}

// ContentType returns the content type recorded for key.
func (b *MemBlobs) ContentType(key string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.blobs[key].contentType
}

// Len is the number of stored blobs.
func (b *MemBlobs) Len() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.blobs)
}
