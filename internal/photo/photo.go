// Package photo attaches geotagged images to inspection objects. Blobs live in a
// storage.Storage backend; metadata rows live in the Store.
package photo

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"

	"github.com/crucial707/remote-inspect/internal/inspection"
	"github.com/crucial707/remote-inspect/internal/metrics"
	"github.com/crucial707/remote-inspect/internal/models"
	"github.com/crucial707/remote-inspect/internal/storage"
)

const (
	DefaultMaxBytes = 20 << 20
	// KeyPrefix is the storage prefix under which every photo blob is written.
	KeyPrefix = "inspections/"

	sniffLen = 3072
)

var (
	ErrPayloadTooLarge      = errors.New("photo exceeds the maximum upload size")
	ErrUnsupportedMediaType = errors.New("photo must be an image")
)

// Store is the persistence the photo service needs.
type Store interface {
	// InspectionOwner returns the creator of inspection id, or
	// inspection.ErrNotFound when it does not exist.
	InspectionOwner(ctx context.Context, id int) (int, error)
	// GetObject returns inspection.ErrNotFound when the object does not exist.
	GetObject(ctx context.Context, id int) (*models.InspectionObject, error)
	CreatePhoto(ctx context.Context, p models.Photo) (*models.Photo, error)
	// GetPhoto returns inspection.ErrNotFound when the photo does not exist.
	GetPhoto(ctx context.Context, id int) (*models.Photo, error)
	DeletePhoto(ctx context.Context, id int) error
	// PhotoKeys returns the file keys of every stored photo.
	PhotoKeys(ctx context.Context) (map[string]struct{}, error)
}

// Upload is one incoming photo.
type Upload struct {
	InspectionID int
	ObjectID     int
	Latitude     float64
	Longitude    float64
	CapturedAt   time.Time
	By           inspection.Actor
	Content      io.Reader
	Size         int64
}

type Service struct {
	store    Store
	blobs    storage.Storage
	maxBytes int64
	now      func() time.Time
}

// NewService returns a Service. maxBytes <= 0 uses DefaultMaxBytes.
func NewService(store Store, blobs storage.Storage, maxBytes int64) *Service {
	if maxBytes <= 0 {
		maxBytes = DefaultMaxBytes
	}
	return &Service{store: store, blobs: blobs, maxBytes: maxBytes, now: time.Now}
}

// MaxBytes is the largest accepted upload.
func (s *Service) MaxBytes() int64 { return s.maxBytes }

// Upload validates u, writes the blob and records the photo row. A failed row
// insert removes the blob again.
func (s *Service) Upload(ctx context.Context, u Upload) (*models.Photo, error) {
	fields := make(map[string]string)
	if u.Latitude < -90 || u.Latitude > 90 {
		fields["latitude"] = "must be between -90 and 90"
	}
	if u.Longitude < -180 || u.Longitude > 180 {
		fields["longitude"] = "must be between -180 and 180"
	}
	if u.Content == nil || u.Size <= 0 {
		fields["file"] = "required"
	}
	if len(fields) > 0 {
		return nil, &inspection.ValidationError{Fields: fields}
	}

	if err := s.authorize(ctx, u.InspectionID, u.By); err != nil {
		return nil, err
	}
	obj, err := s.store.GetObject(ctx, u.ObjectID)
	if err != nil {
		return nil, err
	}
	if obj.InspectionID != u.InspectionID {
		return nil, inspection.NotFound("object", u.ObjectID)
	}

	if u.Size > s.maxBytes {
		return nil, ErrPayloadTooLarge
	}

	head := make([]byte, sniffLen)
	n, err := io.ReadFull(u.Content, head)
	if err != nil && !errors.Is(err, io.ErrUnexpectedEOF) && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("read photo: %w", err)
	}
	head = head[:n]
	mtype := mimetype.Detect(head)
	if !strings.HasPrefix(mtype.String(), "image/") {
		return nil, ErrUnsupportedMediaType
	}
	contentType := strings.SplitN(mtype.String(), ";", 2)[0]

	now := s.now()
	key := fmt.Sprintf("%s%d/%d/%s%s", KeyPrefix, u.InspectionID, u.ObjectID, uuid.NewString(), mtype.Extension())
	body := io.LimitReader(io.MultiReader(bytes.NewReader(head), u.Content), u.Size)
	if _, err := s.blobs.Upload(ctx, key, body, u.Size, contentType); err != nil {
		return nil, fmt.Errorf("store photo: %w", err)
	}

	captured := u.CapturedAt
	if captured.IsZero() {
		captured = now
	}
	p, err := s.store.CreatePhoto(ctx, models.Photo{
		InspectionID: u.InspectionID,
		ObjectID:     u.ObjectID,
		FileKey:      key,
		ContentType:  contentType,
		SizeBytes:    u.Size,
		Latitude:     u.Latitude,
		Longitude:    u.Longitude,
		CapturedAt:   captured,
		UploadedAt:   now,
		UploadedBy:   u.By.UserID,
	})
	if err != nil {
		if delErr := s.blobs.Delete(context.WithoutCancel(ctx), key); delErr != nil {
			slog.Warn("failed to remove blob after insert error", "key", key, "error", delErr)
		}
		return nil, fmt.Errorf("record photo: %w", err)
	}
	metrics.IncPhotosUploaded()
	return p, nil
}

// authorize reports inspections the actor may not see as not found.
func (s *Service) authorize(ctx context.Context, inspectionID int, a inspection.Actor) error {
	owner, err := s.store.InspectionOwner(ctx, inspectionID)
	if err != nil {
		return err
	}
	if !a.Unrestricted() && owner != a.UserID {
		return inspection.NotFound("inspection", inspectionID)
	}
	return nil
}

// Delete removes the blob and then the row. A blob that is already gone is not an error.
func (s *Service) Delete(ctx context.Context, id int, a inspection.Actor) (*models.Photo, error) {
	p, err := s.store.GetPhoto(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.authorize(ctx, p.InspectionID, a); err != nil {
		if errors.Is(err, inspection.ErrNotFound) {
			return nil, inspection.NotFound("photo", id)
		}
		return nil, err
	}
	if err := s.blobs.Delete(ctx, p.FileKey); err != nil {
		return nil, fmt.Errorf("delete blob: %w", err)
	}
	if err := s.store.DeletePhoto(ctx, id); err != nil {
		return nil, err
	}
	return p, nil
}

// SweepOrphans deletes blobs under KeyPrefix that have no photo row and were last
// modified more than olderThan ago. It returns the number of blobs removed.
func (s *Service) SweepOrphans(ctx context.Context, olderThan time.Duration) (int, error) {
	blobs, err := s.blobs.List(ctx, KeyPrefix)
	if err != nil {
		return 0, fmt.Errorf("list blobs: %w", err)
	}
	if len(blobs) == 0 {
		return 0, nil
	}
	known, err := s.store.PhotoKeys(ctx)
	if err != nil {
		return 0, fmt.Errorf("list photo keys: %w", err)
	}

	cutoff := s.now().Add(-olderThan)
	removed := 0
	for _, b := range blobs {
		if _, ok := known[b.Key]; ok || b.LastModified.After(cutoff) {
			continue
		}
		if err := s.blobs.Delete(ctx, b.Key); err != nil {
			slog.Warn("failed to remove orphaned photo", "key", b.Key, "error", err)
			continue
		}
		removed++
	}
	metrics.AddPhotoOrphansSwept(removed)
	return removed, nil
}
