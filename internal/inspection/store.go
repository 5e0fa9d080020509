package inspection

import (
	"context"
	"time"

	"github.com/crucial707/remote-inspect/internal/models"
)

// Store persists inspections and their children. Implementations must apply
// CreateInspection, UpdateContent and UpdateStatus atomically.
type Store interface {
	// NextSequence returns the next value of the internal number sequence.
	NextSequence(ctx context.Context) (int64, error)

	// CreateInspection inserts ins, its objects, and the initial history entry in one
	// transaction and returns the stored rows with ids assigned.
	CreateInspection(ctx context.Context, ins models.Inspection, objects []models.InspectionObject, initial models.StatusHistoryEntry) (*models.Inspection, []models.InspectionObject, error)

	// GetInspection returns ErrNotFound when id does not exist.
	GetInspection(ctx context.Context, id int) (*models.Inspection, error)

	// UpdateContent overwrites the content fields of ins when its stored version
	// still equals ins.Version and its status is Created; otherwise ErrConflict.
	UpdateContent(ctx context.Context, ins models.Inspection, at time.Time) (*models.Inspection, error)

	// UpdateStatus applies change with a compare-and-swap on the version and appends
	// one history row in the same transaction. A stale version yields ErrConflict.
	UpdateStatus(ctx context.Context, change StatusChange) (*models.Inspection, error)

	ListInspections(ctx context.Context, f ListFilter) ([]models.Inspection, int, error)
	ListObjects(ctx context.Context, inspectionID int) ([]models.InspectionObject, error)
	ListPhotos(ctx context.Context, inspectionID int) ([]models.Photo, error)
	ListHistory(ctx context.Context, inspectionID int) ([]models.StatusHistoryEntry, error)
}

// StatusChange is one requested transition, stamped by the service.
type StatusChange struct {
	InspectionID    int
	ExpectedVersion int
	From            models.Status
	To              models.Status
	ChangedBy       int
	Comment         string
	At              time.Time
}

// ListFilter selects a page of inspections. Zero values mean "no constraint",
// except DateFrom which the service defaults before calling the store.
type ListFilter struct {
	Status         models.Status
	Address        string
	Inspector      string
	InternalNumber string
	DateFrom       time.Time
	DateTo         time.Time
	// CreatedBy restricts the result to one creator when non-zero.
	CreatedBy int
	Page      int
	Limit     int
}

// Offset returns the row offset for the filter's page.
func (f ListFilter) Offset() int {
	if f.Page < 1 {
		return 0
	}
	return (f.Page - 1) * f.Limit
}
