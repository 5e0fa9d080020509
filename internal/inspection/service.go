// Package inspection implements the inspection lifecycle: creation, duplication,
// listing, draft edits, and the status transition engine with its append-only
// history. Persistence is behind Store; notifications are emitted through an
// EventSink and never affect the outcome of an operation.
package inspection

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/crucial707/remote-inspect/internal/metrics"
	"github.com/crucial707/remote-inspect/internal/models"
	"github.com/crucial707/remote-inspect/internal/notify"
	"github.com/go-playground/validator/v10"
)

const (
	DefaultMaxObjects = 150
	DefaultPageSize   = 20
	MaxPageSize       = 100
	// DefaultListWindow is how far back ListInspections looks when no DateFrom is given.
	DefaultListWindow = 6
)

// EventSink receives lifecycle events. Dispatch must not block on delivery.
type EventSink interface {
	Dispatch(ev notify.Event)
}

type discardSink struct{}

func (discardSink) Dispatch(notify.Event) {}

// Service composes the store and the transition engine.
type Service struct {
	store      Store
	events     EventSink
	now        func() time.Time
	maxObjects int
	validate   *validator.Validate
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithMaxObjects sets the per-inspection object limit.
func WithMaxObjects(n int) Option {
	return func(s *Service) {
		if n > 0 {
			s.maxObjects = n
		}
	}
}

// NewService returns a Service. A nil events sink discards events.
func NewService(store Store, events EventSink, opts ...Option) *Service {
	if events == nil {
		events = discardSink{}
	}
	s := &Service{
		store:      store,
		events:     events,
		now:        time.Now,
		maxObjects: DefaultMaxObjects,
		validate:   newValidator(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Detail is an inspection together with its children.
type Detail struct {
	Inspection    models.Inspection           `json:"inspection"`
	Objects       []models.InspectionObject   `json:"objects"`
	Photos        []models.Photo              `json:"photos"`
	StatusHistory []models.StatusHistoryEntry `json:"statusHistory"`
}

// Pagination describes one page of a list result.
type Pagination struct {
	Page  int `json:"page"`
	Limit int `json:"limit"`
	Total int `json:"total"`
	Pages int `json:"pages"`
}

// Page is a list result.
type Page struct {
	Inspections []models.Inspection `json:"inspections"`
	Pagination  Pagination          `json:"pagination"`
}

// FormatInternalNumber renders the human-facing number for sequence value seq issued at t.
func FormatInternalNumber(t time.Time, seq int64) string {
	return fmt.Sprintf("INS-%s-%06d", t.UTC().Format("20060102"), seq)
}

func (s *Service) nextNumber(ctx context.Context, at time.Time) (string, error) {
	seq, err := s.store.NextSequence(ctx)
	if err != nil {
		return "", fmt.Errorf("next internal number: %w", err)
	}
	return FormatInternalNumber(at, seq), nil
}

// CreateInspection validates d, assigns an internal number, and persists the
// inspection, its objects and the initial history entry atomically. The inspection
// starts InProgress unless d.Draft is set, in which case it stays Created.
func (s *Service) CreateInspection(ctx context.Context, d Draft, createdBy int) (*Detail, error) {
	d.normalize()
	fields := s.validateContent(d)
	s.validateObjects(d.PropertyType, d.Objects, fields)
	if len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}

	now := s.now()
	number, err := s.nextNumber(ctx, now)
	if err != nil {
		return nil, err
	}

	status := models.StatusInProgress
	if d.Draft {
		status = models.StatusCreated
	}
	ins := models.Inspection{
		InternalNumber: number,
		Status:         status,
		PropertyType:   d.PropertyType,
		Address:        d.Address,
		Latitude:       d.Latitude,
		Longitude:      d.Longitude,
		InspectorName:  d.InspectorName,
		InspectorPhone: d.InspectorPhone,
		InspectorEmail: d.InspectorEmail,
		Comment:        d.Comment,
		CreatedBy:      createdBy,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	objects := make([]models.InspectionObject, 0, len(d.Objects))
	for _, o := range d.Objects {
		obj := toObject(d.PropertyType, o)
		obj.CreatedAt = now
		objects = append(objects, obj)
	}

	return s.persistNew(ctx, ins, objects)
}

func (s *Service) persistNew(ctx context.Context, ins models.Inspection, objects []models.InspectionObject) (*Detail, error) {
	initial := models.StatusHistoryEntry{
		NewStatus: ins.Status,
		ChangedBy: ins.CreatedBy,
		Comment:   "created",
		CreatedAt: ins.CreatedAt,
	}
	created, createdObjects, err := s.store.CreateInspection(ctx, ins, objects, initial)
	if err != nil {
		return nil, fmt.Errorf("create inspection: %w", err)
	}
	metrics.IncInspectionsCreated(string(created.PropertyType))

	if created.Status == models.StatusInProgress {
		s.events.Dispatch(notify.NewEvent(notify.EventDispatched, *created))
	}

	initial.InspectionID = created.ID
	return &Detail{
		Inspection:    *created,
		Objects:       createdObjects,
		Photos:        []models.Photo{},
		StatusHistory: []models.StatusHistoryEntry{initial},
	}, nil
}

// load fetches inspection id on behalf of a. An inspection the actor may not see
// is reported as not found.
func (s *Service) load(ctx context.Context, id int, a Actor) (*models.Inspection, error) {
	ins, err := s.store.GetInspection(ctx, id)
	if err != nil {
		return nil, err
	}
	if !a.CanAccess(ins) {
		return nil, NotFound("inspection", id)
	}
	return ins, nil
}

// DuplicateInspection copies the core fields and objects of inspection id into a
// new InProgress inspection with a fresh number, no photos and a fresh history.
// The copy belongs to a.
func (s *Service) DuplicateInspection(ctx context.Context, id int, a Actor) (*Detail, error) {
	src, err := s.load(ctx, id, a)
	if err != nil {
		return nil, err
	}
	srcObjects, err := s.store.ListObjects(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}

	now := s.now()
	number, err := s.nextNumber(ctx, now)
	if err != nil {
		return nil, err
	}

	ins := models.Inspection{
		InternalNumber: number,
		Status:         models.StatusInProgress,
		PropertyType:   src.PropertyType,
		Address:        src.Address,
		Latitude:       src.Latitude,
		Longitude:      src.Longitude,
		InspectorName:  src.InspectorName,
		InspectorPhone: src.InspectorPhone,
		InspectorEmail: src.InspectorEmail,
		Comment:        src.Comment,
		CreatedBy:      a.UserID,
		Version:        1,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	objects := make([]models.InspectionObject, 0, len(srcObjects))
	for _, o := range srcObjects {
		c := cloneObject(o)
		c.CreatedAt = now
		objects = append(objects, c)
	}
	return s.persistNew(ctx, ins, objects)
}

// UpdateInspection overwrites the content fields of a Created inspection.
// Objects are immutable and ignored.
func (s *Service) UpdateInspection(ctx context.Context, id int, d Draft, a Actor) (*models.Inspection, error) {
	d.normalize()
	cur, err := s.load(ctx, id, a)
	if err != nil {
		return nil, err
	}
	// property type is fixed once objects exist
	d.PropertyType = cur.PropertyType
	if fields := s.validateContent(d); len(fields) > 0 {
		return nil, &ValidationError{Fields: fields}
	}
	if cur.Status != models.StatusCreated {
		return nil, ErrNotEditable
	}

	next := *cur
	next.Address = d.Address
	next.Latitude = d.Latitude
	next.Longitude = d.Longitude
	next.InspectorName = d.InspectorName
	next.InspectorPhone = d.InspectorPhone
	next.InspectorEmail = d.InspectorEmail
	next.Comment = d.Comment

	updated, err := s.store.UpdateContent(ctx, next, s.now())
	if err != nil {
		return nil, err
	}
	return updated, nil
}

// TransitionStatus moves inspection id to newStatus and appends one history entry
// in the same transaction. Two concurrent calls on the same inspection cannot both
// succeed: the loser receives ErrConflict.
func (s *Service) TransitionStatus(ctx context.Context, id int, newStatus models.Status, a Actor, comment string) (*models.Inspection, error) {
	if !newStatus.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, newStatus)
	}
	comment = strings.TrimSpace(comment)

	cur, err := s.load(ctx, id, a)
	if err != nil {
		return nil, err
	}
	if !CanTransition(cur.Status, newStatus) {
		return nil, &TransitionError{From: cur.Status, To: newStatus}
	}
	if cur.Status == models.StatusUnderReview && newStatus == models.StatusRevision && comment == "" {
		return nil, &ValidationError{Fields: map[string]string{"comment": "required when returning for revision"}}
	}

	updated, err := s.store.UpdateStatus(ctx, StatusChange{
		InspectionID:    id,
		ExpectedVersion: cur.Version,
		From:            cur.Status,
		To:              newStatus,
		ChangedBy:       a.UserID,
		Comment:         comment,
		At:              s.now(),
	})
	if err != nil {
		if errors.Is(err, ErrConflict) {
			metrics.IncTransitionConflicts()
		}
		return nil, err
	}
	metrics.RecordTransition(string(cur.Status), string(newStatus))

	ev := notify.NewEvent(notify.EventStatusChanged, *updated)
	ev.OldStatus = cur.Status
	ev.Comment = comment
	s.events.Dispatch(ev)

	return updated, nil
}

// GetInspection returns the inspection with objects, photos and history.
func (s *Service) GetInspection(ctx context.Context, id int, a Actor) (*Detail, error) {
	ins, err := s.load(ctx, id, a)
	if err != nil {
		return nil, err
	}
	objects, err := s.store.ListObjects(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list objects: %w", err)
	}
	photos, err := s.store.ListPhotos(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list photos: %w", err)
	}
	history, err := s.store.ListHistory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list history: %w", err)
	}
	if objects == nil {
		objects = []models.InspectionObject{}
	}
	if photos == nil {
		photos = []models.Photo{}
	}
	if history == nil {
		history = []models.StatusHistoryEntry{}
	}
	return &Detail{Inspection: *ins, Objects: objects, Photos: photos, StatusHistory: history}, nil
}

// ListInspections returns one page of inspections visible to a, newest first.
// Without DateFrom the window covers the six months before DateTo, or before
// now when DateTo is unset.
func (s *Service) ListInspections(ctx context.Context, f ListFilter, a Actor) (*Page, error) {
	if f.Status != "" && !f.Status.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidStatus, f.Status)
	}
	if f.Page < 1 {
		f.Page = 1
	}
	if f.Limit < 1 {
		f.Limit = DefaultPageSize
	}
	if f.Limit > MaxPageSize {
		f.Limit = MaxPageSize
	}
	if !f.DateFrom.IsZero() && !f.DateTo.IsZero() && f.DateTo.Before(f.DateFrom) {
		return nil, &ValidationError{Fields: map[string]string{"dateTo": "must not be before dateFrom"}}
	}
	if f.DateFrom.IsZero() {
		anchor := s.now()
		if !f.DateTo.IsZero() {
			anchor = f.DateTo
		}
		f.DateFrom = anchor.UTC().AddDate(0, -DefaultListWindow, 0).Truncate(24 * time.Hour)
	}
	f.CreatedBy = 0
	if !a.Unrestricted() {
		f.CreatedBy = a.UserID
	}
	f.Address = strings.TrimSpace(f.Address)
	f.Inspector = strings.TrimSpace(f.Inspector)
	f.InternalNumber = strings.TrimSpace(f.InternalNumber)

	items, total, err := s.store.ListInspections(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("list inspections: %w", err)
	}
	if items == nil {
		items = []models.Inspection{}
	}
	return &Page{
		Inspections: items,
		Pagination: Pagination{
			Page:  f.Page,
			Limit: f.Limit,
			Total: total,
			Pages: int(math.Ceil(float64(total) / float64(f.Limit))),
		},
	}, nil
}
