// Package testsupport provides in-memory fakes shared by package tests.
package testsupport

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/crucial707/remote-inspect/internal/inspection"
	"github.com/crucial707/remote-inspect/internal/models"
)

// MemStore implements inspection.Store and photo.Store in memory. Writes are
// serialized by one mutex, which gives the same CAS semantics as the SQL store.
type MemStore struct {
	mu sync.Mutex

	seq         int64
	nextID      int
	inspections map[int]models.Inspection
	objects     map[int]models.InspectionObject
	photos      map[int]models.Photo
	history     map[int][]models.StatusHistoryEntry

	// FailCreatePhoto makes CreatePhoto return this error when set.
	FailCreatePhoto error
	// BeforeUpdateStatus runs with the lock released just before the CAS check.
	BeforeUpdateStatus func()
}

func NewMemStore() *MemStore {
	return &MemStore{
		inspections: make(map[int]models.Inspection),
		objects:     make(map[int]models.InspectionObject),
		photos:      make(map[int]models.Photo),
		history:     make(map[int][]models.StatusHistoryEntry),
	}
}

func (m *MemStore) id() int {
	m.nextID++
	return m.nextID
}

func (m *MemStore) NextSequence(context.Context) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	return m.seq, nil
}

func (m *MemStore) CreateInspection(_ context.Context, ins models.Inspection, objects []models.InspectionObject, initial models.StatusHistoryEntry) (*models.Inspection, []models.InspectionObject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, existing := range m.inspections {
		if existing.InternalNumber == ins.InternalNumber {
			return nil, nil, inspection.ErrConflict
		}
	}

	ins.ID = m.id()
	m.inspections[ins.ID] = ins
	out := make([]models.InspectionObject, 0, len(objects))
	for _, o := range objects {
		o.ID = m.id()
		o.InspectionID = ins.ID
		m.objects[o.ID] = o
		out = append(out, o)
	}
	initial.ID = m.id()
	initial.InspectionID = ins.ID
	m.history[ins.ID] = append(m.history[ins.ID], initial)
	return &ins, out, nil
}

func (m *MemStore) GetInspection(_ context.Context, id int) (*models.Inspection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ins, ok := m.inspections[id]
	if !ok {
		return nil, inspection.NotFound("inspection", id)
	}
	return &ins, nil
}

func (m *MemStore) UpdateContent(_ context.Context, ins models.Inspection, at time.Time) (*models.Inspection, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.inspections[ins.ID]
	if !ok {
		return nil, inspection.NotFound("inspection", ins.ID)
	}
	if cur.Version != ins.Version || cur.Status != models.StatusCreated {
		return nil, inspection.ErrConflict
	}
	ins.Version++
	ins.UpdatedAt = at
	m.inspections[ins.ID] = ins
	return &ins, nil
}

func (m *MemStore) UpdateStatus(_ context.Context, c inspection.StatusChange) (*models.Inspection, error) {
	if m.BeforeUpdateStatus != nil {
		m.BeforeUpdateStatus()
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	cur, ok := m.inspections[c.InspectionID]
	if !ok {
		return nil, inspection.NotFound("inspection", c.InspectionID)
	}
	if cur.Version != c.ExpectedVersion {
		return nil, inspection.ErrConflict
	}
	cur.Status = c.To
	cur.Version++
	cur.UpdatedAt = c.At
	m.inspections[cur.ID] = cur
	m.history[cur.ID] = append(m.history[cur.ID], models.StatusHistoryEntry{
		ID:           m.id(),
		InspectionID: cur.ID,
		OldStatus:    c.From,
		NewStatus:    c.To,
		ChangedBy:    c.ChangedBy,
		Comment:      c.Comment,
		CreatedAt:    c.At,
	})
	return &cur, nil
}

func (m *MemStore) ListInspections(_ context.Context, f inspection.ListFilter) ([]models.Inspection, int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var matched []models.Inspection
	for _, ins := range m.inspections {
		if matches(ins, f) {
			matched = append(matched, ins)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].CreatedAt.Equal(matched[j].CreatedAt) {
			return matched[i].CreatedAt.After(matched[j].CreatedAt)
		}
		return matched[i].ID > matched[j].ID
	})
	total := len(matched)
	start := f.Offset()
	if start > total {
		start = total
	}
	end := start + f.Limit
	if end > total {
		end = total
	}
	return matched[start:end], total, nil
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}

func matches(ins models.Inspection, f inspection.ListFilter) bool {
	if f.CreatedBy != 0 && ins.CreatedBy != f.CreatedBy {
		return false
	}
	if f.Status != "" && ins.Status != f.Status {
		return false
	}
	if f.Address != "" && !containsFold(ins.Address, f.Address) {
		return false
	}
	if f.Inspector != "" && !containsFold(ins.InspectorName, f.Inspector) {
		return false
	}
	if f.InternalNumber != "" && !containsFold(ins.InternalNumber, f.InternalNumber) {
		return false
	}
	if !f.DateFrom.IsZero() && ins.CreatedAt.Before(f.DateFrom) {
		return false
	}
	if !f.DateTo.IsZero() && ins.CreatedAt.After(f.DateTo) {
		return false
	}
	return true
}

func (m *MemStore) ListObjects(_ context.Context, inspectionID int) ([]models.InspectionObject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.InspectionObject
	for _, o := range m.objects {
		if o.InspectionID == inspectionID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) ListPhotos(_ context.Context, inspectionID int) ([]models.Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Photo
	for _, p := range m.photos {
		if p.InspectionID == inspectionID {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *MemStore) ListHistory(_ context.Context, inspectionID int) ([]models.StatusHistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h := m.history[inspectionID]
	out := make([]models.StatusHistoryEntry, len(h))
	copy(out, h)
	return out, nil
}

// SetCreatedAt rewrites the creation time of an inspection, for list window tests.
func (m *MemStore) SetCreatedAt(id int, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ins := m.inspections[id]
	ins.CreatedAt = at
	m.inspections[id] = ins
}

func (m *MemStore) InspectionOwner(_ context.Context, id int) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ins, ok := m.inspections[id]
	if !ok {
		return 0, inspection.NotFound("inspection", id)
	}
	return ins.CreatedBy, nil
}

func (m *MemStore) GetObject(_ context.Context, id int) (*models.InspectionObject, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.objects[id]
	if !ok {
		return nil, inspection.NotFound("object", id)
	}
	return &o, nil
}

func (m *MemStore) CreatePhoto(_ context.Context, p models.Photo) (*models.Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FailCreatePhoto != nil {
		return nil, m.FailCreatePhoto
	}
	p.ID = m.id()
	m.photos[p.ID] = p
	return &p, nil
}

func (m *MemStore) GetPhoto(_ context.Context, id int) (*models.Photo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.photos[id]
	if !ok {
		return nil, inspection.NotFound("photo", id)
	}
	return &p, nil
}

func (m *MemStore) DeletePhoto(_ context.Context, id int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.photos[id]; !ok {
		return inspection.NotFound("photo", id)
	}
	delete(m.photos, id)
	return nil
}

func (m *MemStore) PhotoKeys(context.Context) (map[string]struct{}, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	keys := make(map[string]struct{}, len(m.photos))
	for _, p := range m.photos {
		keys[p.FileKey] = struct{}{}
	}
	return keys, nil
}
