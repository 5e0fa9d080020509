package repo

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/lib/pq"

	"github.com/crucial707/remote-inspect/internal/inspection"
	"github.com/crucial707/remote-inspect/internal/models"
)

const inspectionColumns = `id, internal_number, status, property_type, address, latitude, longitude,
	inspector_name, inspector_phone, inspector_email, comment, created_by, version, created_at, updated_at`

// isUniqueViolation reports whether err is a postgres unique_violation.
func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanInspection(row rowScanner) (*models.Inspection, error) {
	var ins models.Inspection
	var lat, lng sql.NullFloat64
	err := row.Scan(
		&ins.ID, &ins.InternalNumber, &ins.Status, &ins.PropertyType, &ins.Address, &lat, &lng,
		&ins.InspectorName, &ins.InspectorPhone, &ins.InspectorEmail, &ins.Comment,
		&ins.CreatedBy, &ins.Version, &ins.CreatedAt, &ins.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	if lat.Valid {
		ins.Latitude = &lat.Float64
	}
	if lng.Valid {
		ins.Longitude = &lng.Float64
	}
	return &ins, nil
}

func nullFloat(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

// ==========================
// InspectionRepo
// ==========================

// InspectionRepo is the postgres implementation of inspection.Store.
type InspectionRepo struct {
	DB *sql.DB
}

func NewInspectionRepo(db *sql.DB) *InspectionRepo {
	return &InspectionRepo{DB: db}
}

// ==========================
// Internal Number Sequence
// ==========================
func (r *InspectionRepo) NextSequence(ctx context.Context) (int64, error) {
	var n int64
	err := r.DB.QueryRowContext(ctx, `SELECT nextval('inspection_number_seq')`).Scan(&n)
	return n, err
}

// ==========================
// Create Inspection
// ==========================
func (r *InspectionRepo) CreateInspection(ctx context.Context, ins models.Inspection, objects []models.InspectionObject, initial models.StatusHistoryEntry) (*models.Inspection, []models.InspectionObject, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO inspections (internal_number, status, property_type, address, latitude, longitude,
			inspector_name, inspector_phone, inspector_email, comment, created_by, version, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
		RETURNING id`,
		ins.InternalNumber, ins.Status, ins.PropertyType, ins.Address, nullFloat(ins.Latitude), nullFloat(ins.Longitude),
		ins.InspectorName, ins.InspectorPhone, ins.InspectorEmail, ins.Comment, ins.CreatedBy, ins.Version,
		ins.CreatedAt, ins.UpdatedAt,
	).Scan(&ins.ID)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, nil, inspection.ErrConflict
		}
		return nil, nil, fmt.Errorf("insert inspection: %w", err)
	}

	out := make([]models.InspectionObject, 0, len(objects))
	for _, o := range objects {
		attrs, err := json.Marshal(o.Attributes())
		if err != nil {
			return nil, nil, fmt.Errorf("encode attributes: %w", err)
		}
		o.InspectionID = ins.ID
		err = tx.QueryRowContext(ctx,
			`INSERT INTO inspection_objects (inspection_id, name, attributes, created_at) VALUES ($1, $2, $3, $4) RETURNING id`,
			ins.ID, o.Name, string(attrs), o.CreatedAt,
		).Scan(&o.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("insert object: %w", err)
		}
		out = append(out, o)
	}

	if err := insertHistory(ctx, tx, ins.ID, initial.OldStatus, initial.NewStatus, initial.ChangedBy, initial.Comment, initial.CreatedAt); err != nil {
		return nil, nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, nil, fmt.Errorf("commit: %w", err)
	}
	return &ins, out, nil
}

func insertHistory(ctx context.Context, tx *sql.Tx, inspectionID int, from, to models.Status, by int, comment string, at time.Time) error {
	_, err := tx.ExecContext(ctx,
		`INSERT INTO status_history (inspection_id, old_status, new_status, changed_by, comment, created_at) VALUES ($1, $2, $3, $4, $5, $6)`,
		inspectionID, from, to, by, comment, at,
	)
	if err != nil {
		return fmt.Errorf("insert status history: %w", err)
	}
	return nil
}

// ==========================
// Get Inspection
// ==========================
func (r *InspectionRepo) GetInspection(ctx context.Context, id int) (*models.Inspection, error) {
	ins, err := scanInspection(r.DB.QueryRowContext(ctx, `SELECT `+inspectionColumns+` FROM inspections WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, inspection.NotFound("inspection", id)
	}
	return ins, err
}

// ==========================
// Update Content (draft edits)
// ==========================
func (r *InspectionRepo) UpdateContent(ctx context.Context, ins models.Inspection, at time.Time) (*models.Inspection, error) {
	updated, err := scanInspection(r.DB.QueryRowContext(ctx, `
		UPDATE inspections
		SET address = $1, latitude = $2, longitude = $3, inspector_name = $4, inspector_phone = $5,
			inspector_email = $6, comment = $7, version = version + 1, updated_at = $8
		WHERE id = $9 AND version = $10 AND status = 'Created'
		RETURNING `+inspectionColumns,
		ins.Address, nullFloat(ins.Latitude), nullFloat(ins.Longitude), ins.InspectorName, ins.InspectorPhone,
		ins.InspectorEmail, ins.Comment, at, ins.ID, ins.Version,
	))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, inspection.ErrConflict
	}
	return updated, err
}

// ==========================
// Update Status (compare-and-swap on version)
// ==========================
func (r *InspectionRepo) UpdateStatus(ctx context.Context, c inspection.StatusChange) (*models.Inspection, error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	updated, err := scanInspection(tx.QueryRowContext(ctx, `
		UPDATE inspections
		SET status = $1, version = version + 1, updated_at = $2
		WHERE id = $3 AND version = $4
		RETURNING `+inspectionColumns,
		c.To, c.At, c.InspectionID, c.ExpectedVersion,
	))
	if errors.Is(err, sql.ErrNoRows) {
		var exists bool
		if err := tx.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM inspections WHERE id = $1)`, c.InspectionID).Scan(&exists); err != nil {
			return nil, fmt.Errorf("check inspection: %w", err)
		}
		if !exists {
			return nil, inspection.NotFound("inspection", c.InspectionID)
		}
		return nil, inspection.ErrConflict
	}
	if err != nil {
		return nil, fmt.Errorf("update status: %w", err)
	}

	if err := insertHistory(ctx, tx, c.InspectionID, c.From, c.To, c.ChangedBy, c.Comment, c.At); err != nil {
		return nil, err
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	return updated, nil
}

// ==========================
// List Inspections (filtered, paginated)
// ==========================
func (r *InspectionRepo) ListInspections(ctx context.Context, f inspection.ListFilter) ([]models.Inspection, int, error) {
	var where []string
	var args []any
	add := func(cond string, v any) {
		args = append(args, v)
		where = append(where, fmt.Sprintf(cond, len(args)))
	}
	if f.Status != "" {
		add("status = $%d", f.Status)
	}
	if f.CreatedBy != 0 {
		add("created_by = $%d", f.CreatedBy)
	}
	if f.Address != "" {
		add(`address ILIKE $%d ESCAPE '\'`, containsPattern(f.Address))
	}
	if f.Inspector != "" {
		add(`inspector_name ILIKE $%d ESCAPE '\'`, containsPattern(f.Inspector))
	}
	if f.InternalNumber != "" {
		add(`internal_number ILIKE $%d ESCAPE '\'`, containsPattern(f.InternalNumber))
	}
	if !f.DateFrom.IsZero() {
		add("created_at >= $%d", f.DateFrom)
	}
	if !f.DateTo.IsZero() {
		add("created_at <= $%d", f.DateTo)
	}
	clause := ""
	if len(where) > 0 {
		clause = " WHERE " + strings.Join(where, " AND ")
	}

	var total int
	if err := r.DB.QueryRowContext(ctx, `SELECT COUNT(*) FROM inspections`+clause, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("count inspections: %w", err)
	}

	pageArgs := append(args, f.Limit, f.Offset())
	rows, err := r.DB.QueryContext(ctx,
		fmt.Sprintf(`SELECT %s FROM inspections%s ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d`,
			inspectionColumns, clause, len(args)+1, len(args)+2),
		pageArgs...,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list inspections: %w", err)
	}
	defer rows.Close()

	var out []models.Inspection
	for rows.Next() {
		ins, err := scanInspection(rows)
		if err != nil {
			return nil, 0, err
		}
		out = append(out, *ins)
	}
	return out, total, rows.Err()
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// containsPattern turns s into an ILIKE pattern matching s literally anywhere.
func containsPattern(s string) string {
	return "%" + likeEscaper.Replace(s) + "%"
}

// ==========================
// Children
// ==========================
func (r *InspectionRepo) ListObjects(ctx context.Context, inspectionID int) ([]models.InspectionObject, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT id, inspection_id, name, attributes, created_at FROM inspection_objects WHERE inspection_id = $1 ORDER BY id`,
		inspectionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.InspectionObject
	for rows.Next() {
		o, err := scanObject(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *o)
	}
	return out, rows.Err()
}

func scanObject(row rowScanner) (*models.InspectionObject, error) {
	var o models.InspectionObject
	var raw []byte
	if err := row.Scan(&o.ID, &o.InspectionID, &o.Name, &raw, &o.CreatedAt); err != nil {
		return nil, err
	}
	var attrs models.ObjectAttributes
	if len(raw) > 0 {
		if err := json.Unmarshal(raw, &attrs); err != nil {
			return nil, fmt.Errorf("decode attributes of object %d: %w", o.ID, err)
		}
	}
	o.SetAttributes(attrs)
	return &o, nil
}

func (r *InspectionRepo) ListPhotos(ctx context.Context, inspectionID int) ([]models.Photo, error) {
	rows, err := r.DB.QueryContext(ctx,
		`SELECT `+photoColumns+` FROM photos WHERE inspection_id = $1 ORDER BY id`,
		inspectionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Photo
	for rows.Next() {
		p, err := scanPhoto(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *p)
	}
	return out, rows.Err()
}

func (r *InspectionRepo) ListHistory(ctx context.Context, inspectionID int) ([]models.StatusHistoryEntry, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, inspection_id, old_status, new_status, changed_by, comment, created_at
		FROM status_history WHERE inspection_id = $1 ORDER BY id`,
		inspectionID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.StatusHistoryEntry
	for rows.Next() {
		var h models.StatusHistoryEntry
		if err := rows.Scan(&h.ID, &h.InspectionID, &h.OldStatus, &h.NewStatus, &h.ChangedBy, &h.Comment, &h.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, h)
	}
	return out, rows.Err()
}
