package repo

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/crucial707/remote-inspect/internal/inspection"
	"github.com/crucial707/remote-inspect/internal/models"
)

const photoColumns = `id, inspection_id, object_id, file_key, content_type, size_bytes, latitude, longitude, captured_at, uploaded_at, uploaded_by`

func scanPhoto(row rowScanner) (*models.Photo, error) {
	var p models.Photo
	err := row.Scan(&p.ID, &p.InspectionID, &p.ObjectID, &p.FileKey, &p.ContentType, &p.SizeBytes,
		&p.Latitude, &p.Longitude, &p.CapturedAt, &p.UploadedAt, &p.UploadedBy)
	if err != nil {
		return nil, err
	}
	return &p, nil
}

// ==========================
// PhotoRepo
// ==========================

// PhotoRepo is the postgres implementation of photo.Store.
type PhotoRepo struct {
	DB *sql.DB
}

func NewPhotoRepo(db *sql.DB) *PhotoRepo {
	return &PhotoRepo{DB: db}
}

func (r *PhotoRepo) InspectionOwner(ctx context.Context, id int) (int, error) {
	var owner int
	err := r.DB.QueryRowContext(ctx, `SELECT created_by FROM inspections WHERE id = $1`, id).Scan(&owner)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, inspection.NotFound("inspection", id)
	}
	return owner, err
}

func (r *PhotoRepo) GetObject(ctx context.Context, id int) (*models.InspectionObject, error) {
	o, err := scanObject(r.DB.QueryRowContext(ctx,
		`SELECT id, inspection_id, name, attributes, created_at FROM inspection_objects WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, inspection.NotFound("object", id)
	}
	return o, err
}

func (r *PhotoRepo) CreatePhoto(ctx context.Context, p models.Photo) (*models.Photo, error) {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO photos (inspection_id, object_id, file_key, content_type, size_bytes, latitude, longitude, captured_at, uploaded_at, uploaded_by)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		RETURNING id`,
		p.InspectionID, p.ObjectID, p.FileKey, p.ContentType, p.SizeBytes, p.Latitude, p.Longitude,
		p.CapturedAt, p.UploadedAt, p.UploadedBy,
	).Scan(&p.ID)
	if err != nil {
		return nil, fmt.Errorf("insert photo: %w", err)
	}
	return &p, nil
}

func (r *PhotoRepo) GetPhoto(ctx context.Context, id int) (*models.Photo, error) {
	p, err := scanPhoto(r.DB.QueryRowContext(ctx, `SELECT `+photoColumns+` FROM photos WHERE id = $1`, id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, inspection.NotFound("photo", id)
	}
	return p, err
}

func (r *PhotoRepo) DeletePhoto(ctx context.Context, id int) error {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM photos WHERE id = $1`, id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return inspection.NotFound("photo", id)
	}
	return nil
}

func (r *PhotoRepo) PhotoKeys(ctx context.Context) (map[string]struct{}, error) {
	rows, err := r.DB.QueryContext(ctx, `SELECT file_key FROM photos`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	keys := make(map[string]struct{})
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, err
		}
		keys[k] = struct{}{}
	}
	return keys, rows.Err()
}
