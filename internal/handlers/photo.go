package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/crucial707/remote-inspect/internal/middleware"
	"github.com/crucial707/remote-inspect/internal/models"
	"github.com/crucial707/remote-inspect/internal/photo"
)

// multipart overhead allowed on top of the photo size limit
const formSlack = 1 << 20

// ==========================
// Photo Handler
// ==========================
type PhotoHandler struct {
	Service   *photo.Service
	AuditRepo Auditor
}

// ==========================
// Upload Photo
// ==========================

// UploadPhoto serves POST /upload/photo (multipart: inspectionId, objectId,
// latitude, longitude, capturedAt, file).
func (h *PhotoHandler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.Service.MaxBytes()+formSlack)
	if err := r.ParseMultipartForm(8 << 20); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			respondError(w, r, photo.ErrPayloadTooLarge)
			return
		}
		JSONError(w, "invalid multipart form", http.StatusBadRequest)
		return
	}
	defer func() { _ = r.MultipartForm.RemoveAll() }()

	fields := make(map[string]string)
	inspectionID := formInt(r, "inspectionId", fields)
	objectID := formInt(r, "objectId", fields)
	lat := formFloat(r, "latitude", fields)
	lng := formFloat(r, "longitude", fields)

	capturedAt := time.Now().UTC()
	if v := strings.TrimSpace(r.FormValue("capturedAt")); v != "" {
		t, err := time.Parse(time.RFC3339, v)
		if err != nil {
			fields["capturedAt"] = "must be RFC3339"
		}
		capturedAt = t
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		fields["file"] = "required"
	} else {
		defer file.Close()
	}
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	p, err := h.Service.Upload(r.Context(), photo.Upload{
		InspectionID: inspectionID,
		ObjectID:     objectID,
		Latitude:     lat,
		Longitude:    lng,
		CapturedAt:   capturedAt,
		By:           actor(r),
		Content:      file,
		Size:         header.Size,
	})
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{"message": "photo uploaded", "photo": p})
}

// ==========================
// Delete Photo
// ==========================
func (h *PhotoHandler) DeletePhoto(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	p, err := h.Service.Delete(r.Context(), id, actor(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	audit(r.Context(), h.AuditRepo, middleware.GetUserID(r.Context()), "delete", models.AuditResourcePhoto, p.ID,
		fmt.Sprintf("inspection=%d key=%s", p.InspectionID, p.FileKey))
	writeJSON(w, http.StatusOK, map[string]string{"message": "photo deleted"})
}

func formInt(r *http.Request, name string, fields map[string]string) int {
	v, err := strconv.Atoi(strings.TrimSpace(r.FormValue(name)))
	if err != nil || v <= 0 {
		fields[name] = "must be a positive integer"
	}
	return v
}

func formFloat(r *http.Request, name string, fields map[string]string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(r.FormValue(name)), 64)
	if err != nil {
		fields[name] = "required number"
	}
	return v
}
