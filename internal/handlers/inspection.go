package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/crucial707/remote-inspect/internal/inspection"
	"github.com/crucial707/remote-inspect/internal/middleware"
	"github.com/crucial707/remote-inspect/internal/models"
)

// ==========================
// Inspection Handler
// ==========================
type InspectionHandler struct {
	Service *inspection.Service
}

// ==========================
// List Inspections
// ==========================

// ListInspections serves GET /inspections. Query: status, address, inspector,
// internalNumber, dateFrom, dateTo (RFC3339 or YYYY-MM-DD), page, limit.
func (h *InspectionHandler) ListInspections(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	f := inspection.ListFilter{
		Status:         models.Status(q.Get("status")),
		Address:        q.Get("address"),
		Inspector:      q.Get("inspector"),
		InternalNumber: q.Get("internalNumber"),
		Page:           atoiDefault(q.Get("page"), 1),
		Limit:          atoiDefault(q.Get("limit"), inspection.DefaultPageSize),
	}

	fields := make(map[string]string)
	if v := q.Get("dateFrom"); v != "" {
		t, _, err := parseDate(v)
		if err != nil {
			fields["dateFrom"] = "must be RFC3339 or YYYY-MM-DD"
		}
		f.DateFrom = t
	}
	if v := q.Get("dateTo"); v != "" {
		t, dateOnly, err := parseDate(v)
		if err != nil {
			fields["dateTo"] = "must be RFC3339 or YYYY-MM-DD"
		}
		if dateOnly {
			// include the whole day
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		f.DateTo = t
	}
	if len(fields) > 0 {
		JSONValidationError(w, "invalid query", fields, http.StatusBadRequest)
		return
	}

	page, err := h.Service.ListInspections(r.Context(), f, actor(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, page)
}

// ==========================
// Create Inspection
// ==========================
func (h *InspectionHandler) CreateInspection(w http.ResponseWriter, r *http.Request) {
	var d inspection.Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	detail, err := h.Service.CreateInspection(r.Context(), d, middleware.GetUserID(r.Context()))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":    "inspection created",
		"inspection": detail.Inspection,
		"objects":    detail.Objects,
	})
}

// Statuses serves the transition table so clients can render allowed actions.
func (h *InspectionHandler) Statuses(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"statuses": inspection.StatusTable()})
}

// ==========================
// Get Inspection
// ==========================
func (h *InspectionHandler) GetInspection(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	detail, err := h.Service.GetInspection(r.Context(), id, actor(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detail)
}

// ==========================
// Update Inspection (draft only)
// ==========================
func (h *InspectionHandler) UpdateInspection(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var d inspection.Draft
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}

	updated, err := h.Service.UpdateInspection(r.Context(), id, d, actor(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "inspection updated", "inspection": updated})
}

// ==========================
// Update Status
// ==========================
func (h *InspectionHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var input struct {
		Status  models.Status `json:"status"`
		Comment string        `json:"comment"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if input.Status == "" {
		JSONValidationError(w, "validation failed", map[string]string{"status": "required"}, http.StatusBadRequest)
		return
	}

	updated, err := h.Service.TransitionStatus(r.Context(), id, input.Status, actor(r), input.Comment)
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message":    "status updated to " + string(updated.Status),
		"inspection": updated,
	})
}

// ==========================
// Duplicate Inspection
// ==========================
func (h *InspectionHandler) DuplicateInspection(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	detail, err := h.Service.DuplicateInspection(r.Context(), id, actor(r))
	if err != nil {
		respondError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, map[string]interface{}{
		"message":    "inspection duplicated",
		"inspection": detail.Inspection,
		"objects":    detail.Objects,
	})
}

// parseDate accepts RFC3339 or a bare date; dateOnly reports the latter.
func parseDate(s string) (t time.Time, dateOnly bool, err error) {
	if t, err = time.Parse(time.RFC3339, s); err == nil {
		return t, false, nil
	}
	t, err = time.Parse("2006-01-02", s)
	return t, err == nil, err
}

func atoiDefault(s string, def int) int {
	if v, err := strconv.Atoi(s); err == nil && v > 0 {
		return v
	}
	return def
}
