package handlers

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/crucial707/remote-inspect/internal/inspection"
	"github.com/crucial707/remote-inspect/internal/photo"
)

// ErrMessageInternal is the generic message for 500 responses. Do not expose internal details to clients.
const ErrMessageInternal = "internal server error"

// JSONError sends a JSON error response with a single "error" field.
func JSONError(w http.ResponseWriter, message string, status int) {
	writeJSON(w, status, map[string]string{"error": message})
}

// JSONValidationError sends a JSON error response with "error" and optional "fields" for field-level details.
func JSONValidationError(w http.ResponseWriter, message string, fields map[string]string, status int) {
	out := map[string]interface{}{"error": message}
	if len(fields) > 0 {
		out["fields"] = fields
	}
	writeJSON(w, status, out)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// respondError maps a domain error to its HTTP status. Unknown errors are logged
// with the request id and reported as a generic 500.
func respondError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *inspection.ValidationError
	var terr *inspection.TransitionError
	switch {
	case errors.As(err, &verr):
		JSONValidationError(w, "validation failed", verr.Fields, http.StatusBadRequest)
	case errors.Is(err, inspection.ErrInvalidStatus):
		JSONError(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, inspection.ErrNotFound):
		JSONError(w, err.Error(), http.StatusNotFound)
	case errors.As(err, &terr):
		JSONError(w, terr.Error(), http.StatusConflict)
	case errors.Is(err, inspection.ErrConflict), errors.Is(err, inspection.ErrNotEditable):
		JSONError(w, err.Error(), http.StatusConflict)
	case errors.Is(err, photo.ErrPayloadTooLarge):
		JSONError(w, err.Error(), http.StatusRequestEntityTooLarge)
	case errors.Is(err, photo.ErrUnsupportedMediaType):
		JSONError(w, err.Error(), http.StatusUnsupportedMediaType)
	default:
		slog.Error("request failed",
			"request_id", chimw.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
		JSONError(w, ErrMessageInternal, http.StatusInternalServerError)
	}
}
