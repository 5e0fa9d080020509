package handlers

import (
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/crucial707/remote-inspect/internal/inspection"
	"github.com/crucial707/remote-inspect/internal/middleware"
)

// pageParams reads limit/offset query parameters, ignoring invalid values.
func pageParams(r *http.Request, defLimit, maxLimit int) (limit, offset int) {
	limit = defLimit
	if l := r.URL.Query().Get("limit"); l != "" {
		if v, err := strconv.Atoi(l); err == nil && v > 0 && v <= maxLimit {
			limit = v
		}
	}
	if o := r.URL.Query().Get("offset"); o != "" {
		if v, err := strconv.Atoi(o); err == nil && v >= 0 {
			offset = v
		}
	}
	return limit, offset
}

// idParam parses the {id} URL parameter; ok is false (and a 400 written) when it is not a positive integer.
func idParam(w http.ResponseWriter, r *http.Request) (int, bool) {
	id, err := strconv.Atoi(chi.URLParam(r, "id"))
	if err != nil || id <= 0 {
		JSONError(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// actor is the authenticated caller as the services see it.
func actor(r *http.Request) inspection.Actor {
	return inspection.Actor{UserID: middleware.GetUserID(r.Context()), Role: middleware.GetRole(r.Context())}
}
