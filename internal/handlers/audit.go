package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/crucial707/remote-inspect/internal/models"
	"github.com/crucial707/remote-inspect/internal/repo"
)

// Auditor records admin actions. Implemented by *repo.AuditRepo.
type Auditor interface {
	Log(ctx context.Context, userID int, action, resourceType string, resourceID int, details string) error
}

// audit writes an entry and only logs on failure; the action itself already succeeded.
func audit(ctx context.Context, a Auditor, userID int, action, resourceType string, resourceID int, details string) {
	if a == nil {
		return
	}
	if err := a.Log(ctx, userID, action, resourceType, resourceID, details); err != nil {
		slog.Warn("audit log failed", "action", action, "resource_type", resourceType, "resource_id", resourceID, "error", err)
	}
}

// AuditHandler serves audit log endpoints.
type AuditHandler struct {
	Repo *repo.AuditRepo
}

// ListAudit returns recent audit log entries. Query: resource_type (user|photo),
// user_id, limit (default 50, max 200), offset.
func (h *AuditHandler) ListAudit(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r, 50, 200)

	f := repo.AuditFilter{ResourceType: r.URL.Query().Get("resource_type")}
	switch f.ResourceType {
	case "", models.AuditResourceUser, models.AuditResourcePhoto:
	default:
		JSONError(w, "resource_type must be user or photo", http.StatusBadRequest)
		return
	}
	if v := r.URL.Query().Get("user_id"); v != "" {
		id, err := strconv.Atoi(v)
		if err != nil || id <= 0 {
			JSONError(w, "invalid user_id", http.StatusBadRequest)
			return
		}
		f.UserID = id
	}

	entries, err := h.Repo.List(r.Context(), f, limit, offset)
	if err != nil {
		respondError(w, r, err)
		return
	}
	total, err := h.Repo.Count(r.Context(), f)
	if err != nil {
		respondError(w, r, err)
		return
	}
	if entries == nil {
		entries = []models.AuditEntry{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"entries": entries, "total": total})
}
