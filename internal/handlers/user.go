package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/crucial707/remote-inspect/internal/middleware"
	"github.com/crucial707/remote-inspect/internal/models"
	"github.com/crucial707/remote-inspect/internal/repo"
)

// ==========================
// UserHandler (admin only)
// ==========================
type UserHandler struct {
	Repo      *repo.UserRepo
	AuditRepo Auditor
}

// ==========================
// List Users
// ==========================
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	limit, offset := pageParams(r, 50, 200)

	users, err := h.Repo.List(r.Context(), limit, offset)
	if err != nil {
		respondError(w, r, err)
		return
	}
	total, err := h.Repo.Count(r.Context())
	if err != nil {
		respondError(w, r, err)
		return
	}
	if users == nil {
		users = []models.User{}
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"users": users, "total": total})
}

// ==========================
// Create User (role defaults to inspector)
// ==========================
func (h *UserHandler) CreateUser(w http.ResponseWriter, r *http.Request) {
	var input struct {
		credentials
		Role string `json:"role"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	input.Username = strings.TrimSpace(input.Username)
	fields := validateCredentials(input.credentials)
	role := input.Role
	if role == "" {
		role = models.RoleInspector
	}
	if !models.ValidRole(role) {
		fields["role"] = "must be admin or inspector"
	}
	if len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	user, err := h.Repo.Create(r.Context(), input.Username, input.Password, strings.TrimSpace(input.Email), strings.TrimSpace(input.FullName), role)
	if err != nil {
		if errors.Is(err, repo.ErrUsernameTaken) {
			JSONError(w, err.Error(), http.StatusConflict)
			return
		}
		respondError(w, r, err)
		return
	}
	audit(r.Context(), h.AuditRepo, middleware.GetUserID(r.Context()), "create", models.AuditResourceUser, user.ID, "role="+role)
	writeJSON(w, http.StatusCreated, map[string]interface{}{"message": "user created", "user": user})
}

// ==========================
// Activate / Deactivate User
// ==========================
func (h *UserHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(w, r)
	if !ok {
		return
	}
	var input struct {
		IsActive *bool `json:"is_active"`
	}
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid JSON", http.StatusBadRequest)
		return
	}
	if input.IsActive == nil {
		JSONValidationError(w, "validation failed", map[string]string{"is_active": "required"}, http.StatusBadRequest)
		return
	}
	callerID := middleware.GetUserID(r.Context())
	if id == callerID && !*input.IsActive {
		JSONError(w, "cannot deactivate your own account", http.StatusConflict)
		return
	}

	user, err := h.Repo.SetActive(r.Context(), id, *input.IsActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			JSONError(w, fmt.Sprintf("user %d not found", id), http.StatusNotFound)
			return
		}
		respondError(w, r, err)
		return
	}
	audit(r.Context(), h.AuditRepo, callerID, "update", models.AuditResourceUser, user.ID, fmt.Sprintf("is_active=%t", user.IsActive))
	writeJSON(w, http.StatusOK, map[string]interface{}{"message": "user updated", "user": user})
}
