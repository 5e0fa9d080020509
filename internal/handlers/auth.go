package handlers

import (
	"database/sql"
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/crucial707/remote-inspect/internal/middleware"
	"github.com/crucial707/remote-inspect/internal/models"
	"github.com/crucial707/remote-inspect/internal/repo"
)

// ==========================
// Auth Handler
// ==========================
type AuthHandler struct {
	UserRepo *repo.UserRepo
	Secret   []byte
	// TokenTTL defaults to 24h.
	TokenTTL time.Duration
}

type credentials struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
}

func (h *AuthHandler) issue(w http.ResponseWriter, status int, user *models.User) {
	ttl := h.TokenTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	token, err := middleware.IssueToken(h.Secret, user.ID, user.Username, user.Role, ttl)
	if err != nil {
		JSONError(w, "failed to issue token", http.StatusInternalServerError)
		return
	}
	writeJSON(w, status, map[string]interface{}{"token": token, "user": user})
}

func validateCredentials(c credentials) map[string]string {
	fields := make(map[string]string)
	if n := len(c.Username); n < 3 || n > 50 {
		fields["username"] = "must be 3 to 50 characters"
	}
	if len(c.Password) < 8 {
		fields["password"] = "must be at least 8 characters"
	}
	return fields
}

// ==========================
// Register (self-service inspector account)
// ==========================
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input credentials
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}
	input.Username = strings.TrimSpace(input.Username)
	if fields := validateCredentials(input); len(fields) > 0 {
		JSONValidationError(w, "validation failed", fields, http.StatusBadRequest)
		return
	}

	user, err := h.UserRepo.Create(r.Context(), input.Username, input.Password, strings.TrimSpace(input.Email), strings.TrimSpace(input.FullName), models.RoleInspector)
	if err != nil {
		if errors.Is(err, repo.ErrUsernameTaken) {
			JSONError(w, err.Error(), http.StatusConflict)
			return
		}
		respondError(w, r, err)
		return
	}
	h.issue(w, http.StatusCreated, user)
}

// ==========================
// Login
// ==========================
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input credentials
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		JSONError(w, "invalid json", http.StatusBadRequest)
		return
	}

	user, err := h.UserRepo.GetByUsername(r.Context(), strings.TrimSpace(input.Username))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			JSONError(w, "invalid credentials", http.StatusUnauthorized)
			return
		}
		respondError(w, r, err)
		return
	}
	if bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(input.Password)) != nil {
		JSONError(w, "invalid credentials", http.StatusUnauthorized)
		return
	}
	if !user.IsActive {
		JSONError(w, "account is disabled", http.StatusForbidden)
		return
	}
	h.issue(w, http.StatusOK, user)
}
