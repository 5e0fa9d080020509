package middleware

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"net/http"

	"github.com/crucial707/remote-inspect/internal/models"
)

// UserLookup loads the stored state of an account.
type UserLookup interface {
	GetByID(ctx context.Context, id int) (*models.User, error)
}

// RequireActive reloads the caller's account on every request. A disabled or
// deleted account is rejected even while its token is unexpired, and the stored
// role replaces the one in the token. Use after JWTMiddleware.
func RequireActive(users UserLookup) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := GetUserID(r.Context())
			u, err := users.GetByID(r.Context(), id)
			switch {
			case errors.Is(err, sql.ErrNoRows):
				writeError(w, http.StatusUnauthorized, "account not found")
				return
			case err != nil:
				slog.Error("failed to load account", "user_id", id, "error", err)
				writeError(w, http.StatusInternalServerError, "internal server error")
				return
			case !u.IsActive:
				writeError(w, http.StatusForbidden, "account is disabled")
				return
			}

			ctx := context.WithValue(r.Context(), UsernameKey, u.Username)
			ctx = context.WithValue(ctx, RoleKey, u.Role)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
