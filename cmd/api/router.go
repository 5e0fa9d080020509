package main

import (
	"context"
	"database/sql"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crucial707/remote-inspect/internal/config"
	"github.com/crucial707/remote-inspect/internal/handlers"
	"github.com/crucial707/remote-inspect/internal/inspection"
	"github.com/crucial707/remote-inspect/internal/middleware"
	"github.com/crucial707/remote-inspect/internal/models"
	"github.com/crucial707/remote-inspect/internal/photo"
	"github.com/crucial707/remote-inspect/internal/repo"
	"github.com/crucial707/remote-inspect/internal/storage"
)

// newRouter wires repositories, services and handlers onto a chi router.
// A nil events sink drops lifecycle notifications.
func newRouter(database *sql.DB, cfg config.Config, blobs storage.Storage, events inspection.EventSink) http.Handler {
	secret := []byte(cfg.JWTSecret)

	userRepo := repo.NewUserRepo(database)
	auditRepo := repo.NewAuditRepo(database)
	inspectionRepo := repo.NewInspectionRepo(database)
	photoRepo := repo.NewPhotoRepo(database)

	inspections := inspection.NewService(inspectionRepo, events,
		inspection.WithMaxObjects(cfg.MaxObjectsPerInspection))
	photos := photo.NewService(photoRepo, blobs, cfg.MaxPhotoBytes)

	authHandler := &handlers.AuthHandler{
		UserRepo: userRepo,
		Secret:   secret,
		TokenTTL: time.Duration(cfg.JWTExpireHours) * time.Hour,
	}
	userHandler := &handlers.UserHandler{Repo: userRepo, AuditRepo: auditRepo}
	auditHandler := &handlers.AuditHandler{Repo: auditRepo}
	inspectionHandler := &handlers.InspectionHandler{Service: inspections}
	photoHandler := &handlers.PhotoHandler{Service: photos, AuditRepo: auditRepo}

	r := chi.NewRouter()
	r.Use(chimw.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestLog)
	r.Use(middleware.Prometheus)
	r.Use(middleware.SecurityHeaders(cfg.TLSCertFile != ""))
	r.Use(middleware.CORS(cfg.CORSAllowedOrigins))

	// ==========================
	// Health
	// ==========================
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain")
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		defer cancel()
		if err := database.PingContext(ctx); err != nil {
			handlers.JSONError(w, "database unavailable", http.StatusServiceUnavailable)
			return
		}
		_, _ = w.Write([]byte("ready"))
	})
	r.Handle("/metrics", promhttp.Handler())

	// ==========================
	// Auth (rate limited)
	// ==========================
	r.Route("/auth", func(r chi.Router) {
		r.Use(middleware.AuthRateLimiter().Middleware)
		r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))
		r.Post("/register", authHandler.Register)
		r.Post("/login", authHandler.Login)
	})

	// ==========================
	// Authenticated API
	// ==========================
	r.Group(func(r chi.Router) {
		r.Use(middleware.JWTMiddleware(secret))
		r.Use(middleware.RequireActive(userRepo))

		r.Group(func(r chi.Router) {
			r.Use(middleware.MaxBytes(middleware.DefaultMaxBodyBytes))

			r.Route("/inspections", func(r chi.Router) {
				r.Get("/", inspectionHandler.ListInspections)
				r.Post("/", inspectionHandler.CreateInspection)
				r.Get("/statuses", inspectionHandler.Statuses)
				r.Get("/{id}", inspectionHandler.GetInspection)
				r.Put("/{id}", inspectionHandler.UpdateInspection)
				r.Patch("/{id}/status", inspectionHandler.UpdateStatus)
				r.Post("/{id}/duplicate", inspectionHandler.DuplicateInspection)
			})

			r.Group(func(r chi.Router) {
				r.Use(middleware.RequireRole(models.RoleAdmin))
				r.Get("/users", userHandler.ListUsers)
				r.Post("/users", userHandler.CreateUser)
				r.Patch("/users/{id}/status", userHandler.SetStatus)
				r.Get("/audit", auditHandler.ListAudit)
			})
		})

		// the photo handler enforces its own, larger body limit
		r.Post("/upload/photo", photoHandler.UploadPhoto)
		r.Delete("/upload/photo/{id}", photoHandler.DeletePhoto)
	})

	return r
}
