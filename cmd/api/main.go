package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/crucial707/remote-inspect/internal/config"
	"github.com/crucial707/remote-inspect/internal/db"
	"github.com/crucial707/remote-inspect/internal/notify"
	"github.com/crucial707/remote-inspect/internal/photo"
	"github.com/crucial707/remote-inspect/internal/repo"
	"github.com/crucial707/remote-inspect/internal/scheduler"
	"github.com/crucial707/remote-inspect/internal/storage"
	"github.com/crucial707/remote-inspect/internal/telemetry"

	// storage backends register themselves
	_ "github.com/crucial707/remote-inspect/internal/storage/local"
	_ "github.com/crucial707/remote-inspect/internal/storage/s3"
)

func main() {
	// Load configuration
	cfg := config.Load()
	telemetry.SetupLogger(cfg.LogFormat, cfg.LogLevel)
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid configuration", "error", err)
		os.Exit(1)
	}

	// Connect to database FIRST
	database, err := db.Connect(
		cfg.DBHost,
		cfg.DBPort,
		cfg.DBName,
		cfg.DBUser,
		cfg.DBPass,
		db.Options{MaxOpenConns: cfg.DBMaxOpenConns, MaxIdleConns: cfg.DBMaxIdleConns},
	)
	if err != nil {
		slog.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer database.Close()
	slog.Info("connected to database", "host", cfg.DBHost, "name", cfg.DBName)

	if cfg.AutoMigrate {
		version, err := db.Migrate(cfg.DatabaseURL())
		if err != nil {
			slog.Error("migrations failed", "error", err)
			os.Exit(1)
		}
		slog.Info("schema up to date", "version", version)
	}

	blobs, err := storage.New(cfg.Storage)
	if err != nil {
		slog.Error("failed to initialise photo storage", "backend", cfg.Storage.Backend, "error", err)
		os.Exit(1)
	}
	slog.Info("photo storage ready", "backend", cfg.Storage.Backend)

	dispatcher := notify.NewDispatcher(cfg.Notify.Timeout, notifiers(cfg.Notify)...)

	sweeper := photo.NewService(repo.NewPhotoRepo(database), blobs, cfg.MaxPhotoBytes)
	jobs, err := scheduler.Start(scheduler.Job{
		Name:    "photo-orphan-sweep",
		Spec:    cfg.PhotoSweepCron,
		Timeout: 10 * time.Minute,
		Run: func(ctx context.Context) error {
			n, err := sweeper.SweepOrphans(ctx, cfg.PhotoSweepGrace)
			if n > 0 {
				slog.Info("orphaned photos removed", "count", n)
			}
			return err
		},
	})
	if err != nil {
		slog.Error("failed to start scheduler", "error", err)
		os.Exit(1)
	}

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           newRouter(database, cfg, blobs, dispatcher),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       2 * time.Minute,
		WriteTimeout:      2 * time.Minute,
		IdleTimeout:       2 * time.Minute,
	}

	// Start server LAST
	go func() {
		var err error
		if cfg.TLSCertFile != "" {
			slog.Info("starting server (TLS)", "port", cfg.Port)
			err = srv.ListenAndServeTLS(cfg.TLSCertFile, cfg.TLSKeyFile)
		} else {
			slog.Info("starting server", "port", cfg.Port)
			err = srv.ListenAndServe()
		}
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			slog.Error("server failed", "error", err)
			os.Exit(1)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	slog.Info("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		slog.Error("server shutdown", "error", err)
	}
	<-jobs.Stop().Done()
	if err := dispatcher.Wait(ctx); err != nil {
		slog.Warn("pending notifications dropped", "error", err)
	}
	slog.Info("stopped")
}

// notifiers builds the configured channels, falling back to the log.
func notifiers(cfg config.NotifyConfig) []notify.Notifier {
	var out []notify.Notifier
	if cfg.SMTPHost != "" {
		email, err := notify.NewEmailNotifier(notify.SMTPConfig{
			Host:          cfg.SMTPHost,
			Port:          cfg.SMTPPort,
			User:          cfg.SMTPUser,
			Pass:          cfg.SMTPPass,
			From:          cfg.SMTPFrom,
			SkipTLSVerify: cfg.SkipTLSVerify,
		})
		if err != nil {
			slog.Warn("email notifications disabled", "error", err)
		} else {
			out = append(out, email)
		}
	}
	if cfg.SMSGatewayURL != "" {
		out = append(out, &notify.SMSNotifier{
			URL:    cfg.SMSGatewayURL,
			Token:  cfg.SMSGatewayToken,
			Client: &http.Client{Timeout: cfg.Timeout},
		})
	}
	if len(out) == 0 {
		out = append(out, notify.LogNotifier{})
	}
	return out
}
