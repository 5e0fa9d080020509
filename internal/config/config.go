package config

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

const defaultJWTSecret = "supersecretkey"

type Config struct {
	Port string

	DBHost string
	DBPort string
	DBName string
	DBUser string
	DBPass string

	// DBMaxOpenConns is the maximum number of open connections to the database (default 25).
	DBMaxOpenConns int
	// DBMaxIdleConns is the maximum number of idle connections (default 5).
	DBMaxIdleConns int

	// AutoMigrate applies embedded schema migrations on startup (default true).
	AutoMigrate bool

	JWTSecret string

	// Env is "dev" (default) or "prod". When "prod", JWT_SECRET must be set and not the default.
	Env string

	// JWTExpireHours is the token lifetime in hours (default 24). Set via JWT_EXPIRE_HOURS.
	JWTExpireHours int

	// TLSCertFile and TLSKeyFile enable HTTPS when both are set.
	TLSCertFile string
	TLSKeyFile  string

	// LogFormat is "text" (default) or "json"; LogLevel is debug|info|warn|error.
	LogFormat string
	LogLevel  string

	// CORSAllowedOrigins is set via CORS_ALLOWED_ORIGINS (comma-separated).
	// When empty, no CORS headers are sent (same-origin only).
	CORSAllowedOrigins []string

	// MaxObjectsPerInspection bounds the object list of a single inspection (default 150).
	MaxObjectsPerInspection int

	// MaxPhotoBytes is the largest accepted photo upload (default 20 MiB).
	MaxPhotoBytes int64

	Storage StorageConfig
	Notify  NotifyConfig

	// PhotoSweepCron schedules the orphaned photo cleanup (robfig/cron syntax, default "@hourly").
	// Empty disables the sweep.
	PhotoSweepCron string
	// PhotoSweepGrace is how old an unreferenced blob must be before the sweep removes it.
	PhotoSweepGrace time.Duration
}

// StorageConfig selects the photo blob backend.
type StorageConfig struct {
	// Backend is "local" (default) or "s3".
	Backend string

	LocalPath string

	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string
}

// NotifyConfig configures the best-effort notification channels.
type NotifyConfig struct {
	Timeout time.Duration

	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPass      string
	SMTPFrom      string
	SkipTLSVerify bool

	SMSGatewayURL   string
	SMSGatewayToken string
}

// Load reads configuration from the environment. A .env file in the working
// directory is applied first when present; real environment variables win.
func Load() Config {
	_ = godotenv.Load()

	return Config{
		Port: getEnv("PORT", "8080"),

		DBHost: getEnv("DB_HOST", "localhost"),
		DBPort: getEnv("DB_PORT", "5432"),
		DBName: getEnv("DB_NAME", "inspectdb"),
		DBUser: getEnv("DB_USER", "inspect"),
		DBPass: getEnv("DB_PASS", "inspect"),

		DBMaxOpenConns: getEnvInt("DB_MAX_OPEN_CONNS", 25),
		DBMaxIdleConns: getEnvInt("DB_MAX_IDLE_CONNS", 5),
		AutoMigrate:    getEnvBool("AUTO_MIGRATE", true),

		JWTSecret:      getEnv("JWT_SECRET", defaultJWTSecret),
		Env:            getEnv("ENV", "dev"),
		JWTExpireHours: getEnvInt("JWT_EXPIRE_HOURS", 24),

		TLSCertFile: getEnv("TLS_CERT_FILE", ""),
		TLSKeyFile:  getEnv("TLS_KEY_FILE", ""),

		LogFormat: getEnv("LOG_FORMAT", "text"),
		LogLevel:  getEnv("LOG_LEVEL", "info"),

		CORSAllowedOrigins: parseCORSOrigins(getEnv("CORS_ALLOWED_ORIGINS", "")),

		MaxObjectsPerInspection: getEnvInt("MAX_OBJECTS_PER_INSPECTION", 150),
		MaxPhotoBytes:           int64(getEnvInt("MAX_PHOTO_BYTES", 20<<20)),

		Storage: StorageConfig{
			Backend:           getEnv("STORAGE_BACKEND", "local"),
			LocalPath:         getEnv("STORAGE_LOCAL_PATH", "./data/photos"),
			S3Bucket:          getEnv("S3_BUCKET", ""),
			S3Region:          getEnv("S3_REGION", ""),
			S3Endpoint:        getEnv("S3_ENDPOINT", ""),
			S3AccessKeyID:     getEnv("S3_ACCESS_KEY_ID", ""),
			S3SecretAccessKey: getEnv("S3_SECRET_ACCESS_KEY", ""),
		},

		Notify: NotifyConfig{
			Timeout:         time.Duration(getEnvInt("NOTIFY_TIMEOUT_SECONDS", 5)) * time.Second,
			SMTPHost:        getEnv("SMTP_HOST", ""),
			SMTPPort:        getEnvInt("SMTP_PORT", 587),
			SMTPUser:        getEnv("SMTP_USER", ""),
			SMTPPass:        getEnv("SMTP_PASS", ""),
			SMTPFrom:        getEnv("SMTP_FROM", ""),
			SkipTLSVerify:   getEnvBool("SMTP_SKIP_TLS_VERIFY", false),
			SMSGatewayURL:   getEnv("SMS_GATEWAY_URL", ""),
			SMSGatewayToken: getEnv("SMS_GATEWAY_TOKEN", ""),
		},

		PhotoSweepCron:  getEnv("PHOTO_SWEEP_CRON", "@hourly"),
		PhotoSweepGrace: time.Duration(getEnvInt("PHOTO_SWEEP_GRACE_MINUTES", 60)) * time.Minute,
	}
}

// Validate rejects configurations that are unsafe to run with.
func (c Config) Validate() error {
	if c.Env == "prod" && (c.JWTSecret == "" || c.JWTSecret == defaultJWTSecret) {
		return errors.New("JWT_SECRET must be set to a non-default value when ENV=prod")
	}
	if (c.TLSCertFile == "") != (c.TLSKeyFile == "") {
		return errors.New("TLS_CERT_FILE and TLS_KEY_FILE must be set together")
	}
	if c.Storage.Backend == "s3" && (c.Storage.S3Bucket == "" || c.Storage.S3Region == "") {
		return errors.New("S3_BUCKET and S3_REGION are required when STORAGE_BACKEND=s3")
	}
	return nil
}

// DatabaseURL returns the postgres URL form used by golang-migrate.
func (c Config) DatabaseURL() string {
	return "postgres://" + c.DBUser + ":" + c.DBPass + "@" + c.DBHost + ":" + c.DBPort + "/" + c.DBName + "?sslmode=disable"
}

// parseCORSOrigins splits a comma-separated list of origins and trims spaces. Empty strings are omitted.
func parseCORSOrigins(s string) []string {
	if s == "" {
		return nil
	}
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if o := strings.TrimSpace(p); o != "" {
			out = append(out, o)
		}
	}
	return out
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			return n
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if v := os.Getenv(key); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			return b
		}
	}
	return fallback
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
