package config

import (
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	t.Setenv("MAX_OBJECTS_PER_INSPECTION", "")
	t.Setenv("STORAGE_BACKEND", "")

	cfg := Load()
	if cfg.MaxObjectsPerInspection != 150 {
		t.Errorf("MaxObjectsPerInspection: got %d, want 150", cfg.MaxObjectsPerInspection)
	}
	if cfg.Storage.Backend != "local" {
		t.Errorf("Storage.Backend: got %q, want local", cfg.Storage.Backend)
	}
	if cfg.Notify.Timeout.Seconds() != 5 {
		t.Errorf("Notify.Timeout: got %v, want 5s", cfg.Notify.Timeout)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("MAX_OBJECTS_PER_INSPECTION", "10")
	t.Setenv("CORS_ALLOWED_ORIGINS", " https://a.example , ,http://localhost:3000")
	t.Setenv("AUTO_MIGRATE", "false")

	cfg := Load()
	if cfg.MaxObjectsPerInspection != 10 {
		t.Errorf("MaxObjectsPerInspection: got %d, want 10", cfg.MaxObjectsPerInspection)
	}
	if len(cfg.CORSAllowedOrigins) != 2 || cfg.CORSAllowedOrigins[0] != "https://a.example" {
		t.Errorf("CORSAllowedOrigins: got %v", cfg.CORSAllowedOrigins)
	}
	if cfg.AutoMigrate {
		t.Error("AutoMigrate: expected false")
	}
}

func TestValidate(t *testing.T) {
	cases := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"dev default secret", Config{Env: "dev", JWTSecret: defaultJWTSecret}, false},
		{"prod default secret", Config{Env: "prod", JWTSecret: defaultJWTSecret}, true},
		{"prod real secret", Config{Env: "prod", JWTSecret: "s3cr3t"}, false},
		{"half tls", Config{TLSCertFile: "cert.pem"}, true},
		{"s3 without bucket", Config{Storage: StorageConfig{Backend: "s3", S3Region: "eu-west-1"}}, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if (err != nil) != tc.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tc.wantErr)
			}
		})
	}
}
