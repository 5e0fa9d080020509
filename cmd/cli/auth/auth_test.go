package auth

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLogin_StoresToken(t *testing.T) {
	var got map[string]string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/auth/login" {
			t.Errorf("path: %s", r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{
			"token": "jwt-abc",
			"user":  map[string]string{"username": "anna", "role": "inspector"},
		})
	}))
	defer srv.Close()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("INSPECT_API_URL", srv.URL)

	cmd := loginCmd()
	_ = cmd.Flags().Set("username", "anna")
	cmd.SetIn(strings.NewReader("s3cret-pass\n"))
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("RunE: %v", err)
	}

	if got["password"] != "s3cret-pass" {
		t.Errorf("password sent: %q", got["password"])
	}
	data, err := os.ReadFile(filepath.Join(home, ".inspect_token"))
	if err != nil || string(data) != "jwt-abc" {
		t.Errorf("token file: %q, %v", data, err)
	}
	if !strings.Contains(out.String(), "anna (inspector)") {
		t.Errorf("output: %s", out.String())
	}

	logout := logoutCmd()
	logout.SetOut(&out)
	if err := logout.RunE(logout, nil); err != nil {
		t.Fatalf("logout: %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, ".inspect_token")); !os.IsNotExist(err) {
		t.Error("token file should be removed")
	}
}

func TestLogin_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"error":"invalid credentials"}`))
	}))
	defer srv.Close()
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("INSPECT_API_URL", srv.URL)

	cmd := loginCmd()
	_ = cmd.Flags().Set("username", "anna")
	_ = cmd.Flags().Set("password", "nope")
	err := cmd.RunE(cmd, nil)
	if err == nil || !strings.Contains(err.Error(), "invalid credentials") {
		t.Fatalf("expected invalid credentials, got %v", err)
	}
	if _, err := os.Stat(filepath.Join(home, ".inspect_token")); !os.IsNotExist(err) {
		t.Error("no token should be stored")
	}
}

func TestLogin_RequiresUsername(t *testing.T) {
	cmd := loginCmd()
	if err := cmd.RunE(cmd, nil); err == nil {
		t.Fatal("expected error")
	}
}
