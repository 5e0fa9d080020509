package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"

	"github.com/crucial707/remote-inspect/internal/repo"
)

func TestUserHandler_ListUsers(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	now := time.Now()
	mock.ExpectQuery(`SELECT id, username`).
		WithArgs(50, 0).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow(1, "admin", "", "", "h", "admin", true, now).
			AddRow(2, "ivan", "", "", "h", "inspector", true, now))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	h := &UserHandler{Repo: repo.NewUserRepo(db)}
	rr := httptest.NewRecorder()
	h.ListUsers(rr, requestWithChiURLParams("GET", "/users", nil, nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200", rr.Code)
	}
	var out struct {
		Users []map[string]interface{} `json:"users"`
		Total int                      `json:"total"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(out.Users) != 2 || out.Total != 2 {
		t.Errorf("got %d users total %d", len(out.Users), out.Total)
	}
	if _, leaked := out.Users[0]["password_hash"]; leaked {
		t.Error("password hash must not be serialized")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_CreateUser(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs("reviewer", sqlmock.AnyArg(), "", "", "admin").
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(7, "reviewer", "", "", "h", "admin", true, time.Now()))

	auditor := &recordingAuditor{}
	h := &UserHandler{Repo: repo.NewUserRepo(db), AuditRepo: auditor}
	body, _ := json.Marshal(map[string]string{"username": "reviewer", "password": "long-enough", "role": "admin"})
	rr := httptest.NewRecorder()
	h.CreateUser(rr, requestWithChiURLParams("POST", "/users", body, nil))

	if rr.Code != http.StatusCreated {
		t.Fatalf("status: got %d, want 201 (%s)", rr.Code, rr.Body.String())
	}
	if len(auditor.entries) != 1 || auditor.entries[0] != "create user" {
		t.Errorf("audit entries: %v", auditor.entries)
	}
}

func TestUserHandler_CreateUser_BadRole(t *testing.T) {
	h := &UserHandler{}
	body, _ := json.Marshal(map[string]string{"username": "someone", "password": "long-enough", "role": "root"})
	rr := httptest.NewRecorder()
	h.CreateUser(rr, requestWithChiURLParams("POST", "/users", body, nil))

	if rr.Code != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", rr.Code)
	}
}

func TestUserHandler_SetStatus(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`UPDATE users SET is_active`).
		WithArgs(false, 4).
		WillReturnRows(sqlmock.NewRows(userCols).AddRow(4, "ivan", "", "", "h", "inspector", false, time.Now()))

	auditor := &recordingAuditor{}
	h := &UserHandler{Repo: repo.NewUserRepo(db), AuditRepo: auditor}
	rr := httptest.NewRecorder()
	h.SetStatus(rr, requestWithChiURLParams("PATCH", "/users/4/status", []byte(`{"is_active":false}`), map[string]string{"id": "4"}))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", rr.Code, rr.Body.String())
	}
	if len(auditor.entries) != 1 {
		t.Errorf("audit entries: %v", auditor.entries)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestUserHandler_SetStatus_Rejections(t *testing.T) {
	cases := []struct {
		name string
		id   string
		body string
		want int
	}{
		{"self deactivation", "1", `{"is_active":false}`, http.StatusConflict},
		{"missing flag", "4", `{}`, http.StatusBadRequest},
		{"bad id", "abc", `{"is_active":true}`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			h := &UserHandler{}
			rr := httptest.NewRecorder()
			h.SetStatus(rr, requestWithChiURLParams("PATCH", "/users/"+tc.id+"/status", []byte(tc.body), map[string]string{"id": tc.id}))
			if rr.Code != tc.want {
				t.Errorf("status: got %d, want %d", rr.Code, tc.want)
			}
		})
	}
}

func TestUserHandler_SetStatus_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`UPDATE users SET is_active`).
		WithArgs(true, 99).
		WillReturnRows(sqlmock.NewRows(userCols))

	h := &UserHandler{Repo: repo.NewUserRepo(db)}
	rr := httptest.NewRecorder()
	h.SetStatus(rr, requestWithChiURLParams("PATCH", "/users/99/status", []byte(`{"is_active":true}`), map[string]string{"id": "99"}))

	if rr.Code != http.StatusNotFound {
		t.Errorf("status: got %d, want 404", rr.Code)
	}
}
