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

func TestAuditHandler_ListAudit(t *testing.T) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	defer db.Close()

	mock.ExpectQuery(`FROM audit_log a`).
		WithArgs("photo", 10, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "username", "action", "resource_type", "resource_id", "details", "created_at"}).
			AddRow(3, 1, "admin", "delete", "photo", 9, "inspection=2", time.Now()))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM audit_log a`).
		WithArgs("photo").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	h := &AuditHandler{Repo: repo.NewAuditRepo(db)}
	rr := httptest.NewRecorder()
	h.ListAudit(rr, requestWithChiURLParams("GET", "/audit?resource_type=photo&limit=10", nil, nil))

	if rr.Code != http.StatusOK {
		t.Fatalf("status: got %d, want 200 (%s)", rr.Code, rr.Body.String())
	}
	var out struct {
		Entries []struct {
			Username string `json:"username"`
			Action   string `json:"action"`
		} `json:"entries"`
		Total int `json:"total"`
	}
	if err := json.NewDecoder(rr.Body).Decode(&out); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if out.Total != 1 || len(out.Entries) != 1 || out.Entries[0].Username != "admin" {
		t.Errorf("unexpected body: %+v", out)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("expectations: %v", err)
	}
}

func TestAuditHandler_BadFilters(t *testing.T) {
	h := &AuditHandler{}
	for _, q := range []string{"resource_type=inspection", "user_id=abc", "user_id=-1"} {
		rr := httptest.NewRecorder()
		h.ListAudit(rr, requestWithChiURLParams("GET", "/audit?"+q, nil, nil))
		if rr.Code != http.StatusBadRequest {
			t.Errorf("%s: got %d, want 400", q, rr.Code)
		}
	}
}
