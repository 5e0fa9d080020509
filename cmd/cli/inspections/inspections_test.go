package inspections

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/crucial707/remote-inspect/cmd/cli/api"
	"github.com/crucial707/remote-inspect/internal/inspection"
	"github.com/crucial707/remote-inspect/internal/models"
)

func serve(t *testing.T, h http.HandlerFunc) {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	home := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("INSPECT_API_URL", srv.URL)
	if err := os.WriteFile(filepath.Join(home, ".inspect_token"), []byte("tok"), 0o600); err != nil {
		t.Fatal(err)
	}
}

func sampleInspection() models.Inspection {
	return models.Inspection{
		ID:             7,
		InternalNumber: "INS-20261015-000007",
		Status:         models.StatusUnderReview,
		PropertyType:   models.PropertyVehicle,
		Address:        "Samara, Lenina 3",
		InspectorName:  "Oleg",
		CreatedAt:      time.Date(2026, 10, 15, 8, 0, 0, 0, time.UTC),
	}
}

func TestList_PassesFilters(t *testing.T) {
	var query map[string][]string
	serve(t, func(w http.ResponseWriter, r *http.Request) {
		query = r.URL.Query()
		_ = json.NewEncoder(w).Encode(inspection.Page{
			Inspections: []models.Inspection{sampleInspection()},
			Pagination:  inspection.Pagination{Page: 1, Limit: 20, Total: 1, Pages: 1},
		})
	})

	cmd := listCmd()
	_ = cmd.Flags().Set("status", "UnderReview")
	_ = cmd.Flags().Set("from", "2026-10-01")
	var out bytes.Buffer
	cmd.SetOut(&out)
	if err := cmd.RunE(cmd, nil); err != nil {
		t.Fatalf("RunE: %v", err)
	}

	if query["status"][0] != "UnderReview" || query["dateFrom"][0] != "2026-10-01" {
		t.Errorf("query: %v", query)
	}
	if _, ok := query["address"]; ok {
		t.Error("empty filters must not be sent")
	}
	if !strings.Contains(out.String(), "INS-20261015-000007") || !strings.Contains(out.String(), "page 1 of 1") {
		t.Errorf("output: %s", out.String())
	}
}

func TestShow_PrintsDetail(t *testing.T) {
	serve(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/inspections/7" {
			t.Errorf("path: %s", r.URL.Path)
		}
		_ = json.NewEncoder(w).Encode(inspection.Detail{
			Inspection: sampleInspection(),
			Objects: []models.InspectionObject{{ID: 1, Name: "Kia Rio",
				Vehicle: &models.VehicleAttrs{Make: "Kia", Model: "Rio", Plate: "X001XX63"}}},
			StatusHistory: []models.StatusHistoryEntry{{NewStatus: models.StatusInProgress, Comment: "created"}},
		})
	})

	cmd := showCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	if err := cmd.RunE(cmd, []string{"7"}); err != nil {
		t.Fatalf("RunE: %v", err)
	}
	for _, want := range []string{"Samara, Lenina 3", "X001XX63", "Ready, Revision, Cancelled", "created"} {
		if !strings.Contains(out.String(), want) {
			t.Errorf("output missing %q:\n%s", want, out.String())
		}
	}
}

func TestStatus_SendsTransition(t *testing.T) {
	var body map[string]string
	serve(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "PATCH" || r.URL.Path != "/inspections/7/status" {
			t.Errorf("request: %s %s", r.Method, r.URL.Path)
		}
		_ = json.NewDecoder(r.Body).Decode(&body)
		ins := sampleInspection()
		ins.Status = models.StatusRevision
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"message": "status updated to Revision", "inspection": ins})
	})

	cmd := statusCmd()
	_ = cmd.Flags().Set("comment", "blurry photos")
	var out bytes.Buffer
	cmd.SetOut(&out)
	if err := cmd.RunE(cmd, []string{"7", "Revision"}); err != nil {
		t.Fatalf("RunE: %v", err)
	}
	if body["status"] != "Revision" || body["comment"] != "blurry photos" {
		t.Errorf("body: %v", body)
	}
	if !strings.Contains(out.String(), "status updated to Revision") {
		t.Errorf("output: %s", out.String())
	}
}

func TestStatus_RejectsUnknownStatusLocally(t *testing.T) {
	serve(t, func(w http.ResponseWriter, r *http.Request) {
		t.Error("no request expected")
	})
	cmd := statusCmd()
	if err := cmd.RunE(cmd, []string{"7", "Done"}); err == nil {
		t.Fatal("expected error")
	}
}

func TestStatus_SurfacesConflict(t *testing.T) {
	serve(t, func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusConflict)
		_, _ = w.Write([]byte(`{"error":"cannot change status from Ready to InProgress"}`))
	})
	cmd := statusCmd()
	err := cmd.RunE(cmd, []string{"7", "InProgress"})
	var apiErr *api.Error
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusConflict {
		t.Fatalf("expected 409 api error, got %v", err)
	}
	if !strings.Contains(err.Error(), "cannot change status") {
		t.Errorf("message: %v", err)
	}
}

func TestDuplicate(t *testing.T) {
	serve(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != "POST" || r.URL.Path != "/inspections/7/duplicate" {
			t.Errorf("request: %s %s", r.Method, r.URL.Path)
		}
		ins := sampleInspection()
		ins.ID, ins.InternalNumber = 8, "INS-20261015-000008"
		w.WriteHeader(http.StatusCreated)
		_ = json.NewEncoder(w).Encode(map[string]interface{}{"inspection": ins})
	})
	cmd := duplicateCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	if err := cmd.RunE(cmd, []string{"7"}); err != nil {
		t.Fatalf("RunE: %v", err)
	}
	if !strings.Contains(out.String(), "INS-20261015-000008 (id 8)") {
		t.Errorf("output: %s", out.String())
	}
}
