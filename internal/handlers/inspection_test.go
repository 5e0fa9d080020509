package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crucial707/remote-inspect/internal/inspection"
	"github.com/crucial707/remote-inspect/internal/models"
	"github.com/crucial707/remote-inspect/internal/testsupport"
)

var handlerNow = time.Date(2026, 10, 15, 9, 30, 0, 0, time.UTC)

func newInspectionHandler() (*InspectionHandler, *testsupport.MemStore) {
	store := testsupport.NewMemStore()
	svc := inspection.NewService(store, nil, inspection.WithClock(func() time.Time { return handlerNow }))
	return &InspectionHandler{Service: svc}, store
}

const vehicleBody = `{
	"property_type": "vehicle",
	"address": "Kazan, Baumana 10",
	"inspector_name": "Anna",
	"inspector_phone": "+79991112233",
	"inspector_email": "anna@example.com",
	"objects": [{"make": "Lada", "model": "Vesta", "plate": "a123bc116"}]
}`

func createVehicle(t *testing.T, h *InspectionHandler, body string) models.Inspection {
	t.Helper()
	rr := httptest.NewRecorder()
	h.CreateInspection(rr, requestWithChiURLParams("POST", "/inspections", []byte(body), nil))
	require.Equal(t, http.StatusCreated, rr.Code, rr.Body.String())
	var out struct {
		Inspection models.Inspection         `json:"inspection"`
		Objects    []models.InspectionObject `json:"objects"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	require.Len(t, out.Objects, 1)
	return out.Inspection
}

func TestInspectionHandler_CreateAndGet(t *testing.T) {
	h, _ := newInspectionHandler()
	ins := createVehicle(t, h, vehicleBody)
	assert.Equal(t, "INS-20261015-000001", ins.InternalNumber)
	assert.Equal(t, models.StatusInProgress, ins.Status)

	id := strconv.Itoa(ins.ID)
	rr := httptest.NewRecorder()
	h.GetInspection(rr, requestWithChiURLParams("GET", "/inspections/"+id, nil, map[string]string{"id": id}))
	require.Equal(t, http.StatusOK, rr.Code)

	var detail inspection.Detail
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&detail))
	assert.Equal(t, ins.ID, detail.Inspection.ID)
	assert.Len(t, detail.Objects, 1)
	assert.Len(t, detail.StatusHistory, 1)
	assert.NotNil(t, detail.Photos)
}

func TestInspectionHandler_CreateValidation(t *testing.T) {
	h, _ := newInspectionHandler()
	rr := httptest.NewRecorder()
	h.CreateInspection(rr, requestWithChiURLParams("POST", "/inspections", []byte(`{"property_type":"boat","objects":[]}`), nil))
	require.Equal(t, http.StatusBadRequest, rr.Code)

	var out struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	assert.Contains(t, out.Fields, "property_type")
	assert.Contains(t, out.Fields, "objects")
	assert.Contains(t, out.Fields, "address")

	rr = httptest.NewRecorder()
	h.CreateInspection(rr, requestWithChiURLParams("POST", "/inspections", []byte(`{`), nil))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestInspectionHandler_GetErrors(t *testing.T) {
	h, _ := newInspectionHandler()

	rr := httptest.NewRecorder()
	h.GetInspection(rr, requestWithChiURLParams("GET", "/inspections/42", nil, map[string]string{"id": "42"}))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	h.GetInspection(rr, requestWithChiURLParams("GET", "/inspections/x", nil, map[string]string{"id": "x"}))
	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestInspectionHandler_UpdateStatus(t *testing.T) {
	h, _ := newInspectionHandler()
	id := strconv.Itoa(createVehicle(t, h, vehicleBody).ID)
	params := map[string]string{"id": id}

	patch := func(body string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		h.UpdateStatus(rr, requestWithChiURLParams("PATCH", "/inspections/"+id+"/status", []byte(body), params))
		return rr
	}

	rr := patch(`{"status":"UnderReview"}`)
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	// revision needs a comment
	assert.Equal(t, http.StatusBadRequest, patch(`{"status":"Revision"}`).Code)
	assert.Equal(t, http.StatusOK, patch(`{"status":"Revision","comment":"retake plate photo"}`).Code)

	// Revision -> Ready is not in the table
	assert.Equal(t, http.StatusConflict, patch(`{"status":"Ready"}`).Code)
	assert.Equal(t, http.StatusBadRequest, patch(`{"status":"Shipped"}`).Code)
	assert.Equal(t, http.StatusBadRequest, patch(`{}`).Code)
}

func TestInspectionHandler_UpdateOnlyDraft(t *testing.T) {
	h, _ := newInspectionHandler()

	var draft map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(vehicleBody), &draft))
	draft["draft"] = true
	body, _ := json.Marshal(draft)
	ins := createVehicle(t, h, string(body))
	require.Equal(t, models.StatusCreated, ins.Status)

	id := strconv.Itoa(ins.ID)
	draft["address"] = "Kazan, Pushkina 5"
	body, _ = json.Marshal(draft)
	rr := httptest.NewRecorder()
	h.UpdateInspection(rr, requestWithChiURLParams("PUT", "/inspections/"+id, body, map[string]string{"id": id}))
	require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

	var out struct {
		Inspection models.Inspection `json:"inspection"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	assert.Equal(t, "Kazan, Pushkina 5", out.Inspection.Address)

	dispatched := strconv.Itoa(createVehicle(t, h, vehicleBody).ID)
	rr = httptest.NewRecorder()
	h.UpdateInspection(rr, requestWithChiURLParams("PUT", "/inspections/"+dispatched, body, map[string]string{"id": dispatched}))
	assert.Equal(t, http.StatusConflict, rr.Code)
}

func TestInspectionHandler_Duplicate(t *testing.T) {
	h, _ := newInspectionHandler()
	src := createVehicle(t, h, vehicleBody)
	id := strconv.Itoa(src.ID)

	rr := httptest.NewRecorder()
	h.DuplicateInspection(rr, requestWithChiURLParams("POST", "/inspections/"+id+"/duplicate", nil, map[string]string{"id": id}))
	require.Equal(t, http.StatusCreated, rr.Code)

	var out struct {
		Inspection models.Inspection `json:"inspection"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	assert.NotEqual(t, src.ID, out.Inspection.ID)
	assert.NotEqual(t, src.InternalNumber, out.Inspection.InternalNumber)
	assert.Equal(t, src.Address, out.Inspection.Address)
}

func TestInspectionHandler_List(t *testing.T) {
	h, store := newInspectionHandler()
	for i := 0; i < 3; i++ {
		createVehicle(t, h, vehicleBody)
	}
	old := createVehicle(t, h, vehicleBody)
	store.SetCreatedAt(old.ID, handlerNow.AddDate(-1, 0, 0))

	rr := httptest.NewRecorder()
	h.ListInspections(rr, requestWithChiURLParams("GET", "/inspections?limit=2&page=1", nil, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var page inspection.Page
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&page))
	assert.Len(t, page.Inspections, 2)
	assert.Equal(t, 3, page.Pagination.Total)
	assert.Equal(t, 2, page.Pagination.Pages)

	rr = httptest.NewRecorder()
	h.ListInspections(rr, requestWithChiURLParams("GET", "/inspections?dateFrom=2025-01-01&dateTo=2026-10-15", nil, nil))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&page))
	assert.Equal(t, 4, page.Pagination.Total)
}

func TestInspectionHandler_ListBadQuery(t *testing.T) {
	h, _ := newInspectionHandler()
	for _, q := range []string{"dateFrom=yesterday", "status=Lost", "dateFrom=2026-10-10&dateTo=2026-10-01"} {
		rr := httptest.NewRecorder()
		h.ListInspections(rr, requestWithChiURLParams("GET", "/inspections?"+q, nil, nil))
		assert.Equal(t, http.StatusBadRequest, rr.Code, q)
	}
}

func TestInspectionHandler_Statuses(t *testing.T) {
	h, _ := newInspectionHandler()
	rr := httptest.NewRecorder()
	h.Statuses(rr, requestWithChiURLParams("GET", "/inspections/statuses", nil, nil))
	require.Equal(t, http.StatusOK, rr.Code)

	var out struct {
		Statuses []inspection.StatusInfo `json:"statuses"`
	}
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&out))
	assert.Len(t, out.Statuses, len(models.Statuses))
}

func TestInspectionHandler_InspectorScope(t *testing.T) {
	h, _ := newInspectionHandler()
	// created by user 1
	id := strconv.Itoa(createVehicle(t, h, vehicleBody).ID)
	params := map[string]string{"id": id}

	rr := httptest.NewRecorder()
	h.GetInspection(rr, as(requestWithChiURLParams("GET", "/inspections/"+id, nil, params), 2, models.RoleInspector))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	h.UpdateStatus(rr, as(requestWithChiURLParams("PATCH", "/inspections/"+id+"/status", []byte(`{"status":"Cancelled"}`), params), 2, models.RoleInspector))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	rr = httptest.NewRecorder()
	h.DuplicateInspection(rr, as(requestWithChiURLParams("POST", "/inspections/"+id+"/duplicate", nil, params), 2, models.RoleInspector))
	assert.Equal(t, http.StatusNotFound, rr.Code)

	var page inspection.Page
	rr = httptest.NewRecorder()
	h.ListInspections(rr, as(requestWithChiURLParams("GET", "/inspections", nil, nil), 2, models.RoleInspector))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&page))
	assert.Zero(t, page.Pagination.Total)

	rr = httptest.NewRecorder()
	h.ListInspections(rr, as(requestWithChiURLParams("GET", "/inspections", nil, nil), 1, models.RoleInspector))
	require.Equal(t, http.StatusOK, rr.Code)
	require.NoError(t, json.NewDecoder(rr.Body).Decode(&page))
	assert.Equal(t, 1, page.Pagination.Total)

	rr = httptest.NewRecorder()
	h.GetInspection(rr, as(requestWithChiURLParams("GET", "/inspections/"+id, nil, params), 1, models.RoleInspector))
	assert.Equal(t, http.StatusOK, rr.Code)
}
