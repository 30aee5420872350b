package condition

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
)

func newTestServer(store *memStore) *echo.Echo {
	e := echo.New()
	svc, _ := newTestService(store, newLookupStub())
	NewHandler(svc).RegisterRoutes(e.Group("/api/v1"))
	return e
}

func TestListConditionsEndpoint(t *testing.T) {
	store := newMemStore()
	e := newTestServer(store)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/conditions", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var body struct {
		Success    bool        `json:"success"`
		Conditions []Condition `json:"conditions"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success {
		t.Fatal("success = false")
	}
}

func TestSaveEndpointRoundTrip(t *testing.T) {
	store := newMemStore()
	e := newTestServer(store)

	payload := `{
		"products": ["RinseX", "GelZ", "PasteQ"],
		"conditions": [{
			"name": "Gingivitis",
			"patientType": "Adult",
			"phases": ["Prep"],
			"patientSpecificConfig": {"Prep": {"Type A": ["RinseX"]}},
			"productDetails": {}
		}]
	}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/conditions/save", strings.NewReader(payload))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d body = %s", rec.Code, rec.Body.String())
	}
	if len(store.procedures) != 1 {
		t.Fatalf("procedures = %d", len(store.procedures))
	}
}

func TestDeleteEndpointRejectsBadID(t *testing.T) {
	e := newTestServer(newMemStore())

	req := httptest.NewRequest(http.MethodDelete, "/api/v1/conditions/abc", nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}

func TestSaveEndpointRejectsMalformedBody(t *testing.T) {
	e := newTestServer(newMemStore())

	req := httptest.NewRequest(http.MethodPost, "/api/v1/conditions/save", strings.NewReader("{not json"))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("status = %d", rec.Code)
	}
}
