package grc

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/grcplatform/grc-backend/internal/db/repositories"
)

var riskCols = []string{
	"id", "organization_id", "title", "description", "category", "severity",
	"likelihood", "status", "owner", "created_at", "updated_at",
}

var treatmentCols = []string{
	"id", "organization_id", "risk_id", "action", "treatment_type", "status",
	"owner", "due_date", "created_at", "updated_at",
}

func riskRow(id uuid.UUID, title string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(riskCols).
		AddRow(id, testOrgID, title, nil, nil, "medium", nil, "open", nil, now, now)
}

func newRiskRouter(t *testing.T) (sqlmock.Sqlmock, *gin.Engine) {
	t.Helper()
	mock, db := newMockDB(t)

	h := NewRiskHandlers(repositories.NewRiskRepository(db), newTestEmitter(t))

	r := gin.New()
	r.GET("/risks", h.ListRisksHandler())
	r.GET("/risks/:id/treatments", h.ListRiskTreatmentsHandler())

	authed := r.Group("/", authAs(testOrgID, testUserID))
	authed.POST("/risks", h.CreateRiskHandler())
	authed.POST("/risks/:id/treatments", h.CreateRiskTreatmentHandler())

	return mock, r
}

func TestListRisksHandler(t *testing.T) {
	mock, r := newRiskRouter(t)

	mock.ExpectQuery("SELECT.*FROM risks WHERE organization_id").
		WithArgs(testOrgID).
		WillReturnRows(riskRow(uuid.New(), "Third-party data breach"))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/risks?org_id="+testOrgID.String(), nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	data, ok := getJSON(w)["data"].([]interface{})
	if !ok || len(data) != 1 {
		t.Errorf("expected 1 risk, got %v", w.Body.String())
	}
}

func TestCreateRiskHandlerDefaults(t *testing.T) {
	mock, r := newRiskRouter(t)

	mock.ExpectExec("INSERT INTO risks").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/risks", jsonBody(map[string]interface{}{
		"title": "Third-party data breach",
	}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	data := getJSON(w)["data"].(map[string]interface{})
	if data["severity"] != "medium" {
		t.Errorf("expected default severity medium, got %v", data["severity"])
	}
	if data["status"] != "open" {
		t.Errorf("expected default status open, got %v", data["status"])
	}
}

func TestListRiskTreatmentsHandlerRiskNotFound(t *testing.T) {
	mock, r := newRiskRouter(t)
	riskID := uuid.New()

	mock.ExpectQuery("SELECT.*FROM risks WHERE id").
		WithArgs(riskID, testOrgID).
		WillReturnRows(sqlmock.NewRows(riskCols))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/risks/"+riskID.String()+"/treatments?org_id="+testOrgID.String(), nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
	if getJSON(w)["error"] != "risk not found" {
		t.Errorf("unexpected error: %v", getJSON(w)["error"])
	}
}

func TestCreateRiskTreatmentHandlerDefaults(t *testing.T) {
	mock, r := newRiskRouter(t)
	riskID := uuid.New()

	mock.ExpectQuery("SELECT.*FROM risks WHERE id").
		WithArgs(riskID, testOrgID).
		WillReturnRows(riskRow(riskID, "Third-party data breach"))
	mock.ExpectExec("INSERT INTO risk_treatments").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/risks/"+riskID.String()+"/treatments", jsonBody(map[string]interface{}{
		"action": "Require SOC 2 report from vendor",
	}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	data := getJSON(w)["data"].(map[string]interface{})
	if data["status"] != "planned" {
		t.Errorf("expected default status planned, got %v", data["status"])
	}
}
