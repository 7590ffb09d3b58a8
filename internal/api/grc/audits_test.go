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

var auditCols = []string{
	"id", "organization_id", "name", "framework", "auditor", "status",
	"start_date", "end_date", "created_at", "updated_at",
}

var findingCols = []string{
	"id", "organization_id", "audit_id", "title", "description", "severity",
	"status", "remediation", "due_date", "created_at", "updated_at",
}

func auditRow(id uuid.UUID, name string) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(auditCols).
		AddRow(id, testOrgID, name, "SOC2", nil, "in_progress", nil, nil, now, now)
}

func newAuditRouter(t *testing.T) (sqlmock.Sqlmock, *gin.Engine) {
	t.Helper()
	mock, db := newMockDB(t)

	h := NewAuditHandlers(
		repositories.NewAuditRepository(db),
		repositories.NewFindingRepository(db),
		newTestEmitter(t),
	)

	r := gin.New()
	r.GET("/audits", h.ListAuditsHandler())
	r.GET("/audits/:id/findings", h.ListAuditFindingsHandler())
	r.GET("/audits/:id/readiness", h.ListReadinessHandler())

	authed := r.Group("/", authAs(testOrgID, testUserID))
	authed.POST("/audits", h.CreateAuditHandler())
	authed.POST("/audits/:id/findings", h.CreateAuditFindingHandler())
	authed.POST("/audits/:id/readiness", h.CreateReadinessItemHandler())

	return mock, r
}

func TestListAuditsHandlerFindingsCounts(t *testing.T) {
	mock, r := newAuditRouter(t)
	// count queries run concurrently, one per audit
	mock.MatchExpectationsInOrder(false)

	auditA := uuid.New()
	auditB := uuid.New()
	now := time.Now()
	rows := sqlmock.NewRows(auditCols).
		AddRow(auditA, testOrgID, "SOC 2 Type II", "SOC2", nil, "in_progress", nil, nil, now, now).
		AddRow(auditB, testOrgID, "ISO 27001", "ISO27001", nil, "planning", nil, nil, now, now)

	mock.ExpectQuery("SELECT.*FROM audits WHERE organization_id").
		WithArgs(testOrgID).
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT.*FROM audit_findings WHERE audit_id = .* AND organization_id").
		WithArgs(auditA, testOrgID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))
	mock.ExpectQuery("SELECT COUNT.*FROM audit_findings WHERE audit_id = .* AND organization_id").
		WithArgs(auditB, testOrgID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/audits?org_id="+testOrgID.String(), nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	data, ok := getJSON(w)["data"].([]interface{})
	if !ok || len(data) != 2 {
		t.Fatalf("expected 2 audits, got %v", w.Body.String())
	}
	first := data[0].(map[string]interface{})
	if first["findings_count"] != float64(3) {
		t.Errorf("expected findings_count 3, got %v", first["findings_count"])
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestListAuditsHandlerCountFailure(t *testing.T) {
	mock, r := newAuditRouter(t)
	mock.MatchExpectationsInOrder(false)

	auditA := uuid.New()
	mock.ExpectQuery("SELECT.*FROM audits WHERE organization_id").
		WithArgs(testOrgID).
		WillReturnRows(auditRow(auditA, "SOC 2 Type II"))
	mock.ExpectQuery("SELECT COUNT.*FROM audit_findings").
		WithArgs(auditA, testOrgID).
		WillReturnError(errDB)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/audits?org_id="+testOrgID.String(), nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected status 500, got %d", w.Code)
	}
}

func TestCreateAuditHandlerDefaultStatus(t *testing.T) {
	mock, r := newAuditRouter(t)

	mock.ExpectExec("INSERT INTO audits").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/audits", jsonBody(map[string]interface{}{
		"name":      "SOC 2 Type II 2026",
		"framework": "SOC2",
	}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	data := getJSON(w)["data"].(map[string]interface{})
	if data["status"] != "planning" {
		t.Errorf("expected default status planning, got %v", data["status"])
	}
}

func TestCreateAuditHandlerMissingName(t *testing.T) {
	mock, r := newAuditRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/audits", jsonBody(map[string]interface{}{
		"framework": "SOC2",
	}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("store should not be queried: %v", err)
	}
}

func TestListAuditFindingsHandler(t *testing.T) {
	mock, r := newAuditRouter(t)
	auditID := uuid.New()
	now := time.Now()

	mock.ExpectQuery("SELECT.*FROM audits WHERE id").
		WithArgs(auditID, testOrgID).
		WillReturnRows(auditRow(auditID, "SOC 2 Type II"))
	mock.ExpectQuery("SELECT.*FROM audit_findings").
		WillReturnRows(sqlmock.NewRows(findingCols).
			AddRow(uuid.New(), testOrgID, auditID, "MFA not enforced", nil, "high", "open", nil, nil, now, now))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/audits/"+auditID.String()+"/findings?org_id="+testOrgID.String(), nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	data, ok := getJSON(w)["data"].([]interface{})
	if !ok || len(data) != 1 {
		t.Errorf("expected 1 finding, got %v", w.Body.String())
	}
}

func TestListAuditFindingsHandlerAuditNotFound(t *testing.T) {
	mock, r := newAuditRouter(t)
	auditID := uuid.New()

	mock.ExpectQuery("SELECT.*FROM audits WHERE id").
		WithArgs(auditID, testOrgID).
		WillReturnRows(sqlmock.NewRows(auditCols))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/audits/"+auditID.String()+"/findings?org_id="+testOrgID.String(), nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Errorf("expected status 404, got %d", w.Code)
	}
	if getJSON(w)["error"] != "audit not found" {
		t.Errorf("unexpected error: %v", getJSON(w)["error"])
	}
}

func TestCreateAuditFindingHandler(t *testing.T) {
	mock, r := newAuditRouter(t)
	auditID := uuid.New()

	mock.ExpectQuery("SELECT.*FROM audits WHERE id").
		WithArgs(auditID, testOrgID).
		WillReturnRows(auditRow(auditID, "SOC 2 Type II"))
	mock.ExpectExec("INSERT INTO audit_findings").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/audits/"+auditID.String()+"/findings", jsonBody(map[string]interface{}{
		"title":    "MFA not enforced",
		"severity": "high",
	}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	data := getJSON(w)["data"].(map[string]interface{})
	if data["status"] != "open" {
		t.Errorf("expected default status open, got %v", data["status"])
	}
}

func TestCreateReadinessItemHandlerDefaults(t *testing.T) {
	mock, r := newAuditRouter(t)
	auditID := uuid.New()

	mock.ExpectQuery("SELECT.*FROM audits WHERE id").
		WithArgs(auditID, testOrgID).
		WillReturnRows(auditRow(auditID, "SOC 2 Type II"))
	mock.ExpectExec("INSERT INTO audit_readiness").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/audits/"+auditID.String()+"/readiness", jsonBody(map[string]interface{}{
		"item": "Evidence collection for access reviews",
	}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	data := getJSON(w)["data"].(map[string]interface{})
	if data["status"] != "not_started" {
		t.Errorf("expected default status not_started, got %v", data["status"])
	}
}
