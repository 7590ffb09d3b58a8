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

var frameworkCols = []string{
	"id", "organization_id", "name", "version", "description", "created_at", "updated_at",
}

var controlCols = []string{
	"id", "organization_id", "framework_id", "code", "name", "description",
	"status", "owner", "created_at", "updated_at",
}

func newFrameworkRouter(t *testing.T) (sqlmock.Sqlmock, *gin.Engine) {
	t.Helper()
	mock, db := newMockDB(t)

	h := NewFrameworkHandlers(repositories.NewFrameworkRepository(db), newTestEmitter(t))

	r := gin.New()
	r.GET("/frameworks", h.ListFrameworksHandler())
	r.GET("/frameworks/:id/domains", h.ListFrameworkDomainsHandler())
	r.GET("/frameworks/:id/requirements", h.ListFrameworkRequirementsHandler())
	r.GET("/controls", h.ListControlsHandler())

	authed := r.Group("/", authAs(testOrgID, testUserID))
	authed.POST("/frameworks", h.CreateFrameworkHandler())

	return mock, r
}

func TestListFrameworksHandler(t *testing.T) {
	mock, r := newFrameworkRouter(t)
	now := time.Now()

	mock.ExpectQuery("SELECT.*FROM frameworks.*WHERE organization_id").
		WithArgs(testOrgID).
		WillReturnRows(sqlmock.NewRows(frameworkCols).
			AddRow(uuid.New(), testOrgID, "SOC 2", nil, nil, now, now))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/frameworks?org_id="+testOrgID.String(), nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	data, ok := getJSON(w)["data"].([]interface{})
	if !ok || len(data) != 1 {
		t.Errorf("expected 1 framework, got %v", w.Body.String())
	}
}

func TestCreateFrameworkHandler(t *testing.T) {
	mock, r := newFrameworkRouter(t)

	mock.ExpectExec("INSERT INTO frameworks").
		WillReturnResult(sqlmock.NewResult(0, 1))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/frameworks", jsonBody(map[string]interface{}{
		"name":    "ISO 27001",
		"version": "2022",
	}))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}
	data := getJSON(w)["data"].(map[string]interface{})
	if data["name"] != "ISO 27001" {
		t.Errorf("expected name ISO 27001, got %v", data["name"])
	}
}

func TestListFrameworkDomainsHandler(t *testing.T) {
	mock, r := newFrameworkRouter(t)
	frameworkID := uuid.New()
	now := time.Now()

	mock.ExpectQuery("SELECT.*FROM framework_domains").
		WithArgs(frameworkID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "framework_id", "name", "sort_order", "created_at"}).
			AddRow(uuid.New(), frameworkID, "Access Control", 1, now).
			AddRow(uuid.New(), frameworkID, "Change Management", 2, now))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/frameworks/"+frameworkID.String()+"/domains?org_id="+testOrgID.String(), nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	data, ok := getJSON(w)["data"].([]interface{})
	if !ok || len(data) != 2 {
		t.Errorf("expected 2 domains, got %v", w.Body.String())
	}
}

func TestListControlsHandlerFrameworkFilter(t *testing.T) {
	mock, r := newFrameworkRouter(t)
	frameworkID := uuid.New()
	now := time.Now()

	mock.ExpectQuery("SELECT.*FROM controls.*WHERE organization_id").
		WithArgs(testOrgID, frameworkID).
		WillReturnRows(sqlmock.NewRows(controlCols).
			AddRow(uuid.New(), testOrgID, &frameworkID, "AC-1", "Access control policy",
				nil, "implemented", nil, now, now))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET",
		"/controls?org_id="+testOrgID.String()+"&framework_id="+frameworkID.String(), nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	data, ok := getJSON(w)["data"].([]interface{})
	if !ok || len(data) != 1 {
		t.Errorf("expected 1 control, got %v", w.Body.String())
	}
}

func TestListControlsHandlerInvalidFrameworkID(t *testing.T) {
	_, r := newFrameworkRouter(t)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/controls?org_id="+testOrgID.String()+"&framework_id=nope", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Errorf("expected status 400, got %d", w.Code)
	}
	if getJSON(w)["error"] != "framework_id must be a valid UUID" {
		t.Errorf("unexpected error: %v", getJSON(w)["error"])
	}
}
