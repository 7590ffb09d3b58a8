package middleware

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/grcplatform/grc-backend/internal/auth"
	"github.com/grcplatform/grc-backend/internal/db/repositories"
)

var principalCols = []string{
	"id", "organization_id", "email", "name", "password_hash", "sso_subject",
	"created_at", "updated_at",
}

func newTestUserRepo(t *testing.T) (*repositories.UserRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return repositories.NewUserRepository(sqlx.NewDb(db, "postgres")), mock
}

func principalRow(userID, orgID uuid.UUID) *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows(principalCols).
		AddRow(userID, orgID, "user@example.com", "Test User", nil, nil, now, now)
}

// newRequireAuthRouter echoes the principal's organization_id back in a header
// so tests can verify the context was populated.
func newRequireAuthRouter(repo *repositories.UserRepository) *gin.Engine {
	r := gin.New()
	r.Use(RequireAuth(repo))
	r.GET("/", func(c *gin.Context) {
		if orgID, ok := c.Get("organization_id"); ok {
			c.Header("X-Test-Org-ID", orgID.(string))
		}
		c.Status(http.StatusOK)
	})
	return r
}

func newOptionalAuthRouter(repo *repositories.UserRepository) *gin.Engine {
	r := gin.New()
	r.Use(OptionalAuth(repo))
	r.GET("/", func(c *gin.Context) {
		if orgID, ok := c.Get("organization_id"); ok {
			c.Header("X-Test-Org-ID", orgID.(string))
		}
		c.Status(http.StatusOK)
	})
	return r
}

func doAuthRequest(r *gin.Engine, authHeader string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	r.ServeHTTP(w, req)
	return w
}

func generateTestJWT(t *testing.T, userID, orgID uuid.UUID) string {
	t.Helper()
	token, err := auth.GenerateJWT(userID.String(), orgID.String(), "user@example.com", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	return token
}

// ---------------------------------------------------------------------------
// RequireAuth — early-exit paths (no repository calls needed, nil repo safe)
// ---------------------------------------------------------------------------

func TestRequireAuth_MissingHeader(t *testing.T) {
	w := doAuthRequest(newRequireAuthRouter(nil), "")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRequireAuth_NonBearerPrefix(t *testing.T) {
	w := doAuthRequest(newRequireAuthRouter(nil), "Basic dXNlcjpwYXNz")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRequireAuth_EmptyToken(t *testing.T) {
	// "Bearer " with only whitespace → trimmed to empty → 401
	w := doAuthRequest(newRequireAuthRouter(nil), "Bearer   ")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRequireAuth_GarbageToken(t *testing.T) {
	w := doAuthRequest(newRequireAuthRouter(nil), "Bearer not.a.jwt")
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

func TestRequireAuth_NonUUIDSubject(t *testing.T) {
	// Valid signature but the user ID claim is not a UUID → rejected before any
	// repository call.
	token, err := auth.GenerateJWT("not-a-uuid", uuid.New().String(), "user@example.com", time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT: %v", err)
	}
	w := doAuthRequest(newRequireAuthRouter(nil), "Bearer "+token)
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401", w.Code)
	}
}

// ---------------------------------------------------------------------------
// RequireAuth — principal loading
// ---------------------------------------------------------------------------

func TestRequireAuth_ValidUser(t *testing.T) {
	repo, mock := newTestUserRepo(t)
	userID := uuid.New()
	orgID := uuid.New()

	mock.ExpectQuery("SELECT.*FROM users WHERE id").
		WithArgs(userID).
		WillReturnRows(principalRow(userID, orgID))

	w := doAuthRequest(newRequireAuthRouter(repo), "Bearer "+generateTestJWT(t, userID, orgID))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	if got := w.Header().Get("X-Test-Org-ID"); got != orgID.String() {
		t.Errorf("organization_id in context = %q, want %q", got, orgID)
	}
}

func TestRequireAuth_UserNotFound(t *testing.T) {
	repo, mock := newTestUserRepo(t)
	userID := uuid.New()

	mock.ExpectQuery("SELECT.*FROM users WHERE id").
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(principalCols))

	w := doAuthRequest(newRequireAuthRouter(repo), "Bearer "+generateTestJWT(t, userID, uuid.New()))
	if w.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want 401: user not found", w.Code)
	}
}

func TestRequireAuth_DBError(t *testing.T) {
	repo, mock := newTestUserRepo(t)
	userID := uuid.New()

	mock.ExpectQuery("SELECT.*FROM users WHERE id").
		WillReturnError(errors.New("db error"))

	w := doAuthRequest(newRequireAuthRouter(repo), "Bearer "+generateTestJWT(t, userID, uuid.New()))
	if w.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500: DB error loading user", w.Code)
	}
}

// ---------------------------------------------------------------------------
// OptionalAuth — never aborts
// ---------------------------------------------------------------------------

func TestOptionalAuth_MissingHeader(t *testing.T) {
	w := doAuthRequest(newOptionalAuthRouter(nil), "")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 (optional auth passes through)", w.Code)
	}
	if w.Header().Get("X-Test-Org-ID") != "" {
		t.Error("no principal should be set without a token")
	}
}

func TestOptionalAuth_GarbageToken(t *testing.T) {
	w := doAuthRequest(newOptionalAuthRouter(nil), "Bearer not.a.jwt")
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 (optional auth passes through)", w.Code)
	}
}

func TestOptionalAuth_ValidToken_SetsPrincipal(t *testing.T) {
	repo, mock := newTestUserRepo(t)
	userID := uuid.New()
	orgID := uuid.New()

	mock.ExpectQuery("SELECT.*FROM users WHERE id").
		WithArgs(userID).
		WillReturnRows(principalRow(userID, orgID))

	w := doAuthRequest(newOptionalAuthRouter(repo), "Bearer "+generateTestJWT(t, userID, orgID))
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	if got := w.Header().Get("X-Test-Org-ID"); got != orgID.String() {
		t.Errorf("organization_id in context = %q, want %q", got, orgID)
	}
}

func TestOptionalAuth_UserNotFound_PassesThrough(t *testing.T) {
	repo, mock := newTestUserRepo(t)
	userID := uuid.New()

	mock.ExpectQuery("SELECT.*FROM users WHERE id").
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(principalCols))

	w := doAuthRequest(newOptionalAuthRouter(repo), "Bearer "+generateTestJWT(t, userID, uuid.New()))
	if w.Code != http.StatusOK {
		t.Errorf("status = %d, want 200 (user not found should not abort)", w.Code)
	}
	if w.Header().Get("X-Test-Org-ID") != "" {
		t.Error("no principal should be set when the user does not exist")
	}
}
