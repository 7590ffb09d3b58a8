package repositories

import (
	"context"
	"testing"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
)

// The derived-count queries feed the list views for other tenants' eyes, so
// they must carry the organization predicate like every other read here.

func TestAuditCountFindings_ScopedToOrganization(t *testing.T) {
	mock, db := newTestDB(t)
	repo := NewAuditRepository(db)
	orgID := uuid.New()
	auditID := uuid.New()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM audit_findings WHERE audit_id = \$1 AND organization_id = \$2`).
		WithArgs(auditID, orgID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	n, err := repo.CountFindings(context.Background(), orgID, auditID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 4 {
		t.Errorf("CountFindings = %d, want 4", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAuditCountFindings_DBError(t *testing.T) {
	mock, db := newTestDB(t)
	repo := NewAuditRepository(db)

	mock.ExpectQuery("SELECT COUNT.*FROM audit_findings").WillReturnError(errDB)

	if _, err := repo.CountFindings(context.Background(), uuid.New(), uuid.New()); err == nil {
		t.Error("expected error, got nil")
	}
}

func TestCloudCountResources_ScopedToOrganization(t *testing.T) {
	mock, db := newTestDB(t)
	repo := NewCloudRepository(db)
	orgID := uuid.New()
	accountID := uuid.New()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM cloud_resources WHERE account_id = \$1 AND organization_id = \$2`).
		WithArgs(accountID, orgID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(17))

	n, err := repo.CountResources(context.Background(), orgID, accountID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if n != 17 {
		t.Errorf("CountResources = %d, want 17", n)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}
