package repositories

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"

	"github.com/grcplatform/grc-backend/internal/db/models"
)

var auditLogCols = []string{
	"id", "organization_id", "actor_id", "action", "resource_type",
	"resource_id", "changes", "ip_address", "created_at",
}

func sampleAuditLogRow(orgID uuid.UUID, action string, changes map[string]interface{}) *sqlmock.Rows {
	actorID := uuid.New()
	var changesJSON []byte
	if changes != nil {
		changesJSON, _ = json.Marshal(changes)
	}
	return sqlmock.NewRows(auditLogCols).
		AddRow(uuid.New(), orgID, &actorID, action, "asset",
			strPtr("payments-api"), changesJSON, strPtr("10.0.0.1"), time.Now())
}

func newAuditLogRepo(t *testing.T) (*AuditLogRepository, sqlmock.Sqlmock) {
	t.Helper()
	mock, db := newTestDB(t)
	return NewAuditLogRepository(db), mock
}

// ---------------------------------------------------------------------------
// Create
// ---------------------------------------------------------------------------

func TestAuditLogCreate_AssignsIDAndTimestamp(t *testing.T) {
	repo, mock := newAuditLogRepo(t)

	mock.ExpectExec("INSERT INTO audit_logs").
		WillReturnResult(sqlmock.NewResult(0, 1))

	entry := &models.AuditLog{
		OrganizationID: uuid.New(),
		Action:         "asset.create",
		ResourceType:   "asset",
	}
	if err := repo.Create(context.Background(), entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if entry.ID == uuid.Nil {
		t.Error("Create should assign an ID when none is set")
	}
	if entry.CreatedAt.IsZero() {
		t.Error("Create should stamp created_at")
	}
}

func TestAuditLogCreate_MarshalsChanges(t *testing.T) {
	repo, mock := newAuditLogRepo(t)
	entry := &models.AuditLog{
		OrganizationID: uuid.New(),
		Action:         "asset.update",
		ResourceType:   "asset",
		Changes:        map[string]interface{}{"criticality": "high"},
	}

	wantChanges, _ := json.Marshal(entry.Changes)
	mock.ExpectExec("INSERT INTO audit_logs").
		WithArgs(sqlmock.AnyArg(), entry.OrganizationID, nil, entry.Action,
			entry.ResourceType, nil, wantChanges, nil, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), entry); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAuditLogCreate_DBError(t *testing.T) {
	repo, mock := newAuditLogRepo(t)
	mock.ExpectExec("INSERT INTO audit_logs").WillReturnError(errDB)

	entry := &models.AuditLog{OrganizationID: uuid.New(), Action: "asset.create", ResourceType: "asset"}
	if err := repo.Create(context.Background(), entry); err == nil {
		t.Error("expected error, got nil")
	}
}

// ---------------------------------------------------------------------------
// List
// ---------------------------------------------------------------------------

func TestAuditLogList_NoFilters(t *testing.T) {
	repo, mock := newAuditLogRepo(t)
	orgID := uuid.New()

	mock.ExpectQuery("SELECT COUNT.*FROM audit_logs WHERE organization_id").
		WithArgs(orgID).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT.*FROM audit_logs.*ORDER BY created_at DESC").
		WithArgs(orgID, 50, 0).
		WillReturnRows(sampleAuditLogRow(orgID, "asset.create", map[string]interface{}{"name": "payments-api"}))

	entries, total, err := repo.List(context.Background(), orgID, AuditLogFilters{}, 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 1 {
		t.Errorf("total = %d, want 1", total)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].Action != "asset.create" {
		t.Errorf("Action = %q, want asset.create", entries[0].Action)
	}
	if entries[0].Changes["name"] != "payments-api" {
		t.Errorf("Changes[name] = %v, want payments-api", entries[0].Changes["name"])
	}
}

func TestAuditLogList_NilChangesStaysNil(t *testing.T) {
	repo, mock := newAuditLogRepo(t)
	orgID := uuid.New()

	mock.ExpectQuery("SELECT COUNT.*FROM audit_logs").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))
	mock.ExpectQuery("SELECT.*FROM audit_logs").
		WillReturnRows(sampleAuditLogRow(orgID, "asset.delete", nil))

	entries, _, err := repo.List(context.Background(), orgID, AuditLogFilters{}, 50, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("len(entries) = %d, want 1", len(entries))
	}
	if entries[0].Changes != nil {
		t.Errorf("Changes = %v, want nil for empty changes column", entries[0].Changes)
	}
}

func TestAuditLogList_AllFilters(t *testing.T) {
	repo, mock := newAuditLogRepo(t)
	orgID := uuid.New()
	actorID := uuid.New()
	start := time.Now().Add(-24 * time.Hour)
	end := time.Now()

	// Both queries share the same filter clauses; the main query appends
	// limit and offset after them.
	mock.ExpectQuery("SELECT COUNT.*actor_id.*action.*resource_type.*created_at >=.*created_at <=").
		WithArgs(orgID, actorID, "asset.update", "asset", start, end).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))
	mock.ExpectQuery("SELECT.*FROM audit_logs.*LIMIT").
		WithArgs(orgID, actorID, "asset.update", "asset", start, end, 25, 50).
		WillReturnRows(sqlmock.NewRows(auditLogCols))

	filters := AuditLogFilters{
		ActorID:      &actorID,
		Action:       strPtr("asset.update"),
		ResourceType: strPtr("asset"),
		StartDate:    &start,
		EndDate:      &end,
	}
	entries, total, err := repo.List(context.Background(), orgID, filters, 25, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if total != 0 || len(entries) != 0 {
		t.Errorf("got total=%d len=%d, want empty page", total, len(entries))
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestAuditLogList_CountError(t *testing.T) {
	repo, mock := newAuditLogRepo(t)
	mock.ExpectQuery("SELECT COUNT.*FROM audit_logs").WillReturnError(errDB)

	if _, _, err := repo.List(context.Background(), uuid.New(), AuditLogFilters{}, 50, 0); err == nil {
		t.Error("expected error, got nil")
	}
}
