// audit_repository.go provides database operations for compliance audit
// engagements, their findings, and readiness assessment items.
package repositories

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/grcplatform/grc-backend/internal/db/models"
)

// AuditRepository handles audit engagement database operations
type AuditRepository struct {
	db *sqlx.DB
}

// NewAuditRepository creates a new AuditRepository
func NewAuditRepository(db *sqlx.DB) *AuditRepository {
	return &AuditRepository{db: db}
}

// AuditListFilters contains optional filters for listing audits
type AuditListFilters struct {
	Status    *string
	Framework *string
}

const auditColumns = `id, organization_id, name, framework, auditor, status,
	start_date, end_date, created_at, updated_at`

// List returns all audits for an organization, newest first
func (r *AuditRepository) List(ctx context.Context, orgID uuid.UUID, filters AuditListFilters) ([]*models.Audit, error) {
	query := `SELECT ` + auditColumns + ` FROM audits WHERE organization_id = $1`
	args := []interface{}{orgID}
	paramIndex := 2

	if filters.Status != nil {
		query += fmt.Sprintf(` AND status = $%d`, paramIndex)
		args = append(args, *filters.Status)
		paramIndex++
	}
	if filters.Framework != nil {
		query += fmt.Sprintf(` AND framework = $%d`, paramIndex)
		args = append(args, *filters.Framework)
		paramIndex++
	}

	query += ` ORDER BY created_at DESC`

	audits := make([]*models.Audit, 0)
	if err := r.db.SelectContext(ctx, &audits, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list audits: %w", err)
	}
	return audits, nil
}

// GetByID returns an audit scoped to an organization, or nil if not found
func (r *AuditRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Audit, error) {
	var a models.Audit
	err := r.db.GetContext(ctx, &a,
		`SELECT `+auditColumns+` FROM audits WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get audit: %w", err)
	}
	return &a, nil
}

// Create inserts a new audit engagement
func (r *AuditRepository) Create(ctx context.Context, a *models.Audit) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now

	query := `
		INSERT INTO audits (id, organization_id, name, framework, auditor, status,
			start_date, end_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.OrganizationID, a.Name, a.Framework, a.Auditor, a.Status,
		a.StartDate, a.EndDate, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit: %w", err)
	}
	return nil
}

// CountFindings returns the number of findings attached to one audit, scoped
// to the owning organization like every other read in this package.
// Issued once per audit in the list view; callers fan these out concurrently.
func (r *AuditRepository) CountFindings(ctx context.Context, orgID, auditID uuid.UUID) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM audit_findings WHERE audit_id = $1 AND organization_id = $2`, auditID, orgID)
	if err != nil {
		return 0, fmt.Errorf("failed to count audit findings: %w", err)
	}
	return n, nil
}

// ListReadiness returns the readiness assessment items for an audit
func (r *AuditRepository) ListReadiness(ctx context.Context, orgID, auditID uuid.UUID) ([]*models.AuditReadinessItem, error) {
	items := make([]*models.AuditReadinessItem, 0)
	err := r.db.SelectContext(ctx, &items, `
		SELECT id, organization_id, audit_id, item, status, owner, notes, created_at, updated_at
		FROM audit_readiness
		WHERE audit_id = $1 AND organization_id = $2
		ORDER BY created_at
	`, auditID, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list audit readiness items: %w", err)
	}
	return items, nil
}

// CreateReadinessItem inserts a readiness assessment item
func (r *AuditRepository) CreateReadinessItem(ctx context.Context, item *models.AuditReadinessItem) error {
	if item.ID == uuid.Nil {
		item.ID = uuid.New()
	}
	now := time.Now()
	item.CreatedAt = now
	item.UpdatedAt = now

	query := `
		INSERT INTO audit_readiness (id, organization_id, audit_id, item, status, owner, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		item.ID, item.OrganizationID, item.AuditID, item.Item, item.Status,
		item.Owner, item.Notes, item.CreatedAt, item.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit readiness item: %w", err)
	}
	return nil
}
