// finding_repository.go provides database operations for audit findings, both
// nested under an audit and flat across the organization for remediation tracking.
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

// FindingRepository handles audit finding database operations
type FindingRepository struct {
	db *sqlx.DB
}

// NewFindingRepository creates a new FindingRepository
func NewFindingRepository(db *sqlx.DB) *FindingRepository {
	return &FindingRepository{db: db}
}

// FindingFilters contains optional filters for listing findings
type FindingFilters struct {
	AuditID  *uuid.UUID
	Severity *string
	Status   *string
}

const findingColumns = `id, organization_id, audit_id, title, description, severity,
	status, remediation, due_date, created_at, updated_at`

// List returns findings for an organization matching the filters, newest first
func (r *FindingRepository) List(ctx context.Context, orgID uuid.UUID, filters FindingFilters) ([]*models.AuditFinding, error) {
	query := `SELECT ` + findingColumns + ` FROM audit_findings WHERE organization_id = $1`
	args := []interface{}{orgID}
	paramIndex := 2

	if filters.AuditID != nil {
		query += fmt.Sprintf(` AND audit_id = $%d`, paramIndex)
		args = append(args, *filters.AuditID)
		paramIndex++
	}
	if filters.Severity != nil {
		query += fmt.Sprintf(` AND severity = $%d`, paramIndex)
		args = append(args, *filters.Severity)
		paramIndex++
	}
	if filters.Status != nil {
		query += fmt.Sprintf(` AND status = $%d`, paramIndex)
		args = append(args, *filters.Status)
		paramIndex++
	}

	query += ` ORDER BY created_at DESC`

	findings := make([]*models.AuditFinding, 0)
	if err := r.db.SelectContext(ctx, &findings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list findings: %w", err)
	}
	return findings, nil
}

// GetByID returns a finding scoped to an organization, or nil if not found
func (r *FindingRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.AuditFinding, error) {
	var f models.AuditFinding
	err := r.db.GetContext(ctx, &f,
		`SELECT `+findingColumns+` FROM audit_findings WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get finding: %w", err)
	}
	return &f, nil
}

// Create inserts a new finding
func (r *FindingRepository) Create(ctx context.Context, f *models.AuditFinding) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	now := time.Now()
	f.CreatedAt = now
	f.UpdatedAt = now

	query := `
		INSERT INTO audit_findings (id, organization_id, audit_id, title, description,
			severity, status, remediation, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		f.ID, f.OrganizationID, f.AuditID, f.Title, f.Description,
		f.Severity, f.Status, f.Remediation, f.DueDate, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create finding: %w", err)
	}
	return nil
}

// FindingUpdate contains the nullable partial-update fields for a finding.
// Only non-nil fields are written.
type FindingUpdate struct {
	Status      *string
	Severity    *string
	Remediation *string
	DueDate     *time.Time
}

// Update applies a partial update to a finding scoped to an organization.
// Returns false if no row matched.
func (r *FindingRepository) Update(ctx context.Context, orgID, id uuid.UUID, upd FindingUpdate) (bool, error) {
	setClause := ""
	args := []interface{}{}
	paramIndex := 1

	if upd.Status != nil {
		setClause += fmt.Sprintf("status = $%d, ", paramIndex)
		args = append(args, *upd.Status)
		paramIndex++
	}
	if upd.Severity != nil {
		setClause += fmt.Sprintf("severity = $%d, ", paramIndex)
		args = append(args, *upd.Severity)
		paramIndex++
	}
	if upd.Remediation != nil {
		setClause += fmt.Sprintf("remediation = $%d, ", paramIndex)
		args = append(args, *upd.Remediation)
		paramIndex++
	}
	if upd.DueDate != nil {
		setClause += fmt.Sprintf("due_date = $%d, ", paramIndex)
		args = append(args, *upd.DueDate)
		paramIndex++
	}

	setClause += fmt.Sprintf("updated_at = $%d", paramIndex)
	args = append(args, time.Now())
	paramIndex++

	query := fmt.Sprintf(
		`UPDATE audit_findings SET %s WHERE id = $%d AND organization_id = $%d`,
		setClause, paramIndex, paramIndex+1,
	)
	args = append(args, id, orgID)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update finding: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
