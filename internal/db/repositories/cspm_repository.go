// cspm_repository.go provides database operations for cloud security posture
// findings. Stats are computed from a single grouped query rather than one
// query per bucket.
package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/grcplatform/grc-backend/internal/db/models"
)

// CSPMRepository handles posture finding database operations
type CSPMRepository struct {
	db *sqlx.DB
}

// NewCSPMRepository creates a new CSPMRepository
func NewCSPMRepository(db *sqlx.DB) *CSPMRepository {
	return &CSPMRepository{db: db}
}

// CSPMFilters contains optional filters for listing posture findings
type CSPMFilters struct {
	Severity  *string
	Status    *string
	AccountID *uuid.UUID
}

const cspmColumns = `id, organization_id, account_id, resource_id, rule, title,
	description, severity, status, detected_at, updated_at`

// ListFindings returns posture findings for an organization, most recently detected first
func (r *CSPMRepository) ListFindings(ctx context.Context, orgID uuid.UUID, filters CSPMFilters) ([]*models.CSPMFinding, error) {
	query := `SELECT ` + cspmColumns + ` FROM cspm_findings WHERE organization_id = $1`
	args := []interface{}{orgID}
	paramIndex := 2

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
	if filters.AccountID != nil {
		query += fmt.Sprintf(` AND account_id = $%d`, paramIndex)
		args = append(args, *filters.AccountID)
		paramIndex++
	}

	query += ` ORDER BY detected_at DESC`

	findings := make([]*models.CSPMFinding, 0)
	if err := r.db.SelectContext(ctx, &findings, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list posture findings: %w", err)
	}
	return findings, nil
}

// CreateFinding inserts a new posture finding
func (r *CSPMRepository) CreateFinding(ctx context.Context, f *models.CSPMFinding) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	now := time.Now()
	if f.DetectedAt.IsZero() {
		f.DetectedAt = now
	}
	f.UpdatedAt = now

	query := `
		INSERT INTO cspm_findings (id, organization_id, account_id, resource_id, rule, title,
			description, severity, status, detected_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		f.ID, f.OrganizationID, f.AccountID, f.ResourceID, f.Rule, f.Title,
		f.Description, f.Severity, f.Status, f.DetectedAt, f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create posture finding: %w", err)
	}
	return nil
}

// Stats aggregates finding counts by severity and status for an organization.
// A single grouped query feeds both breakdowns and the total.
func (r *CSPMRepository) Stats(ctx context.Context, orgID uuid.UUID) (*models.CSPMStats, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT severity, status, COUNT(*)
		FROM cspm_findings
		WHERE organization_id = $1
		GROUP BY severity, status
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate posture stats: %w", err)
	}
	defer rows.Close()

	stats := &models.CSPMStats{
		BySeverity: make(map[string]int),
		ByStatus:   make(map[string]int),
	}
	for rows.Next() {
		var severity, status string
		var count int
		if err := rows.Scan(&severity, &status, &count); err != nil {
			return nil, err
		}
		stats.BySeverity[severity] += count
		stats.ByStatus[status] += count
		stats.Total += count
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return stats, nil
}
