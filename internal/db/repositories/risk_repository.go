// risk_repository.go provides database operations for the risk register and
// risk treatment plans.
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

// RiskRepository handles risk register database operations
type RiskRepository struct {
	db *sqlx.DB
}

// NewRiskRepository creates a new RiskRepository
func NewRiskRepository(db *sqlx.DB) *RiskRepository {
	return &RiskRepository{db: db}
}

// RiskFilters contains optional filters for listing risks
type RiskFilters struct {
	Category *string
	Status   *string
	Severity *string
}

const riskColumns = `id, organization_id, title, description, category, severity,
	likelihood, status, owner, created_at, updated_at`

// List returns risks for an organization matching the filters, newest first
func (r *RiskRepository) List(ctx context.Context, orgID uuid.UUID, filters RiskFilters) ([]*models.Risk, error) {
	query := `SELECT ` + riskColumns + ` FROM risks WHERE organization_id = $1`
	args := []interface{}{orgID}
	paramIndex := 2

	if filters.Category != nil {
		query += fmt.Sprintf(` AND category = $%d`, paramIndex)
		args = append(args, *filters.Category)
		paramIndex++
	}
	if filters.Status != nil {
		query += fmt.Sprintf(` AND status = $%d`, paramIndex)
		args = append(args, *filters.Status)
		paramIndex++
	}
	if filters.Severity != nil {
		query += fmt.Sprintf(` AND severity = $%d`, paramIndex)
		args = append(args, *filters.Severity)
		paramIndex++
	}

	query += ` ORDER BY created_at DESC`

	risks := make([]*models.Risk, 0)
	if err := r.db.SelectContext(ctx, &risks, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list risks: %w", err)
	}
	return risks, nil
}

// GetByID returns a risk scoped to an organization, or nil if not found
func (r *RiskRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Risk, error) {
	var risk models.Risk
	err := r.db.GetContext(ctx, &risk,
		`SELECT `+riskColumns+` FROM risks WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get risk: %w", err)
	}
	return &risk, nil
}

// Create inserts a new risk
func (r *RiskRepository) Create(ctx context.Context, risk *models.Risk) error {
	if risk.ID == uuid.Nil {
		risk.ID = uuid.New()
	}
	now := time.Now()
	risk.CreatedAt = now
	risk.UpdatedAt = now

	query := `
		INSERT INTO risks (id, organization_id, title, description, category, severity,
			likelihood, status, owner, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		risk.ID, risk.OrganizationID, risk.Title, risk.Description, risk.Category,
		risk.Severity, risk.Likelihood, risk.Status, risk.Owner, risk.CreatedAt, risk.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create risk: %w", err)
	}
	return nil
}

// ListTreatments returns the treatment actions for a risk, oldest first
func (r *RiskRepository) ListTreatments(ctx context.Context, orgID, riskID uuid.UUID) ([]*models.RiskTreatment, error) {
	treatments := make([]*models.RiskTreatment, 0)
	err := r.db.SelectContext(ctx, &treatments, `
		SELECT id, organization_id, risk_id, action, treatment_type, status, owner,
		       due_date, created_at, updated_at
		FROM risk_treatments
		WHERE risk_id = $1 AND organization_id = $2
		ORDER BY created_at
	`, riskID, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list risk treatments: %w", err)
	}
	return treatments, nil
}

// CreateTreatment inserts a treatment action for a risk
func (r *RiskRepository) CreateTreatment(ctx context.Context, t *models.RiskTreatment) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	now := time.Now()
	t.CreatedAt = now
	t.UpdatedAt = now

	query := `
		INSERT INTO risk_treatments (id, organization_id, risk_id, action, treatment_type,
			status, owner, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		t.ID, t.OrganizationID, t.RiskID, t.Action, t.TreatmentType,
		t.Status, t.Owner, t.DueDate, t.CreatedAt, t.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create risk treatment: %w", err)
	}
	return nil
}
