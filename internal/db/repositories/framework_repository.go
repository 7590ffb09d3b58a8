// framework_repository.go provides database operations for compliance
// frameworks, their domains and requirements, and the control library.
package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/grcplatform/grc-backend/internal/db/models"
)

// FrameworkRepository handles framework and control database operations
type FrameworkRepository struct {
	db *sqlx.DB
}

// NewFrameworkRepository creates a new FrameworkRepository
func NewFrameworkRepository(db *sqlx.DB) *FrameworkRepository {
	return &FrameworkRepository{db: db}
}

// List returns all frameworks for an organization, ordered by name
func (r *FrameworkRepository) List(ctx context.Context, orgID uuid.UUID) ([]*models.Framework, error) {
	frameworks := make([]*models.Framework, 0)
	err := r.db.SelectContext(ctx, &frameworks, `
		SELECT id, organization_id, name, version, description, created_at, updated_at
		FROM frameworks
		WHERE organization_id = $1
		ORDER BY name
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list frameworks: %w", err)
	}
	return frameworks, nil
}

// Create inserts a new framework
func (r *FrameworkRepository) Create(ctx context.Context, f *models.Framework) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	now := time.Now()
	f.CreatedAt = now
	f.UpdatedAt = now

	query := `
		INSERT INTO frameworks (id, organization_id, name, version, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		f.ID, f.OrganizationID, f.Name, f.Version, f.Description, f.CreatedAt, f.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create framework: %w", err)
	}
	return nil
}

// ListDomains returns a framework's domains in display order
func (r *FrameworkRepository) ListDomains(ctx context.Context, frameworkID uuid.UUID) ([]*models.FrameworkDomain, error) {
	domains := make([]*models.FrameworkDomain, 0)
	err := r.db.SelectContext(ctx, &domains, `
		SELECT id, framework_id, name, sort_order, created_at
		FROM framework_domains
		WHERE framework_id = $1
		ORDER BY sort_order
	`, frameworkID)
	if err != nil {
		return nil, fmt.Errorf("failed to list framework domains: %w", err)
	}
	return domains, nil
}

// ListRequirements returns a framework's requirements ordered by code
func (r *FrameworkRepository) ListRequirements(ctx context.Context, frameworkID uuid.UUID) ([]*models.FrameworkRequirement, error) {
	reqs := make([]*models.FrameworkRequirement, 0)
	err := r.db.SelectContext(ctx, &reqs, `
		SELECT id, framework_id, domain_id, code, title, description, created_at
		FROM framework_requirements
		WHERE framework_id = $1
		ORDER BY code
	`, frameworkID)
	if err != nil {
		return nil, fmt.Errorf("failed to list framework requirements: %w", err)
	}
	return reqs, nil
}

// ControlFilters contains optional filters for listing controls
type ControlFilters struct {
	FrameworkID *uuid.UUID
	Status      *string
}

// ListControls returns controls for an organization matching the filters, ordered by name
func (r *FrameworkRepository) ListControls(ctx context.Context, orgID uuid.UUID, filters ControlFilters) ([]*models.Control, error) {
	query := `
		SELECT id, organization_id, framework_id, code, name, description, status, owner,
		       created_at, updated_at
		FROM controls
		WHERE organization_id = $1
	`
	args := []interface{}{orgID}
	paramIndex := 2

	if filters.FrameworkID != nil {
		query += fmt.Sprintf(` AND framework_id = $%d`, paramIndex)
		args = append(args, *filters.FrameworkID)
		paramIndex++
	}
	if filters.Status != nil {
		query += fmt.Sprintf(` AND status = $%d`, paramIndex)
		args = append(args, *filters.Status)
		paramIndex++
	}

	query += ` ORDER BY name`

	controls := make([]*models.Control, 0)
	if err := r.db.SelectContext(ctx, &controls, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list controls: %w", err)
	}
	return controls, nil
}
