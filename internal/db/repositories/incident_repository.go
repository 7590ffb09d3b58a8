// incident_repository.go provides database operations for incidents and their
// timelines. Timeline events are ordered by occurrence, not insertion.
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

// IncidentRepository handles incident database operations
type IncidentRepository struct {
	db *sqlx.DB
}

// NewIncidentRepository creates a new IncidentRepository
func NewIncidentRepository(db *sqlx.DB) *IncidentRepository {
	return &IncidentRepository{db: db}
}

// IncidentFilters contains optional filters for listing incidents
type IncidentFilters struct {
	Severity *string
	Status   *string
}

const incidentColumns = `id, organization_id, title, description, severity, status,
	reported_by, occurred_at, created_at, updated_at`

// List returns incidents for an organization matching the filters, newest first
func (r *IncidentRepository) List(ctx context.Context, orgID uuid.UUID, filters IncidentFilters) ([]*models.Incident, error) {
	query := `SELECT ` + incidentColumns + ` FROM incidents WHERE organization_id = $1`
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

	query += ` ORDER BY created_at DESC`

	incidents := make([]*models.Incident, 0)
	if err := r.db.SelectContext(ctx, &incidents, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list incidents: %w", err)
	}
	return incidents, nil
}

// GetByID returns an incident scoped to an organization, or nil if not found
func (r *IncidentRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Incident, error) {
	var inc models.Incident
	err := r.db.GetContext(ctx, &inc,
		`SELECT `+incidentColumns+` FROM incidents WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get incident: %w", err)
	}
	return &inc, nil
}

// Create inserts a new incident
func (r *IncidentRepository) Create(ctx context.Context, inc *models.Incident) error {
	if inc.ID == uuid.Nil {
		inc.ID = uuid.New()
	}
	now := time.Now()
	inc.CreatedAt = now
	inc.UpdatedAt = now

	query := `
		INSERT INTO incidents (id, organization_id, title, description, severity, status,
			reported_by, occurred_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`

	_, err := r.db.ExecContext(ctx, query,
		inc.ID, inc.OrganizationID, inc.Title, inc.Description, inc.Severity, inc.Status,
		inc.ReportedBy, inc.OccurredAt, inc.CreatedAt, inc.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create incident: %w", err)
	}
	return nil
}

// ListEvents returns the timeline for an incident in order of occurrence
func (r *IncidentRepository) ListEvents(ctx context.Context, orgID, incidentID uuid.UUID) ([]*models.IncidentEvent, error) {
	events := make([]*models.IncidentEvent, 0)
	err := r.db.SelectContext(ctx, &events, `
		SELECT id, organization_id, incident_id, description, actor, occurred_at, created_at
		FROM incident_events
		WHERE incident_id = $1 AND organization_id = $2
		ORDER BY occurred_at
	`, incidentID, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list incident events: %w", err)
	}
	return events, nil
}

// CreateEvent appends an event to an incident's timeline
func (r *IncidentRepository) CreateEvent(ctx context.Context, e *models.IncidentEvent) error {
	if e.ID == uuid.Nil {
		e.ID = uuid.New()
	}
	e.CreatedAt = time.Now()
	if e.OccurredAt.IsZero() {
		e.OccurredAt = e.CreatedAt
	}

	query := `
		INSERT INTO incident_events (id, organization_id, incident_id, description, actor, occurred_at, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`

	_, err := r.db.ExecContext(ctx, query,
		e.ID, e.OrganizationID, e.IncidentID, e.Description, e.Actor, e.OccurredAt, e.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create incident event: %w", err)
	}
	return nil
}
