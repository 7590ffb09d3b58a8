// integration_repository.go provides database operations for external tool
// integrations. Credential ciphertext is stored but never selected into list
// responses by the handlers.
package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/grcplatform/grc-backend/internal/db/models"
)

// IntegrationRepository handles integration database operations
type IntegrationRepository struct {
	db *sqlx.DB
}

// NewIntegrationRepository creates a new IntegrationRepository
func NewIntegrationRepository(db *sqlx.DB) *IntegrationRepository {
	return &IntegrationRepository{db: db}
}

// List returns all integrations for an organization, ordered by name
func (r *IntegrationRepository) List(ctx context.Context, orgID uuid.UUID) ([]*models.Integration, error) {
	integrations := make([]*models.Integration, 0)
	err := r.db.SelectContext(ctx, &integrations, `
		SELECT id, organization_id, name, provider, status, config, credentials_ciphertext,
		       created_at, updated_at
		FROM integrations
		WHERE organization_id = $1
		ORDER BY name
	`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list integrations: %w", err)
	}
	return integrations, nil
}

// Create inserts a new integration
func (r *IntegrationRepository) Create(ctx context.Context, i *models.Integration) error {
	if i.ID == uuid.Nil {
		i.ID = uuid.New()
	}
	now := time.Now()
	i.CreatedAt = now
	i.UpdatedAt = now
	if i.Config == nil {
		i.Config = []byte("{}")
	}

	query := `
		INSERT INTO integrations (id, organization_id, name, provider, status, config,
			credentials_ciphertext, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := r.db.ExecContext(ctx, query,
		i.ID, i.OrganizationID, i.Name, i.Provider, i.Status, i.Config,
		i.CredentialsCiphertext, i.CreatedAt, i.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create integration: %w", err)
	}
	return nil
}
