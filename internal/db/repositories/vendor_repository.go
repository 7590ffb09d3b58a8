// vendor_repository.go provides database operations for third-party vendors.
package repositories

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/grcplatform/grc-backend/internal/db/models"
)

// VendorRepository handles vendor database operations
type VendorRepository struct {
	db *sqlx.DB
}

// NewVendorRepository creates a new VendorRepository
func NewVendorRepository(db *sqlx.DB) *VendorRepository {
	return &VendorRepository{db: db}
}

// VendorFilters contains optional filters for listing vendors
type VendorFilters struct {
	Category  *string
	RiskLevel *string
	Status    *string
}

// List returns vendors for an organization matching the filters, ordered by name
func (r *VendorRepository) List(ctx context.Context, orgID uuid.UUID, filters VendorFilters) ([]*models.Vendor, error) {
	query := `
		SELECT id, organization_id, name, category, risk_level, status, website,
		       contact_email, notes, created_at, updated_at
		FROM vendors
		WHERE organization_id = $1
	`
	args := []interface{}{orgID}
	paramIndex := 2

	if filters.Category != nil {
		query += fmt.Sprintf(` AND category = $%d`, paramIndex)
		args = append(args, *filters.Category)
		paramIndex++
	}
	if filters.RiskLevel != nil {
		query += fmt.Sprintf(` AND risk_level = $%d`, paramIndex)
		args = append(args, *filters.RiskLevel)
		paramIndex++
	}
	if filters.Status != nil {
		query += fmt.Sprintf(` AND status = $%d`, paramIndex)
		args = append(args, *filters.Status)
		paramIndex++
	}

	query += ` ORDER BY name`

	vendors := make([]*models.Vendor, 0)
	if err := r.db.SelectContext(ctx, &vendors, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list vendors: %w", err)
	}
	return vendors, nil
}

// Create inserts a new vendor
func (r *VendorRepository) Create(ctx context.Context, v *models.Vendor) error {
	if v.ID == uuid.Nil {
		v.ID = uuid.New()
	}
	now := time.Now()
	v.CreatedAt = now
	v.UpdatedAt = now

	query := `
		INSERT INTO vendors (id, organization_id, name, category, risk_level, status,
			website, contact_email, notes, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		v.ID, v.OrganizationID, v.Name, v.Category, v.RiskLevel, v.Status,
		v.Website, v.ContactEmail, v.Notes, v.CreatedAt, v.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create vendor: %w", err)
	}
	return nil
}
