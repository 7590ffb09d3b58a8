// asset_repository.go provides database operations for the asset inventory,
// including the classification override path: the asset row is updated and each
// overridden field is upserted into asset_overrides in a single transaction.
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

// AssetRepository handles asset database operations
type AssetRepository struct {
	db *sqlx.DB
}

// NewAssetRepository creates a new AssetRepository
func NewAssetRepository(db *sqlx.DB) *AssetRepository {
	return &AssetRepository{db: db}
}

// AssetFilters contains optional filters for listing assets
type AssetFilters struct {
	AssetType   *string
	Status      *string
	Criticality *string
	Search      *string // case-insensitive substring match on name
}

const assetColumns = `id, organization_id, name, asset_type, status, criticality,
	classification, data_sensitivity, environment, owner, description, created_at, updated_at`

// List returns all assets for an organization matching the filters, ordered by name
func (r *AssetRepository) List(ctx context.Context, orgID uuid.UUID, filters AssetFilters) ([]*models.Asset, error) {
	query := `SELECT ` + assetColumns + ` FROM assets WHERE organization_id = $1`
	args := []interface{}{orgID}
	paramIndex := 2

	if filters.AssetType != nil {
		query += fmt.Sprintf(` AND asset_type = $%d`, paramIndex)
		args = append(args, *filters.AssetType)
		paramIndex++
	}
	if filters.Status != nil {
		query += fmt.Sprintf(` AND status = $%d`, paramIndex)
		args = append(args, *filters.Status)
		paramIndex++
	}
	if filters.Criticality != nil {
		query += fmt.Sprintf(` AND criticality = $%d`, paramIndex)
		args = append(args, *filters.Criticality)
		paramIndex++
	}
	if filters.Search != nil {
		query += fmt.Sprintf(` AND name ILIKE $%d`, paramIndex)
		args = append(args, "%"+*filters.Search+"%")
		paramIndex++
	}

	query += ` ORDER BY name`

	assets := make([]*models.Asset, 0)
	if err := r.db.SelectContext(ctx, &assets, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list assets: %w", err)
	}
	return assets, nil
}

// GetByID returns an asset scoped to an organization, or nil if not found
func (r *AssetRepository) GetByID(ctx context.Context, orgID, id uuid.UUID) (*models.Asset, error) {
	var a models.Asset
	err := r.db.GetContext(ctx, &a,
		`SELECT `+assetColumns+` FROM assets WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get asset: %w", err)
	}
	return &a, nil
}

// Create inserts a new asset
func (r *AssetRepository) Create(ctx context.Context, a *models.Asset) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now

	query := `
		INSERT INTO assets (id, organization_id, name, asset_type, status, criticality,
			classification, data_sensitivity, environment, owner, description, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
	`

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.OrganizationID, a.Name, a.AssetType, a.Status, a.Criticality,
		a.Classification, a.DataSensitivity, a.Environment, a.Owner, a.Description,
		a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create asset: %w", err)
	}
	return nil
}

// Delete removes an asset scoped to an organization. Returns false if no row matched.
func (r *AssetRepository) Delete(ctx context.Context, orgID, id uuid.UUID) (bool, error) {
	res, err := r.db.ExecContext(ctx,
		`DELETE FROM assets WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err != nil {
		return false, fmt.Errorf("failed to delete asset: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// UpdateClassification applies an allow-listed set of classification fields to
// an asset and records each one as a manual override. The caller is responsible
// for validating field names; this method interpolates them as column names.
// Returns false if the asset does not exist in the organization.
func (r *AssetRepository) UpdateClassification(ctx context.Context, orgID, assetID uuid.UUID, fields map[string]string, reason string, updatedBy *uuid.UUID) (bool, error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return false, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	now := time.Now()

	setClause := ""
	args := []interface{}{}
	paramIndex := 1
	for field, value := range fields {
		setClause += fmt.Sprintf("%s = $%d, ", field, paramIndex)
		args = append(args, value)
		paramIndex++
	}
	setClause += fmt.Sprintf("updated_at = $%d", paramIndex)
	args = append(args, now)
	paramIndex++

	query := fmt.Sprintf(
		`UPDATE assets SET %s WHERE id = $%d AND organization_id = $%d`,
		setClause, paramIndex, paramIndex+1,
	)
	args = append(args, assetID, orgID)

	res, err := tx.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update asset classification: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	upsert := `
		INSERT INTO asset_overrides (asset_id, field, value, reason, updated_by, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (asset_id, field)
		DO UPDATE SET value = EXCLUDED.value, reason = EXCLUDED.reason,
		              updated_by = EXCLUDED.updated_by, updated_at = EXCLUDED.updated_at
	`
	for field, value := range fields {
		if _, err := tx.ExecContext(ctx, upsert, assetID, field, value, reason, updatedBy, now); err != nil {
			return false, fmt.Errorf("failed to upsert asset override: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return false, fmt.Errorf("failed to commit classification update: %w", err)
	}
	return true, nil
}

// ListOverrides returns all recorded overrides for an asset
func (r *AssetRepository) ListOverrides(ctx context.Context, assetID uuid.UUID) ([]*models.AssetOverride, error) {
	overrides := make([]*models.AssetOverride, 0)
	err := r.db.SelectContext(ctx, &overrides, `
		SELECT asset_id, field, value, reason, updated_by, updated_at
		FROM asset_overrides
		WHERE asset_id = $1
		ORDER BY field
	`, assetID)
	if err != nil {
		return nil, fmt.Errorf("failed to list asset overrides: %w", err)
	}
	return overrides, nil
}
