// cloud_repository.go provides database operations for cloud accounts and the
// discovered resource inventory. The inventory list is the only paginated
// collection here; its limit is clamped by the handler before reaching this layer.
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

// CloudRepository handles cloud account and inventory database operations
type CloudRepository struct {
	db *sqlx.DB
}

// NewCloudRepository creates a new CloudRepository
func NewCloudRepository(db *sqlx.DB) *CloudRepository {
	return &CloudRepository{db: db}
}

const cloudAccountColumns = `id, organization_id, name, provider, account_identifier,
	region, status, credentials_ciphertext, last_verified_at, created_at, updated_at`

// ListAccounts returns all cloud accounts for an organization, ordered by name
func (r *CloudRepository) ListAccounts(ctx context.Context, orgID uuid.UUID) ([]*models.CloudAccount, error) {
	accounts := make([]*models.CloudAccount, 0)
	err := r.db.SelectContext(ctx, &accounts,
		`SELECT `+cloudAccountColumns+` FROM cloud_accounts WHERE organization_id = $1 ORDER BY name`, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to list cloud accounts: %w", err)
	}
	return accounts, nil
}

// GetAccountByID returns a cloud account scoped to an organization, or nil if not found
func (r *CloudRepository) GetAccountByID(ctx context.Context, orgID, id uuid.UUID) (*models.CloudAccount, error) {
	var a models.CloudAccount
	err := r.db.GetContext(ctx, &a,
		`SELECT `+cloudAccountColumns+` FROM cloud_accounts WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cloud account: %w", err)
	}
	return &a, nil
}

// CreateAccount inserts a new cloud account
func (r *CloudRepository) CreateAccount(ctx context.Context, a *models.CloudAccount) error {
	if a.ID == uuid.Nil {
		a.ID = uuid.New()
	}
	now := time.Now()
	a.CreatedAt = now
	a.UpdatedAt = now

	query := `
		INSERT INTO cloud_accounts (id, organization_id, name, provider, account_identifier,
			region, status, credentials_ciphertext, last_verified_at, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
	`

	_, err := r.db.ExecContext(ctx, query,
		a.ID, a.OrganizationID, a.Name, a.Provider, a.AccountIdentifier,
		a.Region, a.Status, a.CredentialsCiphertext, a.LastVerifiedAt, a.CreatedAt, a.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create cloud account: %w", err)
	}
	return nil
}

// SetAccountVerification records the outcome of a credential verification
func (r *CloudRepository) SetAccountVerification(ctx context.Context, orgID, id uuid.UUID, status string, verifiedAt time.Time) error {
	_, err := r.db.ExecContext(ctx, `
		UPDATE cloud_accounts
		SET status = $1, last_verified_at = $2, updated_at = $3
		WHERE id = $4 AND organization_id = $5
	`, status, verifiedAt, time.Now(), id, orgID)
	if err != nil {
		return fmt.Errorf("failed to update cloud account verification: %w", err)
	}
	return nil
}

// CountResources returns the number of inventory rows for one account, scoped
// to the owning organization like every other read in this package.
// Issued once per account in the list view; callers fan these out concurrently.
func (r *CloudRepository) CountResources(ctx context.Context, orgID, accountID uuid.UUID) (int, error) {
	var n int
	err := r.db.GetContext(ctx, &n,
		`SELECT COUNT(*) FROM cloud_resources WHERE account_id = $1 AND organization_id = $2`, accountID, orgID)
	if err != nil {
		return 0, fmt.Errorf("failed to count cloud resources: %w", err)
	}
	return n, nil
}

// ResourceFilters contains optional filters for the inventory list
type ResourceFilters struct {
	AccountID    *uuid.UUID
	ResourceType *string
	Region       *string
	Status       *string
	Search       *string // case-insensitive substring match on name or provider resource id
}

const cloudResourceColumns = `id, organization_id, account_id, resource_id, name,
	resource_type, region, status, tags, discovered_at, updated_at`

// ListResources returns a page of inventory rows plus the total row count for
// the filter set, most recently discovered first.
func (r *CloudRepository) ListResources(ctx context.Context, orgID uuid.UUID, filters ResourceFilters, limit, offset int) ([]*models.CloudResource, int, error) {
	countQuery := `SELECT COUNT(*) FROM cloud_resources WHERE organization_id = $1`
	query := `SELECT ` + cloudResourceColumns + ` FROM cloud_resources WHERE organization_id = $1`

	args := []interface{}{orgID}
	paramIndex := 2

	if filters.AccountID != nil {
		clause := fmt.Sprintf(` AND account_id = $%d`, paramIndex)
		countQuery += clause
		query += clause
		args = append(args, *filters.AccountID)
		paramIndex++
	}
	if filters.ResourceType != nil {
		clause := fmt.Sprintf(` AND resource_type = $%d`, paramIndex)
		countQuery += clause
		query += clause
		args = append(args, *filters.ResourceType)
		paramIndex++
	}
	if filters.Region != nil {
		clause := fmt.Sprintf(` AND region = $%d`, paramIndex)
		countQuery += clause
		query += clause
		args = append(args, *filters.Region)
		paramIndex++
	}
	if filters.Status != nil {
		clause := fmt.Sprintf(` AND status = $%d`, paramIndex)
		countQuery += clause
		query += clause
		args = append(args, *filters.Status)
		paramIndex++
	}
	if filters.Search != nil {
		clause := fmt.Sprintf(` AND (name ILIKE $%d OR resource_id ILIKE $%d)`, paramIndex, paramIndex)
		countQuery += clause
		query += clause
		args = append(args, "%"+*filters.Search+"%")
		paramIndex++
	}

	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count cloud inventory: %w", err)
	}

	query += fmt.Sprintf(` ORDER BY discovered_at DESC LIMIT $%d OFFSET $%d`, paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	resources := make([]*models.CloudResource, 0)
	if err := r.db.SelectContext(ctx, &resources, query, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to list cloud inventory: %w", err)
	}
	return resources, total, nil
}

// GetResourceByID returns an inventory row scoped to an organization, or nil if not found
func (r *CloudRepository) GetResourceByID(ctx context.Context, orgID, id uuid.UUID) (*models.CloudResource, error) {
	var res models.CloudResource
	err := r.db.GetContext(ctx, &res,
		`SELECT `+cloudResourceColumns+` FROM cloud_resources WHERE id = $1 AND organization_id = $2`, id, orgID)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get cloud resource: %w", err)
	}
	return &res, nil
}

// ResourceUpdate contains the nullable partial-update fields for an inventory row
type ResourceUpdate struct {
	Name   *string
	Status *string
	Tags   []byte // raw JSON, replaces the stored tags wholesale
}

// UpdateResource applies a partial update to an inventory row scoped to an
// organization. Returns false if no row matched.
func (r *CloudRepository) UpdateResource(ctx context.Context, orgID, id uuid.UUID, upd ResourceUpdate) (bool, error) {
	setClause := ""
	args := []interface{}{}
	paramIndex := 1

	if upd.Name != nil {
		setClause += fmt.Sprintf("name = $%d, ", paramIndex)
		args = append(args, *upd.Name)
		paramIndex++
	}
	if upd.Status != nil {
		setClause += fmt.Sprintf("status = $%d, ", paramIndex)
		args = append(args, *upd.Status)
		paramIndex++
	}
	if upd.Tags != nil {
		setClause += fmt.Sprintf("tags = $%d, ", paramIndex)
		args = append(args, upd.Tags)
		paramIndex++
	}

	setClause += fmt.Sprintf("updated_at = $%d", paramIndex)
	args = append(args, time.Now())
	paramIndex++

	query := fmt.Sprintf(
		`UPDATE cloud_resources SET %s WHERE id = $%d AND organization_id = $%d`,
		setClause, paramIndex, paramIndex+1,
	)
	args = append(args, id, orgID)

	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return false, fmt.Errorf("failed to update cloud resource: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}
