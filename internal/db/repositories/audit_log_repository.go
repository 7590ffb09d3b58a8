// audit_log_repository.go implements the append-only audit trail store. Entries
// are inserted by the audit emitter and listed with filters; no update or
// delete statement exists anywhere in this file on purpose.
package repositories

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/grcplatform/grc-backend/internal/db/models"
)

// AuditLogRepository handles audit trail database operations
type AuditLogRepository struct {
	db *sqlx.DB
}

// NewAuditLogRepository creates a new AuditLogRepository
func NewAuditLogRepository(db *sqlx.DB) *AuditLogRepository {
	return &AuditLogRepository{db: db}
}

// AuditLogFilters contains filters for querying the audit trail
type AuditLogFilters struct {
	ActorID      *uuid.UUID
	Action       *string
	ResourceType *string
	StartDate    *time.Time
	EndDate      *time.Time
}

// Create appends an entry to the audit trail
func (r *AuditLogRepository) Create(ctx context.Context, entry *models.AuditLog) error {
	if entry.ID == uuid.Nil {
		entry.ID = uuid.New()
	}
	entry.CreatedAt = time.Now()

	// Marshal changes to JSONB
	var changesJSON []byte
	var err error
	if entry.Changes != nil {
		changesJSON, err = json.Marshal(entry.Changes)
		if err != nil {
			return err
		}
	}

	query := `
		INSERT INTO audit_logs (id, organization_id, actor_id, action, resource_type, resource_id, changes, ip_address, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err = r.db.ExecContext(ctx, query,
		entry.ID,
		entry.OrganizationID,
		entry.ActorID,
		entry.Action,
		entry.ResourceType,
		entry.ResourceID,
		changesJSON,
		entry.IPAddress,
		entry.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to create audit log entry: %w", err)
	}
	return nil
}

// List retrieves audit trail entries for an organization with optional filters
// and pagination, newest first. Returns the page plus the total matching count.
func (r *AuditLogRepository) List(ctx context.Context, orgID uuid.UUID, filters AuditLogFilters, limit, offset int) ([]*models.AuditLog, int, error) {
	countQuery := `SELECT COUNT(*) FROM audit_logs WHERE organization_id = $1`
	query := `
		SELECT id, organization_id, actor_id, action, resource_type, resource_id, changes, ip_address, created_at
		FROM audit_logs
		WHERE organization_id = $1
	`

	args := []interface{}{orgID}
	paramIndex := 2

	if filters.ActorID != nil {
		clause := fmt.Sprintf(` AND actor_id = $%d`, paramIndex)
		countQuery += clause
		query += clause
		args = append(args, *filters.ActorID)
		paramIndex++
	}
	if filters.Action != nil {
		clause := fmt.Sprintf(` AND action = $%d`, paramIndex)
		countQuery += clause
		query += clause
		args = append(args, *filters.Action)
		paramIndex++
	}
	if filters.ResourceType != nil {
		clause := fmt.Sprintf(` AND resource_type = $%d`, paramIndex)
		countQuery += clause
		query += clause
		args = append(args, *filters.ResourceType)
		paramIndex++
	}
	if filters.StartDate != nil {
		clause := fmt.Sprintf(` AND created_at >= $%d`, paramIndex)
		countQuery += clause
		query += clause
		args = append(args, *filters.StartDate)
		paramIndex++
	}
	if filters.EndDate != nil {
		clause := fmt.Sprintf(` AND created_at <= $%d`, paramIndex)
		countQuery += clause
		query += clause
		args = append(args, *filters.EndDate)
		paramIndex++
	}

	var total int
	if err := r.db.QueryRowContext(ctx, countQuery, args...).Scan(&total); err != nil {
		return nil, 0, fmt.Errorf("failed to count audit log entries: %w", err)
	}

	query += fmt.Sprintf(` ORDER BY created_at DESC LIMIT $%d OFFSET $%d`, paramIndex, paramIndex+1)
	args = append(args, limit, offset)

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list audit log entries: %w", err)
	}
	defer rows.Close()

	entries := make([]*models.AuditLog, 0)
	for rows.Next() {
		entry := &models.AuditLog{}
		var changesJSON []byte

		err := rows.Scan(
			&entry.ID,
			&entry.OrganizationID,
			&entry.ActorID,
			&entry.Action,
			&entry.ResourceType,
			&entry.ResourceID,
			&changesJSON,
			&entry.IPAddress,
			&entry.CreatedAt,
		)
		if err != nil {
			return nil, 0, err
		}

		if len(changesJSON) > 0 {
			if err := json.Unmarshal(changesJSON, &entry.Changes); err != nil {
				return nil, 0, err
			}
		}

		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}

	return entries, total, nil
}
