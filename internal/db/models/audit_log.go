// Package models - audit_log.go defines the AuditLog model for the append-only
// change trail, capturing actor, action, affected resource, client IP, and the
// changed fields as arbitrary JSON.
package models

import (
	"time"

	"github.com/google/uuid"
)

// AuditLog represents one append-only audit trail entry. Entries are only ever
// inserted and listed; there is no update or delete path.
type AuditLog struct {
	ID             uuid.UUID              `json:"id"`
	OrganizationID uuid.UUID              `json:"organization_id"`
	ActorID        *uuid.UUID             `json:"actor_id,omitempty"` // nil for system actions
	Action         string                 `json:"action"`             // "asset.create", "audit.update", ...
	ResourceType   string                 `json:"resource_type"`      // "asset", "audit", "risk", ...
	ResourceID     *string                `json:"resource_id,omitempty"`
	Changes        map[string]interface{} `json:"changes,omitempty"` // JSONB: fields written by the operation
	IPAddress      *string                `json:"ip_address,omitempty"`
	CreatedAt      time.Time              `json:"created_at"`
}
