package models

import (
	"time"

	"github.com/google/uuid"
)

// CSPMFinding represents a cloud security posture finding produced by a
// posture rule evaluation against discovered resources.
type CSPMFinding struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	OrganizationID uuid.UUID  `json:"organization_id" db:"organization_id"`
	AccountID      *uuid.UUID `json:"account_id,omitempty" db:"account_id"`
	ResourceID     *string    `json:"resource_id,omitempty" db:"resource_id"`
	Rule           string     `json:"rule" db:"rule"`
	Title          string     `json:"title" db:"title"`
	Description    *string    `json:"description,omitempty" db:"description"`
	Severity       string     `json:"severity" db:"severity"`
	Status         string     `json:"status" db:"status"` // open | in_progress | resolved | accepted
	DetectedAt     time.Time  `json:"detected_at" db:"detected_at"`
	UpdatedAt      time.Time  `json:"updated_at" db:"updated_at"`
}

// CSPMStats aggregates finding counts for an organization in a single query
type CSPMStats struct {
	Total      int            `json:"total"`
	BySeverity map[string]int `json:"by_severity"`
	ByStatus   map[string]int `json:"by_status"`
}
