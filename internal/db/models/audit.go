package models

import (
	"time"

	"github.com/google/uuid"
)

// Audit represents a compliance audit engagement
type Audit struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	OrganizationID uuid.UUID  `json:"organization_id" db:"organization_id"`
	Name           string     `json:"name" db:"name"`
	Framework      *string    `json:"framework,omitempty" db:"framework"`
	Auditor        *string    `json:"auditor,omitempty" db:"auditor"`
	Status         string     `json:"status" db:"status"` // planning | fieldwork | review | complete
	StartDate      *time.Time `json:"start_date,omitempty" db:"start_date"`
	EndDate        *time.Time `json:"end_date,omitempty" db:"end_date"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// FindingsCount is populated by the list endpoint, not stored
	FindingsCount *int `json:"findings_count,omitempty" db:"-"`
}

// AuditFinding represents a finding raised during an audit. Findings are also
// exposed flat (across audits) for remediation tracking, so AuditID is nullable.
type AuditFinding struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	OrganizationID uuid.UUID  `json:"organization_id" db:"organization_id"`
	AuditID        *uuid.UUID `json:"audit_id,omitempty" db:"audit_id"`
	Title          string     `json:"title" db:"title"`
	Description    *string    `json:"description,omitempty" db:"description"`
	Severity       string     `json:"severity" db:"severity"`
	Status         string     `json:"status" db:"status"` // open | in_progress | resolved | accepted
	Remediation    *string    `json:"remediation,omitempty" db:"remediation"`
	DueDate        *time.Time `json:"due_date,omitempty" db:"due_date"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// AuditReadinessItem represents one checklist item in an audit readiness assessment
type AuditReadinessItem struct {
	ID             uuid.UUID `json:"id" db:"id"`
	OrganizationID uuid.UUID `json:"organization_id" db:"organization_id"`
	AuditID        uuid.UUID `json:"audit_id" db:"audit_id"`
	Item           string    `json:"item" db:"item"`
	Status         string    `json:"status" db:"status"`
	Owner          *string   `json:"owner,omitempty" db:"owner"`
	Notes          *string   `json:"notes,omitempty" db:"notes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
