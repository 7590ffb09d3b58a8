package models

import (
	"time"

	"github.com/google/uuid"
)

// Incident represents a security or compliance incident
type Incident struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	OrganizationID uuid.UUID  `json:"organization_id" db:"organization_id"`
	Title          string     `json:"title" db:"title"`
	Description    *string    `json:"description,omitempty" db:"description"`
	Severity       string     `json:"severity" db:"severity"`
	Status         string     `json:"status" db:"status"` // open | investigating | contained | resolved
	ReportedBy     *string    `json:"reported_by,omitempty" db:"reported_by"`
	OccurredAt     *time.Time `json:"occurred_at,omitempty" db:"occurred_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// IncidentEvent is one entry in an incident's timeline, ordered by occurrence
type IncidentEvent struct {
	ID             uuid.UUID `json:"id" db:"id"`
	OrganizationID uuid.UUID `json:"organization_id" db:"organization_id"`
	IncidentID     uuid.UUID `json:"incident_id" db:"incident_id"`
	Description    string    `json:"description" db:"description"`
	Actor          *string   `json:"actor,omitempty" db:"actor"`
	OccurredAt     time.Time `json:"occurred_at" db:"occurred_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
}
