package models

import (
	"time"

	"github.com/google/uuid"
)

// Risk represents an entry in the organization's risk register
type Risk struct {
	ID             uuid.UUID `json:"id" db:"id"`
	OrganizationID uuid.UUID `json:"organization_id" db:"organization_id"`
	Title          string    `json:"title" db:"title"`
	Description    *string   `json:"description,omitempty" db:"description"`
	Category       *string   `json:"category,omitempty" db:"category"`
	Severity       string    `json:"severity" db:"severity"`
	Likelihood     *string   `json:"likelihood,omitempty" db:"likelihood"`
	Status         string    `json:"status" db:"status"` // open | mitigating | accepted | closed
	Owner          *string   `json:"owner,omitempty" db:"owner"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// RiskTreatment represents a planned or executed treatment action for a risk
type RiskTreatment struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	OrganizationID uuid.UUID  `json:"organization_id" db:"organization_id"`
	RiskID         uuid.UUID  `json:"risk_id" db:"risk_id"`
	Action         string     `json:"action" db:"action"`
	TreatmentType  *string    `json:"treatment_type,omitempty" db:"treatment_type"` // mitigate | transfer | avoid | accept
	Status         string     `json:"status" db:"status"`
	Owner          *string    `json:"owner,omitempty" db:"owner"`
	DueDate        *time.Time `json:"due_date,omitempty" db:"due_date"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
