package models

import (
	"time"

	"github.com/google/uuid"
)

// Vendor represents a third-party vendor subject to risk assessment
type Vendor struct {
	ID             uuid.UUID `json:"id" db:"id"`
	OrganizationID uuid.UUID `json:"organization_id" db:"organization_id"`
	Name           string    `json:"name" db:"name"`
	Category       *string   `json:"category,omitempty" db:"category"`
	RiskLevel      string    `json:"risk_level" db:"risk_level"`
	Status         string    `json:"status" db:"status"`
	Website        *string   `json:"website,omitempty" db:"website"`
	ContactEmail   *string   `json:"contact_email,omitempty" db:"contact_email"`
	Notes          *string   `json:"notes,omitempty" db:"notes"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
