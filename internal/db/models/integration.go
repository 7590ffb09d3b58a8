package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
)

// Integration represents a connection to an external tool (ticketing, HR,
// identity, monitoring). Credentials are AES-GCM sealed at rest and excluded
// from all API responses.
type Integration struct {
	ID                    uuid.UUID      `json:"id" db:"id"`
	OrganizationID        uuid.UUID      `json:"organization_id" db:"organization_id"`
	Name                  string         `json:"name" db:"name"`
	Provider              string         `json:"provider" db:"provider"`
	Status                string         `json:"status" db:"status"` // pending_review | active | disabled
	Config                types.JSONText `json:"config" db:"config"`
	CredentialsCiphertext *string        `json:"-" db:"credentials_ciphertext"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
