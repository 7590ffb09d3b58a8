package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx/types"
)

// CloudAccount represents a connected cloud provider account. Stored
// credentials are AES-GCM sealed and never leave the server.
type CloudAccount struct {
	ID                    uuid.UUID  `json:"id" db:"id"`
	OrganizationID        uuid.UUID  `json:"organization_id" db:"organization_id"`
	Name                  string     `json:"name" db:"name"`
	Provider              string     `json:"provider" db:"provider"` // aws | azure | gcp
	AccountIdentifier     string     `json:"account_identifier" db:"account_identifier"`
	Region                *string    `json:"region,omitempty" db:"region"`
	Status                string     `json:"status" db:"status"` // pending_review | connected | error
	CredentialsCiphertext *string    `json:"-" db:"credentials_ciphertext"`
	LastVerifiedAt        *time.Time `json:"last_verified_at,omitempty" db:"last_verified_at"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`

	// ResourcesCount is populated by the list endpoint, not stored
	ResourcesCount *int `json:"resources_count,omitempty" db:"-"`
}

// CloudResource represents a single discovered resource in the cloud inventory
type CloudResource struct {
	ID             uuid.UUID      `json:"id" db:"id"`
	OrganizationID uuid.UUID      `json:"organization_id" db:"organization_id"`
	AccountID      uuid.UUID      `json:"account_id" db:"account_id"`
	ResourceID     string         `json:"resource_id" db:"resource_id"` // provider-native identifier (ARN, resource URI)
	Name           *string        `json:"name,omitempty" db:"name"`
	ResourceType   string         `json:"resource_type" db:"resource_type"`
	Region         *string        `json:"region,omitempty" db:"region"`
	Status         string         `json:"status" db:"status"`
	Tags           types.JSONText `json:"tags" db:"tags"`
	DiscoveredAt   time.Time      `json:"discovered_at" db:"discovered_at"`
	UpdatedAt      time.Time      `json:"updated_at" db:"updated_at"`
}
