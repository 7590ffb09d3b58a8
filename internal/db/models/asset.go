package models

import (
	"time"

	"github.com/google/uuid"
)

// Asset represents an inventoried asset (system, application, dataset, device)
// subject to classification and criticality tracking.
type Asset struct {
	ID              uuid.UUID `json:"id" db:"id"`
	OrganizationID  uuid.UUID `json:"organization_id" db:"organization_id"`
	Name            string    `json:"name" db:"name"`
	AssetType       string    `json:"asset_type" db:"asset_type"`
	Status          string    `json:"status" db:"status"`
	Criticality     string    `json:"criticality" db:"criticality"`
	Classification  *string   `json:"classification,omitempty" db:"classification"`
	DataSensitivity *string   `json:"data_sensitivity,omitempty" db:"data_sensitivity"`
	Environment     *string   `json:"environment,omitempty" db:"environment"`
	Owner           *string   `json:"owner,omitempty" db:"owner"`
	Description     *string   `json:"description,omitempty" db:"description"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// AssetOverride records a manual classification decision for a single asset
// field, keyed by (asset_id, field). Re-overriding the same field replaces the
// previous record rather than accumulating history.
type AssetOverride struct {
	AssetID   uuid.UUID  `json:"asset_id" db:"asset_id"`
	Field     string     `json:"field" db:"field"`
	Value     string     `json:"value" db:"value"`
	Reason    string     `json:"reason" db:"reason"`
	UpdatedBy *uuid.UUID `json:"updated_by,omitempty" db:"updated_by"`
	UpdatedAt time.Time  `json:"updated_at" db:"updated_at"`
}
