// Package models - organization.go defines the Organization model representing a tenant
// of the platform. Every other resource row carries the owning organization's ID and is
// never returned across tenant boundaries.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Organization represents a tenant organization
type Organization struct {
	ID       uuid.UUID `json:"id" db:"id"`
	Name     string    `json:"name" db:"name"`
	Slug     string    `json:"slug" db:"slug"` // URL-safe identifier, immutable after creation
	Industry *string   `json:"industry,omitempty" db:"industry"`
	Stage    *string   `json:"stage,omitempty" db:"stage"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
