package models

import (
	"time"

	"github.com/google/uuid"
)

// Framework represents a compliance framework (SOC 2, ISO 27001, ...) adopted
// by an organization.
type Framework struct {
	ID             uuid.UUID `json:"id" db:"id"`
	OrganizationID uuid.UUID `json:"organization_id" db:"organization_id"`
	Name           string    `json:"name" db:"name"`
	Version        *string   `json:"version,omitempty" db:"version"`
	Description    *string   `json:"description,omitempty" db:"description"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// FrameworkDomain groups requirements within a framework, displayed in sort order
type FrameworkDomain struct {
	ID          uuid.UUID `json:"id" db:"id"`
	FrameworkID uuid.UUID `json:"framework_id" db:"framework_id"`
	Name        string    `json:"name" db:"name"`
	SortOrder   int       `json:"sort_order" db:"sort_order"`
	CreatedAt   time.Time `json:"created_at" db:"created_at"`
}

// FrameworkRequirement is a single requirement within a framework, identified by code
type FrameworkRequirement struct {
	ID          uuid.UUID  `json:"id" db:"id"`
	FrameworkID uuid.UUID  `json:"framework_id" db:"framework_id"`
	DomainID    *uuid.UUID `json:"domain_id,omitempty" db:"domain_id"`
	Code        string     `json:"code" db:"code"`
	Title       string     `json:"title" db:"title"`
	Description *string    `json:"description,omitempty" db:"description"`
	CreatedAt   time.Time  `json:"created_at" db:"created_at"`
}

// Control represents an implemented (or planned) control, optionally mapped to
// a framework.
type Control struct {
	ID             uuid.UUID  `json:"id" db:"id"`
	OrganizationID uuid.UUID  `json:"organization_id" db:"organization_id"`
	FrameworkID    *uuid.UUID `json:"framework_id,omitempty" db:"framework_id"`
	Code           *string    `json:"code,omitempty" db:"code"`
	Name           string     `json:"name" db:"name"`
	Description    *string    `json:"description,omitempty" db:"description"`
	Status         string     `json:"status" db:"status"`
	Owner          *string    `json:"owner,omitempty" db:"owner"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
