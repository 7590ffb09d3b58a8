package models

import (
	"time"

	"github.com/google/uuid"
)

// User represents an authenticated principal. PasswordHash is set for local
// email/password accounts; SSOSubject is set for accounts provisioned through
// the OIDC login flow. Either may be present, never neither.
type User struct {
	ID             uuid.UUID `json:"id" db:"id"`
	OrganizationID uuid.UUID `json:"organization_id" db:"organization_id"`
	Email          string    `json:"email" db:"email"`
	Name           string    `json:"name" db:"name"`
	PasswordHash   *string   `json:"-" db:"password_hash"`
	SSOSubject     *string   `json:"-" db:"sso_subject"`

	CreatedAt time.Time `json:"created_at" db:"created_at"`
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}
