package types

import (
	"time"

	"github.com/google/uuid"
)

// User represents an account in the system.
type User struct {
	// ID is the unique identifier of the user.
	ID uuid.UUID `json:"id" db:"id"`

	// Name is the user's display name.
	Name string `json:"name" db:"name"`

	// Email is the user's login and must be unique.
	Email string `json:"email" db:"email"`

	// PasswordHash stores the bcrypt hash of the user's password.
	// This field is never exposed in API responses.
	PasswordHash string `json:"-" db:"password_hash"`

	// CreatedAt is the timestamp when the user account was created.
	CreatedAt time.Time `json:"created_at" db:"created_at"`

	// UpdatedAt is the timestamp of the most recent update to the user account.
	UpdatedAt time.Time `json:"updated_at" db:"updated_at"`
}

// Identity is what a verified session token says about its bearer.
type Identity struct {
	ID    uuid.UUID `json:"id"`
	Name  string    `json:"name"`
	Email string    `json:"email"`
}

// Identity returns the session identity for u.
func (u User) Identity() Identity {
	return Identity{ID: u.ID, Name: u.Name, Email: u.Email}
}
