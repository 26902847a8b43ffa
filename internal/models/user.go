package models

import (
	"time"

	"github.com/google/uuid"
)

// User is a registered account.
type User struct {
	ID           uuid.UUID `db:"id"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	DisplayName  string    `db:"display_name"`
	Bio          *string   `db:"bio"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

// RegisterInput is the payload for account creation.
type RegisterInput struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	DisplayName string `json:"displayName" validate:"required,max=80"`
}

// ProfileUpdate holds optional profile changes. Changing the password
// requires CurrentPassword.
type ProfileUpdate struct {
	DisplayName     *string `json:"displayName,omitempty" validate:"omitempty,min=1,max=80"`
	Bio             *string `json:"bio,omitempty" validate:"omitempty,max=500"`
	Password        *string `json:"password,omitempty" validate:"omitempty,min=8,max=72"`
	CurrentPassword *string `json:"currentPassword,omitempty"`
}
