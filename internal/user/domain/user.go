package domain

import (
	"errors"
	"strings"
	"time"
)

// User is the core identity entity. PasswordHash is empty for users that only sign in through
// an external provider.
type User struct {
	ID               string     `json:"id" bson:"_id"`
	Name             string     `json:"name" bson:"name"`
	Email            string     `json:"email" bson:"email"`
	PasswordHash     string     `json:"password_hash,omitempty" bson:"password_hash,omitempty"`
	ProfilePicture   string     `json:"profile_picture,omitempty" bson:"profile_picture,omitempty"`
	IsActive         bool       `json:"is_active" bson:"is_active"`
	LastLogin        *time.Time `json:"last_login,omitempty" bson:"last_login,omitempty"`
	CurrentWorkspace string     `json:"current_workspace,omitempty" bson:"current_workspace,omitempty"`
	CreatedAt        time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at" bson:"updated_at"`
}

// NormalizeEmail trims and lower-cases an email address. Emails are stored normalised.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate validates the user for persistence. Returns an error describing the first validation failure.
func (u *User) Validate() error {
	if u.Email == "" {
		return errors.New("email is required")
	}
	if u.Name == "" {
		return errors.New("name is required")
	}
	return nil
}

// WithoutPassword returns a copy of u with the password hash cleared.
func (u *User) WithoutPassword() *User {
	if u == nil {
		return nil
	}
	c := *u
	c.PasswordHash = ""
	return &c
}
