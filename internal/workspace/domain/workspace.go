package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Workspace is a tenant: projects, tasks and members belong to exactly one workspace.
type Workspace struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Owner       string    `json:"owner" bson:"owner"`
	InviteCode  string    `json:"invite_code" bson:"invite_code"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// Default workspace created for every newly provisioned user.
const (
	DefaultName              = "My Workspace"
	defaultDescriptionPrefix = "Workspace created for "
)

// DefaultDescription returns the description of a user's default workspace.
func DefaultDescription(displayName string) string {
	return defaultDescriptionPrefix + displayName
}

// NewInviteCode returns the first 8 hex characters of a random UUID.
func NewInviteCode() string {
	return uuid.NewString()[:8]
}

// Validate validates the workspace for persistence. Returns an error describing the first validation failure.
func (w *Workspace) Validate() error {
	if w.Name == "" {
		return errors.New("name is required")
	}
	if w.Owner == "" {
		return errors.New("owner is required")
	}
	if w.InviteCode == "" {
		w.InviteCode = NewInviteCode()
	}
	return nil
}
