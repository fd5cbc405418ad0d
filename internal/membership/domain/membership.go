package domain

import (
	"errors"
	"time"
)

// Member links a user to a workspace with a role. (UserID, WorkspaceID) is unique.
type Member struct {
	ID          string    `json:"id" bson:"_id"`
	UserID      string    `json:"user_id" bson:"user_id"`
	WorkspaceID string    `json:"workspace_id" bson:"workspace_id"`
	RoleID      string    `json:"role_id" bson:"role_id"`
	JoinedAt    time.Time `json:"joined_at" bson:"joined_at"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}

// Validate validates the membership for persistence.
func (m *Member) Validate() error {
	if m.UserID == "" || m.WorkspaceID == "" {
		return errors.New("user_id and workspace_id are required")
	}
	if m.RoleID == "" {
		return errors.New("role_id is required")
	}
	return nil
}
