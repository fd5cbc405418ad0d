package domain

import (
	"errors"
	"time"
)

// DefaultEmoji is used when a project is created without one.
const DefaultEmoji = "📊"

// Project groups tasks inside a workspace.
type Project struct {
	ID          string    `json:"id" bson:"_id"`
	Name        string    `json:"name" bson:"name"`
	Description string    `json:"description,omitempty" bson:"description,omitempty"`
	Emoji       string    `json:"emoji" bson:"emoji"`
	WorkspaceID string    `json:"workspace_id" bson:"workspace_id"`
	CreatedBy   string    `json:"created_by" bson:"created_by"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time `json:"updated_at" bson:"updated_at"`
}

// Validate validates the project for persistence and fills defaults.
func (p *Project) Validate() error {
	if p.Name == "" {
		return errors.New("name is required")
	}
	if p.WorkspaceID == "" {
		return errors.New("workspace_id is required")
	}
	if p.Emoji == "" {
		p.Emoji = DefaultEmoji
	}
	return nil
}
