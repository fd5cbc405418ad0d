package domain

import "time"

// AuditLog represents an audit event.
type AuditLog struct {
	ID          string    `json:"id" bson:"_id"`
	WorkspaceID string    `json:"workspace_id" bson:"workspace_id"`
	UserID      string    `json:"user_id" bson:"user_id"`
	Action      string    `json:"action" bson:"action"`
	Resource    string    `json:"resource" bson:"resource"`
	IP          string    `json:"ip" bson:"ip"`
	Metadata    string    `json:"metadata,omitempty" bson:"metadata,omitempty"`
	CreatedAt   time.Time `json:"created_at" bson:"created_at"`
}
