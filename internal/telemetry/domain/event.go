package domain

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Domain event types emitted by the API.
const (
	EventUserRegistered   = "user.registered"
	EventUserProvisioned  = "user.provisioned"
	EventUserLogin        = "user.login"
	EventUserLoginFailed  = "user.login_failed"
	EventWorkspaceCreated = "workspace.created"
	EventMemberJoined     = "member.joined"
)

// Source is the value of Event.Source for events produced by this service.
const Source = "teamhub-api"

// Event is a workspace-scoped telemetry event. Metadata is an arbitrary JSON object.
type Event struct {
	ID          string          `json:"id"`
	WorkspaceID string          `json:"workspace_id,omitempty"`
	UserID      string          `json:"user_id,omitempty"`
	EventType   string          `json:"event_type"`
	Source      string          `json:"source"`
	Metadata    json.RawMessage `json:"metadata,omitempty"`
	CreatedAt   time.Time       `json:"created_at"`
}

// NewEvent returns an event stamped with a fresh ID and the current time.
// metadata may be nil; a value that cannot be marshalled is dropped.
func NewEvent(eventType, workspaceID, userID string, metadata map[string]string) *Event {
	e := &Event{
		ID:          uuid.NewString(),
		WorkspaceID: workspaceID,
		UserID:      userID,
		EventType:   eventType,
		Source:      Source,
		CreatedAt:   time.Now().UTC(),
	}
	if len(metadata) > 0 {
		if b, err := json.Marshal(metadata); err == nil {
			e.Metadata = b
		}
	}
	return e
}
