package domain

import (
	"errors"
	"time"

	"github.com/google/uuid"
)

// Task is a unit of work inside a project.
type Task struct {
	ID          string     `json:"id" bson:"_id"`
	TaskCode    string     `json:"task_code" bson:"task_code"`
	Title       string     `json:"title" bson:"title"`
	Description string     `json:"description,omitempty" bson:"description,omitempty"`
	ProjectID   string     `json:"project_id" bson:"project_id"`
	WorkspaceID string     `json:"workspace_id" bson:"workspace_id"`
	Status      Status     `json:"status" bson:"status"`
	Priority    Priority   `json:"priority" bson:"priority"`
	AssignedTo  string     `json:"assigned_to,omitempty" bson:"assigned_to,omitempty"`
	CreatedBy   string     `json:"created_by" bson:"created_by"`
	DueDate     *time.Time `json:"due_date,omitempty" bson:"due_date,omitempty"`
	CreatedAt   time.Time  `json:"created_at" bson:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at" bson:"updated_at"`
}

type Status string

const (
	StatusBacklog    Status = "BACKLOG"
	StatusTodo       Status = "TODO"
	StatusInProgress Status = "IN_PROGRESS"
	StatusInReview   Status = "IN_REVIEW"
	StatusDone       Status = "DONE"
)

func (s Status) Valid() bool {
	switch s {
	case StatusBacklog, StatusTodo, StatusInProgress, StatusInReview, StatusDone:
		return true
	}
	return false
}

type Priority string

const (
	PriorityLow    Priority = "LOW"
	PriorityMedium Priority = "MEDIUM"
	PriorityHigh   Priority = "HIGH"
)

func (p Priority) Valid() bool {
	return p == PriorityLow || p == PriorityMedium || p == PriorityHigh
}

// NewCode returns a short human-readable task code such as "task-3fa".
func NewCode() string {
	return "task-" + uuid.NewString()[:3]
}

// Validate validates the task for persistence and fills defaults. Returns an error describing the first validation failure.
func (t *Task) Validate() error {
	if t.Title == "" {
		return errors.New("title is required")
	}
	if t.ProjectID == "" || t.WorkspaceID == "" {
		return errors.New("project_id and workspace_id are required")
	}
	if t.Status == "" {
		t.Status = StatusTodo
	}
	if !t.Status.Valid() {
		return errors.New("invalid status")
	}
	if t.Priority == "" {
		t.Priority = PriorityMedium
	}
	if !t.Priority.Valid() {
		return errors.New("invalid priority")
	}
	if t.TaskCode == "" {
		t.TaskCode = NewCode()
	}
	return nil
}
