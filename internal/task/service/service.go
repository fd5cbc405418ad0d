// Package service implements task operations inside a project.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"teamhub/backend/internal/apperror"
	"teamhub/backend/internal/docstore"
	membershipdomain "teamhub/backend/internal/membership/domain"
	"teamhub/backend/internal/platform/rbac"
	projectdomain "teamhub/backend/internal/project/domain"
	roledomain "teamhub/backend/internal/role/domain"
	"teamhub/backend/internal/task/domain"
)

// Errors returned by the task service.
var (
	ErrTaskNotFound      = apperror.NotFound("Task not found")
	ErrProjectNotFound   = apperror.NotFound("Project not found")
	ErrTitleRequired     = apperror.BadRequest("Task title is required")
	ErrInvalidStatus     = apperror.BadRequest("Invalid task status")
	ErrInvalidPriority   = apperror.BadRequest("Invalid task priority")
	ErrAssigneeNotMember = apperror.BadRequest("Assigned user is not a member of this workspace")
)

// Authorizer resolves workspace access. Implemented by *rbac.Authorizer.
type Authorizer interface {
	RequireMember(ctx context.Context, workspaceID string) (*rbac.Access, error)
	RequirePermission(ctx context.Context, workspaceID string, permission roledomain.Permission) (*rbac.Access, error)
}

// Repo is the minimal task repository needed by the service.
type Repo interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Task, error)
	Create(ctx context.Context, t *domain.Task) error
	Update(ctx context.Context, t *domain.Task) error
	Delete(ctx context.Context, id string) error
}

// ProjectGetter looks up the parent project.
type ProjectGetter interface {
	GetByID(ctx context.Context, id string) (*projectdomain.Project, error)
}

// MembershipGetter checks assignees.
type MembershipGetter interface {
	GetByUserAndWorkspace(ctx context.Context, userID, workspaceID string) (*membershipdomain.Member, error)
}

// CreateInput carries a new task. Empty status and priority take the defaults (TODO, MEDIUM).
type CreateInput struct {
	Title       string          `json:"title"`
	Description string          `json:"description"`
	Status      domain.Status   `json:"status"`
	Priority    domain.Priority `json:"priority"`
	AssignedTo  string          `json:"assignedTo"`
	DueDate     *time.Time      `json:"dueDate"`
}

// UpdateInput patches a task. Nil fields are left unchanged; an empty AssignedTo unassigns.
type UpdateInput struct {
	Title       *string          `json:"title"`
	Description *string          `json:"description"`
	Status      *domain.Status   `json:"status"`
	Priority    *domain.Priority `json:"priority"`
	AssignedTo  *string          `json:"assignedTo"`
	DueDate     *time.Time       `json:"dueDate"`
}

// Service implements task use cases.
type Service struct {
	authz    Authorizer
	tasks    Repo
	projects ProjectGetter
	members  MembershipGetter
	now      func() time.Time
}

// NewService returns a task Service.
func NewService(authz Authorizer, tasks Repo, projects ProjectGetter, members MembershipGetter) *Service {
	return &Service{
		authz:    authz,
		tasks:    tasks,
		projects: projects,
		members:  members,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create adds a task to a project of the workspace. Requires CREATE_TASK.
func (s *Service) Create(ctx context.Context, workspaceID, projectID string, in CreateInput) (*domain.Task, error) {
	acc, err := s.authz.RequirePermission(ctx, workspaceID, roledomain.CreateTask)
	if err != nil {
		return nil, err
	}
	if err := s.checkProject(ctx, workspaceID, projectID); err != nil {
		return nil, err
	}
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, ErrTitleRequired
	}
	if in.Status != "" && !in.Status.Valid() {
		return nil, ErrInvalidStatus
	}
	if in.Priority != "" && !in.Priority.Valid() {
		return nil, ErrInvalidPriority
	}
	if err := s.checkAssignee(ctx, workspaceID, in.AssignedTo); err != nil {
		return nil, err
	}
	now := s.now()
	t := &domain.Task{
		ID:          uuid.NewString(),
		Title:       title,
		Description: strings.TrimSpace(in.Description),
		ProjectID:   projectID,
		WorkspaceID: workspaceID,
		Status:      in.Status,
		Priority:    in.Priority,
		AssignedTo:  in.AssignedTo,
		CreatedBy:   acc.UserID,
		DueDate:     in.DueDate,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.tasks.Create(ctx, t); err != nil {
		return nil, apperror.Internal(err)
	}
	return t, nil
}

// ListByProject returns the project's tasks, newest first.
func (s *Service) ListByProject(ctx context.Context, workspaceID, projectID string) ([]*domain.Task, error) {
	if _, err := s.authz.RequireMember(ctx, workspaceID); err != nil {
		return nil, err
	}
	if err := s.checkProject(ctx, workspaceID, projectID); err != nil {
		return nil, err
	}
	list, err := s.tasks.ListByProject(ctx, projectID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return list, nil
}

// Get returns one task of the project.
func (s *Service) Get(ctx context.Context, workspaceID, projectID, taskID string) (*domain.Task, error) {
	if _, err := s.authz.RequireMember(ctx, workspaceID); err != nil {
		return nil, err
	}
	return s.load(ctx, workspaceID, projectID, taskID)
}

// Update patches a task. Requires EDIT_TASK.
func (s *Service) Update(ctx context.Context, workspaceID, projectID, taskID string, in UpdateInput) (*domain.Task, error) {
	if _, err := s.authz.RequirePermission(ctx, workspaceID, roledomain.EditTask); err != nil {
		return nil, err
	}
	t, err := s.load(ctx, workspaceID, projectID, taskID)
	if err != nil {
		return nil, err
	}
	if in.Title != nil {
		v := strings.TrimSpace(*in.Title)
		if v == "" {
			return nil, ErrTitleRequired
		}
		t.Title = v
	}
	if in.Description != nil {
		t.Description = strings.TrimSpace(*in.Description)
	}
	if in.Status != nil {
		if !in.Status.Valid() {
			return nil, ErrInvalidStatus
		}
		t.Status = *in.Status
	}
	if in.Priority != nil {
		if !in.Priority.Valid() {
			return nil, ErrInvalidPriority
		}
		t.Priority = *in.Priority
	}
	if in.AssignedTo != nil {
		if err := s.checkAssignee(ctx, workspaceID, *in.AssignedTo); err != nil {
			return nil, err
		}
		t.AssignedTo = *in.AssignedTo
	}
	if in.DueDate != nil {
		t.DueDate = in.DueDate
	}
	t.UpdatedAt = s.now()
	if err := s.tasks.Update(ctx, t); err != nil {
		return nil, apperror.Internal(err)
	}
	return t, nil
}

// Delete removes a task. Requires DELETE_TASK.
func (s *Service) Delete(ctx context.Context, workspaceID, projectID, taskID string) error {
	if _, err := s.authz.RequirePermission(ctx, workspaceID, roledomain.DeleteTask); err != nil {
		return err
	}
	if _, err := s.load(ctx, workspaceID, projectID, taskID); err != nil {
		return err
	}
	if err := s.tasks.Delete(ctx, taskID); err != nil {
		if errors.Is(err, docstore.ErrNotFound) {
			return ErrTaskNotFound
		}
		return apperror.Internal(err)
	}
	return nil
}

func (s *Service) checkProject(ctx context.Context, workspaceID, projectID string) error {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return apperror.Internal(err)
	}
	if p == nil || p.WorkspaceID != workspaceID {
		return ErrProjectNotFound
	}
	return nil
}

func (s *Service) checkAssignee(ctx context.Context, workspaceID, userID string) error {
	if userID == "" {
		return nil
	}
	m, err := s.members.GetByUserAndWorkspace(ctx, userID, workspaceID)
	if err != nil {
		return apperror.Internal(err)
	}
	if m == nil {
		return ErrAssigneeNotMember
	}
	return nil
}

func (s *Service) load(ctx context.Context, workspaceID, projectID, taskID string) (*domain.Task, error) {
	t, err := s.tasks.GetByID(ctx, taskID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if t == nil || t.WorkspaceID != workspaceID || t.ProjectID != projectID {
		return nil, ErrTaskNotFound
	}
	return t, nil
}
