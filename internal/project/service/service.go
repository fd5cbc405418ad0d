// Package service implements project operations inside a workspace.
package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"

	"teamhub/backend/internal/apperror"
	"teamhub/backend/internal/docstore"
	"teamhub/backend/internal/platform/rbac"
	"teamhub/backend/internal/project/domain"
	projectrepo "teamhub/backend/internal/project/repository"
	"teamhub/backend/internal/provisioning"
	roledomain "teamhub/backend/internal/role/domain"
	taskrepo "teamhub/backend/internal/task/repository"
)

// Errors returned by the project service.
var (
	ErrProjectNotFound = apperror.NotFound("Project not found")
	ErrNameRequired    = apperror.BadRequest("Project name is required")
)

// Authorizer resolves workspace access. Implemented by *rbac.Authorizer.
type Authorizer interface {
	RequireMember(ctx context.Context, workspaceID string) (*rbac.Access, error)
	RequirePermission(ctx context.Context, workspaceID string, permission roledomain.Permission) (*rbac.Access, error)
}

// Runner runs steps in one atomic scope when the store allows it. Implemented by *provisioning.Coordinator.
type Runner interface {
	Run(ctx context.Context, steps ...provisioning.Step) (provisioning.Mode, error)
}

// Repo is the minimal project repository needed by the service.
type Repo interface {
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Project, error)
	Create(ctx context.Context, p *domain.Project) error
	Update(ctx context.Context, p *domain.Project) error
}

// Input carries the writable project fields. Empty fields are left unchanged on update.
type Input struct {
	Name        string `json:"name"`
	Description string `json:"description"`
	Emoji       string `json:"emoji"`
}

// Service implements project use cases.
type Service struct {
	authz    Authorizer
	runner   Runner
	projects Repo
	now      func() time.Time
}

// NewService returns a project Service.
func NewService(authz Authorizer, runner Runner, projects Repo) *Service {
	return &Service{
		authz:    authz,
		runner:   runner,
		projects: projects,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Create adds a project to the workspace. Requires CREATE_PROJECT.
func (s *Service) Create(ctx context.Context, workspaceID string, in Input) (*domain.Project, error) {
	acc, err := s.authz.RequirePermission(ctx, workspaceID, roledomain.CreateProject)
	if err != nil {
		return nil, err
	}
	name := strings.TrimSpace(in.Name)
	if name == "" {
		return nil, ErrNameRequired
	}
	now := s.now()
	p := &domain.Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: strings.TrimSpace(in.Description),
		Emoji:       strings.TrimSpace(in.Emoji),
		WorkspaceID: workspaceID,
		CreatedBy:   acc.UserID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.projects.Create(ctx, p); err != nil {
		return nil, apperror.Internal(err)
	}
	return p, nil
}

// List returns the workspace's projects, newest first.
func (s *Service) List(ctx context.Context, workspaceID string) ([]*domain.Project, error) {
	if _, err := s.authz.RequireMember(ctx, workspaceID); err != nil {
		return nil, err
	}
	list, err := s.projects.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return list, nil
}

// Get returns one project of the workspace.
func (s *Service) Get(ctx context.Context, workspaceID, projectID string) (*domain.Project, error) {
	if _, err := s.authz.RequireMember(ctx, workspaceID); err != nil {
		return nil, err
	}
	return s.load(ctx, workspaceID, projectID)
}

// Update changes the project's fields. Requires EDIT_PROJECT.
func (s *Service) Update(ctx context.Context, workspaceID, projectID string, in Input) (*domain.Project, error) {
	if _, err := s.authz.RequirePermission(ctx, workspaceID, roledomain.EditProject); err != nil {
		return nil, err
	}
	p, err := s.load(ctx, workspaceID, projectID)
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(in.Name); v != "" {
		p.Name = v
	}
	if v := strings.TrimSpace(in.Description); v != "" {
		p.Description = v
	}
	if v := strings.TrimSpace(in.Emoji); v != "" {
		p.Emoji = v
	}
	p.UpdatedAt = s.now()
	if err := s.projects.Update(ctx, p); err != nil {
		return nil, apperror.Internal(err)
	}
	return p, nil
}

// Delete removes the project and its tasks together. Requires DELETE_PROJECT.
func (s *Service) Delete(ctx context.Context, workspaceID, projectID string) error {
	if _, err := s.authz.RequirePermission(ctx, workspaceID, roledomain.DeleteProject); err != nil {
		return err
	}
	if _, err := s.load(ctx, workspaceID, projectID); err != nil {
		return err
	}
	_, err := s.runner.Run(ctx,
		func(ctx context.Context, sess docstore.Session) error {
			_, err := taskrepo.New(sess).DeleteByProject(ctx, projectID)
			return err
		},
		func(ctx context.Context, sess docstore.Session) error {
			err := projectrepo.New(sess).Delete(ctx, projectID)
			if errors.Is(err, docstore.ErrNotFound) {
				return ErrProjectNotFound
			}
			return err
		},
	)
	if err != nil {
		var ae *apperror.Error
		if errors.As(err, &ae) {
			return err
		}
		return apperror.Internal(err)
	}
	return nil
}

// load returns the project if it belongs to workspaceID. Projects of other workspaces are
// reported as not found.
func (s *Service) load(ctx context.Context, workspaceID, projectID string) (*domain.Project, error) {
	p, err := s.projects.GetByID(ctx, projectID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if p == nil || p.WorkspaceID != workspaceID {
		return nil, ErrProjectNotFound
	}
	return p, nil
}
