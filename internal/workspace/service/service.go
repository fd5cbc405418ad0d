// Package service implements workspace operations: creation, membership and invites.
package service

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"teamhub/backend/internal/apperror"
	"teamhub/backend/internal/docstore"
	membershipdomain "teamhub/backend/internal/membership/domain"
	membershiprepo "teamhub/backend/internal/membership/repository"
	"teamhub/backend/internal/platform/rbac"
	projectrepo "teamhub/backend/internal/project/repository"
	"teamhub/backend/internal/provisioning"
	roledomain "teamhub/backend/internal/role/domain"
	taskrepo "teamhub/backend/internal/task/repository"
	"teamhub/backend/internal/telemetry"
	telemetrydomain "teamhub/backend/internal/telemetry/domain"
	userdomain "teamhub/backend/internal/user/domain"
	userrepo "teamhub/backend/internal/user/repository"
	"teamhub/backend/internal/workspace/domain"
	workspacerepo "teamhub/backend/internal/workspace/repository"
)

// Errors returned by the workspace service.
var (
	ErrWorkspaceNotFound  = apperror.NotFound("Workspace not found")
	ErrInvalidInvite      = apperror.NotFound("Invalid invite code or workspace not found")
	ErrAlreadyMember      = apperror.Conflict("You are already a member of this workspace")
	ErrMemberNotFound     = apperror.NotFound("Member not found in the workspace")
	ErrRoleNotFound       = apperror.NotFound("Role not found")
	ErrMemberRoleNotFound = apperror.NotFound("Member role not found").WithStatus(http.StatusInternalServerError)
	ErrOwnerRoleAssign    = apperror.BadRequest("The owner role cannot be assigned")
	ErrOwnerRoleChange    = apperror.BadRequest("The workspace owner's role cannot be changed")
	ErrNameRequired       = apperror.BadRequest("Workspace name is required")
)

// Creator provisions a workspace with its owner membership. Implemented by *provisioning.Workflow.
type Creator interface {
	CreateWorkspace(ctx context.Context, userID, name, description string) (*domain.Workspace, provisioning.Mode, error)
}

// Runner runs steps in one atomic scope when the store allows it. Implemented by *provisioning.Coordinator.
type Runner interface {
	Run(ctx context.Context, steps ...provisioning.Step) (provisioning.Mode, error)
}

// Authorizer resolves workspace access. Implemented by *rbac.Authorizer.
type Authorizer interface {
	RequireMember(ctx context.Context, workspaceID string) (*rbac.Access, error)
	RequirePermission(ctx context.Context, workspaceID string, permission roledomain.Permission) (*rbac.Access, error)
}

// WorkspaceRepo is the minimal workspace repository needed by the service.
type WorkspaceRepo interface {
	GetByID(ctx context.Context, id string) (*domain.Workspace, error)
	GetByInviteCode(ctx context.Context, code string) (*domain.Workspace, error)
	Update(ctx context.Context, w *domain.Workspace) error
}

// MemberRepo is the minimal membership repository needed by the service.
type MemberRepo interface {
	ListByUser(ctx context.Context, userID string) ([]*membershipdomain.Member, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]*membershipdomain.Member, error)
	GetByUserAndWorkspace(ctx context.Context, userID, workspaceID string) (*membershipdomain.Member, error)
	Create(ctx context.Context, m *membershipdomain.Member) error
	UpdateRole(ctx context.Context, userID, workspaceID, roleID string) (*membershipdomain.Member, error)
}

// RoleRepo is the minimal role repository needed by the service.
type RoleRepo interface {
	GetByID(ctx context.Context, id string) (*roledomain.Role, error)
	GetByName(ctx context.Context, name roledomain.Name) (*roledomain.Role, error)
}

// UserRepo is the minimal user repository needed by the service.
type UserRepo interface {
	GetByID(ctx context.Context, id string) (*userdomain.User, error)
}

// MemberView is a membership joined with its user (no password hash) and role.
type MemberView struct {
	*membershipdomain.Member
	User *userdomain.User `json:"user,omitempty"`
	Role *roledomain.Role `json:"role,omitempty"`
}

// Service implements workspace use cases.
type Service struct {
	creator    Creator
	runner     Runner
	authz      Authorizer
	workspaces WorkspaceRepo
	members    MemberRepo
	roles      RoleRepo
	users      UserRepo
	emitter    telemetry.EventEmitter
	now        func() time.Time
}

// Deps groups the collaborators of Service. Emitter may be nil.
type Deps struct {
	Creator    Creator
	Runner     Runner
	Authz      Authorizer
	Workspaces WorkspaceRepo
	Members    MemberRepo
	Roles      RoleRepo
	Users      UserRepo
	Emitter    telemetry.EventEmitter
}

// NewService returns a workspace Service.
func NewService(d Deps) *Service {
	return &Service{
		creator:    d.Creator,
		runner:     d.Runner,
		authz:      d.Authz,
		workspaces: d.Workspaces,
		members:    d.Members,
		roles:      d.Roles,
		users:      d.Users,
		emitter:    d.Emitter,
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// Create provisions a workspace owned by userID and makes it the user's current workspace.
func (s *Service) Create(ctx context.Context, userID, name, description string) (*domain.Workspace, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrNameRequired
	}
	ws, mode, err := s.creator.CreateWorkspace(ctx, userID, name, description)
	if err != nil {
		return nil, err
	}
	s.emit(ctx, telemetrydomain.EventWorkspaceCreated, ws.ID, userID, map[string]string{"name": ws.Name, "mode": string(mode)})
	return ws, nil
}

// ListMine returns every workspace userID belongs to.
func (s *Service) ListMine(ctx context.Context, userID string) ([]*domain.Workspace, error) {
	ms, err := s.members.ListByUser(ctx, userID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	out := make([]*domain.Workspace, 0, len(ms))
	for _, m := range ms {
		ws, err := s.workspaces.GetByID(ctx, m.WorkspaceID)
		if err != nil {
			return nil, apperror.Internal(err)
		}
		if ws != nil {
			out = append(out, ws)
		}
	}
	return out, nil
}

// Get returns a workspace the caller is a member of.
func (s *Service) Get(ctx context.Context, workspaceID string) (*domain.Workspace, error) {
	if _, err := s.authz.RequireMember(ctx, workspaceID); err != nil {
		return nil, err
	}
	return s.load(ctx, workspaceID)
}

// Update changes name and description. Empty values leave the field unchanged.
func (s *Service) Update(ctx context.Context, workspaceID, name, description string) (*domain.Workspace, error) {
	if _, err := s.authz.RequirePermission(ctx, workspaceID, roledomain.EditWorkspace); err != nil {
		return nil, err
	}
	ws, err := s.load(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	if v := strings.TrimSpace(name); v != "" {
		ws.Name = v
	}
	if v := strings.TrimSpace(description); v != "" {
		ws.Description = v
	}
	ws.UpdatedAt = s.now()
	if err := s.workspaces.Update(ctx, ws); err != nil {
		return nil, apperror.Internal(err)
	}
	return ws, nil
}

// Members lists the workspace's members with their users and roles.
func (s *Service) Members(ctx context.Context, workspaceID string) ([]*MemberView, error) {
	if _, err := s.authz.RequireMember(ctx, workspaceID); err != nil {
		return nil, err
	}
	ms, err := s.members.ListByWorkspace(ctx, workspaceID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	roles := make(map[string]*roledomain.Role)
	out := make([]*MemberView, 0, len(ms))
	for _, m := range ms {
		u, err := s.users.GetByID(ctx, m.UserID)
		if err != nil {
			return nil, apperror.Internal(err)
		}
		role, ok := roles[m.RoleID]
		if !ok {
			if role, err = s.roles.GetByID(ctx, m.RoleID); err != nil {
				return nil, apperror.Internal(err)
			}
			roles[m.RoleID] = role
		}
		out = append(out, &MemberView{Member: m, User: u.WithoutPassword(), Role: role})
	}
	return out, nil
}

// ChangeMemberRole assigns roleID to memberUserID. The owner role cannot be granted and the
// workspace owner cannot be demoted.
func (s *Service) ChangeMemberRole(ctx context.Context, workspaceID, memberUserID, roleID string) (*membershipdomain.Member, error) {
	if _, err := s.authz.RequirePermission(ctx, workspaceID, roledomain.ChangeMemberRole); err != nil {
		return nil, err
	}
	ws, err := s.load(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	role, err := s.roles.GetByID(ctx, roleID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if role == nil {
		return nil, ErrRoleNotFound
	}
	if role.Name == roledomain.Owner {
		return nil, ErrOwnerRoleAssign
	}
	if memberUserID == ws.Owner {
		return nil, ErrOwnerRoleChange
	}
	m, err := s.members.UpdateRole(ctx, memberUserID, workspaceID, role.ID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if m == nil {
		return nil, ErrMemberNotFound
	}
	return m, nil
}

// JoinByInvite adds userID to the workspace behind code with the member role.
func (s *Service) JoinByInvite(ctx context.Context, userID, code string) (*domain.Workspace, *roledomain.Role, error) {
	ws, err := s.workspaces.GetByInviteCode(ctx, strings.TrimSpace(code))
	if err != nil {
		return nil, nil, apperror.Internal(err)
	}
	if ws == nil {
		return nil, nil, ErrInvalidInvite
	}
	existing, err := s.members.GetByUserAndWorkspace(ctx, userID, ws.ID)
	if err != nil {
		return nil, nil, apperror.Internal(err)
	}
	if existing != nil {
		return nil, nil, ErrAlreadyMember
	}
	role, err := s.roles.GetByName(ctx, roledomain.Member)
	if err != nil {
		return nil, nil, apperror.Internal(err)
	}
	if role == nil {
		return nil, nil, ErrMemberRoleNotFound
	}
	now := s.now()
	m := &membershipdomain.Member{
		ID:          uuid.NewString(),
		UserID:      userID,
		WorkspaceID: ws.ID,
		RoleID:      role.ID,
		JoinedAt:    now,
		CreatedAt:   now,
	}
	if err := s.members.Create(ctx, m); err != nil {
		if errors.Is(err, docstore.ErrDuplicate) {
			return nil, nil, ErrAlreadyMember
		}
		return nil, nil, apperror.Internal(err)
	}
	s.emit(ctx, telemetrydomain.EventMemberJoined, ws.ID, userID, map[string]string{"role": string(role.Name)})
	return ws, role, nil
}

// Delete removes the workspace with its members, projects and tasks in one coordinator run and
// moves the caller's current workspace to another membership (or clears it).
func (s *Service) Delete(ctx context.Context, workspaceID string) error {
	acc, err := s.authz.RequirePermission(ctx, workspaceID, roledomain.DeleteWorkspace)
	if err != nil {
		return err
	}
	ws, err := s.load(ctx, workspaceID)
	if err != nil {
		return err
	}
	if ws.Owner != acc.UserID {
		return rbac.ErrForbidden
	}
	_, err = s.runner.Run(ctx,
		func(ctx context.Context, sess docstore.Session) error {
			_, err := taskrepo.New(sess).DeleteByWorkspace(ctx, workspaceID)
			return err
		},
		func(ctx context.Context, sess docstore.Session) error {
			_, err := projectrepo.New(sess).DeleteByWorkspace(ctx, workspaceID)
			return err
		},
		func(ctx context.Context, sess docstore.Session) error {
			_, err := membershiprepo.New(sess).DeleteByWorkspace(ctx, workspaceID)
			return err
		},
		func(ctx context.Context, sess docstore.Session) error {
			return workspacerepo.New(sess).Delete(ctx, workspaceID)
		},
		s.reassignCurrent(acc.UserID, workspaceID),
	)
	if err != nil {
		return wrapInternal(err)
	}
	return nil
}

func (s *Service) reassignCurrent(userID, deletedID string) provisioning.Step {
	return func(ctx context.Context, sess docstore.Session) error {
		users := userrepo.New(sess)
		u, err := users.GetByID(ctx, userID)
		if err != nil || u == nil || u.CurrentWorkspace != deletedID {
			return err
		}
		rest, err := membershiprepo.New(sess).ListByUser(ctx, userID)
		if err != nil {
			return err
		}
		u.CurrentWorkspace = ""
		if len(rest) > 0 {
			u.CurrentWorkspace = rest[0].WorkspaceID
		}
		u.UpdatedAt = s.now()
		if err := users.Update(ctx, u); err != nil {
			return fmt.Errorf("reassign current workspace: %w", err)
		}
		return nil
	}
}

func (s *Service) load(ctx context.Context, workspaceID string) (*domain.Workspace, error) {
	ws, err := s.workspaces.GetByID(ctx, workspaceID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if ws == nil {
		return nil, ErrWorkspaceNotFound
	}
	return ws, nil
}

func (s *Service) emit(ctx context.Context, eventType, workspaceID, userID string, metadata map[string]string) {
	if s.emitter == nil {
		return
	}
	telemetry.EmitAsync(s.emitter, ctx, telemetrydomain.NewEvent(eventType, workspaceID, userID, metadata))
}

func wrapInternal(err error) error {
	var ae *apperror.Error
	if errors.As(err, &ae) {
		return err
	}
	return apperror.Internal(err)
}
