// Package rbac resolves the caller's workspace membership and checks role permissions.
package rbac

import (
	"context"

	"teamhub/backend/internal/apperror"
	membershipdomain "teamhub/backend/internal/membership/domain"
	"teamhub/backend/internal/policy/engine"
	roledomain "teamhub/backend/internal/role/domain"
	"teamhub/backend/internal/server/middleware"
)

// Errors returned by the authorizer.
var (
	ErrUnauthenticated = apperror.Unauthorized("Unauthorized. Please log in.")
	ErrNotMember       = apperror.Forbidden("You are not a member of this workspace")
	ErrForbidden       = apperror.Forbidden("You do not have the necessary permissions to perform this action")
)

// MembershipGetter returns a user's membership in a workspace, or nil if there is none.
type MembershipGetter interface {
	GetByUserAndWorkspace(ctx context.Context, userID, workspaceID string) (*membershipdomain.Member, error)
}

// RoleGetter returns a role by ID, or nil if it does not exist.
type RoleGetter interface {
	GetByID(ctx context.Context, id string) (*roledomain.Role, error)
}

// Access is the resolved caller of a workspace-scoped request.
type Access struct {
	UserID string
	Member *membershipdomain.Member
	Role   *roledomain.Role
}

// Authorizer implements workspace membership and permission checks.
type Authorizer struct {
	members MembershipGetter
	roles   RoleGetter
	policy  engine.Evaluator
}

// New returns an Authorizer.
func New(members MembershipGetter, roles RoleGetter, policy engine.Evaluator) *Authorizer {
	return &Authorizer{members: members, roles: roles, policy: policy}
}

// RequireMember ensures the caller is authenticated and belongs to workspaceID (any role).
func (a *Authorizer) RequireMember(ctx context.Context, workspaceID string) (*Access, error) {
	userID, ok := middleware.GetUserID(ctx)
	if !ok {
		return nil, ErrUnauthenticated
	}
	m, err := a.members.GetByUserAndWorkspace(ctx, userID, workspaceID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if m == nil {
		return nil, ErrNotMember
	}
	role, err := a.roles.GetByID(ctx, m.RoleID)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	return &Access{UserID: userID, Member: m, Role: role}, nil
}

// RequirePermission ensures the caller is a member of workspaceID whose role grants permission.
func (a *Authorizer) RequirePermission(ctx context.Context, workspaceID string, permission roledomain.Permission) (*Access, error) {
	acc, err := a.RequireMember(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	allowed, err := a.policy.Allowed(ctx, acc.Role, permission)
	if err != nil {
		return nil, apperror.Internal(err)
	}
	if !allowed {
		return nil, ErrForbidden
	}
	return acc, nil
}
