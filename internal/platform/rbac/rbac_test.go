package rbac

import (
	"context"
	"errors"
	"testing"

	"teamhub/backend/internal/apperror"
	membershipdomain "teamhub/backend/internal/membership/domain"
	"teamhub/backend/internal/policy/engine"
	roledomain "teamhub/backend/internal/role/domain"
	"teamhub/backend/internal/server/middleware"
)

type mockMembers struct {
	members map[string]*membershipdomain.Member
	err     error
}

func (m *mockMembers) GetByUserAndWorkspace(_ context.Context, userID, workspaceID string) (*membershipdomain.Member, error) {
	if m.err != nil {
		return nil, m.err
	}
	return m.members[userID+":"+workspaceID], nil
}

type mockRoles map[string]*roledomain.Role

func (m mockRoles) GetByID(_ context.Context, id string) (*roledomain.Role, error) {
	return m[id], nil
}

func newAuthorizer(t *testing.T, members *mockMembers) *Authorizer {
	t.Helper()
	eval, err := engine.NewOPAEvaluator(context.Background(), "")
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	cat := roledomain.DefaultPermissions()
	roles := mockRoles{}
	for _, name := range []roledomain.Name{roledomain.Owner, roledomain.Admin, roledomain.Member} {
		roles["role-"+string(name)] = &roledomain.Role{ID: "role-" + string(name), Name: name, Permissions: cat[name]}
	}
	return New(members, roles, eval)
}

func membersWith(role roledomain.Name) *mockMembers {
	return &mockMembers{members: map[string]*membershipdomain.Member{
		"user-1:ws-1": {ID: "m1", UserID: "user-1", WorkspaceID: "ws-1", RoleID: "role-" + string(role)},
	}}
}

func TestRequireMember_AnyRole(t *testing.T) {
	for _, role := range []roledomain.Name{roledomain.Owner, roledomain.Admin, roledomain.Member} {
		t.Run(string(role), func(t *testing.T) {
			a := newAuthorizer(t, membersWith(role))
			ctx := middleware.WithIdentity(context.Background(), "user-1", "ws-1")
			acc, err := a.RequireMember(ctx, "ws-1")
			if err != nil {
				t.Fatalf("RequireMember: %v", err)
			}
			if acc.UserID != "user-1" || acc.Role.Name != role {
				t.Errorf("access = %+v", acc)
			}
		})
	}
}

func TestRequireMember_Failures(t *testing.T) {
	tests := []struct {
		name    string
		ctx     context.Context
		members *mockMembers
		want    error
		kind    apperror.Kind
	}{
		{"no identity", context.Background(), membersWith(roledomain.Owner), ErrUnauthenticated, apperror.KindUnauthorized},
		{"not a member", middleware.WithIdentity(context.Background(), "user-2", ""), membersWith(roledomain.Owner), ErrNotMember, apperror.KindForbidden},
		{"lookup error", middleware.WithIdentity(context.Background(), "user-1", ""), &mockMembers{err: errors.New("db down")}, nil, apperror.KindInternal},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := newAuthorizer(t, tt.members)
			_, err := a.RequireMember(tt.ctx, "ws-1")
			if tt.want != nil && !errors.Is(err, tt.want) {
				t.Fatalf("err = %v, want %v", err, tt.want)
			}
			if !apperror.Is(err, tt.kind) {
				t.Errorf("kind = %s, want %s", apperror.KindOf(err), tt.kind)
			}
		})
	}
}

func TestRequirePermission(t *testing.T) {
	tests := []struct {
		role    roledomain.Name
		perm    roledomain.Permission
		allowed bool
	}{
		{roledomain.Owner, roledomain.ChangeMemberRole, true},
		{roledomain.Admin, roledomain.CreateProject, true},
		{roledomain.Admin, roledomain.EditWorkspace, false},
		{roledomain.Member, roledomain.EditTask, true},
		{roledomain.Member, roledomain.DeleteProject, false},
	}
	ctx := middleware.WithIdentity(context.Background(), "user-1", "ws-1")
	for _, tt := range tests {
		a := newAuthorizer(t, membersWith(tt.role))
		_, err := a.RequirePermission(ctx, "ws-1", tt.perm)
		if tt.allowed && err != nil {
			t.Errorf("%s/%s: unexpected error %v", tt.role, tt.perm, err)
		}
		if !tt.allowed && !errors.Is(err, ErrForbidden) {
			t.Errorf("%s/%s: err = %v, want ErrForbidden", tt.role, tt.perm, err)
		}
	}
}
