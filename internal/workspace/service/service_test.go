package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"teamhub/backend/internal/docstore"
	membershiprepo "teamhub/backend/internal/membership/repository"
	"teamhub/backend/internal/platform/rbac"
	projectdomain "teamhub/backend/internal/project/domain"
	projectrepo "teamhub/backend/internal/project/repository"
	roledomain "teamhub/backend/internal/role/domain"
	rolerepo "teamhub/backend/internal/role/repository"
	taskdomain "teamhub/backend/internal/task/domain"
	taskrepo "teamhub/backend/internal/task/repository"
	"teamhub/backend/internal/testenv"
	userrepo "teamhub/backend/internal/user/repository"
	workspacerepo "teamhub/backend/internal/workspace/repository"
)

func newService(env *testenv.Env) *Service {
	sess := env.Session()
	return NewService(Deps{
		Creator:    env.Workflow,
		Runner:     env.Coordinator,
		Authz:      env.Authz,
		Workspaces: workspacerepo.New(sess),
		Members:    membershiprepo.New(sess),
		Roles:      rolerepo.New(sess),
		Users:      userrepo.New(sess),
	})
}

func TestCreate_SwitchesCurrentWorkspace(t *testing.T) {
	env := testenv.New(t)
	svc := newService(env)
	ana, defaultWS := env.Register(t, "Ana", "ana@x.com")

	ws, err := svc.Create(testenv.As(ana), ana, "  Acme  ", "Acme team")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if ws.Name != "Acme" || ws.Owner != ana || ws.InviteCode == "" {
		t.Errorf("workspace = %+v", ws)
	}
	u, _ := userrepo.New(env.Session()).GetByID(context.Background(), ana)
	if u.CurrentWorkspace != ws.ID {
		t.Errorf("current_workspace = %q, want %q", u.CurrentWorkspace, ws.ID)
	}
	mine, err := svc.ListMine(context.Background(), ana)
	if err != nil || len(mine) != 2 {
		t.Fatalf("ListMine = %d, %v; want 2", len(mine), err)
	}
	ids := map[string]bool{mine[0].ID: true, mine[1].ID: true}
	if !ids[defaultWS] || !ids[ws.ID] {
		t.Errorf("ListMine ids = %v", ids)
	}

	if _, err := svc.Create(testenv.As(ana), ana, "   ", ""); !errors.Is(err, ErrNameRequired) {
		t.Errorf("blank name err = %v", err)
	}
}

func TestGet_RequiresMembership(t *testing.T) {
	env := testenv.New(t)
	svc := newService(env)
	_, ws := env.Register(t, "Ana", "ana@x.com")
	bob, _ := env.Register(t, "Bob", "bob@x.com")

	if _, err := svc.Get(testenv.As(bob), ws); !errors.Is(err, rbac.ErrNotMember) {
		t.Errorf("Get by outsider err = %v, want ErrNotMember", err)
	}
	if _, err := svc.Get(context.Background(), ws); !errors.Is(err, rbac.ErrUnauthenticated) {
		t.Errorf("Get anonymous err = %v", err)
	}
}

func TestJoinByInvite(t *testing.T) {
	env := testenv.New(t)
	svc := newService(env)
	ana, wsID := env.Register(t, "Ana", "ana@x.com")
	bob, _ := env.Register(t, "Bob", "bob@x.com")
	ws, err := svc.Get(testenv.As(ana), wsID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}

	joined, role, err := svc.JoinByInvite(testenv.As(bob), bob, " "+ws.InviteCode+" ")
	if err != nil {
		t.Fatalf("JoinByInvite: %v", err)
	}
	if joined.ID != wsID || role.Name != roledomain.Member {
		t.Errorf("joined %s as %s", joined.ID, role.Name)
	}
	if _, _, err := svc.JoinByInvite(testenv.As(bob), bob, ws.InviteCode); !errors.Is(err, ErrAlreadyMember) {
		t.Errorf("second join err = %v, want ErrAlreadyMember", err)
	}
	if _, _, err := svc.JoinByInvite(testenv.As(bob), bob, "nope"); !errors.Is(err, ErrInvalidInvite) {
		t.Errorf("bad code err = %v, want ErrInvalidInvite", err)
	}

	members, err := svc.Members(testenv.As(bob), wsID)
	if err != nil {
		t.Fatalf("Members: %v", err)
	}
	if len(members) != 2 {
		t.Fatalf("members = %d, want 2", len(members))
	}
	roles := map[string]roledomain.Name{}
	for _, m := range members {
		if m.User == nil || m.User.PasswordHash != "" {
			t.Errorf("member user = %+v", m.User)
		}
		roles[m.UserID] = m.Role.Name
	}
	if roles[ana] != roledomain.Owner || roles[bob] != roledomain.Member {
		t.Errorf("roles = %v", roles)
	}
}

func TestUpdate_RequiresEditWorkspace(t *testing.T) {
	env := testenv.New(t)
	svc := newService(env)
	ana, ws := env.Register(t, "Ana", "ana@x.com")
	bob, _ := env.Register(t, "Bob", "bob@x.com")
	env.AddMember(t, bob, ws, roledomain.Admin)

	if _, err := svc.Update(testenv.As(bob), ws, "Hijacked", ""); !errors.Is(err, rbac.ErrForbidden) {
		t.Errorf("admin update err = %v, want ErrForbidden", err)
	}
	got, err := svc.Update(testenv.As(ana), ws, "Renamed", "")
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Name != "Renamed" || got.Description == "" {
		t.Errorf("updated = %+v", got)
	}
}

func TestChangeMemberRole(t *testing.T) {
	env := testenv.New(t)
	svc := newService(env)
	ana, ws := env.Register(t, "Ana", "ana@x.com")
	bob, _ := env.Register(t, "Bob", "bob@x.com")
	carol, _ := env.Register(t, "Carol", "carol@x.com")
	env.AddMember(t, bob, ws, roledomain.Member)
	env.AddMember(t, carol, ws, roledomain.Admin)
	admin := env.Role(t, roledomain.Admin)
	owner := env.Role(t, roledomain.Owner)

	m, err := svc.ChangeMemberRole(testenv.As(ana), ws, bob, admin.ID)
	if err != nil {
		t.Fatalf("ChangeMemberRole: %v", err)
	}
	if m.RoleID != admin.ID {
		t.Errorf("role = %s, want admin", m.RoleID)
	}

	tests := []struct {
		name   string
		caller string
		target string
		roleID string
		want   error
	}{
		{"admin lacks permission", carol, bob, admin.ID, rbac.ErrForbidden},
		{"owner role", ana, bob, owner.ID, ErrOwnerRoleAssign},
		{"demote owner", ana, ana, admin.ID, ErrOwnerRoleChange},
		{"unknown role", ana, bob, "missing", ErrRoleNotFound},
		{"not a member", ana, "stranger", admin.ID, ErrMemberNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := svc.ChangeMemberRole(testenv.As(tt.caller), ws, tt.target, tt.roleID); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestDelete_RemovesEverythingAtomically(t *testing.T) {
	env := testenv.New(t)
	svc := newService(env)
	ctx := context.Background()
	ana, defaultWS := env.Register(t, "Ana", "ana@x.com")
	ws, err := svc.Create(testenv.As(ana), ana, "Doomed", "")
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	now := time.Now().UTC()
	p := &projectdomain.Project{ID: "p1", Name: "P", WorkspaceID: ws.ID, CreatedBy: ana, CreatedAt: now}
	if err := projectrepo.New(env.Session()).Create(ctx, p); err != nil {
		t.Fatal(err)
	}
	task := &taskdomain.Task{ID: "t1", Title: "T", ProjectID: "p1", WorkspaceID: ws.ID, CreatedBy: ana, CreatedAt: now}
	if err := taskrepo.New(env.Session()).Create(ctx, task); err != nil {
		t.Fatal(err)
	}

	if err := svc.Delete(testenv.As(ana), ws.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if n := env.Count(t, docstore.CollectionWorkspaces); n != 1 {
		t.Errorf("workspaces = %d, want 1", n)
	}
	if env.Count(t, docstore.CollectionProjects) != 0 || env.Count(t, docstore.CollectionTasks) != 0 {
		t.Error("projects and tasks should be deleted")
	}
	if n := env.Count(t, docstore.CollectionMembers); n != 1 {
		t.Errorf("members = %d, want 1", n)
	}
	u, _ := userrepo.New(env.Session()).GetByID(ctx, ana)
	if u.CurrentWorkspace != defaultWS {
		t.Errorf("current_workspace = %q, want %q", u.CurrentWorkspace, defaultWS)
	}
}

func TestDelete_OnlyOwner(t *testing.T) {
	env := testenv.New(t)
	svc := newService(env)
	_, ws := env.Register(t, "Ana", "ana@x.com")
	bob, _ := env.Register(t, "Bob", "bob@x.com")
	env.AddMember(t, bob, ws, roledomain.Owner)

	if err := svc.Delete(testenv.As(bob), ws); !errors.Is(err, rbac.ErrForbidden) {
		t.Errorf("non-owner delete err = %v, want ErrForbidden", err)
	}
	if err := svc.Delete(testenv.As(bob), "missing"); !errors.Is(err, rbac.ErrNotMember) {
		t.Errorf("missing workspace err = %v", err)
	}
}
