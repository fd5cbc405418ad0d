package service

import (
	"errors"
	"strings"
	"testing"

	membershiprepo "teamhub/backend/internal/membership/repository"
	"teamhub/backend/internal/platform/rbac"
	projectdomain "teamhub/backend/internal/project/domain"
	projectrepo "teamhub/backend/internal/project/repository"
	roledomain "teamhub/backend/internal/role/domain"
	"teamhub/backend/internal/task/domain"
	taskrepo "teamhub/backend/internal/task/repository"
	"teamhub/backend/internal/testenv"
)

type fixture struct {
	env     *testenv.Env
	svc     *Service
	owner   string
	member  string
	ws      string
	project string
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	env := testenv.New(t)
	sess := env.Session()
	owner, ws := env.Register(t, "Ana", "ana@x.com")
	member, _ := env.Register(t, "Bob", "bob@x.com")
	env.AddMember(t, member, ws, roledomain.Member)
	p := &projectdomain.Project{ID: "p1", Name: "Launch", WorkspaceID: ws, CreatedBy: owner}
	if err := projectrepo.New(sess).Create(testenv.As(owner), p); err != nil {
		t.Fatal(err)
	}
	svc := NewService(env.Authz, taskrepo.New(sess), projectrepo.New(sess), membershiprepo.New(sess))
	return &fixture{env: env, svc: svc, owner: owner, member: member, ws: ws, project: p.ID}
}

func TestCreate_Defaults(t *testing.T) {
	f := newFixture(t)
	task, err := f.svc.Create(testenv.As(f.member), f.ws, f.project, CreateInput{Title: " Write docs ", AssignedTo: f.owner})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if task.Status != domain.StatusTodo || task.Priority != domain.PriorityMedium {
		t.Errorf("defaults = %s/%s", task.Status, task.Priority)
	}
	if !strings.HasPrefix(task.TaskCode, "task-") || len(task.TaskCode) != len("task-")+3 {
		t.Errorf("task code = %q", task.TaskCode)
	}
	if task.Title != "Write docs" || task.CreatedBy != f.member || task.AssignedTo != f.owner {
		t.Errorf("task = %+v", task)
	}
}

func TestCreate_Validation(t *testing.T) {
	f := newFixture(t)
	outsider, _ := f.env.Register(t, "Eve", "eve@x.com")
	tests := []struct {
		name    string
		caller  string
		project string
		in      CreateInput
		want    error
	}{
		{"no title", f.owner, f.project, CreateInput{}, ErrTitleRequired},
		{"bad status", f.owner, f.project, CreateInput{Title: "x", Status: "WAITING"}, ErrInvalidStatus},
		{"bad priority", f.owner, f.project, CreateInput{Title: "x", Priority: "URGENT"}, ErrInvalidPriority},
		{"assignee outside", f.owner, f.project, CreateInput{Title: "x", AssignedTo: outsider}, ErrAssigneeNotMember},
		{"unknown project", f.owner, "nope", CreateInput{Title: "x"}, ErrProjectNotFound},
		{"outsider", outsider, f.project, CreateInput{Title: "x"}, rbac.ErrNotMember},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Create(testenv.As(tt.caller), f.ws, tt.project, tt.in); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestUpdate_Patch(t *testing.T) {
	f := newFixture(t)
	task, _ := f.svc.Create(testenv.As(f.owner), f.ws, f.project, CreateInput{Title: "T", Description: "keep", AssignedTo: f.member})

	done := domain.StatusDone
	unassign := ""
	got, err := f.svc.Update(testenv.As(f.member), f.ws, f.project, task.ID, UpdateInput{Status: &done, AssignedTo: &unassign})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if got.Status != domain.StatusDone || got.AssignedTo != "" || got.Description != "keep" || got.Title != "T" {
		t.Errorf("patched = %+v", got)
	}

	bad := domain.Priority("URGENT")
	if _, err := f.svc.Update(testenv.As(f.owner), f.ws, f.project, task.ID, UpdateInput{Priority: &bad}); !errors.Is(err, ErrInvalidPriority) {
		t.Errorf("bad priority err = %v", err)
	}
	if _, err := f.svc.Update(testenv.As(f.owner), f.ws, "other", task.ID, UpdateInput{}); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("wrong project err = %v", err)
	}
}

func TestListGetDelete(t *testing.T) {
	f := newFixture(t)
	a, _ := f.svc.Create(testenv.As(f.owner), f.ws, f.project, CreateInput{Title: "A"})
	if _, err := f.svc.Create(testenv.As(f.owner), f.ws, f.project, CreateInput{Title: "B"}); err != nil {
		t.Fatal(err)
	}

	list, err := f.svc.ListByProject(testenv.As(f.member), f.ws, f.project)
	if err != nil || len(list) != 2 {
		t.Fatalf("ListByProject = %d, %v", len(list), err)
	}
	if got, err := f.svc.Get(testenv.As(f.member), f.ws, f.project, a.ID); err != nil || got.Title != "A" {
		t.Errorf("Get = %+v, %v", got, err)
	}

	if err := f.svc.Delete(testenv.As(f.member), f.ws, f.project, a.ID); !errors.Is(err, rbac.ErrForbidden) {
		t.Errorf("member delete err = %v, want ErrForbidden", err)
	}
	if err := f.svc.Delete(testenv.As(f.owner), f.ws, f.project, a.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.svc.Get(testenv.As(f.owner), f.ws, f.project, a.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Get after delete err = %v", err)
	}
}
