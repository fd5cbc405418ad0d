package engine

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	roledomain "teamhub/backend/internal/role/domain"
)

func newEvaluator(t *testing.T, policy string) *OPAEvaluator {
	t.Helper()
	e, err := NewOPAEvaluator(context.Background(), policy)
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	return e
}

func TestOPAEvaluator_HealthCheck(t *testing.T) {
	e := newEvaluator(t, "")
	if err := e.HealthCheck(context.Background()); err != nil {
		t.Fatalf("HealthCheck: %v", err)
	}
}

func TestOPAEvaluator_DefaultCatalogue(t *testing.T) {
	e := newEvaluator(t, "")
	ctx := context.Background()
	cat := roledomain.DefaultPermissions()
	tests := []struct {
		role roledomain.Name
		perm roledomain.Permission
		want bool
	}{
		{roledomain.Owner, roledomain.ChangeMemberRole, true},
		{roledomain.Owner, roledomain.DeleteWorkspace, true},
		{roledomain.Admin, roledomain.CreateProject, true},
		{roledomain.Admin, roledomain.EditWorkspace, false},
		{roledomain.Admin, roledomain.ChangeMemberRole, false},
		{roledomain.Member, roledomain.CreateTask, true},
		{roledomain.Member, roledomain.EditTask, true},
		{roledomain.Member, roledomain.DeleteTask, false},
		{roledomain.Member, roledomain.CreateProject, false},
	}
	for _, tt := range tests {
		role := &roledomain.Role{ID: string(tt.role), Name: tt.role, Permissions: cat[tt.role]}
		got, err := e.Allowed(ctx, role, tt.perm)
		if err != nil {
			t.Fatalf("Allowed(%s, %s): %v", tt.role, tt.perm, err)
		}
		if got != tt.want {
			t.Errorf("Allowed(%s, %s) = %v, want %v", tt.role, tt.perm, got, tt.want)
		}
	}
}

func TestOPAEvaluator_NilRoleDenied(t *testing.T) {
	e := newEvaluator(t, "")
	ok, err := e.Allowed(context.Background(), nil, roledomain.ViewOnly)
	if err != nil || ok {
		t.Errorf("Allowed(nil) = %v, %v; want false, nil", ok, err)
	}
}

func TestOPAEvaluator_CustomPolicy(t *testing.T) {
	// Owners may do anything, even permissions missing from their stored set.
	policy := `package teamhub.authz

default allow := false

allow if input.role.name == "owner"
`
	e := newEvaluator(t, policy)
	ctx := context.Background()
	owner := &roledomain.Role{Name: roledomain.Owner}
	if ok, _ := e.Allowed(ctx, owner, roledomain.DeleteWorkspace); !ok {
		t.Error("custom policy should allow owner")
	}
	admin := &roledomain.Role{Name: roledomain.Admin, Permissions: []roledomain.Permission{roledomain.CreateProject}}
	if ok, _ := e.Allowed(ctx, admin, roledomain.CreateProject); ok {
		t.Error("custom policy should deny admin")
	}
}

func TestNewOPAEvaluator_InvalidPolicy(t *testing.T) {
	if _, err := NewOPAEvaluator(context.Background(), "package broken\nallow if {"); err == nil {
		t.Error("NewOPAEvaluator should fail on invalid Rego")
	}
}

func TestLoadPolicyFile(t *testing.T) {
	if src, err := LoadPolicyFile(""); err != nil || src != DefaultPolicy {
		t.Errorf("LoadPolicyFile(\"\") = %q, %v", src, err)
	}
	path := filepath.Join(t.TempDir(), "authz.rego")
	if err := os.WriteFile(path, []byte(DefaultPolicy), 0o600); err != nil {
		t.Fatal(err)
	}
	if src, err := LoadPolicyFile(path); err != nil || src != DefaultPolicy {
		t.Errorf("LoadPolicyFile(file) = %q, %v", src, err)
	}
	if _, err := LoadPolicyFile(filepath.Join(t.TempDir(), "missing.rego")); err == nil {
		t.Error("missing file should fail")
	}
}
