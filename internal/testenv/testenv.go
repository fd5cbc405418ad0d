// Package testenv wires an in-memory store, seeded roles, the provisioning workflow and the
// authorizer for service tests. For tests only.
package testenv

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/google/uuid"

	"teamhub/backend/internal/docstore"
	"teamhub/backend/internal/docstore/memory"
	membershipdomain "teamhub/backend/internal/membership/domain"
	membershiprepo "teamhub/backend/internal/membership/repository"
	"teamhub/backend/internal/platform/rbac"
	"teamhub/backend/internal/policy/engine"
	"teamhub/backend/internal/provisioning"
	"teamhub/backend/internal/role"
	roledomain "teamhub/backend/internal/role/domain"
	rolerepo "teamhub/backend/internal/role/repository"
	"teamhub/backend/internal/security"
	"teamhub/backend/internal/server/middleware"
)

// Env is a fully wired in-memory backend.
type Env struct {
	Store       *memory.Store
	Coordinator *provisioning.Coordinator
	Workflow    *provisioning.Workflow
	Authz       *rbac.Authorizer
}

// New returns an Env backed by a transactional memory store with the default roles seeded.
func New(t *testing.T) *Env {
	t.Helper()
	ctx := context.Background()
	store := memory.New()
	if _, err := role.Seed(ctx, store.Session(), role.DefaultCatalogue(), role.SeedKeep); err != nil {
		t.Fatalf("seed roles: %v", err)
	}
	eval, err := engine.NewOPAEvaluator(ctx, "")
	if err != nil {
		t.Fatalf("NewOPAEvaluator: %v", err)
	}
	coord := provisioning.NewCoordinator(store)
	sess := store.Session()
	return &Env{
		Store:       store,
		Coordinator: coord,
		Workflow:    provisioning.NewWorkflow(coord, security.NewHasher(4)),
		Authz:       rbac.New(membershiprepo.New(sess), rolerepo.New(sess), eval),
	}
}

// Session returns a non-transactional session on the store.
func (e *Env) Session() docstore.Session { return e.Store.Session() }

// Register provisions a local user and returns its ID and default workspace ID.
func (e *Env) Register(t *testing.T, name, email string) (userID, workspaceID string) {
	t.Helper()
	res, err := e.Workflow.Register(context.Background(), provisioning.RegisterInput{Name: name, Email: email, Password: "password123"})
	if err != nil {
		t.Fatalf("Register(%s): %v", email, err)
	}
	return res.UserID, res.WorkspaceID
}

// Role returns the seeded role with the given name.
func (e *Env) Role(t *testing.T, name roledomain.Name) *roledomain.Role {
	t.Helper()
	r, err := rolerepo.New(e.Session()).GetByName(context.Background(), name)
	if err != nil || r == nil {
		t.Fatalf("role %s: %v", name, err)
	}
	return r
}

// AddMember makes userID a member of workspaceID with the named role, or changes its role.
func (e *Env) AddMember(t *testing.T, userID, workspaceID string, name roledomain.Name) {
	t.Helper()
	ctx := context.Background()
	r := e.Role(t, name)
	repo := membershiprepo.New(e.Session())
	m, err := repo.GetByUserAndWorkspace(ctx, userID, workspaceID)
	if err != nil {
		t.Fatalf("get member: %v", err)
	}
	if m != nil {
		_, err = repo.UpdateRole(ctx, userID, workspaceID, r.ID)
	} else {
		err = repo.Create(ctx, newMember(userID, workspaceID, r.ID))
	}
	if err != nil {
		t.Fatalf("add member: %v", err)
	}
}

// As returns a context authenticated as userID.
func As(userID string) context.Context {
	return middleware.WithIdentity(context.Background(), userID, "")
}

// Count returns the number of documents in the collection.
func (e *Env) Count(t *testing.T, collection string) int64 {
	t.Helper()
	n, err := e.Session().Collection(collection).Count(context.Background(), nil)
	if err != nil {
		t.Fatalf("count %s: %v", collection, err)
	}
	return n
}

func newMember(userID, workspaceID, roleID string) *membershipdomain.Member {
	now := time.Now().UTC()
	return &membershipdomain.Member{
		ID:          uuid.NewString(),
		UserID:      userID,
		WorkspaceID: workspaceID,
		RoleID:      roleID,
		JoinedAt:    now,
		CreatedAt:   now,
	}
}

// UserHeader carries the caller's user ID for handler tests routed through Identity.
const UserHeader = "X-User-ID"

// Identity authenticates requests as the user named in UserHeader, standing in for RequireAuth.
func Identity(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if id := r.Header.Get(UserHeader); id != "" {
			r = r.WithContext(middleware.WithIdentity(r.Context(), id, ""))
		}
		next.ServeHTTP(w, r)
	})
}
