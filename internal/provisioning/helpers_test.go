package provisioning

import (
	"context"
	"path/filepath"
	"testing"

	"teamhub/backend/internal/db"
	"teamhub/backend/internal/docstore"
	"teamhub/backend/internal/docstore/memory"
	"teamhub/backend/internal/docstore/sqldoc"
	"teamhub/backend/internal/role"
	"teamhub/backend/internal/security"
)

type storeCase struct {
	name          string
	transactional bool
	open          func(t *testing.T) docstore.Store
}

var storeCases = []storeCase{
	{"memory transactional", true, func(t *testing.T) docstore.Store { return memory.New() }},
	{"memory degraded", false, func(t *testing.T) docstore.Store { return memory.New(memory.WithTransactions(false)) }},
	{"sqlite", true, openSQLite},
}

func openSQLite(t *testing.T) docstore.Store {
	t.Helper()
	conn, err := db.OpenSQLite(filepath.Join(t.TempDir(), "teamhub.db"))
	if err != nil {
		t.Fatalf("OpenSQLite: %v", err)
	}
	s := sqldoc.New(conn, sqldoc.SQLite)
	t.Cleanup(func() { _ = s.Close(context.Background()) })
	ctx := context.Background()
	if err := s.CreateTables(ctx); err != nil {
		t.Fatalf("CreateTables: %v", err)
	}
	if err := s.EnsureIndexes(ctx, docstore.UniqueIndexes); err != nil {
		t.Fatalf("EnsureIndexes: %v", err)
	}
	return s
}

func seedRoles(t *testing.T, s docstore.Store) {
	t.Helper()
	if _, err := role.Seed(context.Background(), s.Session(), role.DefaultCatalogue(), role.SeedKeep); err != nil {
		t.Fatalf("seed roles: %v", err)
	}
}

func newWorkflow(s docstore.Store) *Workflow {
	return NewWorkflow(NewCoordinator(s), security.NewHasher(4))
}

// recordCounts returns the number of documents in each provisioning collection.
func recordCounts(t *testing.T, s docstore.Store) map[string]int64 {
	t.Helper()
	out := map[string]int64{}
	for _, c := range []string{docstore.CollectionUsers, docstore.CollectionAccounts, docstore.CollectionWorkspaces, docstore.CollectionMembers} {
		n, err := s.Session().Collection(c).Count(context.Background(), nil)
		if err != nil {
			t.Fatalf("count %s: %v", c, err)
		}
		out[c] = n
	}
	return out
}

func wantCounts(t *testing.T, s docstore.Store, users, accounts, workspaces, members int64) {
	t.Helper()
	got := recordCounts(t, s)
	want := map[string]int64{
		docstore.CollectionUsers:      users,
		docstore.CollectionAccounts:   accounts,
		docstore.CollectionWorkspaces: workspaces,
		docstore.CollectionMembers:    members,
	}
	for c, n := range want {
		if got[c] != n {
			t.Errorf("%s count = %d, want %d", c, got[c], n)
		}
	}
}
