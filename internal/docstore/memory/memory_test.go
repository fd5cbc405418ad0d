package memory

import (
	"context"
	"errors"
	"testing"

	"teamhub/backend/internal/docstore"
)

type doc struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

func TestInsertGetAndDuplicate(t *testing.T) {
	ctx := context.Background()
	s := New()
	users := s.Session().Collection(docstore.CollectionUsers)

	if err := users.Insert(ctx, "u1", doc{ID: "u1", Email: "a@x.com", Name: "A"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	var got doc
	if err := users.Get(ctx, "u1", &got); err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Email != "a@x.com" {
		t.Errorf("email = %q", got.Email)
	}
	err := users.Insert(ctx, "u2", doc{ID: "u2", Email: "a@x.com"})
	if !errors.Is(err, docstore.ErrDuplicate) {
		t.Fatalf("second insert with same email: err = %v, want ErrDuplicate", err)
	}
	if err := users.Get(ctx, "missing", &got); !errors.Is(err, docstore.ErrNotFound) {
		t.Fatalf("Get missing: err = %v", err)
	}
}

func TestFindPreservesInsertionOrder(t *testing.T) {
	ctx := context.Background()
	s := New()
	c := s.Session().Collection(docstore.CollectionProjects)
	for _, id := range []string{"c", "a", "b"} {
		if err := c.Insert(ctx, id, doc{ID: id, Name: "same"}); err != nil {
			t.Fatalf("Insert %s: %v", id, err)
		}
	}
	docs, err := c.Find(ctx, docstore.Filter{"name": "same"})
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	out, err := docstore.DecodeAll[doc](docs)
	if err != nil {
		t.Fatalf("DecodeAll: %v", err)
	}
	if len(out) != 3 || out[0].ID != "c" || out[1].ID != "a" || out[2].ID != "b" {
		t.Fatalf("order = %+v", out)
	}
	n, err := c.DeleteMany(ctx, docstore.Filter{"name": "same"})
	if err != nil || n != 3 {
		t.Fatalf("DeleteMany = %d, %v", n, err)
	}
}

func TestTxIsolationAndCommit(t *testing.T) {
	ctx := context.Background()
	s := New()
	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	defer tx.End(ctx)
	if err := tx.Collection(docstore.CollectionUsers).Insert(ctx, "u1", doc{ID: "u1", Email: "a@x.com"}); err != nil {
		t.Fatalf("Insert: %v", err)
	}
	if n, _ := s.Session().Collection(docstore.CollectionUsers).Count(ctx, nil); n != 0 {
		t.Fatalf("uncommitted write visible outside tx: count = %d", n)
	}
	var got doc
	if err := tx.Collection(docstore.CollectionUsers).Get(ctx, "u1", &got); err != nil {
		t.Fatalf("read own write: %v", err)
	}
	if err := tx.Commit(ctx); err != nil {
		t.Fatalf("Commit: %v", err)
	}
	if n, _ := s.Session().Collection(docstore.CollectionUsers).Count(ctx, nil); n != 1 {
		t.Fatalf("after commit count = %d, want 1", n)
	}
}

func TestTxAbortDiscardsWrites(t *testing.T) {
	ctx := context.Background()
	s := New()
	tx, err := s.Begin(ctx)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	_ = tx.Collection(docstore.CollectionUsers).Insert(ctx, "u1", doc{ID: "u1", Email: "a@x.com"})
	if err := tx.Abort(ctx); err != nil {
		t.Fatalf("Abort: %v", err)
	}
	tx.End(ctx)
	if n, _ := s.Session().Collection(docstore.CollectionUsers).Count(ctx, nil); n != 0 {
		t.Fatalf("count = %d after abort", n)
	}
	if err := tx.Commit(ctx); err == nil {
		t.Fatal("Commit after Abort should fail")
	}
}

func TestCommitConflictLeavesStoreUnchanged(t *testing.T) {
	ctx := context.Background()
	s := New()
	tx, _ := s.Begin(ctx)
	defer tx.End(ctx)
	_ = tx.Collection(docstore.CollectionUsers).Insert(ctx, "u1", doc{ID: "u1", Email: "a@x.com"})
	_ = tx.Collection(docstore.CollectionAccounts).Insert(ctx, "a1", map[string]string{"provider": "EMAIL", "provider_id": "a@x.com"})

	// A concurrent writer takes the email first.
	if err := s.Session().Collection(docstore.CollectionUsers).Insert(ctx, "u2", doc{ID: "u2", Email: "a@x.com"}); err != nil {
		t.Fatalf("outside insert: %v", err)
	}
	if err := tx.Commit(ctx); !errors.Is(err, docstore.ErrDuplicate) {
		t.Fatalf("Commit err = %v, want ErrDuplicate", err)
	}
	if n, _ := s.Session().Collection(docstore.CollectionAccounts).Count(ctx, nil); n != 0 {
		t.Fatalf("accounts = %d, want 0 (commit must be all-or-nothing)", n)
	}
}

func TestBeginUnsupported(t *testing.T) {
	ctx := context.Background()
	s := New(WithTransactions(false))
	if ok, _ := s.SupportsTransactions(ctx); ok {
		t.Fatal("SupportsTransactions = true")
	}
	if _, err := s.Begin(ctx); !errors.Is(err, docstore.ErrTransactionsUnsupported) {
		t.Fatalf("Begin err = %v", err)
	}
	s.SetTransactional(true)
	if ok, _ := s.SupportsTransactions(ctx); !ok {
		t.Fatal("SupportsTransactions = false after toggle")
	}
}

func TestFailNextCommit(t *testing.T) {
	ctx := context.Background()
	s := New()
	boom := errors.New("boom")
	s.FailNextCommit(boom)
	tx, _ := s.Begin(ctx)
	defer tx.End(ctx)
	_ = tx.Collection(docstore.CollectionUsers).Insert(ctx, "u1", doc{ID: "u1", Email: "a@x.com"})
	if err := tx.Commit(ctx); !errors.Is(err, boom) {
		t.Fatalf("Commit err = %v", err)
	}
	if n, _ := s.Session().Collection(docstore.CollectionUsers).Count(ctx, nil); n != 0 {
		t.Fatalf("count = %d", n)
	}
}
