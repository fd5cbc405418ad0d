package audit

import (
	"context"
	"errors"
	"testing"

	"teamhub/backend/internal/audit/domain"
)

// mockAuditRepo implements audit repository interface for tests.
type mockAuditRepo struct {
	entries   []*domain.AuditLog
	createErr error
}

func (m *mockAuditRepo) Create(ctx context.Context, entry *domain.AuditLog) error {
	if m.createErr != nil {
		return m.createErr
	}
	if m.entries == nil {
		m.entries = make([]*domain.AuditLog, 0)
	}
	m.entries = append(m.entries, entry)
	return nil
}

func (m *mockAuditRepo) ListByWorkspace(ctx context.Context, workspaceID string, limit, offset int) ([]*domain.AuditLog, error) {
	return m.entries, nil
}

func TestLogger_LogEvent_Success(t *testing.T) {
	repo := &mockAuditRepo{}
	ipExtractor := func(ctx context.Context) string {
		return "192.168.1.1"
	}
	logger := NewLogger(repo, ipExtractor)
	ctx := context.Background()

	logger.LogEvent(ctx, "ws-1", "user-1", "test_action", "test_resource", "metadata")

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	entry := repo.entries[0]
	if entry.WorkspaceID != "ws-1" {
		t.Errorf("workspace_id = %q, want %q", entry.WorkspaceID, "ws-1")
	}
	if entry.UserID != "user-1" {
		t.Errorf("user_id = %q, want %q", entry.UserID, "user-1")
	}
	if entry.Action != "test_action" {
		t.Errorf("action = %q, want %q", entry.Action, "test_action")
	}
	if entry.Resource != "test_resource" {
		t.Errorf("resource = %q, want %q", entry.Resource, "test_resource")
	}
	if entry.IP != "192.168.1.1" {
		t.Errorf("ip = %q, want %q", entry.IP, "192.168.1.1")
	}
	if entry.Metadata != "metadata" {
		t.Errorf("metadata = %q, want %q", entry.Metadata, "metadata")
	}
	if entry.ID == "" {
		t.Error("entry ID should be set")
	}
	if entry.CreatedAt.IsZero() {
		t.Error("entry CreatedAt should be set")
	}
}

func TestLogger_LogEvent_UsesIPExtractor(t *testing.T) {
	repo := &mockAuditRepo{}
	ipExtractor := func(ctx context.Context) string {
		return "10.0.0.1"
	}
	logger := NewLogger(repo, ipExtractor)
	ctx := context.Background()

	logger.LogEvent(ctx, "ws-1", "user-1", "action", "resource", "")

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	if repo.entries[0].IP != "10.0.0.1" {
		t.Errorf("ip = %q, want %q", repo.entries[0].IP, "10.0.0.1")
	}
}

func TestLogger_LogEvent_NilIPExtractor(t *testing.T) {
	repo := &mockAuditRepo{}
	logger := NewLogger(repo, nil)
	ctx := context.Background()

	logger.LogEvent(ctx, "ws-1", "user-1", "action", "resource", "")

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	if repo.entries[0].IP != "unknown" {
		t.Errorf("ip = %q, want %q", repo.entries[0].IP, "unknown")
	}
}

func TestLogger_LogEvent_SentinelWorkspaceID(t *testing.T) {
	repo := &mockAuditRepo{}
	logger := NewLogger(repo, nil)
	ctx := context.Background()

	logger.LogEvent(ctx, "", "user-1", "action", "resource", "")

	if len(repo.entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(repo.entries))
	}
	if repo.entries[0].WorkspaceID != SentinelWorkspaceID {
		t.Errorf("workspace_id = %q, want %q", repo.entries[0].WorkspaceID, SentinelWorkspaceID)
	}
}

func TestLogger_LogEvent_RepositoryError(t *testing.T) {
	repo := &mockAuditRepo{
		createErr: errors.New("database error"),
	}
	logger := NewLogger(repo, nil)
	ctx := context.Background()

	// Should not panic or return error - best-effort logging
	logger.LogEvent(ctx, "ws-1", "user-1", "action", "resource", "")
}

func TestLogger_LogEvent_NilRepo(t *testing.T) {
	logger := NewLogger(nil, nil)
	ctx := context.Background()

	// Should not panic - no-op when repo is nil
	logger.LogEvent(ctx, "ws-1", "user-1", "action", "resource", "")
}

func TestClientIPFromContext(t *testing.T) {
	ctx := WithClientIP(context.Background(), "203.0.113.7")
	repo := &mockAuditRepo{}
	NewLogger(repo, ClientIPFromContext).LogEvent(ctx, "ws-1", "user-1", "create", "project", "")
	if len(repo.entries) != 1 || repo.entries[0].IP != "203.0.113.7" {
		t.Fatalf("entries = %+v", repo.entries)
	}
	if ClientIPFromContext(context.Background()) != "" {
		t.Error("ClientIPFromContext without value should be empty")
	}
}
