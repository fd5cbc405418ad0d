package repository

import (
	"context"
	"sort"

	"teamhub/backend/internal/audit/domain"
	"teamhub/backend/internal/docstore"
)

// DocRepository stores audit events in the "audit_logs" collection.
type DocRepository struct {
	c docstore.Collection
}

// New returns an audit repository bound to sess.
func New(sess docstore.Session) *DocRepository {
	return &DocRepository{c: sess.Collection(docstore.CollectionAuditLogs)}
}

// ListByWorkspace returns a page of events for the workspace, newest first.
func (r *DocRepository) ListByWorkspace(ctx context.Context, workspaceID string, limit, offset int) ([]*domain.AuditLog, error) {
	list, err := docstore.FindAll[domain.AuditLog](ctx, r.c, docstore.Filter{"workspace_id": workspaceID})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	if offset >= len(list) {
		return nil, nil
	}
	list = list[offset:]
	if limit > 0 && limit < len(list) {
		list = list[:limit]
	}
	return list, nil
}

func (r *DocRepository) Create(ctx context.Context, a *domain.AuditLog) error {
	return r.c.Insert(ctx, a.ID, a)
}
