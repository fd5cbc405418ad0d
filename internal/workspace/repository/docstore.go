package repository

import (
	"context"

	"teamhub/backend/internal/docstore"
	"teamhub/backend/internal/workspace/domain"
)

// DocRepository stores workspaces in the "workspaces" collection.
type DocRepository struct {
	c docstore.Collection
}

// New returns a workspace repository bound to sess.
func New(sess docstore.Session) *DocRepository {
	return &DocRepository{c: sess.Collection(docstore.CollectionWorkspaces)}
}

// GetByID returns the workspace for id, or nil if not found.
func (r *DocRepository) GetByID(ctx context.Context, id string) (*domain.Workspace, error) {
	return docstore.GetByID[domain.Workspace](ctx, r.c, id)
}

// GetByInviteCode returns the workspace with the given invite code, or nil if not found.
func (r *DocRepository) GetByInviteCode(ctx context.Context, code string) (*domain.Workspace, error) {
	return docstore.FindFirst[domain.Workspace](ctx, r.c, docstore.Filter{"invite_code": code})
}

// Create persists the workspace. The workspace must have ID set.
func (r *DocRepository) Create(ctx context.Context, w *domain.Workspace) error {
	if err := w.Validate(); err != nil {
		return err
	}
	return r.c.Insert(ctx, w.ID, w)
}

// Delete removes the workspace. Returns docstore.ErrNotFound if it does not exist.
func (r *DocRepository) Delete(ctx context.Context, id string) error {
	return r.c.Delete(ctx, id)
}

func (r *DocRepository) Update(ctx context.Context, w *domain.Workspace) error {
	if err := w.Validate(); err != nil {
		return err
	}
	return r.c.Replace(ctx, w.ID, w)
}
