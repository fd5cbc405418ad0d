package repository

import (
	"context"
	"sort"

	"teamhub/backend/internal/docstore"
	"teamhub/backend/internal/project/domain"
)

// DocRepository stores projects in the "projects" collection.
type DocRepository struct {
	c docstore.Collection
}

// New returns a project repository bound to sess.
func New(sess docstore.Session) *DocRepository {
	return &DocRepository{c: sess.Collection(docstore.CollectionProjects)}
}

// GetByID returns the project for id, or nil if not found.
func (r *DocRepository) GetByID(ctx context.Context, id string) (*domain.Project, error) {
	return docstore.GetByID[domain.Project](ctx, r.c, id)
}

// ListByWorkspace returns the workspace's projects, newest first.
func (r *DocRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Project, error) {
	list, err := docstore.FindAll[domain.Project](ctx, r.c, docstore.Filter{"workspace_id": workspaceID})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (r *DocRepository) Create(ctx context.Context, p *domain.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return r.c.Insert(ctx, p.ID, p)
}

func (r *DocRepository) Update(ctx context.Context, p *domain.Project) error {
	if err := p.Validate(); err != nil {
		return err
	}
	return r.c.Replace(ctx, p.ID, p)
}

// DeleteByWorkspace removes every project in the workspace.
func (r *DocRepository) DeleteByWorkspace(ctx context.Context, workspaceID string) (int64, error) {
	return r.c.DeleteMany(ctx, docstore.Filter{"workspace_id": workspaceID})
}

// Delete removes the project. Returns docstore.ErrNotFound if it does not exist.
func (r *DocRepository) Delete(ctx context.Context, id string) error {
	return r.c.Delete(ctx, id)
}
