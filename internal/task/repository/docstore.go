package repository

import (
	"context"
	"sort"

	"teamhub/backend/internal/docstore"
	"teamhub/backend/internal/task/domain"
)

// DocRepository stores tasks in the "tasks" collection.
type DocRepository struct {
	c docstore.Collection
}

// New returns a task repository bound to sess.
func New(sess docstore.Session) *DocRepository {
	return &DocRepository{c: sess.Collection(docstore.CollectionTasks)}
}

// GetByID returns the task for id, or nil if not found.
func (r *DocRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	return docstore.GetByID[domain.Task](ctx, r.c, id)
}

// ListByProject returns the project's tasks, newest first.
func (r *DocRepository) ListByProject(ctx context.Context, projectID string) ([]*domain.Task, error) {
	list, err := docstore.FindAll[domain.Task](ctx, r.c, docstore.Filter{"project_id": projectID})
	if err != nil {
		return nil, err
	}
	sort.SliceStable(list, func(i, j int) bool { return list[i].CreatedAt.After(list[j].CreatedAt) })
	return list, nil
}

func (r *DocRepository) Create(ctx context.Context, t *domain.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return r.c.Insert(ctx, t.ID, t)
}

func (r *DocRepository) Update(ctx context.Context, t *domain.Task) error {
	if err := t.Validate(); err != nil {
		return err
	}
	return r.c.Replace(ctx, t.ID, t)
}

func (r *DocRepository) Delete(ctx context.Context, id string) error {
	return r.c.Delete(ctx, id)
}

// DeleteByWorkspace removes every task in the workspace.
func (r *DocRepository) DeleteByWorkspace(ctx context.Context, workspaceID string) (int64, error) {
	return r.c.DeleteMany(ctx, docstore.Filter{"workspace_id": workspaceID})
}

// DeleteByProject removes every task in the project.
func (r *DocRepository) DeleteByProject(ctx context.Context, projectID string) (int64, error) {
	return r.c.DeleteMany(ctx, docstore.Filter{"project_id": projectID})
}
