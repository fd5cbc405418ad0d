package repository

import (
	"context"

	"teamhub/backend/internal/task/domain"
)

// Repository defines persistence for tasks.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	ListByProject(ctx context.Context, projectID string) ([]*domain.Task, error)
	Create(ctx context.Context, t *domain.Task) error
	Update(ctx context.Context, t *domain.Task) error
	Delete(ctx context.Context, id string) error
	DeleteByProject(ctx context.Context, projectID string) (int64, error)
	DeleteByWorkspace(ctx context.Context, workspaceID string) (int64, error)
}
