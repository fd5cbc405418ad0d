package repository

import (
	"context"

	"teamhub/backend/internal/project/domain"
)

// Repository defines persistence for projects.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Project, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Project, error)
	Create(ctx context.Context, p *domain.Project) error
	Update(ctx context.Context, p *domain.Project) error
	Delete(ctx context.Context, id string) error
	DeleteByWorkspace(ctx context.Context, workspaceID string) (int64, error)
}
