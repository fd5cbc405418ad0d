package repository

import (
	"context"

	"teamhub/backend/internal/workspace/domain"
)

// Repository defines persistence for workspaces.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Workspace, error)
	GetByInviteCode(ctx context.Context, code string) (*domain.Workspace, error)
	Create(ctx context.Context, w *domain.Workspace) error
	Update(ctx context.Context, w *domain.Workspace) error
	Delete(ctx context.Context, id string) error
}
