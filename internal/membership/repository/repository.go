package repository

import (
	"context"

	"teamhub/backend/internal/membership/domain"
)

// Repository defines persistence for memberships.
type Repository interface {
	GetByUserAndWorkspace(ctx context.Context, userID, workspaceID string) (*domain.Member, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Member, error)
	ListByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Member, error)
	Create(ctx context.Context, m *domain.Member) error
	UpdateRole(ctx context.Context, userID, workspaceID, roleID string) (*domain.Member, error)
	DeleteByWorkspace(ctx context.Context, workspaceID string) (int64, error)
}
