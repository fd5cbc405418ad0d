package repository

import (
	"context"

	"teamhub/backend/internal/role/domain"
)

// Repository defines persistence for roles.
type Repository interface {
	GetByID(ctx context.Context, id string) (*domain.Role, error)
	GetByName(ctx context.Context, name domain.Name) (*domain.Role, error)
	List(ctx context.Context) ([]*domain.Role, error)
	Create(ctx context.Context, r *domain.Role) error
	Update(ctx context.Context, r *domain.Role) error
	DeleteAll(ctx context.Context) (int64, error)
}
