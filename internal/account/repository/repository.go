package repository

import (
	"context"

	"teamhub/backend/internal/account/domain"
)

// Repository defines persistence for linked accounts.
type Repository interface {
	GetByProvider(ctx context.Context, provider domain.Provider, providerID string) (*domain.Account, error)
	ListByUser(ctx context.Context, userID string) ([]*domain.Account, error)
	Create(ctx context.Context, a *domain.Account) error
}
