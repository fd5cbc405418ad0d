package repository

import (
	"context"

	"teamhub/backend/internal/account/domain"
	"teamhub/backend/internal/docstore"
)

// DocRepository stores accounts in the "accounts" collection.
type DocRepository struct {
	c docstore.Collection
}

// New returns an account repository bound to sess.
func New(sess docstore.Session) *DocRepository {
	return &DocRepository{c: sess.Collection(docstore.CollectionAccounts)}
}

// GetByProvider returns the account for (provider, providerID), or nil if not found.
func (r *DocRepository) GetByProvider(ctx context.Context, provider domain.Provider, providerID string) (*domain.Account, error) {
	return docstore.FindFirst[domain.Account](ctx, r.c, docstore.Filter{
		"provider":    string(provider),
		"provider_id": providerID,
	})
}

func (r *DocRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Account, error) {
	return docstore.FindAll[domain.Account](ctx, r.c, docstore.Filter{"user_id": userID})
}

// Create persists the account. Returns docstore.ErrDuplicate when (provider, provider_id) is already linked.
func (r *DocRepository) Create(ctx context.Context, a *domain.Account) error {
	if err := a.Validate(); err != nil {
		return err
	}
	return r.c.Insert(ctx, a.ID, a)
}
