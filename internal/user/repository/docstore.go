package repository

import (
	"context"

	"teamhub/backend/internal/docstore"
	"teamhub/backend/internal/user/domain"
)

// DocRepository stores users in the "users" collection of a docstore session.
type DocRepository struct {
	c docstore.Collection
}

// New returns a user repository bound to sess. Writes go through sess only.
func New(sess docstore.Session) *DocRepository {
	return &DocRepository{c: sess.Collection(docstore.CollectionUsers)}
}

// GetByID returns the user for id, or nil if not found.
// It returns an error only for store failures, not for missing documents.
func (r *DocRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return docstore.GetByID[domain.User](ctx, r.c, id)
}

// GetByEmail returns the user with the given email, or nil if not found. The email is normalised first.
func (r *DocRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	return docstore.FindFirst[domain.User](ctx, r.c, docstore.Filter{"email": domain.NormalizeEmail(email)})
}

// Create persists the user. The user must have ID set. Returns docstore.ErrDuplicate when the email is taken.
func (r *DocRepository) Create(ctx context.Context, u *domain.User) error {
	u.Email = domain.NormalizeEmail(u.Email)
	if err := u.Validate(); err != nil {
		return err
	}
	return r.c.Insert(ctx, u.ID, u)
}

// Update overwrites the stored user. Returns docstore.ErrNotFound if it does not exist.
func (r *DocRepository) Update(ctx context.Context, u *domain.User) error {
	u.Email = domain.NormalizeEmail(u.Email)
	return r.c.Replace(ctx, u.ID, u)
}
