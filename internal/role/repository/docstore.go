package repository

import (
	"context"

	"teamhub/backend/internal/docstore"
	"teamhub/backend/internal/role/domain"
)

// DocRepository stores roles in the "roles" collection.
type DocRepository struct {
	c docstore.Collection
}

// New returns a role repository bound to sess.
func New(sess docstore.Session) *DocRepository {
	return &DocRepository{c: sess.Collection(docstore.CollectionRoles)}
}

// GetByID returns the role for id, or nil if not found.
func (r *DocRepository) GetByID(ctx context.Context, id string) (*domain.Role, error) {
	return docstore.GetByID[domain.Role](ctx, r.c, id)
}

// GetByName returns the role with the given name, or nil if not seeded.
func (r *DocRepository) GetByName(ctx context.Context, name domain.Name) (*domain.Role, error) {
	return docstore.FindFirst[domain.Role](ctx, r.c, docstore.Filter{"name": string(name)})
}

func (r *DocRepository) List(ctx context.Context) ([]*domain.Role, error) {
	return docstore.FindAll[domain.Role](ctx, r.c, nil)
}

func (r *DocRepository) Create(ctx context.Context, role *domain.Role) error {
	if err := role.Validate(); err != nil {
		return err
	}
	return r.c.Insert(ctx, role.ID, role)
}

func (r *DocRepository) Update(ctx context.Context, role *domain.Role) error {
	if err := role.Validate(); err != nil {
		return err
	}
	return r.c.Replace(ctx, role.ID, role)
}

// DeleteAll removes every role and returns how many were removed.
func (r *DocRepository) DeleteAll(ctx context.Context) (int64, error) {
	return r.c.DeleteMany(ctx, nil)
}
