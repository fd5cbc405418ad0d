package repository

import (
	"context"

	"teamhub/backend/internal/docstore"
	"teamhub/backend/internal/membership/domain"
)

// DocRepository stores memberships in the "members" collection.
type DocRepository struct {
	c docstore.Collection
}

// New returns a membership repository bound to sess.
func New(sess docstore.Session) *DocRepository {
	return &DocRepository{c: sess.Collection(docstore.CollectionMembers)}
}

// GetByUserAndWorkspace returns the membership, or nil if the user is not a member.
func (r *DocRepository) GetByUserAndWorkspace(ctx context.Context, userID, workspaceID string) (*domain.Member, error) {
	return docstore.FindFirst[domain.Member](ctx, r.c, docstore.Filter{"user_id": userID, "workspace_id": workspaceID})
}

func (r *DocRepository) ListByUser(ctx context.Context, userID string) ([]*domain.Member, error) {
	return docstore.FindAll[domain.Member](ctx, r.c, docstore.Filter{"user_id": userID})
}

func (r *DocRepository) ListByWorkspace(ctx context.Context, workspaceID string) ([]*domain.Member, error) {
	return docstore.FindAll[domain.Member](ctx, r.c, docstore.Filter{"workspace_id": workspaceID})
}

// Create persists the membership. Returns docstore.ErrDuplicate if the user is already a member.
func (r *DocRepository) Create(ctx context.Context, m *domain.Member) error {
	if err := m.Validate(); err != nil {
		return err
	}
	return r.c.Insert(ctx, m.ID, m)
}

// DeleteByWorkspace removes every membership of the workspace.
func (r *DocRepository) DeleteByWorkspace(ctx context.Context, workspaceID string) (int64, error) {
	return r.c.DeleteMany(ctx, docstore.Filter{"workspace_id": workspaceID})
}

// UpdateRole sets the role of an existing membership. Returns nil, nil if the membership does not exist.
func (r *DocRepository) UpdateRole(ctx context.Context, userID, workspaceID, roleID string) (*domain.Member, error) {
	m, err := r.GetByUserAndWorkspace(ctx, userID, workspaceID)
	if err != nil || m == nil {
		return nil, err
	}
	m.RoleID = roleID
	if err := r.c.Replace(ctx, m.ID, m); err != nil {
		return nil, err
	}
	return m, nil
}
