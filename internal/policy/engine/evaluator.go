package engine

import (
	"context"

	roledomain "teamhub/backend/internal/role/domain"
)

// Evaluator decides whether a role grants a permission.
type Evaluator interface {
	// Allowed reports whether role grants permission. A nil role is never allowed.
	Allowed(ctx context.Context, role *roledomain.Role, permission roledomain.Permission) (bool, error)
}
