package middleware

import (
	"context"

	"teamhub/backend/internal/security"
)

type contextKey struct{ name string }

var (
	userIDKey      = contextKey{"user_id"}
	workspaceIDKey = contextKey{"workspace_id"}
	claimsKey      = contextKey{"claims"}
)

// WithIdentity returns a context with user_id and workspace_id set.
// Handlers and the authorizer read these via GetUserID and GetWorkspaceID.
func WithIdentity(ctx context.Context, userID, workspaceID string) context.Context {
	ctx = context.WithValue(ctx, userIDKey, userID)
	ctx = context.WithValue(ctx, workspaceIDKey, workspaceID)
	return ctx
}

// WithClaims stores validated access-token claims and the identity they carry.
func WithClaims(ctx context.Context, claims *security.AccessClaims) context.Context {
	ctx = WithIdentity(ctx, claims.UserID(), claims.WorkspaceID)
	return context.WithValue(ctx, claimsKey, claims)
}

// GetUserID returns the user_id from context and true if set; otherwise "", false.
func GetUserID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(userIDKey).(string)
	return v, ok && v != ""
}

// GetWorkspaceID returns the workspace the token was issued for.
func GetWorkspaceID(ctx context.Context) (string, bool) {
	v, ok := ctx.Value(workspaceIDKey).(string)
	return v, ok && v != ""
}

// ClaimsFrom returns the access-token claims, or nil for unauthenticated requests.
func ClaimsFrom(ctx context.Context) *security.AccessClaims {
	c, _ := ctx.Value(claimsKey).(*security.AccessClaims)
	return c
}
