package middleware

import (
	"context"
	"net/http"
	"strings"

	"teamhub/backend/internal/apperror"
	"teamhub/backend/internal/platform/httpx"
	"teamhub/backend/internal/security"
)

const bearerPrefix = "bearer "

var errUnauthenticated = apperror.Unauthorized("Unauthorized. Please log in.")

// Authenticator validates an access token. Implemented by the auth service.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*security.AccessClaims, error)
}

// RequireAuth validates the Bearer token (or the session cookie when no header is sent) and stores
// the claims in the request context. Requests without a valid token get 401.
func RequireAuth(authn Authenticator, cookieName string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := ExtractToken(r, cookieName)
			if token == "" {
				httpx.Error(w, r, errUnauthenticated)
				return
			}
			claims, err := authn.Authenticate(r.Context(), token)
			if err != nil {
				httpx.Error(w, r, err)
				return
			}
			next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
		})
	}
}

// ExtractToken returns the Bearer token from the Authorization header, falling back to the named
// cookie. Returns "" when neither is present or the header is malformed.
func ExtractToken(r *http.Request, cookieName string) string {
	if v := strings.TrimSpace(r.Header.Get("Authorization")); v != "" {
		if len(v) < len(bearerPrefix) || !strings.EqualFold(v[:len(bearerPrefix)], bearerPrefix) {
			return ""
		}
		return strings.TrimSpace(v[len(bearerPrefix):])
	}
	if cookieName == "" {
		return ""
	}
	if c, err := r.Cookie(cookieName); err == nil {
		return c.Value
	}
	return ""
}
