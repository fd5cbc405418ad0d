package middleware

import (
	"net"
	"net/http"
	"strings"

	"teamhub/backend/internal/audit"
)

// ClientIP stores the caller's address in the request context for audit records.
func ClientIP(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := audit.WithClientIP(r.Context(), RemoteIP(r))
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RemoteIP returns the client IP from X-Forwarded-For, X-Real-IP or the peer address, or "unknown".
func RemoteIP(r *http.Request) string {
	if s := strings.TrimSpace(r.Header.Get("X-Forwarded-For")); s != "" {
		if i := strings.Index(s, ","); i > 0 {
			s = strings.TrimSpace(s[:i])
		}
		return s
	}
	if s := strings.TrimSpace(r.Header.Get("X-Real-IP")); s != "" {
		return s
	}
	if r.RemoteAddr == "" {
		return "unknown"
	}
	if host, _, err := net.SplitHostPort(r.RemoteAddr); err == nil {
		return host
	}
	return r.RemoteAddr
}
