package middleware

import (
	"fmt"
	"net/http"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"teamhub/backend/internal/audit"
)

// Audit records one audit entry for every state-changing request made by an authenticated caller.
// The action and resource come from the matched chi route pattern. Reads are not audited.
func Audit(l audit.AuditLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := chimw.NewWrapResponseWriter(w, r.ProtoMajor)
			next.ServeHTTP(ww, r)
			if l == nil || !mutating(r.Method) {
				return
			}
			userID, ok := GetUserID(r.Context())
			if !ok {
				return
			}
			pattern := r.URL.Path
			workspaceID := ""
			if rc := chi.RouteContext(r.Context()); rc != nil {
				if p := rc.RoutePattern(); p != "" {
					pattern = p
				}
				workspaceID = rc.URLParam("workspaceId")
			}
			if workspaceID == "" {
				workspaceID, _ = GetWorkspaceID(r.Context())
			}
			ar := audit.ParseRoute(r.Method, pattern)
			status := ww.Status()
			if status == 0 {
				status = http.StatusOK
			}
			l.LogEvent(r.Context(), workspaceID, userID, ar.Action, ar.Resource, fmt.Sprintf(`{"status":%d}`, status))
		})
	}
}

func mutating(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	}
	return false
}
