// Package handler serves a workspace's audit trail over HTTP.
package handler

import (
	"context"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"teamhub/backend/internal/apperror"
	"teamhub/backend/internal/audit/domain"
	"teamhub/backend/internal/platform/httpx"
	"teamhub/backend/internal/platform/rbac"
	roledomain "teamhub/backend/internal/role/domain"
)

const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// ErrInvalidPage is returned for a non-numeric or negative limit or offset.
var ErrInvalidPage = apperror.BadRequest("limit and offset must be non-negative integers")

// Authorizer checks the caller's permission in a workspace. Implemented by *rbac.Authorizer.
type Authorizer interface {
	RequirePermission(ctx context.Context, workspaceID string, permission roledomain.Permission) (*rbac.Access, error)
}

// Lister reads audit entries. Implemented by the audit repository.
type Lister interface {
	ListByWorkspace(ctx context.Context, workspaceID string, limit, offset int) ([]*domain.AuditLog, error)
}

// Handler serves GET /workspaces/{workspaceId}/audit-logs.
type Handler struct {
	authz Authorizer
	logs  Lister
}

// New returns a Handler.
func New(authz Authorizer, logs Lister) *Handler {
	return &Handler{authz: authz, logs: logs}
}

// Register mounts the audit route.
func (h *Handler) Register(r chi.Router) {
	r.Get("/workspaces/{workspaceId}/audit-logs", h.list)
}

// list returns a page of the workspace's audit entries, newest first. Requires MANAGE_WORKSPACE_SETTINGS.
func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	workspaceID := chi.URLParam(r, "workspaceId")
	if _, err := h.authz.RequirePermission(r.Context(), workspaceID, roledomain.ManageWorkspaceSettings); err != nil {
		httpx.Error(w, r, err)
		return
	}
	limit, offset, err := page(r)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	logs, err := h.logs.ListByWorkspace(r.Context(), workspaceID, limit, offset)
	if err != nil {
		httpx.Error(w, r, apperror.Internal(err))
		return
	}
	if logs == nil {
		logs = []*domain.AuditLog{}
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"auditLogs": logs, "limit": limit, "offset": offset})
}

func page(r *http.Request) (limit, offset int, err error) {
	limit = defaultPageSize
	q := r.URL.Query()
	if v := q.Get("limit"); v != "" {
		if limit, err = strconv.Atoi(v); err != nil || limit < 0 {
			return 0, 0, ErrInvalidPage
		}
	}
	switch {
	case limit == 0:
		limit = defaultPageSize
	case limit > maxPageSize:
		limit = maxPageSize
	}
	if v := q.Get("offset"); v != "" {
		if offset, err = strconv.Atoi(v); err != nil || offset < 0 {
			return 0, 0, ErrInvalidPage
		}
	}
	return limit, offset, nil
}
