// Package handler exposes workspace, membership and invite routes over HTTP.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	membershipdomain "teamhub/backend/internal/membership/domain"
	"teamhub/backend/internal/platform/httpx"
	roledomain "teamhub/backend/internal/role/domain"
	"teamhub/backend/internal/server/middleware"
	"teamhub/backend/internal/workspace/domain"
	"teamhub/backend/internal/workspace/service"
)

// WorkspaceService is the subset of *service.Service used by the handler.
type WorkspaceService interface {
	Create(ctx context.Context, userID, name, description string) (*domain.Workspace, error)
	ListMine(ctx context.Context, userID string) ([]*domain.Workspace, error)
	Get(ctx context.Context, workspaceID string) (*domain.Workspace, error)
	Update(ctx context.Context, workspaceID, name, description string) (*domain.Workspace, error)
	Members(ctx context.Context, workspaceID string) ([]*service.MemberView, error)
	ChangeMemberRole(ctx context.Context, workspaceID, memberUserID, roleID string) (*membershipdomain.Member, error)
	JoinByInvite(ctx context.Context, userID, code string) (*domain.Workspace, *roledomain.Role, error)
	Delete(ctx context.Context, workspaceID string) error
}

// Handler serves /workspaces.
type Handler struct {
	svc WorkspaceService
}

// New returns a Handler.
func New(svc WorkspaceService) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the routes. All of them require an authenticated caller.
func (h *Handler) Register(r chi.Router) {
	r.Route("/workspaces", func(r chi.Router) {
		r.Get("/", h.listMine)
		r.Post("/", h.create)
		r.Post("/join/{inviteCode}", h.join)
		r.Route("/{workspaceId}", func(r chi.Router) {
			r.Get("/", h.get)
			r.Put("/", h.update)
			r.Delete("/", h.delete)
			r.Get("/members", h.members)
			r.Put("/members/{userId}/role", h.changeRole)
		})
	})
}

type workspaceRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type changeRoleRequest struct {
	RoleID string `json:"roleId"`
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var req workspaceRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	userID, _ := middleware.GetUserID(r.Context())
	ws, err := h.svc.Create(r.Context(), userID, req.Name, req.Description)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"message": "Workspace created successfully", "workspace": ws})
}

func (h *Handler) listMine(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	list, err := h.svc.ListMine(r.Context(), userID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "User workspaces fetched successfully", "workspaces": list})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	ws, err := h.svc.Get(r.Context(), chi.URLParam(r, "workspaceId"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Workspace fetched successfully", "workspace": ws})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var req workspaceRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	ws, err := h.svc.Update(r.Context(), chi.URLParam(r, "workspaceId"), req.Name, req.Description)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Workspace updated successfully", "workspace": ws})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "workspaceId")); err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Workspace deleted successfully")
}

func (h *Handler) members(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.Members(r.Context(), chi.URLParam(r, "workspaceId"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Workspace members retrieved successfully", "members": list})
}

func (h *Handler) changeRole(w http.ResponseWriter, r *http.Request) {
	var req changeRoleRequest
	if err := httpx.Decode(w, r, &req); err != nil {
		httpx.Error(w, r, err)
		return
	}
	m, err := h.svc.ChangeMemberRole(r.Context(), chi.URLParam(r, "workspaceId"), chi.URLParam(r, "userId"), req.RoleID)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Member role changed successfully", "member": m})
}

func (h *Handler) join(w http.ResponseWriter, r *http.Request) {
	userID, _ := middleware.GetUserID(r.Context())
	ws, role, err := h.svc.JoinByInvite(r.Context(), userID, chi.URLParam(r, "inviteCode"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{
		"message":     "Successfully joined the workspace",
		"workspaceId": ws.ID,
		"role":        role.Name,
	})
}
