// Package handler exposes project routes under a workspace.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"teamhub/backend/internal/platform/httpx"
	"teamhub/backend/internal/project/domain"
	"teamhub/backend/internal/project/service"
)

// ProjectService is the subset of *service.Service used by the handler.
type ProjectService interface {
	Create(ctx context.Context, workspaceID string, in service.Input) (*domain.Project, error)
	List(ctx context.Context, workspaceID string) ([]*domain.Project, error)
	Get(ctx context.Context, workspaceID, projectID string) (*domain.Project, error)
	Update(ctx context.Context, workspaceID, projectID string, in service.Input) (*domain.Project, error)
	Delete(ctx context.Context, workspaceID, projectID string) error
}

// Handler serves /workspaces/{workspaceId}/projects.
type Handler struct {
	svc ProjectService
}

// New returns a Handler.
func New(svc ProjectService) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the project routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/workspaces/{workspaceId}/projects", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{projectId}", h.get)
		r.Put("/{projectId}", h.update)
		r.Delete("/{projectId}", h.delete)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in service.Input
	if err := httpx.Decode(w, r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	p, err := h.svc.Create(r.Context(), chi.URLParam(r, "workspaceId"), in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"message": "Project created successfully", "project": p})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.List(r.Context(), chi.URLParam(r, "workspaceId"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "All projects fetched successfully", "projects": list})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	p, err := h.svc.Get(r.Context(), chi.URLParam(r, "workspaceId"), chi.URLParam(r, "projectId"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Project fetched successfully", "project": p})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var in service.Input
	if err := httpx.Decode(w, r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	p, err := h.svc.Update(r.Context(), chi.URLParam(r, "workspaceId"), chi.URLParam(r, "projectId"), in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Project updated successfully", "project": p})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "workspaceId"), chi.URLParam(r, "projectId")); err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Project deleted successfully")
}
