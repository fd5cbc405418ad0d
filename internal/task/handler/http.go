// Package handler exposes task routes under a project.
package handler

import (
	"context"
	"net/http"

	"github.com/go-chi/chi/v5"

	"teamhub/backend/internal/platform/httpx"
	"teamhub/backend/internal/task/domain"
	"teamhub/backend/internal/task/service"
)

// TaskService is the subset of *service.Service used by the handler.
type TaskService interface {
	Create(ctx context.Context, workspaceID, projectID string, in service.CreateInput) (*domain.Task, error)
	ListByProject(ctx context.Context, workspaceID, projectID string) ([]*domain.Task, error)
	Get(ctx context.Context, workspaceID, projectID, taskID string) (*domain.Task, error)
	Update(ctx context.Context, workspaceID, projectID, taskID string, in service.UpdateInput) (*domain.Task, error)
	Delete(ctx context.Context, workspaceID, projectID, taskID string) error
}

// Handler serves /workspaces/{workspaceId}/projects/{projectId}/tasks.
type Handler struct {
	svc TaskService
}

// New returns a Handler.
func New(svc TaskService) *Handler {
	return &Handler{svc: svc}
}

// Register mounts the task routes.
func (h *Handler) Register(r chi.Router) {
	r.Route("/workspaces/{workspaceId}/projects/{projectId}/tasks", func(r chi.Router) {
		r.Get("/", h.list)
		r.Post("/", h.create)
		r.Get("/{taskId}", h.get)
		r.Put("/{taskId}", h.update)
		r.Delete("/{taskId}", h.delete)
	})
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) {
	var in service.CreateInput
	if err := httpx.Decode(w, r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	t, err := h.svc.Create(r.Context(), chi.URLParam(r, "workspaceId"), chi.URLParam(r, "projectId"), in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusCreated, map[string]any{"message": "Task created successfully", "task": t})
}

func (h *Handler) list(w http.ResponseWriter, r *http.Request) {
	list, err := h.svc.ListByProject(r.Context(), chi.URLParam(r, "workspaceId"), chi.URLParam(r, "projectId"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "All tasks fetched successfully", "tasks": list})
}

func (h *Handler) get(w http.ResponseWriter, r *http.Request) {
	t, err := h.svc.Get(r.Context(), chi.URLParam(r, "workspaceId"), chi.URLParam(r, "projectId"), chi.URLParam(r, "taskId"))
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Task fetched successfully", "task": t})
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) {
	var in service.UpdateInput
	if err := httpx.Decode(w, r, &in); err != nil {
		httpx.Error(w, r, err)
		return
	}
	t, err := h.svc.Update(r.Context(), chi.URLParam(r, "workspaceId"), chi.URLParam(r, "projectId"), chi.URLParam(r, "taskId"), in)
	if err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.JSON(w, http.StatusOK, map[string]any{"message": "Task updated successfully", "task": t})
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "workspaceId"), chi.URLParam(r, "projectId"), chi.URLParam(r, "taskId")); err != nil {
		httpx.Error(w, r, err)
		return
	}
	httpx.Message(w, http.StatusOK, "Task deleted successfully")
}
