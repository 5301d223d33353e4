package project

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/hatchwork/backend/internal/auth"
	"github.com/hatchwork/backend/internal/history"
	"github.com/hatchwork/backend/internal/middleware"
	"github.com/hatchwork/backend/internal/models"
	"github.com/hatchwork/backend/internal/web"
)

type Handler struct {
	svc Service
	log *slog.Logger
}

func NewHandler(svc Service, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, log: log}
}

type createRequest struct {
	Name string `json:"name"`
}

type updateRequest struct {
	ID       string          `json:"id"`
	Name     string          `json:"name"`
	History  history.History `json:"history"`
	Revision int64           `json:"revision"`
}

// stateResponse is returned by the navigation endpoints: the snapshot now
// at the cursor plus enough metadata for the client to render undo/redo
// affordances and issue its next guarded write.
type stateResponse struct {
	ProjectID    uuid.UUID       `json:"project_id"`
	Revision     int64           `json:"revision"`
	Current      models.AppState `json:"current"`
	CurrentIndex int             `json:"current_index"`
	VersionCount int             `json:"version_count"`
	CanUndo      bool            `json:"can_undo"`
	CanRedo      bool            `json:"can_redo"`
}

func toStateResponse(p *Project) stateResponse {
	return stateResponse{
		ProjectID:    p.ID,
		Revision:     p.Revision,
		Current:      p.History.Current(),
		CurrentIndex: p.History.CurrentIndex,
		VersionCount: len(p.History.Versions),
		CanUndo:      p.History.CanUndo(),
		CanRedo:      p.History.CanRedo(),
	}
}

// Create handles POST /api/v1/projects.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		web.WriteError(w, http.StatusUnauthorized, web.CodeUnauthorized, "unauthorized")
		return
	}
	var req createRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.WriteError(w, http.StatusBadRequest, web.CodeInvalidArgument, "invalid JSON")
		return
	}
	if req.Name == "" {
		web.WriteError(w, http.StatusBadRequest, web.CodeInvalidArgument, "name is required")
		return
	}
	p, err := h.svc.Create(r.Context(), acc.ID, req.Name)
	if err != nil {
		h.writeServiceError(w, err, "create project")
		return
	}
	web.WriteJSON(w, http.StatusCreated, p)
}

// List handles GET /api/v1/projects.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		web.WriteError(w, http.StatusUnauthorized, web.CodeUnauthorized, "unauthorized")
		return
	}
	list, err := h.svc.List(r.Context(), acc.ID)
	if err != nil {
		h.writeServiceError(w, err, "list projects")
		return
	}
	if list == nil {
		list = []Summary{}
	}
	web.WriteJSON(w, http.StatusOK, list)
}

// Get handles GET /api/v1/projects/{id}.
func (h *Handler) Get(w http.ResponseWriter, r *http.Request) {
	acc, id, ok := h.authedProjectID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.Get(r.Context(), acc.ID, id)
	if err != nil {
		h.writeServiceError(w, err, "get project")
		return
	}
	web.WriteJSON(w, http.StatusOK, p)
}

// Update handles PUT /api/v1/projects/{id}: wholesale replace of name and
// history, guarded by the revision stamp. A body id that disagrees with
// the path is rejected before anything is touched.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	acc, id, ok := h.authedProjectID(w, r)
	if !ok {
		return
	}
	var req updateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.WriteError(w, http.StatusBadRequest, web.CodeInvalidArgument, "invalid JSON")
		return
	}
	if req.ID != "" && req.ID != id.String() {
		web.WriteError(w, http.StatusBadRequest, web.CodeInvalidArgument, "body id does not match path id")
		return
	}
	if req.Name == "" {
		web.WriteError(w, http.StatusBadRequest, web.CodeInvalidArgument, "name is required")
		return
	}
	p, err := h.svc.Update(r.Context(), acc.ID, id, req.Name, req.History, req.Revision)
	if err != nil {
		if errors.Is(err, history.ErrInvalidHistory) {
			web.WriteError(w, http.StatusBadRequest, web.CodeInvalidArgument, "history violates its invariants")
			return
		}
		h.writeServiceError(w, err, "update project")
		return
	}
	web.WriteJSON(w, http.StatusOK, p)
}

// Delete handles DELETE /api/v1/projects/{id}. Idempotent: deleting an
// already-gone project returns 204 as well.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	acc, id, ok := h.authedProjectID(w, r)
	if !ok {
		return
	}
	if err := h.svc.Delete(r.Context(), acc.ID, id); err != nil {
		h.writeServiceError(w, err, "delete project")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Commit handles POST /api/v1/projects/{id}/commit.
func (h *Handler) Commit(w http.ResponseWriter, r *http.Request) {
	acc, id, ok := h.authedProjectID(w, r)
	if !ok {
		return
	}
	var state models.AppState
	if err := json.NewDecoder(r.Body).Decode(&state); err != nil {
		web.WriteError(w, http.StatusBadRequest, web.CodeInvalidArgument, "invalid JSON")
		return
	}
	p, err := h.svc.Commit(r.Context(), acc.ID, id, state)
	if err != nil {
		h.writeServiceError(w, err, "commit")
		return
	}
	web.WriteJSON(w, http.StatusOK, toStateResponse(p))
}

// Undo handles POST /api/v1/projects/{id}/undo.
func (h *Handler) Undo(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, h.svc.Undo)
}

// Redo handles POST /api/v1/projects/{id}/redo.
func (h *Handler) Redo(w http.ResponseWriter, r *http.Request) {
	h.navigate(w, r, h.svc.Redo)
}

func (h *Handler) navigate(w http.ResponseWriter, r *http.Request, op func(ctx context.Context, ownerID, id uuid.UUID) (*Project, error)) {
	acc, id, ok := h.authedProjectID(w, r)
	if !ok {
		return
	}
	p, err := op(r.Context(), acc.ID, id)
	if err != nil {
		// Boundary conditions are navigation signals, not failures: the UI
		// uses them to disable the corresponding button.
		if errors.Is(err, history.ErrAtGenesis) {
			web.WriteError(w, http.StatusConflict, web.CodeAtGenesis, "already at the first version")
			return
		}
		if errors.Is(err, history.ErrAtHead) {
			web.WriteError(w, http.StatusConflict, web.CodeAtHead, "already at the newest version")
			return
		}
		h.writeServiceError(w, err, "navigate history")
		return
	}
	web.WriteJSON(w, http.StatusOK, toStateResponse(p))
}

func (h *Handler) authedProjectID(w http.ResponseWriter, r *http.Request) (*auth.Account, uuid.UUID, bool) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		web.WriteError(w, http.StatusUnauthorized, web.CodeUnauthorized, "unauthorized")
		return nil, uuid.Nil, false
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		web.WriteError(w, http.StatusBadRequest, web.CodeInvalidArgument, "invalid project id")
		return nil, uuid.Nil, false
	}
	return acc, id, true
}

func (h *Handler) writeServiceError(w http.ResponseWriter, err error, op string) {
	switch {
	case errors.Is(err, ErrNotFound):
		web.WriteError(w, http.StatusNotFound, web.CodeNotFound, "project not found")
	case errors.Is(err, ErrConflict):
		web.WriteError(w, http.StatusConflict, web.CodeConflict, "project was modified concurrently, re-fetch and retry")
	case errors.Is(err, ErrTransient):
		// Already retried by the service; tell the client it may try again.
		h.log.Warn(op, "error", err)
		web.WriteError(w, http.StatusServiceUnavailable, web.CodeUnavailable, "storage temporarily unavailable, retry shortly")
	default:
		h.log.Error(op, "error", err)
		web.WriteError(w, http.StatusInternalServerError, web.CodeInternal, "internal error")
	}
}
