package deploy

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/hatchwork/backend/internal/middleware"
	"github.com/hatchwork/backend/internal/project"
	"github.com/hatchwork/backend/internal/web"
)

// ProjectGetter is the slice of the project service the handler needs.
type ProjectGetter interface {
	Get(ctx context.Context, ownerID, id uuid.UUID) (*project.Project, error)
}

type Handler struct {
	projects ProjectGetter
	provider Provider
	log      *slog.Logger
}

func NewHandler(projects ProjectGetter, provider Provider, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{projects: projects, provider: provider, log: log}
}

// Deploy handles POST /api/v1/projects/{id}/deploy: pushes the current
// snapshot to the hosting provider and relays the resulting URL.
func (h *Handler) Deploy(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		web.WriteError(w, http.StatusUnauthorized, web.CodeUnauthorized, "unauthorized")
		return
	}
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		web.WriteError(w, http.StatusBadRequest, web.CodeInvalidArgument, "invalid project id")
		return
	}
	p, err := h.projects.Get(r.Context(), acc.ID, id)
	if err != nil {
		if errors.Is(err, project.ErrNotFound) {
			web.WriteError(w, http.StatusNotFound, web.CodeNotFound, "project not found")
			return
		}
		h.log.Error("load project for deploy", "project_id", id, "error", err)
		web.WriteError(w, http.StatusInternalServerError, web.CodeInternal, "internal error")
		return
	}
	d, err := h.provider.Deploy(r.Context(), p.Name, p.History.Current())
	if err != nil {
		h.log.Error("deploy failed", "project_id", id, "error", err)
		web.WriteError(w, http.StatusBadGateway, web.CodeUpstream, "deployment provider failed")
		return
	}
	web.WriteJSON(w, http.StatusOK, d)
}
