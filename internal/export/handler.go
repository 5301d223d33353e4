package export

import (
	"context"
	"errors"
	"fmt"
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
	log      *slog.Logger
}

func NewHandler(projects ProjectGetter, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{projects: projects, log: log}
}

// Download handles GET /api/v1/projects/{id}/export: streams a zip of the
// current snapshot's files.
func (h *Handler) Download(w http.ResponseWriter, r *http.Request) {
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
		h.log.Error("export project", "project_id", id, "error", err)
		web.WriteError(w, http.StatusInternalServerError, web.CodeInternal, "internal error")
		return
	}
	data, err := Archive(p.History.Current())
	if err != nil {
		h.log.Error("build archive", "project_id", id, "error", err)
		web.WriteError(w, http.StatusInternalServerError, web.CodeInternal, "failed to build archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", p.Name+".zip"))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}
