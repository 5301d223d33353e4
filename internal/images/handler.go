package images

import (
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/hatchwork/backend/internal/web"
)

type Handler struct {
	searcher Searcher
	log      *slog.Logger
}

func NewHandler(searcher Searcher, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{searcher: searcher, log: log}
}

// Search handles GET /api/v1/images/search?query=...&per_page=...
func (h *Handler) Search(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("query"))
	if query == "" {
		web.WriteError(w, http.StatusBadRequest, web.CodeInvalidArgument, "query is required")
		return
	}
	perPage := 0
	if raw := r.URL.Query().Get("per_page"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 || n > 80 {
			web.WriteError(w, http.StatusBadRequest, web.CodeInvalidArgument, "per_page must be between 1 and 80")
			return
		}
		perPage = n
	}
	photos, err := h.searcher.Search(r.Context(), query, perPage)
	if err != nil {
		h.log.Error("image search failed", "query", query, "error", err)
		web.WriteError(w, http.StatusBadGateway, web.CodeUpstream, "image provider failed")
		return
	}
	web.WriteJSON(w, http.StatusOK, map[string]any{"photos": photos})
}
