package generate

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/hatchwork/backend/internal/middleware"
	"github.com/hatchwork/backend/internal/project"
	"github.com/hatchwork/backend/internal/quota"
	"github.com/hatchwork/backend/internal/web"
)

// CreditReader reports current usage for the 429 response body.
type CreditReader interface {
	GetUsage(ctx context.Context, accountID uuid.UUID) quota.CreditInfo
}

type Handler struct {
	svc     *Service
	credits CreditReader
	log     *slog.Logger
}

func NewHandler(svc *Service, credits CreditReader, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, credits: credits, log: log}
}

type generateRequest struct {
	Prompt string `json:"prompt"`
}

// Generate handles POST /api/v1/projects/{id}/generate. The request is
// validated and the project authorized before a credit is consumed; on
// success the job is queued and 202 returned immediately. The client
// observes completion by polling the project.
func (h *Handler) Generate(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		web.WriteError(w, http.StatusUnauthorized, web.CodeUnauthorized, "unauthorized")
		return
	}
	projectID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		web.WriteError(w, http.StatusBadRequest, web.CodeInvalidArgument, "invalid project id")
		return
	}
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.WriteError(w, http.StatusBadRequest, web.CodeInvalidArgument, "invalid JSON")
		return
	}
	if req.Prompt == "" {
		web.WriteError(w, http.StatusBadRequest, web.CodeInvalidArgument, "prompt is required")
		return
	}
	if err := h.svc.Enqueue(r.Context(), acc.ID, projectID, req.Prompt); err != nil {
		if errors.Is(err, project.ErrNotFound) {
			web.WriteError(w, http.StatusNotFound, web.CodeNotFound, "project not found")
			return
		}
		if errors.Is(err, quota.ErrQuotaExceeded) {
			info := h.credits.GetUsage(r.Context(), acc.ID)
			w.Header().Set("Retry-After", fmt.Sprintf("%d", int(time.Until(info.ResetAt).Seconds())))
			web.WriteJSON(w, http.StatusTooManyRequests, map[string]any{
				"error":    "daily generation quota exceeded",
				"code":     web.CodeQuotaExceeded,
				"used":     info.Used,
				"max":      info.Max,
				"reset_at": info.ResetAt,
			})
			return
		}
		h.log.Error("enqueue generation", "project_id", projectID, "error", err)
		web.WriteError(w, http.StatusInternalServerError, web.CodeInternal, "failed to queue generation")
		return
	}
	web.WriteJSON(w, http.StatusAccepted, map[string]string{
		"project_id": projectID.String(),
		"status":     "queued",
	})
}
