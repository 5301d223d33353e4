package workspace

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/hatchwork/backend/internal/middleware"
	"github.com/hatchwork/backend/internal/quota"
	"github.com/hatchwork/backend/internal/web"
)

// CreditService is the quota surface the credits endpoints need.
type CreditService interface {
	GetUsage(ctx context.Context, accountID uuid.UUID) quota.CreditInfo
	ResetNow(ctx context.Context, accountID uuid.UUID) error
}

type Handler struct {
	svc     *Service
	credits CreditService
	log     *slog.Logger
}

func NewHandler(svc *Service, credits CreditService, log *slog.Logger) *Handler {
	if log == nil {
		log = slog.Default()
	}
	return &Handler{svc: svc, credits: credits, log: log}
}

// Load handles GET /api/v1/workspace.
func (h *Handler) Load(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		web.WriteError(w, http.StatusUnauthorized, web.CodeUnauthorized, "unauthorized")
		return
	}
	ws, err := h.svc.Load(r.Context(), acc.ID)
	if err != nil {
		h.log.Error("load workspace", "error", err)
		web.WriteError(w, http.StatusInternalServerError, web.CodeInternal, "failed to load workspace")
		return
	}
	web.WriteJSON(w, http.StatusOK, ws)
}

// GetCredits handles GET /api/v1/credits.
func (h *Handler) GetCredits(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		web.WriteError(w, http.StatusUnauthorized, web.CodeUnauthorized, "unauthorized")
		return
	}
	writeCredits(w, h.credits.GetUsage(r.Context(), acc.ID))
}

// ResetCredits handles POST /api/v1/credits/reset, the manual override
// used by support tooling.
func (h *Handler) ResetCredits(w http.ResponseWriter, r *http.Request) {
	acc := middleware.AccountFromCtx(r.Context())
	if acc == nil {
		web.WriteError(w, http.StatusUnauthorized, web.CodeUnauthorized, "unauthorized")
		return
	}
	if err := h.credits.ResetNow(r.Context(), acc.ID); err != nil {
		h.log.Error("credit reset failed", "account_id", acc.ID, "error", err)
		web.WriteError(w, http.StatusInternalServerError, web.CodeInternal, "failed to reset credits")
		return
	}
	writeCredits(w, h.credits.GetUsage(r.Context(), acc.ID))
}

func writeCredits(w http.ResponseWriter, info quota.CreditInfo) {
	web.WriteJSON(w, http.StatusOK, map[string]any{
		"used":      info.Used,
		"max":       info.Max,
		"remaining": info.Remaining(),
		"reset_at":  info.ResetAt,
	})
}
