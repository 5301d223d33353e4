package auth

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/hatchwork/backend/internal/web"
)

type RegisterRequest struct {
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	Token string `json:"token"`
}

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

// Register handles POST /api/v1/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.WriteError(w, http.StatusBadRequest, web.CodeInvalidArgument, "invalid JSON")
		return
	}
	if req.Email == "" || req.Password == "" || req.DisplayName == "" {
		web.WriteError(w, http.StatusBadRequest, web.CodeInvalidArgument, "missing required fields")
		return
	}
	acc, err := h.svc.Register(r.Context(), req.Email, req.Password, req.DisplayName)
	if err != nil {
		if errors.Is(err, ErrDuplicateEmail) {
			web.WriteError(w, http.StatusConflict, web.CodeConflict, "email already registered")
			return
		}
		h.log.Error("register failed", "error", err)
		web.WriteError(w, http.StatusInternalServerError, web.CodeInternal, "registration failed")
		return
	}
	web.WriteJSON(w, http.StatusCreated, acc)
}

// Login handles POST /api/v1/auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		web.WriteError(w, http.StatusBadRequest, web.CodeInvalidArgument, "invalid JSON")
		return
	}
	if req.Email == "" || req.Password == "" {
		web.WriteError(w, http.StatusBadRequest, web.CodeInvalidArgument, "missing email or password")
		return
	}
	token, err := h.svc.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		if errors.Is(err, ErrInvalidCredentials) {
			web.WriteError(w, http.StatusUnauthorized, web.CodeUnauthorized, "invalid credentials")
			return
		}
		h.log.Error("login failed", "error", err)
		web.WriteError(w, http.StatusInternalServerError, web.CodeInternal, "login failed")
		return
	}
	web.WriteJSON(w, http.StatusOK, LoginResponse{Token: token})
}
