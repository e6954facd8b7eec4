// Package handler exposes the login pipeline over HTTP.
package handler

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"loyalty-gateway/internal/login/models"
	"loyalty-gateway/pkg/platform/httputil"
	"loyalty-gateway/pkg/requestcontext"
)

// Service defines the login operation the handler fronts.
type Service interface {
	Login(ctx context.Context, req models.LoginRequest) (*models.LoginResult, error)
}

// Handler wires the login endpoint to the orchestrator.
type Handler struct {
	service Service
	logger  *slog.Logger
}

// New constructs a login handler with its dependencies.
func New(service Service, logger *slog.Logger) *Handler {
	return &Handler{
		service: service,
		logger:  logger,
	}
}

// Register mounts the login endpoint on the router.
func (h *Handler) Register(r chi.Router) {
	r.Post("/auth/line/login", h.HandleLogin)
}

// HandleLogin handles POST /auth/line/login requests.
func (h *Handler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	requestID := requestcontext.RequestID(ctx)
	start := time.Now()

	var req LoginRequest
	if err := httputil.DecodeJSON(w, r, &req); err != nil {
		writeError(w, err, "")
		return
	}
	if err := req.Validate(); err != nil {
		h.logger.InfoContext(ctx, "login request rejected",
			"request_id", requestID,
			"error", err,
		)
		writeError(w, err, "")
		return
	}

	result, err := h.service.Login(ctx, req.ToModel())
	if err != nil {
		h.logger.ErrorContext(ctx, "login failed",
			"request_id", requestID,
			"error", err,
		)
		writeError(w, err, req.LineToken)
		return
	}

	status := http.StatusOK
	if result.Provisioned {
		status = http.StatusCreated
	}

	h.logger.InfoContext(ctx, "login completed",
		"request_id", requestID,
		"role", string(result.Principal.Role),
		"principal_id", result.Principal.ID,
		"provisioned", result.Provisioned,
		"token_fallback", result.TokenFallback,
		"duration_ms", time.Since(start).Milliseconds(),
	)

	httputil.WriteJSON(w, status, FromResult(result))
}
