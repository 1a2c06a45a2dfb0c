package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/chat"
	"github.com/FACorreiaa/pocket-ledger/pkg/httpx"
	"github.com/FACorreiaa/pocket-ledger/pkg/interceptors"
)

type ChatService interface {
	Ask(ctx context.Context, userID uuid.UUID, message string) (*chat.Reply, error)
}

// ChatHandler serves POST /api/chat.
type ChatHandler struct {
	service ChatService
	logger  *slog.Logger
}

func NewChatHandler(service ChatService, logger *slog.Logger) *ChatHandler {
	return &ChatHandler{service: service, logger: logger}
}

func (h *ChatHandler) Routes(r chi.Router) {
	r.Post("/", h.Ask)
}

type askRequest struct {
	Message string `json:"message" validate:"required,max=2000"`
}

func (h *ChatHandler) Ask(w http.ResponseWriter, r *http.Request) {
	userID, ok := interceptors.GetUserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req askRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, r, err)
		return
	}

	reply, err := h.service.Ask(r.Context(), userID, req.Message)
	switch {
	case errors.Is(err, chat.ErrAIUnavailable):
		httpx.WriteError(w, http.StatusServiceUnavailable, chat.ErrAIUnavailable.Error())
		return
	case errors.Is(err, chat.ErrAIFailed):
		h.logger.Error("chat fallback failed", slog.String("user_id", userID.String()), slog.Any("error", err))
		httpx.WriteError(w, http.StatusBadGateway, chat.ErrAIFailed.Error())
		return
	case err != nil:
		httpx.WriteDomainError(w, h.logger, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, reply)
}
