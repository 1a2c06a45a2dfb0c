package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/auth/common"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/auth/repository"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/auth/service"
	"github.com/FACorreiaa/pocket-ledger/pkg/httpx"
	"github.com/FACorreiaa/pocket-ledger/pkg/interceptors"
)

type AuthService interface {
	RegisterUser(ctx context.Context, params service.RegisterParams) (*service.AuthResult, error)
	Login(ctx context.Context, params service.LoginParams) (*service.AuthResult, error)
	GetUser(ctx context.Context, userID uuid.UUID) (*repository.User, error)
}

// AuthHandler serves /api/auth and /api/me.
type AuthHandler struct {
	service AuthService
	logger  *slog.Logger
}

func NewAuthHandler(service AuthService, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{service: service, logger: logger}
}

// Routes mounts the public auth endpoints.
func (h *AuthHandler) Routes(r chi.Router) {
	r.Post("/register", h.Register)
	r.Post("/login", h.Login)
}

type registerRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	Name     string `json:"name" validate:"max=100"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type UserResponse struct {
	ID        string    `json:"id"`
	Email     string    `json:"email"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"createdAt"`
}

type authResponse struct {
	User  UserResponse `json:"user"`
	Token string       `json:"token"`
}

func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, r, err)
		return
	}

	res, err := h.service.RegisterUser(r.Context(), service.RegisterParams{
		Email:    req.Email,
		Password: req.Password,
		Name:     req.Name,
	})
	if errors.Is(err, common.ErrUserAlreadyExists) {
		httpx.WriteError(w, http.StatusConflict, "email already registered")
		return
	}
	if err != nil {
		httpx.WriteDomainError(w, h.logger, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusCreated, authResponse{User: toUserResponse(res.User), Token: res.Token})
}

func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := httpx.Decode(r, &req); err != nil {
		httpx.WriteDomainError(w, h.logger, r, err)
		return
	}

	res, err := h.service.Login(r.Context(), service.LoginParams{Email: req.Email, Password: req.Password})
	if errors.Is(err, common.ErrInvalidCredentials) {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err != nil {
		httpx.WriteDomainError(w, h.logger, r, err)
		return
	}

	httpx.WriteJSON(w, http.StatusOK, authResponse{User: toUserResponse(res.User), Token: res.Token})
}

// Me returns the authenticated user's profile.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	userID, ok := interceptors.GetUserIDFromContext(r.Context())
	if !ok {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	user, err := h.service.GetUser(r.Context(), userID)
	if errors.Is(err, common.ErrUserNotFound) {
		httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if err != nil {
		httpx.WriteInternal(w, h.logger, r, err)
		return
	}
	httpx.WriteJSON(w, http.StatusOK, toUserResponse(user))
}

func toUserResponse(u *repository.User) UserResponse {
	return UserResponse{ID: u.ID.String(), Email: u.Email, Name: u.Name, CreatedAt: u.CreatedAt}
}
