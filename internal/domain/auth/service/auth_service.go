// Package service implements registration, login and bearer token verification.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"

	"github.com/google/uuid"

	"github.com/FACorreiaa/pocket-ledger/internal/domain/auth/common"
	"github.com/FACorreiaa/pocket-ledger/internal/domain/auth/repository"
	"github.com/FACorreiaa/pocket-ledger/pkg/httpx"
)

// RegisterParams contains the required data for user registration.
type RegisterParams struct {
	Email    string
	Password string
	Name     string
}

// LoginParams represents the payload for a login attempt.
type LoginParams struct {
	Email    string
	Password string
}

// AuthResult is produced after a successful registration or login.
type AuthResult struct {
	User  *repository.User
	Token string
}

// AuthService coordinates account and token logic.
type AuthService struct {
	repo         repository.AuthRepository
	tokenManager TokenManager
	emailService EmailSender
	logger       *slog.Logger
}

// NewAuthService constructs a new AuthService. emailService may be nil.
func NewAuthService(repo repository.AuthRepository, tokenManager TokenManager, emailService EmailSender, logger *slog.Logger) *AuthService {
	return &AuthService{
		repo:         repo,
		tokenManager: tokenManager,
		emailService: emailService,
		logger:       logger,
	}
}

// RegisterUser creates a new account, issues a token and sends the welcome email in the background.
func (s *AuthService) RegisterUser(ctx context.Context, params RegisterParams) (*AuthResult, error) {
	email := strings.TrimSpace(params.Email)
	verr := &httpx.ValidationError{}
	if _, err := mail.ParseAddress(email); err != nil {
		verr.Add("email", "must be a valid email")
	}
	if err := ValidatePassword(params.Password); err != nil {
		verr.Add("password", err.Error())
	}
	if verr.HasErrors() {
		return nil, verr
	}

	hashedPassword, err := HashPassword(params.Password)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user, err := s.repo.CreateUser(ctx, email, params.Name, hashedPassword)
	if err != nil {
		return nil, err
	}

	token, err := s.tokenManager.GenerateAccessToken(user.ID.String(), user.Email)
	if err != nil {
		return nil, err
	}

	s.logger.Info("user registered", slog.String("user_id", user.ID.String()))

	if s.emailService != nil {
		go func(email, name string) {
			if err := s.emailService.SendWelcomeEmail(email, name); err != nil {
				s.logger.Warn("failed to send welcome email", slog.String("email", email), slog.Any("error", err))
			}
		}(user.Email, user.Name)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// Login authenticates a user against stored credentials. Unknown emails and
// wrong passwords are indistinguishable to the caller.
func (s *AuthService) Login(ctx context.Context, params LoginParams) (*AuthResult, error) {
	user, err := s.repo.GetUserByEmail(ctx, params.Email)
	if errors.Is(err, common.ErrUserNotFound) {
		return nil, common.ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}

	if !ComparePassword(user.HashedPassword, params.Password) {
		return nil, common.ErrInvalidCredentials
	}

	token, err := s.tokenManager.GenerateAccessToken(user.ID.String(), user.Email)
	if err != nil {
		return nil, err
	}
	return &AuthResult{User: user, Token: token}, nil
}

// UserIDFromToken validates an access token and returns the user it was issued for.
func (s *AuthService) UserIDFromToken(_ context.Context, token string) (uuid.UUID, error) {
	claims, err := s.tokenManager.ValidateAccessToken(token)
	if err != nil {
		return uuid.Nil, err
	}
	id, err := uuid.Parse(claims.Subject)
	if err != nil {
		return uuid.Nil, common.ErrInvalidToken
	}
	return id, nil
}

// GetUser returns the account for userID.
func (s *AuthService) GetUser(ctx context.Context, userID uuid.UUID) (*repository.User, error) {
	return s.repo.GetUserByID(ctx, userID)
}
