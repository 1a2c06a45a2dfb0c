// Package interceptors contains the HTTP middleware chain: auth, logging, rate limiting and metrics.
package interceptors

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/FACorreiaa/pocket-ledger/pkg/httpx"
)

type contextKey string

const userIDKey contextKey = "user_id"

// TokenValidator resolves a bearer token to the id of the user it was issued for.
type TokenValidator interface {
	UserIDFromToken(ctx context.Context, token string) (uuid.UUID, error)
}

// WithUserID stores the authenticated user id in ctx.
func WithUserID(ctx context.Context, userID uuid.UUID) context.Context {
	return context.WithValue(ctx, userIDKey, userID)
}

// GetUserIDFromContext returns the authenticated user id, if any.
func GetUserIDFromContext(ctx context.Context) (uuid.UUID, bool) {
	id, ok := ctx.Value(userIDKey).(uuid.UUID)
	return id, ok && id != uuid.Nil
}

// RequireAuth rejects requests without a valid bearer token. Failures never say why.
func RequireAuth(validator TokenValidator) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			header := r.Header.Get("Authorization")
			token, found := strings.CutPrefix(header, "Bearer ")
			if !found || strings.TrimSpace(token) == "" {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			userID, err := validator.UserIDFromToken(r.Context(), strings.TrimSpace(token))
			if err != nil {
				httpx.WriteError(w, http.StatusUnauthorized, "unauthorized")
				return
			}

			next.ServeHTTP(w, r.WithContext(WithUserID(r.Context(), userID)))
		})
	}
}
