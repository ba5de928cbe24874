// Package auth provides bearer-token authentication middleware. The
// token carries the user identifier directly; real identity is
// delegated to the upstream identity provider, out of scope here.
package auth

import (
	"context"
	"net/http"
	"strings"

	apperrors "civic-assist/internal/errors"

	"github.com/google/uuid"
)

type contextKey string

// UserContextKey is the context key for storing the authenticated user
const UserContextKey contextKey = "user"

// Middleware validates the Authorization header and adds the user to
// the request context. Failures go through the configured error
// handler so secure mode stays consistent.
func Middleware(eh *apperrors.Handler) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requestID := uuid.New().String()

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				eh.HandleAuthError(w, r, apperrors.ErrMissingAuthHeader, requestID)
				return
			}

			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" || parts[1] == "" {
				eh.HandleAuthError(w, r, apperrors.ErrInvalidAuthHeader, requestID)
				return
			}

			ctx := context.WithValue(r.Context(), UserContextKey, parts[1])
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// GetUserFromContext extracts the authenticated user from the context.
// Handlers behind the middleware can rely on it being set.
func GetUserFromContext(ctx context.Context) string {
	user, ok := ctx.Value(UserContextKey).(string)
	if !ok {
		panic("user not found in context")
	}

	return user
}
