package auth

import (
	"context"
	"log/slog"
	"net/http"
	"strings"

	"github.com/FACorreiaa/go-auth-service/internal/api"
	"github.com/FACorreiaa/go-auth-service/internal/types"
)

// Define typed context keys
type contextKey string

const (
	UserIDKey contextKey = "userID"
	ClaimsKey contextKey = "claims"
)

// Authenticator is the part of AuthService the middleware needs.
type Authenticator interface {
	Authenticate(ctx context.Context, token string) (*types.Claims, error)
}

// Authenticate is middleware that requires a valid bearer token and stores
// its claims in the request context.
func Authenticate(logger *slog.Logger, authenticator Authenticator) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := r.Context()
			l := logger.With(slog.String("middleware", "Authenticate"))

			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				l.DebugContext(ctx, "Missing Authorization header")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Access denied. No token provided.")
				return
			}

			headerParts := strings.Fields(authHeader)
			if len(headerParts) != 2 || !strings.EqualFold(headerParts[0], "bearer") {
				l.WarnContext(ctx, "Invalid Authorization header format")
				api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid token format. Use Bearer token.")
				return
			}

			claims, err := authenticator.Authenticate(ctx, headerParts[1])
			if err != nil {
				switch types.KindOf(err) {
				case types.KindTokenExpired:
					l.InfoContext(ctx, "Token expired")
					api.ErrorResponse(w, r, http.StatusUnauthorized, "Token expired.")
				case types.KindConfiguration:
					l.ErrorContext(ctx, "Token verification is not configured", slog.Any("error", err))
					api.ErrorResponse(w, r, http.StatusInternalServerError, "Server configuration error.")
				default:
					l.WarnContext(ctx, "Token validation failed", slog.Any("error", err))
					api.ErrorResponse(w, r, http.StatusUnauthorized, "Invalid token.")
				}
				return
			}

			ctx = context.WithValue(ctx, ClaimsKey, claims)
			ctx = context.WithValue(ctx, UserIDKey, claims.UserID)
			l.DebugContext(ctx, "Authentication successful, claims added to context", slog.String("userID", claims.UserID))
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// Helper functions to get claims from context
func GetUserIDFromContext(ctx context.Context) (string, bool) {
	userID, ok := ctx.Value(UserIDKey).(string)
	return userID, ok
}

func GetClaimsFromContext(ctx context.Context) (*types.Claims, bool) {
	claims, ok := ctx.Value(ClaimsKey).(*types.Claims)
	return claims, ok && claims != nil
}
