package handler

import (
	"context"
	"net/http"
	"strings"

	"skillswap-api/common"
	"skillswap-api/model"
)

type contextKey string

const (
	UserIDKey    contextKey = "userID"
	UserEmailKey contextKey = "userEmail"
)

type AccessTokenVerifier interface {
	VerifyAccessToken(raw string) (*model.AccessClaims, error)
}

// UserIDFromContext returns the user id AuthMiddleware stored on the request.
func UserIDFromContext(ctx context.Context) (int, bool) {
	id, ok := ctx.Value(UserIDKey).(int)
	return id, ok
}

// AuthMiddleware admits requests carrying a valid access token in the
// Authorization header and stores its user on the request context.
func AuthMiddleware(verifier AccessTokenVerifier) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				err := common.NewAppError(http.StatusUnauthorized, "Authorization header is required", nil)
				err.Send(w)
				return
			}

			headerParts := strings.Split(authHeader, " ")
			if len(headerParts) != 2 || strings.ToLower(headerParts[0]) != "bearer" {
				err := common.NewAppError(http.StatusUnauthorized, "Invalid authorization header format", nil)
				err.Send(w)
				return
			}

			claims, err := verifier.VerifyAccessToken(headerParts[1])
			if err != nil {
				appErr := common.NewAppError(http.StatusUnauthorized, "Invalid or expired token", nil)
				appErr.Send(w)
				return
			}

			ctx := context.WithValue(r.Context(), UserIDKey, claims.UserID)
			ctx = context.WithValue(ctx, UserEmailKey, claims.Email)

			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}
