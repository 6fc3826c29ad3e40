package middleware

import (
	"log/slog"
	"net/http"
	"strings"

	"ledgerdesk/internal/jwtauth"
	"ledgerdesk/pkg/requestcontext"
)

// TokenValidator validates a bearer token and returns its claims.
type TokenValidator interface {
	ValidateToken(tokenString string) (*jwtauth.Claims, error)
}

// RequireAuth validates the bearer token and loads the caller's identity
// into the request context. Handlers downstream read it through
// requestcontext, never from the raw token.
func RequireAuth(validator TokenValidator, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
			if !ok || token == "" {
				unauthorized(w, r, logger, "missing bearer token")
				return
			}

			claims, err := validator.ValidateToken(token)
			if err != nil {
				unauthorized(w, r, logger, "invalid or expired token")
				return
			}
			userID, err := claims.Identity()
			if err != nil {
				unauthorized(w, r, logger, "invalid token subject")
				return
			}

			ctx := requestcontext.WithUserID(r.Context(), userID)
			ctx = requestcontext.WithEmail(ctx, claims.Email)
			ctx = requestcontext.WithAdmin(ctx, claims.Admin)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func unauthorized(w http.ResponseWriter, r *http.Request, logger *slog.Logger, reason string) {
	logger.WarnContext(r.Context(), "unauthorized request",
		"reason", reason,
		"path", r.URL.Path,
		"request_id", requestcontext.RequestID(r.Context()),
	)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_, _ = w.Write([]byte(`{"error":"unauthorized","message":"` + reason + `"}`))
}

// RequireAdmin gates admin-only routes. It assumes RequireAuth ran first.
func RequireAdmin(logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !requestcontext.IsAdmin(r.Context()) {
				logger.WarnContext(r.Context(), "forbidden request",
					"path", r.URL.Path,
					"request_id", requestcontext.RequestID(r.Context()),
				)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(http.StatusForbidden)
				_, _ = w.Write([]byte(`{"error":"forbidden","message":"admin access required"}`))
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
