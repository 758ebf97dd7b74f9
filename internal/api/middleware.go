// internal/api/middleware.go
package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"fintrack/internal/api/handler"
	"fintrack/internal/service"
)

// RequireAuth rejects requests without a live session before the wrapped
// handler runs, and otherwise stores the user in the request context.
// Sessions past half their lifetime are renewed and the cookie re-issued.
func RequireAuth(authService service.AuthService, cookies handler.Cookies, logger *slog.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := handler.SessionToken(r)
			user, err := authService.Authenticate(r.Context(), token)
			if err != nil {
				code, message := handler.StatusFor(err)
				if code >= http.StatusInternalServerError {
					logger.ErrorContext(r.Context(), "Session check failed", "error", err)
				}
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(code)
				_ = json.NewEncoder(w).Encode(map[string]string{"error": message})
				return
			}

			if session, renewed := authService.Refresh(token); renewed {
				cookies.Set(w, session.Token)
			}

			next.ServeHTTP(w, r.WithContext(handler.WithUser(r.Context(), user)))
		})
	}
}
