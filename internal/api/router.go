// internal/api/router.go
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"fintrack/internal/api/handler"
)

// Handlers groups the HTTP handlers the router mounts.
type Handlers struct {
	Auth      *handler.AuthHandler
	Ledger    *handler.LedgerHandler
	Analytics *handler.AnalyticsHandler
}

// NewRouter sets up and returns a new HTTP router.
func NewRouter(h Handlers, requireAuth func(http.Handler) http.Handler, corsOrigins []string, logger *slog.Logger) http.Handler {
	r := chi.NewRouter()

	// Global middlewares
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(handler.DefaultTimeout))
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   corsOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders:   []string{"Content-Disposition"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	// Health check endpoint
	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})

	// Public auth routes
	r.Post("/signup", h.Auth.Signup)
	r.Post("/login", h.Auth.Login)
	r.Post("/logout", h.Auth.Logout)
	r.Get("/logout", h.Auth.Logout)
	r.Get("/auth-status", h.Auth.AuthStatus)

	// Routes below require a session
	r.Group(func(r chi.Router) {
		r.Use(requireAuth)

		r.Get("/dashboard", h.Auth.Dashboard)
		r.Post("/upload-csv", h.Ledger.UploadCSV)
		r.Get("/files", h.Ledger.ListFiles)
		r.Delete("/files/{id}", h.Ledger.DeleteFile)
		r.Get("/download/transactions", h.Ledger.DownloadTransactions)
		r.Get("/download/summary", h.Ledger.DownloadSummary)
		r.Get("/analysis/{report}", h.Analytics.Report)
	})

	logger.Debug("Routes registered")
	return r
}
