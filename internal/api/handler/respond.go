// internal/api/handler/respond.go
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5/middleware"

	"fintrack/internal/util"
)

// DefaultTimeout bounds every request, uploads included.
const DefaultTimeout = 60 * time.Second

type responder struct {
	logger *slog.Logger
}

// respondWithJSON sends payload as JSON with the given status code.
func (h responder) respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, err := json.Marshal(payload)
	if err != nil {
		h.logger.Error("Failed to marshal JSON response", "error", err)
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_, _ = w.Write(response)
}

// respondWithError maps service errors to status codes. Only input errors echo
// their message; storage and upstream details stay in the log.
func (h responder) respondWithError(w http.ResponseWriter, r *http.Request, err error) {
	statusCode, message := StatusFor(err)
	switch {
	case statusCode >= http.StatusInternalServerError:
		h.logger.ErrorContext(r.Context(), "Request failed",
			"request_id", middleware.GetReqID(r.Context()),
			"method", r.Method,
			"path", r.URL.Path,
			"error", err)
	case errors.Is(err, context.Canceled):
		h.logger.InfoContext(r.Context(), "Request cancelled", "request_id", middleware.GetReqID(r.Context()))
	}
	h.respondWithJSON(w, statusCode, map[string]string{"error": message})
}

// StatusFor returns the HTTP status and client-facing message for err.
func StatusFor(err error) (int, string) {
	switch {
	case util.IsError(err, util.ErrInvalidInput):
		return http.StatusBadRequest, err.Error()
	case util.IsError(err, util.ErrInvalidCredentials):
		return http.StatusUnauthorized, "Invalid credentials"
	case util.IsError(err, util.ErrUnauthorized):
		return http.StatusUnauthorized, "Unauthorized"
	case util.IsError(err, util.ErrForbidden):
		return http.StatusForbidden, "Forbidden"
	case util.IsError(err, util.ErrUnsupportedMediaType):
		return http.StatusUnsupportedMediaType, "Only CSV files allowed"
	case util.IsError(err, util.ErrPayloadTooLarge):
		return http.StatusRequestEntityTooLarge, "File too large"
	case util.IsError(err, util.ErrConflict):
		return http.StatusConflict, "User already exists"
	case util.IsError(err, util.ErrNotFound):
		return http.StatusNotFound, "Resource not found"
	case util.IsError(err, util.ErrEmpty):
		return http.StatusBadRequest, "No transactions found"
	case util.IsError(err, util.ErrUpstream):
		return http.StatusBadGateway, "Analytics service unavailable"
	}
	return http.StatusInternalServerError, "Internal server error"
}
