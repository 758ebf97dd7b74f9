// internal/api/handler/analytics.go
package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/analytics"
	"fintrack/internal/util"
)

// AnalyticsFetcher retrieves one report for a user.
type AnalyticsFetcher interface {
	Fetch(ctx context.Context, report analytics.Report, userID int64) (json.RawMessage, error)
}

// AnalyticsHandler relays analytics reports from the external service.
type AnalyticsHandler struct {
	responder
	fetcher AnalyticsFetcher
}

// NewAnalyticsHandler creates a new AnalyticsHandler.
func NewAnalyticsHandler(fetcher AnalyticsFetcher, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{responder: responder{logger: logger}, fetcher: fetcher}
}

// Report relays the named report for the caller.
// GET /analysis/{report}
func (h *AnalyticsHandler) Report(w http.ResponseWriter, r *http.Request) {
	report, ok := analytics.ParseReport(chi.URLParam(r, "report"))
	if !ok {
		h.respondWithError(w, r, util.ErrNotFound)
		return
	}

	body, err := h.fetcher.Fetch(r.Context(), report, UserFromContext(r.Context()).ID)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
