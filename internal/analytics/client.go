// Package analytics relays per-user analytics requests to the external analytics service.
package analytics

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/util"
)

// Report names one analytics endpoint.
type Report string

const (
	ReportSummary    Report = "summary"
	ReportCategories Report = "categories"
	ReportStats      Report = "stats"
)

// ParseReport accepts the known report names.
func ParseReport(s string) (Report, bool) {
	switch r := Report(s); r {
	case ReportSummary, ReportCategories, ReportStats:
		return r, true
	}
	return "", false
}

// maxResponseBytes bounds how much of an upstream body is relayed.
const maxResponseBytes = 4 << 20

type request struct {
	UserID string `json:"userId"`
}

// Client talks to the analytics service over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     *slog.Logger
}

func NewClient(baseURL string, timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger.With("component", "analytics"),
	}
}

// Fetch posts the user id to the report endpoint and returns the JSON body as received.
// Any transport failure, non-2xx status or non-JSON body is util.ErrUpstream.
func (c *Client) Fetch(ctx context.Context, report Report, userID int64) (json.RawMessage, error) {
	payload, err := json.Marshal(request{UserID: strconv.FormatInt(userID, 10)})
	if err != nil {
		return nil, fmt.Errorf("analytics: failed to encode request: %w", err)
	}

	url := c.baseURL + "/" + string(report)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("analytics: failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.ErrorContext(ctx, "Analytics request failed", "report", report, "error", err)
		return nil, fmt.Errorf("analytics: %s: %w: %w", report, util.ErrUpstream, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("analytics: %s: %w: failed to read body: %w", report, util.ErrUpstream, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.logger.ErrorContext(ctx, "Analytics service returned an error",
			"report", report,
			"status", resp.StatusCode,
			"body", string(body))
		return nil, fmt.Errorf("analytics: %s: %w: status %d", report, util.ErrUpstream, resp.StatusCode)
	}
	if !json.Valid(body) {
		return nil, fmt.Errorf("analytics: %s: %w: response is not JSON", report, util.ErrUpstream)
	}
	return json.RawMessage(body), nil
}
