// internal/api/handler/ledger.go
package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"fintrack/internal/service"
	"fintrack/internal/util"
)

// uploadField is the multipart field carrying the CSV file.
const uploadField = "file"

// LedgerHandler handles uploads, batch management and exports.
type LedgerHandler struct {
	responder
	service        service.LedgerService
	maxUploadBytes int64
}

// NewLedgerHandler creates a new LedgerHandler.
func NewLedgerHandler(svc service.LedgerService, maxUploadBytes int64, logger *slog.Logger) *LedgerHandler {
	return &LedgerHandler{
		responder:      responder{logger: logger},
		service:        svc,
		maxUploadBytes: maxUploadBytes,
	}
}

// IngestResponse is the body returned after a successful upload.
type IngestResponse struct {
	Message string `json:"message"`
	*service.IngestResult
}

// UploadCSV streams the "file" part of a multipart request into the ingestion pipeline.
// POST /upload-csv
func (h *LedgerHandler) UploadCSV(w http.ResponseWriter, r *http.Request) {
	if r.ContentLength > h.maxUploadBytes {
		h.respondWithError(w, r, util.ErrPayloadTooLarge)
		return
	}
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes)

	mr, err := r.MultipartReader()
	if err != nil {
		h.respondWithError(w, r, util.ValidationError("expected a multipart/form-data body"))
		return
	}
	part, err := nextFilePart(mr)
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	defer part.Close()

	res, err := h.service.Ingest(r.Context(), UserFromContext(r.Context()), service.UploadFile{
		Filename:    part.FileName(),
		ContentType: part.Header.Get("Content-Type"),
		Body:        limitedReader{r: part},
	})
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}

	h.respondWithJSON(w, http.StatusCreated, IngestResponse{
		Message:      "File uploaded and transactions saved successfully",
		IngestResult: res,
	})
}

func nextFilePart(mr *multipart.Reader) (*multipart.Part, error) {
	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			return nil, util.ValidationError("no file uploaded")
		}
		if err != nil {
			return nil, translateBodyError(err)
		}
		if part.FormName() == uploadField && part.FileName() != "" {
			return part, nil
		}
		part.Close()
	}
}

// limitedReader reports an exceeded body limit as util.ErrPayloadTooLarge.
type limitedReader struct {
	r io.Reader
}

func (l limitedReader) Read(p []byte) (int, error) {
	n, err := l.r.Read(p)
	if err != nil && !errors.Is(err, io.EOF) {
		err = translateBodyError(err)
	}
	return n, err
}

func translateBodyError(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return fmt.Errorf("%w: %w", util.ErrPayloadTooLarge, err)
	}
	return util.ValidationError("malformed multipart body")
}

// ListFiles returns the caller's upload batches, newest first.
// GET /files
func (h *LedgerHandler) ListFiles(w http.ResponseWriter, r *http.Request) {
	uploads, err := h.service.ListUploads(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, uploads)
}

// DeleteFile removes a batch with all its entries.
// DELETE /files/{id}
func (h *LedgerHandler) DeleteFile(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		h.respondWithError(w, r, util.ValidationError("invalid file id"))
		return
	}

	if err := h.service.DeleteUpload(r.Context(), UserFromContext(r.Context()), id); err != nil {
		h.respondWithError(w, r, err)
		return
	}
	h.respondWithJSON(w, http.StatusOK, map[string]string{"message": "File and its transactions deleted successfully"})
}

// DownloadTransactions streams the caller's ledger as CSV.
// GET /download/transactions
func (h *LedgerHandler) DownloadTransactions(w http.ResponseWriter, r *http.Request) {
	aw := &attachmentWriter{w: w, filename: "transactions.csv", contentType: "text/csv; charset=utf-8"}
	err := h.service.ExportRawLedger(r.Context(), UserFromContext(r.Context()), aw)
	if err != nil {
		if aw.started {
			h.logger.ErrorContext(r.Context(), "Export aborted mid-stream", "error", err)
			return
		}
		h.respondWithError(w, r, err)
	}
}

// DownloadSummary returns income, expense and savings totals as a JSON attachment.
// GET /download/summary
func (h *LedgerHandler) DownloadSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.service.ExportSummary(r.Context(), UserFromContext(r.Context()))
	if err != nil {
		h.respondWithError(w, r, err)
		return
	}
	w.Header().Set("Content-Disposition", `attachment; filename="summary.json"`)
	h.respondWithJSON(w, http.StatusOK, summary)
}

// attachmentWriter sets download headers on the first write, so an error
// before any output can still become a JSON error response.
type attachmentWriter struct {
	w           http.ResponseWriter
	filename    string
	contentType string
	started     bool
}

func (a *attachmentWriter) Write(p []byte) (int, error) {
	if !a.started {
		a.started = true
		a.w.Header().Set("Content-Type", a.contentType)
		a.w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", a.filename))
		a.w.WriteHeader(http.StatusOK)
	}
	return a.w.Write(p)
}
