// internal/service/ledger_service.go
package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/blob"
	"fintrack/internal/domain"
	"fintrack/internal/events"
	"fintrack/internal/ingest"
	"fintrack/internal/repository"
	"fintrack/internal/util"
	"fintrack/pkg/db"
)

// maxRejectedReported caps how many rejected rows an ingestion result lists.
const maxRejectedReported = 50

// UploadFile is one file handed to Ingest.
type UploadFile struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

// IngestResult reports the outcome of one ingestion.
type IngestResult struct {
	BatchID       int64                `json:"batchId"`
	AcceptedCount int                  `json:"acceptedCount"`
	RejectedCount int                  `json:"rejectedCount"`
	Rejected      []ingest.RejectedRow `json:"rejected"`
}

// LedgerService defines the interface for ingestion, batch lifecycle and exports.
type LedgerService interface {
	Ingest(ctx context.Context, user *domain.User, file UploadFile) (*IngestResult, error)
	ListUploads(ctx context.Context, user *domain.User) ([]domain.Upload, error)
	DeleteUpload(ctx context.Context, user *domain.User, uploadID int64) error
	// ExportRawLedger writes the user's entries as CSV to w, or returns util.ErrEmpty before writing anything.
	ExportRawLedger(ctx context.Context, user *domain.User, w io.Writer) error
	ExportSummary(ctx context.Context, user *domain.User) (*domain.Summary, error)
}

// ledgerService implements the LedgerService interface.
type ledgerService struct {
	dbBeginner db.DBTxBeginner
	dbExecutor repository.DBExecutor
	uploadRepo repository.UploadRepository
	ledgerRepo repository.LedgerRepository
	blobs      blob.Store
	publisher  events.Publisher
	beginTx    db.BeginTxFunc
	commitTx   db.CommitTxFunc
	rollbackTx db.RollbackTxFunc
	logger     *slog.Logger
	now        func() time.Time
}

// NewLedgerService creates a new instance of LedgerService.
func NewLedgerService(
	dbBeginner db.DBTxBeginner,
	dbExecutor repository.DBExecutor,
	uploadRepo repository.UploadRepository,
	ledgerRepo repository.LedgerRepository,
	blobs blob.Store,
	publisher events.Publisher,
	beginTx db.BeginTxFunc,
	commitTx db.CommitTxFunc,
	rollbackTx db.RollbackTxFunc,
	logger *slog.Logger,
) LedgerService {
	return &ledgerService{
		dbBeginner: dbBeginner,
		dbExecutor: dbExecutor,
		uploadRepo: uploadRepo,
		ledgerRepo: ledgerRepo,
		blobs:      blobs,
		publisher:  publisher,
		beginTx:    beginTx,
		commitTx:   commitTx,
		rollbackTx: rollbackTx,
		logger:     logger.With("component", "ingest"),
		now:        time.Now,
	}
}

// Ingest stores the raw file, then parses it and commits the batch row and its
// entries in one transaction. If anything after the blob write fails, the
// transaction is rolled back and the blob deleted.
func (s *ledgerService) Ingest(ctx context.Context, user *domain.User, file UploadFile) (*IngestResult, error) {
	if !ingest.IsCSV(file.ContentType, file.Filename) {
		return nil, util.ErrUnsupportedMediaType
	}

	key := blob.NewStorageKey(user.ID, s.now())
	size, err := s.blobs.Put(ctx, key, file.Body)
	if err != nil {
		s.discardBlob(ctx, key)
		return nil, ingestError("failed to store file", err)
	}

	result, err := s.ingestStored(ctx, user, file, key, size)
	if err != nil {
		s.discardBlob(ctx, key)
		return nil, err
	}

	s.logger.InfoContext(ctx, "Upload ingested",
		"user_id", user.ID,
		"batch_id", result.BatchID,
		"accepted", result.AcceptedCount,
		"rejected", result.RejectedCount)

	e := events.NewEvent(events.BatchIngested, user.ID, result.BatchID)
	e.AcceptedCount, e.RejectedCount = result.AcceptedCount, result.RejectedCount
	s.publish(ctx, e)

	return result, nil
}

func (s *ledgerService) ingestStored(ctx context.Context, user *domain.User, file UploadFile, key string, size int64) (*IngestResult, error) {
	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return nil, ingestError("failed to begin transaction", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return nil, fmt.Errorf("ingest: transaction controller does not implement DBExecutor")
	}

	upload := domain.NewUpload(user.ID, ingest.CleanFilename(file.Filename), key, ingest.MediaType(file.ContentType), size)
	if err := s.uploadRepo.CreateUpload(ctx, txExecutor, upload); err != nil {
		return nil, ingestError("failed to create upload", err)
	}

	rc, err := s.blobs.Open(ctx, key)
	if err != nil {
		return nil, ingestError("failed to reopen stored file", err)
	}
	defer rc.Close()

	result := &IngestResult{BatchID: upload.ID, Rejected: []ingest.RejectedRow{}}
	var entries []domain.LedgerEntry
	err = ingest.Parse(ctx, rc, func(row ingest.Row) error {
		switch r := row.(type) {
		case ingest.ValidRow:
			entries = append(entries, r.Entry(user.ID, upload.ID))
		case ingest.RejectedRow:
			result.RejectedCount++
			if len(result.Rejected) < maxRejectedReported {
				result.Rejected = append(result.Rejected, r)
			}
		}
		return nil
	})
	if err != nil {
		return nil, ingestError("failed to parse file", err)
	}
	result.AcceptedCount = len(entries)

	if err := s.ledgerRepo.InsertEntries(ctx, txExecutor, entries); err != nil {
		return nil, ingestError("failed to insert entries", err)
	}
	if err := s.uploadRepo.UpdateUploadCounts(ctx, txExecutor, upload.ID, result.AcceptedCount, result.RejectedCount); err != nil {
		return nil, ingestError("failed to record counts", err)
	}

	if err := s.commitTx(txController); err != nil {
		return nil, ingestError("failed to commit transaction", err)
	}
	return result, nil
}

// ingestError keeps cancellation and size errors recognizable and tags everything else as storage.
func ingestError(msg string, err error) error {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return fmt.Errorf("ingest: %s: %w", msg, err)
	case errors.Is(err, util.ErrPayloadTooLarge):
		return util.ErrPayloadTooLarge
	}
	return util.StorageError("ingest: "+msg, err)
}

// discardBlob runs even when ctx is already cancelled.
func (s *ledgerService) discardBlob(ctx context.Context, key string) {
	ctx = context.WithoutCancel(ctx)
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.logger.ErrorContext(ctx, "Failed to delete stored file", "key", key, "error", err)
	}
}

func (s *ledgerService) publish(ctx context.Context, e events.Event) {
	if err := s.publisher.Publish(ctx, e); err != nil {
		s.logger.WarnContext(ctx, "Failed to publish event", "type", e.Type, "batch_id", e.BatchID, "error", err)
	}
}

// ListUploads returns the user's batches, newest first.
func (s *ledgerService) ListUploads(ctx context.Context, user *domain.User) ([]domain.Upload, error) {
	uploads, err := s.uploadRepo.ListUploadsByUser(ctx, s.dbExecutor, user.ID)
	if err != nil {
		return nil, util.StorageError("list uploads", err)
	}
	return uploads, nil
}

// DeleteUpload removes a batch with all of its entries, then its stored file.
// Batches owned by someone else are util.ErrNotFound.
func (s *ledgerService) DeleteUpload(ctx context.Context, user *domain.User, uploadID int64) error {
	txController, err := s.beginTx(ctx, s.dbBeginner)
	if err != nil {
		return util.StorageError("delete upload: failed to begin transaction", err)
	}
	defer s.rollbackTx(txController)

	txExecutor, ok := txController.(repository.DBExecutor)
	if !ok {
		return fmt.Errorf("delete upload: transaction controller does not implement DBExecutor")
	}

	upload, err := s.uploadRepo.GetUpload(ctx, txExecutor, uploadID, user.ID)
	if err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return util.ErrNotFound
		}
		return util.StorageError("delete upload: failed to get upload", err)
	}

	removed, err := s.ledgerRepo.DeleteEntriesByUpload(ctx, txExecutor, upload.ID, user.ID)
	if err != nil {
		return util.StorageError("delete upload: failed to delete entries", err)
	}
	if err := s.uploadRepo.DeleteUpload(ctx, txExecutor, upload.ID, user.ID); err != nil {
		if errors.Is(err, util.ErrNotFound) {
			return util.ErrNotFound
		}
		return util.StorageError("delete upload: failed to delete upload", err)
	}

	if err := s.commitTx(txController); err != nil {
		return util.StorageError("delete upload: failed to commit transaction", err)
	}

	if err := s.blobs.Delete(context.WithoutCancel(ctx), upload.StorageKey); err != nil {
		s.logger.WarnContext(ctx, "Stored file left behind", "batch_id", upload.ID, "key", upload.StorageKey, "error", err)
	}

	s.logger.InfoContext(ctx, "Upload deleted", "user_id", user.ID, "batch_id", upload.ID, "entries", removed)
	s.publish(ctx, events.NewEvent(events.BatchDeleted, user.ID, upload.ID))
	return nil
}

var exportHeader = []string{"date", "category", "amount", "type"}

func (s *ledgerService) ExportRawLedger(ctx context.Context, user *domain.User, w io.Writer) error {
	n, err := s.ledgerRepo.CountEntriesByUser(ctx, s.dbExecutor, user.ID)
	if err != nil {
		return util.StorageError("export ledger: failed to count entries", err)
	}
	if n == 0 {
		return util.ErrEmpty
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(exportHeader); err != nil {
		return fmt.Errorf("export ledger: failed to write header: %w", err)
	}
	record := make([]string, len(exportHeader))
	err = s.ledgerRepo.StreamEntriesByUser(ctx, s.dbExecutor, user.ID, func(e domain.LedgerEntry) error {
		record[0] = e.Date.Format(domain.DateLayout)
		record[1] = e.Category
		record[2] = e.Amount.String()
		record[3] = string(e.Kind)
		return cw.Write(record)
	})
	if err != nil {
		return util.StorageError("export ledger: failed to stream entries", err)
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("export ledger: failed to flush: %w", err)
	}
	return nil
}

func (s *ledgerService) ExportSummary(ctx context.Context, user *domain.User) (*domain.Summary, error) {
	totals, err := s.ledgerRepo.TotalsByKind(ctx, s.dbExecutor, user.ID)
	if err != nil {
		return nil, util.StorageError("export summary: failed to total entries", err)
	}

	var income, expense decimal.Decimal
	var count int64
	for _, t := range totals {
		count += t.Count
		switch t.Kind {
		case domain.KindIncome:
			income = income.Add(t.Total)
		case domain.KindExpense:
			expense = expense.Add(t.Total)
		}
	}
	if count == 0 {
		return nil, util.ErrEmpty
	}

	summary := domain.NewSummary(income, expense)
	return &summary, nil
}
