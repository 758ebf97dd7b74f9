// internal/repository/postgres/upload_pg.go
package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fintrack/internal/domain"
	"fintrack/internal/repository"
	"fintrack/internal/util"
)

// UploadRepository implements repository.UploadRepository for PostgreSQL.
type UploadRepository struct{}

// NewUploadRepository creates a new UploadRepository.
func NewUploadRepository() repository.UploadRepository {
	return &UploadRepository{}
}

const uploadColumns = `id, user_id, filename, storage_key, content_type, size_bytes, accepted_count, rejected_count, created_at`

// CreateUpload inserts the upload row and fills in its ID.
func (r *UploadRepository) CreateUpload(ctx context.Context, q repository.DBExecutor, upload *domain.Upload) error {
	query := `INSERT INTO uploads (user_id, filename, storage_key, content_type, size_bytes, accepted_count, rejected_count, created_at)
              VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING id`
	err := q.QueryRowContext(ctx, query,
		upload.UserID,
		upload.Filename,
		upload.StorageKey,
		upload.ContentType,
		upload.SizeBytes,
		upload.AcceptedCount,
		upload.RejectedCount,
		upload.CreatedAt,
	).Scan(&upload.ID)
	if err != nil {
		return fmt.Errorf("failed to create upload: %w", err)
	}
	return nil
}

// GetUpload retrieves an upload by ID, scoped to its owner.
func (r *UploadRepository) GetUpload(ctx context.Context, q repository.DBExecutor, id, userID int64) (*domain.Upload, error) {
	var upload domain.Upload
	query := `SELECT ` + uploadColumns + ` FROM uploads WHERE id = $1 AND user_id = $2`
	err := q.GetContext(ctx, &upload, query, id, userID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, util.ErrNotFound
		}
		return nil, fmt.Errorf("failed to get upload %d: %w", id, err)
	}
	return &upload, nil
}

// ListUploadsByUser returns the user's uploads, newest first.
func (r *UploadRepository) ListUploadsByUser(ctx context.Context, q repository.DBExecutor, userID int64) ([]domain.Upload, error) {
	uploads := []domain.Upload{}
	query := `SELECT ` + uploadColumns + ` FROM uploads WHERE user_id = $1 ORDER BY created_at DESC, id DESC`
	if err := q.SelectContext(ctx, &uploads, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list uploads for user %d: %w", userID, err)
	}
	return uploads, nil
}

// UpdateUploadCounts records the ingestion outcome on the upload row.
func (r *UploadRepository) UpdateUploadCounts(ctx context.Context, q repository.DBExecutor, id int64, accepted, rejected int) error {
	query := `UPDATE uploads SET accepted_count = $1, rejected_count = $2 WHERE id = $3`
	result, err := q.ExecContext(ctx, query, accepted, rejected, id)
	if err != nil {
		return fmt.Errorf("failed to update counts for upload %d: %w", id, err)
	}
	return expectAffected(result, id)
}

// DeleteUpload removes the upload row, scoped to its owner.
func (r *UploadRepository) DeleteUpload(ctx context.Context, q repository.DBExecutor, id, userID int64) error {
	query := `DELETE FROM uploads WHERE id = $1 AND user_id = $2`
	result, err := q.ExecContext(ctx, query, id, userID)
	if err != nil {
		return fmt.Errorf("failed to delete upload %d: %w", id, err)
	}
	return expectAffected(result, id)
}

func expectAffected(result sql.Result, id int64) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to get rows affected for upload %d: %w", id, err)
	}
	if rowsAffected == 0 {
		return util.ErrNotFound
	}
	return nil
}
