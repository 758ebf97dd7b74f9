// internal/repository/upload_repo.go
package repository

import (
	"context"

	"fintrack/internal/domain"
)

// UploadRepository defines the interface for upload batch operations.
// Every lookup is scoped by owner; a row owned by someone else is util.ErrNotFound.
type UploadRepository interface {
	CreateUpload(ctx context.Context, q DBExecutor, upload *domain.Upload) error
	GetUpload(ctx context.Context, q DBExecutor, id, userID int64) (*domain.Upload, error)
	ListUploadsByUser(ctx context.Context, q DBExecutor, userID int64) ([]domain.Upload, error)
	UpdateUploadCounts(ctx context.Context, q DBExecutor, id int64, accepted, rejected int) error
	DeleteUpload(ctx context.Context, q DBExecutor, id, userID int64) error
}
