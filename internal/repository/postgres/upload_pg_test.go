package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/domain"
	"fintrack/internal/util"
)

var uploadRowColumns = []string{"id", "user_id", "filename", "storage_key", "content_type", "size_bytes", "accepted_count", "rejected_count", "created_at"}

func TestUploadRepository_CreateUpload(t *testing.T) {
	db, mock := newMockDB(t)
	upload := domain.NewUpload(3, "march.csv", "users/3/key.csv", "text/csv", 128)

	mock.ExpectQuery(`INSERT INTO uploads \(user_id, filename, storage_key, content_type, size_bytes, accepted_count, rejected_count, created_at\)`).
		WithArgs(int64(3), "march.csv", "users/3/key.csv", "text/csv", int64(128), 0, 0, upload.CreatedAt).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow(int64(11)))

	require.NoError(t, NewUploadRepository().CreateUpload(context.Background(), db, upload))
	assert.Equal(t, int64(11), upload.ID)
}

func TestUploadRepository_GetUpload_ScopedToOwner(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`FROM uploads WHERE id = \$1 AND user_id = \$2`).
		WithArgs(int64(11), int64(4)).
		WillReturnRows(sqlmock.NewRows(uploadRowColumns))

	_, err := NewUploadRepository().GetUpload(context.Background(), db, 11, 4)
	assert.ErrorIs(t, err, util.ErrNotFound)
}

func TestUploadRepository_ListUploadsByUser(t *testing.T) {
	db, mock := newMockDB(t)
	newer := time.Date(2025, 3, 2, 0, 0, 0, 0, time.UTC)
	older := newer.Add(-24 * time.Hour)

	mock.ExpectQuery(`FROM uploads WHERE user_id = \$1 ORDER BY created_at DESC, id DESC`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(uploadRowColumns).
			AddRow(int64(12), int64(3), "b.csv", "k2", "text/csv", int64(10), 2, 0, newer).
			AddRow(int64(11), int64(3), "a.csv", "k1", "text/csv", int64(10), 1, 1, older))

	uploads, err := NewUploadRepository().ListUploadsByUser(context.Background(), db, 3)
	require.NoError(t, err)
	require.Len(t, uploads, 2)
	assert.Equal(t, int64(12), uploads[0].ID)
	assert.Equal(t, 1, uploads[1].RejectedCount)
}

func TestUploadRepository_ListUploadsByUser_Empty(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`FROM uploads WHERE user_id = \$1`).
		WithArgs(int64(3)).
		WillReturnRows(sqlmock.NewRows(uploadRowColumns))

	uploads, err := NewUploadRepository().ListUploadsByUser(context.Background(), db, 3)
	require.NoError(t, err)
	assert.NotNil(t, uploads)
	assert.Empty(t, uploads)
}

func TestUploadRepository_DeleteUpload(t *testing.T) {
	ctx := context.Background()
	repo := NewUploadRepository()

	t.Run("Deleted", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`DELETE FROM uploads WHERE id = \$1 AND user_id = \$2`).
			WithArgs(int64(11), int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 1))

		assert.NoError(t, repo.DeleteUpload(ctx, db, 11, 3))
	})

	t.Run("NoRow", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`DELETE FROM uploads`).
			WithArgs(int64(11), int64(3)).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, repo.DeleteUpload(ctx, db, 11, 3), util.ErrNotFound)
	})

	t.Run("RowsAffectedError", func(t *testing.T) {
		db, mock := newMockDB(t)
		mock.ExpectExec(`DELETE FROM uploads`).
			WillReturnResult(sqlmock.NewErrorResult(errors.New("rows-err")))

		err := repo.DeleteUpload(ctx, db, 11, 3)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "rows-err")
	})
}

func TestUploadRepository_UpdateUploadCounts(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(`UPDATE uploads SET accepted_count = \$1, rejected_count = \$2 WHERE id = \$3`).
		WithArgs(5, 2, int64(11)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, NewUploadRepository().UpdateUploadCounts(context.Background(), db, 11, 5, 2))
}
