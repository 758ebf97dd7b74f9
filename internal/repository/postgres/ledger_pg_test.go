package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"fintrack/internal/domain"
)

func makeEntries(n int) []domain.LedgerEntry {
	date := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	entries := make([]domain.LedgerEntry, n)
	for i := range entries {
		entries[i] = *domain.NewLedgerEntry(1, 9, date, "Food", decimal.NewFromInt(int64(i+1)), domain.KindExpense)
	}
	return entries
}

func TestLedgerRepository_InsertEntries_Chunks(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(`INSERT INTO ledger_entries \(user_id, upload_id, date, category, amount, kind, created_at\)`).
		WillReturnResult(sqlmock.NewResult(0, insertChunkSize))
	mock.ExpectExec(`INSERT INTO ledger_entries`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := NewLedgerRepository().InsertEntries(context.Background(), db, makeEntries(insertChunkSize+1))
	assert.NoError(t, err)
}

func TestLedgerRepository_InsertEntries_NothingToInsert(t *testing.T) {
	db, _ := newMockDB(t)

	assert.NoError(t, NewLedgerRepository().InsertEntries(context.Background(), db, nil))
}

func TestLedgerRepository_InsertEntries_Error(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(`INSERT INTO ledger_entries`).WillReturnError(errors.New("disk full"))

	err := NewLedgerRepository().InsertEntries(context.Background(), db, makeEntries(3))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
}

func TestLedgerRepository_DeleteEntriesByUpload(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectExec(`DELETE FROM ledger_entries WHERE upload_id = \$1 AND user_id = \$2`).
		WithArgs(int64(9), int64(1)).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := NewLedgerRepository().DeleteEntriesByUpload(context.Background(), db, 9, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(4), n)
}

func TestLedgerRepository_CountEntriesByUser(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM ledger_entries WHERE user_id = \$1`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(3)))

	n, err := NewLedgerRepository().CountEntriesByUser(context.Background(), db, 1)
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
}

func TestLedgerRepository_StreamEntriesByUser(t *testing.T) {
	db, mock := newMockDB(t)
	date := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	columns := []string{"id", "user_id", "upload_id", "date", "category", "amount", "kind", "created_at"}

	mock.ExpectQuery(`FROM ledger_entries WHERE user_id = \$1 ORDER BY date, id`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(int64(1), int64(1), int64(9), date, "Salary", "1500.0000", "Income", date).
			AddRow(int64(2), int64(1), nil, date, "Rent", "700.5000", "Expense", date))

	var got []domain.LedgerEntry
	err := NewLedgerRepository().StreamEntriesByUser(context.Background(), db, 1, func(e domain.LedgerEntry) error {
		got = append(got, e)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, domain.KindIncome, got[0].Kind)
	require.NotNil(t, got[0].UploadID)
	assert.Equal(t, int64(9), *got[0].UploadID)
	assert.Nil(t, got[1].UploadID)
	assert.True(t, decimal.RequireFromString("700.5").Equal(got[1].Amount))
}

func TestLedgerRepository_StreamEntriesByUser_CallbackError(t *testing.T) {
	db, mock := newMockDB(t)
	date := time.Date(2025, 1, 15, 0, 0, 0, 0, time.UTC)
	columns := []string{"id", "user_id", "upload_id", "date", "category", "amount", "kind", "created_at"}
	stop := errors.New("client went away")

	mock.ExpectQuery(`FROM ledger_entries`).
		WillReturnRows(sqlmock.NewRows(columns).
			AddRow(int64(1), int64(1), nil, date, "Salary", "1", "Income", date).
			AddRow(int64(2), int64(1), nil, date, "Rent", "2", "Expense", date))

	calls := 0
	err := NewLedgerRepository().StreamEntriesByUser(context.Background(), db, 1, func(domain.LedgerEntry) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestLedgerRepository_TotalsByKind(t *testing.T) {
	db, mock := newMockDB(t)

	mock.ExpectQuery(`SELECT kind, COALESCE\(SUM\(amount\), 0\) AS total, COUNT\(\*\) AS n\s+FROM ledger_entries WHERE user_id = \$1 GROUP BY kind`).
		WithArgs(int64(1)).
		WillReturnRows(sqlmock.NewRows([]string{"kind", "total", "n"}).
			AddRow("Income", "110.0000", int64(2)).
			AddRow("Expense", "40.0000", int64(1)))

	totals, err := NewLedgerRepository().TotalsByKind(context.Background(), db, 1)
	require.NoError(t, err)
	require.Len(t, totals, 2)
	assert.Equal(t, domain.KindIncome, totals[0].Kind)
	assert.True(t, decimal.NewFromInt(110).Equal(totals[0].Total))
	assert.Equal(t, int64(1), totals[1].Count)
}
