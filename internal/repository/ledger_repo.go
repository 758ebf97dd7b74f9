// internal/repository/ledger_repo.go
package repository

import (
	"context"

	"github.com/shopspring/decimal"

	"fintrack/internal/domain"
)

// KindTotal is the aggregate of one entry kind for one user.
type KindTotal struct {
	Kind  domain.EntryKind `db:"kind"`
	Total decimal.Decimal  `db:"total"`
	Count int64            `db:"n"`
}

// LedgerRepository defines the interface for ledger entry operations.
type LedgerRepository interface {
	// InsertEntries writes all entries; run it inside a transaction so the set
	// becomes visible at once.
	InsertEntries(ctx context.Context, q DBExecutor, entries []domain.LedgerEntry) error
	// DeleteEntriesByUpload removes every entry produced by the upload and returns how many were removed.
	DeleteEntriesByUpload(ctx context.Context, q DBExecutor, uploadID, userID int64) (int64, error)
	CountEntriesByUser(ctx context.Context, q DBExecutor, userID int64) (int64, error)
	// StreamEntriesByUser calls fn for each of the user's entries ordered by date,
	// stopping at the first error fn returns.
	StreamEntriesByUser(ctx context.Context, q DBExecutor, userID int64, fn func(domain.LedgerEntry) error) error
	TotalsByKind(ctx context.Context, q DBExecutor, userID int64) ([]KindTotal, error)
}
