// internal/repository/postgres/ledger_pg.go
package postgres

import (
	"context"
	"fmt"

	"fintrack/internal/domain"
	"fintrack/internal/repository"
)

// insertChunkSize keeps one multi-row INSERT well below PostgreSQL's 65535 bind parameter limit.
const insertChunkSize = 1000

// LedgerRepository implements repository.LedgerRepository for PostgreSQL.
type LedgerRepository struct{}

// NewLedgerRepository creates a new LedgerRepository.
func NewLedgerRepository() repository.LedgerRepository {
	return &LedgerRepository{}
}

// InsertEntries writes entries with multi-row INSERT statements of up to insertChunkSize rows.
func (r *LedgerRepository) InsertEntries(ctx context.Context, q repository.DBExecutor, entries []domain.LedgerEntry) error {
	query := `INSERT INTO ledger_entries (user_id, upload_id, date, category, amount, kind, created_at)
              VALUES (:user_id, :upload_id, :date, :category, :amount, :kind, :created_at)`

	for start := 0; start < len(entries); start += insertChunkSize {
		end := min(start+insertChunkSize, len(entries))
		if _, err := q.NamedExecContext(ctx, query, entries[start:end]); err != nil {
			return fmt.Errorf("failed to insert ledger entries %d-%d: %w", start, end, err)
		}
	}
	return nil
}

// DeleteEntriesByUpload removes the entries an upload produced.
func (r *LedgerRepository) DeleteEntriesByUpload(ctx context.Context, q repository.DBExecutor, uploadID, userID int64) (int64, error) {
	query := `DELETE FROM ledger_entries WHERE upload_id = $1 AND user_id = $2`
	result, err := q.ExecContext(ctx, query, uploadID, userID)
	if err != nil {
		return 0, fmt.Errorf("failed to delete entries of upload %d: %w", uploadID, err)
	}
	n, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("failed to get rows affected deleting entries of upload %d: %w", uploadID, err)
	}
	return n, nil
}

// CountEntriesByUser returns how many entries the user owns.
func (r *LedgerRepository) CountEntriesByUser(ctx context.Context, q repository.DBExecutor, userID int64) (int64, error) {
	var n int64
	if err := q.GetContext(ctx, &n, `SELECT COUNT(*) FROM ledger_entries WHERE user_id = $1`, userID); err != nil {
		return 0, fmt.Errorf("failed to count entries for user %d: %w", userID, err)
	}
	return n, nil
}

// StreamEntriesByUser walks the user's entries through a cursor instead of loading them all.
func (r *LedgerRepository) StreamEntriesByUser(ctx context.Context, q repository.DBExecutor, userID int64, fn func(domain.LedgerEntry) error) error {
	query := `SELECT id, user_id, upload_id, date, category, amount, kind, created_at
              FROM ledger_entries WHERE user_id = $1 ORDER BY date, id`
	rows, err := q.QueryxContext(ctx, query, userID)
	if err != nil {
		return fmt.Errorf("failed to query entries for user %d: %w", userID, err)
	}
	defer rows.Close()

	for rows.Next() {
		var e domain.LedgerEntry
		if err := rows.StructScan(&e); err != nil {
			return fmt.Errorf("failed to scan ledger entry: %w", err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to iterate entries for user %d: %w", userID, err)
	}
	return nil
}

// TotalsByKind sums amounts per kind for the user.
func (r *LedgerRepository) TotalsByKind(ctx context.Context, q repository.DBExecutor, userID int64) ([]repository.KindTotal, error) {
	totals := []repository.KindTotal{}
	query := `SELECT kind, COALESCE(SUM(amount), 0) AS total, COUNT(*) AS n
              FROM ledger_entries WHERE user_id = $1 GROUP BY kind`
	if err := q.SelectContext(ctx, &totals, query, userID); err != nil {
		return nil, fmt.Errorf("failed to total entries for user %d: %w", userID, err)
	}
	return totals, nil
}
