// Package ingest turns uploaded CSV bytes into validated ledger rows.
package ingest

import (
	"time"

	"github.com/shopspring/decimal"

	"fintrack/internal/domain"
)

// Row is the outcome of validating one CSV record: either a ValidRow or a RejectedRow.
type Row interface {
	// LineNumber is the 1-based line of the record in the source file, header included.
	LineNumber() int
	isRow()
}

// ValidRow carries a record that can become a ledger entry.
type ValidRow struct {
	Line     int
	Date     time.Time
	Category string
	Amount   decimal.Decimal
	Kind     domain.EntryKind
}

func (r ValidRow) LineNumber() int { return r.Line }
func (ValidRow) isRow()            {}

// Entry converts the row into a ledger entry owned by userID and linked to uploadID.
func (r ValidRow) Entry(userID, uploadID int64) domain.LedgerEntry {
	return *domain.NewLedgerEntry(userID, uploadID, r.Date, r.Category, r.Amount, r.Kind)
}

// RejectedRow is a record that failed validation and why.
type RejectedRow struct {
	Line   int    `json:"line"`
	Reason string `json:"reason"`
}

func (r RejectedRow) LineNumber() int { return r.Line }
func (RejectedRow) isRow()            {}
