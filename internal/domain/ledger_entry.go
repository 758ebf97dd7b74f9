// internal/domain/ledger_entry.go
package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// EntryKind classifies a ledger entry as money in or money out.
type EntryKind string

const (
	KindIncome  EntryKind = "Income"
	KindExpense EntryKind = "Expense"
)

// ParseEntryKind accepts exactly "Income" or "Expense".
func ParseEntryKind(s string) (EntryKind, bool) {
	switch EntryKind(s) {
	case KindIncome, KindExpense:
		return EntryKind(s), true
	}
	return "", false
}

// DateLayout is the calendar-date format used in storage and exports.
const DateLayout = "2006-01-02"

// LedgerEntry is one dated income or expense record owned by a single user.
type LedgerEntry struct {
	ID        int64           `db:"id" json:"id"`
	UserID    int64           `db:"user_id" json:"-"`
	UploadID  *int64          `db:"upload_id" json:"-"` // nil for entries not created by an upload
	Date      time.Time       `db:"date" json:"date"`
	Category  string          `db:"category" json:"category"`
	Amount    decimal.Decimal `db:"amount" json:"amount"` // NUMERIC(20, 4), always > 0
	Kind      EntryKind       `db:"kind" json:"type"`
	CreatedAt time.Time       `db:"created_at" json:"created_at"`
}

// NewLedgerEntry creates an entry owned by userID, linked to uploadID.
func NewLedgerEntry(userID, uploadID int64, date time.Time, category string, amount decimal.Decimal, kind EntryKind) *LedgerEntry {
	return &LedgerEntry{
		UserID:    userID,
		UploadID:  &uploadID,
		Date:      date,
		Category:  category,
		Amount:    amount,
		Kind:      kind,
		CreatedAt: time.Now().UTC(),
	}
}
