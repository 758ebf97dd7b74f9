// internal/domain/summary.go
package domain

import "github.com/shopspring/decimal"

// Summary totals a user's ledger by kind.
type Summary struct {
	Income  decimal.Decimal `json:"income"`
	Expense decimal.Decimal `json:"expense"`
	Savings decimal.Decimal `json:"savings"`
}

// NewSummary derives savings as income minus expense.
func NewSummary(income, expense decimal.Decimal) Summary {
	return Summary{
		Income:  income,
		Expense: expense,
		Savings: income.Sub(expense),
	}
}
