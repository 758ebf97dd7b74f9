package domain

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestNewSummary(t *testing.T) {
	s := NewSummary(decimal.NewFromInt(110), decimal.NewFromInt(40))

	assert.True(t, decimal.NewFromInt(110).Equal(s.Income))
	assert.True(t, decimal.NewFromInt(40).Equal(s.Expense))
	assert.True(t, decimal.NewFromInt(70).Equal(s.Savings))
}

func TestNewSummary_NegativeSavings(t *testing.T) {
	s := NewSummary(decimal.RequireFromString("10.50"), decimal.RequireFromString("20.25"))
	assert.Equal(t, "-9.75", s.Savings.String())
}

func TestParseEntryKind(t *testing.T) {
	k, ok := ParseEntryKind("Income")
	assert.True(t, ok)
	assert.Equal(t, KindIncome, k)

	k, ok = ParseEntryKind("Expense")
	assert.True(t, ok)
	assert.Equal(t, KindExpense, k)

	_, ok = ParseEntryKind("income")
	assert.False(t, ok, "kind matching is case-sensitive")

	_, ok = ParseEntryKind("")
	assert.False(t, ok)
}

func TestSessionExpired(t *testing.T) {
	s := &Session{ExpiresAt: testNow}
	assert.True(t, s.Expired(testNow))
	assert.False(t, s.Expired(testNow.Add(-1)))
}

var testNow = mustTime("2025-03-01T12:00:00Z")

func mustTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		panic(err)
	}
	return t
}
