package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"

	"fintrack/internal/domain"
)

// Required column names. "kind" is accepted as an alias of "type".
const (
	colDate     = "date"
	colCategory = "category"
	colAmount   = "amount"
	colType     = "type"
)

var headerAliases = map[string]string{
	"kind": colType,
}

var requiredColumns = []string{colDate, colCategory, colAmount, colType}

// Stored amounts are NUMERIC(20,4): four fractional and sixteen integer digits.
const amountScale = 4

var maxAmount = decimal.New(1, 20-amountScale)

// dateLayouts are tried in order; the first that parses wins.
var dateLayouts = []string{
	"2006-01-02",
	"2006/01/02",
	"2006-01-02 15:04:05",
	time.RFC3339,
	"01/02/2006",
}

// ParseDate reads a calendar date in any accepted layout and returns it at UTC midnight.
func ParseDate(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized date %q", s)
}

// Parse reads CSV records from r and calls fn with one Row per data record.
// The first record is the header. A header lacking a required column rejects
// every data record. Parsing stops at the first error fn returns, at ctx
// cancellation, or at a malformed-CSV error from the reader.
func Parse(ctx context.Context, r io.Reader, fn func(Row) error) error {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("ingest: failed to read header: %w", err)
	}
	columns, missing := mapHeader(header)

	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return nil
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				if err := fn(RejectedRow{Line: parseErr.StartLine, Reason: "malformed CSV: " + parseErr.Err.Error()}); err != nil {
					return err
				}
				continue
			}
			return fmt.Errorf("ingest: failed to read record: %w", err)
		}
		line, _ := reader.FieldPos(0)
		if isBlank(record) {
			continue
		}

		var row Row
		if missing != "" {
			row = RejectedRow{Line: line, Reason: "missing column " + missing}
		} else {
			row = validate(line, record, columns)
		}
		if err := fn(row); err != nil {
			return err
		}
	}
}

func mapHeader(header []string) (map[string]int, string) {
	columns := make(map[string]int, len(header))
	for i, name := range header {
		name = strings.ToLower(strings.TrimSpace(strings.TrimPrefix(name, "\ufeff")))
		if alias, ok := headerAliases[name]; ok {
			name = alias
		}
		if _, seen := columns[name]; !seen {
			columns[name] = i
		}
	}
	for _, name := range requiredColumns {
		if _, ok := columns[name]; !ok {
			return columns, name
		}
	}
	return columns, ""
}

func validate(line int, record []string, columns map[string]int) Row {
	field := func(name string) string {
		i := columns[name]
		if i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}
	reject := func(reason string) Row {
		return RejectedRow{Line: line, Reason: reason}
	}

	rawDate, category, rawAmount, rawKind := field(colDate), field(colCategory), field(colAmount), field(colType)
	if rawDate == "" {
		return reject("date is required")
	}
	if category == "" {
		return reject("category is required")
	}
	if rawAmount == "" {
		return reject("amount is required")
	}
	if rawKind == "" {
		return reject("type is required")
	}
	if !utf8.ValidString(category) {
		return reject("category is not valid UTF-8")
	}
	if strings.ContainsRune(category, 0) {
		return reject("category contains a NUL byte")
	}

	date, err := ParseDate(rawDate)
	if err != nil {
		return reject(err.Error())
	}
	amount, err := decimal.NewFromString(rawAmount)
	if err != nil {
		return reject(fmt.Sprintf("invalid amount %q", rawAmount))
	}
	if !amount.IsPositive() {
		return reject("amount must be greater than zero")
	}
	amount = amount.Round(amountScale)
	if !amount.IsPositive() {
		return reject(fmt.Sprintf("amount %q is below the smallest storable unit 0.0001", rawAmount))
	}
	if amount.GreaterThanOrEqual(maxAmount) {
		return reject(fmt.Sprintf("amount %q is too large", rawAmount))
	}
	kind, ok := domain.ParseEntryKind(rawKind)
	if !ok {
		return reject(fmt.Sprintf("type must be Income or Expense, got %q", rawKind))
	}

	return ValidRow{Line: line, Date: date, Category: category, Amount: amount, Kind: kind}
}

func isBlank(record []string) bool {
	for _, f := range record {
		if strings.TrimSpace(f) != "" {
			return false
		}
	}
	return true
}
