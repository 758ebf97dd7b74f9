// internal/util/errors.go
package util

import (
	"errors"
	"fmt"
)

// Common application-specific errors.
var (
	ErrUnauthorized         = errors.New("unauthorized")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidInput         = errors.New("invalid input provided")
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrUnsupportedMediaType = errors.New("only CSV files allowed")
	ErrPayloadTooLarge      = errors.New("file too large")
	ErrNotFound             = errors.New("resource not found")
	ErrConflict             = errors.New("user already exists")
	ErrEmpty                = errors.New("no transactions found")
	ErrStorage              = errors.New("storage failure")
	ErrUpstream             = errors.New("analytics service unavailable")
)

// IsError reports whether any error in err's chain matches target.
func IsError(err, target error) bool {
	return errors.Is(err, target)
}

// ValidationError wraps ErrInvalidInput with a message that is safe to show to the caller.
func ValidationError(msg string) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, msg)
}

// StorageError tags a durable-store or blob failure with ErrStorage while
// keeping the underlying cause in the chain for logging.
func StorageError(op string, err error) error {
	return fmt.Errorf("%s: %w: %w", op, ErrStorage, err)
}
