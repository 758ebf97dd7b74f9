// Package blob keeps the raw bytes of uploaded files.
package blob

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/google/uuid"
)

// Store persists opaque blobs under string keys.
type Store interface {
	// Put writes r under key and returns the number of bytes stored.
	Put(ctx context.Context, key string, r io.Reader) (int64, error)
	// Open returns a reader over the blob. A missing key yields util.ErrNotFound.
	Open(ctx context.Context, key string) (io.ReadCloser, error)
	// Delete removes the blob. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
}

// NewStorageKey returns a fresh key of the form users/<userID>/<yyyy>/<mm>/<dd>/<uuid>.csv.
func NewStorageKey(userID int64, now time.Time) string {
	now = now.UTC()
	return fmt.Sprintf("users/%d/%04d/%02d/%02d/%s.csv", userID, now.Year(), int(now.Month()), now.Day(), uuid.New())
}
