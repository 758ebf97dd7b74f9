// internal/domain/upload.go
package domain

import "time"

// Upload is one ingestion event and the unit of cascading deletion: removing
// it removes every ledger entry it produced and its stored file.
type Upload struct {
	ID            int64     `db:"id" json:"id"`
	UserID        int64     `db:"user_id" json:"-"`
	Filename      string    `db:"filename" json:"filename"`
	StorageKey    string    `db:"storage_key" json:"-"`
	ContentType   string    `db:"content_type" json:"content_type"`
	SizeBytes     int64     `db:"size_bytes" json:"size_bytes"`
	AcceptedCount int       `db:"accepted_count" json:"accepted_count"`
	RejectedCount int       `db:"rejected_count" json:"rejected_count"`
	CreatedAt     time.Time `db:"created_at" json:"uploaded_at"`
}

// NewUpload creates an Upload owned by userID.
func NewUpload(userID int64, filename, storageKey, contentType string, size int64) *Upload {
	return &Upload{
		UserID:      userID,
		Filename:    filename,
		StorageKey:  storageKey,
		ContentType: contentType,
		SizeBytes:   size,
		CreatedAt:   time.Now().UTC(),
	}
}
