// Package events announces upload batch changes to downstream consumers.
package events

import (
	"context"
	"encoding/json"
	"time"
)

// Type names the change a message describes. It doubles as the routing key.
type Type string

const (
	BatchIngested Type = "batch.ingested"
	BatchDeleted  Type = "batch.deleted"
)

// Event is a lightweight notice; consumers read details from the database.
type Event struct {
	Type          Type      `json:"type"`
	UserID        int64     `json:"user_id"`
	BatchID       int64     `json:"batch_id"`
	AcceptedCount int       `json:"accepted_count,omitempty"`
	RejectedCount int       `json:"rejected_count,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// NewEvent stamps an event with the current time.
func NewEvent(typ Type, userID, batchID int64) Event {
	return Event{Type: typ, UserID: userID, BatchID: batchID, Timestamp: time.Now().UTC()}
}

// ToJSON converts the event to JSON bytes.
func (e Event) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// Publisher delivers events. Callers treat failures as non-fatal.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
	Close() error
}

// NoopPublisher drops every event. Used when no broker is configured.
type NoopPublisher struct{}

func (NoopPublisher) Publish(context.Context, Event) error { return nil }
func (NoopPublisher) Close() error                         { return nil }
