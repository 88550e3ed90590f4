package events

import (
	"time"

	"github.com/google/uuid"
)

// Watermill topics published by the postgres record repository inside the
// same transaction as the change.
const (
	TopicRecordCreated = "record.created"
	TopicRecordUpdated = "record.updated"
	TopicRecordDeleted = "record.deleted"
)

// RecordChangedEvent carries the full record state after a create or update.
type RecordChangedEvent struct {
	EventID    uuid.UUID `json:"event_id"` // Unique publish-time identifier for deduplication
	Version    int       `json:"version"`  // Schema version; increment on breaking changes
	RecordID   uuid.UUID `json:"record_id"`
	Name       string    `json:"name"`
	Details    string    `json:"details"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	OccurredAt time.Time `json:"occurred_at"`
}

// RecordDeletedEvent is published after a record is removed.
type RecordDeletedEvent struct {
	EventID    uuid.UUID `json:"event_id"`
	Version    int       `json:"version"`
	RecordID   uuid.UUID `json:"record_id"`
	OccurredAt time.Time `json:"occurred_at"`
}
