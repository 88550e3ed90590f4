package events_test

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/recordvault/services/record/domain/events"
)

func TestRecordChangedEvent_JSONFieldNames(t *testing.T) {
	now := time.Now().UTC()
	data, err := json.Marshal(events.RecordChangedEvent{
		EventID:    uuid.New(),
		Version:    1,
		RecordID:   uuid.New(),
		Name:       "Router",
		CreatedAt:  now,
		UpdatedAt:  now,
		OccurredAt: now,
	})
	if err != nil {
		t.Fatalf("json.Marshal failed: %v", err)
	}

	var raw map[string]any
	if err := json.Unmarshal(data, &raw); err != nil {
		t.Fatalf("unmarshal to map failed: %v", err)
	}
	for _, field := range []string{"event_id", "version", "record_id", "name", "details", "created_at", "updated_at", "occurred_at"} {
		if _, ok := raw[field]; !ok {
			t.Errorf("expected JSON field %q not found in: %s", field, data)
		}
	}
}

func TestTopics_Distinct(t *testing.T) {
	seen := map[string]bool{}
	for _, topic := range []string{events.TopicRecordCreated, events.TopicRecordUpdated, events.TopicRecordDeleted} {
		if topic == "" {
			t.Fatal("topic must not be empty")
		}
		if seen[topic] {
			t.Fatalf("duplicate topic %q", topic)
		}
		seen[topic] = true
	}
}
