package main

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"

	"github.com/ghuser/recordvault/pkg/cache"
	"github.com/ghuser/recordvault/pkg/events"
	"github.com/ghuser/recordvault/pkg/logger"
	recorddomain "github.com/ghuser/recordvault/services/record/domain"
	recordEvents "github.com/ghuser/recordvault/services/record/domain/events"
	"github.com/ghuser/recordvault/services/record/domain/models"
)

type handlerFunc = func(context.Context, *message.Message) error

type recordReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Record, error)
}

type recordCache interface {
	Set(ctx context.Context, rec *cache.CachedRecord) error
	Delete(ctx context.Context, id uuid.UUID) error
}

// cacheHandlers keep the Redis read model in line with the store. Handlers
// are idempotent; EventBus retries up to 3x on failure.
type cacheHandlers struct {
	repo  recordReader
	cache recordCache
	log   logger.Logger
}

// recordChanged caches the record's current stored state rather than the
// event payload, so a late update event cannot resurrect a deleted record.
func (h *cacheHandlers) recordChanged(ctx context.Context, msg *message.Message) error {
	var evt recordEvents.RecordChangedEvent
	if !h.decode(ctx, msg, &evt) {
		return nil
	}

	rec, err := h.repo.GetByID(ctx, evt.RecordID)
	if errors.Is(err, recorddomain.ErrRecordNotFound) {
		return h.cache.Delete(ctx, evt.RecordID)
	}
	if err != nil {
		return err
	}

	if err := h.cache.Set(ctx, &cache.CachedRecord{
		ID:        rec.ID,
		Name:      rec.Name.String(),
		Details:   rec.Details,
		CreatedAt: rec.CreatedAt,
		UpdatedAt: rec.UpdatedAt,
	}); err != nil {
		return err
	}
	h.log.DebugContext(ctx, "cache refreshed", "record_id", rec.ID)
	return nil
}

func (h *cacheHandlers) recordDeleted(ctx context.Context, msg *message.Message) error {
	var evt recordEvents.RecordDeletedEvent
	if !h.decode(ctx, msg, &evt) {
		return nil
	}
	if err := h.cache.Delete(ctx, evt.RecordID); err != nil {
		return err
	}
	h.log.DebugContext(ctx, "cache evicted", "record_id", evt.RecordID)
	return nil
}

// decode reports false for payloads that can never succeed; those are
// logged and acked instead of retried.
func (h *cacheHandlers) decode(ctx context.Context, msg *message.Message, v any) bool {
	if err := json.Unmarshal(msg.Payload, v); err != nil {
		h.log.ErrorContext(ctx, "dropping undecodable event",
			"message_uuid", msg.UUID,
			"event_id", msg.Metadata.Get(events.MetadataEventID),
			"error", err,
		)
		return false
	}
	return true
}
