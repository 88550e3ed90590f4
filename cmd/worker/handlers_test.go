package main

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghuser/recordvault/pkg/cache"
	"github.com/ghuser/recordvault/pkg/events"
	"github.com/ghuser/recordvault/pkg/logger"
	recorddomain "github.com/ghuser/recordvault/services/record/domain"
	recordEvents "github.com/ghuser/recordvault/services/record/domain/events"
	"github.com/ghuser/recordvault/services/record/domain/models"
)

type stubRepo struct {
	rec *models.Record
	err error
}

func (s *stubRepo) GetByID(context.Context, uuid.UUID) (*models.Record, error) {
	return s.rec, s.err
}

type stubCache struct {
	set     []*cache.CachedRecord
	deleted []uuid.UUID
	err     error
}

func (s *stubCache) Set(_ context.Context, rec *cache.CachedRecord) error {
	if s.err != nil {
		return s.err
	}
	s.set = append(s.set, rec)
	return nil
}

func (s *stubCache) Delete(_ context.Context, id uuid.UUID) error {
	if s.err != nil {
		return s.err
	}
	s.deleted = append(s.deleted, id)
	return nil
}

func changedMsg(t *testing.T, id uuid.UUID) *message.Message {
	t.Helper()
	evt := recordEvents.RecordChangedEvent{EventID: uuid.New(), Version: 1, RecordID: id, Name: "stale"}
	msg, err := events.NewMessage(evt.EventID, evt.Version, evt)
	require.NoError(t, err)
	return msg
}

func TestRecordChanged_CachesStoredState(t *testing.T) {
	ts := time.Date(2026, 10, 17, 9, 0, 0, 0, time.UTC)
	rec := &models.Record{ID: uuid.New(), Name: "Router", Details: "Home WiFi", CreatedAt: ts, UpdatedAt: ts}
	c := &stubCache{}
	h := &cacheHandlers{repo: &stubRepo{rec: rec}, cache: c, log: logger.Nop()}

	require.NoError(t, h.recordChanged(context.Background(), changedMsg(t, rec.ID)))
	require.Len(t, c.set, 1)
	assert.Equal(t, "Router", c.set[0].Name)
	assert.Equal(t, "Home WiFi", c.set[0].Details)
}

func TestRecordChanged_GoneRecordIsEvicted(t *testing.T) {
	id := uuid.New()
	c := &stubCache{}
	h := &cacheHandlers{repo: &stubRepo{err: recorddomain.ErrRecordNotFound}, cache: c, log: logger.Nop()}

	require.NoError(t, h.recordChanged(context.Background(), changedMsg(t, id)))
	assert.Empty(t, c.set)
	assert.Equal(t, []uuid.UUID{id}, c.deleted)
}

func TestRecordChanged_StoreErrorIsRetried(t *testing.T) {
	h := &cacheHandlers{repo: &stubRepo{err: errors.New("conn reset")}, cache: &stubCache{}, log: logger.Nop()}
	require.Error(t, h.recordChanged(context.Background(), changedMsg(t, uuid.New())))
}

func TestRecordDeleted(t *testing.T) {
	id := uuid.New()
	evt := recordEvents.RecordDeletedEvent{EventID: uuid.New(), Version: 1, RecordID: id}
	msg, err := events.NewMessage(evt.EventID, evt.Version, evt)
	require.NoError(t, err)

	c := &stubCache{}
	h := &cacheHandlers{repo: &stubRepo{}, cache: c, log: logger.Nop()}
	require.NoError(t, h.recordDeleted(context.Background(), msg))
	assert.Equal(t, []uuid.UUID{id}, c.deleted)

	h.cache = &stubCache{err: errors.New("redis down")}
	require.Error(t, h.recordDeleted(context.Background(), msg))
}

func TestUndecodablePayloadIsDropped(t *testing.T) {
	c := &stubCache{}
	h := &cacheHandlers{repo: &stubRepo{}, cache: c, log: logger.Nop()}
	msg := message.NewMessage(uuid.NewString(), []byte("not json"))

	require.NoError(t, h.recordChanged(context.Background(), msg))
	require.NoError(t, h.recordDeleted(context.Background(), msg))
	assert.Empty(t, c.set)
	assert.Empty(t, c.deleted)
}
