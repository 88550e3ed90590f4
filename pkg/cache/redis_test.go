package cache

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRedisClient_InvalidURL(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "not-a-valid-url")
	if err == nil {
		t.Fatal("expected error for invalid URL, got nil")
	}
}

func TestNewRedisClient_UnreachableHost(t *testing.T) {
	_, err := NewRedisClient(context.Background(), "redis://localhost:19999")
	if err == nil {
		t.Fatal("expected error when Redis is unreachable, got nil")
	}
}

func TestRedisClient_CloseNil(t *testing.T) {
	var rc *RedisClient
	if err := rc.Close(); err != nil {
		t.Fatalf("Close on nil client: %v", err)
	}
}

func TestKeyAndMiss(t *testing.T) {
	id := uuid.MustParse("6f1c1c7e-3a7b-4c55-9f49-0a1f0f7f0001")
	assert.Equal(t, "record:6f1c1c7e-3a7b-4c55-9f49-0a1f0f7f0001", key(id))
	assert.True(t, IsMiss(ErrMiss))
	assert.True(t, IsMiss(fmt.Errorf("lookup: %w", ErrMiss)))
	assert.False(t, IsMiss(fmt.Errorf("cache get: boom")))
}

// Integration tests; skipped unless REDIS_URL is set.
func TestRedisIntegration(t *testing.T) {
	redisURL := os.Getenv("REDIS_URL")
	if redisURL == "" {
		t.Skip("REDIS_URL not set; skipping integration tests")
	}
	ctx := context.Background()

	rc, err := NewRedisClient(ctx, redisURL)
	require.NoError(t, err)
	defer rc.Close() //nolint:errcheck

	t.Run("Ping", func(t *testing.T) {
		require.NoError(t, rc.Ping(ctx))
	})

	t.Run("RecordCacheRoundTrip", func(t *testing.T) {
		c := NewRecordCache(rc)
		ts := time.Date(2026, 10, 17, 9, 0, 0, 123456000, time.UTC)
		want := &CachedRecord{ID: uuid.New(), Name: "Router", Details: "Home WiFi", CreatedAt: ts, UpdatedAt: ts.Add(time.Minute)}

		_, err := c.Get(ctx, want.ID)
		require.True(t, IsMiss(err), "expected miss, got %v", err)

		require.NoError(t, c.Set(ctx, want))
		got, err := c.Get(ctx, want.ID)
		require.NoError(t, err)
		assert.Equal(t, want.Name, got.Name)
		assert.Equal(t, want.Details, got.Details)
		assert.True(t, want.CreatedAt.Equal(got.CreatedAt))
		assert.True(t, want.UpdatedAt.Equal(got.UpdatedAt))

		require.NoError(t, c.Delete(ctx, want.ID))
		_, err = c.Get(ctx, want.ID)
		require.True(t, IsMiss(err))
		require.NoError(t, c.Delete(ctx, want.ID))
	})
}
