package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const (
	// RecordCacheTTL bounds how long an entry can outlive a missed eviction.
	RecordCacheTTL = time.Hour

	recordCacheKeyPrefix = "record"
)

// ErrMiss is returned by Get when no entry exists. It wraps redis.Nil.
var ErrMiss = fmt.Errorf("cache miss: %w", redis.Nil)

// CachedRecord is the read model stored in Redis as a hash.
type CachedRecord struct {
	ID        uuid.UUID
	Name      string
	Details   string
	CreatedAt time.Time
	UpdatedAt time.Time
}

// RecordCache is a read-through cache for lookups by id.
// Key format: "record:{id}"
type RecordCache struct {
	client *RedisClient
}

func NewRecordCache(r *RedisClient) *RecordCache {
	return &RecordCache{client: r}
}

// Get returns ErrMiss when the key does not exist or has expired.
func (c *RecordCache) Get(ctx context.Context, id uuid.UUID) (*CachedRecord, error) {
	vals, err := c.client.Client().HGetAll(ctx, key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("cache get: %w", err)
	}
	if len(vals) == 0 {
		return nil, ErrMiss
	}

	rid, err := uuid.Parse(vals["id"])
	if err != nil {
		return nil, fmt.Errorf("cache parse id: %w", err)
	}
	createdAt, err := time.Parse(time.RFC3339Nano, vals["created_at"])
	if err != nil {
		return nil, fmt.Errorf("cache parse created_at: %w", err)
	}
	updatedAt, err := time.Parse(time.RFC3339Nano, vals["updated_at"])
	if err != nil {
		return nil, fmt.Errorf("cache parse updated_at: %w", err)
	}

	return &CachedRecord{
		ID:        rid,
		Name:      vals["name"],
		Details:   vals["details"],
		CreatedAt: createdAt,
		UpdatedAt: updatedAt,
	}, nil
}

// Set writes rec as a hash and refreshes the TTL in one pipeline.
func (c *RecordCache) Set(ctx context.Context, rec *CachedRecord) error {
	k := key(rec.ID)
	pipe := c.client.Client().TxPipeline()
	pipe.Del(ctx, k)
	pipe.HSet(ctx, k,
		"id", rec.ID.String(),
		"name", rec.Name,
		"details", rec.Details,
		"created_at", rec.CreatedAt.UTC().Format(time.RFC3339Nano),
		"updated_at", rec.UpdatedAt.UTC().Format(time.RFC3339Nano),
	)
	pipe.Expire(ctx, k, RecordCacheTTL)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("cache set: %w", err)
	}
	return nil
}

// Delete evicts the entry for id. Evicting a missing key is not an error.
func (c *RecordCache) Delete(ctx context.Context, id uuid.UUID) error {
	if err := c.client.Client().Del(ctx, key(id)).Err(); err != nil {
		return fmt.Errorf("cache delete: %w", err)
	}
	return nil
}

// IsMiss reports whether err means the entry was absent.
func IsMiss(err error) bool {
	return errors.Is(err, redis.Nil)
}

func key(id uuid.UUID) string {
	return recordCacheKeyPrefix + ":" + id.String()
}
