package repositories

import (
	"context"

	"github.com/google/uuid"

	"github.com/ghuser/recordvault/services/record/domain/models"
)

// RecordRepository is the persistence interface for the Record aggregate.
// The domain layer owns this interface; infrastructure implements it.
//
// Listing methods return every matching live record as a fully materialized
// slice read from one snapshot; callers may iterate it as often as they like.
type RecordRepository interface {
	// Create validates name, assigns id and timestamps, and persists the record.
	// Returns ErrValidation when name trims to empty.
	Create(ctx context.Context, name, details string) (*models.Record, error)

	// GetByID returns ErrRecordNotFound when no live record has id.
	GetByID(ctx context.Context, id uuid.UUID) (*models.Record, error)

	// Update applies patch to the record and refreshes UpdatedAt.
	// Returns ErrRecordNotFound when no live record has id.
	Update(ctx context.Context, id uuid.UUID, patch models.RecordPatch) (*models.Record, error)

	// Delete removes the record permanently and returns it as it was.
	// Returns ErrRecordNotFound when no live record has id.
	Delete(ctx context.Context, id uuid.UUID) (*models.Record, error)

	// List returns all records in the given order. Ties always fall back to
	// insertion order.
	List(ctx context.Context, order models.SortOrder) ([]*models.Record, error)

	// SearchByName returns records whose name contains term, ignoring case,
	// in insertion order. term is matched literally.
	SearchByName(ctx context.Context, term string) ([]*models.Record, error)

	Count(ctx context.Context) (int, error)

	// LongestName returns the record with the longest name in code points,
	// earliest-created on ties, or nil when the store is empty.
	LongestName(ctx context.Context) (*models.Record, error)
}
