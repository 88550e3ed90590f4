// Package services contains stateless domain services for the record bounded
// context. They operate purely on domain types.
package services

import (
	"time"

	"github.com/google/uuid"

	"github.com/ghuser/recordvault/services/record/domain/models"
)

// Statistics is a read-only summary of the vault at one point in time.
// Zero values mean "not available" and render as models.NotAvailable.
type Statistics struct {
	Count             int
	LastModified      time.Time
	EarliestCreated   time.Time
	LatestCreated     time.Time
	LongestName       string
	LongestNameLength int
	LongestNameID     uuid.UUID
}

// ComputeStatistics derives every fact from the same snapshot, so the facts
// always agree with each other. records must be in insertion order for the
// longest-name tie-break to pick the earliest-created record.
func ComputeStatistics(records []*models.Record) Statistics {
	stats := Statistics{Count: len(records)}

	for i, r := range records {
		if i == 0 || r.UpdatedAt.After(stats.LastModified) {
			stats.LastModified = r.UpdatedAt
		}
		if i == 0 || r.CreatedAt.Before(stats.EarliestCreated) {
			stats.EarliestCreated = r.CreatedAt
		}
		if i == 0 || r.CreatedAt.After(stats.LatestCreated) {
			stats.LatestCreated = r.CreatedAt
		}
		// Strictly greater keeps the first record on ties.
		if n := r.Name.Len(); i == 0 || n > stats.LongestNameLength {
			stats.LongestName = r.Name.String()
			stats.LongestNameLength = n
			stats.LongestNameID = r.ID
		}
	}
	return stats
}

// Empty reports whether the snapshot had no records.
func (s Statistics) Empty() bool {
	return s.Count == 0
}

// LongestNameText returns the longest name, or N/A for an empty vault.
func (s Statistics) LongestNameText() string {
	if s.Empty() {
		return models.NotAvailable
	}
	return s.LongestName
}
