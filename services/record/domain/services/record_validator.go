package services

import (
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/ghuser/recordvault/services/record/domain"
	"github.com/ghuser/recordvault/services/record/domain/models"
)

// ValidateRecordForWrite checks the invariants every persisted record must
// satisfy. Repositories call it immediately before INSERT and UPDATE so a
// record built by hand cannot bypass the constructors.
func ValidateRecordForWrite(r *models.Record) error {
	if r == nil {
		return fmt.Errorf("%w: record cannot be nil", domain.ErrValidation)
	}
	if r.ID == uuid.Nil {
		return fmt.Errorf("%w: id must be set", domain.ErrValidation)
	}
	if strings.TrimSpace(r.Name.String()) == "" {
		return fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	if r.CreatedAt.IsZero() || r.UpdatedAt.IsZero() {
		return fmt.Errorf("%w: timestamps must be set", domain.ErrValidation)
	}
	if r.UpdatedAt.Before(r.CreatedAt) {
		return fmt.Errorf("%w: updated_at precedes created_at", domain.ErrValidation)
	}
	return nil
}
