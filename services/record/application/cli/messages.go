package cli

import (
	"errors"

	"github.com/ghuser/recordvault/pkg/database"
	recorddomain "github.com/ghuser/recordvault/services/record/domain"
)

// Describe turns an operation error into the line shown to the operator.
// Order matters: the narrower validation errors are checked first.
func Describe(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrLineTooLong):
		return "Input line too long; it was ignored."
	case errors.Is(err, recorddomain.ErrDeleteCancelled):
		return "Delete cancelled."
	case errors.Is(err, recorddomain.ErrNothingToUpdate):
		return "Nothing to update: enter a new name or new details."
	case errors.Is(err, recorddomain.ErrInvalidSelection):
		return "Invalid selection: " + err.Error()
	case errors.Is(err, recorddomain.ErrValidation):
		return "Invalid input: " + err.Error()
	case errors.Is(err, recorddomain.ErrInvalidID):
		return "Invalid record ID: " + err.Error()
	case errors.Is(err, recorddomain.ErrRecordNotFound):
		return "No record found with that ID."
	case errors.Is(err, recorddomain.ErrIOFailure):
		return "File write failed: " + err.Error()
	case errors.Is(err, database.ErrUnavailable):
		return "Store unavailable: " + err.Error()
	default:
		return "Unexpected error: " + err.Error()
	}
}
