package domain

import (
	"errors"
	"fmt"
)

// Sentinel errors for the record domain. Use errors.Is() to check these.
var (
	// ErrValidation indicates a required input was empty or malformed.
	ErrValidation = errors.New("validation failed")

	// ErrInvalidSelection indicates an unknown sort field, sort direction or
	// search mode. It is also an ErrValidation.
	ErrInvalidSelection = fmt.Errorf("%w: invalid selection", ErrValidation)

	// ErrNothingToUpdate indicates an update carried no new values. It is also
	// an ErrValidation.
	ErrNothingToUpdate = fmt.Errorf("%w: nothing to update", ErrValidation)

	// ErrInvalidID indicates the identifier is not in the accepted format.
	// No store query is made for such ids.
	ErrInvalidID = errors.New("invalid record id")

	// ErrRecordNotFound indicates a well-formed id with no live record.
	ErrRecordNotFound = errors.New("record not found")

	// ErrDeleteCancelled indicates a delete was requested without confirmation.
	ErrDeleteCancelled = errors.New("delete cancelled")

	// ErrIOFailure indicates a backup or export file could not be written.
	ErrIOFailure = errors.New("i/o failure")
)
