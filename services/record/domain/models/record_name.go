package models

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/ghuser/recordvault/services/record/domain"
)

// RecordName is a value object holding a trimmed, non-empty record name.
type RecordName string

// NewRecordName trims surrounding whitespace and rejects names that end up empty.
func NewRecordName(s string) (RecordName, error) {
	trimmed := strings.TrimSpace(s)
	if trimmed == "" {
		return "", fmt.Errorf("%w: name is required", domain.ErrValidation)
	}
	return RecordName(trimmed), nil
}

// String returns the underlying string value.
func (n RecordName) String() string {
	return string(n)
}

// Len returns the name length in code points, not bytes.
func (n RecordName) Len() int {
	return utf8.RuneCountInString(string(n))
}
