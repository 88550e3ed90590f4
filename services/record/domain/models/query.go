package models

import (
	"fmt"
	"strings"

	"github.com/ghuser/recordvault/services/record/domain"
)

// SortField names a sortable record field.
type SortField string

const (
	SortByName      SortField = "name"
	SortByCreatedAt SortField = "createdAt"
)

// SortDirection is ascending or descending.
type SortDirection string

const (
	Ascending  SortDirection = "asc"
	Descending SortDirection = "desc"
)

// SortOrder is a validated field + direction pair.
type SortOrder struct {
	Field     SortField
	Direction SortDirection
}

// OrderCreatedAsc is the store's natural order: insertion order.
var OrderCreatedAsc = SortOrder{Field: SortByCreatedAt, Direction: Ascending}

func (o SortOrder) String() string {
	return string(o.Field) + " " + string(o.Direction)
}

// ParseSortField accepts the field name or its menu number.
func ParseSortField(s string) (SortField, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "name":
		return SortByName, nil
	case "2", "createdat", "created_at", "created":
		return SortByCreatedAt, nil
	default:
		return "", fmt.Errorf("%w: sort field %q (want name or createdAt)", domain.ErrInvalidSelection, s)
	}
}

// ParseSortDirection accepts asc/desc, their long forms, or the menu number.
func ParseSortDirection(s string) (SortDirection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "asc", "ascending":
		return Ascending, nil
	case "2", "desc", "descending":
		return Descending, nil
	default:
		return "", fmt.Errorf("%w: sort direction %q (want asc or desc)", domain.ErrInvalidSelection, s)
	}
}

// ParseSortOrder validates both halves of a sort selection.
func ParseSortOrder(field, direction string) (SortOrder, error) {
	f, err := ParseSortField(field)
	if err != nil {
		return SortOrder{}, err
	}
	d, err := ParseSortDirection(direction)
	if err != nil {
		return SortOrder{}, err
	}
	return SortOrder{Field: f, Direction: d}, nil
}

// SearchMode selects what a search term is matched against.
type SearchMode string

const (
	SearchByName SearchMode = "name"
	SearchByID   SearchMode = "id"
)

// ParseSearchMode accepts the mode name or its menu number.
func ParseSearchMode(s string) (SearchMode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "1", "name", "byname":
		return SearchByName, nil
	case "2", "id", "byid":
		return SearchByID, nil
	default:
		return "", fmt.Errorf("%w: search mode %q (want name or id)", domain.ErrInvalidSelection, s)
	}
}

// NormalizeSearchTerm trims term. An empty term is rejected rather than
// matching everything.
func NormalizeSearchTerm(term string) (string, error) {
	trimmed := strings.TrimSpace(term)
	if trimmed == "" {
		return "", fmt.Errorf("%w: search term is required", domain.ErrValidation)
	}
	return trimmed, nil
}

// EscapeLike escapes LIKE wildcards so the term matches literally under
// ESCAPE '\'.
func EscapeLike(term string) string {
	return likeEscaper.Replace(term)
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
