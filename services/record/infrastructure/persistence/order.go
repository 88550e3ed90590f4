// Package persistence holds SQL shared by the record store backends.
package persistence

import "github.com/ghuser/recordvault/services/record/domain/models"

// OrderBy returns the ORDER BY expression for order. fold names the SQL
// function the backend uses to case-fold names ("lower" on Postgres). Every
// ordering ends on the insertion sequence so results are stable. Sorting by
// creation time descending is the exact reverse of insertion order; sorting
// by name keeps insertion order among equal names in both directions.
func OrderBy(fold string, order models.SortOrder) string {
	switch {
	case order.Field == models.SortByName && order.Direction == models.Descending:
		return fold + "(name) DESC, seq ASC"
	case order.Field == models.SortByName:
		return fold + "(name) ASC, seq ASC"
	case order.Direction == models.Descending:
		return "created_at DESC, seq DESC"
	default:
		return "created_at ASC, seq ASC"
	}
}

// RecordColumns is the column list every record query selects, in scan order.
const RecordColumns = "id, name, details, created_at, updated_at"
