// Package record embeds the schema migrations for the records table, one
// directory per store dialect.
package record

import (
	"embed"
	"io/fs"
)

//go:embed postgres/*.sql sqlite/*.sql
var migrationsFS embed.FS

// FS returns the migrations for the given goose dialect ("postgres" or "sqlite3").
func FS(dialect string) (fs.FS, error) {
	dir := "postgres"
	if dialect == "sqlite3" {
		dir = "sqlite"
	}
	return fs.Sub(migrationsFS, dir)
}
