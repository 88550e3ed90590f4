package migrator

import (
	"context"
	"database/sql"
	"fmt"
	"io/fs"
	"sync"

	"github.com/pressly/goose/v3"

	"github.com/ghuser/recordvault/pkg/logger"
)

// goose keeps its base FS and dialect in package globals.
var mu sync.Mutex

// RunMigrations applies all pending goose migrations from files against db.
// dialect is a goose dialect name such as "postgres" or "sqlite3".
func RunMigrations(ctx context.Context, db *sql.DB, dialect string, files fs.FS, log logger.Logger) error {
	mu.Lock()
	defer mu.Unlock()

	goose.SetBaseFS(files)
	defer goose.SetBaseFS(nil)
	goose.SetLogger(&gooseLogger{log: log})

	if err := goose.SetDialect(dialect); err != nil {
		return fmt.Errorf("failed to set goose dialect: %w", err)
	}

	if err := goose.UpContext(ctx, db, "."); err != nil {
		return fmt.Errorf("failed to up migrations: %w", err)
	}

	version, err := goose.GetDBVersionContext(ctx, db)
	if err != nil {
		return fmt.Errorf("failed to read schema version: %w", err)
	}
	log.Debug("schema up to date", "dialect", dialect, "version", version)
	return nil
}

// gooseLogger routes goose output through the project logger instead of
// stdout, which belongs to the interactive menu.
type gooseLogger struct{ log logger.Logger }

func (l *gooseLogger) Printf(format string, v ...interface{}) {
	l.log.Debug(fmt.Sprintf(format, v...))
}

func (l *gooseLogger) Fatalf(format string, v ...interface{}) {
	// goose only calls Fatalf from its CLI helpers; never exit from a library.
	l.log.Error(fmt.Sprintf(format, v...))
}
