package database

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"testing"

	"github.com/ghuser/recordvault/pkg/config"
	"github.com/ghuser/recordvault/pkg/logger"
)

func openTestSQLite(t *testing.T) *Database {
	t.Helper()
	db, err := Open(context.Background(), Options{
		Driver: config.DriverSQLite,
		Path:   filepath.Join(t.TempDir(), "vault.db"),
	}, logger.Nop())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func TestOpen_SQLite(t *testing.T) {
	db := openTestSQLite(t)

	if db.Driver() != config.DriverSQLite {
		t.Fatalf("expected driver sqlite, got %q", db.Driver())
	}
	if db.Dialect() != "sqlite3" {
		t.Fatalf("expected goose dialect sqlite3, got %q", db.Dialect())
	}
	if err := db.Ping(context.Background()); err != nil {
		t.Fatalf("ping: %v", err)
	}
}

func TestOpen_Failures(t *testing.T) {
	tests := []struct {
		name string
		opts Options
	}{
		{"unknown driver", Options{Driver: "mongo"}},
		{"empty sqlite path", Options{Driver: config.DriverSQLite}},
		{"empty postgres url", Options{Driver: config.DriverPostgres}},
		{"bad postgres url", Options{Driver: config.DriverPostgres, URL: "postgres://%zz"}},
		{"missing client cert", Options{
			Driver:      config.DriverPostgres,
			URL:         "postgres://vault@localhost:1/vault",
			TLSCertFile: "/nonexistent/client.crt",
			TLSKeyFile:  "/nonexistent/client.key",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(context.Background(), tt.opts, logger.Nop())
			if !errors.Is(err, ErrUnavailable) {
				t.Fatalf("expected ErrUnavailable, got %v", err)
			}
		})
	}
}

func TestWithTx(t *testing.T) {
	db := openTestSQLite(t)
	ctx := context.Background()

	if _, err := db.DB().ExecContext(ctx, `CREATE TABLE t (v INTEGER)`); err != nil {
		t.Fatalf("create table: %v", err)
	}

	count := func() int {
		var n int
		if err := db.DB().QueryRowContext(ctx, `SELECT COUNT(*) FROM t`).Scan(&n); err != nil {
			t.Fatalf("count: %v", err)
		}
		return n
	}

	t.Run("commits on nil", func(t *testing.T) {
		err := db.WithTx(ctx, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `INSERT INTO t (v) VALUES (1)`)
			return err
		})
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if count() != 1 {
			t.Fatalf("expected 1 row, got %d", count())
		}
	})

	t.Run("rolls back on error", func(t *testing.T) {
		boom := errors.New("boom")
		err := db.WithTx(ctx, func(tx *sql.Tx) error {
			if _, err := tx.ExecContext(ctx, `INSERT INTO t (v) VALUES (2)`); err != nil {
				return err
			}
			return boom
		})
		if !errors.Is(err, boom) {
			t.Fatalf("expected boom, got %v", err)
		}
		if count() != 1 {
			t.Fatalf("expected rollback to keep 1 row, got %d", count())
		}
	})
}

func TestClose_Idempotent(t *testing.T) {
	db := openTestSQLite(t)
	if err := db.Close(); err != nil {
		t.Fatalf("first close: %v", err)
	}
	if err := db.Close(); err != nil {
		t.Fatalf("second close: %v", err)
	}
}
