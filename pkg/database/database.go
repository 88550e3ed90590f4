// Package database owns the process-wide store handle. It is opened once at
// startup, passed explicitly to repositories, and closed exactly once.
package database

import (
	"context"
	"crypto/tls"
	"crypto/x509"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/stdlib"
	_ "modernc.org/sqlite"

	"github.com/ghuser/recordvault/pkg/config"
	"github.com/ghuser/recordvault/pkg/logger"
)

// ErrUnavailable wraps every failure to reach the store at startup.
// Callers treat it as fatal.
var ErrUnavailable = errors.New("store unavailable")

const defaultConnectTimeout = 10 * time.Second

// Options selects and configures the store backend.
type Options struct {
	Driver string // config.DriverPostgres or config.DriverSQLite
	URL    string // postgres connection string
	Path   string // sqlite file path

	// Optional TLS client certificate for postgres.
	TLSCertFile string
	TLSKeyFile  string
	TLSCAFile   string

	ConnectTimeout time.Duration
}

// OptionsFromConfig maps the process config onto Options.
func OptionsFromConfig(cfg *config.Config) Options {
	return Options{
		Driver:         cfg.StoreDriver,
		URL:            cfg.DatabaseURL,
		Path:           cfg.SQLitePath,
		TLSCertFile:    cfg.TLSCertFile,
		TLSKeyFile:     cfg.TLSKeyFile,
		TLSCAFile:      cfg.TLSCAFile,
		ConnectTimeout: cfg.ConnectTimeout,
	}
}

// Database wraps *sql.DB with the driver name and transaction helpers.
type Database struct {
	db        *sql.DB
	driver    string
	log       logger.Logger
	closeOnce sync.Once
	closeErr  error
}

// Open connects to the configured backend and verifies connectivity within
// the connect timeout. Any failure is wrapped in ErrUnavailable.
func Open(ctx context.Context, opts Options, log logger.Logger) (*Database, error) {
	timeout := opts.ConnectTimeout
	if timeout <= 0 {
		timeout = defaultConnectTimeout
	}

	var (
		db  *sql.DB
		err error
	)
	switch opts.Driver {
	case config.DriverPostgres:
		db, err = openPostgres(opts, timeout)
	case config.DriverSQLite:
		db, err = openSQLite(opts.Path)
	default:
		err = fmt.Errorf("unknown driver %q", opts.Driver)
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnavailable, err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("%w: ping %s: %w", ErrUnavailable, opts.Driver, err)
	}

	log.Info("store connected", "driver", opts.Driver)
	return &Database{db: db, driver: opts.Driver, log: log}, nil
}

func openPostgres(opts Options, timeout time.Duration) (*sql.DB, error) {
	if opts.URL == "" {
		return nil, errors.New("postgres connection string is empty")
	}
	connCfg, err := pgx.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse postgres url: %w", err)
	}
	connCfg.ConnectTimeout = timeout

	if opts.TLSCertFile != "" {
		tlsCfg, err := clientTLSConfig(connCfg.TLSConfig, connCfg.Host, opts)
		if err != nil {
			return nil, err
		}
		connCfg.TLSConfig = tlsCfg
		// A client certificate means the plaintext fallback must never be tried.
		connCfg.Fallbacks = nil
	}

	db := stdlib.OpenDB(*connCfg)
	db.SetMaxOpenConns(10)
	db.SetMaxIdleConns(2)
	db.SetConnMaxIdleTime(5 * time.Minute)
	return db, nil
}

func clientTLSConfig(base *tls.Config, host string, opts Options) (*tls.Config, error) {
	cert, err := tls.LoadX509KeyPair(opts.TLSCertFile, opts.TLSKeyFile)
	if err != nil {
		return nil, fmt.Errorf("load client certificate: %w", err)
	}

	var cfg *tls.Config
	if base != nil {
		cfg = base.Clone()
	} else {
		cfg = &tls.Config{ServerName: host, MinVersion: tls.VersionTLS12}
	}
	cfg.Certificates = []tls.Certificate{cert}

	if opts.TLSCAFile != "" {
		pem, err := os.ReadFile(opts.TLSCAFile)
		if err != nil {
			return nil, fmt.Errorf("read CA file: %w", err)
		}
		pool := x509.NewCertPool()
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("no certificates found in %s", opts.TLSCAFile)
		}
		cfg.RootCAs = pool
		// sslmode=prefer/require leave verification off and verify-ca swaps in
		// its own callback; a supplied CA always means full verification.
		cfg.InsecureSkipVerify = false
		cfg.VerifyPeerCertificate = nil
		if cfg.ServerName == "" {
			cfg.ServerName = host
		}
	}
	return cfg, nil
}

func openSQLite(path string) (*sql.DB, error) {
	if path == "" {
		return nil, errors.New("sqlite path is empty")
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite %q: %w", path, err)
	}
	// One writer at a time; keeps BEGIN/COMMIT on a single connection.
	db.SetMaxOpenConns(1)

	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA foreign_keys=ON",
	} {
		if _, err := db.Exec(pragma); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("sqlite %s: %w", pragma, err)
		}
	}
	return db, nil
}

// DB returns the underlying *sql.DB.
func (d *Database) DB() *sql.DB {
	return d.db
}

// Driver reports which backend this handle talks to.
func (d *Database) Driver() string {
	return d.driver
}

// Dialect returns the goose dialect name for the backend.
func (d *Database) Dialect() string {
	if d.driver == config.DriverSQLite {
		return "sqlite3"
	}
	return "postgres"
}

// WithTx runs fn inside a transaction, committing on nil and rolling back on
// error or panic.
func (d *Database) WithTx(ctx context.Context, fn func(tx *sql.Tx) error) (err error) {
	tx, err := d.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Ping checks store health.
func (d *Database) Ping(ctx context.Context) error {
	if err := d.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database ping: %w", err)
	}
	return nil
}

// Close releases the handle. Safe to call more than once; only the first
// call closes the pool.
func (d *Database) Close() error {
	d.closeOnce.Do(func() {
		d.closeErr = d.db.Close()
		d.log.Info("store connection closed", "driver", d.driver)
	})
	return d.closeErr
}
