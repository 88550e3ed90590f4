package config

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/ardanlabs/conf/v3"
	"github.com/joho/godotenv"
)

// Environment name constants used in ENVIRONMENT config field.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTesting     = "testing"
)

// Store driver names accepted in VAULT_STORE_DRIVER.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Config holds all configuration for the vault processes.
type Config struct {
	// Store
	StoreDriver    string        `conf:"default:sqlite,enum:postgres|sqlite,env:VAULT_STORE_DRIVER"`
	DatabaseURL    string        `conf:"env:VAULT_DATABASE_URL,mask"`
	SQLitePath     string        `conf:"default:vault.db,env:VAULT_SQLITE_PATH"`
	TLSCertFile    string        `conf:"env:VAULT_TLS_CERT_FILE"`
	TLSKeyFile     string        `conf:"env:VAULT_TLS_KEY_FILE"`
	TLSCAFile      string        `conf:"env:VAULT_TLS_CA_FILE"`
	ConnectTimeout time.Duration `conf:"default:10s,env:VAULT_CONNECT_TIMEOUT"`

	// Artifacts
	BackupDir  string `conf:"default:backups,env:VAULT_BACKUP_DIR"`
	ExportPath string `conf:"default:vault_export.txt,env:VAULT_EXPORT_PATH"`

	// Redis read-through cache for lookups by id. Empty disables the cache.
	RedisURL string `conf:"env:REDIS_URL"`

	// Outbox events for the worker; postgres only.
	EventsEnabled bool `conf:"default:false,env:VAULT_EVENTS_ENABLED"`

	// HTTP API
	HTTPAddr string `conf:"default::8080,env:VAULT_HTTP_ADDR"`
	// CORS: comma-separated list of allowed origins; use * to allow all (dev only)
	CORSAllowedOrigins string `conf:"default:*,env:CORS_ALLOWED_ORIGINS"`

	// Application
	LogLevel    string `conf:"default:info,env:LOG_LEVEL"`
	LogFormat   string `conf:"default:json,enum:json|text,env:LOG_FORMAT"`
	Environment string `conf:"default:development,enum:development|testing|production,env:ENVIRONMENT"`

	// Observability
	ServiceName    string `conf:"default:recordvault,env:SERVICE_NAME"`
	ServiceVersion string `conf:"default:dev,env:SERVICE_VERSION"`
	OtelEndpoint   string `conf:"env:OTEL_ENDPOINT"`
	SentryDSN      string `conf:"env:SENTRY_DSN,noprint"`
}

// argsMu guards the os.Args swap in Load. conf always parses os.Args, and
// nothing else in this module writes it.
var argsMu sync.Mutex

// Load reads configuration from environment variables (and a .env file when
// present) with sensible defaults, then checks driver-specific requirements.
// Command-line flags belong to the calling command, so conf only sees the
// environment. Load is safe to call from several goroutines.
func Load() (*Config, error) {
	var cfg Config
	_ = godotenv.Load()

	if err := parseEnvOnly(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func parseEnvOnly(cfg *Config) error {
	argsMu.Lock()
	defer argsMu.Unlock()

	args := os.Args
	os.Args = args[:1]
	defer func() { os.Args = args }()

	_, err := conf.Parse("", cfg)
	return err
}

// Validate reports configuration that cannot produce a working store
// connection. A missing store configuration is fatal to every process.
func Validate(cfg *Config) error {
	var errs []string

	switch cfg.StoreDriver {
	case DriverPostgres:
		if strings.TrimSpace(cfg.DatabaseURL) == "" {
			errs = append(errs, "VAULT_DATABASE_URL is required when VAULT_STORE_DRIVER=postgres")
		}
	case DriverSQLite:
		if strings.TrimSpace(cfg.SQLitePath) == "" {
			errs = append(errs, "VAULT_SQLITE_PATH must not be empty when VAULT_STORE_DRIVER=sqlite")
		}
		if cfg.EventsEnabled {
			errs = append(errs, "VAULT_EVENTS_ENABLED requires VAULT_STORE_DRIVER=postgres")
		}
	default:
		errs = append(errs, fmt.Sprintf("unknown VAULT_STORE_DRIVER %q", cfg.StoreDriver))
	}

	if (cfg.TLSCertFile == "") != (cfg.TLSKeyFile == "") {
		errs = append(errs, "VAULT_TLS_CERT_FILE and VAULT_TLS_KEY_FILE must be set together")
	}

	if strings.TrimSpace(cfg.BackupDir) == "" {
		errs = append(errs, "VAULT_BACKUP_DIR must not be empty")
	}
	if strings.TrimSpace(cfg.ExportPath) == "" {
		errs = append(errs, "VAULT_EXPORT_PATH must not be empty")
	}

	if len(errs) == 0 {
		return nil
	}
	return fmt.Errorf("invalid config: %s", strings.Join(errs, "; "))
}

// ValidateForProduction enforces security requirements when ENVIRONMENT=production.
// No-ops for non-production environments.
func ValidateForProduction(cfg *Config) error {
	if cfg.Environment != EnvProduction {
		return nil
	}

	var errs []string

	if cfg.StoreDriver == DriverPostgres && cfg.TLSCertFile == "" && !strings.Contains(cfg.DatabaseURL, "sslmode=verify") {
		errs = append(errs, "postgres connections in production need VAULT_TLS_CERT_FILE or sslmode=verify-ca|verify-full")
	}

	if cfg.LogLevel == "debug" {
		errs = append(errs, "LOG_LEVEL must not be 'debug' in production (record contents are logged at debug)")
	}

	if strings.TrimSpace(cfg.CORSAllowedOrigins) == "*" {
		errs = append(errs, "CORS_ALLOWED_ORIGINS must list explicit origins in production")
	}

	if len(errs) == 0 {
		return nil
	}

	return fmt.Errorf("production config validation failed: %s", strings.Join(errs, "; "))
}
