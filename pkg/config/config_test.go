package config

import (
	"os"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validSQLite() *Config {
	return &Config{
		StoreDriver: DriverSQLite,
		SQLitePath:  "vault.db",
		BackupDir:   "backups",
		ExportPath:  "vault_export.txt",
		Environment: EnvDevelopment,
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr string
	}{
		{"sqlite defaults", func(c *Config) {}, ""},
		{"postgres without url", func(c *Config) { c.StoreDriver = DriverPostgres }, "VAULT_DATABASE_URL"},
		{"postgres with url", func(c *Config) {
			c.StoreDriver = DriverPostgres
			c.DatabaseURL = "postgres://vault@localhost/vault"
		}, ""},
		{"unknown driver", func(c *Config) { c.StoreDriver = "mongo" }, "unknown VAULT_STORE_DRIVER"},
		{"cert without key", func(c *Config) { c.TLSCertFile = "client.crt" }, "must be set together"},
		{"events on sqlite", func(c *Config) { c.EventsEnabled = true }, "VAULT_EVENTS_ENABLED"},
		{"empty backup dir", func(c *Config) { c.BackupDir = "  " }, "VAULT_BACKUP_DIR"},
		{"empty export path", func(c *Config) { c.ExportPath = "" }, "VAULT_EXPORT_PATH"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validSQLite()
			tt.mutate(cfg)
			err := Validate(cfg)
			if tt.wantErr == "" {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				return
			}
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Fatalf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestValidateForProduction(t *testing.T) {
	t.Run("no-op outside production", func(t *testing.T) {
		cfg := validSQLite()
		cfg.LogLevel = "debug"
		cfg.CORSAllowedOrigins = "*"
		if err := ValidateForProduction(cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})

	t.Run("rejects debug logging and wildcard cors", func(t *testing.T) {
		cfg := validSQLite()
		cfg.Environment = EnvProduction
		cfg.LogLevel = "debug"
		cfg.CORSAllowedOrigins = "*"
		err := ValidateForProduction(cfg)
		if err == nil {
			t.Fatal("expected error")
		}
		if !strings.Contains(err.Error(), "LOG_LEVEL") || !strings.Contains(err.Error(), "CORS_ALLOWED_ORIGINS") {
			t.Fatalf("expected both problems reported, got %v", err)
		}
	})

	t.Run("postgres needs tls", func(t *testing.T) {
		cfg := validSQLite()
		cfg.Environment = EnvProduction
		cfg.StoreDriver = DriverPostgres
		cfg.DatabaseURL = "postgres://vault@db/vault?sslmode=disable"
		cfg.CORSAllowedOrigins = "https://vault.example.com"
		if err := ValidateForProduction(cfg); err == nil {
			t.Fatal("expected tls error")
		}

		cfg.DatabaseURL = "postgres://vault@db/vault?sslmode=verify-full"
		if err := ValidateForProduction(cfg); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
	})
}

// Flags meant for the calling command must not reach conf, and concurrent
// loads must leave os.Args as they found it.
func TestLoad_IgnoresCommandFlagsConcurrently(t *testing.T) {
	t.Setenv("VAULT_STORE_DRIVER", DriverSQLite)
	t.Setenv("VAULT_SQLITE_PATH", "from-env.db")

	saved := os.Args
	t.Cleanup(func() { os.Args = saved })
	os.Args = []string{"vault", "list", "--output", "json"}
	want := append([]string(nil), os.Args...)

	var wg sync.WaitGroup
	errs := make([]error, 8)
	paths := make([]string, 8)
	for i := range errs {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			cfg, err := Load()
			errs[i] = err
			if err == nil {
				paths[i] = cfg.SQLitePath
			}
		}(i)
	}
	wg.Wait()

	for i := range errs {
		require.NoError(t, errs[i])
		assert.Equal(t, "from-env.db", paths[i])
	}
	assert.Equal(t, want, os.Args)
}
