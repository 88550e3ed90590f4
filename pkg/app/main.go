package app

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/ghuser/recordvault/migrations/record"
	"github.com/ghuser/recordvault/pkg/cache"
	"github.com/ghuser/recordvault/pkg/config"
	"github.com/ghuser/recordvault/pkg/database"
	"github.com/ghuser/recordvault/pkg/events"
	"github.com/ghuser/recordvault/pkg/logger"
	"github.com/ghuser/recordvault/pkg/migrator"
)

// Application holds the shared infrastructure of one vault process. It is
// built once at startup, passed explicitly to services, and closed once.
//
// Logging: app.Logger is backed by a trace-aware handler; use the context
// methods and trace_id, span_id and request_id are injected automatically:
//
//	app.Logger.InfoContext(ctx, "record added", "record_id", id)
type Application struct {
	Config *config.Config
	DB     *database.Database
	Logger logger.Logger

	// EventBus is nil unless cfg.EventsEnabled.
	EventBus *events.EventBus
	// Redis is nil when cfg.RedisURL is empty or unreachable at startup.
	Redis *cache.RedisClient

	closeOnce sync.Once
	closeErr  error
}

// Options tune New for a particular process.
type Options struct {
	// RequireCache makes an unreachable Redis fatal instead of a warning.
	RequireCache bool
}

// New opens the store, applies pending migrations and connects the optional
// cache and event bus. A store failure wraps database.ErrUnavailable.
func New(ctx context.Context, cfg *config.Config, log logger.Logger, opts Options) (*Application, error) {
	db, err := database.Open(ctx, database.OptionsFromConfig(cfg), log)
	if err != nil {
		return nil, err
	}
	a := &Application{Config: cfg, DB: db, Logger: log}

	if err := Migrate(ctx, db, log); err != nil {
		_ = a.Close()
		return nil, err
	}

	if cfg.RedisURL != "" {
		rc, err := cache.NewRedisClient(ctx, cfg.RedisURL)
		switch {
		case err == nil:
			a.Redis = rc
			log.Info("redis connected")
		case opts.RequireCache:
			_ = a.Close()
			return nil, fmt.Errorf("connect redis: %w", err)
		default:
			log.Warn("redis unavailable, continuing without cache", "error", err)
		}
	} else if opts.RequireCache {
		_ = a.Close()
		return nil, errors.New("connect redis: REDIS_URL is not set")
	}

	if cfg.EventsEnabled {
		bus, err := events.NewEventBus(db.DB(), cfg.ServiceName, log)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("setup event bus: %w", err)
		}
		a.EventBus = bus
		log.Info("event bus ready")
	}

	return a, nil
}

// Migrate applies the record schema for the store's dialect.
func Migrate(ctx context.Context, db *database.Database, log logger.Logger) error {
	files, err := record.FS(db.Dialect())
	if err != nil {
		return err
	}
	if err := migrator.RunMigrations(ctx, db.DB(), db.Dialect(), files, log); err != nil {
		return fmt.Errorf("migrate %s: %w", db.Driver(), err)
	}
	return nil
}

// Close releases every dependency in reverse start order. Safe to call more
// than once; only the first call does work.
func (a *Application) Close() error {
	a.closeOnce.Do(func() {
		var errs []error
		if a.EventBus != nil {
			errs = append(errs, a.EventBus.Close())
		}
		if a.Redis != nil {
			errs = append(errs, a.Redis.Close())
		}
		if a.DB != nil {
			errs = append(errs, a.DB.Close())
		}
		a.closeErr = errors.Join(errs...)
	})
	return a.closeErr
}
