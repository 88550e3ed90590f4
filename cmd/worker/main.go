package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/ghuser/recordvault/pkg/app"
	"github.com/ghuser/recordvault/pkg/cache"
	"github.com/ghuser/recordvault/pkg/config"
	"github.com/ghuser/recordvault/pkg/logger"
	"github.com/ghuser/recordvault/pkg/telemetry"
	recordSvcs "github.com/ghuser/recordvault/services/record/application/services"
	recordEvents "github.com/ghuser/recordvault/services/record/domain/events"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	if err := config.ValidateForProduction(cfg); err != nil {
		slog.Error("production config validation failed", "error", err)
		os.Exit(1)
	}
	if !cfg.EventsEnabled {
		slog.Error("worker needs VAULT_EVENTS_ENABLED=true and the postgres store")
		os.Exit(1)
	}

	log := logger.New(cfg)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	otelShutdown, _, err := telemetry.Setup(ctx, cfg)
	if err != nil {
		log.Error("failed to setup otel", "error", err)
		os.Exit(1)
	}
	defer otelShutdown(context.Background()) //nolint:errcheck

	if err := telemetry.SetupSentry(cfg); err != nil {
		log.Warn("failed to setup sentry, continuing without crash reporting", "error", err)
	}
	defer telemetry.SentryFlush()

	a, err := app.New(ctx, cfg, log, app.Options{RequireCache: true})
	if err != nil {
		log.Error("failed to start application", "error", err)
		os.Exit(1) //nolint:gocritic
	}
	// EventBus.Close waits up to 30s for in-flight handlers.
	defer a.Close() //nolint:errcheck

	h := &cacheHandlers{
		repo:  recordSvcs.NewRepository(a),
		cache: cache.NewRecordCache(a.Redis),
		log:   log,
	}
	if err := registerSubscribers(ctx, a, h); err != nil {
		log.Error("failed to register subscribers", "error", err)
		os.Exit(1) //nolint:gocritic
	}

	<-ctx.Done()
	log.Info("shutting down worker...")
}

// registerSubscribers wires all domain event handlers.
func registerSubscribers(ctx context.Context, a *app.Application, h *cacheHandlers) error {
	subs := map[string]handlerFunc{
		recordEvents.TopicRecordCreated: h.recordChanged,
		recordEvents.TopicRecordUpdated: h.recordChanged,
		recordEvents.TopicRecordDeleted: h.recordDeleted,
	}

	topics := make([]string, 0, len(subs))
	for topic, fn := range subs {
		errCh, err := a.EventBus.Subscribe(ctx, topic, fn)
		if err != nil {
			return err
		}
		// Drain subscriber errors in background so the channel never blocks.
		go func(topic string) {
			for err := range errCh {
				a.Logger.ErrorContext(ctx, "subscriber error", "topic", topic, "error", err)
			}
		}(topic)
		topics = append(topics, topic)
	}

	a.Logger.Info("event subscribers registered", "topics", topics)
	return nil
}
